package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// searchFlags are the filters shared by search and saved save.
type searchFlags struct {
	context  string
	urlQuery string
	filter   domain.SearchFilter
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the inventory",
	Long: `Search samples, subsamples, containers and templates.

Filters combine: --type narrows the result type, --owner and --bench
restrict by user, --deleted includes or isolates deleted records and
--parent scopes the search to a container, sample, template or basket.
A full search can also be given as a URL query with --url-query.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd, &searchOpts)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.context, "context", "", "search context preset (inventory, picker, basket, container)")
	flags.StringVar(&f.urlQuery, "url-query", "", "search parameters as a URL query string")
	flags.StringVarP(&f.filter.ResultType, "type", "t", "", "result type: ALL, CONTAINER, SAMPLE, SUBSAMPLE or TEMPLATE")
	flags.StringVar(&f.filter.Owner, "owner", "", "only records owned by this username")
	flags.StringVar(&f.filter.Bench, "bench", "", "only records on this user's bench")
	flags.StringVar(&f.filter.DeletedItems, "deleted", "", "deleted items: EXCLUDE, INCLUDE or DELETED_ONLY")
	flags.StringVar(&f.filter.Parent, "parent", "", "global id of the parent container, sample, template or basket")
	flags.StringVar(&f.filter.Permalink, "permalink", "", "show only the record with this global id")
	flags.StringVar(&f.filter.OrderBy, "order", "", "sort key: name, type, globalId, creationDate, modificationDate or owner")
	flags.StringVar(&f.filter.SortOrder, "sort", "", "sort direction: asc or desc")
	flags.IntVar(&f.filter.Page, "page", 0, "page number, starting at 0")
	flags.IntVarP(&f.filter.PageSize, "page-size", "n", 0, "results per page")
}

// overrides turns the flags and an optional free text query into
// overrides of the context defaults. A --url-query replaces the defaults
// before the other flags apply.
func (f *searchFlags) overrides(query string) ([]domain.Override, error) {
	var out []domain.Override
	if f.urlQuery != "" {
		if queryCodec == nil {
			return nil, errors.New("query codec not configured")
		}
		decoded, err := queryCodec.DecodeString(f.urlQuery)
		if err != nil {
			return nil, fmt.Errorf("invalid --url-query: %w", err)
		}
		out = append(out, func(p *domain.SearchParameters) { *p = decoded.Clone() })
	}

	filter := f.filter
	if query != "" {
		filter.Query = query
	}
	more, err := filter.Overrides()
	if err != nil {
		return nil, err
	}
	return append(out, more...), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if newSearch == nil {
		return errors.New("search service not configured")
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	overrides, err := searchOpts.overrides(query)
	if err != nil {
		return err
	}

	svc, err := newSearch(searchOpts.context, overrides...)
	if err != nil {
		return err
	}
	if err := svc.DoSearch(cmd.Context()); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	snap := svc.Snapshot()
	return render(cmd, snap, func(w io.Writer) {
		writeSnapshot(w, snap)
	})
}

func writeSnapshot(w io.Writer, snap domain.SearchSnapshot) {
	fmt.Fprintln(w, snap.Status)
	for _, chip := range snap.Chips {
		fmt.Fprintf(w, "  [%s] %s\n", chip.Kind, chip.Label)
	}
	if len(snap.Results.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	fmt.Fprintln(w)

	t := newTextTable("GLOBAL ID", "NAME", "TYPE", "OWNER", "LAST MODIFIED")
	for i := range snap.Results.Records {
		r := &snap.Results.Records[i]
		name := r.Name
		if r.Deleted {
			name += " (deleted)"
		}
		t.addRow(r.GlobalID.String(), name, r.Type, r.Owner.DisplayName(), formatTime(r.Modified))
	}
	t.write(w)

	shown := len(snap.Results.Records)
	if snap.Results.TotalHits > shown {
		fmt.Fprintf(w, "\nPage %d, %d of %d results. Use --page to see more.\n",
			snap.Params.PageNumber, shown, snap.Results.TotalHits)
	}
}
