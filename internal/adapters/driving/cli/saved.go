package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

var (
	savedOpts    searchFlags
	savedQuery   string
	savedContext string
	exportFile   string
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved searches",
	Long: `Saved searches are named filter sets stored on this machine.

A saved search is disabled in a search context that does not allow its
result type; disabled searches are listed but cannot be applied.`,
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved searches",
	Args:  cobra.NoArgs,
	RunE:  runSavedList,
}

var savedSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save a search under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedSave,
}

var savedApplyCmd = &cobra.Command{
	Use:   "apply [id]",
	Short: "Run a saved search",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedApply,
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved search",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedDelete,
}

var savedExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved searches as YAML",
	Args:  cobra.NoArgs,
	RunE:  runSavedExport,
}

var savedImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import saved searches from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedImport,
}

func init() {
	for _, c := range []*cobra.Command{savedListCmd, savedApplyCmd, savedDeleteCmd, savedExportCmd, savedImportCmd} {
		c.Flags().StringVar(&savedContext, "context", "", "search context preset")
	}
	addSearchFlags(savedSaveCmd, &savedOpts)
	savedSaveCmd.Flags().StringVarP(&savedQuery, "query", "q", "", "free text query")
	savedExportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "write to file instead of stdout")

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedSaveCmd)
	savedCmd.AddCommand(savedApplyCmd)
	savedCmd.AddCommand(savedDeleteCmd)
	savedCmd.AddCommand(savedExportCmd)
	savedCmd.AddCommand(savedImportCmd)
	rootCmd.AddCommand(savedCmd)
}

func savedSearch(overrides ...domain.Override) (driving.SearchService, error) {
	if newSearch == nil {
		return nil, errors.New("search service not configured")
	}
	return newSearch(savedContext, overrides...)
}

// savedSearchRow is the list and export shape of a saved search.
type savedSearchRow struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Query   string `json:"query" yaml:"query"`
}

func runSavedList(cmd *cobra.Command, _ []string) error {
	svc, err := savedSearch()
	if err != nil {
		return err
	}
	options, err := svc.SavedSearches(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([]savedSearchRow, 0, len(options))
	for i := range options {
		row := savedSearchRow{
			ID:      options[i].ID,
			Name:    options[i].Name,
			Enabled: options[i].Enabled,
		}
		if queryCodec != nil {
			row.Query = queryCodec.EncodeString(options[i].Params)
		}
		rows = append(rows, row)
	}

	return render(cmd, rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No saved searches.")
			return
		}
		t := newTextTable("ID", "NAME", "TYPE", "ENABLED")
		for i := range options {
			enabled := "yes"
			if !options[i].Enabled {
				enabled = "no"
			}
			t.addRow(options[i].ID, options[i].Name, options[i].Params.ResultType.String(), enabled)
		}
		t.write(w)
	})
}

func runSavedSave(cmd *cobra.Command, args []string) error {
	savedContext = savedOpts.context
	overrides, err := savedOpts.overrides(savedQuery)
	if err != nil {
		return err
	}
	svc, err := savedSearch(overrides...)
	if err != nil {
		return err
	}
	saved, err := svc.SaveCurrent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Saved search %q (%s)\n", saved.Name, saved.ID)
	return nil
}

func runSavedApply(cmd *cobra.Command, args []string) error {
	svc, err := savedSearch()
	if err != nil {
		return err
	}
	if err := svc.ApplySavedSearch(cmd.Context(), args[0]); err != nil {
		return err
	}
	snap := svc.Snapshot()
	if snap.State == domain.FetchError {
		return fmt.Errorf("search failed: %s", snap.Error)
	}
	return render(cmd, snap, func(w io.Writer) {
		writeSnapshot(w, snap)
	})
}

func runSavedDelete(cmd *cobra.Command, args []string) error {
	svc, err := savedSearch()
	if err != nil {
		return err
	}
	if err := svc.DeleteSavedSearch(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted saved search %s\n", args[0])
	return nil
}

// savedSearchFile is the YAML document written by export and read by import.
type savedSearchFile struct {
	Searches []domain.SavedSearch `yaml:"searches"`
}

func runSavedExport(cmd *cobra.Command, _ []string) error {
	svc, err := savedSearch()
	if err != nil {
		return err
	}
	options, err := svc.SavedSearches(cmd.Context())
	if err != nil {
		return err
	}
	doc := savedSearchFile{Searches: make([]domain.SavedSearch, 0, len(options))}
	for i := range options {
		doc.Searches = append(doc.Searches, options[i].SavedSearch)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal saved searches: %w", err)
	}
	if exportFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportFile, err)
	}
	cmd.Printf("Exported %d saved searches to %s\n", len(doc.Searches), exportFile)
	return nil
}

func runSavedImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	var doc savedSearchFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	svc, err := savedSearch()
	if err != nil {
		return err
	}
	var errs []error
	imported := 0
	for _, s := range doc.Searches {
		if _, err := svc.ImportSavedSearch(cmd.Context(), s); err != nil {
			errs = append(errs, err)
			continue
		}
		imported++
	}
	cmd.Printf("Imported %d of %d saved searches\n", imported, len(doc.Searches))
	return errors.Join(errs...)
}
