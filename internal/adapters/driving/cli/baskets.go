package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var basketsCmd = &cobra.Command{
	Use:   "baskets",
	Short: "List your baskets",
	Long: `List the baskets you can use as a search scope.

Pass a basket's global id to 'labinv search --parent' to search inside it.`,
	Args: cobra.NoArgs,
	RunE: runBaskets,
}

func init() {
	rootCmd.AddCommand(basketsCmd)
}

func runBaskets(cmd *cobra.Command, _ []string) error {
	if newSearch == nil {
		return errors.New("search service not configured")
	}
	svc, err := newSearch("")
	if err != nil {
		return err
	}
	if err := svc.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load baskets: %w", err)
	}

	baskets := svc.Baskets()
	return render(cmd, baskets, func(w io.Writer) {
		if len(baskets) == 0 {
			fmt.Fprintln(w, "No baskets.")
			return
		}
		t := newTextTable("GLOBAL ID", "NAME", "ITEMS")
		for _, b := range baskets {
			t.addRow(b.GlobalID.String(), b.Name, strconv.Itoa(b.ItemCount))
		}
		t.write(w)
	})
}
