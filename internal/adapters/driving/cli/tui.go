package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui"
)

var tuiContext string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for labinv.

The TUI searches the inventory with live filters, applies saved searches
and baskets, and renames, tags, shares or compares the marked records.

Controls:
  /        - Edit the query
  ↑/k, ↓/j - Navigate results
  space    - Mark a record
  t, d, o  - Cycle type, deleted and sort filters
  r, g, h  - Rename, tag, share
  c        - Compare marked records
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiContext, "context", "", "search context preset (inventory, picker, basket, container)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if newSearch == nil {
		return errors.New("search service not configured")
	}
	if err := requireServer(recordService); err != nil {
		return err
	}

	search, err := newSearch(tuiContext)
	if err != nil {
		return err
	}

	ports := tui.NewPorts(search, recordService, eventBus)
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			ports.Server = s.Server.URL
		}
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
