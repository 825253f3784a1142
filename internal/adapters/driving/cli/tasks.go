package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var (
	tasksKind  string
	tasksLimit int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show background task history",
}

var tasksHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent batch creation and SID lookup units",
	Args:  cobra.NoArgs,
	RunE:  runTasksHistory,
}

func init() {
	tasksHistoryCmd.Flags().StringVar(&tasksKind, "kind", "", "only this kind (batch-create, sid-retrieval, csv-import)")
	tasksHistoryCmd.Flags().IntVarP(&tasksLimit, "limit", "n", 20, "maximum number of entries (0 = all)")
	tasksCmd.AddCommand(tasksHistoryCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksHistory(cmd *cobra.Command, _ []string) error {
	if taskQueue == nil {
		return errors.New("task queue not configured")
	}
	history, err := taskQueue.History(cmd.Context(), tasksKind, tasksLimit)
	if err != nil {
		return fmt.Errorf("failed to load task history: %w", err)
	}

	return render(cmd, history, func(w io.Writer) {
		if len(history) == 0 {
			fmt.Fprintln(w, "No tasks yet.")
			return
		}
		t := newTextTable("ENDED", "KIND", "NAME", "STATUS", "DURATION", "ERROR")
		for _, r := range history {
			t.addRow(formatTime(r.EndedAt), r.Kind, r.Name, string(r.Status), r.Duration().Round(time.Millisecond).String(), r.Error)
		}
		t.write(w)
	})
}
