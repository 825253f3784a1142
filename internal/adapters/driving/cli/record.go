package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

var (
	recordTags   []string
	recordGroups []int64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Act on inventory records",
	Long: `Rename, tag, share and compare inventory records by global id,
for example SA123 for a sample or IC45 for a container.`,
}

var recordRenameCmd = &cobra.Command{
	Use:   "rename [global-id] [name]",
	Short: "Rename a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordRename,
}

var recordTagCmd = &cobra.Command{
	Use:   "tag [global-id...]",
	Short: "Replace the tags of records",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecordTag,
}

var recordShareCmd = &cobra.Command{
	Use:   "share [global-id...]",
	Short: "Share records with lab groups",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecordShare,
}

var recordCompareCmd = &cobra.Command{
	Use:   "compare [global-id...]",
	Short: "Compare records side by side",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRecordCompare,
}

var recordCopyCmd = &cobra.Command{
	Use:   "copy [global-id...]",
	Short: "Copy global ids to the clipboard",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecordCopy,
}

func init() {
	recordTagCmd.Flags().StringSliceVar(&recordTags, "tags", nil, "comma separated tags (empty clears all tags)")
	recordShareCmd.Flags().Int64SliceVar(&recordGroups, "group", nil, "lab group id to share with (repeatable)")
	_ = recordShareCmd.MarkFlagRequired("group")

	recordCmd.AddCommand(recordRenameCmd)
	recordCmd.AddCommand(recordTagCmd)
	recordCmd.AddCommand(recordShareCmd)
	recordCmd.AddCommand(recordCompareCmd)
	recordCmd.AddCommand(recordCopyCmd)
	rootCmd.AddCommand(recordCmd)
}

func parseGlobalIDs(args []string) ([]domain.GlobalID, error) {
	ids := make([]domain.GlobalID, 0, len(args))
	for _, arg := range args {
		id, err := domain.ParseGlobalID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runRecordRename(cmd *cobra.Command, args []string) error {
	if err := requireServer(recordService); err != nil {
		return err
	}
	ids, err := parseGlobalIDs(args[:1])
	if err != nil {
		return err
	}
	if err := recordService.Rename(cmd.Context(), ids[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Renamed %s to %q\n", ids[0], strings.TrimSpace(args[1]))
	return nil
}

func runRecordTag(cmd *cobra.Command, args []string) error {
	if err := requireServer(recordService); err != nil {
		return err
	}
	ids, err := parseGlobalIDs(args)
	if err != nil {
		return err
	}
	if err := recordService.Tag(cmd.Context(), ids, recordTags); err != nil {
		return err
	}
	cmd.Printf("Tagged %d record(s)\n", len(ids))
	return nil
}

func runRecordShare(cmd *cobra.Command, args []string) error {
	if err := requireServer(recordService); err != nil {
		return err
	}
	ids, err := parseGlobalIDs(args)
	if err != nil {
		return err
	}
	if err := recordService.Share(cmd.Context(), ids, recordGroups); err != nil {
		return err
	}
	cmd.Printf("Shared %d record(s) with %d group(s)\n", len(ids), len(recordGroups))
	return nil
}

func runRecordCompare(cmd *cobra.Command, args []string) error {
	if err := requireServer(recordService); err != nil {
		return err
	}
	ids, err := parseGlobalIDs(args)
	if err != nil {
		return err
	}
	cmp, err := recordService.Compare(cmd.Context(), ids)
	if err != nil {
		return err
	}
	return render(cmd, cmp, func(w io.Writer) {
		headers := []string{"FIELD"}
		for _, id := range cmp.Columns {
			headers = append(headers, id.String())
		}
		t := newTextTable(headers...)
		for _, row := range cmp.Rows {
			field := row.Field
			if row.Differs {
				field = "* " + field
			}
			t.addRow(append([]string{field}, row.Values...)...)
		}
		t.write(w)
		fmt.Fprintln(w, "\n* values differ")
	})
}

func runRecordCopy(cmd *cobra.Command, args []string) error {
	if err := requireServer(recordService); err != nil {
		return err
	}
	ids, err := parseGlobalIDs(args)
	if err != nil {
		return err
	}
	if err := recordService.CopyGlobalIDs(ids); err != nil {
		return err
	}
	cmd.Printf("Copied %d global id(s)\n", len(ids))
	return nil
}
