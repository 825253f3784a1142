package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

var ldapFile string

var ldapCmd = &cobra.Command{
	Use:   "ldap",
	Short: "LDAP directory lookups",
}

var ldapSIDsCmd = &cobra.Command{
	Use:   "sids [username...]",
	Short: "Look up the LDAP SID of each user",
	Long: `Look up the LDAP security identifier of each user, one at a time.

Usernames come from the arguments or from --file, one per line.
Interrupting the command stops after the lookup in flight.`,
	RunE: runLDAPSIDs,
}

func init() {
	ldapSIDsCmd.Flags().StringVarP(&ldapFile, "file", "f", "", "read usernames from a file, one per line")
	ldapCmd.AddCommand(ldapSIDsCmd)
	rootCmd.AddCommand(ldapCmd)
}

func runLDAPSIDs(cmd *cobra.Command, args []string) error {
	if err := requireServer(ldapService); err != nil {
		return err
	}

	usernames := append([]string(nil), args...)
	if ldapFile != "" {
		data, err := os.ReadFile(ldapFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ldapFile, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if name := strings.TrimSpace(line); name != "" && !strings.HasPrefix(name, "#") {
				usernames = append(usernames, name)
			}
		}
	}
	if len(usernames) == 0 {
		return fmt.Errorf("%w: no usernames given", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()
	stopQueue := startTaskQueue(ctx)
	defer stopQueue()
	stop := context.AfterFunc(ctx, ldapService.Stop)
	defer stop()

	errOut := cmd.ErrOrStderr()
	done := 0
	results, err := ldapService.RetrieveSIDs(ctx, usernames, func(r domain.SIDResult) {
		done++
		status := "ok"
		if r.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(errOut, "[%d/%d] %s %s\n", done, len(usernames), r.Username, status)
	})
	if err != nil {
		return err
	}

	return render(cmd, results, func(w io.Writer) {
		t := newTextTable("USERNAME", "SID", "ERROR")
		for _, r := range results {
			t.addRow(r.Username, r.SID, r.Error)
		}
		t.write(w)
		if len(results) < len(usernames) {
			fmt.Fprintf(w, "\nStopped after %d of %d users.\n", len(results), len(usernames))
		}
	})
}
