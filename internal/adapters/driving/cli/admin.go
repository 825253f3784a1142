package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

var adminYes bool

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer groups, communities and file systems",
}

var adminGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List lab groups",
	Args:  cobra.NoArgs,
	RunE:  runAdminGroups,
}

var adminCommunitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "List communities",
	Args:  cobra.NoArgs,
	RunE:  runAdminCommunities,
}

var adminDeleteCommunityCmd = &cobra.Command{
	Use:   "delete-community [id]",
	Short: "Delete a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminDelete(cmd, args[0], "community", driving.AdminService.DeleteCommunity)
	},
}

var adminDeleteGroupCmd = &cobra.Command{
	Use:   "delete-group [id]",
	Short: "Delete a lab group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminDelete(cmd, args[0], "group", driving.AdminService.DeleteGroup)
	},
}

var adminDeleteFileSystemCmd = &cobra.Command{
	Use:   "delete-filesystem [id]",
	Short: "Delete a file system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminDelete(cmd, args[0], "file system", driving.AdminService.DeleteFileSystem)
	},
}

func init() {
	for _, c := range []*cobra.Command{adminDeleteCommunityCmd, adminDeleteGroupCmd, adminDeleteFileSystemCmd} {
		c.Flags().BoolVarP(&adminYes, "yes", "y", false, "delete without asking")
		adminCmd.AddCommand(c)
	}
	adminCmd.AddCommand(adminGroupsCmd)
	adminCmd.AddCommand(adminCommunitiesCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminGroups(cmd *cobra.Command, _ []string) error {
	if err := requireServer(adminService); err != nil {
		return err
	}
	groups, err := adminService.ListGroups(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd, groups, func(w io.Writer) {
		if len(groups) == 0 {
			fmt.Fprintln(w, "No groups.")
			return
		}
		t := newTextTable("ID", "NAME", "PI", "MEMBERS")
		for _, g := range groups {
			t.addRow(strconv.FormatInt(g.ID, 10), g.DisplayName, g.PI, strconv.Itoa(g.MemberCount))
		}
		t.write(w)
	})
}

func runAdminCommunities(cmd *cobra.Command, _ []string) error {
	if err := requireServer(adminService); err != nil {
		return err
	}
	communities, err := adminService.ListCommunities(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd, communities, func(w io.Writer) {
		if len(communities) == 0 {
			fmt.Fprintln(w, "No communities.")
			return
		}
		t := newTextTable("ID", "NAME", "ADMINS", "GROUPS")
		for _, c := range communities {
			t.addRow(strconv.FormatInt(c.ID, 10), c.DisplayName, strings.Join(c.Admins, ", "), strconv.Itoa(len(c.LabGroupIDs)))
		}
		t.write(w)
	})
}

// adminDelete is a delete method of driving.AdminService.
type adminDelete func(svc driving.AdminService, ctx context.Context, id int64) error

func runAdminDelete(cmd *cobra.Command, arg, what string, del adminDelete) error {
	if err := requireServer(adminService); err != nil {
		return err
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s id must be a number, got %q", domain.ErrInvalidInput, what, arg)
	}

	if eventBus != nil {
		unsubscribe := eventBus.Subscribe(domain.EventConfirmAction, confirmHandler(cmd))
		defer unsubscribe()
	}

	err = del(adminService, cmd.Context(), id)
	if errors.Is(err, domain.ErrNotConfirmed) {
		cmd.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %s %d\n", what, id)
	return nil
}

// confirmHandler answers confirm-action events with --yes or a y/N prompt.
func confirmHandler(cmd *cobra.Command) driving.Handler {
	return func(_ context.Context, event domain.Event) {
		action, ok := event.(domain.ConfirmAction)
		if !ok || action.Respond == nil {
			return
		}
		if adminYes {
			action.Respond(true)
			return
		}

		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			cmd.PrintErrln("Refusing to delete without a terminal; pass --yes to confirm.")
			action.Respond(false)
			return
		}

		cmd.Printf("%s\n%s\n%s? [y/N]: ", action.Title, action.Message, action.ConfirmLabel)
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		action.Respond(answer == "y" || answer == "yes")
	}
}
