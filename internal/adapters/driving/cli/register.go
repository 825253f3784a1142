package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/adapters/driving/watch"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

var (
	registerInput   string
	registerOffline bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register users, groups and communities in batch",
	Long: `Parse a CSV file or pasted text of users, groups and communities,
check it and create everything on the server.

Each line starts with its row type:
  user,<username>,<first name>,<last name>,<email>[,<role>[,<affiliation>]]
  group,<display name>,<pi username>[,<member>...]
  community,<display name>,<admin>[;<admin>...][,<group>...]`,
}

var registerParseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse and check a registration without creating anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegisterParse,
}

var registerCreateCmd = &cobra.Command{
	Use:   "create [file]",
	Short: "Create the users, groups and communities of a registration",
	Long: `Create the users, groups and communities of a registration.

Tables are created one at a time: users, then groups, then communities.
Interrupting the command stops before the next table; tables already
submitted are not rolled back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRegisterCreate,
}

var registerWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Create registrations from CSV files dropped into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegisterWatch,
}

func init() {
	for _, c := range []*cobra.Command{registerParseCmd, registerCreateCmd} {
		c.Flags().StringVarP(&registerInput, "input", "i", "", "registration text instead of a file")
	}
	registerParseCmd.Flags().BoolVar(&registerOffline, "offline", false, "parse locally without the server")

	registerCmd.AddCommand(registerParseCmd)
	registerCmd.AddCommand(registerCreateCmd)
	registerCmd.AddCommand(registerWatchCmd)
	rootCmd.AddCommand(registerCmd)
}

// parseRegistration reads the file argument or --input with svc.
func parseRegistration(ctx context.Context, svc driving.RegistrationService, args []string) (*domain.ParsedRegistration, []string, error) {
	parsed, messages, err := readRegistration(ctx, svc, args)
	if err == nil && parsed == nil {
		parsed = &domain.ParsedRegistration{}
	}
	return parsed, messages, err
}

func readRegistration(ctx context.Context, svc driving.RegistrationService, args []string) (*domain.ParsedRegistration, []string, error) {
	switch {
	case len(args) == 1 && registerInput != "":
		return nil, nil, errors.New("give either a file or --input, not both")
	case len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		return svc.ParseCSV(ctx, filepath.Base(args[0]), f)
	case registerInput != "":
		return svc.ParseInputString(ctx, registerInput)
	default:
		return nil, nil, errors.New("a file or --input is required")
	}
}

type parseOutput struct {
	Registration *domain.ParsedRegistration `json:"registration" yaml:"registration"`
	Messages     []string                   `json:"messages,omitempty" yaml:"messages,omitempty"`
	Problems     []string                   `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func runRegisterParse(cmd *cobra.Command, args []string) error {
	svc := registrationService
	if registerOffline {
		svc = localRegistration
	}
	if err := requireServer(svc); err != nil {
		return err
	}

	parsed, messages, err := parseRegistration(cmd.Context(), svc, args)
	if err != nil {
		return err
	}

	out := parseOutput{Registration: parsed, Messages: messages}
	if !parsed.IsEmpty() {
		var verr domain.ValidationErrors
		if err := svc.Validate(parsed); errors.As(err, &verr) {
			for _, fe := range verr {
				out.Problems = append(out.Problems, fe.String())
			}
		} else if err != nil {
			return err
		}
	}

	return render(cmd, out, func(w io.Writer) {
		writeRegistration(w, parsed)
		writeList(w, "Messages", messages)
		writeList(w, "Problems", out.Problems)
		if len(out.Problems) == 0 && parsed.RowErrorCount() == 0 {
			fmt.Fprintln(w, "Ready to create.")
		}
	})
}

func runRegisterCreate(cmd *cobra.Command, args []string) error {
	if err := requireServer(registrationService); err != nil {
		return err
	}
	ctx := cmd.Context()

	parsed, messages, err := parseRegistration(ctx, registrationService, args)
	if err != nil {
		return err
	}
	if parsed.RowErrorCount() > 0 || len(messages) > 0 {
		writeRegistration(cmd.OutOrStdout(), parsed)
		writeList(cmd.OutOrStdout(), "Messages", messages)
		return fmt.Errorf("%w: fix the rows marked above and try again", domain.ErrValidationFailed)
	}

	stopQueue := startTaskQueue(ctx)
	defer stopQueue()
	stop := context.AfterFunc(ctx, registrationService.StopCreate)
	defer stop()

	result, err := registrationService.Create(ctx, parsed)
	if err != nil {
		return err
	}

	return render(cmd, result, func(w io.Writer) {
		writeBatchResult(w, result)
	})
}

func runRegisterWatch(cmd *cobra.Command, args []string) error {
	if err := requireServer(registrationService); err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	stopQueue := startTaskQueue(ctx)
	defer stopQueue()

	w, err := watch.NewWatcher(args[0], registrationService, func(r watch.Result) {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", name, r.Err)
			writeList(out, "Messages", r.Messages)
			return
		}
		fmt.Fprintf(out, "%s:\n", name)
		writeBatchResult(out, r.Created)
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %s for CSV files. Press Ctrl+C to stop.\n", args[0])
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}

// startTaskQueue runs the task queue until the returned func is called.
func startTaskQueue(ctx context.Context) func() {
	if taskQueue == nil {
		return func() {}
	}
	go func() {
		if err := taskQueue.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("task queue stopped: %v", err)
		}
	}()
	return func() {
		if err := taskQueue.Stop(); err != nil {
			logger.Warn("task queue stop: %v", err)
		}
	}
}

func writeRegistration(w io.Writer, p *domain.ParsedRegistration) {
	if p == nil || p.IsEmpty() {
		fmt.Fprintln(w, "Nothing to register.")
		return
	}
	for _, kind := range p.VisibleTables() {
		switch kind {
		case domain.RowKindUser:
			fmt.Fprintf(w, "Users (%d)\n", len(p.Users))
			t := newTextTable("USERNAME", "NAME", "EMAIL", "ROLE", "ERRORS")
			for _, u := range p.Users {
				t.addRow(u.Username, strings.TrimSpace(u.FirstName+" "+u.LastName), u.Email, u.Role, rowErrors(u.Errors))
			}
			t.write(w)
		case domain.RowKindGroup:
			fmt.Fprintf(w, "Groups (%d)\n", len(p.Groups))
			t := newTextTable("NAME", "PI", "MEMBERS", "ERRORS")
			for _, g := range p.Groups {
				t.addRow(g.DisplayName, g.PI, strings.Join(g.Members, ", "), rowErrors(g.Errors))
			}
			t.write(w)
		case domain.RowKindCommunity:
			fmt.Fprintf(w, "Communities (%d)\n", len(p.Communities))
			t := newTextTable("NAME", "ADMINS", "GROUPS", "ERRORS")
			for _, c := range p.Communities {
				t.addRow(c.DisplayName, strings.Join(c.Admins, ", "), strings.Join(c.LabGroups, ", "), rowErrors(c.Errors))
			}
			t.write(w)
		}
		fmt.Fprintln(w)
	}
}

func writeBatchResult(w io.Writer, r *domain.BatchCreateResult) {
	if r == nil {
		return
	}
	for _, kind := range []domain.RowKind{domain.RowKindUser, domain.RowKindGroup, domain.RowKindCommunity} {
		if n, ok := r.Created[kind]; ok {
			fmt.Fprintf(w, "Created %d %s rows\n", n, kind)
		}
	}
	for _, kind := range r.Cancelled {
		fmt.Fprintf(w, "Skipped %s rows: stopped\n", kind)
	}
	if r.Rows.RowErrorCount() > 0 {
		fmt.Fprintln(w, "\nRows rejected by the server:")
		writeRegistration(w, &r.Rows)
	}
	writeList(w, "Server messages", r.Unrouted)
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func rowErrors(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+errs[f])
	}
	return strings.Join(parts, "; ")
}
