// Package cli is the command line driving adapter for labinv.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// QueryCodec converts search parameters to and from URL query strings.
type QueryCodec interface {
	EncodeString(params domain.SearchParameters) string
	DecodeString(raw string) (domain.SearchParameters, error)
}

// Services holds everything the commands call into.
// Fields left nil make their commands fail with a configuration error.
// LocalRegistration parses files without the server.
type Services struct {
	Settings          driving.SettingsService
	NewSearch         driving.SearchFactory
	Codec             QueryCodec
	Registration      driving.RegistrationService
	LocalRegistration driving.RegistrationService
	LDAP              driving.LDAPService
	Admin             driving.AdminService
	Records           driving.RecordActionService
	Bus               driving.EventBus
	Tasks             driving.TaskQueue
}

var (
	settingsService     driving.SettingsService
	newSearch           driving.SearchFactory
	queryCodec          QueryCodec
	registrationService driving.RegistrationService
	localRegistration   driving.RegistrationService
	ldapService         driving.LDAPService
	adminService        driving.AdminService
	recordService       driving.RecordActionService
	eventBus            driving.EventBus
	taskQueue           driving.TaskQueue
	verboseFlag         bool
	ephemeralFlag       bool
)

var errServerNotAvailable = errors.New(
	"inventory server not configured: run 'labinv settings set server.url <url>' and 'labinv settings token'",
)

var rootCmd = &cobra.Command{
	Use:   "labinv",
	Short: "Search and administer a lab inventory",
	Long: `labinv is a terminal client for a laboratory inventory server.

Search samples, containers and templates, manage saved searches,
register users and groups from CSV files and run admin tasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verboseFlag {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeralFlag, "ephemeral", false,
		"keep saved searches and task history in memory for this run")
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	newSearch = s.NewSearch
	queryCodec = s.Codec
	registrationService = s.Registration
	localRegistration = s.LocalRegistration
	ldapService = s.LDAP
	adminService = s.Admin
	recordService = s.Records
	eventBus = s.Bus
	taskQueue = s.Tasks
}

// Ephemeral reports whether args ask for in-memory stores. It runs before
// cobra parses flags because the stores are opened before Execute.
func Ephemeral(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "--ephemeral", "--ephemeral=true":
			return true
		}
	}
	return false
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx and prints any error to stderr.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// requireServer returns an error naming the setup commands when svc is nil.
func requireServer(svc any) error {
	if svc == nil {
		return errServerNotAvailable
	}
	return nil
}
