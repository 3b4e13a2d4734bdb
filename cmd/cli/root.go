package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcaldas/cmdcore/internal/di"
	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/config"
	"github.com/kcaldas/cmdcore/pkg/dispatch"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/version"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	envFiles []string
	denied   []string

	// Host instance - initialized once and reused
	hostInstance *di.Host
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "cmdhost",
	Short:   "Command host for cmdcore plugins",
	Long:    `cmdhost registers the commands of the sample plugin and runs them from a line-based console.`,
	Version: version.GetVersion(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure logger based on flags
		var logger logging.Logger
		if quiet {
			logger = logging.NewQuietLogger()
		} else if verbose {
			logger = logging.NewVerboseLogger()
		} else {
			logger = logging.NewDefaultLogger()
		}
		logging.SetGlobalLogger(logger)

		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}

		var err error
		hostInstance, err = di.InitializeHost(denyList(denied))
		if err != nil {
			return fmt.Errorf("failed to initialize host: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// No subcommand provided - start the console
		opts := runOptions{historyFile: hostInstance.Config.GetHostConfig().HistoryFile}
		return runConsole(cmd, hostInstance, opts)
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug level)")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")
	RootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	RootCmd.PersistentFlags().StringSliceVar(&denied, "deny", nil, "permissions no source holds")

	addCommands()
}

// addCommands adds all CLI subcommands to the root command
func addCommands() {
	provider := func() *di.Host { return hostInstance }
	RootCmd.AddCommand(NewRunCommand(provider))
	RootCmd.AddCommand(NewCompleteCommand(provider))
	RootCmd.AddCommand(NewListCommand(provider))
}

// denyList grants every permission except the listed ones. Permissions
// match case-insensitively.
func denyList(perms []string) dispatch.Authorizer {
	if len(perms) == 0 {
		return dispatch.AllowAll
	}
	deny := make(map[string]bool, len(perms))
	for _, p := range perms {
		deny[command.Fold(p)] = true
	}
	return dispatch.AuthorizerFunc(func(_ command.Source, perm string) bool {
		return !deny[command.Fold(perm)]
	})
}
