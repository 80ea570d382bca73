package cli

import (
	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/logging"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sable",
		Short: "Sable — relay-backed group chat for terminals",
		Long:  "Sable is a group chat client that publishes to message relays and keeps an offline-first local transcript.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level, "pretty")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.sable/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAccountsCmd())
	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newContactsCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newListenCmd())

	return cmd
}

// openDB opens the local database, creating the data directory on first
// use.
func openDB(cfg config.Config) (*store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return store.Open(paths.Database(cfg), log)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
