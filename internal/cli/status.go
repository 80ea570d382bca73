package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/store"
	"github.com/sablechat/sable/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sable status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("sable %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Println("Config file not found, showing defaults")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Relays:  %s\n", strings.Join(cfg.Relays.Defaults, ", "))
			fmt.Printf("Media:   host=%s maxBytes=%d\n", cfg.Media.Host, cfg.Media.MaxBytes)
			fmt.Printf("Storage: %s\n", paths.Database(cfg))

			// Account and group counts come from the database, but only
			// when one already exists; status must not create it.
			if _, err := os.Stat(paths.Database(cfg)); err == nil {
				db, err := store.Open(paths.Database(cfg), log)
				if err != nil {
					fmt.Printf("Storage: error opening: %v\n", err)
				} else {
					defer db.Close()
					printStoreSummary(db, cfg.Account)
				}
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

func printStoreSummary(db *store.DB, configuredAccount string) {
	accounts := store.NewAccountStore(db)

	active := configuredAccount
	if active == "" {
		if a, err := accounts.Active(); err == nil {
			active = a.Pubkey
		}
	}
	if active == "" {
		active = "(none)"
	}

	known, _ := accounts.List()
	groups, _ := store.NewGroupStore(db).List()
	contacts, _ := store.NewContactStore(db).List()

	fmt.Printf("Account: %s (%d known)\n", active, len(known))
	fmt.Printf("Groups:  %d\n", len(groups))
	fmt.Printf("Contacts: %d\n", len(contacts))
}
