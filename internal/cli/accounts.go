package cli

import (
	"fmt"

	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage local accounts",
	}

	cmd.AddCommand(newAccountsCreateCmd())
	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsUseCmd())
	cmd.AddCommand(newAccountsRemoveCmd())
	return cmd
}

func newAccountsCreateCmd() *cobra.Command {
	var (
		name    string
		picture string
	)

	cmd := &cobra.Command{
		Use:   "create <pubkey>",
		Short: "Register an account by its public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			accounts := store.NewAccountStore(db)
			acct := &domain.Account{Pubkey: args[0], Name: name, Picture: picture}
			if err := accounts.Create(acct); err != nil {
				return err
			}

			fmt.Printf("Created account %s\n", acct.Pubkey)
			if active, err := accounts.Active(); err == nil && active.Pubkey == acct.Pubkey {
				fmt.Println("This account is now active.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "profile name")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture URL")

	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			accounts := store.NewAccountStore(db)
			all, err := accounts.List()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("No accounts. Create one with 'sable accounts create <pubkey>'.")
				return nil
			}

			activePubkey := ""
			if active, err := accounts.Active(); err == nil {
				activePubkey = active.Pubkey
			}

			for _, a := range all {
				marker := " "
				if a.Pubkey == activePubkey {
					marker = "*"
				}
				fmt.Printf("%s %s  %s\n", marker, a.Pubkey, a.Name)
			}
			return nil
		},
	}
}

func newAccountsUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <pubkey>",
		Short: "Make an account the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := store.NewAccountStore(db).SetActive(args[0]); err != nil {
				return err
			}
			fmt.Printf("Switched to %s\n", args[0])
			return nil
		},
	}
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <pubkey>",
		Short: "Forget an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := store.NewAccountStore(db).Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}
