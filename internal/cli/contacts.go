package cli

import (
	"fmt"

	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage known contacts",
	}

	cmd.AddCommand(newContactsAddCmd())
	cmd.AddCommand(newContactsListCmd())
	cmd.AddCommand(newContactsRemoveCmd())
	return cmd
}

func newContactsAddCmd() *cobra.Command {
	var (
		name        string
		displayName string
		relays      []string
		inboxRelays []string
	)

	cmd := &cobra.Command{
		Use:   "add <pubkey>",
		Short: "Add or update a contact",
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

			c := &domain.Contact{
				Pubkey:      args[0],
				Name:        name,
				DisplayName: displayName,
				Relays:      relays,
				InboxRelays: inboxRelays,
			}
			if err := store.NewContactStore(db).Upsert(c); err != nil {
				return err
			}
			fmt.Printf("Saved contact %s\n", c.BestName())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "profile name")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringArrayVar(&relays, "relay", nil, "relay URL the contact publishes on (repeatable)")
	cmd.Flags().StringArrayVar(&inboxRelays, "inbox-relay", nil, "relay URL the contact reads from (repeatable)")

	return cmd
}

func newContactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known contacts",
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

			contacts, err := store.NewContactStore(db).List()
			if err != nil {
				return err
			}
			if len(contacts) == 0 {
				fmt.Println("No contacts.")
				return nil
			}

			for _, c := range contacts {
				fmt.Printf("%s  %s\n", c.Pubkey, c.BestName())
			}
			return nil
		},
	}
}

func newContactsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <pubkey>",
		Short: "Forget a contact",
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

			if err := store.NewContactStore(db).Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}
