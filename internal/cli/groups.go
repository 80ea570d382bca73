package cli

import (
	"fmt"

	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage chat groups",
	}

	cmd.AddCommand(newGroupsAddCmd())
	cmd.AddCommand(newGroupsListCmd())
	cmd.AddCommand(newGroupsHistoryCmd())
	cmd.AddCommand(newGroupsSearchCmd())
	return cmd
}

func newGroupsAddCmd() *cobra.Command {
	var (
		name        string
		description string
		relays      []string
		members     []string
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a group",
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

			g := &domain.Group{
				ID:          args[0],
				Name:        name,
				Description: description,
				Relays:      relays,
				Members:     members,
			}
			if err := store.NewGroupStore(db).Upsert(g); err != nil {
				return err
			}
			fmt.Printf("Saved group %s (%s)\n", g.ID, g.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.Flags().StringVar(&description, "description", "", "group description")
	cmd.Flags().StringArrayVar(&relays, "relay", nil, "relay URL the group lives on (repeatable)")
	cmd.Flags().StringArrayVar(&members, "member", nil, "member pubkey (repeatable)")

	return cmd
}

func newGroupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known groups",
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

			groups, err := store.NewGroupStore(db).List()
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No groups. Add one with 'sable groups add <id>'.")
				return nil
			}

			for _, g := range groups {
				fmt.Printf("%s  %s (%s, %d members, %d relays)\n",
					g.ID, g.Name, g.Type, len(g.Members), len(g.Relays))
			}
			return nil
		},
	}
}

func newGroupsHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Print the stored transcript of a group",
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

			msgs, err := store.NewMessageStore(db).List(args[0], limit)
			if err != nil {
				return err
			}
			contacts := store.NewContactStore(db)
			for _, msg := range msgs {
				printTranscriptLine(contacts, msg)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "number of messages to show")

	return cmd
}

func newGroupsSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <id> <query>",
		Short: "Full-text search a group's transcript",
		Args:  cobra.ExactArgs(2),
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

			msgs, err := store.NewMessageStore(db).Search(args[0], args[1], limit)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			contacts := store.NewContactStore(db)
			for _, msg := range msgs {
				printTranscriptLine(contacts, msg)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of matches to show")

	return cmd
}

// printTranscriptLine renders one message, using the contact's profile
// name when one is stored.
func printTranscriptLine(contacts *store.ContactStore, msg *domain.Message) {
	author := msg.Author
	if c, err := contacts.Get(msg.Author); err == nil {
		author = c.BestName()
	}
	fmt.Printf("%s  %s: %s\n", msg.CreatedAt.Local().Format("2006-01-02 15:04"), author, msg.Content)
}
