package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/messenger"
	"github.com/sablechat/sable/internal/relay"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stream incoming messages for every known group",
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

			account := cfg.Account
			if account == "" {
				// Listening works without an account; sends do not.
				if active, err := store.NewAccountStore(db).Active(); err == nil {
					account = active.Pubkey
				}
			}

			bus := events.NewBus(log)
			contacts := store.NewContactStore(db)

			// The pool delivers relay events to the messenger, which
			// dedups them against the transcript before announcing.
			var backend *messenger.Messenger
			pool := relay.NewPool(relay.Options{
				Token:     cfg.Relays.Token,
				OnMessage: func(msg *domain.Message) { backend.Inbound(msg) },
			}, log)
			defer pool.Close()

			backend = messenger.New(
				messenger.Config{
					Account:        account,
					DefaultRelays:  cfg.Relays.Defaults,
					MediaHost:      cfg.Media.Host,
					MediaMaxBytes:  cfg.Media.MaxBytes,
					RequestTimeout: time.Duration(cfg.Relays.TimeoutSeconds) * time.Second,
				},
				pool,
				store.NewGroupStore(db),
				contacts,
				store.NewMessageStore(db),
				bus,
				log,
			)

			bus.On(events.EventMessageReceived, "cli", func(_ context.Context, p events.Payload) error {
				msg, ok := p.Data.(*domain.Message)
				if !ok {
					return nil
				}
				author := msg.Author
				if c, err := contacts.Get(msg.Author); err == nil {
					author = c.BestName()
				}
				fmt.Printf("%s [%s] %s: %s\n",
					msg.CreatedAt.Local().Format("15:04:05"), msg.GroupID, author, msg.Content)
				return nil
			})

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			n, err := backend.SyncGroups(ctx)
			if err != nil {
				return fmt.Errorf("subscribing to groups: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("no groups to listen to; add one with 'sable groups add'")
			}
			log.Info().Int("groups", n).Msg("listening")

			<-ctx.Done()
			return nil
		},
	}

	return cmd
}
