package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sablechat/sable/internal/compose"
	"github.com/sablechat/sable/internal/config"
	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/messenger"
	"github.com/sablechat/sable/internal/notify"
	"github.com/sablechat/sable/internal/relay"
	"github.com/sablechat/sable/internal/store"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		groupID     string
		replyTo     string
		replyAuthor string
		attachments []string
	)

	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Compose and send a message to a group",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

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
				active, err := store.NewAccountStore(db).Active()
				if err != nil {
					return fmt.Errorf("no active account; create one with 'sable accounts create'")
				}
				account = active.Pubkey
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bus := events.NewBus(log)
			pool := relay.NewPool(relay.Options{Token: cfg.Relays.Token}, log)
			defer pool.Close()

			backend := messenger.New(
				messenger.Config{
					Account:        account,
					DefaultRelays:  cfg.Relays.Defaults,
					MediaHost:      cfg.Media.Host,
					MediaMaxBytes:  cfg.Media.MaxBytes,
					RequestTimeout: time.Duration(cfg.Relays.TimeoutSeconds) * time.Second,
				},
				pool,
				store.NewGroupStore(db),
				store.NewContactStore(db),
				store.NewMessageStore(db),
				bus,
				log,
			)

			composer := compose.New(
				compose.Config{Account: account, GroupID: groupID},
				backend,
				bus,
				notify.NewLog(log),
				log,
			)

			composer.Draft().SetText(text)
			if replyTo != "" {
				composer.Reply().Set(domain.ReplyRef{MessageID: replyTo, Author: replyAuthor})
			}

			for _, path := range attachments {
				att, err := readAttachment(path)
				if err != nil {
					return err
				}
				composer.Attach(ctx, att)
			}
			if err := waitForUploads(ctx, composer.Attachments()); err != nil {
				return err
			}

			// Echo id first, then the canonical id once a relay acks.
			bus.On(events.EventMessagePending, "cli", func(_ context.Context, p events.Payload) error {
				if msg, ok := p.Data.(*domain.Message); ok {
					fmt.Printf("queued %s\n", msg.ID)
				}
				return nil
			})
			bus.On(events.EventMessageSent, "cli", func(_ context.Context, p events.Payload) error {
				if msg, ok := p.Data.(*domain.Message); ok {
					fmt.Printf("sent   %s\n", msg.ID)
				}
				return nil
			})

			return composer.Send(ctx)
		},
	}

	cmd.Flags().StringVarP(&groupID, "group", "g", "", "group to send into")
	cmd.Flags().StringVar(&replyTo, "reply", "", "message ID to reply to")
	cmd.Flags().StringVar(&replyAuthor, "reply-author", "", "author pubkey of the replied-to message")
	cmd.Flags().StringArrayVarP(&attachments, "attach", "a", nil, "file to attach (repeatable)")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

// readAttachment loads a file from disk into an attachment, sniffing
// the mime type from the extension and falling back to the content.
func readAttachment(path string) (domain.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return domain.Attachment{
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

// waitForUploads blocks until every registered upload reaches a
// terminal status. Failed uploads are excluded from the send rather
// than aborting it, so this only waits, it does not judge.
func waitForUploads(ctx context.Context, registry *compose.Registry) error {
	for registry.Uploading() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}
