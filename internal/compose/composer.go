package compose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/logging"
	"github.com/sablechat/sable/internal/notify"
)

// localIDPrefix marks the temporary identity of an optimistic echo.
const localIDPrefix = "local:"

// Config identifies the conversation a Composer writes into.
type Config struct {
	Account string // pubkey the message is authored as
	GroupID string // group the message goes to
}

// Composer orchestrates one conversation's draft, attachments, and
// reply context into outbound messages. Each open conversation gets its
// own Composer; instances share nothing.
type Composer struct {
	cfg      Config
	backend  Backend
	bus      *events.Bus
	notifier notify.Notifier
	log      *logging.Logger

	draft    *Draft
	registry *Registry
	reply    *ReplyContext
	uploader *Uploader

	mu      sync.Mutex
	sending bool
}

// New creates a composer for one conversation.
func New(cfg Config, backend Backend, bus *events.Bus, notifier notify.Notifier, log *logging.Logger) *Composer {
	registry := NewRegistry()
	return &Composer{
		cfg:      cfg,
		backend:  backend,
		bus:      bus,
		notifier: notifier,
		log:      log.Sub("compose").With("group", cfg.GroupID),
		draft:    &Draft{},
		registry: registry,
		reply:    &ReplyContext{},
		uploader: NewUploader(cfg.GroupID, backend, registry, notifier, log),
	}
}

// Draft returns the draft buffer.
func (c *Composer) Draft() *Draft { return c.draft }

// Attachments returns the attachment registry.
func (c *Composer) Attachments() *Registry { return c.registry }

// Reply returns the reply context.
func (c *Composer) Reply() *ReplyContext { return c.reply }

// Attach registers a file and immediately starts its upload. Returns
// the stored attachment carrying its assigned id.
func (c *Composer) Attach(ctx context.Context, file domain.Attachment) domain.Attachment {
	att := c.registry.Add(file)
	c.log.Debug().
		Str("attachment", att.ID).
		Str("filename", att.Filename).
		Msg("attachment added")
	c.uploader.Start(ctx, att)
	return att
}

// Empty reports whether there is nothing to send: no draft text and no
// attachments.
func (c *Composer) Empty() bool {
	return c.draft.Empty() && c.registry.Len() == 0
}

// Sending reports whether a send is currently in flight.
func (c *Composer) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send assembles the current draft, reply context, and successfully
// uploaded attachments into one outbound message and delivers it via
// the backend.
//
// Guards, in order: a send already in flight is refused; an empty
// composer is a quiet no-op; pending uploads refuse the send with a
// notice. Once past the guards, a local echo is published before the
// backend is called and is never rolled back. On success the draft and
// attachments are cleared; on failure they are preserved for retry.
// The reply context is cleared and the sending flag dropped on every
// exit path.
func (c *Composer) Send(ctx context.Context) error {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		c.log.Debug().Msg("send refused: already in flight")
		return ErrSendInFlight
	}
	if c.Empty() {
		c.mu.Unlock()
		return ErrEmptyDraft
	}
	if c.registry.Uploading() > 0 {
		c.mu.Unlock()
		c.notifier.Warn(ctx, "Uploads are still in progress")
		return ErrUploadsPending
	}
	c.sending = true

	text := c.draft.Text()
	attachments := c.registry.Successful()
	replyTo, hasReply := c.reply.Get()
	c.mu.Unlock()

	defer c.finish()

	tags := []domain.Tag{domain.GroupTag(c.cfg.GroupID)}
	if hasReply {
		tags = append(tags, c.replyTag(ctx, replyTo))
	}

	echo := &domain.Message{
		ID:        localIDPrefix + uuid.NewString(),
		GroupID:   c.cfg.GroupID,
		Author:    c.cfg.Account,
		Kind:      domain.KindChat,
		Tags:      tags,
		Content:   text,
		CreatedAt: time.Now(),
		Pending:   true,
	}
	c.bus.Emit(ctx, events.EventMessagePending, echo)

	out := domain.OutboundMessage{
		GroupID:     c.cfg.GroupID,
		Content:     text,
		Kind:        domain.KindChat,
		Tags:        tags,
		Attachments: attachments,
	}

	msg, err := c.backend.SendMessage(ctx, out)
	if err != nil {
		c.log.Error().Err(err).Msg("send failed")
		c.notifier.Error(ctx, "Failed to send message")
		return fmt.Errorf("send message: %w", err)
	}

	c.bus.Emit(ctx, events.EventMessageSent, msg)

	c.draft.Clear()
	c.registry.Clear()
	c.log.Debug().Str("message", msg.ID).Msg("message sent")
	return nil
}

// replyTag builds the reply tag for the target, resolving the group's
// relays for the hint. Relay resolution is advisory: on failure the tag
// carries an empty hint rather than aborting the send.
func (c *Composer) replyTag(ctx context.Context, target domain.ReplyRef) domain.Tag {
	hint := ""
	relays, err := c.backend.GroupRelays(ctx, c.cfg.GroupID)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("relay resolution failed, reply tag gets no hint")
	case len(relays) > 0:
		hint = relays[0]
	}
	return domain.ReplyTag(target.MessageID, hint, target.Author)
}

// finish runs on every Send exit path: the reply context is dropped and
// the composer returns to idle whether the send succeeded or not.
func (c *Composer) finish() {
	c.reply.Clear()
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}
