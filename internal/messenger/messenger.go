// Package messenger is the network-facing side of composition: it
// stamps outgoing messages with the client identity, publishes them to
// group relays, uploads media, and keeps the local transcript in sync
// with what relays deliver.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/logging"
	"github.com/sablechat/sable/internal/relay"
	"github.com/sablechat/sable/internal/store"
)

// Config holds the messenger's identity and delivery settings.
type Config struct {
	// Account is the pubkey outgoing messages are attributed to.
	Account string
	// DefaultRelays are used for groups without a stored relay set.
	DefaultRelays []string
	// MediaHost is the base URL files are uploaded to.
	MediaHost string
	// MediaMaxBytes caps upload size; 0 means no cap.
	MediaMaxBytes int64
	// RequestTimeout bounds media uploads. Zero picks a sane default.
	RequestTimeout time.Duration
}

// Messenger implements compose.Backend against the relay pool, the
// media host, and the local stores.
type Messenger struct {
	cfg      Config
	pool     *relay.Pool
	groups   *store.GroupStore
	contacts *store.ContactStore
	messages *store.MessageStore
	bus      *events.Bus
	httpc    *http.Client
	log      *logging.Logger
}

// New creates a messenger publishing as the configured account.
func New(cfg Config, pool *relay.Pool, groups *store.GroupStore, contacts *store.ContactStore, messages *store.MessageStore, bus *events.Bus, log *logging.Logger) *Messenger {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Messenger{
		cfg:      cfg,
		pool:     pool,
		groups:   groups,
		contacts: contacts,
		messages: messages,
		bus:      bus,
		httpc:    &http.Client{Timeout: timeout},
		log:      log.Sub("messenger"),
	}
}

// GroupRelays resolves where messages for a group are published. Groups
// without a stored relay set fall back to the configured defaults.
func (m *Messenger) GroupRelays(ctx context.Context, groupID string) ([]string, error) {
	relays, err := m.groups.Relays(groupID)
	if err != nil {
		return nil, fmt.Errorf("loading group relays: %w", err)
	}
	if len(relays) == 0 {
		relays = m.cfg.DefaultRelays
	}
	return relays, nil
}

// UploadAttachment pushes the file bytes to the media host and returns
// the URL the stored file is served from.
func (m *Messenger) UploadAttachment(ctx context.Context, groupID string, att domain.Attachment) (string, error) {
	if m.cfg.MediaMaxBytes > 0 && int64(len(att.Data)) > m.cfg.MediaMaxBytes {
		return "", fmt.Errorf("%s is %d bytes, above the %d byte upload limit",
			att.Filename, len(att.Data), m.cfg.MediaMaxBytes)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("groupId", groupID); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, att.Filename))
	if att.MimeType != "" {
		hdr.Set("Content-Type", att.MimeType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(att.Data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	url := strings.TrimRight(m.cfg.MediaHost, "/") + "/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := m.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", att.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media host returned %s for %s", resp.Status, att.Filename)
	}

	var ack struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("parsing upload ack: %w", err)
	}
	if ack.URL == "" {
		return "", errors.New("media host ack carried no url")
	}

	m.log.Debug().Str("file", att.Filename).Str("url", ack.URL).Msg("attachment uploaded")
	return ack.URL, nil
}

// SendMessage publishes a composed message to the group's relays and
// records it in the local transcript. The returned canonical message is
// what other clients will see.
func (m *Messenger) SendMessage(ctx context.Context, out domain.OutboundMessage) (*domain.Message, error) {
	relays, err := m.GroupRelays(ctx, out.GroupID)
	if err != nil {
		return nil, err
	}

	tags := append([]domain.Tag(nil), out.Tags...)
	for _, att := range out.Attachments {
		if att.Ref == "" {
			continue
		}
		tags = append(tags, domain.MediaTag(att.Ref, att.MimeType, att.Filename))
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		GroupID:   out.GroupID,
		Author:    m.cfg.Account,
		Kind:      out.Kind,
		Tags:      tags,
		Content:   out.Content,
		CreatedAt: time.Now(),
	}

	if err := m.pool.PublishTo(ctx, relays, msg); err != nil {
		return nil, fmt.Errorf("publishing message: %w", err)
	}

	// Relays replay the message on our own subscription and Append
	// dedups by id, so a local write failure heals on the next delivery.
	if _, err := m.messages.Append(msg); err != nil {
		m.log.Error().Err(err).Str("msg", msg.ID).Msg("failed to record sent message")
	}

	m.log.Debug().Str("msg", msg.ID).Str("group", out.GroupID).Int("relays", len(relays)).Msg("message published")
	return msg, nil
}

// ResolveContact returns the locally cached profile for a pubkey.
// Unknown contacts resolve to a bare profile rather than an error so
// callers can always render something.
func (m *Messenger) ResolveContact(ctx context.Context, pubkey string) (*domain.Contact, error) {
	c, err := m.contacts.Get(pubkey)
	if errors.Is(err, store.ErrContactNotFound) {
		return &domain.Contact{Pubkey: pubkey}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading contact: %w", err)
	}
	return c, nil
}

// Inbound records a message delivered by a relay subscription. New
// messages are announced on the bus; replayed duplicates are dropped
// silently. Wire this as the relay pool's OnMessage handler.
func (m *Messenger) Inbound(msg *domain.Message) {
	if msg == nil || msg.ID == "" {
		return
	}

	fresh, err := m.messages.Append(msg)
	if err != nil {
		m.log.Warn().Err(err).Str("msg", msg.ID).Msg("failed to record inbound message")
		return
	}
	if !fresh {
		return
	}

	m.log.Debug().Str("msg", msg.ID).Str("group", msg.GroupID).Str("author", msg.Author).Msg("message received")
	m.bus.Emit(context.Background(), events.EventMessageReceived, msg)
}

// SyncGroups subscribes to every known group across its relays plus the
// defaults, returning how many groups the subscription covers.
func (m *Messenger) SyncGroups(ctx context.Context) (int, error) {
	groups, err := m.groups.List()
	if err != nil {
		return 0, fmt.Errorf("listing groups: %w", err)
	}

	ids := make([]string, 0, len(groups))
	relaySet := make(map[string]bool)
	for _, g := range groups {
		ids = append(ids, g.ID)
		for _, r := range g.Relays {
			relaySet[r] = true
		}
	}
	for _, r := range m.cfg.DefaultRelays {
		relaySet[r] = true
	}

	if len(ids) == 0 {
		return 0, nil
	}

	relays := make([]string, 0, len(relaySet))
	for r := range relaySet {
		relays = append(relays, r)
	}
	sort.Strings(relays)

	if err := m.pool.Subscribe(ctx, relays, ids); err != nil {
		return 0, fmt.Errorf("subscribing: %w", err)
	}

	m.log.Info().Int("groups", len(ids)).Int("relays", len(relays)).Msg("subscribed to group messages")
	return len(ids), nil
}
