package compose

import (
	"context"
	"fmt"
	"sync"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/logging"
)

// mockBackend is a test double for Backend.
type mockBackend struct {
	mu sync.Mutex

	relays     []string
	relaysErr  error
	relayCalls int

	uploadFunc func(ctx context.Context, groupID string, att domain.Attachment) (string, error)
	uploads    []domain.Attachment

	sendFunc func(ctx context.Context, out domain.OutboundMessage) (*domain.Message, error)
	sendErr  error
	sent     []domain.OutboundMessage

	contacts map[string]*domain.Contact
}

func (m *mockBackend) GroupRelays(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayCalls++
	if m.relaysErr != nil {
		return nil, m.relaysErr
	}
	return m.relays, nil
}

func (m *mockBackend) UploadAttachment(ctx context.Context, groupID string, att domain.Attachment) (string, error) {
	m.mu.Lock()
	m.uploads = append(m.uploads, att)
	fn := m.uploadFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, groupID, att)
	}
	return "ref-" + att.Filename, nil
}

func (m *mockBackend) SendMessage(ctx context.Context, out domain.OutboundMessage) (*domain.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, out)
	n := len(m.sent)
	fn := m.sendFunc
	sendErr := m.sendErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, out)
	}
	if sendErr != nil {
		return nil, sendErr
	}
	return &domain.Message{
		ID:      fmt.Sprintf("msg-%d", n),
		GroupID: out.GroupID,
		Kind:    out.Kind,
		Tags:    out.Tags,
		Content: out.Content,
	}, nil
}

func (m *mockBackend) ResolveContact(_ context.Context, pubkey string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contacts[pubkey]; ok {
		return c, nil
	}
	return &domain.Contact{Pubkey: pubkey}, nil
}

func (m *mockBackend) sentMessages() []domain.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockBackend) uploadedAttachments() []domain.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Attachment, len(m.uploads))
	copy(out, m.uploads)
	return out
}

func (m *mockBackend) relayCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relayCalls
}

// mockNotifier records notices.
type mockNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (m *mockNotifier) Info(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, text)
}

func (m *mockNotifier) Warn(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, text)
}

func (m *mockNotifier) Error(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, text)
}

func (m *mockNotifier) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.warns))
	copy(out, m.warns)
	return out
}

func (m *mockNotifier) errorNotices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.errors))
	copy(out, m.errors)
	return out
}

// eventRecorder captures message events from the bus in arrival order.
type eventRecorder struct {
	mu       sync.Mutex
	recorded []recordedEvent
}

type recordedEvent struct {
	event string
	msg   *domain.Message
}

func newEventRecorder(bus *events.Bus) *eventRecorder {
	r := &eventRecorder{}
	record := func(_ context.Context, p events.Payload) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		msg, _ := p.Data.(*domain.Message)
		r.recorded = append(r.recorded, recordedEvent{event: p.Event, msg: msg})
		return nil
	}
	bus.On(events.EventMessagePending, "recorder", record)
	bus.On(events.EventMessageSent, "recorder", record)
	return r
}

func (r *eventRecorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.recorded))
	for _, rec := range r.recorded {
		out = append(out, rec.event)
	}
	return out
}

func (r *eventRecorder) byEvent(event string) []*domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, rec := range r.recorded {
		if rec.event == event {
			out = append(out, rec.msg)
		}
	}
	return out
}

func newTestComposer(backend Backend) (*Composer, *mockNotifier, *eventRecorder) {
	bus := events.NewBus(logging.Nop())
	recorder := newEventRecorder(bus)
	notifier := &mockNotifier{}
	c := New(Config{Account: "pk-alice", GroupID: "grp-1"}, backend, bus, notifier, logging.Nop())
	return c, notifier, recorder
}
