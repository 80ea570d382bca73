// Package events provides the in-process event bus that surfaces chat
// activity to whatever UI is attached.
package events

import (
	"context"
	"sync"

	"github.com/sablechat/sable/internal/logging"
)

// Event names published on the bus.
const (
	// EventMessagePending announces a local echo: a message shown in the
	// transcript before any relay has confirmed it.
	EventMessagePending = "message_pending"
	// EventMessageSent announces the confirmed message that supersedes
	// an earlier pending echo.
	EventMessageSent = "message_sent"
	// EventMessageReceived announces a message fetched from a relay.
	EventMessageReceived = "message_received"
	// EventGroupUpdated announces a change to group metadata.
	EventGroupUpdated = "group_updated"
	// EventNotice carries transient user-facing notices.
	EventNotice = "notice"
)

// AllEvents lists all known event names.
var AllEvents = []string{
	EventMessagePending,
	EventMessageSent,
	EventMessageReceived,
	EventGroupUpdated,
	EventNotice,
}

// Payload carries event data to subscribers. Data holds the typed value
// for the event: *domain.Message for message events, *domain.Group for
// group events, Notice for notices.
type Payload struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Notice is the payload of EventNotice.
type Notice struct {
	Level string `json:"level"` // "info" | "warn" | "error"
	Text  string `json:"text"`
}

// Handler is a function that handles a bus event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Bus manages subscriptions and dispatches events. Emit delivers to
// handlers synchronously in registration order, so a subscriber that
// watches both pending and sent events sees the echo first.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewBus creates an event bus.
func NewBus(log *logging.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("events"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and removal.
func (b *Bus) On(event, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], namedHandler{name: name, handler: handler})
	b.log.Debug().Str("event", event).Str("handler", name).Msg("subscriber registered")
}

// Off removes all handlers with the given name from the event.
func (b *Bus) Off(event, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	b.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously.
// Handlers are called in registration order. Errors are logged but do not
// prevent subsequent handlers from running.
func (b *Bus) Emit(ctx context.Context, event string, data any) {
	b.mu.RLock()
	handlers := make([]namedHandler, len(b.handlers[event]))
	copy(handlers, b.handlers[event])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}

	for _, h := range handlers {
		if err := h.handler(ctx, payload); err != nil {
			b.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("event handler error")
		}
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged.
func (b *Bus) EmitAsync(ctx context.Context, event string, data any) {
	b.mu.RLock()
	handlers := make([]namedHandler, len(b.handlers[event]))
	copy(handlers, b.handlers[event])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}

	for _, h := range handlers {
		go func(h namedHandler) {
			if err := h.handler(ctx, payload); err != nil {
				b.log.Warn().
					Err(err).
					Str("event", event).
					Str("handler", h.name).
					Msg("async event handler error")
			}
		}(h)
	}
}

// Count returns the number of handlers registered for an event.
func (b *Bus) Count(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Events returns the list of events that have at least one handler registered.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := make([]string, 0, len(b.handlers))
	for event, handlers := range b.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	return events
}
