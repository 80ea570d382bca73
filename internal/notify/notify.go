// Package notify delivers transient user-facing notices. Components
// that need to surface a toast take a Notifier explicitly instead of
// reaching for a global.
package notify

import (
	"context"

	"github.com/sablechat/sable/internal/events"
	"github.com/sablechat/sable/internal/logging"
)

// Notifier shows short-lived notices to the user. Implementations must
// not block the caller.
type Notifier interface {
	Info(ctx context.Context, text string)
	Warn(ctx context.Context, text string)
	Error(ctx context.Context, text string)
}

// Log is a Notifier that writes notices to the log. Useful for headless
// runs and tests.
type Log struct {
	log *logging.Logger
}

// NewLog creates a log-backed notifier.
func NewLog(log *logging.Logger) *Log {
	return &Log{log: log.Sub("notify")}
}

func (l *Log) Info(_ context.Context, text string) {
	l.log.Info().Msg(text)
}

func (l *Log) Warn(_ context.Context, text string) {
	l.log.Warn().Msg(text)
}

func (l *Log) Error(_ context.Context, text string) {
	l.log.Error().Msg(text)
}

// Bus is a Notifier that publishes notices on the event bus so an
// attached UI can render them as toasts.
type Bus struct {
	bus *events.Bus
}

// NewBus creates a bus-backed notifier.
func NewBus(bus *events.Bus) *Bus {
	return &Bus{bus: bus}
}

func (b *Bus) Info(ctx context.Context, text string) {
	b.bus.Emit(ctx, events.EventNotice, events.Notice{Level: "info", Text: text})
}

func (b *Bus) Warn(ctx context.Context, text string) {
	b.bus.Emit(ctx, events.EventNotice, events.Notice{Level: "warn", Text: text})
}

func (b *Bus) Error(ctx context.Context, text string) {
	b.bus.Emit(ctx, events.EventNotice, events.Notice{Level: "error", Text: text})
}
