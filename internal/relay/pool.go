package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/logging"
)

// ErrNoRelays is returned when a publish has nowhere to go.
var ErrNoRelays = errors.New("no relays to publish to")

// Pool maintains one connection per relay URL, dialing lazily. A
// connection that breaks is dropped so the next call redials it.
type Pool struct {
	opts Options
	log  *logging.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates an empty connection pool.
func NewPool(opts Options, log *logging.Logger) *Pool {
	return &Pool{
		opts:    opts,
		log:     log.Sub("relaypool"),
		clients: make(map[string]*Client),
	}
}

// PublishTo fans the message out to every relay concurrently. It
// succeeds when at least one relay acknowledges; the joined per-relay
// errors are returned only when all of them fail. No retries.
func (p *Pool) PublishTo(ctx context.Context, relays []string, msg *domain.Message) error {
	if len(relays) == 0 {
		return ErrNoRelays
	}

	errs := make([]error, len(relays))
	var wg sync.WaitGroup
	for i, url := range relays {
		i, url := i, url
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = p.publishOne(ctx, url, msg)
		}()
	}
	wg.Wait()

	acked := 0
	var failed []error
	for i, err := range errs {
		if err == nil {
			acked++
			continue
		}
		p.log.Warn().Err(err).Str("relay", relays[i]).Str("msg", msg.ID).Msg("publish failed")
		failed = append(failed, fmt.Errorf("%s: %w", relays[i], err))
	}

	if acked == 0 {
		return fmt.Errorf("publishing to %d relays: %w", len(relays), errors.Join(failed...))
	}
	return nil
}

// Subscribe subscribes to the groups on every relay. Individual relay
// failures are joined into the returned error but do not stop the rest.
func (p *Pool) Subscribe(ctx context.Context, relays []string, groupIDs []string) error {
	var errs []error
	for _, url := range relays {
		c, err := p.client(ctx, url)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		if err := c.Subscribe(ctx, groupIDs); err != nil {
			if errors.Is(err, ErrClosed) {
				p.drop(url, c)
			}
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all pooled connections.
func (p *Pool) Close() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*Client)
	p.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

func (p *Pool) publishOne(ctx context.Context, url string, msg *domain.Message) error {
	c, err := p.client(ctx, url)
	if err != nil {
		return err
	}
	if err := c.Publish(ctx, msg); err != nil {
		if errors.Is(err, ErrClosed) {
			p.drop(url, c)
		}
		return err
	}
	return nil
}

// client returns an open connection for the url, dialing on first use.
func (p *Pool) client(ctx context.Context, url string) (*Client, error) {
	p.mu.Lock()
	c, ok := p.clients[url]
	p.mu.Unlock()
	if ok && !c.Closed() {
		return c, nil
	}

	fresh, err := Dial(ctx, url, p.opts, p.log)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.clients[url]; ok && !existing.Closed() {
		// Another goroutine won the dial race; keep its connection.
		p.mu.Unlock()
		fresh.Close()
		return existing, nil
	}
	p.clients[url] = fresh
	p.mu.Unlock()
	return fresh, nil
}

// drop forgets a broken connection so the next call redials.
func (p *Pool) drop(url string, c *Client) {
	p.mu.Lock()
	if p.clients[url] == c {
		delete(p.clients, url)
	}
	p.mu.Unlock()
	c.Close()
}
