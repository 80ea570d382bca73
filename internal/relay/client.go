package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/logging"
)

// ErrClosed is returned when using a client whose connection is gone.
var ErrClosed = errors.New("relay connection closed")

// Options configure how relay connections are established.
type Options struct {
	// Token is sent as a bearer token on dial when set.
	Token string
	// OnMessage receives messages the relay delivers for subscribed groups.
	OnMessage func(*domain.Message)
}

// Client is a single relay connection. Requests are correlated with
// responses by id; a background goroutine reads frames and routes them
// to the waiting caller or the message handler.
type Client struct {
	url  string
	conn *websocket.Conn
	opts Options
	log  *logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Frame
	closed  bool
}

// Dial connects to a relay. The returned client is ready for use; its
// read loop runs until Close is called or the connection drops.
func Dial(ctx context.Context, url string, opts Options, log *logging.Logger) (*Client, error) {
	var header http.Header
	if opts.Token != "" {
		header = http.Header{"Authorization": {"Bearer " + opts.Token}}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	c := &Client{
		url:     url,
		conn:    conn,
		opts:    opts,
		log:     log.Sub("relay"),
		pending: make(map[string]chan Frame),
	}

	c.log.Debug().Str("relay", url).Msg("connected")
	go c.readLoop()
	return c, nil
}

// URL returns the relay address this client is connected to.
func (c *Client) URL() string {
	return c.url
}

// Closed reports whether the connection has been torn down.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Publish sends a message and waits for the relay's ack.
func (c *Client) Publish(ctx context.Context, msg *domain.Message) error {
	f, err := c.request(ctx, MethodPublish, PublishParams{Message: msg})
	if err != nil {
		return err
	}
	if !f.Succeeded() {
		return responseError(f)
	}
	return nil
}

// Subscribe asks the relay to deliver messages for the given groups.
func (c *Client) Subscribe(ctx context.Context, groupIDs []string) error {
	f, err := c.request(ctx, MethodSubscribe, SubscribeParams{GroupIDs: groupIDs})
	if err != nil {
		return err
	}
	if !f.Succeeded() {
		return responseError(f)
	}
	return nil
}

// Close shuts the connection down. Pending requests fail with ErrClosed.
func (c *Client) Close() error {
	waiters, first := c.teardown()
	for _, ch := range waiters {
		close(ch)
	}
	if !first {
		return nil
	}
	return c.conn.Close()
}

// request sends a frame and waits for the correlated response.
func (c *Client) request(ctx context.Context, method string, params any) (Frame, error) {
	id := uuid.New().String()
	req, err := NewRequest(id, method, params)
	if err != nil {
		return Frame{}, err
	}

	ch := make(chan Frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err = c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return Frame{}, fmt.Errorf("writing %s: %w", method, err)
	}

	select {
	case f, ok := <-ch:
		if !ok {
			return Frame{}, ErrClosed
		}
		return f, nil
	case <-ctx.Done():
		c.forget(id)
		return Frame{}, ctx.Err()
	}
}

// readLoop routes incoming frames until the connection drops.
func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.disconnected(err)
			return
		}

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			c.log.Warn().Err(err).Str("relay", c.url).Msg("dropping unparseable frame")
			continue
		}

		switch f.Type {
		case FrameTypeResponse:
			c.settle(f)
		case FrameTypeEvent:
			c.handleEvent(f)
		default:
			c.log.Debug().Str("type", f.Type).Str("relay", c.url).Msg("ignoring frame")
		}
	}
}

// settle hands a response frame to the caller waiting on its id.
func (c *Client) settle(f Frame) {
	c.mu.Lock()
	ch, ok := c.pending[f.ID]
	if ok {
		delete(c.pending, f.ID)
	}
	c.mu.Unlock()

	if ok {
		ch <- f
	} else {
		c.log.Debug().Str("id", f.ID).Str("relay", c.url).Msg("response for unknown request")
	}
}

func (c *Client) handleEvent(f Frame) {
	if f.Event != EventMessage || c.opts.OnMessage == nil {
		return
	}

	var msg domain.Message
	if err := json.Unmarshal(f.Payload, &msg); err != nil {
		c.log.Warn().Err(err).Str("relay", c.url).Msg("dropping malformed message event")
		return
	}
	c.opts.OnMessage(&msg)
}

// disconnected tears the client down after a read failure.
func (c *Client) disconnected(err error) {
	waiters, first := c.teardown()
	if first {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.log.Debug().Str("relay", c.url).Msg("relay closed connection")
		} else {
			c.log.Warn().Err(err).Str("relay", c.url).Msg("relay connection lost")
		}
		c.conn.Close()
	}
	for _, ch := range waiters {
		close(ch)
	}
}

// teardown marks the client closed and collects pending waiters.
// It reports whether this call was the one that closed the client.
func (c *Client) teardown() ([]chan Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	c.closed = true

	waiters := make([]chan Frame, 0, len(c.pending))
	for _, ch := range c.pending {
		waiters = append(waiters, ch)
	}
	c.pending = make(map[string]chan Frame)
	return waiters, true
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func responseError(f Frame) error {
	if f.Error != nil {
		return fmt.Errorf("relay rejected request: %s (%s)", f.Error.Message, f.Error.Code)
	}
	return errors.New("relay rejected request")
}
