package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Topic is a named event stream multiplexed over the one push
// connection. Topic names are server-defined.
type Topic string

const (
	// TopicLeaderboard carries full leaderboard page replacements
	TopicLeaderboard Topic = "leaderboard:update"
	// TopicCollegeLeaderboard carries per-institution aggregate
	// replacements
	TopicCollegeLeaderboard Topic = "college-leaderboard:update"
	// TopicUserStats carries per-participant counter deltas; the
	// subscriber filters by email
	TopicUserStats Topic = "user:stats:update"
)

// Handler receives the raw payload of one pushed event
type Handler func(payload json.RawMessage)

// frame is the wire format: an event name and its payload
type frame struct {
	Event Topic           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Channel maintains the single push connection and fans events out to
// at most one handler per topic. Delivery is best-effort: nothing is
// queued or replayed while disconnected, the periodic REST pull is the
// source of truth.
type Channel struct {
	url         string
	dialer      *websocket.Dialer
	maxAttempts int
	backoff     time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[Topic]Handler
	gen      int
}

// Option configures the channel
type Option func(*Channel)

// WithReconnect sets the bounded retry policy: attempts per connect
// and the fixed interval between them
func WithReconnect(attempts int, backoff time.Duration) Option {
	return func(c *Channel) {
		c.maxAttempts = attempts
		c.backoff = backoff
	}
}

// WithDialer sets a custom websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		c.dialer = d
	}
}

// NewChannel creates a push channel for the given websocket URL
func NewChannel(url string, opts ...Option) *Channel {
	c := &Channel{
		url:         url,
		dialer:      websocket.DefaultDialer,
		maxAttempts: 5,
		backoff:     time.Second,
		handlers:    make(map[Topic]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the push connection. It is idempotent: with a
// connection already open it is a no-op. The dial retries up to the
// configured attempt count with a fixed backoff; after exhausting them
// the channel stays disconnected until the next explicit Connect.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.conn != nil || c.gen != gen {
		// Lost a race with another Connect or a Disconnect
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	gen = c.gen
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	slog.Info("push channel connected", "url", c.url)
	return nil
}

// dial attempts the websocket handshake under the retry policy
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		slog.Warn("push dial failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return nil, fmt.Errorf("push connection failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// Disconnect tears down the connection and discards it. A subsequent
// Connect creates a fresh one. Subscriptions survive the teardown.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.gen++
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
		slog.Info("push channel disconnected")
	}
}

// Connected reports whether the push connection is currently open
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Subscribe registers the handler for a topic. A topic holds at most
// one handler: subscribing again replaces the previous one.
func (c *Channel) Subscribe(topic Topic, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

// Unsubscribe removes the handler for a topic; removing an absent
// handler is a no-op
func (c *Channel) Unsubscribe(topic Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, topic)
}

// readLoop reads frames until the connection drops, then tries a
// bounded reconnect. Events within one topic dispatch in arrival
// order.
func (c *Channel) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("push read error", "error", err)
			}
			c.reconnect(conn, gen)
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			slog.Debug("invalid push frame", "error", err)
			continue
		}

		c.mu.Lock()
		handler := c.handlers[f.Event]
		c.mu.Unlock()

		if handler != nil {
			handler(f.Data)
		}
	}
}

// reconnect replaces a dropped connection unless the channel was
// explicitly disconnected in the meantime
func (c *Channel) reconnect(dropped *websocket.Conn, gen int) {
	c.mu.Lock()
	if c.gen != gen || c.conn != dropped {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	dropped.Close()

	slog.Warn("push connection dropped, reconnecting")

	conn, err := c.dial(context.Background())
	if err != nil {
		// Stay disconnected until the next explicit Connect; the
		// periodic pull covers missed updates
		slog.Error("push reconnect failed", "error", err)
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	slog.Info("push channel reconnected")
}
