package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/orderfeed/internal/queue"
)

// Client is the single feed connection.
type Client interface {
	// Connect dials the feed. On failure the client reports an error
	// event followed by a closed event and stays closed.
	Connect(ctx context.Context) error

	// Close tears the connection down. Safe to call more than once.
	Close() error

	// Next blocks for the next event. Returns false once the closed
	// event has been consumed.
	Next() (Event, bool)

	// State returns the current connection state.
	State() State

	// LastHeartbeat returns when the server last answered or sent a ping.
	LastHeartbeat() time.Time

	// QueueStats reports event queue counters.
	QueueStats() queue.Stats
}

// client implements the Client interface.
type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	events *queue.Queue[Event]
	sm     stateMachine

	mu            sync.Mutex
	conn          *websocket.Conn
	dialing       bool
	lastHeartbeat time.Time

	closeOnce  sync.Once
	finishOnce sync.Once
	closing    chan struct{}
	done       chan struct{}
}

// NewClient creates a client in the Connecting state.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		cfg:     cfg,
		logger:  logger,
		events:  queue.New[Event](cfg.QueueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.sm.current() == StateClosed:
		c.mu.Unlock()
		return ErrAlreadyClosed
	case c.dialing || c.conn != nil:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.dialing = true
	c.mu.Unlock()

	header := http.Header{}
	if c.cfg.UserAgent != "" {
		header.Set("User-Agent", c.cfg.UserAgent)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialing = false

	if err != nil {
		err = fmt.Errorf("%w: dial %s: %w", ErrTransport, c.cfg.URL, err)
		c.finish(err)
		return err
	}

	if err := c.sm.transition(StateOpen); err != nil {
		// Closed while the handshake was in flight.
		conn.Close()
		return ErrAlreadyClosed
	}

	c.conn = conn
	c.lastHeartbeat = time.Now()
	c.events.Push(Event{Kind: EventOpened, ReceivedAt: time.Now()})

	conn.SetPingHandler(func(data string) error {
		c.touch()
		err := conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(c.cfg.WriteTimeout),
		)
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	go c.readLoop(conn)
	if c.cfg.PingInterval > 0 {
		go c.pingLoop(conn)
	}

	c.logger.Debug("websocket connected", "url", c.cfg.URL)

	return nil
}

// Close sends a normal close frame and releases the socket.
func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)

		c.mu.Lock()
		conn := c.conn
		if conn == nil {
			// Never opened; nothing will read, so finish here.
			c.finish(nil)
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout),
		)
		// The read loop may already have released the socket.
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	return err
}

// Next returns the next queued event.
func (c *client) Next() (Event, bool) {
	return c.events.Pop()
}

// State returns the current connection state.
func (c *client) State() State {
	return c.sm.current()
}

// LastHeartbeat returns the last ping/pong time.
func (c *client) LastHeartbeat() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeartbeat
}

// QueueStats returns event queue statistics.
func (c *client) QueueStats() queue.Stats {
	return c.events.Stats()
}

func (c *client) touch() {
	c.mu.Lock()
	c.lastHeartbeat = time.Now()
	c.mu.Unlock()
}

// readLoop queues every inbound frame until the socket fails or closes.
func (c *client) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.closing:
				// Local Close; not a transport failure.
				c.finish(nil)
				return
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket closed by server", "error", err)
				c.finish(nil)
				return
			}

			c.finish(fmt.Errorf("%w: %w", ErrTransport, err))
			return
		}

		c.events.Push(Event{
			Kind:       EventMessage,
			Data:       data,
			ReceivedAt: receivedAt,
		})
	}
}

// pingLoop keeps intermediaries from idling the socket out.
func (c *client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}

// finish reports the terminal events exactly once: an optional error
// followed by closed.
func (c *client) finish(cause error) {
	c.finishOnce.Do(func() {
		now := time.Now()
		if cause != nil {
			c.events.Push(Event{Kind: EventError, Err: cause, ReceivedAt: now})
		}

		// Only fails if already closed, which finishOnce rules out.
		_ = c.sm.transition(StateClosed)

		c.events.Push(Event{Kind: EventClosed, ReceivedAt: now})
		c.events.Close()
		close(c.done)
	})
}
