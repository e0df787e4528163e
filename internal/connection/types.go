package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrTransport         = errors.New("transport error")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrAlreadyConnected  = errors.New("already connected")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// EventKind identifies one of the four connection events.
type EventKind int

const (
	EventOpened EventKind = iota
	EventMessage
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is a single connection event, delivered in arrival order.
type Event struct {
	Kind       EventKind
	Data       []byte    // Frame payload (EventMessage only)
	Err        error     // Transport failure (EventError only)
	ReceivedAt time.Time // Local timestamp when the event was observed
}

// ClientConfig configures the feed connection.
type ClientConfig struct {
	URL              string        // e.g. ws://localhost:8000/ws/orders
	HandshakeTimeout time.Duration // Dial handshake deadline
	PingInterval     time.Duration // Keepalive ping period (0 = disabled)
	WriteTimeout     time.Duration // Deadline for control frames
	QueueSize        int           // Initial event queue capacity (grows as needed)
	UserAgent        string        // Sent in the handshake when set
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     5 * time.Second,
		QueueSize:        1024,
	}
}
