package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/orderfeed/internal/connection"
	"github.com/rickgao/orderfeed/internal/display"
	"github.com/rickgao/orderfeed/internal/order"
)

// ErrMissingDisplayTarget is returned when no display target is supplied.
var ErrMissingDisplayTarget = errors.New("missing display target")

var _ connection.Handler = (*Renderer)(nil)

// Stats contains renderer counters.
type Stats struct {
	Received       int64 // Frames handed to OnMessage
	Rendered       int64 // Rows appended
	Malformed      int64 // Frames that failed to decode
	AppendFailures int64 // Rows the target rejected
	TransportErrs  int64 // Error events seen
}

// Renderer turns feed events into display rows.
type Renderer struct {
	target display.Target
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewRenderer creates a renderer that appends to target.
func NewRenderer(target display.Target, logger *slog.Logger) (*Renderer, error) {
	if target == nil {
		return nil, ErrMissingDisplayTarget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		target: target,
		logger: logger,
	}, nil
}

// OnOpen logs that the connection is up.
func (r *Renderer) OnOpen() {
	r.logger.Info("websocket connection established")
}

// OnMessage decodes one frame and appends its row.
func (r *Renderer) OnMessage(frame []byte) error {
	r.mu.Lock()
	r.stats.Received++
	r.mu.Unlock()

	msg, err := order.Decode(frame)
	if err != nil {
		r.logger.Error("failed to decode order message", "error", err, "bytes", len(frame))
		r.mu.Lock()
		r.stats.Malformed++
		r.mu.Unlock()
		return err
	}

	row := order.RowFor(msg)

	if err := r.target.Append(row); err != nil {
		r.logger.Error("failed to append row", "error", err, "symbol", row.Symbol)
		r.mu.Lock()
		r.stats.AppendFailures++
		r.mu.Unlock()
		return fmt.Errorf("append row: %w", err)
	}

	r.mu.Lock()
	r.stats.Rendered++
	r.mu.Unlock()

	r.logger.Debug("rendered order", "row", row.String())
	return nil
}

// OnError logs a transport error. The connection decides whether it closes.
func (r *Renderer) OnError(err error) {
	r.mu.Lock()
	r.stats.TransportErrs++
	r.mu.Unlock()

	r.logger.Error("websocket error", "error", err)
}

// OnClose logs that the connection is gone. Rendered rows stay put.
func (r *Renderer) OnClose() {
	r.logger.Info("websocket connection closed")
}

// Stats returns current counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
