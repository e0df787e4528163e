package connection

import (
	"context"
)

// Handler receives connection events. Handlers run one at a time, in
// arrival order, and must return promptly.
type Handler interface {
	OnOpen()

	// OnMessage handles one frame. A non-nil error aborts only this
	// frame; dispatch continues with the next event.
	OnMessage(frame []byte) error

	OnError(err error)
	OnClose()
}

// EventSource yields connection events in order.
type EventSource interface {
	Next() (Event, bool)
	Close() error
}

// DispatchStats summarizes one Dispatch run.
type DispatchStats struct {
	Events         int64
	Messages       int64
	FailedMessages int64
	Errors         int64
}

// Dispatch is the event loop. It delivers every event from src to h on
// the calling goroutine until the closed event has been handled.
//
// Cancelling ctx closes src; the remaining queued events, ending with
// closed, are still delivered.
func Dispatch(ctx context.Context, src EventSource, h Handler) DispatchStats {
	stop := context.AfterFunc(ctx, func() {
		src.Close()
	})
	defer stop()

	var stats DispatchStats

	for {
		ev, ok := src.Next()
		if !ok {
			return stats
		}
		stats.Events++

		switch ev.Kind {
		case EventOpened:
			h.OnOpen()
		case EventMessage:
			stats.Messages++
			if err := h.OnMessage(ev.Data); err != nil {
				stats.FailedMessages++
			}
		case EventError:
			stats.Errors++
			h.OnError(ev.Err)
		case EventClosed:
			h.OnClose()
			return stats
		}
	}
}
