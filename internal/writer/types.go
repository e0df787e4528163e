package writer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/orderfeed/internal/order"
)

// ErrStopped is returned by Append after Stop.
var ErrStopped = errors.New("archive writer stopped")

var errNoDatabase = errors.New("no database configured")

// WriterConfig contains configuration for the archive writer.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// InstanceID tags every archived row.
	InstanceID string
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// BatchSender is the subset of *pgxpool.Pool the writer needs.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// archiveRow represents a row to be inserted into the order_rows table.
type archiveRow struct {
	ID         uuid.UUID
	ReceivedAt time.Time
	Seq        int64 // Position in the display, starting at 1
	InstanceID string
	Row        order.Row
}

// WriterMetrics holds metrics for the writer.
type WriterMetrics struct {
	Queued  int64
	Inserts int64
	Errors  int64
	Flushes int64
	Dropped int64 // Rows lost to failed flushes
}
