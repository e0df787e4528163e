package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/orderfeed/internal/display"
	"github.com/rickgao/orderfeed/internal/order"
	"github.com/rickgao/orderfeed/internal/queue"
)

var _ display.Target = (*ArchiveWriter)(nil)

const insertOrderRow = `
	INSERT INTO order_rows (id, received_at, seq, instance_id, symbol, price, quantity, order_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// ArchiveWriter appends rendered rows to the order_rows table.
type ArchiveWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Rows waiting for the next flush
	pending *queue.Queue[archiveRow]
	kick    chan struct{}

	// Database
	db BatchSender

	// Lifecycle. ctx ends the flush loop; flushCtx carries its values but
	// is never cancelled, so a batch in flight completes.
	ctx      context.Context
	flushCtx context.Context
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Sequence and metrics
	mu      sync.Mutex
	seq     int64
	metrics WriterMetrics
	now     func() time.Time
}

// NewArchiveWriter creates a new ArchiveWriter.
func NewArchiveWriter(cfg WriterConfig, db BatchSender, logger *slog.Logger) *ArchiveWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &ArchiveWriter{
		cfg:     cfg,
		logger:  logger,
		pending: queue.New[archiveRow](cfg.BatchSize),
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		db:      db,
		now:     time.Now,
	}
}

// Append queues a row for archiving. It never blocks on the database.
func (w *ArchiveWriter) Append(row order.Row) error {
	w.mu.Lock()
	w.seq++
	rec := w.transform(row, w.seq)
	w.mu.Unlock()

	if !w.pending.Push(rec) {
		return ErrStopped
	}

	w.mu.Lock()
	w.metrics.Queued++
	w.mu.Unlock()

	if w.pending.Len() >= w.cfg.BatchSize {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Start begins the flush loop.
func (w *ArchiveWriter) Start(ctx context.Context) error {
	w.ctx = ctx
	w.flushCtx = context.WithoutCancel(ctx)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes what is queued and shuts the writer down.
func (w *ArchiveWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	w.pending.Close()
	w.stopOnce.Do(func() { close(w.stop) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
		return ctx.Err()
	}

	// Final flush, bounded by the caller's deadline.
	w.drain(ctx)

	ps := w.pending.Stats()
	w.logger.Info("archive writer stopped",
		"dequeued", ps.Popped,
		"queue_resizes", ps.Resizes,
	)
	return nil
}

// Stats returns current metrics.
func (w *ArchiveWriter) Stats() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// flushLoop flushes on the interval or when a full batch is waiting.
func (w *ArchiveWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.drain(w.flushCtx)
		case <-w.kick:
			w.drain(w.flushCtx)
		}
	}
}

// drain flushes batches until nothing is pending.
func (w *ArchiveWriter) drain(ctx context.Context) {
	for {
		batch := w.pending.PopN(w.cfg.BatchSize)
		if len(batch) == 0 {
			return
		}
		w.flush(ctx, batch)
	}
}

// transform stamps a display row for the archive.
func (w *ArchiveWriter) transform(row order.Row, seq int64) archiveRow {
	return archiveRow{
		ID:         uuid.New(),
		ReceivedAt: w.now().UTC(),
		Seq:        seq,
		InstanceID: w.cfg.InstanceID,
		Row:        row,
	}
}

// flush writes one batch to the database.
func (w *ArchiveWriter) flush(ctx context.Context, rows []archiveRow) {
	start := time.Now()

	inserted, err := w.batchInsert(ctx, rows)

	w.mu.Lock()
	w.metrics.Flushes++
	w.metrics.Inserts += int64(inserted)
	if err != nil {
		w.metrics.Errors++
		w.metrics.Dropped += int64(len(rows) - inserted)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(rows), "inserted", inserted)
		return
	}

	w.logger.Debug("flushed order rows",
		"count", len(rows),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using a single pgx.Batch.
func (w *ArchiveWriter) batchInsert(ctx context.Context, rows []archiveRow) (inserted int, err error) {
	if w.db == nil {
		return 0, errNoDatabase
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertOrderRow,
			r.ID, r.ReceivedAt, r.Seq, r.InstanceID,
			r.Row.Symbol, r.Row.Price, r.Row.Quantity, r.Row.OrderType,
		)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return inserted, err
		}
		inserted++
	}

	return inserted, nil
}
