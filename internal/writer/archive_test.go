package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/orderfeed/internal/order"
)

// fakeDB records batches and optionally fails Exec at a given index.
type fakeDB struct {
	mu      sync.Mutex
	batches []*pgx.Batch
	failAt  int // -1 = never
}

func newFakeDB() *fakeDB { return &fakeDB{failAt: -1} }

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	f.batches = append(f.batches, b)
	f.mu.Unlock()
	return &fakeResults{failAt: f.failAt}
}

func (f *fakeDB) rows() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, b := range f.batches {
		for _, q := range b.QueuedQueries {
			out = append(out, q.Arguments)
		}
	}
	return out
}

type fakeResults struct {
	n      int
	failAt int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	defer func() { r.n++ }()
	if r.n == r.failAt {
		return pgconn.CommandTag{}, errors.New("insert failed")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }

var aapl = order.Row{Symbol: "AAPL", Price: "189.5", Quantity: "10", OrderType: "BUY"}

func TestArchiveWriter_Transform(t *testing.T) {
	cfg := DefaultWriterConfig()
	cfg.InstanceID = "feed-1"
	w := NewArchiveWriter(cfg, nil, nil)

	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	w.now = func() time.Time { return fixed }

	rec := w.transform(aapl, 7)

	if rec.Seq != 7 {
		t.Errorf("Seq = %d, want 7", rec.Seq)
	}
	if rec.InstanceID != "feed-1" {
		t.Errorf("InstanceID = %q, want feed-1", rec.InstanceID)
	}
	if !rec.ReceivedAt.Equal(fixed) || rec.ReceivedAt.Location() != time.UTC {
		t.Errorf("ReceivedAt = %v, want %v in UTC", rec.ReceivedAt, fixed)
	}
	if rec.Row != aapl {
		t.Errorf("Row = %+v, want %+v", rec.Row, aapl)
	}
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("ID should be a fresh UUID")
	}
}

func TestArchiveWriter_AppendAssignsSequence(t *testing.T) {
	w := NewArchiveWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, nil, nil)

	for i := 0; i < 3; i++ {
		if err := w.Append(aapl); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	batch := w.pending.PopN(0)
	if len(batch) != 3 {
		t.Fatalf("pending = %d, want 3", len(batch))
	}
	for i, rec := range batch {
		if rec.Seq != int64(i+1) {
			t.Errorf("row %d Seq = %d, want %d", i, rec.Seq, i+1)
		}
	}
	if w.Stats().Queued != 3 {
		t.Errorf("Queued = %d, want 3", w.Stats().Queued)
	}
}

func TestArchiveWriter_FlushesFullBatch(t *testing.T) {
	db := newFakeDB()
	w := NewArchiveWriter(WriterConfig{BatchSize: 2, FlushInterval: time.Hour}, db, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Append(aapl)
	w.Append(aapl)

	deadline := time.Now().Add(time.Second)
	for len(db.rows()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	rows := db.rows()
	if len(rows) != 2 {
		t.Fatalf("inserted rows = %d, want 2", len(rows))
	}
	if rows[0][4] != "AAPL" || rows[0][5] != "189.5" || rows[0][7] != "BUY" {
		t.Errorf("row args = %v", rows[0])
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestArchiveWriter_StopFlushesRemainder(t *testing.T) {
	db := newFakeDB()
	w := NewArchiveWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, db, nil)

	w.Start(context.Background())
	w.Append(aapl)
	w.Append(aapl)
	w.Append(aapl)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if n := len(db.rows()); n != 3 {
		t.Errorf("inserted rows = %d, want 3", n)
	}

	stats := w.Stats()
	if stats.Inserts != 3 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if err := w.Append(aapl); !errors.Is(err, ErrStopped) {
		t.Errorf("Append after Stop = %v, want ErrStopped", err)
	}
}

func TestArchiveWriter_FlushErrorCounted(t *testing.T) {
	db := newFakeDB()
	db.failAt = 1
	w := NewArchiveWriter(WriterConfig{BatchSize: 10, FlushInterval: time.Hour}, db, nil)

	w.Append(aapl)
	w.Append(aapl)
	w.Append(aapl)
	w.drain(context.Background())

	stats := w.Stats()
	if stats.Inserts != 1 {
		t.Errorf("Inserts = %d, want 1", stats.Inserts)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
}

func TestArchiveWriter_NoDatabase(t *testing.T) {
	w := NewArchiveWriter(DefaultWriterConfig(), nil, nil)

	if err := w.Append(aapl); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	w.drain(context.Background())

	if w.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", w.Stats().Errors)
	}
}

func TestArchiveWriter_Lifecycle(t *testing.T) {
	cfg := WriterConfig{
		BatchSize:     10,
		FlushInterval: 10 * time.Millisecond,
	}
	w := NewArchiveWriter(cfg, newFakeDB(), nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

// slowDB holds each batch for delay, failing early if its ctx ends.
type slowDB struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.once.Do(func() { close(s.started) })
	return &slowResults{ctx: ctx, delay: s.delay}
}

type slowResults struct {
	ctx   context.Context
	delay time.Duration
}

func (r *slowResults) Exec() (pgconn.CommandTag, error) {
	select {
	case <-time.After(r.delay):
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case <-r.ctx.Done():
		return pgconn.CommandTag{}, r.ctx.Err()
	}
}

func (r *slowResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *slowResults) QueryRow() pgx.Row        { return nil }
func (r *slowResults) Close() error             { return nil }

func TestArchiveWriter_ShutdownCompletesInFlightBatch(t *testing.T) {
	db := &slowDB{delay: 50 * time.Millisecond, started: make(chan struct{})}
	w := NewArchiveWriter(WriterConfig{BatchSize: 2, FlushInterval: time.Hour}, db, nil)

	runCtx, cancelRun := context.WithCancel(context.Background())
	if err := w.Start(runCtx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Append(aapl)
	w.Append(aapl)

	select {
	case <-db.started:
	case <-time.After(time.Second):
		t.Fatal("batch was never sent")
	}

	// Shut down the way main does: cancel the run context, then Stop.
	cancelRun()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	stats := w.Stats()
	if stats.Inserts != 2 || stats.Errors != 0 || stats.Dropped != 0 {
		t.Errorf("stats = %+v, want 2 inserts and no errors", stats)
	}
}
