package display

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rickgao/orderfeed/internal/order"
)

// Target is a surface rows can be appended to.
type Target interface {
	Append(row order.Row) error
}

// Table is an in-memory, append-only display surface.
type Table struct {
	mu   sync.RWMutex
	rows []order.Row
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Append adds a row to the end of the table.
func (t *Table) Append(row order.Row) error {
	t.mu.Lock()
	t.rows = append(t.rows, row)
	t.mu.Unlock()
	return nil
}

// Rows returns a copy of the current rows in insertion order.
func (t *Table) Rows() []order.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]order.Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// LineWriter writes each row as a single line.
type LineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineWriter wraps w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Append writes "symbol | price | quantity | order_type\n".
func (l *LineWriter) Append(row order.Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := fmt.Fprintln(l.w, row.String()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Multi appends to every target in order.
type Multi []Target

// Append appends to all targets, even if an earlier one fails.
func (m Multi) Append(row order.Row) error {
	var errs []error
	for _, t := range m {
		if err := t.Append(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
