package display

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rickgao/orderfeed/internal/order"
)

var (
	tsla = order.Row{Symbol: "TSLA", Price: "250", Quantity: "5", OrderType: "SELL"}
	goog = order.Row{Symbol: "GOOG", Price: "2800", Quantity: "2", OrderType: "BUY"}
)

type failingTarget struct{ calls int }

func (f *failingTarget) Append(order.Row) error {
	f.calls++
	return errors.New("target unavailable")
}

func TestTable_AppendPreservesOrder(t *testing.T) {
	table := NewTable()

	table.Append(tsla)
	table.Append(goog)

	rows := table.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(Rows()) = %d, want 2", len(rows))
	}
	if rows[0] != tsla || rows[1] != goog {
		t.Errorf("Rows() = %v, want [TSLA GOOG]", rows)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}

func TestTable_RowsIsSnapshot(t *testing.T) {
	table := NewTable()
	table.Append(tsla)

	rows := table.Rows()
	rows[0].Symbol = "MUTATED"

	if table.Rows()[0].Symbol != "TSLA" {
		t.Error("mutating Rows() result changed the table")
	}
}

func TestLineWriter_Append(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	w.Append(tsla)
	w.Append(goog)

	want := "TSLA | 250 | 5 | SELL\nGOOG | 2800 | 2 | BUY\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestMulti_AppendsToAll(t *testing.T) {
	a, b := NewTable(), NewTable()
	failing := &failingTarget{}

	m := Multi{a, failing, b}

	err := m.Append(tsla)
	if err == nil {
		t.Fatal("expected error from failing target")
	}

	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("tables got %d/%d rows, want 1/1", a.Len(), b.Len())
	}
	if failing.calls != 1 {
		t.Errorf("failing target calls = %d, want 1", failing.calls)
	}
}

func TestMulti_NoErrors(t *testing.T) {
	m := Multi{NewTable(), NewTable()}
	if err := m.Append(goog); err != nil {
		t.Errorf("Append() = %v, want nil", err)
	}
}
