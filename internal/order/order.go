package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMessage is returned when a frame is not a JSON document.
var ErrMalformedMessage = errors.New("malformed message")

// Message is one decoded order event.
// Each field holds the raw JSON value for that key, or nil when absent.
type Message struct {
	Symbol    json.RawMessage
	Price     json.RawMessage
	Quantity  json.RawMessage
	OrderType json.RawMessage
}

// Row is the rendered form of a Message: four display cells in fixed order.
type Row struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	OrderType string `json:"order_type"`
}

// Decode parses a frame. Any JSON document is accepted; values that are
// not objects decode to an empty Message.
func Decode(frame []byte) (Message, error) {
	if !json.Valid(frame) {
		return Message{}, fmt.Errorf("%w: invalid json (%d bytes)", ErrMalformedMessage, len(frame))
	}

	// Struct decoding folds key case; only exact key names may fill a cell.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		// Valid JSON that is not an object (number, array, string...).
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Message{}, nil
		}
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	return Message{
		Symbol:    fields["symbol"],
		Price:     fields["price"],
		Quantity:  fields["quantity"],
		OrderType: fields["order_type"],
	}, nil
}

// RowFor converts a message into its display row.
func RowFor(msg Message) Row {
	return Row{
		Symbol:    cellText(msg.Symbol),
		Price:     cellText(msg.Price),
		Quantity:  cellText(msg.Quantity),
		OrderType: cellText(msg.OrderType),
	}
}

// Cells returns the row cells in display order.
func (r Row) Cells() [4]string {
	return [4]string{r.Symbol, r.Price, r.Quantity, r.OrderType}
}

// String renders the row as "AAPL | 189.5 | 10 | BUY".
func (r Row) String() string {
	cells := r.Cells()
	return strings.Join(cells[:], " | ")
}

// cellText coerces a raw JSON value to display text.
func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	// Numbers keep their literal text; composite values are compacted.
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
