// Package display implements render targets for order rows.
//
// Targets:
//   - Table: in-memory append-only surface, read by the HTTP views
//   - LineWriter: one "AAPL | 189.5 | 10 | BUY" line per row
//   - Multi: fans a row out to several targets
//
// Targets only ever append. Rows are never re-sorted, replaced or capped.
package display
