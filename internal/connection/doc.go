// Package connection owns the feed's single WebSocket connection.
//
// The connection:
//   - Dials once and is never recreated (no reconnection)
//   - Is receive-only; no data frames are ever written
//   - Reports four event kinds: opened, message, error, closed
//   - Moves Connecting -> Open -> Closed; Closed is terminal
//
// Dispatch drains events on one goroutine so handlers never overlap.
package connection
