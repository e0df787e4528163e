// Package writer implements the Postgres archive for rendered order rows.
//
// The archive is a display target: Append only queues the row, and a
// background loop flushes batches with pgx. Archive failures are logged
// and counted but never reach the feed.
//
// All writes are append-only (never update, only insert).
package writer
