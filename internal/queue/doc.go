// Package queue provides the unbounded FIFO that sits between the socket
// reader goroutine and the single-threaded dispatch loop.
//
// The reader must never block on a slow handler and must never drop a
// frame, so the queue doubles its ring when full instead of rejecting.
package queue
