// Package feed implements the Order Feed Renderer.
//
// The renderer handles connection events:
//   - opened: logs "websocket connection established"
//   - message: decodes the frame and appends one row to the display
//   - error: logs the error; no recovery
//   - closed: logs "websocket connection closed"; rows are kept
//
// A malformed frame or a failed append aborts only that frame.
package feed
