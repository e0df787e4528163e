// Package order defines the order event carried on the feed and the
// four-cell row it renders to.
//
// Conventions:
//   - Fields are opaque display text. Nothing is validated or reformatted.
//   - JSON strings render unquoted, numbers render as their literal text.
//   - Absent and null fields render as the empty string.
package order
