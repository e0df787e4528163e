// Package database manages the optional Postgres archive connection.
//
// Archived rows are append-only; the schema is created on startup if missing.
package database
