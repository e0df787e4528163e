package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/orderfeed/internal/config"
)

// Schema creates the archive table. Rows are only ever inserted.
const Schema = `
CREATE TABLE IF NOT EXISTS order_rows (
	id          UUID PRIMARY KEY,
	received_at TIMESTAMPTZ NOT NULL,
	seq         BIGINT NOT NULL,
	instance_id TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	price       TEXT NOT NULL,
	quantity    TEXT NOT NULL,
	order_type  TEXT NOT NULL
)`

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig, appName string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg, appName))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the archive table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create order_rows: %w", err)
	}
	return nil
}
