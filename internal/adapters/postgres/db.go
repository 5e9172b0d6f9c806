package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps pgxpool.Pool and provides a shared connection pool for one
// conn_info string.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB connection pool. conn_info may be a URL or a
// libpq keyword/value string.
func New(ctx context.Context, connInfo string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connInfo)
	if err != nil {
		return nil, fmt.Errorf("parse conn_info: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
