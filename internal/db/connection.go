// Package db owns the Postgres connection pool and the conversation log.
// The vector store borrows the same pool so one connection string
// configures everything.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the shared connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New opens a pool and verifies the server is reachable before returning.
// The pool stays small: a single-user session needs a couple of
// connections for interactive queries plus the ingestion batch writer.
func New(connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 8
	config.MinConns = 1
	config.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool exposes the underlying pool for collaborators that issue their own
// queries, such as the vector store and the migration runner.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}
