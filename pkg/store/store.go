// Package store provides PostgreSQL data access for orders, order items,
// tags, and the audit trail. Listing queries follow the keyset continuation
// contract of pkg/pagination; child-row queries are batched over the parent
// id set so a page never costs more than one query per relation.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the PostgreSQL-backed data access layer. It holds a single
// connection pool and is safe for concurrent use. Pass it explicitly to the
// components that need it; there is no package-level instance.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	retry  RetryConfig
}

// New connects to the database at dsn, verifies the connection, and ensures
// the schema exists. Close the returned store when done.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	logger := log.With().Str("component", "store").Logger()
	logger.Info().Msg("Connected to PostgreSQL")

	return &Store{
		pool:   pool,
		logger: logger,
		retry:  DefaultRetryConfig(),
	}, nil
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying connection pool for ad-hoc statements in
// migrations and tests.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
