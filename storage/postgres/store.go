// SPDX-License-Identifier: LGPL-3.0-or-later

// Package postgres implements storage.DurableStore over PostgreSQL via
// pgx: pending-handshake tracking, seen-nonce bookkeeping and a
// resolved-VID cache, so a long-running node's in-flight state
// survives a restart without the Store itself knowing SQL exists.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openwallet-labs/tsp-go/storage"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c Config) connString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Store implements storage.DurableStore for PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	pending *PendingStore
	nonces  *NonceStore
	vids    *VIDCacheStore
}

// NewStore opens a connection pool against cfg and verifies it with a
// ping before returning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("postgres: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping database: %w", err)
	}

	return &Store{
		pool:    pool,
		pending: &PendingStore{db: pool},
		nonces:  &NonceStore{db: pool},
		vids:    &VIDCacheStore{db: pool},
	}, nil
}

func (s *Store) Pending() storage.PendingStore   { return s.pending }
func (s *Store) Nonces() storage.NonceStore      { return s.nonces }
func (s *Store) VIDCache() storage.VIDCacheStore { return s.vids }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var _ storage.DurableStore = (*Store)(nil)
