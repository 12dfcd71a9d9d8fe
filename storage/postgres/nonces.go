// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openwallet-labs/tsp-go/storage"
)

// NonceStore implements storage.NonceStore for PostgreSQL.
type NonceStore struct {
	db *pgxpool.Pool
}

// CheckAndStore atomically checks whether record's thread id has been
// seen before and, if not, records it.
func (n *NonceStore) CheckAndStore(ctx context.Context, record *storage.NonceRecord) (bool, error) {
	tx, err := n.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: begin nonce transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM thread_nonces WHERE thread_id = $1)`, record.ThreadID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: check nonce: %w", err)
	}
	if exists {
		return true, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO thread_nonces (thread_id, seen_at, expires_at) VALUES ($1, $2, $3)`,
		record.ThreadID, record.SeenAt, record.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: store nonce: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("postgres: commit nonce transaction: %w", err)
	}
	return false, nil
}

// DeleteExpired deletes every nonce record whose expiry has passed.
func (n *NonceStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := n.db.Exec(ctx, `DELETE FROM thread_nonces WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired nonces: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ storage.NonceStore = (*NonceStore)(nil)
