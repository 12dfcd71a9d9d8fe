// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openwallet-labs/tsp-go/storage"
)

// VIDCacheStore implements storage.VIDCacheStore for PostgreSQL.
type VIDCacheStore struct {
	db *pgxpool.Pool
}

// Put upserts a resolved VID's cache entry.
func (v *VIDCacheStore) Put(ctx context.Context, record *storage.VIDRecord) error {
	query := `
		INSERT INTO vid_cache (id, transport, verifying_key, encryption_key, subtype, cached_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			transport = EXCLUDED.transport,
			verifying_key = EXCLUDED.verifying_key,
			encryption_key = EXCLUDED.encryption_key,
			subtype = EXCLUDED.subtype,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := v.db.Exec(ctx, query,
		record.ID, record.Transport, record.VerifyingKey, record.EncryptionKey,
		record.Subtype, record.CachedAt, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put vid cache entry: %w", err)
	}
	return nil
}

// Get retrieves a cached VID by id, if present and unexpired.
func (v *VIDCacheStore) Get(ctx context.Context, id string) (*storage.VIDRecord, error) {
	query := `
		SELECT id, transport, verifying_key, encryption_key, subtype, cached_at, expires_at
		FROM vid_cache
		WHERE id = $1 AND expires_at > NOW()
	`
	var record storage.VIDRecord
	err := v.db.QueryRow(ctx, query, id).Scan(
		&record.ID, &record.Transport, &record.VerifyingKey, &record.EncryptionKey,
		&record.Subtype, &record.CachedAt, &record.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("postgres: no cached vid for %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get vid cache entry: %w", err)
	}
	return &record, nil
}

// Delete removes a VID's cache entry.
func (v *VIDCacheStore) Delete(ctx context.Context, id string) error {
	_, err := v.db.Exec(ctx, `DELETE FROM vid_cache WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete vid cache entry: %w", err)
	}
	return nil
}

// DeleteExpired deletes every cache entry whose expiry has passed.
func (v *VIDCacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := v.db.Exec(ctx, `DELETE FROM vid_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired vid cache entries: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ storage.VIDCacheStore = (*VIDCacheStore)(nil)
