// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openwallet-labs/tsp-go/storage"
)

// PendingStore implements storage.PendingStore for PostgreSQL.
type PendingStore struct {
	db *pgxpool.Pool
}

// Put upserts the pending handshake for (local_vid, remote_vid).
func (p *PendingStore) Put(ctx context.Context, entry *storage.PendingEntry) error {
	query := `
		INSERT INTO pending_requests (local_vid, remote_vid, sealed_message, url, retry_count, last_attempt, next_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (local_vid, remote_vid) DO UPDATE SET
			sealed_message = EXCLUDED.sealed_message,
			url = EXCLUDED.url,
			retry_count = EXCLUDED.retry_count,
			last_attempt = EXCLUDED.last_attempt,
			next_deadline = EXCLUDED.next_deadline
	`
	_, err := p.db.Exec(ctx, query,
		entry.LocalVID, entry.RemoteVID, entry.SealedMessage, entry.URL,
		entry.RetryCount, entry.LastAttempt, entry.NextDeadline,
	)
	if err != nil {
		return fmt.Errorf("postgres: put pending request: %w", err)
	}
	return nil
}

// Get retrieves the pending handshake for (local_vid, remote_vid).
func (p *PendingStore) Get(ctx context.Context, localVID, remoteVID string) (*storage.PendingEntry, error) {
	query := `
		SELECT local_vid, remote_vid, sealed_message, url, retry_count, last_attempt, next_deadline
		FROM pending_requests
		WHERE local_vid = $1 AND remote_vid = $2
	`
	var entry storage.PendingEntry
	err := p.db.QueryRow(ctx, query, localVID, remoteVID).Scan(
		&entry.LocalVID, &entry.RemoteVID, &entry.SealedMessage, &entry.URL,
		&entry.RetryCount, &entry.LastAttempt, &entry.NextDeadline,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("postgres: no pending request for %s -> %s", localVID, remoteVID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get pending request: %w", err)
	}
	return &entry, nil
}

// Delete removes the pending handshake for (local_vid, remote_vid).
func (p *PendingStore) Delete(ctx context.Context, localVID, remoteVID string) error {
	query := `DELETE FROM pending_requests WHERE local_vid = $1 AND remote_vid = $2`
	_, err := p.db.Exec(ctx, query, localVID, remoteVID)
	if err != nil {
		return fmt.Errorf("postgres: delete pending request: %w", err)
	}
	return nil
}

// All returns every pending handshake, for the retry sweep to load on
// process start.
func (p *PendingStore) All(ctx context.Context) ([]*storage.PendingEntry, error) {
	query := `SELECT local_vid, remote_vid, sealed_message, url, retry_count, last_attempt, next_deadline FROM pending_requests`
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pending requests: %w", err)
	}
	defer rows.Close()

	var entries []*storage.PendingEntry
	for rows.Next() {
		var entry storage.PendingEntry
		if err := rows.Scan(
			&entry.LocalVID, &entry.RemoteVID, &entry.SealedMessage, &entry.URL,
			&entry.RetryCount, &entry.LastAttempt, &entry.NextDeadline,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan pending request: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate pending requests: %w", err)
	}
	return entries, nil
}

var _ storage.PendingStore = (*PendingStore)(nil)
