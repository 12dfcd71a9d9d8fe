// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"context"
	"time"
)

// PendingEntry is a durable record of a handshake message awaiting a
// reply, keyed by the (local, remote) VID pair it belongs to — the
// same fields relationship.PendingRequest tracks in memory, persisted
// so in-flight handshakes survive a process restart.
type PendingEntry struct {
	LocalVID      string
	RemoteVID     string
	SealedMessage []byte
	URL           string
	RetryCount    int
	LastAttempt   time.Time
	NextDeadline  time.Time
}

// PendingStore durably tracks in-flight relationship handshakes.
type PendingStore interface {
	Put(ctx context.Context, entry *PendingEntry) error
	Get(ctx context.Context, localVID, remoteVID string) (*PendingEntry, error)
	Delete(ctx context.Context, localVID, remoteVID string) error
	All(ctx context.Context) ([]*PendingEntry, error)
}

// NonceRecord is one seen relationship-thread nonce, recorded so a
// restarted process can still recognize a retried NEW_REL it already
// processed rather than starting a second concurrent handshake.
type NonceRecord struct {
	ThreadID  string
	SeenAt    time.Time
	ExpiresAt time.Time
}

// NonceStore durably tracks seen thread-id/nonce pairs.
type NonceStore interface {
	CheckAndStore(ctx context.Context, record *NonceRecord) (alreadySeen bool, err error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// VIDRecord is a cached resolver result: the resolved VID's public
// material, so a warm cache can skip a network resolve on the next
// lookup of the same identifier.
type VIDRecord struct {
	ID            string
	Transport     string
	VerifyingKey  []byte
	EncryptionKey []byte
	Subtype       string
	CachedAt      time.Time
	ExpiresAt     time.Time
}

// VIDCacheStore durably caches resolved VIDs.
type VIDCacheStore interface {
	Put(ctx context.Context, record *VIDRecord) error
	Get(ctx context.Context, id string) (*VIDRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DurableStore combines the three durability concerns a long-running
// node needs beyond SecureStorage's single opaque blob: surviving
// in-flight handshakes, seen-nonce bookkeeping, and a resolved-VID
// cache.
type DurableStore interface {
	Pending() PendingStore
	Nonces() NonceStore
	VIDCache() VIDCacheStore
	Close() error
	Ping(ctx context.Context) error
}
