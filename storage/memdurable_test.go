// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemDurableStorePendingRoundTrip(t *testing.T) {
	store := NewMemDurableStore()
	ctx := context.Background()

	entry := &PendingEntry{
		LocalVID:      "did:peer:alice",
		RemoteVID:     "did:peer:bob",
		SealedMessage: []byte("sealed"),
		URL:           "tcp://bob",
		RetryCount:    1,
		LastAttempt:   time.Now(),
		NextDeadline:  time.Now().Add(time.Second),
	}
	require.NoError(t, store.Pending().Put(ctx, entry))

	got, err := store.Pending().Get(ctx, "did:peer:alice", "did:peer:bob")
	require.NoError(t, err)
	require.Equal(t, entry.SealedMessage, got.SealedMessage)
	require.Equal(t, entry.RetryCount, got.RetryCount)

	all, err := store.Pending().All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, store.Pending().Delete(ctx, "did:peer:alice", "did:peer:bob"))
	_, err = store.Pending().Get(ctx, "did:peer:alice", "did:peer:bob")
	require.Error(t, err)
}

func TestMemDurableStoreNonceDedup(t *testing.T) {
	store := NewMemDurableStore()
	ctx := context.Background()

	record := &NonceRecord{ThreadID: "thread-1", SeenAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}

	seen, err := store.Nonces().CheckAndStore(ctx, record)
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = store.Nonces().CheckAndStore(ctx, record)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestMemDurableStoreNonceExpiry(t *testing.T) {
	store := NewMemDurableStore()
	ctx := context.Background()

	expired := &NonceRecord{ThreadID: "thread-old", SeenAt: time.Now(), ExpiresAt: time.Now().Add(-time.Minute)}
	_, err := store.Nonces().CheckAndStore(ctx, expired)
	require.NoError(t, err)

	count, err := store.Nonces().DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestMemDurableStoreVIDCache(t *testing.T) {
	store := NewMemDurableStore()
	ctx := context.Background()

	record := &VIDRecord{
		ID:            "did:peer:alice",
		Transport:     "tcp://alice",
		VerifyingKey:  []byte("vk"),
		EncryptionKey: []byte("ek"),
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, store.VIDCache().Put(ctx, record))

	got, err := store.VIDCache().Get(ctx, "did:peer:alice")
	require.NoError(t, err)
	require.Equal(t, record.Transport, got.Transport)

	require.NoError(t, store.VIDCache().Delete(ctx, "did:peer:alice"))
	_, err = store.VIDCache().Get(ctx, "did:peer:alice")
	require.Error(t, err)
}

func TestMemDurableStorePing(t *testing.T) {
	store := NewMemDurableStore()
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
}
