// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"github.com/openwallet-labs/tsp-go/storage"
	"github.com/stretchr/testify/require"
)

func TestStorePersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	secure := storage.NewMemoryStorage()

	aliceVID := newTestVID(t, "did:peer:alice", "tcp://alice")
	bobVID := newTestVID(t, "did:peer:bob", "tcp://bob")

	alice := New(WithSecureStorage(secure))
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID, "bob"))
	require.NoError(t, alice.SetRelationForVID("bob", "did:peer:alice"))
	require.NoError(t, alice.SetRouteForVID("bob", []string{"did:peer:hop1"}))
	require.NoError(t, alice.Persist(ctx))

	restarted := New(WithSecureStorage(secure))
	require.NoError(t, restarted.AddPrivateVID(aliceVID))
	require.NoError(t, restarted.Load(ctx))

	resolved, ok := restarted.resolve("bob")
	require.True(t, ok)
	require.Equal(t, "did:peer:bob", resolved.ID())

	ctxSnapshot := restarted.Context("did:peer:alice", "did:peer:bob")
	require.Equal(t, []string{"did:peer:hop1"}, ctxSnapshot.Route)
	require.Equal(t, "did:peer:alice", restarted.relation["did:peer:bob"])
}

func TestStorePersistNoSecureStorageIsNoop(t *testing.T) {
	s := New()
	require.NoError(t, s.Persist(context.Background()))
	require.NoError(t, s.Load(context.Background()))
}

func TestStoreDurableStorePendingSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemDurableStore()

	aliceVID := newTestVID(t, "did:peer:alice2", "tcp://alice")
	bobVID := newTestVID(t, "did:peer:bob2", "tcp://bob")

	alice := New(WithDurableStore(durable))
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID))
	_, _, err := alice.MakeRelationshipRequest("did:peer:alice2", "did:peer:bob2", nil)
	require.NoError(t, err)

	entries, err := durable.Pending().All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "did:peer:alice2", entries[0].LocalVID)
	require.Equal(t, "did:peer:bob2", entries[0].RemoteVID)

	restarted := New(WithDurableStore(durable))
	require.NoError(t, restarted.AddPrivateVID(aliceVID))
	require.NoError(t, restarted.AddVerifiedVID(&bobVID.VID))
	require.NoError(t, restarted.LoadDurableState(ctx))

	snapshot := restarted.Context("did:peer:alice2", "did:peer:bob2")
	require.NotNil(t, snapshot.Pending)
	require.Equal(t, entries[0].SealedMessage, snapshot.Pending.SealedMessage)
}

func TestStoreDurableStoreNonceReplayDiscarded(t *testing.T) {
	durable := storage.NewMemDurableStore()
	alice, bob, aliceVID, bobVID := twoStores(t)
	alice.durable = durable
	bob.durable = durable

	_, sealed, err := alice.MakeRelationshipRequest(aliceVID.ID(), bobVID.ID(), nil)
	require.NoError(t, err)

	_, err = bob.OpenMessage(bobVID.ID(), sealed)
	require.NoError(t, err)

	_, err = bob.OpenMessage(bobVID.ID(), sealed)
	require.Error(t, err)
}

func TestStoreForgetVIDClearsDurableState(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemDurableStore()

	aliceVID := newTestVID(t, "did:peer:alice3", "tcp://alice")
	bobVID := newTestVID(t, "did:peer:bob3", "tcp://bob")

	alice := New(WithDurableStore(durable))
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID))
	_, _, err := alice.MakeRelationshipRequest("did:peer:alice3", "did:peer:bob3", nil)
	require.NoError(t, err)

	require.NoError(t, alice.ForgetVID("did:peer:bob3"))

	entries, err := durable.Pending().All(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = durable.VIDCache().Get(ctx, "did:peer:bob3")
	require.Error(t, err)
}
