// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"testing"
	"time"

	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/openwallet-labs/tsp-go/relationship"
	"github.com/openwallet-labs/tsp-go/vid"
	"github.com/stretchr/testify/require"
)

func newTestVID(t *testing.T, id, transport string) *vid.OwnedVID {
	t.Helper()
	signing, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	decryption, err := keys.GenerateX25519KeyPair()
	require.NoError(t, err)
	owned, err := vid.NewOwned(id, transport, signing, decryption)
	require.NoError(t, err)
	return owned
}

func twoStores(t *testing.T) (alice *Store, bob *Store, aliceVID, bobVID *vid.OwnedVID) {
	t.Helper()
	aliceVID = newTestVID(t, "did:peer:alice", "tcp://alice")
	bobVID = newTestVID(t, "did:peer:bob", "tcp://bob")

	alice = New()
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID))

	bob = New()
	require.NoError(t, bob.AddPrivateVID(bobVID))
	require.NoError(t, bob.AddVerifiedVID(&aliceVID.VID))
	return
}

func TestSealOpenRoundTrip(t *testing.T) {
	alice, bob, _, _ := twoStores(t)

	url, sealed, err := alice.SealMessage("did:peer:alice", "did:peer:bob", []byte("outer"), []byte("hello bob"))
	require.NoError(t, err)
	require.Equal(t, "tcp://bob", url)

	msg, err := bob.OpenMessage("", sealed)
	require.NoError(t, err)
	require.Equal(t, ReceivedGeneric, msg.Kind)
	require.Equal(t, "did:peer:alice", msg.Sender)
	require.Equal(t, []byte("hello bob"), msg.Message)
	require.Equal(t, []byte("outer"), msg.Nonconfidential)
}

func TestHandshakeAndCancel(t *testing.T) {
	alice, bob, _, _ := twoStores(t)

	_, req, err := alice.MakeRelationshipRequest("did:peer:alice", "did:peer:bob", nil)
	require.NoError(t, err)

	received, err := bob.OpenMessage("did:peer:bob", req)
	require.NoError(t, err)
	require.Equal(t, ReceivedRequestRelationship, received.Kind)

	bobCtx := bob.Context("did:peer:bob", "did:peer:alice")
	require.Equal(t, relationship.KindReverseUnidirectional, bobCtx.Status.Kind)

	_, accept, err := bob.MakeRelationshipAccept("did:peer:bob", "did:peer:alice", received.ThreadID, "")
	require.NoError(t, err)

	acceptMsg, err := alice.OpenMessage("did:peer:alice", accept)
	require.NoError(t, err)
	require.Equal(t, ReceivedAcceptRelationship, acceptMsg.Kind)

	aliceCtx := alice.Context("did:peer:alice", "did:peer:bob")
	require.Equal(t, relationship.KindBidirectional, aliceCtx.Status.Kind)

	_, cancel, err := alice.MakeRelationshipCancel("did:peer:alice", "did:peer:bob")
	require.NoError(t, err)

	cancelMsg, err := bob.OpenMessage("did:peer:bob", cancel)
	require.NoError(t, err)
	require.Equal(t, ReceivedCancelRelationship, cancelMsg.Kind)

	bobCtx = bob.Context("did:peer:bob", "did:peer:alice")
	require.Equal(t, relationship.KindUnrelated, bobCtx.Status.Kind)
}

func TestConcurrentRequestsResolveByThreadID(t *testing.T) {
	alice, bob, _, _ := twoStores(t)

	_, aliceReq, err := alice.MakeRelationshipRequest("did:peer:alice", "did:peer:bob", nil)
	require.NoError(t, err)
	_, bobReq, err := bob.MakeRelationshipRequest("did:peer:bob", "did:peer:alice", nil)
	require.NoError(t, err)

	_, err = bob.OpenMessage("did:peer:bob", aliceReq)
	require.NoError(t, err)
	_, err = alice.OpenMessage("did:peer:alice", bobReq)
	require.NoError(t, err)

	aliceCtx := alice.Context("did:peer:alice", "did:peer:bob")
	bobCtx := bob.Context("did:peer:bob", "did:peer:alice")
	require.Contains(t, []relationship.Kind{relationship.KindUnidirectional, relationship.KindReverseUnidirectional}, aliceCtx.Status.Kind)
	require.Contains(t, []relationship.Kind{relationship.KindUnidirectional, relationship.KindReverseUnidirectional}, bobCtx.Status.Kind)
}

func TestRoutedForwarding(t *testing.T) {
	aliceVID := newTestVID(t, "did:peer:alice", "tcp://alice")
	relayVID := newTestVID(t, "did:peer:relay", "tcp://relay")
	bobVID := newTestVID(t, "did:peer:bob", "tcp://bob")

	alice := New()
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&relayVID.VID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID))
	require.NoError(t, alice.SetRouteForVID("did:peer:bob", []string{"did:peer:relay"}))

	relay := New()
	require.NoError(t, relay.AddPrivateVID(relayVID))
	require.NoError(t, relay.AddVerifiedVID(&aliceVID.VID))
	require.NoError(t, relay.AddVerifiedVID(&bobVID.VID))
	require.NoError(t, relay.SetRelationForVID("did:peer:bob", "did:peer:relay"))

	bob := New()
	require.NoError(t, bob.AddPrivateVID(bobVID))
	require.NoError(t, bob.AddVerifiedVID(&aliceVID.VID))

	_, sealed, err := alice.SealMessage("did:peer:alice", "did:peer:bob", nil, []byte("ping"))
	require.NoError(t, err)

	atRelay, err := relay.OpenMessage("did:peer:relay", sealed)
	require.NoError(t, err)
	require.Equal(t, ReceivedForwardRequest, atRelay.Kind)
	require.Equal(t, "did:peer:bob", atRelay.NextHop)
	require.Empty(t, atRelay.Route)

	_, forwarded, err := relay.ForwardRoutedMessage(atRelay.NextHop, atRelay.Route, atRelay.OpaquePayload)
	require.NoError(t, err)

	atBob, err := bob.OpenMessage("did:peer:bob", forwarded)
	require.NoError(t, err)
	require.Equal(t, ReceivedGeneric, atBob.Kind)
	require.Equal(t, []byte("ping"), atBob.Message)
	require.Equal(t, "did:peer:alice", atBob.Sender)
}

func TestCheckTimeoutsRetriesThenExhausts(t *testing.T) {
	aliceVID := newTestVID(t, "did:peer:alice", "tcp://alice")
	bobVID := newTestVID(t, "did:peer:bob", "tcp://bob")

	policy := relationship.Policy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}
	alice := New(WithRetryPolicy(policy))
	require.NoError(t, alice.AddPrivateVID(aliceVID))
	require.NoError(t, alice.AddVerifiedVID(&bobVID.VID))

	_, _, err := alice.MakeRelationshipRequest("did:peer:alice", "did:peer:bob", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	out := alice.CheckTimeouts()
	require.Len(t, out, 1)

	time.Sleep(5 * time.Millisecond)
	out = alice.CheckTimeouts()
	require.Len(t, out, 1)

	time.Sleep(5 * time.Millisecond)
	out = alice.CheckTimeouts()
	require.Empty(t, out)

	ctx := alice.Context("did:peer:alice", "did:peer:bob")
	require.Equal(t, relationship.KindUnrelated, ctx.Status.Kind)
	require.Nil(t, ctx.Pending)
}
