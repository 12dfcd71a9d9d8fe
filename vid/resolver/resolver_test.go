// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openwallet-labs/tsp-go/vid"
	"github.com/stretchr/testify/require"
)

func TestPeerResolverRoundTrip(t *testing.T) {
	verifyingKey := []byte("0123456789abcdef0123456789abcdef")
	encryptionKey := []byte("fedcba9876543210fedcba9876543210")
	id := EncodePeerVID(verifyingKey, encryptionKey, "tcp://127.0.0.1:9000")
	require.True(t, NewPeerResolver().Accepts(id))

	v, err := NewPeerResolver().Resolve(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, verifyingKey, v.VerifyingKey())
	require.Equal(t, encryptionKey, v.EncryptionKey())
	require.Equal(t, "tcp://127.0.0.1:9000", v.Transport())
	require.Equal(t, "did:peer", v.Subtype())
}

func TestPeerResolverRejectsMalformed(t *testing.T) {
	_, err := NewPeerResolver().Resolve(context.Background(), "did:peer:onlyonepart")
	require.Error(t, err)
}

func TestMultiResolverDispatchAndCache(t *testing.T) {
	m := NewMultiResolver(50 * time.Millisecond)
	peer := NewPeerResolver()
	m.Register(peer)

	verifyingKey := []byte("0123456789abcdef0123456789abcdef")
	encryptionKey := []byte("fedcba9876543210fedcba9876543210")
	id := EncodePeerVID(verifyingKey, encryptionKey, "tcp://x")

	require.True(t, m.Accepts(id))

	v1, err := m.Resolve(context.Background(), id)
	require.NoError(t, err)
	v2, err := m.Resolve(context.Background(), id)
	require.NoError(t, err)
	require.Same(t, v1, v2)

	time.Sleep(60 * time.Millisecond)
	v3, err := m.Resolve(context.Background(), id)
	require.NoError(t, err)
	require.NotSame(t, v1, v3)
}

func TestMultiResolverUnsupported(t *testing.T) {
	m := NewMultiResolver(0)
	_, err := m.Resolve(context.Background(), "did:unknown:abc")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSubtypeHelper(t *testing.T) {
	require.Equal(t, "did:web", subtype("did:web:example.com"))
	require.Equal(t, "", subtype("not-a-did"))
}

// slowResolver blocks every Resolve call until release is closed, and
// counts how many times it was actually invoked.
type slowResolver struct {
	calls   atomic.Int32
	release chan struct{}
}

func (slowResolver) Accepts(identifier string) bool { return true }

func (r *slowResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	r.calls.Add(1)
	<-r.release
	return vid.New(identifier, "tcp://x", []byte("vk"), []byte("ek")), nil
}

func TestMultiResolverDedupsConcurrentMisses(t *testing.T) {
	slow := &slowResolver{release: make(chan struct{})}
	m := NewMultiResolver(time.Minute)
	m.Register(slow)

	const concurrency = 10
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			_, err := m.Resolve(context.Background(), "did:unknown:shared")
			require.NoError(t, err)
		}()
	}

	// Give every goroutine time to pile into the same singleflight
	// call before letting the (single) underlying Resolve return.
	time.Sleep(50 * time.Millisecond)
	close(slow.release)
	wg.Wait()

	require.Equal(t, int32(1), slow.calls.Load())
}
