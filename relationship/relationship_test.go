// SPDX-License-Identifier: LGPL-3.0-or-later

package relationship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tid(b byte) ThreadID {
	var t ThreadID
	t[31] = b
	return t
}

func TestHandshakeHappyPath(t *testing.T) {
	now := time.Now()
	T := tid(1)

	alice := Unrelated()
	alice, err := alice.SendRequest(T, now)
	require.NoError(t, err)
	require.Equal(t, KindUnidirectional, alice.Kind)

	bob := Unrelated()
	bob, err = bob.ReceiveRequest(T, now)
	require.NoError(t, err)
	require.Equal(t, KindReverseUnidirectional, bob.Kind)

	bob, err = bob.SendAccept(T)
	require.NoError(t, err)
	require.Equal(t, KindBidirectional, bob.Kind)

	alice, err = alice.ReceiveAccept(T)
	require.NoError(t, err)
	require.Equal(t, KindBidirectional, alice.Kind)
	require.Equal(t, T, alice.ThreadID)
}

func TestIdempotentRetransmission(t *testing.T) {
	now := time.Now()
	T := tid(5)
	s, err := Unrelated().SendRequest(T, now)
	require.NoError(t, err)

	s2, err := s.SendRequest(T, now.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, s, s2)
}

func TestConcurrencyResolutionLowerWins(t *testing.T) {
	now := time.Now()
	lower := tid(1)
	higher := tid(2)

	s, err := Unrelated().SendRequest(lower, now)
	require.NoError(t, err)

	s2, err := s.ReceiveRequest(higher, now)
	require.NoError(t, err)
	require.Equal(t, KindUnidirectional, s2.Kind, "lower thread id keeps waiting on its own request")
}

func TestConcurrencyResolutionHigherYields(t *testing.T) {
	now := time.Now()
	lower := tid(1)
	higher := tid(2)

	s, err := Unrelated().SendRequest(higher, now)
	require.NoError(t, err)

	s2, err := s.ReceiveRequest(lower, now)
	require.NoError(t, err)
	require.Equal(t, KindReverseUnidirectional, s2.Kind, "higher thread id yields to the peer's lower one")
	require.Equal(t, lower, s2.ThreadID)
}

func TestConcurrencyResolutionEqualIsConflict(t *testing.T) {
	now := time.Now()
	T := tid(3)
	s, err := Unrelated().SendRequest(T, now)
	require.NoError(t, err)

	_, err = s.ReceiveRequest(T, now)
	require.ErrorIs(t, err, ErrConcurrencyConflict)
}

func TestThreadIDMismatchOnAccept(t *testing.T) {
	now := time.Now()
	s, err := Unrelated().SendRequest(tid(1), now)
	require.NoError(t, err)

	_, err = s.ReceiveAccept(tid(2))
	require.ErrorIs(t, err, ErrThreadIDMismatch)
}

func TestCancelFromBidirectional(t *testing.T) {
	s := BidirectionalStatus(tid(9))
	s, err := s.Cancel()
	require.NoError(t, err)
	require.Equal(t, KindUnrelated, s.Kind)

	_, err = Unrelated().Cancel()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTimeoutExhausted(t *testing.T) {
	s := UnidirectionalStatus(tid(1), time.Now())
	s, err := s.TimeoutExhausted()
	require.NoError(t, err)
	require.Equal(t, KindUnrelated, s.Kind)
}

func TestThreadIDCompare(t *testing.T) {
	require.Equal(t, -1, tid(1).Compare(tid(2)))
	require.Equal(t, 1, tid(2).Compare(tid(1)))
	require.Equal(t, 0, tid(1).Compare(tid(1)))
}

func TestPolicyBackoff(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, 500*time.Millisecond, p.Backoff(1))
	require.Equal(t, 750*time.Millisecond, p.Backoff(2))
	require.Equal(t, p.MaxDelay, p.Backoff(20))
}

func TestCheckTimeoutRetransmitsThenGivesUp(t *testing.T) {
	p := Policy{MaxRetries: 1, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}
	now := time.Now()
	req := &PendingRequest{SealedMessage: []byte("msg"), URL: "tcp://peer", NextDeadline: now}

	out := p.CheckTimeout(req, now.Add(time.Millisecond))
	require.True(t, out.Retransmit)
	require.Equal(t, []byte("msg"), out.Message)
	require.Equal(t, 1, req.RetryCount)

	out = p.CheckTimeout(req, req.NextDeadline.Add(time.Millisecond))
	require.False(t, out.Retransmit)
}
