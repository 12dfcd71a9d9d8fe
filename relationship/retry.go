// SPDX-License-Identifier: LGPL-3.0-or-later

package relationship

import (
	"math"
	"time"
)

// PendingRequest tracks a handshake message awaiting a reply: the
// exact sealed bytes last sent (retransmissions must byte-for-byte
// match, so thread_id and signature stay valid), destination URL, and
// retry bookkeeping.
type PendingRequest struct {
	SealedMessage []byte
	URL           string
	RetryCount    int
	LastAttempt   time.Time
	NextDeadline  time.Time
}

// Policy is the retry backoff configuration (§4.6 / §6). Defaults
// match the spec: 3 retries, 500ms initial delay, 1.5x multiplier,
// 5s cap.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy returns the spec's documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   1.5,
		MaxDelay:     5 * time.Second,
	}
}

// Backoff computes the delay before retry attempt n (1-indexed after
// the initial send): min(initial_delay * multiplier^(n-1), max_delay).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if capped := float64(p.MaxDelay); delay > capped {
		delay = capped
	}
	return time.Duration(delay)
}

// Outcome is what check_timeouts should do with one expired pending
// request: either retransmit (Retransmit=true, carrying the unchanged
// sealed bytes and URL) or give up (Retransmit=false, caller must
// drop the pending request and transition its relationship to
// Unrelated).
type Outcome struct {
	Retransmit bool
	URL        string
	Message    []byte
}

// CheckTimeout evaluates one pending request against now and the
// policy, mutating req's retry bookkeeping in place when it retries.
func (p Policy) CheckTimeout(req *PendingRequest, now time.Time) Outcome {
	if now.Before(req.NextDeadline) {
		return Outcome{}
	}
	if req.RetryCount >= p.MaxRetries {
		return Outcome{Retransmit: false}
	}
	req.RetryCount++
	req.LastAttempt = now
	req.NextDeadline = now.Add(p.Backoff(req.RetryCount))
	return Outcome{Retransmit: true, URL: req.URL, Message: req.SealedMessage}
}
