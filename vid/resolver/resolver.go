// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package resolver turns a VID identifier string into a verified
// vid.VID by dispatching to a subtype-specific Resolver: did:peer
// (self-certifying, no network round trip), did:web (HTTPS
// well-known document), did:webvh (versioned history replay) and
// did:tspchain (read-only on-chain lookup over Ethereum or Solana).
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openwallet-labs/tsp-go/vid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound      = errors.New("resolver: vid not found")
	ErrUnsupported   = errors.New("resolver: no resolver registered for this identifier")
	ErrInvalidVID    = errors.New("resolver: malformed identifier")
)

// Resolver resolves a VID identifier into its verified public
// material. Implementations must not trust unauthenticated transport
// data: whatever they return is taken as ground truth by callers.
type Resolver interface {
	// Accepts reports whether this resolver handles the given
	// identifier (checked by prefix, e.g. "did:web:").
	Accepts(identifier string) bool
	Resolve(ctx context.Context, identifier string) (*vid.VID, error)
}

// cacheEntry holds a resolved VID alongside its expiry, following the
// teacher's DIDCache eviction-by-age pattern.
type cacheEntry struct {
	v         *vid.VID
	expiresAt time.Time
}

// MultiResolver dispatches resolution to a set of subtype-specific
// Resolvers by identifier prefix, and caches successful resolutions
// for a bounded TTL so relationship operations don't refetch on every
// message. Mirrors a multi-chain resolver dispatch plus its
// ethereum.DIDCache TTL-with-eviction behavior, combined into one type
// since VID resolution has no separate per-chain client lifecycle to
// track.
type MultiResolver struct {
	mu        sync.RWMutex
	resolvers []Resolver
	cache     map[string]cacheEntry
	ttl       time.Duration
	maxCache  int
	group     singleflight.Group
}

// NewMultiResolver builds an empty dispatcher. ttl of zero disables
// caching.
func NewMultiResolver(ttl time.Duration) *MultiResolver {
	return &MultiResolver{
		cache:    make(map[string]cacheEntry),
		ttl:      ttl,
		maxCache: 10000,
	}
}

// Register adds a subtype resolver. Resolvers are tried in
// registration order; the first whose Accepts returns true handles the
// identifier.
func (m *MultiResolver) Register(r Resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers = append(m.resolvers, r)
}

func (m *MultiResolver) Accepts(identifier string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.resolvers {
		if r.Accepts(identifier) {
			return true
		}
	}
	return false
}

// Resolve looks up identifier, preferring a live cache entry, and
// falls back to the first accepting subtype resolver on a miss.
// Concurrent misses for the same identifier (common during a routed
// send's fan-out resolve of every hop plus the final receiver) are
// collapsed into a single underlying Resolve call via singleflight.
func (m *MultiResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	if v, ok := m.fromCache(identifier); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(identifier, func() (interface{}, error) {
		if v, ok := m.fromCache(identifier); ok {
			return v, nil
		}

		m.mu.RLock()
		var chosen Resolver
		for _, r := range m.resolvers {
			if r.Accepts(identifier) {
				chosen = r
				break
			}
		}
		m.mu.RUnlock()

		if chosen == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, identifier)
		}

		resolved, err := chosen.Resolve(ctx, identifier)
		if err != nil {
			return nil, err
		}
		m.store(identifier, resolved)
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*vid.VID), nil
}

func (m *MultiResolver) fromCache(identifier string) (*vid.VID, bool) {
	if m.ttl <= 0 {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.cache[identifier]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.v, true
}

func (m *MultiResolver) store(identifier string, v *vid.VID) {
	if m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cache) >= m.maxCache {
		m.evictOldest()
	}
	m.cache[identifier] = cacheEntry{v: v, expiresAt: time.Now().Add(m.ttl)}
}

// evictOldest drops the single oldest entry, matching an
// ethereum.DIDCache.Set eviction strategy. Caller holds m.mu.
func (m *MultiResolver) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range m.cache {
		if first || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.expiresAt, false
		}
	}
	if oldestKey != "" {
		delete(m.cache, oldestKey)
	}
}

// Clear drops every cached entry.
func (m *MultiResolver) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]cacheEntry)
}

// Cleanup removes every expired cache entry; intended to be called
// periodically by a background ticker.
func (m *MultiResolver) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, e := range m.cache {
		if now.After(e.expiresAt) {
			delete(m.cache, k)
		}
	}
}

// subtype returns the did:<subtype> prefix of an identifier, or "" if
// it isn't shaped like one.
func subtype(identifier string) string {
	parts := strings.SplitN(identifier, ":", 3)
	if len(parts) < 2 || parts[0] != "did" {
		return ""
	}
	return "did:" + parts[1]
}
