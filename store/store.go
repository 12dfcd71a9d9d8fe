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

// Package store implements the Store orchestrator (§4.7): the single
// place that owns VID material, per-(local,remote) relationship state,
// the offline retry queue and the aliases table, and that exposes the
// seal_message/open_message send and receive paths on top of codec,
// crypto/keys, crypto/pq and the relationship state machine.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/openwallet-labs/tsp-go/codec"
	"github.com/openwallet-labs/tsp-go/crypto/pq"
	"github.com/openwallet-labs/tsp-go/internal/logger"
	"github.com/openwallet-labs/tsp-go/relationship"
	"github.com/openwallet-labs/tsp-go/storage"
	"github.com/openwallet-labs/tsp-go/vid"
)

// ctxKey identifies one (local, remote) relationship pair, the unit
// the relationship state machine and pending-request tracking operate
// on.
type ctxKey struct {
	local  string
	remote string
}

// VIDContext is a read-only snapshot of everything the store knows
// about one remote VID as seen from one local VID (§3): status,
// relation/parent/route configuration and any pending handshake
// request. It is assembled on demand from the store's flat maps
// rather than stored as a single struct per pair, so that
// set_relation_for_vid/set_route_for_vid/set_parent_for_vid (which are
// keyed on the remote alone, not the pair) don't need a context to
// already exist before they can record a preference.
type VIDContext struct {
	Remote      string
	Status      relationship.Status
	RelationVID string
	ParentVID   string
	Route       []string
	Pending     *relationship.PendingRequest
}

// queuedMessage is one FIFO entry of the offline send queue.
type queuedMessage struct {
	url       string
	bytes     []byte
	createdAt time.Time
}

// Store is the TSP orchestrator. Zero value is not usable; construct
// with New. Safe for concurrent use: one RWMutex guards every mutable
// map, matching §5's "shareable reads, exclusive writes, serialized
// per-relationship" discipline — the core never blocks, so a single
// mutex adds no suspension point of its own.
type Store struct {
	mu sync.RWMutex

	owned    map[string]*vid.OwnedVID
	verified map[string]*vid.VID
	aliases  map[string]string

	statuses map[ctxKey]relationship.Status
	pending  map[ctxKey]*relationship.PendingRequest
	relation map[string]string   // remote -> local VID to send from
	routes   map[string][]string // remote -> ordered intermediary VIDs
	parents  map[string]string   // child VID -> parent VID

	queue []queuedMessage

	policy relationship.Policy

	// hybridKeys holds this store's post-quantum hybrid decryption
	// material, keyed by owning VID id, for scheme-5 (PQHybrid) opens.
	// Populated via SetHybridKey; most stores never call it.
	hybridKeys map[string]pq.HybridPrivateKey

	// schemes overrides the default encryption scheme per remote VID;
	// remoteHybrid holds the corresponding PQ hybrid public keys.
	// Populated via SetEncryptionScheme/SetRemoteHybridKey.
	schemes      map[string]codec.EncryptionScheme
	remoteHybrid map[string]pq.HybridPublicKey

	// secure and durable are the optional persistence backends
	// configured via WithSecureStorage/WithDurableStore. Neither is
	// required: a Store with both nil behaves exactly as an
	// in-memory-only store, with Persist/Load/LoadDurableState all
	// becoming no-ops.
	secure  storage.SecureStorage
	durable storage.DurableStore

	log logger.Logger
}

// Option configures a Store at construction.
type Option func(*Store)

// WithRetryPolicy overrides the default retry backoff policy.
func WithRetryPolicy(p relationship.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithLogger overrides the default logger (package-level logger.GetDefaultLogger()).
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		owned:      make(map[string]*vid.OwnedVID),
		verified:   make(map[string]*vid.VID),
		aliases:    make(map[string]string),
		statuses:   make(map[ctxKey]relationship.Status),
		pending:    make(map[ctxKey]*relationship.PendingRequest),
		relation:   make(map[string]string),
		routes:     make(map[string][]string),
		parents:    make(map[string]string),
		hybridKeys: make(map[string]pq.HybridPrivateKey),
		policy:     relationship.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetDefaultLogger()
	}
	return s
}

// AddPrivateVID registers an owned VID this store can act as, with an
// optional set of human-readable aliases.
func (s *Store) AddPrivateVID(owned *vid.OwnedVID, aliases ...string) error {
	if owned == nil {
		return newErr(KindInternal, "nil owned VID", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned[owned.ID()] = owned
	for _, a := range aliases {
		s.aliases[a] = owned.ID()
	}
	s.log.Info("vid added", logger.String("id", owned.ID()), logger.Bool("owned", true))
	return nil
}

// AddVerifiedVID registers a verified (non-owned) remote VID. The
// caller is responsible for having obtained v from a resolver that
// cryptographically validated it — the store does not re-verify.
func (s *Store) AddVerifiedVID(v *vid.VID, aliases ...string) error {
	if v == nil {
		return newErr(KindInternal, "nil verified VID", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[v.ID()] = v
	for _, a := range aliases {
		s.aliases[a] = v.ID()
	}
	s.cacheVerifiedVIDLocked(v)
	s.log.Info("vid added", logger.String("id", v.ID()), logger.Bool("owned", false))
	return nil
}

// ForgetVID removes a VID (owned or verified) and every relationship
// context, pending request, relation/route/parent entry and alias
// referencing it.
func (s *Store) ForgetVID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned[id]; !ok {
		if _, ok := s.verified[id]; !ok {
			return ErrUnknownVID
		}
	}
	delete(s.owned, id)
	delete(s.verified, id)
	delete(s.relation, id)
	delete(s.routes, id)
	delete(s.parents, id)
	for alias, target := range s.aliases {
		if target == id {
			delete(s.aliases, alias)
		}
	}
	for key := range s.statuses {
		if key.local == id || key.remote == id {
			delete(s.statuses, key)
			delete(s.pending, key)
			s.deletePendingLocked(key)
		}
	}
	if s.durable != nil {
		if err := s.durable.VIDCache().Delete(context.Background(), id); err != nil {
			s.log.Warn("durable vid cache delete failed", logger.String("id", id), logger.Error(err))
		}
	}
	s.log.Info("vid removed", logger.String("id", id))
	return nil
}

// SetRelationForVID records which local owned VID to use as the
// sender whenever this store addresses remote.
func (s *Store) SetRelationForVID(remote, local string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[local]; !ok {
		return newErr(KindVid, "local VID has no private material", nil)
	}
	s.relation[s.canonicalID(remote)] = local
	return nil
}

// SetRouteForVID marks remote as reachable only via an ordered list of
// intermediary VIDs; every send to it is wrapped through the hop list.
func (s *Store) SetRouteForVID(remote string, route []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]string(nil), route...)
	s.routes[s.canonicalID(remote)] = cp
	return nil
}

// SetParentForVID marks child as a nested VID bound to parent's outer
// relationship.
func (s *Store) SetParentForVID(child, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[child] = parent
	return nil
}

// resolve returns the public VID view for id, whether owned or
// verified. Caller must hold s.mu.
func (s *Store) resolve(id string) (*vid.VID, bool) {
	if id == "" {
		return nil, false
	}
	if real, ok := s.aliases[id]; ok {
		id = real
	}
	if o, ok := s.owned[id]; ok {
		return &o.VID, true
	}
	if v, ok := s.verified[id]; ok {
		return v, true
	}
	return nil, false
}

// resolveOwned returns the owned VID for id, resolving aliases. Caller
// must hold s.mu.
func (s *Store) resolveOwned(id string) (*vid.OwnedVID, bool) {
	if id == "" {
		return nil, false
	}
	if real, ok := s.aliases[id]; ok {
		id = real
	}
	o, ok := s.owned[id]
	return o, ok
}

// canonicalID resolves an alias to the underlying VID id, or returns
// id unchanged if it is not an alias. Caller must hold s.mu.
func (s *Store) canonicalID(id string) string {
	if real, ok := s.aliases[id]; ok {
		return real
	}
	return id
}

// Context returns a snapshot of everything the store knows about the
// (local, remote) pair.
func (s *Store) Context(local, remote string) VIDContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contextLocked(local, remote)
}

func (s *Store) contextLocked(local, remote string) VIDContext {
	local = s.canonicalID(local)
	remote = s.canonicalID(remote)
	key := ctxKey{local: local, remote: remote}
	return VIDContext{
		Remote:      remote,
		Status:      s.statuses[key],
		RelationVID: s.relation[remote],
		ParentVID:   s.parents[remote],
		Route:       append([]string(nil), s.routes[remote]...),
		Pending:     s.pending[key],
	}
}

// SetHybridKey registers the post-quantum hybrid decryption key an
// owned VID uses for scheme-5 (PQHybrid) opens. Optional: stores that
// never negotiate the PQ hybrid scheme need not call this.
func (s *Store) SetHybridKey(ownedVIDID string, key pq.HybridPrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hybridKeys[ownedVIDID] = key
}

// QueueMessage appends (url, bytes) to the offline FIFO queue; callers
// use this when a transport send reports a transient failure.
func (s *Store) QueueMessage(url string, bytes []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, queuedMessage{url: url, bytes: bytes, createdAt: time.Now()})
}

// DrainQueue removes and returns every queued message, in FIFO order.
func (s *Store) DrainQueue() []QueuedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueuedMessage, len(s.queue))
	for i, m := range s.queue {
		out[i] = QueuedMessage{URL: m.url, Bytes: m.bytes}
	}
	s.queue = nil
	return out
}

// QueuedMessage is one item returned by DrainQueue: a destination URL
// and the exact sealed bytes to retransmit.
type QueuedMessage struct {
	URL   string
	Bytes []byte
}

// ProbeSender extracts the sender field from a TSP message without
// verifying it, for opportunistic lookup of unknown senders before a
// caller decides whether to attempt verification.
func ProbeSender(message []byte) (string, error) {
	return probeSender(message)
}

// aliasesSnapshot returns an unordered copy of the alias->id table;
// used only by tests and debugging tools, never by the hot path.
func (s *Store) aliasesSnapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}
