// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openwallet-labs/tsp-go/internal/logger"
	"github.com/openwallet-labs/tsp-go/relationship"
	"github.com/openwallet-labs/tsp-go/storage"
	"github.com/openwallet-labs/tsp-go/vid"
)

// WithSecureStorage configures the blob-level backing store for
// Persist/Load: the store's relationship bookkeeping (verified VIDs,
// aliases, relation/route/parent preferences and statuses) is
// serialized as one opaque JSON blob and handed to ss, so a restarted
// process can rebuild its in-memory view without re-running every
// handshake from scratch. Owned VIDs are never included in the blob —
// their private key material has no persistence path here; that is
// the keystore's job.
func WithSecureStorage(ss storage.SecureStorage) Option {
	return func(s *Store) { s.secure = ss }
}

// WithDurableStore configures structured durability for in-flight
// handshakes, seen thread IDs and the resolved-VID cache: every
// pending-request create/update/clear and every AddVerifiedVID call is
// mirrored into ds as it happens, rather than batched into the single
// Persist blob, so a crash between two Persist calls still loses at
// most the bookkeeping ds itself hasn't flushed.
func WithDurableStore(ds storage.DurableStore) Option {
	return func(s *Store) { s.durable = ds }
}

// storeState is the JSON shape Persist/Load exchange with
// SecureStorage. Unexported map keys (ctxKey) are flattened into
// parallel slices since encoding/json cannot marshal a struct-keyed
// map directly.
type storeState struct {
	Verified []verifiedVIDState  `json:"verified"`
	Aliases  map[string]string   `json:"aliases"`
	Relation map[string]string   `json:"relation"`
	Routes   map[string][]string `json:"routes"`
	Parents  map[string]string   `json:"parents"`
	Contexts []contextState      `json:"contexts"`
}

type verifiedVIDState struct {
	ID            string `json:"id"`
	Transport     string `json:"transport"`
	VerifyingKey  []byte `json:"verifying_key"`
	EncryptionKey []byte `json:"encryption_key"`
	Subtype       string `json:"subtype"`
}

type contextState struct {
	Local  string              `json:"local"`
	Remote string              `json:"remote"`
	Status relationship.Status `json:"status"`
}

// Persist serializes the store's relationship bookkeeping and hands it
// to the configured SecureStorage. It is a no-op when no SecureStorage
// was configured via WithSecureStorage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	if s.secure == nil {
		s.mu.RUnlock()
		return nil
	}
	state := storeState{
		Aliases:  copyStringMap(s.aliases),
		Relation: copyStringMap(s.relation),
		Parents:  copyStringMap(s.parents),
		Routes:   make(map[string][]string, len(s.routes)),
	}
	for k, v := range s.routes {
		state.Routes[k] = append([]string(nil), v...)
	}
	for _, v := range s.verified {
		state.Verified = append(state.Verified, verifiedVIDState{
			ID:            v.ID(),
			Transport:     v.Transport(),
			VerifyingKey:  v.VerifyingKey(),
			EncryptionKey: v.EncryptionKey(),
			Subtype:       v.Subtype(),
		})
	}
	for key, status := range s.statuses {
		state.Contexts = append(state.Contexts, contextState{Local: key.local, Remote: key.remote, Status: status})
	}
	s.mu.RUnlock()

	blob, err := json.Marshal(state)
	if err != nil {
		return newErr(KindStorage, "marshal store state", err)
	}
	if err := s.secure.Persist(blob); err != nil {
		return newErr(KindStorage, "persist store state", err)
	}
	return nil
}

// Load rehydrates the store's relationship bookkeeping from the
// configured SecureStorage. It is a no-op when no SecureStorage was
// configured, or when SecureStorage has nothing stored yet.
func (s *Store) Load(ctx context.Context) error {
	if s.secure == nil {
		return nil
	}
	blob, err := s.secure.Read()
	if err != nil {
		return newErr(KindStorage, "read store state", err)
	}
	if len(blob) == 0 {
		return nil
	}
	var state storeState
	if err := json.Unmarshal(blob, &state); err != nil {
		return newErr(KindStorage, "unmarshal store state", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range state.Verified {
		rv := vid.New(v.ID, v.Transport, v.VerifyingKey, v.EncryptionKey)
		if v.Subtype != "" {
			rv = rv.WithSubtype(v.Subtype)
		}
		s.verified[v.ID] = rv
	}
	for k, v := range state.Aliases {
		s.aliases[k] = v
	}
	for k, v := range state.Relation {
		s.relation[k] = v
	}
	for k, v := range state.Parents {
		s.parents[k] = v
	}
	for k, v := range state.Routes {
		s.routes[k] = append([]string(nil), v...)
	}
	for _, c := range state.Contexts {
		s.statuses[ctxKey{local: c.Local, remote: c.Remote}] = c.Status
	}
	s.log.Info("store state loaded", logger.Int("verified_vids", len(state.Verified)), logger.Int("contexts", len(state.Contexts)))
	return nil
}

// LoadDurableState rehydrates pending handshake requests and the
// resolved-VID cache from the configured DurableStore. It is a no-op
// when no DurableStore was configured. Call once at startup, after
// AddPrivateVID/AddVerifiedVID have registered the VIDs the restored
// pending entries reference.
func (s *Store) LoadDurableState(ctx context.Context) error {
	if s.durable == nil {
		return nil
	}
	entries, err := s.durable.Pending().All(ctx)
	if err != nil {
		return newErr(KindStorage, "load pending entries", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		key := ctxKey{local: s.canonicalID(e.LocalVID), remote: s.canonicalID(e.RemoteVID)}
		s.pending[key] = &relationship.PendingRequest{
			SealedMessage: e.SealedMessage,
			URL:           e.URL,
			RetryCount:    e.RetryCount,
			LastAttempt:   e.LastAttempt,
			NextDeadline:  e.NextDeadline,
		}
	}
	s.log.Info("durable state loaded", logger.Int("pending", len(entries)))
	return nil
}

// putPendingLocked mirrors a created or updated pending request into
// the configured DurableStore. Caller must hold s.mu. Durable-store
// failures are logged, not propagated: losing the durability mirror
// must not abort a handshake the in-memory state machine already
// accepted.
func (s *Store) putPendingLocked(key ctxKey, p *relationship.PendingRequest) {
	if s.durable == nil {
		return
	}
	entry := &storage.PendingEntry{
		LocalVID:      key.local,
		RemoteVID:     key.remote,
		SealedMessage: p.SealedMessage,
		URL:           p.URL,
		RetryCount:    p.RetryCount,
		LastAttempt:   p.LastAttempt,
		NextDeadline:  p.NextDeadline,
	}
	if err := s.durable.Pending().Put(context.Background(), entry); err != nil {
		s.log.Warn("durable pending put failed", logger.String("local", key.local), logger.String("remote", key.remote), logger.Error(err))
	}
}

// deletePendingLocked removes a pending request from the configured
// DurableStore. Caller must hold s.mu.
func (s *Store) deletePendingLocked(key ctxKey) {
	if s.durable == nil {
		return
	}
	if err := s.durable.Pending().Delete(context.Background(), key.local, key.remote); err != nil {
		s.log.Warn("durable pending delete failed", logger.String("local", key.local), logger.String("remote", key.remote), logger.Error(err))
	}
}

// checkNonceLocked records tid's first-seen time with the configured
// DurableStore and reports whether it was already seen. With no
// DurableStore configured it always reports not-seen, since the
// relationship state machine's own thread-id matching is the only
// replay guard available in that mode.
func (s *Store) checkNonceLocked(tid relationship.ThreadID) bool {
	if s.durable == nil {
		return false
	}
	now := time.Now()
	record := &storage.NonceRecord{ThreadID: tid.String(), SeenAt: now, ExpiresAt: now.Add(nonceTTL)}
	seen, err := s.durable.Nonces().CheckAndStore(context.Background(), record)
	if err != nil {
		s.log.Warn("durable nonce check failed", logger.String("thread_id", tid.String()), logger.Error(err))
		return false
	}
	return seen
}

// cacheVerifiedVIDLocked mirrors a newly-added verified VID into the
// configured DurableStore's resolved-VID cache. Caller must hold s.mu.
func (s *Store) cacheVerifiedVIDLocked(v *vid.VID) {
	if s.durable == nil {
		return
	}
	now := time.Now()
	record := &storage.VIDRecord{
		ID:            v.ID(),
		Transport:     v.Transport(),
		VerifyingKey:  v.VerifyingKey(),
		EncryptionKey: v.EncryptionKey(),
		Subtype:       v.Subtype(),
		CachedAt:      now,
		ExpiresAt:     now.Add(vidCacheTTL),
	}
	if err := s.durable.VIDCache().Put(context.Background(), record); err != nil {
		s.log.Warn("durable vid cache put failed", logger.String("id", v.ID()), logger.Error(err))
	}
}

// nonceTTL and vidCacheTTL bound how long a durable nonce record or
// cached VID is retained before DeleteExpired sweeps it; chosen well
// beyond the retry policy's own max delay so a slow handshake never
// outlives its own replay guard.
const (
	nonceTTL    = 24 * time.Hour
	vidCacheTTL = 24 * time.Hour
)

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
