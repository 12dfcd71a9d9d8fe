// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemDurableStore is an in-process DurableStore for tests and
// ephemeral nodes that don't need handshake state to survive a
// restart.
type MemDurableStore struct {
	mu      sync.RWMutex
	pending map[string]*PendingEntry
	nonces  map[string]*NonceRecord
	vids    map[string]*VIDRecord
}

// NewMemDurableStore creates an empty in-memory durable store.
func NewMemDurableStore() *MemDurableStore {
	return &MemDurableStore{
		pending: make(map[string]*PendingEntry),
		nonces:  make(map[string]*NonceRecord),
		vids:    make(map[string]*VIDRecord),
	}
}

func pendingKey(localVID, remoteVID string) string { return localVID + "\x00" + remoteVID }

func (m *MemDurableStore) Pending() PendingStore   { return memPendingStore{m} }
func (m *MemDurableStore) Nonces() NonceStore      { return memNonceStore{m} }
func (m *MemDurableStore) VIDCache() VIDCacheStore { return memVIDCacheStore{m} }
func (m *MemDurableStore) Close() error            { return nil }
func (m *MemDurableStore) Ping(_ context.Context) error { return nil }

type memPendingStore struct{ s *MemDurableStore }

func (p memPendingStore) Put(_ context.Context, entry *PendingEntry) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cp := *entry
	p.s.pending[pendingKey(entry.LocalVID, entry.RemoteVID)] = &cp
	return nil
}

func (p memPendingStore) Get(_ context.Context, localVID, remoteVID string) (*PendingEntry, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	entry, ok := p.s.pending[pendingKey(localVID, remoteVID)]
	if !ok {
		return nil, fmt.Errorf("storage: no pending request for %s -> %s", localVID, remoteVID)
	}
	cp := *entry
	return &cp, nil
}

func (p memPendingStore) Delete(_ context.Context, localVID, remoteVID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	delete(p.s.pending, pendingKey(localVID, remoteVID))
	return nil
}

func (p memPendingStore) All(_ context.Context) ([]*PendingEntry, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := make([]*PendingEntry, 0, len(p.s.pending))
	for _, entry := range p.s.pending {
		cp := *entry
		out = append(out, &cp)
	}
	return out, nil
}

type memNonceStore struct{ s *MemDurableStore }

func (n memNonceStore) CheckAndStore(_ context.Context, record *NonceRecord) (bool, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if _, exists := n.s.nonces[record.ThreadID]; exists {
		return true, nil
	}
	cp := *record
	n.s.nonces[record.ThreadID] = &cp
	return false, nil
}

func (n memNonceStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	var count int64
	for id, rec := range n.s.nonces {
		if now.After(rec.ExpiresAt) {
			delete(n.s.nonces, id)
			count++
		}
	}
	return count, nil
}

type memVIDCacheStore struct{ s *MemDurableStore }

func (v memVIDCacheStore) Put(_ context.Context, record *VIDRecord) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *record
	v.s.vids[record.ID] = &cp
	return nil
}

func (v memVIDCacheStore) Get(_ context.Context, id string) (*VIDRecord, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	rec, ok := v.s.vids[id]
	if !ok || time.Now().After(rec.ExpiresAt) {
		return nil, fmt.Errorf("storage: no cached vid for %s", id)
	}
	cp := *rec
	return &cp, nil
}

func (v memVIDCacheStore) Delete(_ context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.vids, id)
	return nil
}

func (v memVIDCacheStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var count int64
	for id, rec := range v.s.vids {
		if now.After(rec.ExpiresAt) {
			delete(v.s.vids, id)
			count++
		}
	}
	return count, nil
}

var _ DurableStore = (*MemDurableStore)(nil)
