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

package rotation

import (
	"fmt"
	"sync"
	"time"

	tspcrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
)

// keyRotator implements the KeyRotator interface
type keyRotator struct {
	storage  tspcrypto.KeyStorage
	config   tspcrypto.KeyRotationConfig
	history  map[string][]tspcrypto.KeyRotationEvent
	mu       sync.RWMutex
	rotating map[string]bool
}

// NewKeyRotator creates a key rotator backed by storage. A node rotates
// a VID's signing or decryption key by swapping the key under its
// existing ID; the VID identifier itself is unaffected since did:peer
// encodes the key material at mint time and did:web/did:tspchain
// resolve it independently of local storage.
func NewKeyRotator(storage tspcrypto.KeyStorage) tspcrypto.KeyRotator {
	return &keyRotator{
		storage: storage,
		config: tspcrypto.KeyRotationConfig{
			KeepOldKeys: false,
		},
		history:  make(map[string][]tspcrypto.KeyRotationEvent),
		rotating: make(map[string]bool),
	}
}

// Rotate rotates the key for the given ID.
func (r *keyRotator) Rotate(id string) (tspcrypto.KeyPair, error) {
	r.mu.Lock()
	if r.rotating[id] {
		r.mu.Unlock()
		return nil, fmt.Errorf("key %s is already being rotated", id)
	}
	r.rotating[id] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.rotating, id)
		r.mu.Unlock()
	}()

	oldKeyPair, err := r.storage.Load(id)
	if err != nil {
		return nil, err
	}

	var newKeyPair tspcrypto.KeyPair
	switch oldKeyPair.Type() {
	case tspcrypto.KeyTypeEd25519:
		newKeyPair, err = keys.GenerateEd25519KeyPair()
	case tspcrypto.KeyTypeSecp256k1:
		newKeyPair, err = keys.GenerateSecp256k1KeyPair()
	case tspcrypto.KeyTypeX25519:
		newKeyPair, err = keys.GenerateX25519KeyPair()
	default:
		return nil, fmt.Errorf("unsupported key type for rotation: %s", oldKeyPair.Type())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate new key: %w", err)
	}

	if r.config.KeepOldKeys {
		oldKeyID := fmt.Sprintf("%s.old.%s", id, oldKeyPair.ID())
		if err := r.storage.Store(oldKeyID, oldKeyPair); err != nil {
			return nil, fmt.Errorf("failed to store old key: %w", err)
		}
	}

	if err := r.storage.Store(id, newKeyPair); err != nil {
		return nil, fmt.Errorf("failed to store new key: %w", err)
	}

	r.mu.Lock()
	event := tspcrypto.KeyRotationEvent{
		Timestamp: time.Now(),
		OldKeyID:  oldKeyPair.ID(),
		NewKeyID:  newKeyPair.ID(),
		Reason:    "manual rotation",
	}
	r.history[id] = append(r.history[id], event)
	r.mu.Unlock()

	return newKeyPair, nil
}

// SetRotationConfig sets the rotation configuration.
func (r *keyRotator) SetRotationConfig(config tspcrypto.KeyRotationConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
}

// GetRotationHistory returns the rotation history for a key, newest first.
func (r *keyRotator) GetRotationHistory(id string) ([]tspcrypto.KeyRotationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history, exists := r.history[id]
	if !exists {
		return []tspcrypto.KeyRotationEvent{}, nil
	}

	result := make([]tspcrypto.KeyRotationEvent, len(history))
	for i, event := range history {
		result[len(history)-1-i] = event
	}
	return result, nil
}
