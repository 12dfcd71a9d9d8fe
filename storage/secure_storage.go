// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"sync"
)

// SecureStorage is the two-operation interface a Store uses to
// persist and reload its serialized state (§4.5): the bytes are
// opaque to the storage layer, since the Store encrypts its own blob
// (or the backend is itself authenticated-encrypted with a
// caller-supplied key, as FileVaultStorage is here).
type SecureStorage interface {
	Persist(blob []byte) error
	Read() ([]byte, error)
}

// storeBlobKeyID is the single vault entry a FileVaultStorage reads
// and writes; a Store has exactly one serialized blob per passphrase.
const storeBlobKeyID = "store-state"

// FileVaultStorage adapts a FileVault's keyed-entry contract to the
// single-blob SecureStorage interface.
type FileVaultStorage struct {
	vault      *FileVault
	passphrase string
}

// NewFileVaultStorage opens a vault-backed SecureStorage rooted at
// dir, encrypting its single blob under passphrase.
func NewFileVaultStorage(dir, passphrase string) (*FileVaultStorage, error) {
	vault, err := NewFileVault(dir)
	if err != nil {
		return nil, err
	}
	return &FileVaultStorage{vault: vault, passphrase: passphrase}, nil
}

func (s *FileVaultStorage) Persist(blob []byte) error {
	return s.vault.StoreEncrypted(storeBlobKeyID, blob, s.passphrase)
}

func (s *FileVaultStorage) Read() ([]byte, error) {
	blob, err := s.vault.LoadDecrypted(storeBlobKeyID, s.passphrase)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return blob, nil
}

// MemoryStorage is an in-process, unencrypted SecureStorage
// implementation for tests and ephemeral stores that never persist
// across process restarts.
type MemoryStorage struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Persist(blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStorage) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), m.blob...), nil
}

var _ SecureStorage = (*FileVaultStorage)(nil)
var _ SecureStorage = (*MemoryStorage)(nil)
