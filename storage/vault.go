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

// Package storage implements the SecureStorage backend a Store uses to
// persist its serialized state: a file-backed vault encrypting each
// blob with a passphrase-derived key, and an in-memory implementation
// for tests and ephemeral stores.
package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrInvalidKeyID     = errors.New("storage: key id must not be empty")
	ErrInvalidPassphrase = errors.New("storage: incorrect passphrase")
	ErrKeyNotFound       = errors.New("storage: key not found")
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltSize     = 16
)

// encryptedRecord is the on-disk JSON shape for one vault entry.
type encryptedRecord struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// FileVault is a directory of passphrase-encrypted blobs, one JSON
// file per key ID, in the style of a crypto/vault.FileVault
// contract (StoreEncrypted/LoadDecrypted/SetPermissions/Exists/
// Delete/ListKeys, 0600 default file permissions) rebuilt to match
// that contract's test suite.
type FileVault struct {
	dir string
	mu  sync.Mutex
}

// NewFileVault opens (creating if needed) a vault rooted at dir.
func NewFileVault(dir string) (*FileVault, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create vault directory: %w", err)
	}
	return &FileVault{dir: dir}, nil
}

func (v *FileVault) path(keyID string) string {
	return filepath.Join(v.dir, keyID+".json")
}

// StoreEncrypted encrypts key under passphrase and writes it to disk
// with 0600 permissions.
func (v *FileVault) StoreEncrypted(keyID string, key []byte, passphrase string) error {
	if keyID == "" {
		return ErrInvalidKeyID
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("storage: generate salt: %w", err)
	}
	derivedKey, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("storage: generate nonce: %w", err)
	}
	ciphertext := secretbox.Seal(nil, key, &nonce, derivedKey)

	record := encryptedRecord{Salt: salt, Nonce: nonce[:], Ciphertext: ciphertext}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: marshal record: %w", err)
	}
	return os.WriteFile(v.path(keyID), data, 0600)
}

// LoadDecrypted reads and decrypts the blob stored under keyID.
func (v *FileVault) LoadDecrypted(keyID string, passphrase string) ([]byte, error) {
	if keyID == "" {
		return nil, ErrInvalidKeyID
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(v.path(keyID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("storage: read key file: %w", err)
	}

	var record encryptedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("storage: unmarshal record: %w", err)
	}
	if len(record.Nonce) != 24 {
		return nil, fmt.Errorf("storage: corrupt nonce length %d", len(record.Nonce))
	}

	derivedKey, err := deriveKey(passphrase, record.Salt)
	if err != nil {
		return nil, err
	}
	var nonce [24]byte
	copy(nonce[:], record.Nonce)

	plaintext, ok := secretbox.Open(nil, record.Ciphertext, &nonce, derivedKey)
	if !ok {
		return nil, ErrInvalidPassphrase
	}
	return plaintext, nil
}

// SetPermissions changes the file mode of a stored key's backing file.
func (v *FileVault) SetPermissions(keyID string, perm os.FileMode) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := os.Stat(v.path(keyID)); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("storage: stat key file: %w", err)
	}
	return os.Chmod(v.path(keyID), perm)
}

// Exists reports whether a key ID has a stored blob.
func (v *FileVault) Exists(keyID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := os.Stat(v.path(keyID))
	return err == nil
}

// Delete removes the blob stored under keyID.
func (v *FileVault) Delete(keyID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := os.Stat(v.path(keyID)); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("storage: stat key file: %w", err)
	}
	return os.Remove(v.path(keyID))
}

// ListKeys returns every key ID currently stored, sorted for
// deterministic iteration.
func (v *FileVault) ListKeys() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".json" {
			keys = append(keys, name[:len(name)-len(".json")])
		}
	}
	sort.Strings(keys)
	return keys
}

func deriveKey(passphrase string, salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("storage: derive key: %w", err)
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}
