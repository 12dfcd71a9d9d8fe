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

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	tspcrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/formats"
)

// fileRecord is the on-disk JSON shape for one stored key: its JWK
// private/public export plus the metadata needed to reconstruct the
// right KeyPair type on Load.
type fileRecord struct {
	KeyID      string          `json:"key_id"`
	KeyType    string          `json:"key_type"`
	PrivateKey json.RawMessage `json:"private_key"`
}

// fileKeyStorage implements KeyStorage over a directory of one JWK
// JSON file per key ID, mirroring the file layout of storage.FileVault
// without the passphrase-encryption step (keystore callers that need
// encryption-at-rest should wrap this with storage.FileVault instead).
type fileKeyStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileKeyStorage opens (creating if needed) a key store rooted at dir.
func NewFileKeyStorage(dir string) (tspcrypto.KeyStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create key directory: %w", err)
	}
	return &fileKeyStorage{dir: dir}, nil
}

func (s *fileKeyStorage) path(id string) string {
	return filepath.Join(s.dir, id+".key")
}

// Store stores a key pair with the given ID.
func (s *fileKeyStorage) Store(id string, keyPair tspcrypto.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exporter := formats.NewJWKExporter()
	privateJWK, err := exporter.Export(keyPair, tspcrypto.KeyFormatJWK)
	if err != nil {
		return fmt.Errorf("storage: export key: %w", err)
	}

	record := fileRecord{
		KeyID:      id,
		KeyType:    string(keyPair.Type()),
		PrivateKey: privateJWK,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal key record: %w", err)
	}

	if err := os.WriteFile(s.path(id), data, 0600); err != nil {
		return fmt.Errorf("storage: write key file: %w", err)
	}
	return nil
}

// Load loads a key pair by ID.
func (s *fileKeyStorage) Load(id string) (tspcrypto.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tspcrypto.ErrKeyNotFound
		}
		return nil, fmt.Errorf("storage: read key file: %w", err)
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("storage: unmarshal key record: %w", err)
	}

	importer := formats.NewJWKImporter()
	keyPair, err := importer.Import(record.PrivateKey, tspcrypto.KeyFormatJWK)
	if err != nil {
		return nil, fmt.Errorf("storage: import key: %w", err)
	}
	return keyPair, nil
}

// Delete removes a key pair by ID.
func (s *fileKeyStorage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return tspcrypto.ErrKeyNotFound
		}
		return fmt.Errorf("storage: delete key file: %w", err)
	}
	return nil
}

// List returns all stored key IDs in sorted order.
func (s *fileKeyStorage) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: read key directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".key") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".key"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists checks if a key exists.
func (s *fileKeyStorage) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(id))
	return err == nil
}
