// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSecureStorageDefaultsToMemory(t *testing.T) {
	ss, err := NewSecureStorage(nil)
	require.NoError(t, err)
	require.NoError(t, ss.Persist([]byte("hello")))
	blob, err := ss.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), blob)
}

func TestNewSecureStorageFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	t.Setenv("TSP_TEST_VAULT_PASS", "correct horse battery staple")

	ss, err := NewSecureStorage(&StorageConfig{Backend: "file", FileDir: dir, PassphraseEnv: "TSP_TEST_VAULT_PASS"})
	require.NoError(t, err)
	require.NoError(t, ss.Persist([]byte("state")))

	reopened, err := NewSecureStorage(&StorageConfig{Backend: "file", FileDir: dir, PassphraseEnv: "TSP_TEST_VAULT_PASS"})
	require.NoError(t, err)
	blob, err := reopened.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("state"), blob)
}

func TestNewSecureStorageUnknownBackend(t *testing.T) {
	_, err := NewSecureStorage(&StorageConfig{Backend: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewDurableStoreNilForNonPostgres(t *testing.T) {
	ds, err := NewDurableStore(context.Background(), &StorageConfig{Backend: "file"})
	require.NoError(t, err)
	require.Nil(t, ds)

	ds, err = NewDurableStore(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, ds)
}

func TestNewDurableStorePostgresRequiresConfig(t *testing.T) {
	_, err := NewDurableStore(context.Background(), &StorageConfig{Backend: "postgres"})
	require.Error(t, err)
}
