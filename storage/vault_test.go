// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileVault(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "vault_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	vault, err := NewFileVault(tempDir)
	require.NoError(t, err)

	t.Run("StoreAndLoadKey", func(t *testing.T) {
		keyID := "test_key_1"
		originalKey := []byte("this is my secret key data")
		passphrase := "strong_passphrase_123"

		require.NoError(t, vault.StoreEncrypted(keyID, originalKey, passphrase))

		filePath := filepath.Join(tempDir, keyID+".json")
		info, err := os.Stat(filePath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		loadedKey, err := vault.LoadDecrypted(keyID, passphrase)
		require.NoError(t, err)
		assert.Equal(t, originalKey, loadedKey)
	})

	t.Run("InvalidPassphrase", func(t *testing.T) {
		keyID := "test_key_2"
		require.NoError(t, vault.StoreEncrypted(keyID, []byte("another secret key"), "correct_passphrase"))

		_, err := vault.LoadDecrypted(keyID, "wrong_passphrase")
		assert.Equal(t, ErrInvalidPassphrase, err)
	})

	t.Run("KeyNotFound", func(t *testing.T) {
		_, err := vault.LoadDecrypted("non_existent_key", "passphrase")
		assert.Equal(t, ErrKeyNotFound, err)
	})

	t.Run("InvalidKeyID", func(t *testing.T) {
		assert.Equal(t, ErrInvalidKeyID, vault.StoreEncrypted("", []byte("key"), "passphrase"))
		_, err := vault.LoadDecrypted("", "passphrase")
		assert.Equal(t, ErrInvalidKeyID, err)
	})

	t.Run("SetPermissions", func(t *testing.T) {
		keyID := "test_key_3"
		require.NoError(t, vault.StoreEncrypted(keyID, []byte("permission test key"), "passphrase"))
		require.NoError(t, vault.SetPermissions(keyID, 0644))

		info, err := os.Stat(filepath.Join(tempDir, keyID+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

		assert.Equal(t, ErrKeyNotFound, vault.SetPermissions("non_existent", 0600))
	})

	t.Run("DeleteKey", func(t *testing.T) {
		keyID := "test_key_4"
		require.NoError(t, vault.StoreEncrypted(keyID, []byte("key to delete"), "passphrase"))
		assert.True(t, vault.Exists(keyID))

		require.NoError(t, vault.Delete(keyID))
		assert.False(t, vault.Exists(keyID))

		_, err := vault.LoadDecrypted(keyID, "passphrase")
		assert.Equal(t, ErrKeyNotFound, err)

		assert.Equal(t, ErrKeyNotFound, vault.Delete("non_existent"))
	})

	t.Run("ListKeys", func(t *testing.T) {
		for _, key := range vault.ListKeys() {
			vault.Delete(key)
		}
		require.NoError(t, vault.StoreEncrypted("alpha", []byte("a"), "p"))
		require.NoError(t, vault.StoreEncrypted("beta", []byte("b"), "p"))
		assert.Equal(t, []string{"alpha", "beta"}, vault.ListKeys())
	})
}

func TestFileVaultStorageRoundTrip(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "vault_storage_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	s, err := NewFileVaultStorage(tempDir, "passphrase")
	require.NoError(t, err)

	blob, err := s.Read()
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, s.Persist([]byte("serialized store state")))
	blob, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("serialized store state"), blob)
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()

	blob, err := s.Read()
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, s.Persist([]byte("state")))
	blob, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), blob)
}
