// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, SaveToFile(&Config{Environment: "staging"}, path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, "encrypted-file", cfg.KeyStore.Type)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	require.NoError(t, SaveToFile(&Config{Environment: "production"}, path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, ".tsp/keys", cfg.KeyStore.Directory)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 9090, cfg.Metrics.Port)
	require.Equal(t, 8080, cfg.Health.Port)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
	require.NotNil(t, cfg.Resolvers.DIDTSPChain.Ethereum)
	require.Equal(t, "file", cfg.Storage.Backend)
}

func TestSetDefaultsDoesNotOverrideExisting(t *testing.T) {
	cfg := &Config{
		Retry: &RetryConfig{MaxRetries: 7},
	}
	setDefaults(cfg)
	require.Equal(t, 7, cfg.Retry.MaxRetries)
}
