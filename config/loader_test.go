// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultsWhenNoFilesExist(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Environment)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoadReadsEnvironmentSpecificFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{
		Environment: "staging",
		KeyStore:    &KeyStoreConfig{Type: "memory"},
	}, filepath.Join(dir, "staging.yaml")))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, "memory", cfg.KeyStore.Type)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TSP_LOG_LEVEL", "debug")

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{
		Storage: &StorageConfig{Backend: "postgres"},
	}, filepath.Join(dir, "broken.yaml")))

	_, err := Load(LoaderOptions{ConfigDir: dir, Environment: "broken"})
	require.Error(t, err)
}

func TestMustLoadPanicsOnInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{
		Storage: &StorageConfig{Backend: "postgres"},
	}, filepath.Join(dir, "broken.yaml")))

	require.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: dir, Environment: "broken"})
	})
}

func TestValidateConfiguration(t *testing.T) {
	cfg := &Config{
		KeyStore: &KeyStoreConfig{Type: "encrypted-file"},
		Retry:    &RetryConfig{MaxRetries: -1},
		Storage:  &StorageConfig{Backend: "postgres"},
		Logging:  &LoggingConfig{Output: "file"},
	}

	errs := ValidateConfiguration(cfg)
	require.Len(t, errs, 4)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	os.Unsetenv("TSP_ENV")
	os.Unsetenv("ENVIRONMENT")
	require.Equal(t, "development", GetEnvironment())
	require.True(t, IsDevelopment())
	require.False(t, IsProduction())
}

func TestGetEnvironmentReadsTSPEnv(t *testing.T) {
	t.Setenv("TSP_ENV", "Production")
	require.Equal(t, "production", GetEnvironment())
	require.True(t, IsProduction())
}
