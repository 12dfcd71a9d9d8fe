// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"os"

	"github.com/openwallet-labs/tsp-go/storage"
	"github.com/openwallet-labs/tsp-go/storage/postgres"
)

// NewSecureStorage builds the store.Store SecureStorage backend
// cfg.Backend selects: "memory" (the default when cfg is nil),
// "file" (a passphrase-encrypted FileVault under cfg.FileDir), or
// "postgres" (SecureStorage is not meaningful for postgres — durable
// state there lives entirely in the structured DurableStore instead,
// so NewSecureStorage returns a MemoryStorage placeholder for the
// blob-level API in that case).
func NewSecureStorage(cfg *StorageConfig) (storage.SecureStorage, error) {
	if cfg == nil || cfg.Backend == "" || cfg.Backend == "memory" {
		return storage.NewMemoryStorage(), nil
	}
	switch cfg.Backend {
	case "file":
		dir := cfg.FileDir
		if dir == "" {
			dir = ".tsp/vault"
		}
		passphrase := os.Getenv(cfg.PassphraseEnv)
		fv, err := storage.NewFileVaultStorage(dir, passphrase)
		if err != nil {
			return nil, err
		}
		return fv, nil
	case "postgres":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("config: unknown storage backend %q", cfg.Backend)
	}
}

// NewDurableStore builds a store.Store DurableStore when cfg selects
// the "postgres" backend; for any other backend it returns (nil, nil),
// since file/memory nodes rely on SecureStorage's single-blob Persist
// instead of structured pending/nonce/VID-cache durability.
func NewDurableStore(ctx context.Context, cfg *StorageConfig) (storage.DurableStore, error) {
	if cfg == nil || cfg.Backend != "postgres" {
		return nil, nil
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("config: storage.postgres required when backend is postgres")
	}
	pgCfg := postgres.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}
	store, err := postgres.NewStore(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
