// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
	// SkipEnvSubstitution disables environment variable substitution
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation
	SkipValidation bool
	// DotEnvPath is loaded into the process environment before
	// SubstituteEnvVarsInConfig and applyEnvironmentOverrides run, so
	// a local .env file can supply the TSP_* variables both of those
	// read. Empty disables it; a missing file is not an error, since
	// most deployments set these in their own environment instead.
	DotEnvPath string
}

// DefaultLoaderOptions returns default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigDir: "config", DotEnvPath: ".env"}
}

// Load loads configuration with automatic environment detection: an
// environment-specific file (config/<env>.yaml), falling back to
// config/default.yaml then config/config.yaml, then an empty
// defaulted Config if none exist.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if options.DotEnvPath != "" {
		// Never overrides a variable already set in the process
		// environment, so CI/production env vars still win.
		_ = godotenv.Load(options.DotEnvPath)
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	cfg, err := loadConfigFile(filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env)))
	if err != nil {
		cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "default.yaml"))
		if err != nil {
			cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "config.yaml"))
			if err != nil {
				cfg = &Config{Environment: env}
				setDefaults(cfg)
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}
	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		for _, e := range ValidateConfiguration(cfg) {
			if e.Level == "error" {
				return nil, fmt.Errorf("config: validation failed: %s - %s", e.Field, e.Message)
			}
		}
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides overrides config with environment
// variables, taking priority over file-loaded values.
func applyEnvironmentOverrides(cfg *Config) {
	if dir := os.Getenv("TSP_KEYSTORE_DIR"); dir != "" && cfg.KeyStore != nil {
		cfg.KeyStore.Directory = dir
	}
	if level := os.Getenv("TSP_LOG_LEVEL"); level != "" && cfg.Logging != nil {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("TSP_LOG_FORMAT"); format != "" && cfg.Logging != nil {
		cfg.Logging.Format = format
	}
	if v := os.Getenv("TSP_METRICS_ENABLED"); v != "" && cfg.Metrics != nil {
		cfg.Metrics.Enabled = v == "true"
	}
	if v := os.Getenv("TSP_HEALTH_ENABLED"); v != "" && cfg.Health != nil {
		cfg.Health.Enabled = v == "true"
	}
	if rpc := os.Getenv("TSP_ETHEREUM_RPC"); rpc != "" && cfg.Resolvers != nil && cfg.Resolvers.DIDTSPChain.Ethereum != nil {
		cfg.Resolvers.DIDTSPChain.Ethereum.RPC = rpc
	}
	if rpc := os.Getenv("TSP_SOLANA_RPC"); rpc != "" && cfg.Resolvers != nil && cfg.Resolvers.DIDTSPChain.Solana != nil {
		cfg.Resolvers.DIDTSPChain.Solana.RPC = rpc
	}
	if backend := os.Getenv("TSP_STORAGE_BACKEND"); backend != "" && cfg.Storage != nil {
		cfg.Storage.Backend = backend
	}
}

// LoadForEnvironment loads configuration for a specific environment.
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{ConfigDir: "config", Environment: environment})
}

// MustLoad loads configuration or panics on error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// ValidationError is one field-level configuration problem.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks cfg for problems a node should refuse
// to start with (errors) or merely warn about (warnings).
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.KeyStore != nil && cfg.KeyStore.Type == "encrypted-file" && cfg.KeyStore.Directory == "" {
		errs = append(errs, ValidationError{Field: "keystore.directory", Message: "required when keystore.type is encrypted-file", Level: "error"})
	}
	if cfg.Retry != nil && cfg.Retry.MaxRetries < 0 {
		errs = append(errs, ValidationError{Field: "retry.max_retries", Message: "cannot be negative", Level: "error"})
	}
	if cfg.Storage != nil && cfg.Storage.Backend == "postgres" && cfg.Storage.Postgres == nil {
		errs = append(errs, ValidationError{Field: "storage.postgres", Message: "required when storage.backend is postgres", Level: "error"})
	}
	if cfg.Logging != nil && cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required when logging.output is file", Level: "warning"})
	}

	return errs
}
