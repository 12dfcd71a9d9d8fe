// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import "time"

// ResolversConfig holds per-VID-subtype resolver configuration
// (spec.md §4.4/§9): did:web's HTTP client timeout, did:webvh's log
// fetch timeout, and did:tspchain's read-only RPC endpoints.
type ResolversConfig struct {
	DIDWeb      DIDWebConfig      `yaml:"did_web" json:"did_web"`
	DIDWebVH    DIDWebVHConfig    `yaml:"did_webvh" json:"did_webvh"`
	DIDTSPChain DIDTSPChainConfig `yaml:"did_tspchain" json:"did_tspchain"`
}

// DIDWebConfig configures the did:web resolver's well-known document fetch.
type DIDWebConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DIDWebVHConfig configures the did:webvh resolver's log-chain fetch.
type DIDWebVHConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxLogEntries  int           `yaml:"max_log_entries" json:"max_log_entries"`
}

// DIDTSPChainConfig configures the did:tspchain resolver's read-only
// on-chain registry lookups, one entry per supported chain.
type DIDTSPChainConfig struct {
	Ethereum *ChainEndpoint `yaml:"ethereum" json:"ethereum"`
	Solana   *ChainEndpoint `yaml:"solana" json:"solana"`
}

// ChainEndpoint is one chain's read-only RPC endpoint and registry
// address/program ID.
type ChainEndpoint struct {
	RPC            string        `yaml:"rpc" json:"rpc"`
	RegistryAddr   string        `yaml:"registry_address" json:"registry_address"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DefaultResolversConfig returns the package defaults: local devnet
// RPC endpoints and conservative timeouts.
func DefaultResolversConfig() *ResolversConfig {
	return &ResolversConfig{
		DIDWeb:   DIDWebConfig{RequestTimeout: 10 * time.Second},
		DIDWebVH: DIDWebVHConfig{RequestTimeout: 10 * time.Second, MaxLogEntries: 1000},
		DIDTSPChain: DIDTSPChainConfig{
			Ethereum: &ChainEndpoint{RPC: "http://localhost:8545", RequestTimeout: 30 * time.Second},
			Solana:   &ChainEndpoint{RPC: "http://localhost:8899", RequestTimeout: 30 * time.Second},
		},
	}
}
