package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/openwallet-labs/tsp-go/vid/resolver"
	"github.com/spf13/cobra"
)

var (
	resolveEthRPC      string
	resolveEthContract string
	resolveSolRPC      string
	resolveSolProgram  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Resolve a VID identifier to its public material",
	Long: `Resolve accepts a did:web, did:peer, did:webvh or did:tspchain
identifier and prints its transport URL, verifying key and encryption
key. did:tspchain resolution requires the matching --eth-* or --sol-*
flags for the chain it targets.`,
	Example: `  tsp-vid resolve did:peer:6F6f...32.4C6c...44.tcp%3A%2F%2F127.0.0.1%3A9000
  tsp-vid resolve did:web:example.com
  tsp-vid resolve did:tspchain:eth:agent001 --eth-rpc https://... --eth-contract 0x...`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveEthRPC, "eth-rpc", "", "Ethereum RPC endpoint for did:tspchain:eth resolution")
	resolveCmd.Flags().StringVar(&resolveEthContract, "eth-contract", "", "Ethereum registry contract address")
	resolveCmd.Flags().StringVar(&resolveSolRPC, "sol-rpc", "", "Solana RPC endpoint for did:tspchain:sol resolution")
	resolveCmd.Flags().StringVar(&resolveSolProgram, "sol-program", "", "Solana registry program id")
}

func runResolve(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	m := resolver.NewMultiResolver(5 * time.Minute)
	m.Register(resolver.NewPeerResolver())
	m.Register(resolver.NewWebResolver(10 * time.Second))
	m.Register(resolver.NewWebVHResolver(10 * time.Second))

	if resolveEthRPC != "" {
		eth, err := resolver.NewEthereumResolver(resolver.EthereumConfig{
			RPCEndpoint:     resolveEthRPC,
			ContractAddress: resolveEthContract,
		})
		if err != nil {
			return fmt.Errorf("configure ethereum resolver: %w", err)
		}
		m.Register(eth)
	}
	if resolveSolRPC != "" {
		sol, err := resolver.NewSolanaResolver(resolver.SolanaConfig{
			RPCEndpoint: resolveSolRPC,
			ProgramID:   resolveSolProgram,
		})
		if err != nil {
			return fmt.Errorf("configure solana resolver: %w", err)
		}
		m.Register(sol)
	}

	v, err := m.Resolve(context.Background(), identifier)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", identifier, err)
	}

	fmt.Printf("id:             %s\n", v.ID())
	fmt.Printf("transport:      %s\n", v.Transport())
	fmt.Printf("verifying key:  %s\n", hex.EncodeToString(v.VerifyingKey()))
	fmt.Printf("encryption key: %s\n", hex.EncodeToString(v.EncryptionKey()))
	if parent, ok := v.Parent(); ok {
		fmt.Printf("parent:         %s\n", parent)
	}
	return nil
}
