// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/openwallet-labs/tsp-go/vid"
)

// resolveVIDABI is the read-only slice of the on-chain registry
// interface this resolver needs: a single view call returning a VID's
// public material. Trimmed from a full registration ABI
// (register/update/deactivate) down to resolution only, since an
// identity resolver has no business writing to the registry.
const resolveVIDABI = `[{
	"constant": true,
	"inputs": [{"name": "identifier", "type": "string"}],
	"name": "resolveVID",
	"outputs": [
		{"name": "exists", "type": "bool"},
		{"name": "transport", "type": "string"},
		{"name": "verifyingKey", "type": "bytes"},
		{"name": "encryptionKey", "type": "bytes"}
	],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

// EthereumConfig holds the connection details for a read-only
// did:tspchain:eth resolver.
type EthereumConfig struct {
	RPCEndpoint     string
	ContractAddress string
}

// EthereumResolver resolves did:tspchain:eth:<identifier> VIDs via a
// view call against an on-chain registry contract. Grounded on the
// teacher's EthereumClient.Resolve (ethclient.Dial + abi.JSON +
// CallContract + UnpackIntoInterface), trimmed to the single
// resolveVID view function.
type EthereumResolver struct {
	client          *ethclient.Client
	contractABI     abi.ABI
	contractAddress common.Address
}

func NewEthereumResolver(cfg EthereumConfig) (*EthereumResolver, error) {
	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:eth: connect: %w", err)
	}
	contractABI, err := abi.JSON(strings.NewReader(resolveVIDABI))
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:eth: parse abi: %w", err)
	}
	return &EthereumResolver{
		client:          client,
		contractABI:     contractABI,
		contractAddress: common.HexToAddress(cfg.ContractAddress),
	}, nil
}

func (EthereumResolver) Accepts(identifier string) bool {
	return strings.HasPrefix(identifier, "did:tspchain:eth:")
}

func (r *EthereumResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	on := strings.TrimPrefix(identifier, "did:tspchain:eth:")

	callData, err := r.contractABI.Pack("resolveVID", on)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:eth: pack call: %w", err)
	}

	output, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contractAddress,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:eth: call contract: %w", err)
	}

	var result struct {
		Exists        bool
		Transport     string
		VerifyingKey  []byte
		EncryptionKey []byte
	}
	if err := r.contractABI.UnpackIntoInterface(&result, "resolveVID", output); err != nil {
		return nil, fmt.Errorf("did:tspchain:eth: unpack result: %w", err)
	}
	if !result.Exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}

	return vid.New(identifier, result.Transport, result.VerifyingKey, result.EncryptionKey).WithSubtype("did:tspchain:eth"), nil
}

// SolanaConfig holds the connection details for a read-only
// did:tspchain:sol resolver.
type SolanaConfig struct {
	RPCEndpoint string
	ProgramID   string
}

// vidAccount is the on-chain account layout for a resolved VID,
// deserialized with a simplified json.Unmarshal approach
// (see solana.deserializeAccount) rather than a full Borsh decoder.
type vidAccount struct {
	Transport     string `json:"transport"`
	VerifyingKey  []byte `json:"verifying_key"`
	EncryptionKey []byte `json:"encryption_key"`
	Exists        bool   `json:"exists"`
}

// SolanaResolver resolves did:tspchain:sol:<identifier> VIDs by
// deriving the identifier's program-derived account and reading it
// back, following a SolanaClient.Resolve-style PDA lookup
// pattern (FindProgramAddress + GetAccountInfo).
type SolanaResolver struct {
	client    *rpc.Client
	programID solana.PublicKey
}

func NewSolanaResolver(cfg SolanaConfig) (*SolanaResolver, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:sol: invalid program id: %w", err)
	}
	return &SolanaResolver{
		client:    rpc.New(cfg.RPCEndpoint),
		programID: programID,
	}, nil
}

func (SolanaResolver) Accepts(identifier string) bool {
	return strings.HasPrefix(identifier, "did:tspchain:sol:")
}

func (r *SolanaResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	on := strings.TrimPrefix(identifier, "did:tspchain:sol:")

	accountAddr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("vid"), []byte(on)},
		r.programID,
	)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:sol: derive account: %w", err)
	}

	info, err := r.client.GetAccountInfo(ctx, accountAddr)
	if err != nil {
		return nil, fmt.Errorf("did:tspchain:sol: get account info: %w", err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}

	var account vidAccount
	if err := json.Unmarshal(info.Value.Data.GetBinary(), &account); err != nil {
		return nil, fmt.Errorf("did:tspchain:sol: deserialize account: %w", err)
	}
	if !account.Exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}

	return vid.New(identifier, account.Transport, account.VerifyingKey, account.EncryptionKey).WithSubtype("did:tspchain:sol"), nil
}
