package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/openwallet-labs/tsp-go/vid/resolver"
	"github.com/spf13/cobra"
)

var generateTransport string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Mint a new self-certifying did:peer identifier",
	Long: `Generate a fresh Ed25519 signing key and X25519 decryption key and
encode them into a did:peer identifier string. did:peer VIDs need no
registry: the identifier itself carries the public material, which
makes them the right choice for ephemeral or nested relationships.`,
	Example: `  tsp-vid generate --transport tcp://127.0.0.1:9000`,
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateTransport, "transport", "t", "", "Transport URL advertised by this VID")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	signing, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}
	decryption, err := keys.GenerateX25519KeyPair()
	if err != nil {
		return fmt.Errorf("generate decryption key: %w", err)
	}

	verifyingKey, ok := signing.PublicKey().(ed25519.PublicKey)
	if !ok {
		return fmt.Errorf("unexpected signing public key type %T", signing.PublicKey())
	}
	encryptionKey, ok := decryption.PublicKey().(interface{ Bytes() []byte })
	if !ok {
		return fmt.Errorf("unexpected decryption public key type %T", decryption.PublicKey())
	}

	identifier := resolver.EncodePeerVID([]byte(verifyingKey), encryptionKey.Bytes(), generateTransport)
	fmt.Println(identifier)
	return nil
}
