package formats

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	tspcrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
)

// pemExporter implements KeyExporter for PEM format.
type pemExporter struct{}

// NewPEMExporter creates a new PEM exporter.
func NewPEMExporter() tspcrypto.KeyExporter {
	return &pemExporter{}
}

// Export exports the key pair in PEM format.
func (e *pemExporter) Export(keyPair tspcrypto.KeyPair, format tspcrypto.KeyFormat) ([]byte, error) {
	if format != tspcrypto.KeyFormatPEM {
		return nil, tspcrypto.ErrInvalidKeyFormat
	}

	switch keyPair.Type() {
	case tspcrypto.KeyTypeEd25519, tspcrypto.KeyTypeX25519:
		der, err := x509.MarshalPKCS8PrivateKey(keyPair.PrivateKey())
		if err != nil {
			return nil, fmt.Errorf("marshal PKCS8 private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil

	case tspcrypto.KeyTypeSecp256k1:
		privateKey, ok := keyPair.PrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("invalid Secp256k1 private key type")
		}
		der, err := x509.MarshalECPrivateKey(privateKey)
		if err != nil {
			return nil, fmt.Errorf("marshal EC private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil

	default:
		return nil, tspcrypto.ErrInvalidKeyType
	}
}

// ExportPublic exports only the public key in PEM format.
func (e *pemExporter) ExportPublic(keyPair tspcrypto.KeyPair, format tspcrypto.KeyFormat) ([]byte, error) {
	if format != tspcrypto.KeyFormatPEM {
		return nil, tspcrypto.ErrInvalidKeyFormat
	}

	der, err := x509.MarshalPKIXPublicKey(keyPair.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("marshal PKIX public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// pemImporter implements KeyImporter for PEM format.
type pemImporter struct{}

// NewPEMImporter creates a new PEM importer.
func NewPEMImporter() tspcrypto.KeyImporter {
	return &pemImporter{}
}

// Import imports a key pair from PEM format. Only the first PEM block is
// considered, matching the behavior of encoding/pem.Decode.
func (i *pemImporter) Import(data []byte, format tspcrypto.KeyFormat) (tspcrypto.KeyPair, error) {
	if format != tspcrypto.KeyFormatPEM {
		return nil, tspcrypto.ErrInvalidKeyFormat
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS8 private key: %w", err)
		}
		switch priv := key.(type) {
		case ed25519.PrivateKey:
			return keys.NewEd25519KeyPair(priv, "")
		case *ecdh.PrivateKey:
			return keys.NewX25519KeyPair(priv, "")
		default:
			return nil, fmt.Errorf("unsupported PKCS8 key type %T", key)
		}

	case "EC PRIVATE KEY":
		priv, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		secpPriv := secp256k1.PrivKeyFromBytes(priv.D.Bytes())
		return keys.NewSecp256k1KeyPair(secpPriv, "")

	default:
		return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
	}
}

// ImportPublic imports only a public key from PEM format.
func (i *pemImporter) ImportPublic(data []byte, format tspcrypto.KeyFormat) (crypto.PublicKey, error) {
	if format != tspcrypto.KeyFormatPEM {
		return nil, tspcrypto.ErrInvalidKeyFormat
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse PKIX public key: %w", err)
	}
	return pub, nil
}
