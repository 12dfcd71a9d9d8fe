package pq

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
)

// MLKEMKeyPair implements sagecrypto.KeyPair for ML-KEM-768
// encapsulation keys. Sign/Verify are unsupported: this is a
// key-agreement-only type, mirroring keys.X25519KeyPair and
// keys.NaClBoxKeyPair.
type MLKEMKeyPair struct {
	privateKey *mlkem768.PrivateKey
	publicKey  *mlkem768.PublicKey
	id         string
}

// GenerateMLKEMKeyPair generates a new ML-KEM-768 key pair.
func GenerateMLKEMKeyPair() (sagecrypto.KeyPair, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ml-kem-768 key pair: %w", err)
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal ml-kem-768 public key: %w", err)
	}
	hash := sha256.Sum256(pubBytes)

	return &MLKEMKeyPair{
		privateKey: priv,
		publicKey:  pub,
		id:         hex.EncodeToString(hash[:8]),
	}, nil
}

func (kp *MLKEMKeyPair) PublicKey() crypto.PublicKey   { return kp.publicKey }
func (kp *MLKEMKeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }
func (kp *MLKEMKeyPair) Type() sagecrypto.KeyType      { return sagecrypto.KeyTypeMLKEM768 }
func (kp *MLKEMKeyPair) ID() string                    { return kp.id }

func (kp *MLKEMKeyPair) Sign(message []byte) ([]byte, error) {
	return nil, sagecrypto.ErrSignNotSupported
}

func (kp *MLKEMKeyPair) Verify(message, signature []byte) error {
	return sagecrypto.ErrVerifyNotSupported
}

// PublicBytes returns the encoded ML-KEM-768 public key.
func (kp *MLKEMKeyPair) PublicBytes() ([]byte, error) {
	return kp.publicKey.MarshalBinary()
}

// encapsulate performs the ML-KEM-768 encapsulation step against a
// wire-encoded public key, returning the KEM ciphertext and shared
// secret.
func encapsulate(peerPublicKey []byte) (kemCiphertext, sharedSecret []byte, err error) {
	scheme := mlkem768.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(peerPublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("ml-kem-768 unmarshal public key: %w", err)
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, fmt.Errorf("ml-kem-768 encapsulate: %w", err)
	}
	return ct, ss, nil
}

// decapsulate reverses encapsulate using the holder's private key.
func decapsulate(priv *mlkem768.PrivateKey, kemCiphertext []byte) (sharedSecret []byte, err error) {
	scheme := mlkem768.Scheme()
	ss, err := scheme.Decapsulate(priv, kemCiphertext)
	if err != nil {
		return nil, fmt.Errorf("ml-kem-768 decapsulate: %w", err)
	}
	return ss, nil
}

var _ kem.Scheme = mlkem768.Scheme()
