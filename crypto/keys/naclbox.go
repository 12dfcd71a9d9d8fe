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

package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
	"golang.org/x/crypto/nacl/box"
)

// NaClBoxKeyPair holds an X25519 key pair in the 32-byte array shape that
// golang.org/x/crypto/nacl/box expects, used by the NaCl-Auth/NaCl-ESSR
// signcryption schemes.
type NaClBoxKeyPair struct {
	privateKey *[32]byte
	publicKey  *[32]byte
	id         string
}

// GenerateNaClBoxKeyPair generates a new NaCl box (X25519) key pair.
func GenerateNaClBoxKeyPair() (sagecrypto.KeyPair, error) {
	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate nacl box key pair: %w", err)
	}

	hash := sha256.Sum256(publicKey[:])
	id := hex.EncodeToString(hash[:8])

	return &NaClBoxKeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         id,
	}, nil
}

// NewNaClBoxKeyPair wraps an existing 32-byte private/public key pair.
func NewNaClBoxKeyPair(privateKey, publicKey *[32]byte, id string) (sagecrypto.KeyPair, error) {
	if id == "" {
		hash := sha256.Sum256(publicKey[:])
		id = hex.EncodeToString(hash[:8])
	}
	return &NaClBoxKeyPair{privateKey: privateKey, publicKey: publicKey, id: id}, nil
}

// PublicKey returns the public key as a *[32]byte.
func (kp *NaClBoxKeyPair) PublicKey() crypto.PublicKey {
	return kp.publicKey
}

// PublicBytes returns the raw 32-byte public key.
func (kp *NaClBoxKeyPair) PublicBytes() []byte {
	return kp.publicKey[:]
}

// PrivateKey returns the private key as a *[32]byte.
func (kp *NaClBoxKeyPair) PrivateKey() crypto.PrivateKey {
	return kp.privateKey
}

// Type returns the key type.
func (kp *NaClBoxKeyPair) Type() sagecrypto.KeyType {
	return sagecrypto.KeyTypeNaClBox
}

// Sign is unsupported: NaCl box keys are key-agreement only.
func (kp *NaClBoxKeyPair) Sign(message []byte) ([]byte, error) {
	return nil, sagecrypto.ErrSignNotSupported
}

// Verify is unsupported: NaCl box keys are key-agreement only.
func (kp *NaClBoxKeyPair) Verify(message, signature []byte) error {
	return sagecrypto.ErrVerifyNotSupported
}

// ID returns a unique identifier for this key pair.
func (kp *NaClBoxKeyPair) ID() string {
	return kp.id
}

// SealAuth encrypts plaintext for recipientPub using crypto_box (NaCl-Auth
// mode): the sender's own static key authenticates the ciphertext, so the
// recipient can verify sender identity at decrypt time.
func (kp *NaClBoxKeyPair) SealAuth(recipientPub *[32]byte, nonce *[24]byte, plaintext []byte) []byte {
	return box.Seal(nil, plaintext, nonce, recipientPub, kp.privateKey)
}

// OpenAuth decrypts a packet produced by SealAuth, verifying it was sent by
// senderPub.
func (kp *NaClBoxKeyPair) OpenAuth(senderPub *[32]byte, nonce *[24]byte, ciphertext []byte) ([]byte, error) {
	plaintext, ok := box.Open(nil, ciphertext, nonce, senderPub, kp.privateKey)
	if !ok {
		return nil, sagecrypto.ErrInvalidSignature
	}
	return plaintext, nil
}

// SealESSR encrypts plaintext using an ephemeral sender key instead of the
// caller's static key (NaCl-ESSR mode): the ciphertext carries no binding to
// a long-term sender identity, and the signed outer envelope supplies
// sender authentication instead. Returns the ephemeral public key alongside
// the ciphertext.
func SealESSR(recipientPub *[32]byte, nonce *[24]byte, plaintext []byte) (ephemeralPub *[32]byte, ciphertext []byte, err error) {
	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ephemeral nacl box key: %w", err)
	}
	ciphertext = box.Seal(nil, plaintext, nonce, recipientPub, ephPriv)
	return ephPub, ciphertext, nil
}

// OpenESSR decrypts a packet produced by SealESSR using the recipient's
// static private key and the sender's ephemeral public key.
func (kp *NaClBoxKeyPair) OpenESSR(ephemeralPub *[32]byte, nonce *[24]byte, ciphertext []byte) ([]byte, error) {
	plaintext, ok := box.Open(nil, ciphertext, nonce, ephemeralPub, kp.privateKey)
	if !ok {
		return nil, sagecrypto.ErrInvalidSignature
	}
	return plaintext, nil
}
