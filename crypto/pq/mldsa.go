// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package pq implements the post-quantum signcryption scheme: a
// hybrid ML-KEM-768/X25519 KEM for encryption and ML-DSA-65 for
// signatures, following the pattern used by the classical key-pair
// types in crypto/keys.
package pq

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
)

// MLDSAKeyPair implements sagecrypto.KeyPair for ML-DSA-65 signatures.
type MLDSAKeyPair struct {
	privateKey *mldsa65.PrivateKey
	publicKey  *mldsa65.PublicKey
	id         string
}

// GenerateMLDSAKeyPair generates a new ML-DSA-65 signing key pair.
func GenerateMLDSAKeyPair() (sagecrypto.KeyPair, error) {
	pub, priv, err := mldsa65.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ml-dsa-65 key pair: %w", err)
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal ml-dsa-65 public key: %w", err)
	}
	hash := sha256.Sum256(pubBytes)

	return &MLDSAKeyPair{
		privateKey: priv,
		publicKey:  pub,
		id:         hex.EncodeToString(hash[:8]),
	}, nil
}

func (kp *MLDSAKeyPair) PublicKey() crypto.PublicKey   { return kp.publicKey }
func (kp *MLDSAKeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }
func (kp *MLDSAKeyPair) Type() sagecrypto.KeyType      { return sagecrypto.KeyTypeMLDSA65 }
func (kp *MLDSAKeyPair) ID() string                    { return kp.id }

// Sign produces an ML-DSA-65 signature over message.
func (kp *MLDSAKeyPair) Sign(message []byte) ([]byte, error) {
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(kp.privateKey, message, nil, false, sig); err != nil {
		return nil, fmt.Errorf("ml-dsa-65 sign: %w", err)
	}
	return sig, nil
}

// Verify checks an ML-DSA-65 signature over message.
func (kp *MLDSAKeyPair) Verify(message, signature []byte) error {
	if !mldsa65.Verify(kp.publicKey, message, nil, signature) {
		return sagecrypto.ErrInvalidSignature
	}
	return nil
}
