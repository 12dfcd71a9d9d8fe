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
	"log"

	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
)

// Wire-format scheme selector bytes, matching the codec package's envelope
// header. Declared here rather than imported to avoid a dependency cycle
// between crypto/keys and codec; codec defines the authoritative constants
// and both sides are kept in sync by the scheme table below.
const (
	schemeEncryptionNone      byte = 0
	schemeEncryptionHPKEAuth  byte = 1
	schemeEncryptionHPKEESSR  byte = 2
	schemeEncryptionNaClAuth  byte = 3
	schemeEncryptionNaClESSR  byte = 4
	schemeEncryptionPQHybrid  byte = 5
	schemeSignatureNone       byte = 0
	schemeSignatureEd25519    byte = 1
	schemeSignatureMLDSA65    byte = 2
)

// init registers every key algorithm TSP supports, along with the codec
// scheme byte it corresponds to, so the codec and store layers can look up
// capabilities by KeyType alone.
func init() {
	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeEd25519,
		Name:                  "Ed25519",
		Description:           "Edwards-curve Digital Signature Algorithm using Curve25519",
		SignatureScheme:       schemeSignatureEd25519,
		SupportsKeyGeneration: true,
		SupportsSignature:     true,
		SupportsEncryption:    false,
	}); err != nil {
		log.Fatalf("failed to register Ed25519 algorithm: %v", err)
	}

	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeSecp256k1,
		Name:                  "Secp256k1",
		Description:           "ECDSA with secp256k1 curve, used by did:tspchain-anchored VIDs",
		SignatureScheme:       schemeSignatureNone, // not a TSP envelope signature scheme; chain-anchoring only
		SupportsKeyGeneration: true,
		SupportsSignature:     true,
		SupportsEncryption:    false,
	}); err != nil {
		log.Fatalf("failed to register Secp256k1 algorithm: %v", err)
	}

	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeX25519,
		Name:                  "X25519",
		Description:           "Elliptic Curve Diffie-Hellman (ECDH) over Curve25519, used by HPKE and NaCl box",
		EncryptionScheme:      schemeEncryptionHPKEAuth,
		SupportsKeyGeneration: true,
		SupportsSignature:     false,
		SupportsEncryption:    true,
	}); err != nil {
		log.Fatalf("failed to register X25519 algorithm: %v", err)
	}

	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeNaClBox,
		Name:                  "NaCl-box",
		Description:           "crypto_box: X25519 key agreement with XSalsa20-Poly1305",
		EncryptionScheme:      schemeEncryptionNaClAuth,
		SupportsKeyGeneration: true,
		SupportsSignature:     false,
		SupportsEncryption:    true,
	}); err != nil {
		log.Fatalf("failed to register NaCl-box algorithm: %v", err)
	}

	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeMLKEM768,
		Name:                  "ML-KEM-768",
		Description:           "Kyber768 post-quantum KEM, combined with X25519 in the hybrid scheme",
		EncryptionScheme:      schemeEncryptionPQHybrid,
		SupportsKeyGeneration: true,
		SupportsSignature:     false,
		SupportsEncryption:    true,
	}); err != nil {
		log.Fatalf("failed to register ML-KEM-768 algorithm: %v", err)
	}

	if err := sagecrypto.RegisterAlgorithm(sagecrypto.AlgorithmInfo{
		KeyType:               sagecrypto.KeyTypeMLDSA65,
		Name:                  "ML-DSA-65",
		Description:           "Dilithium3/ML-DSA-65 post-quantum signature, paired with ML-KEM-768",
		SignatureScheme:       schemeSignatureMLDSA65,
		SupportsKeyGeneration: true,
		SupportsSignature:     true,
		SupportsEncryption:    false,
	}); err != nil {
		log.Fatalf("failed to register ML-DSA-65 algorithm: %v", err)
	}
}
