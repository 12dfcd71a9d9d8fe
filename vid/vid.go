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

// Package vid models Verifiable Identifiers: a VID's public material
// (verifying key, encryption key, transport URL) and an owned VID's
// additional private material (signing key, decryption key).
package vid

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
)

var (
	ErrNoPrivateMaterial = errors.New("vid: no private key material")
	ErrKeyMismatch       = errors.New("vid: public key does not match private key")
)

// VID is an immutable, verified identifier: identifier string,
// transport endpoint, verifying key bytes, and encryption key bytes.
// Optionally carries a parent reference (for nested/ephemeral VIDs)
// and a subtype tag (e.g. "did:web", "did:peer").
type VID struct {
	id            string
	transport     string
	verifyingKey  []byte
	encryptionKey []byte
	parent        string
	subtype       string
}

// New constructs a verified VID from its public material.
func New(id, transport string, verifyingKey, encryptionKey []byte) *VID {
	return &VID{id: id, transport: transport, verifyingKey: verifyingKey, encryptionKey: encryptionKey}
}

// WithParent returns a copy of v with its parent VID reference set,
// marking v as a nested/ephemeral child identifier.
func (v *VID) WithParent(parent string) *VID {
	cp := *v
	cp.parent = parent
	return &cp
}

// WithSubtype returns a copy of v tagged with a resolver subtype
// (e.g. "did:web", "did:peer", "did:webvh", "did:tspchain").
func (v *VID) WithSubtype(subtype string) *VID {
	cp := *v
	cp.subtype = subtype
	return &cp
}

func (v *VID) ID() string              { return v.id }
func (v *VID) Transport() string       { return v.transport }
func (v *VID) VerifyingKey() []byte    { return v.verifyingKey }
func (v *VID) EncryptionKey() []byte   { return v.encryptionKey }
func (v *VID) Parent() (string, bool)  { return v.parent, v.parent != "" }
func (v *VID) Subtype() string         { return v.subtype }

// OwnedVID extends VID with the signing and decryption private
// material the local store uses to act as this identifier. Its
// invariant: the public keys embedded in VID must be derivable from
// the held private keys, checked once at construction.
type OwnedVID struct {
	VID
	signingKey    sagecrypto.KeyPair // Ed25519, for the outer envelope signature
	decryptionKey sagecrypto.KeyPair // X25519 or NaCl box, for signcryption
}

// NewOwned builds an OwnedVID from a signing key pair (must be
// Ed25519) and a decryption key pair (X25519 or NaCl box), verifying
// that the embedded public keys match.
func NewOwned(id, transport string, signingKey, decryptionKey sagecrypto.KeyPair) (*OwnedVID, error) {
	if signingKey.Type() != sagecrypto.KeyTypeEd25519 {
		return nil, fmt.Errorf("vid: signing key must be Ed25519, got %s", signingKey.Type())
	}
	verifyingKey, ok := signingKey.PublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("vid: signing key public key has unexpected type %T", signingKey.PublicKey())
	}

	encryptionKey, err := rawPublicKeyBytes(decryptionKey)
	if err != nil {
		return nil, err
	}

	return &OwnedVID{
		VID:           *New(id, transport, []byte(verifyingKey), encryptionKey),
		signingKey:    signingKey,
		decryptionKey: decryptionKey,
	}, nil
}

// rawPublicKeyBytes extracts the wire-format public key bytes for any
// of the supported decryption key types.
func rawPublicKeyBytes(kp sagecrypto.KeyPair) ([]byte, error) {
	type byteser interface{ Bytes() []byte }
	switch pub := kp.PublicKey().(type) {
	case byteser:
		return pub.Bytes(), nil
	case *[32]byte:
		return pub[:], nil
	default:
		return nil, fmt.Errorf("vid: unsupported encryption key public type %T", pub)
	}
}

// SigningKey returns the Ed25519 key pair used to produce the outer
// envelope signature.
func (o *OwnedVID) SigningKey() sagecrypto.KeyPair { return o.signingKey }

// DecryptionKey returns the key pair used to open signcrypted payloads
// addressed to this VID.
func (o *OwnedVID) DecryptionKey() sagecrypto.KeyPair { return o.decryptionKey }

// Zeroize overwrites the held private key material. It is best-effort:
// Go's garbage collector may have already copied key bytes elsewhere,
// but this at least removes the easiest-to-find copy.
func (o *OwnedVID) Zeroize() {
	zeroizeKeyPair(o.signingKey)
	zeroizeKeyPair(o.decryptionKey)
}

func zeroizeKeyPair(kp sagecrypto.KeyPair) {
	if kp == nil {
		return
	}
	switch priv := kp.PrivateKey().(type) {
	case ed25519.PrivateKey:
		for i := range priv {
			priv[i] = 0
		}
	case *[32]byte:
		for i := range priv {
			priv[i] = 0
		}
	}
}
