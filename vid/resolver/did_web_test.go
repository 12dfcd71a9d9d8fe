// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/formats"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/stretchr/testify/require"
)

func newTestWebDocument(t *testing.T, id, transport string, withProof bool) ([]byte, ed25519.PrivateKey) {
	t.Helper()
	signing, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	decryption, err := keys.GenerateX25519KeyPair()
	require.NoError(t, err)

	exporter := formats.NewJWKExporter()
	vkJSON, err := exporter.ExportPublic(signing, sagecrypto.KeyFormatJWK)
	require.NoError(t, err)
	ekJSON, err := exporter.ExportPublic(decryption, sagecrypto.KeyFormatJWK)
	require.NoError(t, err)

	doc := webDocument{
		ID:            id,
		Transport:     transport,
		VerifyingKey:  vkJSON,
		EncryptionKey: ekJSON,
	}

	if withProof {
		claims := webDocumentClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: id},
			Transport:        transport,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
		signed, err := token.SignedString(signing.PrivateKey())
		require.NoError(t, err)
		doc.Proof = signed
	}

	body, err := json.Marshal(doc)
	require.NoError(t, err)
	return body, signing.PrivateKey().(ed25519.PrivateKey)
}

func TestWebResolverResolvesValidProof(t *testing.T) {
	id := "did:web:example.com"
	body, _ := newTestWebDocument(t, id, "tcp://example.com:9000", true)

	var doc webDocument
	require.NoError(t, json.Unmarshal(body, &doc))

	importer := formats.NewJWKImporter()
	vk, err := importer.ImportPublic(doc.VerifyingKey, sagecrypto.KeyFormatJWK)
	require.NoError(t, err)
	require.NoError(t, verifyWebDocumentProof(doc, vk.(ed25519.PublicKey)))
}

func TestWebResolverRejectsTamperedProof(t *testing.T) {
	id := "did:web:example.com"
	body, _ := newTestWebDocument(t, id, "tcp://example.com:9000", true)

	var doc webDocument
	require.NoError(t, json.Unmarshal(body, &doc))
	doc.Transport = "tcp://evil.example.com:9000"

	importer := formats.NewJWKImporter()
	vk, err := importer.ImportPublic(doc.VerifyingKey, sagecrypto.KeyFormatJWK)
	require.NoError(t, err)
	err = verifyWebDocumentProof(doc, vk.(ed25519.PublicKey))
	require.ErrorIs(t, err, ErrInvalidVID)
}

func TestWebResolverRejectsForgedSigner(t *testing.T) {
	id := "did:web:example.com"

	other, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	claims := webDocumentClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
		Transport:        "tcp://example.com:9000",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	forged, err := token.SignedString(other.PrivateKey())
	require.NoError(t, err)

	legit, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	legitPub := legit.PublicKey().(ed25519.PublicKey)

	doc := webDocument{ID: id, Transport: "tcp://example.com:9000", Proof: forged}
	err = verifyWebDocumentProof(doc, legitPub)
	require.Error(t, err)
}

func TestWebResolverAccepts(t *testing.T) {
	r := NewWebResolver(0)
	require.True(t, r.Accepts("did:web:example.com"))
	require.False(t, r.Accepts("did:peer:abc"))
}
