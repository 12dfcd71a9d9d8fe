// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/formats"
	"github.com/openwallet-labs/tsp-go/vid"
)

// webDocument is the JSON shape served at
// https://<domain>/.well-known/tsp-configuration.json, one entry per
// VID the domain hosts. Proof, when present, is a compact EdDSA JWS
// over {id,transport} self-signed by the document's own verifying
// key, giving a host that can't terminate TLS itself (e.g. serving
// the document from a CDN or object store under someone else's
// certificate) a way to prove the document wasn't altered in transit.
type webDocument struct {
	ID            string          `json:"id"`
	Transport     string          `json:"transport"`
	VerifyingKey  json.RawMessage `json:"verifyingKeyJwk"`
	EncryptionKey json.RawMessage `json:"encryptionKeyJwk"`
	Proof         string          `json:"proof,omitempty"`
}

// webDocumentClaims is the claim set carried inside webDocument.Proof.
type webDocumentClaims struct {
	jwt.RegisteredClaims
	Transport string `json:"transport"`
}

// WebResolver resolves did:web identifiers by fetching a well-known
// JSON configuration document over HTTPS and parsing its embedded
// JWK public keys, following a timeout-bound
// http.Client plus io.ReadAll-then-json.Unmarshal (see
// oidc/auth0.Agent.RequestToken).
type WebResolver struct {
	http *http.Client
}

func NewWebResolver(timeout time.Duration) *WebResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebResolver{http: &http.Client{Timeout: timeout}}
}

func (WebResolver) Accepts(identifier string) bool {
	return strings.HasPrefix(identifier, "did:web:")
}

// webDomain turns "did:web:example.com:agents:alice" into
// ("example.com", "/agents/alice") per the did:web path-mapping
// convention.
func webDomain(identifier string) (host, path string) {
	rest := strings.TrimPrefix(identifier, "did:web:")
	parts := strings.Split(rest, ":")
	host = parts[0]
	if len(parts) > 1 {
		path = "/" + strings.Join(parts[1:], "/")
	}
	return host, path
}

func (r *WebResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	host, path := webDomain(identifier)
	if host == "" {
		return nil, fmt.Errorf("%w: did:web identifier missing host", ErrInvalidVID)
	}

	url := fmt.Sprintf("https://%s%s/.well-known/tsp-configuration.json", host, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("did:web: build request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("did:web: fetch configuration: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("did:web: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: did:web configuration returned status %d", ErrNotFound, resp.StatusCode)
	}

	var doc webDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("did:web: unmarshal configuration: %w", err)
	}
	if doc.ID != identifier {
		return nil, fmt.Errorf("%w: configuration id %q does not match requested %q", ErrInvalidVID, doc.ID, identifier)
	}

	importer := formats.NewJWKImporter()
	verifyingPub, err := importer.ImportPublic(doc.VerifyingKey, sagecrypto.KeyFormatJWK)
	if err != nil {
		return nil, fmt.Errorf("did:web: import verifying key: %w", err)
	}
	encryptionPub, err := importer.ImportPublic(doc.EncryptionKey, sagecrypto.KeyFormatJWK)
	if err != nil {
		return nil, fmt.Errorf("did:web: import encryption key: %w", err)
	}

	verifyingBytes, err := publicKeyBytes(verifyingPub)
	if err != nil {
		return nil, fmt.Errorf("did:web: verifying key: %w", err)
	}
	encryptionBytes, err := publicKeyBytes(encryptionPub)
	if err != nil {
		return nil, fmt.Errorf("did:web: encryption key: %w", err)
	}

	if doc.Proof != "" {
		if err := verifyWebDocumentProof(doc, verifyingBytes); err != nil {
			return nil, fmt.Errorf("did:web: %w", err)
		}
	}

	return vid.New(identifier, doc.Transport, verifyingBytes, encryptionBytes).WithSubtype("did:web"), nil
}

// verifyWebDocumentProof checks doc.Proof is a valid EdDSA JWS, signed
// by verifyingKey, whose claims match the rest of the document.
func verifyWebDocumentProof(doc webDocument, verifyingKey ed25519.PublicKey) error {
	var claims webDocumentClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"EdDSA"}))
	_, err := parser.ParseWithClaims(doc.Proof, &claims, func(*jwt.Token) (interface{}, error) {
		return verifyingKey, nil
	})
	if err != nil {
		return fmt.Errorf("%w: invalid proof: %v", ErrInvalidVID, err)
	}
	if claims.Subject != doc.ID || claims.Transport != doc.Transport {
		return fmt.Errorf("%w: proof claims do not match document", ErrInvalidVID)
	}
	return nil
}

// publicKeyBytes extracts raw wire bytes from the crypto.PublicKey
// shapes formats.JWKImporter can return.
func publicKeyBytes(pub any) ([]byte, error) {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		return []byte(k), nil
	case *ecdh.PublicKey:
		return k.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}
