// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openwallet-labs/tsp-go/vid"
)

// logEntry is one step in a did:webvh version history: the VID
// material valid as of this version, signed by the key authorized as
// of the previous entry (or self-signed, for the genesis entry).
type logEntry struct {
	VersionID     string `json:"versionId"`
	VersionTime   string `json:"versionTime"`
	PrevHash      string `json:"prevHash"`
	ID            string `json:"id"`
	Transport     string `json:"transport"`
	VerifyingKey  []byte `json:"verifyingKey"`
	EncryptionKey []byte `json:"encryptionKey"`
	SignerKey     []byte `json:"signerKey"`
	Signature     []byte `json:"signature"`
}

// signingBytes returns the canonical bytes a log entry's signature
// covers: every field except the signature itself.
func (e logEntry) signingBytes() ([]byte, error) {
	cp := e
	cp.Signature = nil
	return json.Marshal(cp)
}

func (e logEntry) hash() string {
	b, _ := json.Marshal(e)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// WebVHResolver resolves did:webvh identifiers by fetching the
// identifier's full version log and replaying it: each entry's
// signature must verify against the signing key authorized by the
// previous entry, and each entry's prevHash must match the previous
// entry's hash. This is the only VID subtype whose trust is rooted in
// history rather than either a live network round trip (did:web) or
// the identifier bytes alone (did:peer).
type WebVHResolver struct {
	http *http.Client
}

func NewWebVHResolver(timeout time.Duration) *WebVHResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebVHResolver{http: &http.Client{Timeout: timeout}}
}

func (WebVHResolver) Accepts(identifier string) bool {
	return strings.HasPrefix(identifier, "did:webvh:")
}

// webDomainVH reuses did:web's host:path mapping, since did:webvh
// serves its log from the same well-known layout.
func webDomainVH(identifier string) (host, path string) {
	rest := strings.TrimPrefix(identifier, "did:webvh:")
	parts := strings.Split(rest, ":")
	host = parts[0]
	if len(parts) > 1 {
		path = "/" + strings.Join(parts[1:], "/")
	}
	return host, path
}

func (r *WebVHResolver) Resolve(ctx context.Context, identifier string) (*vid.VID, error) {
	host, path := webDomainVH(identifier)
	if host == "" {
		return nil, fmt.Errorf("%w: did:webvh identifier missing host", ErrInvalidVID)
	}

	url := fmt.Sprintf("https://%s%s/.well-known/tsp-did-log.json", host, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("did:webvh: build request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("did:webvh: fetch log: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("did:webvh: read log: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: did:webvh log returned status %d", ErrNotFound, resp.StatusCode)
	}

	var entries []logEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("did:webvh: unmarshal log: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty version log", ErrInvalidVID)
	}

	if err := verifyLog(entries); err != nil {
		return nil, fmt.Errorf("did:webvh: %w", err)
	}

	latest := entries[len(entries)-1]
	if latest.ID != identifier {
		return nil, fmt.Errorf("%w: log head id %q does not match requested %q", ErrInvalidVID, latest.ID, identifier)
	}

	return vid.New(identifier, latest.Transport, latest.VerifyingKey, latest.EncryptionKey).WithSubtype("did:webvh"), nil
}

// verifyLog replays a version history: the genesis entry is
// self-signed by its own verifying key, and every later entry must
// chain its prevHash to the prior entry's hash and be signed by the
// prior entry's verifying key (the authority that controls version N
// is whoever controlled version N-1).
func verifyLog(entries []logEntry) error {
	genesis := entries[0]
	if genesis.PrevHash != "" {
		return fmt.Errorf("genesis entry must not set prevHash")
	}
	if err := verifyEntrySignature(genesis, genesis.VerifyingKey); err != nil {
		return fmt.Errorf("genesis entry: %w", err)
	}

	prev := genesis
	for _, entry := range entries[1:] {
		if entry.PrevHash != prev.hash() {
			return fmt.Errorf("version %s: prevHash does not chain to version %s", entry.VersionID, prev.VersionID)
		}
		if err := verifyEntrySignature(entry, prev.VerifyingKey); err != nil {
			return fmt.Errorf("version %s: %w", entry.VersionID, err)
		}
		prev = entry
	}
	return nil
}

func verifyEntrySignature(entry logEntry, authorizedKey []byte) error {
	if len(authorizedKey) != ed25519.PublicKeySize {
		return fmt.Errorf("authorized key has unexpected length %d", len(authorizedKey))
	}
	signing, err := entry.signingBytes()
	if err != nil {
		return fmt.Errorf("marshal signing bytes: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(authorizedKey), signing, entry.Signature) {
		return fmt.Errorf("signature does not verify")
	}
	return nil
}
