// SPDX-License-Identifier: LGPL-3.0-or-later

package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/openwallet-labs/tsp-go/vid"
)

// PeerResolver resolves did:peer identifiers entirely offline: the
// identifier itself carries the base58-encoded verifying key,
// encryption key and transport URL, so no registry round trip is ever
// needed. This is the resolver for ephemeral/nested VIDs minted for a
// single relationship.
type PeerResolver struct{}

func NewPeerResolver() *PeerResolver { return &PeerResolver{} }

func (PeerResolver) Accepts(identifier string) bool {
	return strings.HasPrefix(identifier, "did:peer:")
}

// EncodePeerVID builds a did:peer identifier string encoding the
// given public material, in the form:
//
//	did:peer:<base58(verifyingKey)>.<base58(encryptionKey)>.<url-escaped transport>
func EncodePeerVID(verifyingKey, encryptionKey []byte, transport string) string {
	return fmt.Sprintf("did:peer:%s.%s.%s",
		base58.Encode(verifyingKey),
		base58.Encode(encryptionKey),
		url.QueryEscape(transport))
}

func (PeerResolver) Resolve(_ context.Context, identifier string) (*vid.VID, error) {
	rest := strings.TrimPrefix(identifier, "did:peer:")
	parts := strings.SplitN(rest, ".", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: did:peer identifier must have 3 dot-separated fields", ErrInvalidVID)
	}

	verifyingKey, err := base58.Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: verifying key: %v", ErrInvalidVID, err)
	}
	encryptionKey, err := base58.Decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key: %v", ErrInvalidVID, err)
	}
	transport, err := url.QueryUnescape(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: transport: %v", ErrInvalidVID, err)
	}

	return vid.New(identifier, transport, verifyingKey, encryptionKey).WithSubtype("did:peer"), nil
}
