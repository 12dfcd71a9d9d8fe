// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"encoding/json"
)

// relRequestContent is the NEW_REL (1.0) payload body: a thread id and
// a nonce binding the request to one handshake attempt.
type relRequestContent struct {
	ThreadID []byte `json:"thread_id"`
	Nonce    []byte `json:"nonce"`
	Route    []byte `json:"route,omitempty"` // JSON-encoded []string, set when a routed relationship is requested
}

// relReplyContent is the NEW_REL_REPLY (1.1) / NEW_NEST_REL_REPLY (1.3)
// payload body: the thread id and a digest binding the reply to the
// original request.
type relReplyContent struct {
	ThreadID  []byte `json:"thread_id"`
	Digest    []byte `json:"digest"`
	NestedVID string `json:"nested_vid,omitempty"`
}

// nestedRelContent is the NEW_NEST_REL (1.2) payload body: a
// conventional relationship request plus the freshly minted ephemeral
// child VID's self-certifying identifier.
type nestedRelContent struct {
	ThreadID  []byte `json:"thread_id"`
	Nonce     []byte `json:"nonce"`
	NestedVID string `json:"nested_vid"`
}

// routedContainerContent is the TypeContainer/ContainerRouted (0.1)
// payload body: where an intermediary should forward next, what hops
// remain after that, and the opaque bytes to carry unexamined.
type routedContainerContent struct {
	NextHop        string   `json:"next_hop"`
	RemainingRoute []string `json:"remaining_route,omitempty"`
	Opaque         []byte   `json:"opaque"`
}

// referralContent is the TypeReferral/TypeReferralReply payload body.
// The same wire type code carries two distinct ReceivedMessage
// meanings, selected by NewIdentifier, mirroring the ContainerVariant
// precedent for TypeContainer (§ DESIGN.md Open Question decisions).
type referralContent struct {
	NewIdentifier bool   `json:"new_identifier,omitempty"`
	VID           string `json:"vid"`
	Transport     string `json:"transport"`
	VerifyingKey  []byte `json:"verifying_key"`
	EncryptionKey []byte `json:"encryption_key"`
}

func encodeJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Every type in this file is a plain struct of strings/byte
		// slices; marshaling cannot fail.
		panic(err)
	}
	return b
}

func decodeJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return newErr(KindCodec, "malformed payload content", err)
	}
	return nil
}
