// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"crypto/ed25519"
	"time"

	"github.com/openwallet-labs/tsp-go/codec"
	"github.com/openwallet-labs/tsp-go/internal/logger"
	"github.com/openwallet-labs/tsp-go/relationship"
	"github.com/openwallet-labs/tsp-go/vid"
)

// ReceivedKind tags the variant of a ReceivedMessage.
type ReceivedKind int

const (
	ReceivedGeneric ReceivedKind = iota
	ReceivedRequestRelationship
	ReceivedAcceptRelationship
	ReceivedCancelRelationship
	ReceivedForwardRequest
	ReceivedNewIdentifier
	ReceivedReferral
)

func (k ReceivedKind) String() string {
	switch k {
	case ReceivedGeneric:
		return "Generic"
	case ReceivedRequestRelationship:
		return "RequestRelationship"
	case ReceivedAcceptRelationship:
		return "AcceptRelationship"
	case ReceivedCancelRelationship:
		return "CancelRelationship"
	case ReceivedForwardRequest:
		return "ForwardRequest"
	case ReceivedNewIdentifier:
		return "NewIdentifier"
	case ReceivedReferral:
		return "Referral"
	default:
		return "Unknown"
	}
}

// ReceivedMessage is open_message's closed tagged-variant result
// (§4.7). Exactly the fields relevant to Kind are populated; this
// specification enumerates every variant on purpose, mirroring
// relationship.Status.
type ReceivedMessage struct {
	Kind   ReceivedKind
	Sender string

	// ReceivedGeneric
	Receiver        string
	Nonconfidential []byte
	Message         []byte
	CryptoType      codec.EncryptionScheme
	SignatureType   codec.SignatureScheme

	// ReceivedRequestRelationship / ReceivedAcceptRelationship
	ThreadID  relationship.ThreadID
	Route     []string
	NestedVID string

	// ReceivedForwardRequest
	NextHop       string
	OpaquePayload []byte

	// ReceivedNewIdentifier / ReceivedReferral
	ReferredVID *vid.VID
}

// probeSender extracts the sender field from a message without
// verifying anything, by decoding only the envelope.
func probeSender(message []byte) (string, error) {
	env, err := codec.DecodeEnvelope(message)
	if err != nil {
		return "", newErr(KindCodec, "decode envelope", err)
	}
	return env.Sender, nil
}

// OpenMessage is the universal receive path: decode the envelope,
// verify and (for -E) decrypt, update relationship state as a side
// effect of handshake payload types, and return the tagged result.
//
// receiverHint selects which of the store's owned VIDs the message is
// addressed to; pass "" to have OpenMessage use the envelope's own
// Receiver field (the common case — a -S envelope has none, so
// receiverHint is required for sign-only messages).
func (s *Store) OpenMessage(receiverHint string, message []byte) (ReceivedMessage, error) {
	parsed, err := codec.ParseMessage(message)
	if err != nil {
		return ReceivedMessage{}, newErr(KindCodec, "parse message", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	senderVID, ok := s.resolve(parsed.Envelope.Sender)
	if !ok {
		return ReceivedMessage{}, newErr(KindVid, "unknown sender "+parsed.Envelope.Sender, nil)
	}

	if parsed.Envelope.IsEncrypted() {
		receiverID := parsed.Envelope.Receiver
		if receiverID == "" {
			receiverID = receiverHint
		}
		receiverOwned, ok := s.resolveOwned(receiverID)
		if !ok {
			return ReceivedMessage{}, newErr(KindVid, "no private material for receiver "+receiverID, nil)
		}

		envelopeBytes, err := codec.EncodeEnvelope(codec.KindEncrypted, parsed.Envelope.Version, parsed.Envelope.Scheme, parsed.Envelope.Sender, parsed.Envelope.Receiver, parsed.Envelope.Nonconfidential)
		if err != nil {
			return ReceivedMessage{}, newErr(KindCodec, "re-encode envelope for AAD", err)
		}
		pe := parsedEnvelope{
			envelopeBytes: envelopeBytes,
			ciphertext:    parsed.Ciphertext,
			signedPart:    parsed.SignedPart,
			signature:     parsed.Signature,
			scheme:        parsed.Envelope.Scheme,
			sender:        parsed.Envelope.Sender,
			receiver:      parsed.Envelope.Receiver,
		}
		typ, body, err := s.openDirect(pe, receiverOwned, senderVID.VerifyingKey())
		if err != nil {
			s.log.Warn("signature or decryption failed", logger.String("sender", parsed.Envelope.Sender), logger.Error(err))
			return ReceivedMessage{}, err
		}
		s.log.Debug("message verified", logger.String("sender", parsed.Envelope.Sender), logger.String("receiver", receiverID))
		return s.dispatchPayloadLocked(parsed.Envelope.Sender, receiverID, parsed.Envelope, typ, body)
	}

	// -S signed-only: the payload is already plaintext.
	if err := verifyEd25519(senderVID.VerifyingKey(), parsed.SignedPart, parsed.Signature); err != nil {
		return ReceivedMessage{}, err
	}
	return s.dispatchPayloadLocked(parsed.Envelope.Sender, receiverHint, parsed.Envelope, parsed.Payload.Type, parsed.Payload.Body)
}

func verifyEd25519(pub, message, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize || !ed25519.Verify(pub, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Store) dispatchPayloadLocked(sender, receiver string, env codec.Envelope, typ codec.PayloadType, body []byte) (ReceivedMessage, error) {
	switch typ {
	case codec.TypeGeneric:
		return ReceivedMessage{
			Kind:            ReceivedGeneric,
			Sender:          sender,
			Receiver:        receiver,
			Nonconfidential: env.Nonconfidential,
			Message:         body,
			CryptoType:      env.Scheme.Encryption,
			SignatureType:   env.Scheme.Signature,
		}, nil

	case codec.TypeNewRel:
		var c relRequestContent
		if err := decodeJSON(body, &c); err != nil {
			return ReceivedMessage{}, err
		}
		tid := threadIDFromBytes(c.ThreadID)
		if s.checkNonceLocked(tid) {
			s.log.Warn("replayed relationship request discarded", logger.String("sender", sender), logger.String("thread_id", tid.String()))
			return ReceivedMessage{}, newErr(KindState, "replayed thread id", nil)
		}
		var route []string
		if len(c.Route) > 0 {
			_ = decodeJSON(c.Route, &route)
		}
		s.transitionLocked(receiver, sender, func(st relationship.Status) (relationship.Status, error) {
			return st.ReceiveRequest(tid, time.Now())
		})
		return ReceivedMessage{Kind: ReceivedRequestRelationship, Sender: sender, ThreadID: tid, Route: route}, nil

	case codec.TypeNewNestRel:
		var c nestedRelContent
		if err := decodeJSON(body, &c); err != nil {
			return ReceivedMessage{}, err
		}
		tid := threadIDFromBytes(c.ThreadID)
		if s.checkNonceLocked(tid) {
			s.log.Warn("replayed nested relationship request discarded", logger.String("sender", sender), logger.String("thread_id", tid.String()))
			return ReceivedMessage{}, newErr(KindState, "replayed thread id", nil)
		}
		s.transitionLocked(receiver, sender, func(st relationship.Status) (relationship.Status, error) {
			return st.ReceiveRequest(tid, time.Now())
		})
		return ReceivedMessage{Kind: ReceivedRequestRelationship, Sender: sender, ThreadID: tid, NestedVID: c.NestedVID}, nil

	case codec.TypeNewRelReply:
		var c relReplyContent
		if err := decodeJSON(body, &c); err != nil {
			return ReceivedMessage{}, err
		}
		tid := threadIDFromBytes(c.ThreadID)
		s.transitionLocked(receiver, sender, func(st relationship.Status) (relationship.Status, error) {
			return st.ReceiveAccept(tid)
		})
		acceptedKey := ctxKey{local: s.canonicalID(receiver), remote: s.canonicalID(sender)}
		delete(s.pending, acceptedKey)
		s.deletePendingLocked(acceptedKey)
		return ReceivedMessage{Kind: ReceivedAcceptRelationship, Sender: sender}, nil

	case codec.TypeNewNestRelReply:
		var c relReplyContent
		if err := decodeJSON(body, &c); err != nil {
			return ReceivedMessage{}, err
		}
		tid := threadIDFromBytes(c.ThreadID)
		s.transitionLocked(receiver, sender, func(st relationship.Status) (relationship.Status, error) {
			return st.ReceiveAccept(tid)
		})
		acceptedKey := ctxKey{local: s.canonicalID(receiver), remote: s.canonicalID(sender)}
		delete(s.pending, acceptedKey)
		s.deletePendingLocked(acceptedKey)
		return ReceivedMessage{Kind: ReceivedAcceptRelationship, Sender: sender, NestedVID: c.NestedVID}, nil

	case codec.TypeCancel:
		s.transitionLocked(receiver, sender, func(st relationship.Status) (relationship.Status, error) {
			return st.Cancel()
		})
		return ReceivedMessage{Kind: ReceivedCancelRelationship, Sender: sender}, nil

	case codec.TypeContainer:
		if len(body) < 1 {
			return ReceivedMessage{}, newErr(KindCodec, "empty container payload", nil)
		}
		variant := codec.ContainerVariant(body[0])
		if variant != codec.ContainerRouted {
			return ReceivedMessage{}, newErr(KindCodec, "unsupported container variant", nil)
		}
		var c routedContainerContent
		if err := decodeJSON(body[1:], &c); err != nil {
			return ReceivedMessage{}, err
		}
		return ReceivedMessage{
			Kind:          ReceivedForwardRequest,
			Sender:        sender,
			NextHop:       c.NextHop,
			Route:         c.RemainingRoute,
			OpaquePayload: c.Opaque,
		}, nil

	case codec.TypeReferral, codec.TypeReferralReply:
		var c referralContent
		if err := decodeJSON(body, &c); err != nil {
			return ReceivedMessage{}, err
		}
		rv := vid.New(c.VID, c.Transport, c.VerifyingKey, c.EncryptionKey)
		kind := ReceivedReferral
		if c.NewIdentifier {
			kind = ReceivedNewIdentifier
		}
		return ReceivedMessage{Kind: kind, Sender: sender, ReferredVID: rv}, nil

	default:
		return ReceivedMessage{}, newErr(KindCodec, "unknown payload type "+typ.String(), nil)
	}
}

// transitionLocked applies a relationship state machine event for
// (local, remote) and logs the old->new transition. Errors are
// swallowed into a log line per §7 ("thread-id mismatches discard the
// incoming message without state change") rather than failing the
// whole open_message call, since a bad handshake message should not
// prevent the caller from seeing the rest of a valid one.
func (s *Store) transitionLocked(local, remote string, event func(relationship.Status) (relationship.Status, error)) {
	key := ctxKey{local: s.canonicalID(local), remote: s.canonicalID(remote)}
	old := s.statuses[key]
	next, err := event(old)
	if err != nil {
		s.log.Warn("relationship transition rejected", logger.String("local", local), logger.String("remote", remote), logger.Error(err))
		return
	}
	if next != old {
		s.log.Info("relationship transition", logger.String("local", local), logger.String("remote", remote),
			logger.String("from", old.Kind.String()), logger.String("to", next.Kind.String()))
	}
	s.statuses[key] = next
}

func threadIDFromBytes(b []byte) relationship.ThreadID {
	var t relationship.ThreadID
	copy(t[:], b)
	return t
}
