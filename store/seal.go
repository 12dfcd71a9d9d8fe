// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
	"github.com/openwallet-labs/tsp-go/codec"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/openwallet-labs/tsp-go/internal/logger"
	"github.com/openwallet-labs/tsp-go/relationship"
	"github.com/openwallet-labs/tsp-go/vid"
	"github.com/openwallet-labs/tsp-go/vid/resolver"
)

// SealMessage is the universal send path (§4.7): seal plaintext from
// sender to receiver. When receiver has a configured route, the
// result is a routed container addressed to the first hop instead of
// a direct envelope.
func (s *Store) SealMessage(sender, receiver string, nonconfidential, plaintext []byte) (url string, message []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealMessageLocked(sender, receiver, nonconfidential, plaintext)
}

func (s *Store) sealMessageLocked(sender, receiver string, nonconfidential, plaintext []byte) (string, []byte, error) {
	senderOwned, ok := s.resolveOwned(sender)
	if !ok {
		return "", nil, ErrNoPrivateMaterial
	}
	receiverVID, ok := s.resolve(receiver)
	if !ok {
		return "", nil, ErrUnknownVID
	}

	route := s.routes[s.canonicalID(receiver)]
	if len(route) > 0 {
		return s.sealRoutedLocked(senderOwned, receiverVID, route, nonconfidential, plaintext)
	}

	opID := uuid.NewString()
	sealed, err := s.sealDirect(senderOwned, receiverVID, nonconfidential, codec.TypeGeneric, plaintext)
	if err != nil {
		s.log.Warn("send attempt failed", logger.String("op_id", opID), logger.String("sender", sender), logger.String("receiver", receiver), logger.Error(err))
		return "", nil, err
	}
	s.log.Debug("send attempt", logger.String("op_id", opID), logger.String("sender", sender), logger.String("receiver", receiver))
	return receiverVID.Transport(), sealed, nil
}

// sealRoutedLocked builds the two real envelope layers a routed send
// needs up front: the innermost message sealed directly to the final
// receiver, and one container layer addressed to the first hop
// carrying that innermost message as opaque bytes plus the rest of the
// route. Each subsequent hop peels one layer via ForwardRoutedMessage.
func (s *Store) sealRoutedLocked(senderOwned *vid.OwnedVID, receiverVID *vid.VID, route []string, nonconfidential, plaintext []byte) (string, []byte, error) {
	innerSealed, err := s.sealDirect(senderOwned, receiverVID, nonconfidential, codec.TypeGeneric, plaintext)
	if err != nil {
		return "", nil, err
	}

	firstHop, ok := s.resolve(route[0])
	if !ok {
		return "", nil, newErr(KindVid, "unknown first-hop VID "+route[0], nil)
	}

	nextHop := receiverVID.ID()
	var remaining []string
	if len(route) > 1 {
		nextHop = route[1]
		remaining = append(append([]string(nil), route[2:]...), receiverVID.ID())
	}

	container := routedContainerContent{NextHop: nextHop, RemainingRoute: remaining, Opaque: innerSealed}
	body := append([]byte{byte(codec.ContainerRouted)}, encodeJSON(container)...)

	sealed, err := s.sealDirect(senderOwned, firstHop, nil, codec.TypeContainer, body)
	if err != nil {
		return "", nil, err
	}
	s.log.Debug("send attempt (routed)", logger.String("sender", senderOwned.ID()), logger.String("first_hop", route[0]))
	return firstHop.Transport(), sealed, nil
}

// ForwardRoutedMessage is used by an intermediary that just opened a
// ForwardRequest: it re-seals the still-opaque payload toward next_hop
// without ever having decrypted it. When remaining_route is empty,
// next_hop is the final receiver and opaque_payload is already a
// complete, validly sealed message for them, delivered unchanged.
func (s *Store) ForwardRoutedMessage(nextHop string, remainingRoute []string, opaquePayload []byte) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextHopVID, ok := s.resolve(nextHop)
	if !ok {
		return "", nil, newErr(KindVid, "unknown next hop "+nextHop, nil)
	}

	if len(remainingRoute) == 0 {
		return nextHopVID.Transport(), opaquePayload, nil
	}

	local, ok := s.relation[s.canonicalID(nextHop)]
	if !ok {
		return "", nil, ErrNoRelation
	}
	localOwned, ok := s.resolveOwned(local)
	if !ok {
		return "", nil, ErrNoPrivateMaterial
	}

	container := routedContainerContent{NextHop: remainingRoute[0], RemainingRoute: remainingRoute[1:], Opaque: opaquePayload}
	body := append([]byte{byte(codec.ContainerRouted)}, encodeJSON(container)...)
	sealed, err := s.sealDirect(localOwned, nextHopVID, nil, codec.TypeContainer, body)
	if err != nil {
		return "", nil, err
	}
	return nextHopVID.Transport(), sealed, nil
}

// MakeRelationshipRequest begins a handshake: mint a thread id, seal a
// NEW_REL payload, advance local state to Unidirectional, and record
// the pending request for the retry sweep.
func (s *Store) MakeRelationshipRequest(sender, receiver string, route []string) (string, []byte, error) {
	tid, err := newThreadID()
	if err != nil {
		return "", nil, newErr(KindInternal, "generate thread id", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	senderOwned, ok := s.resolveOwned(sender)
	if !ok {
		return "", nil, ErrNoPrivateMaterial
	}
	receiverVID, ok := s.resolve(receiver)
	if !ok {
		return "", nil, ErrUnknownVID
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, newErr(KindInternal, "generate nonce", err)
	}
	content := relRequestContent{ThreadID: tid[:], Nonce: nonce}
	if len(route) > 0 {
		content.Route = encodeJSON(route)
		s.routes[s.canonicalID(receiver)] = append([]string(nil), route...)
	}

	sealed, err := s.sealDirect(senderOwned, receiverVID, nil, codec.TypeNewRel, encodeJSON(content))
	if err != nil {
		return "", nil, err
	}

	key := ctxKey{local: s.canonicalID(sender), remote: s.canonicalID(receiver)}
	now := time.Now()
	next, err := s.statuses[key].SendRequest(tid, now)
	if err != nil {
		return "", nil, newErr(KindState, "advance relationship state", err)
	}
	s.statuses[key] = next
	req := &relationship.PendingRequest{
		SealedMessage: sealed,
		URL:           receiverVID.Transport(),
		LastAttempt:   now,
		NextDeadline:  now.Add(s.policy.InitialDelay),
	}
	s.pending[key] = req
	s.putPendingLocked(key, req)
	s.log.Info("relationship request sent", logger.String("sender", sender), logger.String("receiver", receiver), logger.String("thread_id", tid.String()))
	return receiverVID.Transport(), sealed, nil
}

// MakeRelationshipAccept replies to a pending ReverseUnidirectional
// handshake: seal a NEW_REL_REPLY (or NEW_NEST_REL_REPLY, when
// nestedVID is set) and advance local state to Bidirectional.
func (s *Store) MakeRelationshipAccept(sender, receiver string, threadID relationship.ThreadID, nestedVID string) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	senderOwned, ok := s.resolveOwned(sender)
	if !ok {
		return "", nil, ErrNoPrivateMaterial
	}
	receiverVID, ok := s.resolve(receiver)
	if !ok {
		return "", nil, ErrUnknownVID
	}

	digest := sha256.Sum256(threadID[:])
	content := relReplyContent{ThreadID: threadID[:], Digest: digest[:], NestedVID: nestedVID}
	typ := codec.TypeNewRelReply
	if nestedVID != "" {
		typ = codec.TypeNewNestRelReply
	}

	sealed, err := s.sealDirect(senderOwned, receiverVID, nil, typ, encodeJSON(content))
	if err != nil {
		return "", nil, err
	}

	key := ctxKey{local: s.canonicalID(sender), remote: s.canonicalID(receiver)}
	next, err := s.statuses[key].SendAccept(threadID)
	if err != nil {
		return "", nil, newErr(KindState, "advance relationship state", err)
	}
	s.statuses[key] = next
	s.log.Info("relationship accepted", logger.String("sender", sender), logger.String("receiver", receiver), logger.String("thread_id", threadID.String()))
	return receiverVID.Transport(), sealed, nil
}

// MakeRelationshipCancel seals a REL_CANCEL and returns both sides to
// Unrelated locally; pending retry state for the pair is dropped.
func (s *Store) MakeRelationshipCancel(sender, receiver string) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	senderOwned, ok := s.resolveOwned(sender)
	if !ok {
		return "", nil, ErrNoPrivateMaterial
	}
	receiverVID, ok := s.resolve(receiver)
	if !ok {
		return "", nil, ErrUnknownVID
	}

	sealed, err := s.sealDirect(senderOwned, receiverVID, nil, codec.TypeCancel, nil)
	if err != nil {
		return "", nil, err
	}

	key := ctxKey{local: s.canonicalID(sender), remote: s.canonicalID(receiver)}
	next, err := s.statuses[key].Cancel()
	if err == nil {
		s.statuses[key] = next
	}
	delete(s.pending, key)
	s.deletePendingLocked(key)
	s.log.Info("relationship cancelled", logger.String("sender", sender), logger.String("receiver", receiver))
	return receiverVID.Transport(), sealed, nil
}

// MakeNestedRelationshipRequest mints a fresh ephemeral did:peer-style
// VID, registers it as an owned child of parentSender, and sends a
// NEW_NEST_REL from parentSender to receiver carrying the child's
// self-certifying identifier (no separate resolver round trip needed
// for receiver to learn its public material).
func (s *Store) MakeNestedRelationshipRequest(parentSender, receiver, childTransport string) (string, []byte, string, error) {
	tid, err := newThreadID()
	if err != nil {
		return "", nil, "", newErr(KindInternal, "generate thread id", err)
	}

	signing, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return "", nil, "", newErr(KindCrypto, "generate child signing key", err)
	}
	decryption, err := keys.GenerateX25519KeyPair()
	if err != nil {
		return "", nil, "", newErr(KindCrypto, "generate child decryption key", err)
	}
	verifyingKey, ok := signing.PublicKey().(ed25519.PublicKey)
	if !ok {
		return "", nil, "", newErr(KindInternal, "unexpected signing public key type", nil)
	}
	encryptionKey, ok := decryption.PublicKey().(interface{ Bytes() []byte })
	if !ok {
		return "", nil, "", newErr(KindInternal, "unexpected decryption public key type", nil)
	}
	childID := resolver.EncodePeerVID([]byte(verifyingKey), encryptionKey.Bytes(), childTransport)

	child, err := vid.NewOwned(childID, childTransport, signing, decryption)
	if err != nil {
		return "", nil, "", newErr(KindInternal, "construct child VID", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.owned[childID] = child
	s.parents[childID] = s.canonicalID(parentSender)

	senderOwned, ok := s.resolveOwned(parentSender)
	if !ok {
		return "", nil, "", ErrNoPrivateMaterial
	}
	receiverVID, ok := s.resolve(receiver)
	if !ok {
		return "", nil, "", ErrUnknownVID
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, "", newErr(KindInternal, "generate nonce", err)
	}
	content := nestedRelContent{ThreadID: tid[:], Nonce: nonce, NestedVID: childID}
	sealed, err := s.sealDirect(senderOwned, receiverVID, nil, codec.TypeNewNestRel, encodeJSON(content))
	if err != nil {
		return "", nil, "", err
	}

	key := ctxKey{local: s.canonicalID(parentSender), remote: s.canonicalID(receiver)}
	now := time.Now()
	next, err := s.statuses[key].SendRequest(tid, now)
	if err != nil {
		return "", nil, "", newErr(KindState, "advance relationship state", err)
	}
	s.statuses[key] = next
	req := &relationship.PendingRequest{
		SealedMessage: sealed,
		URL:           receiverVID.Transport(),
		LastAttempt:   now,
		NextDeadline:  now.Add(s.policy.InitialDelay),
	}
	s.pending[key] = req
	s.putPendingLocked(key, req)
	s.log.Info("nested relationship request sent", logger.String("parent", parentSender), logger.String("child", childID), logger.String("receiver", receiver))
	return receiverVID.Transport(), sealed, childID, nil
}

// CheckTimeouts sweeps every pending request, retransmitting those
// still within their retry budget and dropping (transitioning to
// Unrelated) those that have exhausted it.
func (s *Store) CheckTimeouts() []QueuedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var out []QueuedMessage
	for key, pending := range s.pending {
		outcome := s.policy.CheckTimeout(pending, now)
		if outcome.Retransmit {
			out = append(out, QueuedMessage{URL: outcome.URL, Bytes: outcome.Message})
			s.putPendingLocked(key, pending)
			s.log.Info("retry fired", logger.String("local", key.local), logger.String("remote", key.remote), logger.Int("retry_count", pending.RetryCount))
			continue
		}
		// CheckTimeout only increments RetryCount when it actually
		// retries, so RetryCount reaching MaxRetries without a
		// retransmit this sweep means the budget is exhausted, not
		// just that NextDeadline hasn't arrived yet.
		if pending.RetryCount >= s.policy.MaxRetries {
			next, err := s.statuses[key].TimeoutExhausted()
			if err == nil {
				s.statuses[key] = next
			}
			delete(s.pending, key)
			s.deletePendingLocked(key)
			s.log.Warn("peer unreachable, relationship reset", logger.String("local", key.local), logger.String("remote", key.remote))
		}
	}
	return out
}

func newThreadID() (relationship.ThreadID, error) {
	var t relationship.ThreadID
	_, err := rand.Read(t[:])
	return t, err
}
