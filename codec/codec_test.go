package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope_Encrypted(t *testing.T) {
	env, err := EncodeEnvelope(KindEncrypted, DefaultVersion, Scheme{EncryptionHPKEAuth, SignatureEd25519}, "did:peer:alice", "did:peer:bob", []byte("hello"))
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, KindEncrypted, decoded.Kind)
	assert.Equal(t, "did:peer:alice", decoded.Sender)
	assert.Equal(t, "did:peer:bob", decoded.Receiver)
	assert.Equal(t, []byte("hello"), decoded.Nonconfidential)
	assert.Equal(t, Scheme{EncryptionHPKEAuth, SignatureEd25519}, decoded.Scheme)
	assert.Equal(t, len(env), decoded.Remainder)
}

func TestEncodeDecodeEnvelope_SignedOnly(t *testing.T) {
	env, err := EncodeEnvelope(KindSigned, DefaultVersion, Scheme{EncryptionNone, SignatureEd25519}, "did:peer:alice", "", nil)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, KindSigned, decoded.Kind)
	assert.Empty(t, decoded.Receiver)
	assert.Nil(t, decoded.Nonconfidential)
}

func TestEncryptedEnvelopeRequiresReceiver(t *testing.T) {
	_, err := EncodeEnvelope(KindEncrypted, DefaultVersion, Scheme{EncryptionHPKEAuth, SignatureEd25519}, "did:peer:alice", "", nil)
	require.ErrorIs(t, err, ErrInvalidSchemeCombo)
}

func TestPayloadRoundTrip(t *testing.T) {
	body, err := EncodePayload(TypeNewRel, []byte("nonce-bytes"))
	require.NoError(t, err)

	p, err := DecodePayload(body, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeNewRel, p.Type)
	assert.Equal(t, []byte("nonce-bytes"), p.Body)
	assert.Equal(t, len(body), p.Next)
}

func TestCiphertextRoundTrip(t *testing.T) {
	field, err := EncodeCiphertext([]byte("opaque-ciphertext"))
	require.NoError(t, err)

	ct, next, err := DecodeCiphertext(field, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("opaque-ciphertext"), ct)
	assert.Equal(t, len(field), next)
}

func TestSignatureRoundTrip(t *testing.T) {
	msg := []byte("envelope-and-payload-bytes")
	withSig := append(append([]byte{}, msg...), EncodeSignature(make([]byte, 64))...)

	rest, sig, err := SplitSignatureAt(withSig, len(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, rest)
	assert.Len(t, sig, 64)
}

func TestParseMessage_SignedOnly(t *testing.T) {
	unsigned, err := BuildSignedEnvelope(DefaultVersion, Scheme{EncryptionNone, SignatureEd25519}, "did:peer:alice", nil, TypeGeneric, []byte("hi"))
	require.NoError(t, err)
	wire := append(unsigned, EncodeSignature(make([]byte, 64))...)

	parsed, err := ParseMessage(wire)
	require.NoError(t, err)
	assert.False(t, parsed.Envelope.IsEncrypted())
	assert.Equal(t, "did:peer:alice", parsed.Envelope.Sender)
	assert.Equal(t, TypeGeneric, parsed.Payload.Type)
	assert.Equal(t, []byte("hi"), parsed.Payload.Body)
	assert.Equal(t, unsigned, parsed.SignedPart)
	assert.Len(t, parsed.Signature, 64)
}

func TestParseMessage_Encrypted(t *testing.T) {
	_, unsigned, err := BuildEncryptedEnvelope(DefaultVersion, Scheme{EncryptionHPKEAuth, SignatureEd25519}, "did:peer:alice", "did:peer:bob", nil, []byte("ciphertext-bytes"))
	require.NoError(t, err)
	wire := append(unsigned, EncodeSignature(make([]byte, 64))...)

	parsed, err := ParseMessage(wire)
	require.NoError(t, err)
	require.True(t, parsed.Envelope.IsEncrypted())
	assert.Equal(t, []byte("ciphertext-bytes"), parsed.Ciphertext)
}

func TestDecodeEnvelopeUnknownSelector(t *testing.T) {
	_, err := DecodeEnvelope([]byte("XX"))
	require.ErrorIs(t, err, ErrMalformedSelector)
}

func TestDecodeEnvelopeTruncated(t *testing.T) {
	_, err := DecodeEnvelope([]byte("-E"))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestInnerPlaintextRoundTrip(t *testing.T) {
	tagged := EncodeInnerPlaintext(TypeNewRelReply, []byte("digest"))
	typ, content, err := DecodeInnerPlaintext(tagged)
	require.NoError(t, err)
	assert.Equal(t, TypeNewRelReply, typ)
	assert.Equal(t, []byte("digest"), content)
}
