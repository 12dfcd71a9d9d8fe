package keys

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
)

// Encryption scheme selectors, matching the codec package's wire values.
// Declared locally (rather than imported) to keep crypto/keys free of a
// dependency on codec; the two are kept in lockstep by convention only.
const (
	SchemeEncryptionNone     byte = 0
	SchemeEncryptionHPKEAuth byte = 1
	SchemeEncryptionHPKEESSR byte = 2
	SchemeEncryptionNaClAuth byte = 3
	SchemeEncryptionNaClESSR byte = 4
	SchemeEncryptionPQHybrid byte = 5
)

// SealSigncrypt encrypts plaintext for receiverPub (a raw public
// encryption key) under the given scheme, using senderPriv's static key
// where the scheme calls for sender authentication. aad is the envelope
// bytes the ciphertext must be bound to. The returned blob is
// self-framed: a 2-byte header length, the scheme-specific header
// (HPKE's encapsulated key, a NaCl nonce, or both for ESSR), then the
// AEAD ciphertext.
func SealSigncrypt(scheme byte, senderPriv sagecrypto.KeyPair, receiverPub []byte, aad, plaintext []byte) ([]byte, error) {
	switch scheme {
	case SchemeEncryptionHPKEAuth:
		sp, ok := senderPriv.PrivateKey().(*ecdh.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signcrypt: HPKE-Auth requires an X25519 sender key, got %T", senderPriv.PrivateKey())
		}
		peer, err := ecdh.X25519().NewPublicKey(receiverPub)
		if err != nil {
			return nil, fmt.Errorf("signcrypt: invalid receiver X25519 key: %w", err)
		}
		enc, ct, err := HPKESealAuth(sp, peer, aad, plaintext)
		if err != nil {
			return nil, err
		}
		return frameHeaderAndCiphertext(enc, ct), nil

	case SchemeEncryptionHPKEESSR:
		peer, err := ecdh.X25519().NewPublicKey(receiverPub)
		if err != nil {
			return nil, fmt.Errorf("signcrypt: invalid receiver X25519 key: %w", err)
		}
		enc, ct, err := HPKESealBase(peer, aad, plaintext)
		if err != nil {
			return nil, err
		}
		return frameHeaderAndCiphertext(enc, ct), nil

	case SchemeEncryptionNaClAuth:
		np, ok := senderPriv.(*NaClBoxKeyPair)
		if !ok {
			return nil, fmt.Errorf("signcrypt: NaCl-Auth requires a NaCl box sender key, got %T", senderPriv)
		}
		rpk, err := naclKey(receiverPub)
		if err != nil {
			return nil, err
		}
		var nonce [24]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return nil, fmt.Errorf("signcrypt: generate nonce: %w", err)
		}
		ct := np.SealAuth(rpk, &nonce, plaintext)
		return frameHeaderAndCiphertext(nonce[:], ct), nil

	case SchemeEncryptionNaClESSR:
		rpk, err := naclKey(receiverPub)
		if err != nil {
			return nil, err
		}
		var nonce [24]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return nil, fmt.Errorf("signcrypt: generate nonce: %w", err)
		}
		ephPub, ct, err := SealESSR(rpk, &nonce, plaintext)
		if err != nil {
			return nil, err
		}
		header := append(append([]byte{}, ephPub[:]...), nonce[:]...)
		return frameHeaderAndCiphertext(header, ct), nil

	default:
		return nil, fmt.Errorf("signcrypt: unsupported encryption scheme %d", scheme)
	}
}

// OpenSigncrypt is the inverse of SealSigncrypt. senderPub is required
// for HPKE-Auth and NaCl-Auth (scheme-bound sender authentication);
// ESSR schemes carry the sender's ephemeral key inside blob and ignore
// senderPub.
func OpenSigncrypt(scheme byte, receiverPriv sagecrypto.KeyPair, senderPub []byte, aad, blob []byte) ([]byte, error) {
	header, ct, err := splitHeaderAndCiphertext(blob)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeEncryptionHPKEAuth:
		rp, ok := receiverPriv.PrivateKey().(*ecdh.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signcrypt: HPKE-Auth requires an X25519 receiver key, got %T", receiverPriv.PrivateKey())
		}
		sp, err := ecdh.X25519().NewPublicKey(senderPub)
		if err != nil {
			return nil, fmt.Errorf("signcrypt: invalid sender X25519 key: %w", err)
		}
		return HPKEOpenAuth(rp, sp, header, aad, ct)

	case SchemeEncryptionHPKEESSR:
		rp, ok := receiverPriv.PrivateKey().(*ecdh.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signcrypt: HPKE-Base requires an X25519 receiver key, got %T", receiverPriv.PrivateKey())
		}
		return HPKEOpenBase(rp, header, aad, ct)

	case SchemeEncryptionNaClAuth:
		np, ok := receiverPriv.(*NaClBoxKeyPair)
		if !ok {
			return nil, fmt.Errorf("signcrypt: NaCl-Auth requires a NaCl box receiver key, got %T", receiverPriv)
		}
		if len(header) != 24 {
			return nil, fmt.Errorf("signcrypt: malformed NaCl-Auth header")
		}
		spk, err := naclKey(senderPub)
		if err != nil {
			return nil, err
		}
		var nonce [24]byte
		copy(nonce[:], header)
		return np.OpenAuth(spk, &nonce, ct)

	case SchemeEncryptionNaClESSR:
		np, ok := receiverPriv.(*NaClBoxKeyPair)
		if !ok {
			return nil, fmt.Errorf("signcrypt: NaCl-ESSR requires a NaCl box receiver key, got %T", receiverPriv)
		}
		if len(header) != 56 {
			return nil, fmt.Errorf("signcrypt: malformed NaCl-ESSR header")
		}
		ephPub, err := naclKey(header[:32])
		if err != nil {
			return nil, err
		}
		var nonce [24]byte
		copy(nonce[:], header[32:])
		return np.OpenESSR(ephPub, &nonce, ct)

	default:
		return nil, fmt.Errorf("signcrypt: unsupported encryption scheme %d", scheme)
	}
}

// SignDetached produces a detached signature over message using the
// sender's signing key. This is the sign_only analog for -S envelopes
// and the outer signature over envelope||ciphertext for -E envelopes.
func SignDetached(signer sagecrypto.KeyPair, message []byte) ([]byte, error) {
	return signer.Sign(message)
}

// VerifyDetached is the verify_only analog.
func VerifyDetached(verifier sagecrypto.KeyPair, message, signature []byte) error {
	return verifier.Verify(message, signature)
}

func naclKey(raw []byte) (*[32]byte, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("signcrypt: expected 32-byte key, got %d bytes", len(raw))
	}
	var k [32]byte
	copy(k[:], raw)
	return &k, nil
}

func frameHeaderAndCiphertext(header, ciphertext []byte) []byte {
	out := make([]byte, 0, 2+len(header)+len(ciphertext))
	var hl [2]byte
	binary.BigEndian.PutUint16(hl[:], uint16(len(header)))
	out = append(out, hl[:]...)
	out = append(out, header...)
	out = append(out, ciphertext...)
	return out
}

func splitHeaderAndCiphertext(blob []byte) (header, ciphertext []byte, err error) {
	if len(blob) < 2 {
		return nil, nil, fmt.Errorf("signcrypt: blob too short")
	}
	n := int(binary.BigEndian.Uint16(blob[:2]))
	if 2+n > len(blob) {
		return nil, nil, fmt.Errorf("signcrypt: malformed header length")
	}
	return blob[2 : 2+n], blob[2+n:], nil
}
