package pq

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var hkdfHash = sha256.New

// HybridPublicKey bundles the two public keys a receiver must publish
// for the post-quantum hybrid scheme: a classical X25519 key and an
// ML-KEM-768 key. Both are combined so that breaking either algorithm
// alone does not break confidentiality.
type HybridPublicKey struct {
	X25519 *ecdh.PublicKey
	MLKEM  []byte // wire-encoded ML-KEM-768 public key
}

// HybridPrivateKey is the receiver-side counterpart.
type HybridPrivateKey struct {
	X25519 *ecdh.PrivateKey
	MLKEM  *MLKEMKeyPair
}

const hybridInfo = "tsp-go pq-hybrid v1"

// SealHybrid encrypts plaintext for peer using an ephemeral X25519 key
// combined with an ML-KEM-768 encapsulation, deriving a single AEAD
// key via HKDF-SHA256 over the concatenation of both shared secrets.
// The returned blob self-frames: 2-byte ephemeral-X25519-pubkey length,
// the key, 2-byte KEM-ciphertext length, the KEM ciphertext, then the
// AEAD ciphertext.
func SealHybrid(peer HybridPublicKey, aad, plaintext []byte) ([]byte, error) {
	ephPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: generate ephemeral X25519 key: %w", err)
	}
	classicalSecret, err := ephPriv.ECDH(peer.X25519)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: X25519 ECDH: %w", err)
	}

	kemCiphertext, kemSecret, err := encapsulate(peer.MLKEM)
	if err != nil {
		return nil, err
	}

	key, err := deriveAEADKey(classicalSecret, kemSecret)
	if err != nil {
		return nil, err
	}
	ct, err := sealChaCha(key, aad, plaintext)
	if err != nil {
		return nil, err
	}

	return frameHybrid(ephPriv.PublicKey().Bytes(), kemCiphertext, ct), nil
}

// OpenHybrid reverses SealHybrid using the receiver's hybrid private key.
func OpenHybrid(priv HybridPrivateKey, aad, blob []byte) ([]byte, error) {
	ephPubBytes, kemCiphertext, ct, err := splitHybrid(blob)
	if err != nil {
		return nil, err
	}

	ephPub, err := ecdh.X25519().NewPublicKey(ephPubBytes)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: invalid ephemeral X25519 key: %w", err)
	}
	classicalSecret, err := priv.X25519.ECDH(ephPub)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: X25519 ECDH: %w", err)
	}

	kemSecret, err := decapsulate(priv.MLKEM.privateKey, kemCiphertext)
	if err != nil {
		return nil, err
	}

	key, err := deriveAEADKey(classicalSecret, kemSecret)
	if err != nil {
		return nil, err
	}
	return openChaCha(key, aad, ct)
}

func deriveAEADKey(classicalSecret, kemSecret []byte) ([]byte, error) {
	combined := append(append([]byte{}, classicalSecret...), kemSecret...)
	reader := hkdf.New(hkdfHash, combined, nil, []byte(hybridInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("pq hybrid: derive AEAD key: %w", err)
	}
	return key, nil
}

func sealChaCha(key, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: init AEAD: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("pq hybrid: generate nonce: %w", err)
	}
	return append(nonce, aead.Seal(nil, nonce, plaintext, aad)...), nil
}

func openChaCha(key, aad, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: init AEAD: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, fmt.Errorf("pq hybrid: ciphertext too short")
	}
	nonce, ct := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("pq hybrid: decryption failed")
	}
	return pt, nil
}

func frameHybrid(ephPub, kemCiphertext, ciphertext []byte) []byte {
	out := make([]byte, 0, 4+len(ephPub)+len(kemCiphertext)+len(ciphertext))
	out = appendUint16Field(out, ephPub)
	out = appendUint16Field(out, kemCiphertext)
	out = append(out, ciphertext...)
	return out
}

func splitHybrid(blob []byte) (ephPub, kemCiphertext, ciphertext []byte, err error) {
	ephPub, rest, err := readUint16Field(blob)
	if err != nil {
		return nil, nil, nil, err
	}
	kemCiphertext, rest, err = readUint16Field(rest)
	if err != nil {
		return nil, nil, nil, err
	}
	return ephPub, kemCiphertext, rest, nil
}

func appendUint16Field(buf, data []byte) []byte {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(data)))
	buf = append(buf, l[:]...)
	return append(buf, data...)
}

func readUint16Field(buf []byte) (data, rest []byte, err error) {
	if len(buf) < 2 {
		return nil, nil, fmt.Errorf("pq hybrid: truncated field")
	}
	n := int(binary.BigEndian.Uint16(buf[:2]))
	if 2+n > len(buf) {
		return nil, nil, fmt.Errorf("pq hybrid: truncated field data")
	}
	return buf[2 : 2+n], buf[2+n:], nil
}
