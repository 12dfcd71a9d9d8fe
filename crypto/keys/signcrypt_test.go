package keys

import (
	"testing"

	sagecrypto "github.com/openwallet-labs/tsp-go/crypto"
	"github.com/stretchr/testify/require"
)

func TestSealOpenSigncrypt_HPKEAuth(t *testing.T) {
	alice, err := GenerateX25519KeyPair()
	require.NoError(t, err)
	bob, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	aad := []byte("envelope-bytes")
	blob, err := SealSigncrypt(SchemeEncryptionHPKEAuth, alice, bob.PublicKey().(interface{ Bytes() []byte }).Bytes(), aad, []byte("hello bob"))
	require.NoError(t, err)

	pt, err := OpenSigncrypt(SchemeEncryptionHPKEAuth, bob, alice.PublicKey().(interface{ Bytes() []byte }).Bytes(), aad, blob)
	require.NoError(t, err)
	require.Equal(t, "hello bob", string(pt))
}

func TestSealOpenSigncrypt_HPKEESSR(t *testing.T) {
	bob, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	aad := []byte("envelope-bytes")
	blob, err := SealSigncrypt(SchemeEncryptionHPKEESSR, nil, bob.PublicKey().(interface{ Bytes() []byte }).Bytes(), aad, []byte("essr payload"))
	require.NoError(t, err)

	pt, err := OpenSigncrypt(SchemeEncryptionHPKEESSR, bob, nil, aad, blob)
	require.NoError(t, err)
	require.Equal(t, "essr payload", string(pt))
}

func TestSealOpenSigncrypt_NaClAuth(t *testing.T) {
	aliceKP, err := GenerateNaClBoxKeyPair()
	require.NoError(t, err)
	bobKP, err := GenerateNaClBoxKeyPair()
	require.NoError(t, err)
	alice := aliceKP.(*NaClBoxKeyPair)
	bob := bobKP.(*NaClBoxKeyPair)

	aad := []byte("envelope-bytes")
	blob, err := SealSigncrypt(SchemeEncryptionNaClAuth, alice, bob.PublicBytes(), aad, []byte("nacl hello"))
	require.NoError(t, err)

	pt, err := OpenSigncrypt(SchemeEncryptionNaClAuth, bob, alice.PublicBytes(), aad, blob)
	require.NoError(t, err)
	require.Equal(t, "nacl hello", string(pt))
}

func TestSealOpenSigncrypt_NaClESSR(t *testing.T) {
	bobKP, err := GenerateNaClBoxKeyPair()
	require.NoError(t, err)
	bob := bobKP.(*NaClBoxKeyPair)

	aad := []byte("envelope-bytes")
	blob, err := SealSigncrypt(SchemeEncryptionNaClESSR, nil, bob.PublicBytes(), aad, []byte("nacl essr"))
	require.NoError(t, err)

	pt, err := OpenSigncrypt(SchemeEncryptionNaClESSR, bob, nil, aad, blob)
	require.NoError(t, err)
	require.Equal(t, "nacl essr", string(pt))
}

func TestOpenSigncrypt_WrongReceiverFails(t *testing.T) {
	alice, err := GenerateX25519KeyPair()
	require.NoError(t, err)
	bob, err := GenerateX25519KeyPair()
	require.NoError(t, err)
	mallory, err := GenerateX25519KeyPair()
	require.NoError(t, err)

	aad := []byte("envelope-bytes")
	blob, err := SealSigncrypt(SchemeEncryptionHPKEAuth, alice, bob.PublicKey().(interface{ Bytes() []byte }).Bytes(), aad, []byte("secret"))
	require.NoError(t, err)

	_, err = OpenSigncrypt(SchemeEncryptionHPKEAuth, mallory, alice.PublicKey().(interface{ Bytes() []byte }).Bytes(), aad, blob)
	require.Error(t, err)
}

func TestSignVerifyDetached(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	require.NoError(t, err)

	sig, err := SignDetached(kp, []byte("envelope+ciphertext"))
	require.NoError(t, err)
	require.NoError(t, VerifyDetached(kp, []byte("envelope+ciphertext"), sig))
	require.Error(t, VerifyDetached(kp, []byte("tampered"), sig))
}

var _ sagecrypto.KeyPair = (*NaClBoxKeyPair)(nil)
