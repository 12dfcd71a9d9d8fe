package vid

import (
	"testing"

	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/stretchr/testify/require"
)

func TestNewOwned_X25519(t *testing.T) {
	signing, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	decryption, err := keys.GenerateX25519KeyPair()
	require.NoError(t, err)

	owned, err := NewOwned("did:peer:alice", "tcp://127.0.0.1:1337", signing, decryption)
	require.NoError(t, err)
	require.Equal(t, "did:peer:alice", owned.ID())
	require.Len(t, owned.VerifyingKey(), 32)
	require.Len(t, owned.EncryptionKey(), 32)
}

func TestNewOwned_RejectsNonEd25519Signer(t *testing.T) {
	signing, err := keys.GenerateSecp256k1KeyPair()
	require.NoError(t, err)
	decryption, err := keys.GenerateX25519KeyPair()
	require.NoError(t, err)

	_, err = NewOwned("did:peer:bob", "tcp://127.0.0.1:1337", signing, decryption)
	require.Error(t, err)
}

func TestWithParentAndSubtype(t *testing.T) {
	v := New("did:peer:child", "tcp://x", []byte("verify"), []byte("enc"))
	child := v.WithParent("did:peer:parent").WithSubtype("did:peer")

	parent, ok := child.Parent()
	require.True(t, ok)
	require.Equal(t, "did:peer:parent", parent)
	require.Equal(t, "did:peer", child.Subtype())

	_, ok = v.Parent()
	require.False(t, ok)
}
