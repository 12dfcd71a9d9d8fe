// Package cryptoinit wires the crypto package's generator/storage/format
// hooks to their concrete implementations in crypto/keys, crypto/storage,
// and crypto/formats. Importing this package for its side effect (a blank
// import in cmd/ main packages) is what makes crypto.NewEd25519KeyPair and
// friends usable without crypto itself importing its own subpackages.
package cryptoinit

import (
	"github.com/openwallet-labs/tsp-go/crypto"
	"github.com/openwallet-labs/tsp-go/crypto/formats"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/openwallet-labs/tsp-go/crypto/storage"
)

func init() {
	// Register key generators
	crypto.SetKeyGenerators(
		func() (crypto.KeyPair, error) { return keys.GenerateEd25519KeyPair() },
		func() (crypto.KeyPair, error) { return keys.GenerateSecp256k1KeyPair() },
		func() (crypto.KeyPair, error) { return keys.GenerateX25519KeyPair() },
		func() (crypto.KeyPair, error) { return keys.GenerateNaClBoxKeyPair() },
	)

	// Register storage constructors
	crypto.SetStorageConstructors(
		func() crypto.KeyStorage { return storage.NewMemoryKeyStorage() },
	)

	// Register format constructors
	crypto.SetFormatConstructors(
		func() crypto.KeyExporter { return formats.NewJWKExporter() },
		func() crypto.KeyExporter { return formats.NewPEMExporter() },
		func() crypto.KeyImporter { return formats.NewJWKImporter() },
		func() crypto.KeyImporter { return formats.NewPEMImporter() },
	)
}
