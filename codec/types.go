package codec

import "fmt"

// EnvelopeKind distinguishes a signed+encrypted envelope from a
// signed-only one. It is carried as the first two wire bytes of every
// message ("-E" or "-S").
type EnvelopeKind byte

const (
	KindEncrypted EnvelopeKind = 'E'
	KindSigned    EnvelopeKind = 'S'
)

// Version is the 2-byte "major.minor" wire version. Current default is 0.0.
type Version struct {
	Major byte
	Minor byte
}

// DefaultVersion is the only version this codec speaks.
var DefaultVersion = Version{Major: 0, Minor: 0}

// Scheme names the encryption and signature algorithm selected for a
// message, per the byte values fixed in the wire format.
type Scheme struct {
	Encryption EncryptionScheme
	Signature  SignatureScheme
}

// EncryptionScheme is the one-byte encryption selector.
type EncryptionScheme byte

const (
	EncryptionNone     EncryptionScheme = 0
	EncryptionHPKEAuth EncryptionScheme = 1
	EncryptionHPKEESSR EncryptionScheme = 2
	EncryptionNaClAuth EncryptionScheme = 3
	EncryptionNaClESSR EncryptionScheme = 4
	EncryptionPQHybrid EncryptionScheme = 5
)

// SignatureScheme is the one-byte signature selector.
type SignatureScheme byte

const (
	SignatureNone    SignatureScheme = 0
	SignatureEd25519 SignatureScheme = 1
	SignatureMLDSA65 SignatureScheme = 2
)

// PayloadType is the major.minor type code prefixing a payload body.
// Minor is a raw byte, not ASCII, so values like 1.255 (cancel) fit.
type PayloadType struct {
	Major byte
	Minor byte
}

var (
	TypeGeneric         = PayloadType{0, 0}
	TypeContainer       = PayloadType{0, 1} // nested message container or routed hop list
	TypeNewRel          = PayloadType{1, 0}
	TypeNewRelReply     = PayloadType{1, 1}
	TypeNewNestRel      = PayloadType{1, 2}
	TypeNewNestRelReply = PayloadType{1, 3}
	TypeReferral        = PayloadType{1, 4}
	TypeReferralReply   = PayloadType{1, 5}
	TypeCancel          = PayloadType{1, 255}
)

func (t PayloadType) String() string {
	return fmt.Sprintf("%d.%d", t.Major, t.Minor)
}

// ContainerVariant distinguishes the two uses of TypeContainer.
type ContainerVariant byte

const (
	ContainerNested ContainerVariant = 0
	ContainerRouted ContainerVariant = 1
)

// Envelope is the decoded header of a TSP message: everything before
// the payload body and signature.
type Envelope struct {
	Kind            EnvelopeKind
	Version         Version
	Scheme          Scheme
	Sender          string
	Receiver        string // empty for -S envelopes
	Nonconfidential []byte // optional, nil if absent
}

// IsEncrypted reports whether this envelope carries ciphertext (vs. a
// plaintext payload body).
func (e Envelope) IsEncrypted() bool {
	return e.Kind == KindEncrypted
}
