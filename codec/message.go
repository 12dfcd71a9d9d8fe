package codec

// BuildSignedEnvelope assembles a complete -S message body up to (but
// not including) the signature: envelope + payload-body. Callers sign
// the result and append EncodeSignature(sig) to get the wire message.
func BuildSignedEnvelope(version Version, scheme Scheme, sender string, nonconfidential []byte, typ PayloadType, content []byte) ([]byte, error) {
	env, err := EncodeEnvelope(KindSigned, version, scheme, sender, "", nonconfidential)
	if err != nil {
		return nil, err
	}
	body, err := EncodePayload(typ, content)
	if err != nil {
		return nil, err
	}
	return append(env, body...), nil
}

// BuildEncryptedEnvelope assembles a complete -E message body up to
// (but not including) the signature: envelope + ciphertext field. The
// ciphertext is produced by the caller's signcryption step with AAD
// equal to the returned envelope bytes.
func BuildEncryptedEnvelope(version Version, scheme Scheme, sender, receiver string, nonconfidential []byte, ciphertext []byte) ([]byte, []byte, error) {
	env, err := EncodeEnvelope(KindEncrypted, version, scheme, sender, receiver, nonconfidential)
	if err != nil {
		return nil, nil, err
	}
	body, err := EncodeCiphertext(ciphertext)
	if err != nil {
		return nil, nil, err
	}
	return env, append(env, body...), nil
}

// ParsedMessage is the fully decoded wire message: envelope, the raw
// payload-body field (ciphertext bytes for -E, type-tagged plaintext
// for -S), and the detached signature.
type ParsedMessage struct {
	Envelope   Envelope
	Ciphertext []byte      // set when Envelope.IsEncrypted()
	Payload    DecodedPayload // set when !Envelope.IsEncrypted()
	SignedPart []byte      // envelope || payload-body, the bytes the signature covers
	Signature  []byte
}

// ParseMessage decodes a complete wire message: envelope, payload-body
// (dispatched on kind), and detaches the trailing signature. Parsing
// is strict: any trailing bytes after the signature field are an
// error, and unknown selectors are typed errors rather than silently
// skipped.
func ParseMessage(buf []byte) (ParsedMessage, error) {
	var out ParsedMessage

	env, err := DecodeEnvelope(buf)
	if err != nil {
		return out, err
	}
	out.Envelope = env.Envelope

	var bodyEnd int
	if env.IsEncrypted() {
		ct, next, err := DecodeCiphertext(buf, env.Remainder)
		if err != nil {
			return out, err
		}
		out.Ciphertext = ct
		bodyEnd = next
	} else {
		p, err := DecodePayload(buf, env.Remainder)
		if err != nil {
			return out, err
		}
		out.Payload = p
		bodyEnd = p.Next
	}

	rest, sig, err := SplitSignatureAt(buf, bodyEnd)
	if err != nil {
		return out, err
	}
	sigSize := 0
	switch out.Envelope.Scheme.Signature {
	case SignatureEd25519:
		sigSize = 64
	case SignatureMLDSA65:
		sigSize = 3309
	}
	if sigSize > 0 && len(sig) > sigSize {
		return out, ErrTrailingBytes
	}
	out.SignedPart = rest
	out.Signature = sig
	return out, nil
}
