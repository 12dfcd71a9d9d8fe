package codec

// DecodedPayload is the result of decode_payload.
type DecodedPayload struct {
	Type PayloadType
	Body []byte
	Next int // offset just past this field in the original buffer
}

// EncodeCiphertext wraps HPKE/NaCl output as the payload-body of a -E
// envelope.
func EncodeCiphertext(ciphertext []byte) ([]byte, error) {
	return putUint32Field(nil, selCiphertext, ciphertext)
}

// DecodeCiphertext reads the ciphertext field starting at off.
func DecodeCiphertext(buf []byte, off int) (ciphertext []byte, next int, err error) {
	off, err = expectSelector(buf, off, selCiphertext)
	if err != nil {
		return nil, 0, err
	}
	return readUint32Field(buf, off)
}

// EncodePayload builds a -S payload-body (or the plaintext that will
// be encrypted for a -E envelope): a length-prefixed field whose body
// begins with the 2-byte major.minor type code.
func EncodePayload(typ PayloadType, content []byte) ([]byte, error) {
	body := make([]byte, 0, 2+len(content))
	body = append(body, typ.Major, typ.Minor)
	body = append(body, content...)
	return putUint32Field(nil, selPlaintext, body)
}

// DecodePayload parses a -S payload-body (or decrypted -E plaintext
// that uses the same plaintext-field framing) starting at off.
func DecodePayload(buf []byte, off int) (DecodedPayload, error) {
	var p DecodedPayload
	off, err := expectSelector(buf, off, selPlaintext)
	if err != nil {
		return p, err
	}
	body, next, err := readUint32Field(buf, off)
	if err != nil {
		return p, err
	}
	if len(body) < 2 {
		return p, ErrTruncated
	}
	p.Type = PayloadType{Major: body[0], Minor: body[1]}
	p.Body = body[2:]
	p.Next = next
	return p, nil
}

// DecodeInnerPlaintext decodes the type-tagged plaintext framing that
// decrypted -E ciphertext carries internally (same shape as a -S
// payload-body, but operating on an already-decrypted buffer rather
// than a slice of the wire message).
func DecodeInnerPlaintext(plaintext []byte) (PayloadType, []byte, error) {
	if len(plaintext) < 2 {
		return PayloadType{}, nil, ErrTruncated
	}
	return PayloadType{Major: plaintext[0], Minor: plaintext[1]}, plaintext[2:], nil
}

// EncodeInnerPlaintext is the inverse of DecodeInnerPlaintext: it
// tags content with a type code before HPKE/NaCl sealing.
func EncodeInnerPlaintext(typ PayloadType, content []byte) []byte {
	out := make([]byte, 0, 2+len(content))
	out = append(out, typ.Major, typ.Minor)
	out = append(out, content...)
	return out
}
