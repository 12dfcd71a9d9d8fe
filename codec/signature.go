package codec

// EncodeSignature appends the terminal signature field: selector "0B"
// followed by the raw signature bytes. Since the signature is always
// the last field on the wire, no length prefix is needed.
func EncodeSignature(sig []byte) []byte {
	buf := make([]byte, 0, 2+len(sig))
	buf = append(buf, selSignature...)
	buf = append(buf, sig...)
	return buf
}

// SplitSignatureAt separates message into (message-minus-signature,
// signature) given off, the offset where the payload-body ended (as
// returned by decoding the envelope and payload-body). The signature
// selector is expected to start exactly at off; trailing bytes after
// a well-formed signature field are rejected by the caller via
// ErrTrailingBytes, since this function only validates the selector
// itself.
func SplitSignatureAt(message []byte, off int) (rest []byte, sig []byte, err error) {
	next, err := expectSelector(message, off, selSignature)
	if err != nil {
		return nil, nil, ErrMissingSignature
	}
	sig = message[next:]
	if len(sig) == 0 {
		return nil, nil, ErrMissingSignature
	}
	return message[:off], sig, nil
}
