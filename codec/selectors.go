package codec

import "encoding/binary"

// Wire selectors. Each is a short ASCII tag identifying the field that
// follows it; selectors never overlap so a decoder can always tell
// what kind of field it is about to read.
const (
	selEnvEncrypted    = "-E"
	selEnvSigned       = "-S"
	selVID             = "-V"
	selNonconfidential = "-N"
	selCiphertext      = "-C"
	selPlaintext       = "-P"
	selSignature       = "0B"
)

// putUint16Field appends selector + 2-byte big-endian length + data.
func putUint16Field(buf []byte, sel string, data []byte) ([]byte, error) {
	if len(data) > 0xFFFF {
		return nil, ErrOversizeField
	}
	buf = append(buf, sel...)
	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], uint16(len(data)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, data...)
	return buf, nil
}

// readUint16Field reads selector + 2-byte length + data from buf at
// offset off, which must already have matched sel. Returns the data
// and the offset just past it.
func readUint16Field(buf []byte, off int) (data []byte, next int, err error) {
	if off+2 > len(buf) {
		return nil, 0, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(buf[off : off+2]))
	off += 2
	if off+n > len(buf) {
		return nil, 0, ErrTruncated
	}
	return buf[off : off+n], off + n, nil
}

// putUint32Field appends selector + 4-byte big-endian length + data.
func putUint32Field(buf []byte, sel string, data []byte) ([]byte, error) {
	if uint64(len(data)) > 0xFFFFFFFF {
		return nil, ErrOversizeField
	}
	buf = append(buf, sel...)
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(data)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, data...)
	return buf, nil
}

func readUint32Field(buf []byte, off int) (data []byte, next int, err error) {
	if off+4 > len(buf) {
		return nil, 0, ErrTruncated
	}
	n := int(binary.BigEndian.Uint32(buf[off : off+4]))
	off += 4
	if off+n > len(buf) || n < 0 {
		return nil, 0, ErrTruncated
	}
	return buf[off : off+n], off + n, nil
}

// expectSelector checks that buf[off:off+len(sel)] equals sel.
func expectSelector(buf []byte, off int, sel string) (int, error) {
	if off+len(sel) > len(buf) {
		return 0, ErrTruncated
	}
	if string(buf[off:off+len(sel)]) != sel {
		return 0, ErrUnknownSelector
	}
	return off + len(sel), nil
}
