package mysql

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// LengthEncodedInt reads a MySQL length-encoded integer from data.
// It returns the decoded value, whether the value was SQL NULL, and the
// number of bytes consumed.
//
// See: https://dev.mysql.com/doc/dev/mysql-server/latest/page_protocol_basic_dt_integers.html
func LengthEncodedInt(data []byte) (value uint64, isNull bool, n int) {
	if len(data) == 0 {
		return 0, false, 0
	}

	switch data[0] {
	case 0xfb:
		return 0, true, 1
	case 0xfc:
		if len(data) < 3 {
			return 0, false, 0
		}
		return uint64(binary.LittleEndian.Uint16(data[1:])), false, 3
	case 0xfd:
		if len(data) < 4 {
			return 0, false, 0
		}
		return uint64(data[1]) | uint64(data[2])<<8 | uint64(data[3])<<16, false, 4
	case 0xfe:
		if len(data) < 9 {
			return 0, false, 0
		}
		return binary.LittleEndian.Uint64(data[1:9]), false, 9
	default:
		return uint64(data[0]), false, 1
	}
}

// ReadLengthEncodedInt reads a length-encoded integer and fails on SQL NULL,
// which is never a valid value in a protocol position expecting a plain count.
func ReadLengthEncodedInt(data []byte) (value uint64, n int, err error) {
	v, isNull, n := LengthEncodedInt(data)
	if n == 0 {
		return 0, 0, errors.Trace(ErrMalformPacket)
	}
	if isNull {
		return 0, n, NewError(KindProtocol, "unexpected NULL length-encoded integer")
	}
	return v, n, nil
}

// PutLengthEncodedInt appends the length-encoded encoding of n to buf.
func PutLengthEncodedInt(buf []byte, n uint64) []byte {
	switch {
	case n <= 0xfa:
		return append(buf, byte(n))
	case n <= 0xffff:
		return append(buf, 0xfc, byte(n), byte(n>>8))
	case n <= 0xffffff:
		return append(buf, 0xfd, byte(n), byte(n>>8), byte(n>>16))
	default:
		return append(buf, 0xfe,
			byte(n), byte(n>>8), byte(n>>16), byte(n>>24),
			byte(n>>32), byte(n>>40), byte(n>>48), byte(n>>56))
	}
}

// LengthEncodedString reads a length-encoded string: a length-encoded
// integer followed by that many bytes.
func LengthEncodedString(data []byte) (value []byte, n int, err error) {
	length, isNull, ni := LengthEncodedInt(data)
	if ni == 0 {
		return nil, 0, errors.Trace(ErrMalformPacket)
	}
	if isNull {
		return nil, ni, nil
	}
	if ni+int(length) > len(data) {
		return nil, 0, errors.Trace(ErrMalformPacket)
	}
	return data[ni : ni+int(length)], ni + int(length), nil
}

// PutLengthEncodedString appends the length-encoded encoding of s to buf.
func PutLengthEncodedString(buf []byte, s []byte) []byte {
	buf = PutLengthEncodedInt(buf, uint64(len(s)))
	return append(buf, s...)
}

// NullTerminatedString reads bytes up to (and excluding) the first 0x00.
// It returns the string and the number of bytes consumed including the
// terminator.
func NullTerminatedString(data []byte) (value []byte, n int, err error) {
	for i, b := range data {
		if b == 0 {
			return data[:i], i + 1, nil
		}
	}
	return nil, 0, errors.Trace(ErrMalformPacket)
}

// BitmapByteSize returns ceil(bits/8).
func BitmapByteSize(bits int) int {
	return (bits + 7) / 8
}

// ReadBitmapLittleEndian reads a little-endian bitmap of the given bit count:
// bit k lives in byte k>>3, masked by 1<<(k&7).
func ReadBitmapLittleEndian(data []byte, bits int) []bool {
	result := make([]bool, bits)
	for i := 0; i < bits; i++ {
		result[i] = data[i>>3]&(1<<uint(i&7)) != 0
	}
	return result
}

// PutBitmapLittleEndian encodes bits into a little-endian bitmap.
func PutBitmapLittleEndian(bits []bool) []byte {
	buf := make([]byte, BitmapByteSize(len(bits)))
	for i, b := range bits {
		if b {
			buf[i>>3] |= 1 << uint(i&7)
		}
	}
	return buf
}

// ReadBitmapBigEndian reads a big-endian bitmap: same per-byte mask as the
// little-endian form, but bytes are traversed back to front.
func ReadBitmapBigEndian(data []byte, bits int) []bool {
	byteLen := BitmapByteSize(bits)
	result := make([]bool, bits)
	for i := 0; i < bits; i++ {
		byteIndex := byteLen - 1 - i>>3
		result[i] = data[byteIndex]&(1<<uint(i&7)) != 0
	}
	return result
}

// ReadBitmapReverted reads the "reverted" bitmap used by TableMetadata: bit k
// is byte k>>3, masked by 1<<(7-(k&7)) — the leading bit of the byte is bit 0.
func ReadBitmapReverted(data []byte, bits int) []bool {
	result := make([]bool, bits)
	for i := 0; i < bits; i++ {
		result[i] = data[i>>3]&(1<<uint(7-(i&7))) != 0
	}
	return result
}
