package mysql

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// fractionalTail decodes the FSP-dependent fractional-seconds tail shared by
// the v2 temporal types (§4.9). It returns microseconds, truncated to
// millisecond resolution, and the number of bytes consumed.
func fractionalTail(data []byte, fsp uint16) (microseconds int32, n int, err error) {
	length := int(fsp+1) / 2
	if length == 0 {
		return 0, 0, nil
	}
	if length > len(data) {
		return 0, 0, errors.Trace(ErrMalformPacket)
	}
	raw := readBigEndianUint(data[:length])
	micro := int64(raw) * pow100(3-length)
	micro = (micro / 1000) * 1000
	return int32(micro), length, nil
}

func pow100(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 100
	}
	return v
}

// ParseDate decodes a 3-byte little-endian DATE value (§4.9).
func ParseDate(data []byte) (Date, int, error) {
	if len(data) < 3 {
		return Date{}, 0, errors.Trace(ErrMalformPacket)
	}
	v := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	return Date{
		Day:   uint8(v & 0x1f),
		Month: uint8((v >> 5) & 0x0f),
		Year:  uint16(v >> 9),
	}, 3, nil
}

// ParseTime decodes a legacy 3-byte little-endian TIME value, sign-extended
// to i32 (§4.9). Negative values are not supported.
func ParseTime(data []byte) (Time, int, error) {
	if len(data) < 3 {
		return Time{}, 0, errors.Trace(ErrMalformPacket)
	}
	raw := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
	raw = raw << 8 >> 8 // sign-extend the 24-bit value
	if raw < 0 {
		return Time{}, 0, NewError(KindUnsupported, "negative TIME values are not supported")
	}
	return Time{
		Hour:   raw / 10000,
		Minute: (raw / 100) % 100,
		Second: raw % 100,
	}, 3, nil
}

// ParseTime2 decodes a TIME2 value: 3 bytes big-endian plus an FSP-dependent
// fractional tail (§4.9). Negative values are not supported.
func ParseTime2(data []byte, fsp uint16) (Time, int, error) {
	if len(data) < 3 {
		return Time{}, 0, errors.Trace(ErrMalformPacket)
	}
	v := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
	if v&0x800000 == 0 {
		return Time{}, 0, NewError(KindUnsupported, "negative TIME2 values are not supported")
	}
	micro, n, err := fractionalTail(data[3:], fsp)
	if err != nil {
		return Time{}, 0, err
	}
	return Time{
		Hour:        int32((v >> 12) & 0x3ff),
		Minute:      int32((v >> 6) & 0x3f),
		Second:      int32(v & 0x3f),
		Microsecond: micro,
	}, 3 + n, nil
}

// ParseDateTime decodes an 8-byte little-endian decimal-packed
// YYYYMMDDhhmmss DATETIME value (§4.9).
func ParseDateTime(data []byte) (DateTime, int, error) {
	if len(data) < 8 {
		return DateTime{}, 0, errors.Trace(ErrMalformPacket)
	}
	raw := binary.LittleEndian.Uint64(data[:8])
	date := raw / 1000000
	timePart := raw % 1000000
	return DateTime{
		Year:  uint16(date / 10000),
		Month: uint8((date / 100) % 100),
		Day:   uint8(date % 100),
		Hour:  uint8(timePart / 10000),
		Minute: uint8((timePart / 100) % 100),
		Second: uint8(timePart % 100),
	}, 8, nil
}

// ParseDateTime2 decodes a DATETIME2 value: 5 bytes big-endian plus an
// FSP-dependent fractional tail (§4.9).
func ParseDateTime2(data []byte, fsp uint16) (DateTime, int, error) {
	if len(data) < 5 {
		return DateTime{}, 0, errors.Trace(ErrMalformPacket)
	}
	v := uint64(data[0])<<32 | uint64(data[1])<<24 | uint64(data[2])<<16 | uint64(data[3])<<8 | uint64(data[4])
	ym := (v >> 22) & 0x1ffff
	micro, n, err := fractionalTail(data[5:], fsp)
	if err != nil {
		return DateTime{}, 0, err
	}
	return DateTime{
		Year:        uint16(ym / 13),
		Month:       uint8(ym % 13),
		Day:         uint8((v >> 17) & 0x1f),
		Hour:        uint8((v >> 12) & 0x1f),
		Minute:      uint8((v >> 6) & 0x3f),
		Second:      uint8(v & 0x3f),
		Microsecond: uint32(micro),
	}, 5 + n, nil
}

// ParseTimestamp decodes a u32 little-endian TIMESTAMP (seconds since the
// epoch), returning milliseconds (§4.9).
func ParseTimestamp(data []byte) (Timestamp, int, error) {
	if len(data) < 4 {
		return 0, 0, errors.Trace(ErrMalformPacket)
	}
	seconds := binary.LittleEndian.Uint32(data[:4])
	return Timestamp(uint64(seconds) * 1000), 4, nil
}

// ParseTimestamp2 decodes a u32 big-endian TIMESTAMP2 (seconds) plus an
// FSP-dependent fractional tail, returning milliseconds (§4.9).
func ParseTimestamp2(data []byte, fsp uint16) (Timestamp, int, error) {
	if len(data) < 4 {
		return 0, 0, errors.Trace(ErrMalformPacket)
	}
	seconds := binary.BigEndian.Uint32(data[:4])
	micro, n, err := fractionalTail(data[4:], fsp)
	if err != nil {
		return 0, 0, err
	}
	ms := uint64(seconds)*1000 + uint64(micro)/1000
	return Timestamp(ms), 4 + n, nil
}
