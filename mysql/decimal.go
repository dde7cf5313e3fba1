package mysql

import (
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

// digitsPerInt and compressedBytes are the compressed-decimal wire constants
// for NEWDECIMAL encoding (§4.9).
//
// See: https://dev.mysql.com/doc/internals/en/date-and-time-data-type-representation.html
const digitsPerInt = 9

var compressedBytes = [10]int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

// ParseDecimal decodes a NEWDECIMAL column value from data, given its
// metadata (precision in the low byte, scale in the high byte), returning
// the decimal.Decimal and the number of bytes consumed.
func ParseDecimal(data []byte, metadata uint16) (decimal.Decimal, int, error) {
	precision := int(metadata & 0xff)
	scale := int(metadata >> 8)
	integral := precision - scale

	uncompressedIntegral := integral / digitsPerInt
	uncompressedFractional := scale / digitsPerInt
	compressedIntegral := integral - uncompressedIntegral*digitsPerInt
	compressedFractional := scale - uncompressedFractional*digitsPerInt

	length := uncompressedIntegral*4 + compressedBytes[compressedIntegral] +
		uncompressedFractional*4 + compressedBytes[compressedFractional]

	if length > len(data) {
		return decimal.Decimal{}, 0, errors.Trace(ErrMalformPacket)
	}
	value := make([]byte, length)
	copy(value, data[:length])

	var sb strings.Builder
	negative := value[0]&0x80 == 0
	value[0] ^= 0x80
	if negative {
		sb.WriteByte('-')
		for i := range value {
			value[i] ^= 0xff
		}
	}

	offset := 0
	started := false

	size := compressedBytes[compressedIntegral]
	if size > 0 {
		number := readBigEndianUint(value[offset : offset+size])
		offset += size
		if number > 0 {
			started = true
			sb.WriteString(strconv.FormatUint(number, 10))
		}
	}
	for i := 0; i < uncompressedIntegral; i++ {
		number := readBigEndianUint(value[offset : offset+4])
		offset += 4
		if started {
			sb.WriteString(padLeft(strconv.FormatUint(number, 10), 9))
		} else if number > 0 {
			started = true
			sb.WriteString(strconv.FormatUint(number, 10))
		}
	}
	if !started {
		sb.WriteByte('0')
	}
	if scale > 0 {
		sb.WriteByte('.')
	}

	for i := 0; i < uncompressedFractional; i++ {
		number := readBigEndianUint(value[offset : offset+4])
		offset += 4
		sb.WriteString(padLeft(strconv.FormatUint(number, 10), 9))
	}
	size = compressedBytes[compressedFractional]
	if size > 0 {
		number := readBigEndianUint(value[offset : offset+size])
		offset += size
		sb.WriteString(padLeft(strconv.FormatUint(number, 10), compressedFractional))
	}

	d, err := decimal.NewFromString(sb.String())
	if err != nil {
		return decimal.Decimal{}, 0, errors.Annotatef(NewError(KindParse, "invalid decimal payload %q: %v", sb.String(), err), "parse decimal")
	}
	return d, length, nil
}

func readBigEndianUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
