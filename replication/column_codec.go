package replication

import (
	"encoding/binary"
	"math"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// decodeColumn reads one column's value for the given type/metadata, per
// §4.8/§4.9's per-type decoding rules. It returns the decoded value (one of
// the MySqlValue concrete types in the mysql package) and the number of
// bytes consumed.
func decodeColumn(data []byte, columnType mysql.ColumnType, metadata uint16) (any, int, error) {
	switch columnType {
	case mysql.ColumnTypeTiny:
		return int8(data[0]), 1, nil
	case mysql.ColumnTypeShort:
		return int16(binary.LittleEndian.Uint16(data)), 2, nil
	case mysql.ColumnTypeInt24:
		v := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
		v = v << 8 >> 8
		return v, 3, nil
	case mysql.ColumnTypeLong:
		return int32(binary.LittleEndian.Uint32(data)), 4, nil
	case mysql.ColumnTypeLongLong:
		return int64(binary.LittleEndian.Uint64(data)), 8, nil
	case mysql.ColumnTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), 4, nil
	case mysql.ColumnTypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8, nil
	case mysql.ColumnTypeYear:
		return uint16(1900) + uint16(data[0]), 1, nil
	case mysql.ColumnTypeNewDecimal:
		d, n, err := mysql.ParseDecimal(data, metadata)
		return d, n, err

	case mysql.ColumnTypeString:
		actualType, actualMetadata := mysql.GetActualStringType(columnType, metadata)
		switch actualType {
		case mysql.ColumnTypeEnum:
			return decodeEnum(data, actualMetadata)
		case mysql.ColumnTypeSet:
			return decodeSet(data, actualMetadata)
		default:
			return decodeVariableString(data, actualMetadata)
		}
	case mysql.ColumnTypeVarChar, mysql.ColumnTypeVarString:
		return decodeVariableString(data, metadata)

	case mysql.ColumnTypeBit:
		return decodeBit(data, metadata)
	case mysql.ColumnTypeEnum:
		return decodeEnum(data, metadata)
	case mysql.ColumnTypeSet:
		return decodeSet(data, metadata)

	case mysql.ColumnTypeTinyBlob, mysql.ColumnTypeMediumBlob, mysql.ColumnTypeLongBlob,
		mysql.ColumnTypeBlob, mysql.ColumnTypeGeometry, mysql.ColumnTypeJSON:
		return decodeBlob(data, metadata)

	case mysql.ColumnTypeDate:
		return mysql.ParseDate(data)
	case mysql.ColumnTypeTime:
		return mysql.ParseTime(data)
	case mysql.ColumnTypeTime2:
		return mysql.ParseTime2(data, metadata)
	case mysql.ColumnTypeDateTime:
		return mysql.ParseDateTime(data)
	case mysql.ColumnTypeDateTime2:
		return mysql.ParseDateTime2(data, metadata)
	case mysql.ColumnTypeTimestamp:
		return mysql.ParseTimestamp(data)
	case mysql.ColumnTypeTimestamp2:
		return mysql.ParseTimestamp2(data, metadata)

	default:
		return nil, 0, mysql.NewError(mysql.KindUnsupported, "unsupported column type %s", columnType)
	}
}

func decodeVariableString(data []byte, metadata uint16) (string, int, error) {
	var length, n int
	if metadata < 256 {
		length = int(data[0])
		n = 1
	} else {
		length = int(binary.LittleEndian.Uint16(data))
		n = 2
	}
	if n+length > len(data) {
		return "", 0, errors.Trace(mysql.ErrMalformPacket)
	}
	return string(data[n : n+length]), n + length, nil
}

func decodeBit(data []byte, metadata uint16) (mysql.Bits, int, error) {
	bits := int(metadata>>8)*8 + int(metadata&0xff)
	byteLen := mysql.BitmapByteSize(bits)
	if byteLen > len(data) {
		return mysql.Bits{}, 0, errors.Trace(mysql.ErrMalformPacket)
	}
	be := mysql.ReadBitmapBigEndian(data[:byteLen], bits)
	reversed := make([]bool, bits)
	for i, b := range be {
		reversed[bits-1-i] = b
	}
	return mysql.Bits{Length: bits, Bits: reversed}, byteLen, nil
}

func decodeEnum(data []byte, metadata uint16) (mysql.EnumValue, int, error) {
	n := int(metadata)
	if n == 0 {
		n = 1
	}
	return mysql.EnumValue(readLittleEndianUint(data[:n])), n, nil
}

func decodeSet(data []byte, metadata uint16) (mysql.SetValue, int, error) {
	n := int(metadata)
	if n == 0 {
		n = 1
	}
	return mysql.SetValue(readLittleEndianUint(data[:n])), n, nil
}

func decodeBlob(data []byte, metadata uint16) ([]byte, int, error) {
	n := int(metadata)
	if n == 0 {
		n = 1
	}
	length := int(readLittleEndianUint(data[:n]))
	if n+length > len(data) {
		return nil, 0, errors.Trace(mysql.ErrMalformPacket)
	}
	return data[n : n+length], n + length, nil
}

func readLittleEndianUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
