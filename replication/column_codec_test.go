package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
)

func TestDecodeColumnLongLong(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	v, n, err := decodeColumn(data, mysql.ColumnTypeLongLong, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, int64(0x0807060504030201), v)
}

func TestDecodeColumnVarCharShortLength(t *testing.T) {
	data := append([]byte{5}, []byte("hello world")...)
	v, n, err := decodeColumn(data, mysql.ColumnTypeVarChar, 255)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "hello", v)
}

func TestDecodeColumnEnum(t *testing.T) {
	v, n, err := decodeColumn([]byte{3}, mysql.ColumnTypeEnum, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, mysql.EnumValue(3), v)
}

func TestDecodeColumnBit(t *testing.T) {
	// metadata: 1 byte in high, 0 bits in low => 8 bits total
	v, n, err := decodeColumn([]byte{0b10100000}, mysql.ColumnTypeBit, 1<<8)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	bits := v.(mysql.Bits)
	assert.Equal(t, 8, bits.Length)
}

func TestDecodeColumnUnsupportedType(t *testing.T) {
	_, _, err := decodeColumn(nil, mysql.ColumnType(0x42), 0)
	require.Error(t, err)
	assert.True(t, mysql.IsKind(err, mysql.KindUnsupported))
}
