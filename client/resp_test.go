package client

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
)

func TestIsOKPacket(t *testing.T) {
	assert.True(t, isOKPacket([]byte{mysql.OKHeader, 0, 0}))
	assert.False(t, isOKPacket([]byte{0x01}))
	assert.False(t, isOKPacket(nil))
}

func TestIsEOFPacket(t *testing.T) {
	assert.True(t, isEOFPacket([]byte{mysql.EOFHeader, 0, 0}))
	assert.False(t, isEOFPacket([]byte{mysql.EOFHeader, 0, 0, 0, 0, 0}), "too long to be an EOF packet")
	assert.False(t, isEOFPacket([]byte{0x01}))
}

func TestDecodeErrorPacketWithSqlState(t *testing.T) {
	data := []byte{0xFF}
	code := make([]byte, 2)
	binary.LittleEndian.PutUint16(code, 1045)
	data = append(data, code...)
	data = append(data, []byte("#28000Access denied")...)

	err := decodeErrorPacket(data, 0)
	var serverErr *mysql.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, uint16(1045), serverErr.Code)
	assert.Equal(t, "28000", serverErr.State)
	assert.Equal(t, "Access denied", serverErr.Message)
}

func TestDecodeErrorPacketWithoutSqlState(t *testing.T) {
	data := []byte{0xFF}
	code := make([]byte, 2)
	binary.LittleEndian.PutUint16(code, 2013)
	data = append(data, code...)
	data = append(data, []byte("Lost connection")...)

	err := decodeErrorPacket(data, 0)
	var serverErr *mysql.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Empty(t, serverErr.State)
	assert.Equal(t, "Lost connection", serverErr.Message)
}

func TestDecodeOKPacketParsesAffectedRowsAndStatus(t *testing.T) {
	data := []byte{mysql.OKHeader, 5, 0}
	status := make([]byte, 2)
	binary.LittleEndian.PutUint16(status, 2)
	data = append(data, status...)
	warnings := make([]byte, 2)
	data = append(data, warnings...)

	r, err := decodeOKPacket(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), r.AffectedRows)
	assert.Equal(t, uint16(2), r.Status)
}

func TestDecodeTextRowSplitsLengthEncodedColumns(t *testing.T) {
	data := append([]byte{3}, []byte("foo")...)
	data = append(data, 5)
	data = append(data, []byte("hello")...)

	values, err := decodeTextRow(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "hello"}, values)
}
