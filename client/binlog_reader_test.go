package client

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/replication"
)

func encodeXidEvent(xid uint64) []byte {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, xid)

	header := make([]byte, replication.EventHeaderSize)
	header[4] = byte(replication.XidEventType)
	binary.LittleEndian.PutUint32(header[9:13], uint32(len(header)+len(body)))

	return append(header, body...)
}

func TestBinlogReaderRejectsBadMagic(t *testing.T) {
	_, err := NewBinlogReader(bytes.NewReader([]byte{0, 0, 0, 0}))
	require.Error(t, err)
}

func TestBinlogReaderReadsEventsUntilEOF(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(mysql.BinlogFileMagic[:])
	buf.Write(encodeXidEvent(42))
	buf.Write(encodeXidEvent(43))

	reader, err := NewBinlogReader(&buf)
	require.NoError(t, err)

	event, err := reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), event.Event.(*replication.XidEvent).XID)

	event, err = reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, uint64(43), event.Event.(*replication.XidEvent).XID)

	_, err = reader.ReadEvent()
	assert.Equal(t, io.EOF, err)
}
