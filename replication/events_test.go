package replication

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDescriptionEventDecodeParsesServerVersion(t *testing.T) {
	// fixed fields (57 bytes) plus a full event-type-header-length table so
	// the trailing checksum-type lookup stays in bounds.
	body := make([]byte, 73)
	binary.LittleEndian.PutUint16(body[0:2], 4)
	copy(body[2:], "8.0.32-log")
	body[56] = EventHeaderSize

	e := &FormatDescriptionEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, "8.0.32-log", e.ServerVersion)
	assert.Equal(t, uint16(4), e.BinlogVersion)
}

func TestFormatDescriptionEventDecodeRejectsWrongHeaderLength(t *testing.T) {
	body := make([]byte, 73)
	body[56] = 18
	e := &FormatDescriptionEvent{}
	assert.Error(t, e.Decode(body))
}

func TestRotateEventDecode(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, 4)
	body = append(body, []byte("bin.000002")...)

	e := &RotateEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, uint64(4), e.Position)
	assert.Equal(t, "bin.000002", e.NextLogFile)
}

func TestQueryEventDecode(t *testing.T) {
	statusVars := []byte{0x01, 0x02}
	body := make([]byte, 0, 64)
	threadID := make([]byte, 4)
	binary.LittleEndian.PutUint32(threadID, 55)
	body = append(body, threadID...)
	duration := make([]byte, 4)
	binary.LittleEndian.PutUint32(duration, 0)
	body = append(body, duration...)
	body = append(body, byte(len("mydb"))) // db name length
	errCode := make([]byte, 2)
	body = append(body, errCode...)
	statusLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(statusLen, uint16(len(statusVars)))
	body = append(body, statusLen...)
	body = append(body, statusVars...)
	body = append(body, []byte("mydb")...)
	body = append(body, 0) // trailing NUL
	body = append(body, []byte("CREATE TABLE t (id INT)")...)

	e := &QueryEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, uint32(55), e.ThreadID)
	assert.Equal(t, "mydb", e.DatabaseName)
	assert.Equal(t, "CREATE TABLE t (id INT)", e.SQL)
}

func TestIntVarEventDecode(t *testing.T) {
	body := make([]byte, 9)
	body[0] = byte(IntVarInsertID)
	binary.LittleEndian.PutUint64(body[1:], 1001)

	e := &IntVarEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, IntVarInsertID, e.Type)
	assert.Equal(t, uint64(1001), e.Value)
}

func TestUserVarEventDecodeNullValue(t *testing.T) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 3)
	body = append(body, []byte("foo")...)
	body = append(body, 1) // is_null = true

	e := &UserVarEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, "foo", e.Name)
	assert.True(t, e.IsNull)
}

func TestUserVarEventDecodeNonNullValue(t *testing.T) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 3)
	body = append(body, []byte("foo")...)
	body = append(body, 0) // is_null = false
	body = append(body, 3) // type byte
	collation := make([]byte, 4)
	binary.LittleEndian.PutUint32(collation, 33)
	body = append(body, collation...)
	valueLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(valueLen, 5)
	body = append(body, valueLen...)
	body = append(body, []byte("hello")...)

	e := &UserVarEvent{}
	require.NoError(t, e.Decode(body))
	assert.False(t, e.IsNull)
	assert.Equal(t, []byte("hello"), e.Value)
}

func TestRowsQueryEventDecodeWithLengthPrefix(t *testing.T) {
	query := "INSERT INTO t VALUES (1)"
	body := append([]byte{byte(len(query))}, []byte(query)...)

	e := &RowsQueryEvent{}
	require.NoError(t, e.Decode(body))
	assert.Equal(t, query, e.Query)
}

func TestRowsQueryEventDecodeWithoutLengthPrefix(t *testing.T) {
	query := "INSERT INTO t VALUES (1)"
	e := &RowsQueryEvent{}
	require.NoError(t, e.Decode([]byte(query)))
	assert.Equal(t, query, e.Query)
}

func TestUnknownEventRetainsRawData(t *testing.T) {
	e := &UnknownEvent{}
	require.NoError(t, e.Decode([]byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, e.Data)
}

func TestEventTypeStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "Xid", XidEventType.String())
	assert.Equal(t, "WriteRows", WriteRowsEventTypeV1.String())
	assert.Equal(t, "WriteRows", WriteRowsEventTypeV2.String())
	assert.Equal(t, "Unknown", EventType(250).String())
}

func TestEventHeaderDecodeRejectsShortEventSize(t *testing.T) {
	data := make([]byte, EventHeaderSize)
	binary.LittleEndian.PutUint32(data[9:13], 5) // event_size < header size
	h := &EventHeader{}
	assert.Error(t, h.Decode(data))
}
