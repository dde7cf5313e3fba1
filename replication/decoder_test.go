package replication

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
)

func encodeEvent(eventType EventType, body []byte) []byte {
	header := make([]byte, EventHeaderSize)
	header[4] = byte(eventType)
	binary.LittleEndian.PutUint32(header[9:13], uint32(len(header)+len(body)))
	return append(header, body...)
}

func TestDecodeEventDispatchesXid(t *testing.T) {
	d := NewEventDecoder()
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, 99)

	event, err := d.DecodeEvent(encodeEvent(XidEventType, body))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), event.Event.(*XidEvent).XID)
}

func TestDecodeEventUnknownTypeProducesUnknownEvent(t *testing.T) {
	d := NewEventDecoder()
	event, err := d.DecodeEvent(encodeEvent(EventType(250), []byte("garbage")))
	require.NoError(t, err)
	_, ok := event.Event.(*UnknownEvent)
	assert.True(t, ok)
}

func TestDecodeEventRowsEventWithoutTableMapFails(t *testing.T) {
	d := NewEventDecoder()
	// table_id=7 (6 bytes), flags=0 (2 bytes), extra_data_len=2 (2 bytes, no
	// extra data), columns_count=1 (1 length-encoded byte).
	body := []byte{7, 0, 0, 0, 0, 0, 0, 0, 2, 0, 1}
	_, err := d.DecodeEvent(encodeEvent(WriteRowsEventTypeV2, body))
	require.Error(t, err)
	assert.True(t, mysql.IsKind(err, mysql.KindSchemaMissing))
}

func TestDecodeEventCachesTableMapForLaterRowsEvents(t *testing.T) {
	d := NewEventDecoder()

	tableMapBody := append([]byte{1, 0, 0, 0, 0, 0}, []byte{4, 0}...)
	tableMapBody = append(tableMapBody, 0)          // schema name length 0
	tableMapBody = append(tableMapBody, 0)          // schema name NUL
	tableMapBody = append(tableMapBody, 0)          // table name length 0
	tableMapBody = append(tableMapBody, 0)          // table name NUL
	tableMapBody = append(tableMapBody, 1)          // column count = 1
	tableMapBody = append(tableMapBody, byte(mysql.ColumnTypeLong))
	tableMapBody = append(tableMapBody, 0) // metadata block length 0

	_, err := d.DecodeEvent(encodeEvent(TableMapEventType, tableMapBody))
	require.NoError(t, err)

	_, ok := d.tableMapByID[1]
	assert.True(t, ok, "TableMapEvent must be cached by table_id")
}

func TestDecodeEventTruncatedHeaderFails(t *testing.T) {
	d := NewEventDecoder()
	_, err := d.DecodeEvent(make([]byte, 5))
	require.Error(t, err)
}

func TestDecodeEventAdoptsChecksumFromFormatDescription(t *testing.T) {
	d := NewEventDecoder()

	// 89-byte body: fixed fields (57 bytes) + an event-type header table
	// whose own declared length (at index 71, the byte at
	// EVENT_TYPES_OFFSET+15-1) is 84, landing the checksum-type byte at
	// absolute offset 84 — short of the body's real 89-byte length, which is
	// exactly the mismatch that triggers checksum-byte detection.
	body := make([]byte, 89)
	binary.LittleEndian.PutUint16(body[0:2], 4)
	body[56] = EventHeaderSize
	body[71] = 84
	body[84] = 1 // checksum type byte: CRC32

	_, err := d.DecodeEvent(encodeEvent(FormatDescriptionEventType, body))
	require.NoError(t, err)
	assert.Equal(t, mysql.ChecksumCRC32, d.ChecksumType())
}

func TestDecodeEventWithNegotiatedChecksumIgnoresFormatDescriptionByte(t *testing.T) {
	d := NewEventDecoderWithChecksum(mysql.ChecksumCRC32)

	// Same mismatched layout as above, but this time reporting ChecksumNone
	// (byte 0) — a live session's negotiated checksum must win regardless.
	body := make([]byte, 89)
	binary.LittleEndian.PutUint16(body[0:2], 4)
	body[56] = EventHeaderSize
	body[71] = 84
	body[84] = 0

	_, err := d.DecodeEvent(encodeEvent(FormatDescriptionEventType, body))
	require.NoError(t, err)
	assert.Equal(t, mysql.ChecksumCRC32, d.ChecksumType(), "a live session's negotiated checksum must not be overwritten")
}
