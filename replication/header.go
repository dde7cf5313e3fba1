package replication

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// EventHeaderSize is the fixed 19-byte binlog event header length (§3, §4.8).
const EventHeaderSize = 19

// EventHeader is the fixed-size header every binlog event carries (§3).
type EventHeader struct {
	Timestamp uint32
	EventType EventType
	ServerID  uint32
	EventSize uint32
	LogPos    uint32
	Flags     uint16
}

// Decode parses the 19-byte event header.
func (h *EventHeader) Decode(data []byte) error {
	if len(data) < EventHeaderSize {
		return errors.Trace(mysql.NewError(mysql.KindProtocol, "event header too short: %d bytes, need %d", len(data), EventHeaderSize))
	}

	h.Timestamp = binary.LittleEndian.Uint32(data[0:4])
	h.EventType = EventType(data[4])
	h.ServerID = binary.LittleEndian.Uint32(data[5:9])
	h.EventSize = binary.LittleEndian.Uint32(data[9:13])
	h.LogPos = binary.LittleEndian.Uint32(data[13:17])
	h.Flags = binary.LittleEndian.Uint16(data[17:19])

	if h.EventSize < EventHeaderSize {
		return errors.Trace(mysql.NewError(mysql.KindProtocol, "invalid event size %d, must be >= %d", h.EventSize, EventHeaderSize))
	}
	return nil
}

func (h *EventHeader) Dump(w io.Writer) {
	fmt.Fprintf(w, "=== %s ===\n", h.EventType)
	fmt.Fprintf(w, "Timestamp: %d\n", h.Timestamp)
	fmt.Fprintf(w, "Server id: %d\n", h.ServerID)
	fmt.Fprintf(w, "Log position: %d\n", h.LogPos)
	fmt.Fprintf(w, "Event size: %d\n", h.EventSize)
}

// Event is the decode/dump contract every event body type implements,
// dispatched from EventType the way the teacher dispatches its event sum
// type (§3).
type Event interface {
	Decode(data []byte) error
	Dump(w io.Writer)
}

// BinlogEvent pairs a decoded header with its decoded body, plus the raw
// bytes the pair was decoded from (§3).
type BinlogEvent struct {
	RawData []byte
	Header  *EventHeader
	Event   Event
}

func (e *BinlogEvent) Dump(w io.Writer) {
	e.Header.Dump(w)
	e.Event.Dump(w)
}

// UnknownEvent is produced for any event type code the decoder does not
// recognize (§4.8: "Unknown codes produce Unknown (no failure)").
type UnknownEvent struct {
	Data []byte
}

func (e *UnknownEvent) Decode(data []byte) error {
	e.Data = data
	return nil
}

func (e *UnknownEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Unknown event, %d bytes\n", len(e.Data))
}
