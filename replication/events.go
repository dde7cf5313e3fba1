package replication

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// FormatDescriptionEvent is the first event of every binlog stream/file; it
// carries the checksum algorithm the rest of the stream uses (§4.8).
type FormatDescriptionEvent struct {
	BinlogVersion          uint16
	ServerVersion          string
	CreateTimestamp        uint32
	EventHeaderLength      uint8
	EventTypeHeaderLengths []byte
	ChecksumType           mysql.ChecksumType
}

// eventTypesOffset is where the per-event-type header-length table begins
// within a FormatDescriptionEvent payload, after the fixed fields.
const eventTypesOffset = 2 + 50 + 4 + 1

// formatDescriptionEventTypeCode is the numeric code of this event itself,
// used to locate the trailing checksum-type byte within the header-length
// table (§4.8).
const formatDescriptionEventTypeCode = 15

func (e *FormatDescriptionEvent) Decode(data []byte) error {
	if len(data) < eventTypesOffset {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	pos := 0
	e.BinlogVersion = binary.LittleEndian.Uint16(data[pos:])
	pos += 2

	serverVersionRaw := data[pos : pos+50]
	pos += 50
	if idx := bytes.IndexByte(serverVersionRaw, 0); idx >= 0 {
		e.ServerVersion = string(serverVersionRaw[:idx])
	} else {
		e.ServerVersion = string(serverVersionRaw)
	}

	e.CreateTimestamp = binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	e.EventHeaderLength = data[pos]
	pos++
	if e.EventHeaderLength != EventHeaderSize {
		return errors.Trace(mysql.NewError(mysql.KindProtocol, "invalid event header length %d, must be %d", e.EventHeaderLength, EventHeaderSize))
	}

	payloadLength := data[pos+formatDescriptionEventTypeCode-1]
	expectedLength := len(data)
	if int(payloadLength) != expectedLength {
		// cursor sits just past the payload-length byte just read; skipping
		// by payload_length - EVENT_TYPES_OFFSET - 15 from there lands on
		// the checksum-type byte at absolute offset payload_length.
		cursor := pos + formatDescriptionEventTypeCode
		skip := int(payloadLength) - eventTypesOffset - formatDescriptionEventTypeCode
		checksumPos := cursor + skip
		if checksumPos >= 0 && checksumPos < len(data) {
			switch data[checksumPos] {
			case 1:
				e.ChecksumType = mysql.ChecksumCRC32
			default:
				e.ChecksumType = mysql.ChecksumNone
			}
		}
	} else {
		e.ChecksumType = mysql.ChecksumNone
	}

	e.EventTypeHeaderLengths = data[pos:]
	return nil
}

func (e *FormatDescriptionEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Binlog version: %d\n", e.BinlogVersion)
	fmt.Fprintf(w, "Server version: %s\n", e.ServerVersion)
	fmt.Fprintf(w, "Checksum type: %d\n", e.ChecksumType)
	fmt.Fprintln(w)
}

// RotateEvent marks the server switching to a new binlog file (§4.8).
type RotateEvent struct {
	Position    uint64
	NextLogFile string
}

func (e *RotateEvent) Decode(data []byte) error {
	if len(data) < 8 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.Position = binary.LittleEndian.Uint64(data[0:8])
	e.NextLogFile = string(data[8:])
	return nil
}

func (e *RotateEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Position: %d\n", e.Position)
	fmt.Fprintf(w, "Next log file: %s\n", e.NextLogFile)
	fmt.Fprintln(w)
}

// HeartbeatEvent is sent by the server as a keep-alive when no new events
// occur within the negotiated heartbeat period (§4.8).
type HeartbeatEvent struct {
	CurrentLogFile string
}

func (e *HeartbeatEvent) Decode(data []byte) error {
	e.CurrentLogFile = string(data)
	return nil
}

func (e *HeartbeatEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Current log file: %s\n", e.CurrentLogFile)
	fmt.Fprintln(w)
}

// QueryEvent carries a non-row-based statement (DDL, or DML under statement
// replication) (§4.8).
type QueryEvent struct {
	ThreadID     uint32
	Duration     uint32
	ErrorCode    uint16
	StatusVars   []byte
	DatabaseName string
	SQL          string
}

func (e *QueryEvent) Decode(data []byte) error {
	pos := 0
	e.ThreadID = binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	e.Duration = binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	dbNameLen := int(data[pos])
	pos++

	e.ErrorCode = binary.LittleEndian.Uint16(data[pos:])
	pos += 2

	statusVarsLen := int(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	if pos+statusVarsLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.StatusVars = data[pos : pos+statusVarsLen]
	pos += statusVarsLen

	if pos+dbNameLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.DatabaseName = string(data[pos : pos+dbNameLen])
	pos += dbNameLen

	pos++ // skip trailing NUL after the schema name

	e.SQL = string(data[pos:])
	return nil
}

func (e *QueryEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Thread id: %d\n", e.ThreadID)
	fmt.Fprintf(w, "Duration: %d\n", e.Duration)
	fmt.Fprintf(w, "Error code: %d\n", e.ErrorCode)
	fmt.Fprintf(w, "Database: %s\n", e.DatabaseName)
	fmt.Fprintf(w, "SQL: %s\n", e.SQL)
	fmt.Fprintln(w)
}

// IntVarEventType distinguishes the kind of session variable an IntVarEvent
// carries.
type IntVarEventType byte

const (
	IntVarInvalid      IntVarEventType = 0
	IntVarLastInsertID IntVarEventType = 1
	IntVarInsertID     IntVarEventType = 2
)

// IntVarEvent carries a LAST_INSERT_ID or INSERT_ID value consumed by a
// following QueryEvent under statement replication (§4.8).
type IntVarEvent struct {
	Type  IntVarEventType
	Value uint64
}

func (e *IntVarEvent) Decode(data []byte) error {
	if len(data) < 9 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.Type = IntVarEventType(data[0])
	e.Value = binary.LittleEndian.Uint64(data[1:9])
	return nil
}

func (e *IntVarEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Type: %d\n", e.Type)
	fmt.Fprintf(w, "Value: %d\n", e.Value)
	fmt.Fprintln(w)
}

// XidEvent marks the commit of a transaction (§4.8).
type XidEvent struct {
	XID uint64
}

func (e *XidEvent) Decode(data []byte) error {
	if len(data) < 8 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.XID = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

func (e *XidEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "XID: %d\n", e.XID)
	fmt.Fprintln(w)
}

// UserVarEvent carries a SET @var = value session variable assignment
// (§4.8).
type UserVarEvent struct {
	Name       string
	IsNull     bool
	Type       byte
	Collation  uint32
	Value      []byte
	Flags      byte
}

func (e *UserVarEvent) Decode(data []byte) error {
	pos := 0
	nameLen := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if pos+nameLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.Name = string(data[pos : pos+nameLen])
	pos += nameLen

	e.IsNull = data[pos] != 0
	pos++
	if e.IsNull {
		return nil
	}

	e.Type = data[pos]
	pos++
	e.Collation = binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	valueLen := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if pos+valueLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.Value = data[pos : pos+valueLen]
	pos += valueLen
	if pos < len(data) {
		e.Flags = data[pos]
	}
	return nil
}

func (e *UserVarEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Name: %s\n", e.Name)
	fmt.Fprintf(w, "Is null: %v\n", e.IsNull)
	fmt.Fprintf(w, "Value: %v\n", e.Value)
	fmt.Fprintln(w)
}

// RowsQueryEvent (MySQL's MysqlRowsQuery / MariaDB's AnnotateRows) carries
// the original SQL statement alongside the row events it produced (§4.8).
type RowsQueryEvent struct {
	Query string
}

func (e *RowsQueryEvent) Decode(data []byte) error {
	// MySQL prefixes this payload with a length byte; MariaDB's
	// AnnotateRows does not. Both forms surface the same information, so
	// this accepts the raw remainder when the length byte is absent or
	// inconsistent with the payload size.
	if len(data) > 0 && int(data[0]) == len(data)-1 {
		e.Query = string(data[1:])
		return nil
	}
	e.Query = string(data)
	return nil
}

func (e *RowsQueryEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Query: %s\n", e.Query)
	fmt.Fprintln(w)
}
