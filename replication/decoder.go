package replication

import (
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// EventDecoder holds the mutable state needed to decode a binlog stream:
// the negotiated checksum algorithm (adopted from the first
// FormatDescriptionEvent) and the TableMapEvent cache rows events are
// resolved against (§4.8).
type EventDecoder struct {
	checksumType  mysql.ChecksumType
	checksumKnown bool
	tableMapByID  map[uint64]*TableMapEvent
}

// NewEventDecoder builds a decoder with no checksum adopted yet and an
// empty table map cache; the checksum algorithm is adopted from the
// stream's first FormatDescriptionEvent, as when reading a standalone
// binlog file (§4.12).
func NewEventDecoder() *EventDecoder {
	return &EventDecoder{
		checksumType: mysql.ChecksumNone,
		tableMapByID: make(map[uint64]*TableMapEvent),
	}
}

// NewEventDecoderWithChecksum builds a decoder that already knows the
// session's negotiated checksum algorithm (via SELECT @master_binlog_checksum
// during session setup), so a live dump stream's first FormatDescriptionEvent
// has its trailing checksum bytes stripped correctly. That negotiated value
// is authoritative and is not overwritten by the FormatDescriptionEvent's own
// (unreliable without a live session's prior negotiation) checksum-type byte
// (§4.6, §4.8).
func NewEventDecoderWithChecksum(checksumType mysql.ChecksumType) *EventDecoder {
	d := NewEventDecoder()
	d.checksumType = checksumType
	d.checksumKnown = true
	return d
}

// ChecksumType returns the checksum algorithm this decoder currently uses,
// which is adopted from session negotiation or the stream's first
// FormatDescriptionEvent.
func (d *EventDecoder) ChecksumType() mysql.ChecksumType {
	return d.checksumType
}

// lookupTableMap resolves a rows event's table_id against the cache,
// failing with SchemaMissing if no preceding TableMapEvent was seen (§4.8).
func (d *EventDecoder) lookupTableMap(tableID uint64) (*TableMapEvent, error) {
	table, ok := d.tableMapByID[tableID]
	if !ok {
		return nil, errors.Trace(mysql.ErrTableMapMissing)
	}
	return table, nil
}

// DecodeEvent decodes one complete on-wire event (header + body, with the
// trailing checksum, if any, stripped before the body is handed to the
// type-specific decoder) (§4.8).
func (d *EventDecoder) DecodeEvent(raw []byte) (*BinlogEvent, error) {
	if len(raw) < EventHeaderSize {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}
	header := &EventHeader{}
	if err := header.Decode(raw[:EventHeaderSize]); err != nil {
		return nil, err
	}

	checksumLen := d.checksumType.ChecksumLength()
	bodyEnd := len(raw) - checksumLen
	if bodyEnd < EventHeaderSize {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}
	payload := raw[EventHeaderSize:bodyEnd]

	if header.Flags&logEventCompressed != 0 {
		decompressed, err := decompressMariaDB(payload)
		if err != nil {
			return nil, err
		}
		payload = decompressed
	}

	event, err := d.decodeBody(header, payload)
	if err != nil {
		return nil, err
	}

	if fd, ok := event.(*FormatDescriptionEvent); ok && !d.checksumKnown {
		d.checksumType = fd.ChecksumType
		d.checksumKnown = true
	}
	if tm, ok := event.(*TableMapEvent); ok {
		d.tableMapByID[tm.TableID] = tm
	}

	return &BinlogEvent{RawData: raw, Header: header, Event: event}, nil
}

func (d *EventDecoder) decodeBody(header *EventHeader, payload []byte) (Event, error) {
	var event Event
	switch header.EventType {
	case FormatDescriptionEventType:
		event = &FormatDescriptionEvent{}
	case RotateEventType:
		event = &RotateEvent{}
	case HeartbeatEventType:
		event = &HeartbeatEvent{}
	case QueryEventType:
		event = &QueryEvent{}
	case IntVarEventType:
		event = &IntVarEvent{}
	case UserVarEventType:
		event = &UserVarEvent{}
	case XidEventType:
		event = &XidEvent{}
	case TableMapEventType:
		event = &TableMapEvent{}
	case MySqlRowsQueryEventType, MariaDbAnnotateRowsEventType:
		event = &RowsQueryEvent{}
	case WriteRowsEventTypeV1:
		event = &WriteRowsEvent{rowsEventBase{tableMap: d.lookupTableMap, isV2: false}}
	case WriteRowsEventTypeV2:
		event = &WriteRowsEvent{rowsEventBase{tableMap: d.lookupTableMap, isV2: true}}
	case UpdateRowsEventTypeV1:
		event = &UpdateRowsEvent{tableMap: d.lookupTableMap, isV2: false}
	case UpdateRowsEventTypeV2:
		event = &UpdateRowsEvent{tableMap: d.lookupTableMap, isV2: true}
	case DeleteRowsEventTypeV1:
		event = &DeleteRowsEvent{rowsEventBase{tableMap: d.lookupTableMap, isV2: false}}
	case DeleteRowsEventTypeV2:
		event = &DeleteRowsEvent{rowsEventBase{tableMap: d.lookupTableMap, isV2: true}}
	case MySqlGtidEventType:
		event = &MySqlGtidEvent{}
	case MySqlPrevGtidsEventType:
		event = &MySqlPrevGtidsEvent{}
	case MariaDbGtidEventType:
		mdEvent := &MariaDbGtidEvent{}
		if err := mdEvent.Decode(payload); err != nil {
			return nil, errors.Annotatef(err, "decode %s event", header.EventType)
		}
		mdEvent.SetServerID(header.ServerID)
		return mdEvent, nil
	case MariaDbGtidListEventType:
		event = &MariaDbGtidListEvent{}
	default:
		event = &UnknownEvent{}
	}

	if err := event.Decode(payload); err != nil {
		return nil, errors.Annotatef(err, "decode %s event", header.EventType)
	}
	return event, nil
}
