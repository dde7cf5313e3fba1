package replication

// EventType is the one-byte binlog event type code carried by every
// EventHeader (§3, §4.8).
type EventType byte

const (
	QueryEventType                   EventType = 2
	StopEventType                    EventType = 3
	RotateEventType                  EventType = 4
	IntVarEventType                  EventType = 5
	RandEventType                    EventType = 13
	UserVarEventType                 EventType = 14
	FormatDescriptionEventType       EventType = 15
	XidEventType                     EventType = 16
	TableMapEventType                EventType = 19
	WriteRowsEventTypeV1             EventType = 23
	UpdateRowsEventTypeV1            EventType = 24
	DeleteRowsEventTypeV1            EventType = 25
	HeartbeatEventType               EventType = 27
	MySqlRowsQueryEventType          EventType = 29
	WriteRowsEventTypeV2             EventType = 30
	UpdateRowsEventTypeV2            EventType = 31
	DeleteRowsEventTypeV2            EventType = 32
	MySqlGtidEventType               EventType = 33
	MySqlPrevGtidsEventType          EventType = 35
	XaPrepareEventType               EventType = 38
	MariaDbAnnotateRowsEventType     EventType = 160
	MariaDbBinlogCheckpointEventType EventType = 161
	MariaDbGtidEventType             EventType = 162
	MariaDbGtidListEventType         EventType = 163
	MariaDbStartEncryptionEventType  EventType = 164
)

func (t EventType) String() string {
	switch t {
	case QueryEventType:
		return "Query"
	case StopEventType:
		return "Stop"
	case RotateEventType:
		return "Rotate"
	case IntVarEventType:
		return "IntVar"
	case RandEventType:
		return "Rand"
	case UserVarEventType:
		return "UserVar"
	case FormatDescriptionEventType:
		return "FormatDescription"
	case XidEventType:
		return "Xid"
	case TableMapEventType:
		return "TableMap"
	case WriteRowsEventTypeV1, WriteRowsEventTypeV2:
		return "WriteRows"
	case UpdateRowsEventTypeV1, UpdateRowsEventTypeV2:
		return "UpdateRows"
	case DeleteRowsEventTypeV1, DeleteRowsEventTypeV2:
		return "DeleteRows"
	case HeartbeatEventType:
		return "Heartbeat"
	case MySqlRowsQueryEventType:
		return "RowsQuery"
	case MySqlGtidEventType:
		return "MySqlGtid"
	case MySqlPrevGtidsEventType:
		return "MySqlPrevGtids"
	case XaPrepareEventType:
		return "XaPrepare"
	case MariaDbAnnotateRowsEventType:
		return "MariaDbAnnotateRows"
	case MariaDbBinlogCheckpointEventType:
		return "MariaDbBinlogCheckpoint"
	case MariaDbGtidEventType:
		return "MariaDbGtid"
	case MariaDbGtidListEventType:
		return "MariaDbGtidList"
	case MariaDbStartEncryptionEventType:
		return "MariaDbStartEncryption"
	default:
		return "Unknown"
	}
}
