// Package client implements the replica-side session: connect, authenticate,
// negotiate session parameters, dispatch a binlog dump, and decode the
// resulting event stream.
package client

import (
	"time"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/schema"
)

// BinlogOptions selects where a session's event stream begins and tracks
// the position the session has advanced to (§6). Apart from session setup
// resolving FromEnd to a concrete filename and position, all mutation
// happens via Commit.
type BinlogOptions struct {
	Strategy mysql.StartingStrategy
	Filename string
	Position uint32

	MySqlGtidSet   *mysql.GtidSet
	MariaDbGtidList *mysql.GtidList
}

// FromStart begins replication at the first event of the earliest binlog
// file the server retains.
func FromStart() BinlogOptions {
	return BinlogOptions{Strategy: mysql.FromStart, Position: mysql.FirstEventPosition}
}

// FromEnd begins replication at the server's current binlog tip, resolved
// via SHOW MASTER STATUS during session setup.
func FromEnd() BinlogOptions {
	return BinlogOptions{Strategy: mysql.FromEnd, Position: 0}
}

// FromPosition begins replication at an explicit (filename, position).
func FromPosition(filename string, position uint32) BinlogOptions {
	return BinlogOptions{Strategy: mysql.FromPosition, Filename: filename, Position: position}
}

// FromMySqlGtid begins replication from a MySQL GtidSet.
func FromMySqlGtid(set *mysql.GtidSet) BinlogOptions {
	return BinlogOptions{Strategy: mysql.FromGtid, MySqlGtidSet: set}
}

// FromMariaDbGtid begins replication from a MariaDB GtidList.
func FromMariaDbGtid(list *mysql.GtidList) BinlogOptions {
	return BinlogOptions{Strategy: mysql.FromGtid, MariaDbGtidList: list}
}

// ReplicaOptions configures a BinlogClient session (§6).
type ReplicaOptions struct {
	Hostname string
	Port     uint16
	Username string
	Password string
	Database string

	ServerID uint32
	Blocking bool

	HeartbeatInterval time.Duration
	SslMode           mysql.SslMode

	Binlog BinlogOptions

	// IncludedEventTypes, when non-nil, restricts replicate() to only the
	// named event types; all others are still decoded (so TableMap/GTID
	// bookkeeping stays correct) but not yielded to the caller.
	IncludedEventTypes map[string]bool

	// SchemaResolver is optional; when set, row events missing column-name
	// metadata are enriched via INFORMATION_SCHEMA lookups (§4.14).
	SchemaResolver *schema.Resolver
}

// NewReplicaOptions returns the documented defaults (§6).
func NewReplicaOptions() ReplicaOptions {
	return ReplicaOptions{
		Hostname:          "localhost",
		Port:              3306,
		ServerID:          65535,
		Blocking:          true,
		HeartbeatInterval: 30 * time.Second,
		SslMode:           mysql.SslDisabled,
		Binlog:            FromStart(),
	}
}
