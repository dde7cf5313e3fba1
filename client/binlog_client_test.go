package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/replication"
)

func header(logPos uint32) *replication.EventHeader {
	return &replication.EventHeader{LogPos: logPos}
}

func TestCommitSkipsPositionOnTableMapEvent(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 100)})
	c.Commit(header(500), &replication.TableMapEvent{})
	assert.Equal(t, uint32(100), c.Options().Binlog.Position, "TableMapEvent must never advance position")
}

func TestCommitTakesFilenameAndPositionFromRotateEvent(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 100)})
	c.Commit(header(999), &replication.RotateEvent{NextLogFile: "bin.000002", Position: 4})
	assert.Equal(t, "bin.000002", c.Options().Binlog.Filename)
	assert.Equal(t, uint32(4), c.Options().Binlog.Position)
}

func TestCommitAdoptsLogPosWhenNonzero(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 100)})
	c.Commit(header(777), &replication.XidEvent{XID: 1})
	assert.Equal(t, uint32(777), c.Options().Binlog.Position)
}

func TestCommitIgnoresZeroLogPos(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 100)})
	c.Commit(header(0), &replication.XidEvent{XID: 1})
	assert.Equal(t, uint32(100), c.Options().Binlog.Position)
}

func TestCommitPromotesMySqlGtidOnXid(t *testing.T) {
	source := uuid.New()
	c := NewBinlogClient(ReplicaOptions{Binlog: FromMySqlGtid(mysql.NewGtidSet())})

	c.Commit(header(10), &replication.MySqlGtidEvent{SourceUUID: source, TransactionID: 5})
	assert.Empty(t, c.Options().Binlog.MySqlGtidSet.String(), "gtid must stay pending until the transaction's Xid")

	c.Commit(header(20), &replication.XidEvent{XID: 1})
	assert.Equal(t, source.String()+":5", c.Options().Binlog.MySqlGtidSet.String())
}

func TestCommitPromotesMySqlGtidOnAutoCommitDDL(t *testing.T) {
	source := uuid.New()
	c := NewBinlogClient(ReplicaOptions{Binlog: FromMySqlGtid(mysql.NewGtidSet())})

	c.Commit(header(10), &replication.MySqlGtidEvent{SourceUUID: source, TransactionID: 1})
	c.Commit(header(20), &replication.QueryEvent{SQL: "CREATE TABLE t (id INT)"})
	assert.Equal(t, source.String()+":1", c.Options().Binlog.MySqlGtidSet.String(),
		"a non-empty statement outside BEGIN is an auto-committing DDL and promotes immediately")
}

func TestCommitDefersGtidPromotionInsideTransaction(t *testing.T) {
	source := uuid.New()
	c := NewBinlogClient(ReplicaOptions{Binlog: FromMySqlGtid(mysql.NewGtidSet())})

	c.Commit(header(10), &replication.MySqlGtidEvent{SourceUUID: source, TransactionID: 1})
	c.Commit(header(20), &replication.QueryEvent{SQL: "BEGIN"})
	c.Commit(header(30), &replication.QueryEvent{SQL: "INSERT INTO t VALUES (1)"})
	assert.Empty(t, c.Options().Binlog.MySqlGtidSet.String(), "inside an open BEGIN, only COMMIT/ROLLBACK promotes")

	c.Commit(header(40), &replication.QueryEvent{SQL: "COMMIT"})
	assert.Equal(t, source.String()+":1", c.Options().Binlog.MySqlGtidSet.String())
}

func TestCommitIgnoresGtidWhenNotUsingGtidStrategy(t *testing.T) {
	source := uuid.New()
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 0)})

	c.Commit(header(10), &replication.MySqlGtidEvent{SourceUUID: source, TransactionID: 1})
	c.Commit(header(20), &replication.XidEvent{XID: 1})
	assert.Nil(t, c.Options().Binlog.MySqlGtidSet, "gtid tracking is only active under FromGtid")
}

func TestCommitPromotesMariaDbGtidOnXid(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromMariaDbGtid(mysql.NewGtidList())})

	g := mysql.Gtid{DomainID: 0, ServerID: 1, Sequence: 42}
	c.Commit(header(10), &replication.MariaDbGtidEvent{Gtid: g})
	require.Empty(t, c.Options().Binlog.MariaDbGtidList.String())

	c.Commit(header(20), &replication.XidEvent{XID: 1})
	assert.Equal(t, "0-1-42", c.Options().Binlog.MariaDbGtidList.String())
}

func TestOptionsReturnsASnapshotNotALiveAlias(t *testing.T) {
	c := NewBinlogClient(ReplicaOptions{Binlog: FromPosition("bin.000001", 1)})
	snapshot := c.Options()
	c.Commit(header(42), &replication.XidEvent{})
	assert.Equal(t, uint32(1), snapshot.Binlog.Position, "a snapshot taken before Commit must not observe later mutation")
	assert.Equal(t, uint32(42), c.Options().Binlog.Position)
}
