package client

import (
	"fmt"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// negotiateChecksum returns the checksum type negotiated during session
// setup; events are decoded checksum-aware using this value (§4.6, §4.8).
func (c *Conn) negotiateChecksum() (mysql.ChecksumType, error) {
	if err := c.execute("SET @master_binlog_checksum = @@global.binlog_checksum"); err != nil {
		return mysql.ChecksumNone, err
	}

	rows, err := c.query("SELECT @master_binlog_checksum")
	if err != nil {
		return mysql.ChecksumNone, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return mysql.ChecksumNone, nil
	}
	return mysql.ParseChecksumType(rows[0][0])
}

// setHeartbeat configures the server-side heartbeat period, converting an
// interval in milliseconds to the nanosecond units the server expects (§4.6).
func (c *Conn) setHeartbeat(interval int64) error {
	nanos := interval * 1_000_000
	return c.execute(fmt.Sprintf("SET @master_heartbeat_period = %d", nanos))
}

// resolveMasterStatus runs SHOW MASTER STATUS and returns the server's
// current binlog coordinate, used to resolve FromEnd (§4.6).
func (c *Conn) resolveMasterStatus() (string, uint32, error) {
	rows, err := c.query("SHOW MASTER STATUS")
	if err != nil {
		return "", 0, err
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return "", 0, mysql.NewError(mysql.KindProtocol, "SHOW MASTER STATUS returned no rows; is binary logging enabled?")
	}

	filename := rows[0][0]
	var position uint32
	if _, err := fmt.Sscanf(rows[0][1], "%d", &position); err != nil {
		return "", 0, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "parse SHOW MASTER STATUS position: %v", err), "SHOW MASTER STATUS")
	}
	return filename, position, nil
}

// setupSession performs the post-authentication session negotiation:
// resolves FromEnd to a concrete position, sets the heartbeat period, and
// negotiates checksum awareness (§4.6).
func (c *Conn) setupSession() (mysql.ChecksumType, error) {
	if c.options.Binlog.Strategy == mysql.FromEnd {
		filename, position, err := c.resolveMasterStatus()
		if err != nil {
			return mysql.ChecksumNone, err
		}
		c.options.Binlog.Filename = filename
		c.options.Binlog.Position = position
	}

	if c.options.HeartbeatInterval > 0 {
		if err := c.setHeartbeat(c.options.HeartbeatInterval.Milliseconds()); err != nil {
			return mysql.ChecksumNone, err
		}
	}

	return c.negotiateChecksum()
}
