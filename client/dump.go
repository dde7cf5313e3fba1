package client

import (
	"fmt"

	"github.com/rusuly/mysql-cdc/mysql"
)

// bindLogDumpFlag requests the server block and wait for new events rather
// than closing the stream once caught up (§4.3, §6).
const bindLogDumpFlag uint16 = 0x01

func (c *Conn) dumpFlags() uint16 {
	if c.options.Blocking {
		return bindLogDumpFlag
	}
	return 0
}

// wireServerID is the server_id advertised on the dump/register-slave wire
// commands: the configured id when blocking (the connection registers as a
// live replica waiting for new events), else 0 (§4.3, §6).
func (c *Conn) wireServerID() uint32 {
	if c.options.Blocking {
		return c.options.ServerID
	}
	return 0
}

// requestBinlogDump dispatches the provider-specific dump sequence of §4.7:
// MariaDB always negotiates GTID slave capability and, for a GTID start,
// registers as a replica first; MySQL picks between BINLOG_DUMP and
// BINLOG_DUMP_GTID directly.
func (c *Conn) requestBinlogDump() error {
	if c.isMariaDB() {
		return c.requestMariaDbDump()
	}
	return c.requestMySqlDump()
}

func (c *Conn) requestMySqlDump() error {
	opts := c.options.Binlog
	if opts.Strategy == mysql.FromGtid {
		if opts.MySqlGtidSet == nil {
			return mysql.NewError(mysql.KindProtocol, "FromGtid strategy requires a MySqlGtidSet on MySQL")
		}
		return c.sendBinlogDumpGtid(opts.Filename, uint64(opts.Position), c.wireServerID(), c.dumpFlags(), opts.MySqlGtidSet)
	}
	return c.sendBinlogDump(opts.Filename, opts.Position, c.wireServerID(), c.dumpFlags())
}

func (c *Conn) requestMariaDbDump() error {
	if err := c.execute("SET @mariadb_slave_capability = 4"); err != nil {
		return err
	}

	opts := c.options.Binlog
	if opts.Strategy == mysql.FromGtid {
		if opts.MariaDbGtidList == nil {
			return mysql.NewError(mysql.KindProtocol, "FromGtid strategy requires a MariaDbGtidList on MariaDB")
		}
		if err := c.execute(fmt.Sprintf("SET @slave_connect_state = '%s'", opts.MariaDbGtidList.String())); err != nil {
			return err
		}
		if err := c.execute("SET @slave_gtid_strict_mode = 0"); err != nil {
			return err
		}
		if err := c.execute("SET @slave_gtid_ignore_duplicates = 0"); err != nil {
			return err
		}
		if err := c.sendRegisterSlave(c.wireServerID()); err != nil {
			return err
		}
		if _, err := c.ReadPacket(); err != nil {
			return err
		}
	}

	return c.sendBinlogDump(opts.Filename, opts.Position, c.wireServerID(), c.dumpFlags())
}
