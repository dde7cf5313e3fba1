package client

import (
	"encoding/binary"

	"github.com/rusuly/mysql-cdc/mysql"
)

const baseCapability = mysql.ClientLongFlag | mysql.ClientProtocol41 |
	mysql.ClientSecureConn | mysql.ClientPluginAuth

// sendSslRequest sends an SSL_REQUEST packet. The sequence counter is not
// reset, so the packet continues the handshake exchange's numbering (§4.3).
func (c *Conn) sendSslRequest() error {
	capability := baseCapability | mysql.ClientSSL
	buf := make([]byte, 4+4+1+23)
	binary.LittleEndian.PutUint32(buf[0:4], capability)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	buf[8] = mysql.UTF8MB4GeneralCI
	return c.WritePacket(buf)
}

// sendAuthenticate sends the AUTHENTICATE packet (§4.3).
func (c *Conn) sendAuthenticate(scrambledPassword []byte) error {
	capability := baseCapability
	if c.options.Database != "" {
		capability |= mysql.ClientConnectWithDB
	}

	buf := make([]byte, 4+4+1+23)
	binary.LittleEndian.PutUint32(buf[0:4], capability)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	buf[8] = mysql.UTF8MB4GeneralCI

	buf = append(buf, []byte(c.options.Username)...)
	buf = append(buf, 0)

	buf = append(buf, byte(len(scrambledPassword)))
	buf = append(buf, scrambledPassword...)

	if c.options.Database != "" {
		buf = append(buf, []byte(c.options.Database)...)
		buf = append(buf, 0)
	}

	buf = append(buf, []byte(c.authPluginName)...)
	buf = append(buf, 0)

	return c.WritePacket(buf)
}

// sendQuery issues a text-protocol COM_QUERY (§4.3).
func (c *Conn) sendQuery(sql string) error {
	c.ResetSequence()
	buf := make([]byte, 1, 1+len(sql))
	buf[0] = mysql.ComQuery
	buf = append(buf, []byte(sql)...)
	return c.WritePacket(buf)
}

// query issues sql and reads back its result-set rows as decoded strings.
func (c *Conn) query(sql string) ([][]string, error) {
	if err := c.sendQuery(sql); err != nil {
		return nil, err
	}
	rawRows, err := c.readResultSet()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(rawRows))
	for _, raw := range rawRows {
		row, err := decodeTextRow(raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// execute issues sql expecting an OK response (a DDL/SET statement).
func (c *Conn) execute(sql string) error {
	if err := c.sendQuery(sql); err != nil {
		return err
	}
	data, err := c.ReadPacket()
	if err != nil {
		return err
	}
	if !isOKPacket(data) {
		return mysql.NewError(mysql.KindProtocol, "expected OK response to %q", sql)
	}
	return nil
}

// sendRegisterSlave issues COM_REGISTER_SLAVE (§4.3).
func (c *Conn) sendRegisterSlave(serverID uint32) error {
	c.ResetSequence()
	buf := make([]byte, 1, 1+4+1+1+1+2+4+4)
	buf[0] = mysql.ComRegisterSlave
	buf = binary.LittleEndian.AppendUint32(buf, serverID)
	buf = append(buf, 0) // host (zero-length)
	buf = append(buf, 0) // user (zero-length)
	buf = append(buf, 0) // password (zero-length)
	buf = binary.LittleEndian.AppendUint16(buf, 0) // port
	buf = binary.LittleEndian.AppendUint32(buf, 0) // rank
	buf = binary.LittleEndian.AppendUint32(buf, 0) // master id
	return c.WritePacket(buf)
}

// sendBinlogDump issues COM_BINLOG_DUMP (§4.3).
func (c *Conn) sendBinlogDump(filename string, position uint32, serverID uint32, flags uint16) error {
	c.ResetSequence()
	buf := make([]byte, 1, 1+4+2+4+len(filename))
	buf[0] = mysql.ComBinlogDump
	buf = binary.LittleEndian.AppendUint32(buf, position)
	buf = binary.LittleEndian.AppendUint16(buf, flags)
	buf = binary.LittleEndian.AppendUint32(buf, serverID)
	buf = append(buf, []byte(filename)...)
	return c.WritePacket(buf)
}

// sendBinlogDumpGtid issues COM_BINLOG_DUMP_GTID (§4.3).
func (c *Conn) sendBinlogDumpGtid(filename string, position uint64, serverID uint32, flags uint16, gtidSet *mysql.GtidSet) error {
	c.ResetSequence()
	encodedGtid := gtidSet.EncodeBinlogDumpGTID()

	buf := make([]byte, 1, 1+2+4+4+len(filename)+8+4+len(encodedGtid))
	buf[0] = mysql.ComBinlogDumpGTID
	buf = binary.LittleEndian.AppendUint16(buf, flags)
	buf = binary.LittleEndian.AppendUint32(buf, serverID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(filename)))
	buf = append(buf, []byte(filename)...)
	buf = binary.LittleEndian.AppendUint64(buf, position)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(encodedGtid)))
	buf = append(buf, encodedGtid...)
	return c.WritePacket(buf)
}
