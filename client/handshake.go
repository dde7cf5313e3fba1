package client

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// readHandshake reads and parses the initial HandshakePacket (§4.4).
func (c *Conn) readHandshake() error {
	data, err := c.ReadPacket()
	if err != nil {
		return errors.Annotatef(err, "read handshake")
	}

	pos := 1 // protocol version

	versionEnd := bytes.IndexByte(data[pos:], 0)
	if versionEnd < 0 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	c.serverVersion = string(data[pos : pos+versionEnd])
	pos += versionEnd + 1

	c.connectionID = binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	scramble := append([]byte{}, data[pos:pos+8]...)
	pos += 8
	pos++ // 0x00 filler

	capabilityLower := uint32(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	if pos < len(data) {
		pos++ // collation
		pos += 2 // status flags

		capabilityUpper := uint32(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		c.capability = capabilityLower | capabilityUpper<<16

		authPluginDataLen := data[pos]
		pos++
		pos += 10 // reserved

		if c.capability&mysql.ClientSecureConn != 0 {
			rest := int(authPluginDataLen) - 8
			if rest < 13 {
				rest = 13
			}
			scramble = append(scramble, data[pos:pos+rest-1]...)
			pos += rest
		}

		if c.capability&mysql.ClientPluginAuth != 0 {
			nameEnd := bytes.IndexByte(data[pos:], 0)
			if nameEnd < 0 {
				c.authPluginName = string(data[pos:])
			} else {
				c.authPluginName = string(data[pos : pos+nameEnd])
			}
		}
	} else {
		c.capability = capabilityLower
	}

	c.scramble = scramble
	if c.authPluginName == "" {
		c.authPluginName = mysql.AuthNativePassword
	}
	return nil
}

// isMariaDB reports whether the connected server is MariaDB, detected from
// its reported version string (§4.7).
func (c *Conn) isMariaDB() bool {
	return strings.Contains(c.serverVersion, "MariaDB")
}

func (c *Conn) provider() mysql.DatabaseProvider {
	if c.isMariaDB() {
		return mysql.ProviderMariaDB
	}
	return mysql.ProviderMySQL
}
