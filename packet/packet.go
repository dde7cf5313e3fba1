// Package packet implements the MySQL/MariaDB packet-framing layer: the
// 4-byte length+sequence prefix every protocol message rides on top of.
package packet

import (
	"bufio"
	"crypto/tls"
	"io"
	"net"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// MaxPayloadLength is the largest payload a single packet frame can carry:
// a u24 length field tops out at 2^24-1. Payloads at or above this size
// would need to be split across multiple packets under the wire protocol,
// which this package does not implement (§4.2, explicit limitation).
const MaxPayloadLength = 1<<24 - 1

// Conn wraps a byte stream with packet framing and an optional one-shot TLS
// upgrade, mirroring the teacher's Conn but narrowed to exactly what a
// replication session needs: read/write one packet at a time and track the
// sequence id across a single protocol exchange.
type Conn struct {
	netConn  net.Conn
	reader   *bufio.Reader
	sequence byte
	upgraded bool
}

// NewConn wraps an already-established network connection.
func NewConn(nc net.Conn) *Conn {
	return &Conn{
		netConn: nc,
		reader:  bufio.NewReaderSize(nc, 16*1024),
	}
}

// ResetSequence resets the packet sequence counter to 0, as required at the
// start of each new command (§4.2).
func (c *Conn) ResetSequence() {
	c.sequence = 0
}

// ReadPacket reads one logical packet and returns its payload and the
// sequence byte it carried. A payload that would require split-packet
// reassembly (length == MaxPayloadLength) is rejected as unsupported.
func (c *Conn) ReadPacket() ([]byte, byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.reader, header); err != nil {
		return nil, 0, errors.Annotatef(NewIoError(err), "read packet header")
	}

	length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
	seq := header[3]
	if length >= MaxPayloadLength {
		return nil, 0, mysql.NewError(mysql.KindUnsupported, "packet split across multiple frames is not supported")
	}

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(c.reader, body); err != nil {
			return nil, 0, errors.Annotatef(NewIoError(err), "read packet body")
		}
	}
	c.sequence = seq + 1
	return body, seq, nil
}

// WritePacket frames payload with the current sequence number and writes it.
// A payload at or above MaxPayloadLength is rejected, matching ReadPacket's
// limitation.
func (c *Conn) WritePacket(payload []byte) error {
	if len(payload) >= MaxPayloadLength {
		return mysql.NewError(mysql.KindUnsupported, "packet split across multiple frames is not supported")
	}

	header := make([]byte, 4, 4+len(payload))
	header[0] = byte(len(payload))
	header[1] = byte(len(payload) >> 8)
	header[2] = byte(len(payload) >> 16)
	header[3] = c.sequence
	header = append(header, payload...)

	if _, err := c.netConn.Write(header); err != nil {
		return errors.Annotatef(NewIoError(err), "write packet")
	}
	c.sequence++
	return nil
}

// UpgradeToSSL wraps the connection in TLS in place. It is non-re-entrant:
// calling it twice on the same Conn returns an error rather than silently
// re-wrapping an already-upgraded stream (§4.2).
func (c *Conn) UpgradeToSSL(config *tls.Config) error {
	if c.upgraded {
		return mysql.NewError(mysql.KindProtocol, "connection is already upgraded to TLS")
	}
	tlsConn := tls.Client(c.netConn, config)
	if err := tlsConn.Handshake(); err != nil {
		return errors.Annotatef(NewIoError(err), "tls handshake")
	}
	c.netConn = tlsConn
	c.reader = bufio.NewReaderSize(tlsConn, 16*1024)
	c.upgraded = true
	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.netConn.Close()
}

// NewIoError wraps a low-level I/O error as a mysql.Error of KindIo (§7).
func NewIoError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Annotatef(mysql.NewError(mysql.KindIo, "%v", err), "io")
}
