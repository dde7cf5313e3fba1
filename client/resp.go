package client

import (
	"encoding/binary"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// decodeErrorPacket parses a 0xFF ERROR packet: u16 error code, then if the
// text begins with '#' the next 5 chars are the SQL state (§4.4).
func decodeErrorPacket(data []byte, capability uint32) error {
	pos := 1
	code := binary.LittleEndian.Uint16(data[pos:])
	pos += 2

	var state string
	if pos < len(data) && data[pos] == '#' {
		pos++
		state = string(data[pos : pos+5])
		pos += 5
	}

	return &mysql.ServerError{Code: code, State: state, Message: string(data[pos:])}
}

// isOKPacket reports whether data is a 0x00 OK packet.
func isOKPacket(data []byte) bool {
	return len(data) > 0 && data[0] == mysql.OKHeader
}

// isEOFPacket reports whether data is a 0xFE EOF packet (only valid within
// a result set or during auth; distinguished by length <= 5 there) (§4.4).
func isEOFPacket(data []byte) bool {
	return len(data) > 0 && data[0] == mysql.EOFHeader && len(data) <= 5
}

// okResult is the subset of an OK packet's fields this client needs.
type okResult struct {
	AffectedRows uint64
	InsertID     uint64
	Status       uint16
	Warnings     uint16
}

func decodeOKPacket(data []byte) (*okResult, error) {
	var n int
	pos := 1
	r := &okResult{}

	r.AffectedRows, _, n = mysql.LengthEncodedInt(data[pos:])
	pos += n
	r.InsertID, _, n = mysql.LengthEncodedInt(data[pos:])
	pos += n

	if pos+4 <= len(data) {
		r.Status = binary.LittleEndian.Uint16(data[pos:])
		pos += 2
		r.Warnings = binary.LittleEndian.Uint16(data[pos:])
	}
	return r, nil
}

// readResultSet reads a query result-set per the protocol in §4.6: a
// column-count packet, then column-definition packets until EOF, then row
// packets until EOF. Any ERROR surfaces immediately (via ReadPacket).
func (c *Conn) readResultSet() ([][]byte, error) {
	first, err := c.ReadPacket()
	if err != nil {
		return nil, err
	}
	if isOKPacket(first) {
		return nil, nil
	}

	columnCount, _, n := mysql.LengthEncodedInt(first)
	if n == 0 {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}

	for i := uint64(0); i < columnCount; i++ {
		if _, err := c.ReadPacket(); err != nil {
			return nil, err
		}
	}
	if _, err := c.readUntilEOF(); err != nil {
		return nil, err
	}

	var rows [][]byte
	for {
		data, err := c.ReadPacket()
		if err != nil {
			return nil, err
		}
		if isEOFPacket(data) {
			break
		}
		rows = append(rows, data)
	}
	return rows, nil
}

// readUntilEOF drains packets until an EOF packet, used when column
// definitions are not needed individually.
func (c *Conn) readUntilEOF() ([]byte, error) {
	for {
		data, err := c.ReadPacket()
		if err != nil {
			return nil, err
		}
		if isEOFPacket(data) {
			return data, nil
		}
	}
}

// decodeTextRow splits a text-protocol result row into its length-encoded
// string columns.
func decodeTextRow(data []byte) ([]string, error) {
	var values []string
	pos := 0
	for pos < len(data) {
		value, n, err := mysql.LengthEncodedString(data[pos:])
		if err != nil {
			return nil, err
		}
		values = append(values, string(value))
		pos += n
	}
	return values, nil
}
