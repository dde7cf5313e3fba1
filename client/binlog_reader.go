package client

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/replication"
)

// readBufferSize is the fixed reusable buffer size for file-reader payloads;
// oversized payloads allocate a fresh buffer for that event only (§5).
const readBufferSize = 32 * 1024

// BinlogReader decodes a binlog file from a seekable/streamed byte source,
// used as an alternative to a live BinlogClient session (§4.12).
type BinlogReader struct {
	r       *bufio.Reader
	decoder *replication.EventDecoder
	buf     []byte
}

// NewBinlogReader wraps r, first validating the 4-byte magic header.
func NewBinlogReader(r io.Reader) (*BinlogReader, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "read binlog file magic: %v", err), "binlog reader")
	}
	if magic != mysql.BinlogFileMagic {
		return nil, mysql.NewError(mysql.KindProtocol, "not a binlog file: bad magic bytes")
	}

	return &BinlogReader{
		r:       br,
		decoder: replication.NewEventDecoder(),
		buf:     make([]byte, readBufferSize),
	}, nil
}

// ReadEvent reads and decodes the next event. It returns io.EOF when the
// stream ends cleanly at a header boundary (§4.12).
func (r *BinlogReader) ReadEvent() (*replication.BinlogEvent, error) {
	var header [replication.EventHeaderSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Annotatef(mysql.NewError(mysql.KindIo, "read event header: %v", err), "binlog reader")
	}

	eventSize := binary.LittleEndian.Uint32(header[9:13])
	if eventSize < replication.EventHeaderSize {
		return nil, mysql.NewError(mysql.KindProtocol, "invalid event size %d", eventSize)
	}
	payloadLen := int(eventSize) - replication.EventHeaderSize

	var payload []byte
	if payloadLen <= len(r.buf) {
		payload = r.buf[:payloadLen]
	} else {
		payload = make([]byte, payloadLen)
	}
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, errors.Annotatef(mysql.NewError(mysql.KindIo, "read event payload: %v", err), "binlog reader")
	}

	raw := make([]byte, 0, len(header)+len(payload))
	raw = append(raw, header[:]...)
	raw = append(raw, payload...)

	return r.decoder.DecodeEvent(raw)
}
