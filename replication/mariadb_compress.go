package replication

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// logEventCompressed is the MariaDB event-header flag bit marking a
// compressed QUERY/ROWS event body (§4.15).
const logEventCompressed uint16 = 0x0020

// decompressMariaDB reverses MariaDB's event compression: a 1-byte
// algorithm id (1 = zlib), a length-encoded uncompressed size, then a
// zlib-deflate stream (§4.15).
func decompressMariaDB(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}
	algorithm := data[0]
	if algorithm != 1 {
		return nil, mysql.NewError(mysql.KindUnsupported, "unsupported mariadb compression algorithm %d", algorithm)
	}

	uncompressedSize, n, err := mysql.ReadLengthEncodedInt(data[1:])
	if err != nil {
		return nil, errors.Annotatef(err, "read mariadb compressed event size")
	}
	stream := data[1+n:]

	reader, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "invalid mariadb compressed event stream: %v", err), "decompress mariadb event")
	}
	defer reader.Close()

	out := make([]byte, 0, uncompressedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, reader); err != nil {
		return nil, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "mariadb compressed event stream truncated: %v", err), "decompress mariadb event")
	}
	return buf.Bytes(), nil
}
