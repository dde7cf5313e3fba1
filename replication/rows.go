package replication

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// RowData is one row image: one entry per column of the referenced table,
// nil where the column is absent from a partial image or SQL NULL (§3).
type RowData []any

// UpdateRowData pairs the before and after images of one updated row (§3).
type UpdateRowData struct {
	Before RowData
	After  RowData
}

type rowsEventHead struct {
	TableID uint64
	Flags   uint16
	Columns uint64
}

// parseRowsHead decodes the common head shared by v1 and v2 rows events
// (§4.8): table_id u48 LE, flags u16 LE, then for v2 only extra_data_len
// u16 LE followed by extra_data_len-2 bytes to skip, then columns_count
// length-encoded.
func parseRowsHead(data []byte, isV2 bool) (rowsEventHead, int, error) {
	if len(data) < 8 {
		return rowsEventHead{}, 0, errors.Trace(mysql.ErrMalformPacket)
	}
	tableID := uint64(data[0]) | uint64(data[1])<<8 | uint64(data[2])<<16 |
		uint64(data[3])<<24 | uint64(data[4])<<32 | uint64(data[5])<<40
	flags := binary.LittleEndian.Uint16(data[6:8])
	pos := 8

	if isV2 {
		if len(data) < pos+2 {
			return rowsEventHead{}, 0, errors.Trace(mysql.ErrMalformPacket)
		}
		extraDataLen := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		pos += extraDataLen - 2
	}

	columns, n, err := mysql.ReadLengthEncodedInt(data[pos:])
	if err != nil {
		return rowsEventHead{}, 0, errors.Annotatef(err, "parse rows event head")
	}
	pos += n

	return rowsEventHead{TableID: tableID, Flags: flags, Columns: columns}, pos, nil
}

func popcount(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}

// decodeRow reads one row image: a little-endian null bitmap of
// popcount(presence) bits, then for each table column, either nothing
// (absent), nothing (null), or a value per its column type/metadata
// (§4.8).
func decodeRow(data []byte, table *TableMapEvent, presence []bool) (RowData, int, error) {
	nullBits := popcount(presence)
	nullBitmapLen := mysql.BitmapByteSize(nullBits)
	if nullBitmapLen > len(data) {
		return nil, 0, errors.Trace(mysql.ErrMalformPacket)
	}
	nullBitmap := mysql.ReadBitmapLittleEndian(data[:nullBitmapLen], nullBits)
	pos := nullBitmapLen

	row := make(RowData, len(table.ColumnTypes))
	nullIdx := 0
	for i, columnType := range table.ColumnTypes {
		if !presence[i] {
			row[i] = nil
			continue
		}
		if nullBitmap[nullIdx] {
			row[i] = nil
			nullIdx++
			continue
		}
		nullIdx++

		value, n, err := decodeColumn(data[pos:], columnType, table.ColumnMetadata[i])
		if err != nil {
			return nil, 0, errors.Annotatef(err, "decode column %d of table %s.%s", i, table.SchemaName, table.TableName)
		}
		row[i] = value
		pos += n
	}
	return row, pos, nil
}

// rowsEventBase carries the fields and decode logic shared by
// WriteRowsEvent and DeleteRowsEvent (a single presence bitmap).
type rowsEventBase struct {
	TableID   uint64
	Flags     uint16
	Rows      []RowData
	tableMap  func(uint64) (*TableMapEvent, error)
	isV2      bool
}

func (e *rowsEventBase) decode(data []byte) error {
	head, pos, err := parseRowsHead(data, e.isV2)
	if err != nil {
		return err
	}
	e.TableID = head.TableID
	e.Flags = head.Flags

	table, err := e.tableMap(head.TableID)
	if err != nil {
		return err
	}

	presenceLen := mysql.BitmapByteSize(int(head.Columns))
	if pos+presenceLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	presence := mysql.ReadBitmapLittleEndian(data[pos:pos+presenceLen], int(head.Columns))
	pos += presenceLen

	for pos < len(data) {
		row, n, err := decodeRow(data[pos:], table, presence)
		if err != nil {
			return err
		}
		e.Rows = append(e.Rows, row)
		pos += n
	}
	return nil
}

func (e *rowsEventBase) dump(w io.Writer, kind string) {
	fmt.Fprintf(w, "%s: table id %d, %d row(s)\n", kind, e.TableID, len(e.Rows))
	fmt.Fprintln(w)
}

// WriteRowsEvent carries inserted rows (§4.8).
type WriteRowsEvent struct{ rowsEventBase }

func (e *WriteRowsEvent) Decode(data []byte) error { return e.decode(data) }
func (e *WriteRowsEvent) Dump(w io.Writer)          { e.dump(w, "WriteRows") }

// DeleteRowsEvent carries deleted rows (§4.8).
type DeleteRowsEvent struct{ rowsEventBase }

func (e *DeleteRowsEvent) Decode(data []byte) error { return e.decode(data) }
func (e *DeleteRowsEvent) Dump(w io.Writer)          { e.dump(w, "DeleteRows") }

// UpdateRowsEvent carries before/after row image pairs, read from two
// presence bitmaps (before-image and after-image) (§4.8).
type UpdateRowsEvent struct {
	TableID  uint64
	Flags    uint16
	Rows     []UpdateRowData
	tableMap func(uint64) (*TableMapEvent, error)
	isV2     bool
}

func (e *UpdateRowsEvent) Decode(data []byte) error {
	head, pos, err := parseRowsHead(data, e.isV2)
	if err != nil {
		return err
	}
	e.TableID = head.TableID
	e.Flags = head.Flags

	table, err := e.tableMap(head.TableID)
	if err != nil {
		return err
	}

	presenceLen := mysql.BitmapByteSize(int(head.Columns))
	if pos+2*presenceLen > len(data) {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	beforePresence := mysql.ReadBitmapLittleEndian(data[pos:pos+presenceLen], int(head.Columns))
	pos += presenceLen
	afterPresence := mysql.ReadBitmapLittleEndian(data[pos:pos+presenceLen], int(head.Columns))
	pos += presenceLen

	for pos < len(data) {
		before, n, err := decodeRow(data[pos:], table, beforePresence)
		if err != nil {
			return err
		}
		pos += n

		after, n, err := decodeRow(data[pos:], table, afterPresence)
		if err != nil {
			return err
		}
		pos += n

		e.Rows = append(e.Rows, UpdateRowData{Before: before, After: after})
	}
	return nil
}

func (e *UpdateRowsEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "UpdateRows: table id %d, %d row(s)\n", e.TableID, len(e.Rows))
	fmt.Fprintln(w)
}
