package replication

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// metadataType is the TLV tag byte of each TableMetadata block (§4.8).
type metadataType byte

const (
	metaSignedness              metadataType = 1
	metaDefaultCharset           metadataType = 2
	metaColumnCharset            metadataType = 3
	metaColumnName                metadataType = 4
	metaSetStrValue                metadataType = 5
	metaEnumStrValue               metadataType = 6
	metaGeometryType                metadataType = 7
	metaSimplePrimaryKey             metadataType = 8
	metaPrimaryKeyWithPrefix          metadataType = 9
	metaEnumAndSetDefaultCharset       metadataType = 10
	metaEnumAndSetColumnCharset         metadataType = 11
	metaColumnVisibility                 metadataType = 12
)

// DefaultCharset pairs a collation override for a specific column index
// with the table's default collation (§4.8).
type DefaultCharset struct {
	DefaultCollation uint64
	CollationByIndex map[uint64]uint64
}

// TableMetadata is the optional TLV block trailing a TableMapEvent's column
// definitions (§4.8). Every field is nil/empty unless the server sent it.
type TableMetadata struct {
	Signedness            []bool
	DefaultCharset         *DefaultCharset
	ColumnCharsets         []uint64
	ColumnNames            []string
	SetStrValues           [][]string
	EnumStrValues          [][]string
	GeometryTypes          []uint64
	SimplePrimaryKeys      []uint64
	PrimaryKeysWithPrefix  map[uint64]uint64
	EnumAndSetDefaultCharset *DefaultCharset
	EnumAndSetColumnCharsets []uint64
	ColumnVisibility       []bool
}

// ParseTableMetadata decodes the repeated type/length/value blocks trailing
// a TableMapEvent, given the table's column types, from which the
// numeric-column count that sizes the Signedness bitmap is derived (§4.8).
func ParseTableMetadata(data []byte, columnTypes []mysql.ColumnType) (*TableMetadata, error) {
	meta := &TableMetadata{}
	pos := 0
	numericColumns := 0
	for _, t := range columnTypes {
		if t.IsNumeric() {
			numericColumns++
		}
	}

	for pos < len(data) {
		fieldType := metadataType(data[pos])
		pos++

		length, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, errors.Annotatef(err, "parse table metadata field length")
		}
		pos += n

		if pos+int(length) > len(data) {
			return nil, errors.Trace(mysql.ErrMalformPacket)
		}
		value := data[pos : pos+int(length)]
		pos += int(length)

		switch fieldType {
		case metaSignedness:
			meta.Signedness = mysql.ReadBitmapReverted(value, numericColumns)
		case metaDefaultCharset:
			meta.DefaultCharset, err = parseDefaultCharset(value)
		case metaColumnCharset:
			meta.ColumnCharsets, err = parseIntSeq(value)
		case metaColumnName:
			meta.ColumnNames, err = parseStringSeq(value)
		case metaSetStrValue:
			meta.SetStrValues, err = parseStringSeqSeq(value)
		case metaEnumStrValue:
			meta.EnumStrValues, err = parseStringSeqSeq(value)
		case metaGeometryType:
			meta.GeometryTypes, err = parseIntSeq(value)
		case metaSimplePrimaryKey:
			meta.SimplePrimaryKeys, err = parseIntSeq(value)
		case metaPrimaryKeyWithPrefix:
			meta.PrimaryKeysWithPrefix, err = parseIntPairMap(value)
		case metaEnumAndSetDefaultCharset:
			meta.EnumAndSetDefaultCharset, err = parseDefaultCharset(value)
		case metaEnumAndSetColumnCharset:
			meta.EnumAndSetColumnCharsets, err = parseIntSeq(value)
		case metaColumnVisibility:
			meta.ColumnVisibility = mysql.ReadBitmapReverted(value, len(columnTypes))
		}
		if err != nil {
			return nil, errors.Annotatef(err, "parse table metadata field %d", fieldType)
		}
	}
	return meta, nil
}

func parseIntSeq(data []byte) ([]uint64, error) {
	var out []uint64
	pos := 0
	for pos < len(data) {
		v, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		pos += n
	}
	return out, nil
}

func parseStringSeq(data []byte) ([]string, error) {
	var out []string
	pos := 0
	for pos < len(data) {
		s, n, err := mysql.LengthEncodedString(data[pos:])
		if err != nil {
			return nil, err
		}
		out = append(out, string(s))
		pos += n
	}
	return out, nil
}

func parseStringSeqSeq(data []byte) ([][]string, error) {
	var out [][]string
	pos := 0
	for pos < len(data) {
		count, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		values := make([]string, 0, count)
		for i := uint64(0); i < count; i++ {
			s, sn, err := mysql.LengthEncodedString(data[pos:])
			if err != nil {
				return nil, err
			}
			values = append(values, string(s))
			pos += sn
		}
		out = append(out, values)
	}
	return out, nil
}

func parseDefaultCharset(data []byte) (*DefaultCharset, error) {
	defaultCollation, n, err := mysql.ReadLengthEncodedInt(data)
	if err != nil {
		return nil, err
	}
	pos := n
	byIndex := make(map[uint64]uint64)
	for pos < len(data) {
		idx, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		collation, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		byIndex[idx] = collation
	}
	return &DefaultCharset{DefaultCollation: defaultCollation, CollationByIndex: byIndex}, nil
}

func parseIntPairMap(data []byte) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64)
	pos := 0
	for pos < len(data) {
		idx, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		value, n, err := mysql.ReadLengthEncodedInt(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		out[idx] = value
	}
	return out, nil
}

// TableMapEvent describes the schema of a table that follow-on row events
// reference by TableID (§4.8).
type TableMapEvent struct {
	TableID       uint64
	SchemaName    string
	TableName     string
	ColumnTypes   []mysql.ColumnType
	ColumnMetadata []uint16
	NullBitmap    []bool
	Metadata      *TableMetadata
}

func (e *TableMapEvent) Decode(data []byte) error {
	if len(data) < 8 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.TableID = uint64(data[0]) | uint64(data[1])<<8 | uint64(data[2])<<16 |
		uint64(data[3])<<24 | uint64(data[4])<<32 | uint64(data[5])<<40
	pos := 8 // 6-byte table id + 2 reserved bytes

	dbNameLen := int(data[pos])
	pos++
	e.SchemaName = string(data[pos : pos+dbNameLen])
	pos += dbNameLen + 1 // + NUL

	tableNameLen := int(data[pos])
	pos++
	e.TableName = string(data[pos : pos+tableNameLen])
	pos += tableNameLen + 1 // + NUL

	columnCount, n, err := mysql.ReadLengthEncodedInt(data[pos:])
	if err != nil {
		return errors.Annotatef(err, "decode table map column count")
	}
	pos += n

	e.ColumnTypes = make([]mysql.ColumnType, columnCount)
	for i := range e.ColumnTypes {
		e.ColumnTypes[i] = mysql.ColumnType(data[pos])
		pos++
	}

	metadataLength, n, err := mysql.ReadLengthEncodedInt(data[pos:])
	if err != nil {
		return errors.Annotatef(err, "decode table map metadata length")
	}
	pos += n

	metadataBytes := data[pos : pos+int(metadataLength)]
	pos += int(metadataLength)

	e.ColumnMetadata = make([]uint16, columnCount)
	mpos := 0
	for i, t := range e.ColumnTypes {
		switch t {
		case mysql.ColumnTypeGeometry, mysql.ColumnTypeJSON,
			mysql.ColumnTypeTinyBlob, mysql.ColumnTypeMediumBlob, mysql.ColumnTypeLongBlob, mysql.ColumnTypeBlob,
			mysql.ColumnTypeFloat, mysql.ColumnTypeDouble,
			mysql.ColumnTypeTimestamp2, mysql.ColumnTypeDateTime2, mysql.ColumnTypeTime2:
			e.ColumnMetadata[i] = uint16(metadataBytes[mpos])
			mpos++
		case mysql.ColumnTypeBit, mysql.ColumnTypeVarChar, mysql.ColumnTypeVarString, mysql.ColumnTypeNewDecimal:
			e.ColumnMetadata[i] = binary.LittleEndian.Uint16(metadataBytes[mpos:])
			mpos += 2
		case mysql.ColumnTypeEnum, mysql.ColumnTypeSet, mysql.ColumnTypeString:
			e.ColumnMetadata[i] = binary.BigEndian.Uint16(metadataBytes[mpos:])
			mpos += 2
		default:
			e.ColumnMetadata[i] = 0
		}
	}

	if pos < len(data) {
		e.NullBitmap = mysql.ReadBitmapLittleEndian(data[pos:], int(columnCount))
		nullBitmapLen := mysql.BitmapByteSize(int(columnCount))
		pos += nullBitmapLen
	}

	if pos < len(data) {
		meta, err := ParseTableMetadata(data[pos:], e.ColumnTypes)
		if err != nil {
			return errors.Annotatef(err, "decode table metadata")
		}
		e.Metadata = meta
	}
	return nil
}

// NeedsColumnResolution reports whether this table's metadata lacks column
// names, the common case under binlog_row_metadata=MINIMAL (§4.14).
func (e *TableMapEvent) NeedsColumnResolution() bool {
	return e.Metadata == nil || len(e.Metadata.ColumnNames) == 0
}

// ApplyResolvedColumns grafts externally resolved column names and
// signedness onto this table's metadata, in table column order. Names are
// applied only if len(names) equals len(ColumnTypes), and signedness only if
// len(unsigned) does; an empty Metadata is allocated if none was present,
// whether or not anything is applied (§4.14).
func (e *TableMapEvent) ApplyResolvedColumns(names []string, unsigned []bool) {
	if e.Metadata == nil {
		e.Metadata = &TableMetadata{}
	}
	if len(names) == len(e.ColumnTypes) {
		e.Metadata.ColumnNames = names
	}

	numericColumns := 0
	for _, t := range e.ColumnTypes {
		if t.IsNumeric() {
			numericColumns++
		}
	}
	if len(unsigned) == len(e.ColumnTypes) && numericColumns > 0 {
		signedness := make([]bool, 0, numericColumns)
		for i, t := range e.ColumnTypes {
			if t.IsNumeric() {
				signedness = append(signedness, !unsigned[i])
			}
		}
		e.Metadata.Signedness = signedness
	}
}

func (e *TableMapEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Table id: %d\n", e.TableID)
	fmt.Fprintf(w, "Schema: %s\n", e.SchemaName)
	fmt.Fprintf(w, "Table: %s\n", e.TableName)
	fmt.Fprintf(w, "Column count: %d\n", len(e.ColumnTypes))
	fmt.Fprintln(w)
}
