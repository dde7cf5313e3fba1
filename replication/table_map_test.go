package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
)

func TestTableMapEventDecodeNamesAndTypes(t *testing.T) {
	var data []byte
	data = append(data, 9, 0, 0, 0, 0, 0) // table id = 9, 6 bytes LE
	data = append(data, 0, 0)             // reserved

	data = append(data, byte(len("testdb")))
	data = append(data, []byte("testdb")...)
	data = append(data, 0)

	data = append(data, byte(len("widgets")))
	data = append(data, []byte("widgets")...)
	data = append(data, 0)

	data = append(data, 2) // column count, length-encoded
	data = append(data, byte(mysql.ColumnTypeLong), byte(mysql.ColumnTypeVarChar))

	data = append(data, 2)    // metadata block length
	data = append(data, 0, 0) // VarChar metadata (2 bytes, max length 0)

	// no null bitmap, no metadata TLV block follows
	event := &TableMapEvent{}
	require.NoError(t, event.Decode(data))

	assert.Equal(t, uint64(9), event.TableID)
	assert.Equal(t, "testdb", event.SchemaName)
	assert.Equal(t, "widgets", event.TableName)
	assert.Equal(t, []mysql.ColumnType{mysql.ColumnTypeLong, mysql.ColumnTypeVarChar}, event.ColumnTypes)
	assert.True(t, event.NeedsColumnResolution())
}

func TestApplyResolvedColumnsGraftsNamesAndSignedness(t *testing.T) {
	event := &TableMapEvent{
		ColumnTypes: []mysql.ColumnType{mysql.ColumnTypeLong, mysql.ColumnTypeVarChar},
	}
	event.ApplyResolvedColumns([]string{"id", "name"}, []bool{true, false})

	require.NotNil(t, event.Metadata)
	assert.Equal(t, []string{"id", "name"}, event.Metadata.ColumnNames)
	// only the numeric column (id, index 0) contributes to Signedness
	assert.Equal(t, []bool{false}, event.Metadata.Signedness)
	assert.False(t, event.NeedsColumnResolution())
}

func TestApplyResolvedColumnsIgnoresMismatchedLength(t *testing.T) {
	event := &TableMapEvent{ColumnTypes: []mysql.ColumnType{mysql.ColumnTypeLong}}
	event.ApplyResolvedColumns([]string{"a", "b"}, []bool{true, true})
	assert.Empty(t, event.Metadata.ColumnNames)
}

func TestParseTableMetadataSignedness(t *testing.T) {
	columnTypes := []mysql.ColumnType{mysql.ColumnTypeLong, mysql.ColumnTypeVarChar, mysql.ColumnTypeLongLong}
	// 2 numeric columns (Long, LongLong): signedness bitmap has 2 bits, MSB-first
	data := []byte{1, 1, 0x80} // type=Signedness(1), length=1, value=0x80 (bit0 set, bit1 clear)

	meta, err := ParseTableMetadata(data, columnTypes)
	require.NoError(t, err)
	require.Len(t, meta.Signedness, 2)
	assert.True(t, meta.Signedness[0])
	assert.False(t, meta.Signedness[1])
}
