package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/mysql"
)

func twoColumnLongTable(id uint64) *TableMapEvent {
	return &TableMapEvent{
		TableID:        id,
		SchemaName:     "testdb",
		TableName:      "widgets",
		ColumnTypes:    []mysql.ColumnType{mysql.ColumnTypeLong, mysql.ColumnTypeLong},
		ColumnMetadata: []uint16{0, 0},
	}
}

// TestWriteRowsEventDecodeProducesOneCellPerColumn exercises the invariant
// that decoding a rows event against its TableMapEvent yields exactly
// len(column_types) cells per row, including absent/null ones.
func TestWriteRowsEventDecodeProducesOneCellPerColumn(t *testing.T) {
	table := twoColumnLongTable(7)
	lookup := func(id uint64) (*TableMapEvent, error) {
		require.Equal(t, uint64(7), id)
		return table, nil
	}

	var payload []byte
	payload = append(payload, 7, 0, 0, 0, 0, 0) // table id, 6 bytes LE
	payload = append(payload, 0, 0)             // flags
	payload = append(payload, 2)                // columns_count (length-encoded)
	payload = append(payload, 0x03)             // presence bitmap: both columns present

	// row 1: neither column null, values 10 and 20
	payload = append(payload, 0x00)
	payload = append(payload, 10, 0, 0, 0)
	payload = append(payload, 20, 0, 0, 0)

	// row 2: second column null
	payload = append(payload, 0x02)
	payload = append(payload, 30, 0, 0, 0)

	event := &WriteRowsEvent{rowsEventBase{tableMap: lookup, isV2: false}}
	require.NoError(t, event.Decode(payload))

	require.Len(t, event.Rows, 2)
	assert.Len(t, event.Rows[0], len(table.ColumnTypes))
	assert.Equal(t, int32(10), event.Rows[0][0])
	assert.Equal(t, int32(20), event.Rows[0][1])

	assert.Len(t, event.Rows[1], len(table.ColumnTypes))
	assert.Equal(t, int32(30), event.Rows[1][0])
	assert.Nil(t, event.Rows[1][1])
}

func TestWriteRowsEventDecodeFailsWithoutTableMap(t *testing.T) {
	lookup := func(id uint64) (*TableMapEvent, error) {
		return nil, mysql.ErrTableMapMissing
	}
	event := &WriteRowsEvent{rowsEventBase{tableMap: lookup, isV2: false}}

	payload := append([]byte{7, 0, 0, 0, 0, 0, 0, 0}, 0)
	err := event.Decode(payload)
	require.Error(t, err)
	assert.True(t, mysql.IsKind(err, mysql.KindSchemaMissing))
}
