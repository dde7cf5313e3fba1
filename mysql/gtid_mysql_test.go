package mysql

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGtidSetParseCollapsesAdjacentIntervals(t *testing.T) {
	set, err := ParseGtidSet("24bc7850-2c16-11e6-a073-0242ac110001:1-191:192-199")
	require.NoError(t, err)
	assert.Equal(t, "24bc7850-2c16-11e6-a073-0242ac110001:1-199", set.String())
}

func TestGtidSetAddGtidMergesAdjacentAndOverlapping(t *testing.T) {
	set := NewGtidSet()
	id := uuid.MustParse("24bc7850-2c16-11e6-a073-0242ac110001")

	assert.True(t, set.AddGtid(id, 5))
	assert.True(t, set.AddGtid(id, 6))
	assert.True(t, set.AddGtid(id, 4))
	assert.False(t, set.AddGtid(id, 5), "re-adding an already-present tx id is a no-op")
	assert.True(t, set.AddGtid(id, 10))

	assert.Equal(t, id.String()+":4-6:10", set.String())

	assert.True(t, set.AddGtid(id, 7))
	assert.True(t, set.AddGtid(id, 8))
	assert.True(t, set.AddGtid(id, 9))
	assert.Equal(t, id.String()+":4-10", set.String())
}

func TestGtidSetParseEmpty(t *testing.T) {
	set, err := ParseGtidSet("")
	require.NoError(t, err)
	assert.Empty(t, set.Sets)
}

func TestGtidSetEncodeBinlogDumpGTIDLengthMatchesDataLength(t *testing.T) {
	set, err := ParseGtidSet("24bc7850-2c16-11e6-a073-0242ac110001:1-199")
	require.NoError(t, err)
	assert.Len(t, set.EncodeBinlogDumpGTID(), set.DataLength())
}

func TestParsePreviousGtidsPayload(t *testing.T) {
	payload := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xB5, 0xCD, 0x16, 0x24, 0x5F, 0x30, 0x11, 0xE4, 0xB4, 0xE9, 0x10, 0x51, 0x72, 0x1B, 0xD2, 0x41,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xF1, 0x0F, 0x6C, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xBB, 0x42, 0x1D, 0x26, 0x5F, 0x30, 0x11, 0xE4, 0xB4, 0xE9, 0xD8, 0x9D, 0x67, 0x2B, 0x2E, 0xF8,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xD1, 0x61, 0x77, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	set, err := ParsePreviousGtidsPayload(payload)
	require.NoError(t, err)
	assert.Equal(t,
		"b5cd1624-5f30-11e4-b4e9-1051721bd241:1-7081968,bb421d26-5f30-11e4-b4e9-d89d672b2ef8:1-7823824",
		set.String())
}

func TestIntervalSliceNormalize(t *testing.T) {
	s := IntervalSlice{{Start: 10, End: 20}, {Start: 1, End: 9}, {Start: 21, End: 25}}
	assert.Equal(t, IntervalSlice{{Start: 1, End: 25}}, s.Normalize())
}
