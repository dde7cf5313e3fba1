package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime2Positive(t *testing.T) {
	data := []byte{0x80, 0xC8, 0xB8}
	tm, n, err := ParseTime2(data, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(12), tm.Hour)
	assert.Equal(t, int32(34), tm.Minute)
	assert.Equal(t, int32(56), tm.Second)
}

func TestParseTime2RejectsNegative(t *testing.T) {
	data := []byte{0x00, 0xC8, 0xB8}
	_, _, err := ParseTime2(data, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupported))
}

func TestParseTimeRejectsNegative(t *testing.T) {
	_, _, err := ParseTime([]byte{0xFF, 0xFF, 0xFF})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupported))
}

func TestParseDate(t *testing.T) {
	v := uint32(15) | uint32(6)<<5 | uint32(2024)<<9
	data := []byte{byte(v), byte(v >> 8), byte(v >> 16)}
	date, n, err := ParseDate(data)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint16(2024), date.Year)
	assert.Equal(t, uint8(6), date.Month)
	assert.Equal(t, uint8(15), date.Day)
}

func TestParseTimestampConvertsSecondsToMilliseconds(t *testing.T) {
	ts, n, err := ParseTimestamp([]byte{0x00, 0x00, 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, Timestamp(16777216*1000), ts)
}
