package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsStringAndUint64(t *testing.T) {
	b := Bits{Length: 4, Bits: []bool{true, false, true, true}}
	assert.Equal(t, "1011", b.String())
	assert.Equal(t, uint64(0b1011), b.Uint64())
}

func TestDateString(t *testing.T) {
	d := Date{Year: 2024, Month: 3, Day: 7}
	assert.Equal(t, "2024-03-07", d.String())
}

func TestTimeStringOmitsMicrosecondsWhenZero(t *testing.T) {
	assert.Equal(t, "12:34:56", Time{Hour: 12, Minute: 34, Second: 56}.String())
	assert.Equal(t, "12:34:56.000500", Time{Hour: 12, Minute: 34, Second: 56, Microsecond: 500}.String())
}

func TestDateTimeString(t *testing.T) {
	dt := DateTime{Year: 2024, Month: 3, Day: 7, Hour: 1, Minute: 2, Second: 3}
	assert.Equal(t, "2024-03-07 01:02:03", dt.String())
}
