package mysql

import "fmt"

// The MySqlValue sum type (§3) is represented in Go the way the teacher
// represents tagged event variants: a closed set of named types dispatched
// by a type switch, rather than a boxed enum. RowData cells are `any`; a
// nil cell is the spec's Option::None (either the column was absent from a
// partial row image, or its value is SQL NULL — both collapse to the same
// case per §3).
//
// Integer columns decode to Go's native signed int8/int16/int32/int64 (INT24
// to int32); column signedness metadata is not applied, so an UNSIGNED
// column's value is the signed reading of its wire bytes. YEAR decodes to
// uint16; Float/Double to float32/float64;
// Blob-family and opaque binary payloads to []byte; disambiguated
// CHAR/VARCHAR/VARSTRING to string.

// Bits holds a BIT(n) column's value as an ordered sequence of booleans,
// most-significant bit first (§3).
type Bits struct {
	Length int
	Bits   []bool
}

func (b Bits) String() string {
	buf := make([]byte, len(b.Bits))
	for i, set := range b.Bits {
		if set {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// Uint64 packs the bits into a uint64, most-significant bit first. Panics
// are avoided by truncating to the low 64 bits for larger BIT columns.
func (b Bits) Uint64() uint64 {
	var v uint64
	n := len(b.Bits)
	start := 0
	if n > 64 {
		start = n - 64
	}
	for i := start; i < n; i++ {
		v <<= 1
		if b.Bits[i] {
			v |= 1
		}
	}
	return v
}

// EnumValue is an ENUM column's 1-based numeric index (§3). Resolving it to
// its string label requires the TableMetadata EnumStrValue block, which is
// optional on the wire — callers that need the label look it up via the
// TableMapEvent's metadata.
type EnumValue uint32

// SetValue is a SET column's bitmask of selected members (§3).
type SetValue uint64

// Date is a calendar date with no time component (§3, §4.9).
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time is a time-of-day value (§3, §4.9). Negative TIME values are rejected
// at decode time per the spec's explicit Non-goals, so Negative is always
// false on a successfully decoded value; the field exists so the type can
// still represent the wire concept if a future revision lifts that limit.
type Time struct {
	Hour        int32
	Minute      int32
	Second      int32
	Microsecond int32
	Negative    bool
}

func (t Time) String() string {
	if t.Microsecond == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Microsecond)
}

// DateTime combines a Date and a Time (§3, §4.9).
type DateTime struct {
	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
}

func (dt DateTime) String() string {
	if dt.Microsecond == 0 {
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
			dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
}

// Timestamp is milliseconds since the Unix epoch (§3, §4.9).
type Timestamp uint64
