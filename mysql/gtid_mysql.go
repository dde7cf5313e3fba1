package mysql

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
)

// Interval is an inclusive, non-overlapping range of transaction ids within
// a single source's UuidSet (§3, §4.10).
type Interval struct {
	Start int64
	End   int64
}

func (iv Interval) String() string {
	if iv.Start == iv.End {
		return strconv.FormatInt(iv.Start, 10)
	}
	return fmt.Sprintf("%d-%d", iv.Start, iv.End)
}

// IntervalSlice is a sorted, non-overlapping, maximally-collapsed list of
// Intervals, ordered by Start.
type IntervalSlice []Interval

func (s IntervalSlice) Len() int           { return len(s) }
func (s IntervalSlice) Less(i, j int) bool { return s[i].Start < s[j].Start }
func (s IntervalSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Normalize sorts the slice and collapses adjacent/overlapping intervals,
// matching the invariant §4.10 requires after every add_gtid call.
func (s IntervalSlice) Normalize() IntervalSlice {
	if len(s) == 0 {
		return s
	}
	sort.Sort(s)
	out := IntervalSlice{s[0]}
	for _, iv := range s[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End+1 {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// AddGtid implements §4.10's UuidSet.add_gtid: binary-search for the
// interval containing or adjacent to tx, extend in place if adjacent,
// no-op if already contained, otherwise insert a singleton interval — then
// collapse once left-to-right. Returns false if tx was already present.
func (s *IntervalSlice) AddGtid(tx int64) bool {
	intervals := *s
	idx := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].Start >= tx
	})

	// Check the interval immediately before idx for containment/adjacency
	// on its End side, since Start >= tx search lands after it.
	if idx > 0 {
		prev := &intervals[idx-1]
		if prev.Start <= tx && tx <= prev.End {
			return false
		}
		if prev.End+1 == tx {
			prev.End = tx
			s.collapseFrom(idx - 1)
			return true
		}
	}
	if idx < len(intervals) {
		next := &intervals[idx]
		if next.Start <= tx && tx <= next.End {
			return false
		}
		if next.Start == tx+1 {
			next.Start = tx
			s.collapseFrom(idx)
			return true
		}
	}

	inserted := make(IntervalSlice, 0, len(intervals)+1)
	inserted = append(inserted, intervals[:idx]...)
	inserted = append(inserted, Interval{Start: tx, End: tx})
	inserted = append(inserted, intervals[idx:]...)
	*s = inserted
	s.collapseFrom(idx)
	return true
}

// collapseFrom scans left-to-right from idx-1, merging any pair where
// iv[i].End+1 == iv[i+1].Start, per §4.10.
func (s *IntervalSlice) collapseFrom(idx int) {
	intervals := *s
	i := idx
	if i > 0 {
		i--
	}
	for i+1 < len(intervals) {
		if intervals[i].End+1 == intervals[i+1].Start {
			intervals[i].End = intervals[i+1].End
			intervals = append(intervals[:i+1], intervals[i+2:]...)
			continue
		}
		i++
	}
	*s = intervals
}

func (s IntervalSlice) String() string {
	parts := make([]string, len(s))
	for i, iv := range s {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ":")
}

// UuidSet is one source's interval set within a MySQL GtidSet (§3, §4.10).
type UuidSet struct {
	SourceUUID uuid.UUID
	Intervals  IntervalSlice
}

func (u *UuidSet) String() string {
	return fmt.Sprintf("%s:%s", u.SourceUUID.String(), u.Intervals.String())
}

// AddGtid records a committed transaction id, returning false if it was
// already present in this source's intervals.
func (u *UuidSet) AddGtid(tx int64) bool {
	return u.Intervals.AddGtid(tx)
}

func parseUuidSet(s string) (*UuidSet, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return nil, NewError(KindParse, "invalid uuid set %q: expected uuid:interval[:interval...]", s)
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, errors.Annotatef(NewError(KindParse, "invalid source uuid %q: %v", parts[0], err), "parse uuid set")
	}
	intervals := make(IntervalSlice, 0, len(parts)-1)
	for _, raw := range parts[1:] {
		iv, err := parseInterval(raw)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return &UuidSet{SourceUUID: id, Intervals: intervals.Normalize()}, nil
}

func parseInterval(raw string) (Interval, error) {
	bounds := strings.SplitN(raw, "-", 2)
	start, err := strconv.ParseInt(bounds[0], 10, 64)
	if err != nil {
		return Interval{}, errors.Annotatef(NewError(KindParse, "invalid interval %q", raw), "parse interval")
	}
	end := start
	if len(bounds) == 2 {
		end, err = strconv.ParseInt(bounds[1], 10, 64)
		if err != nil {
			return Interval{}, errors.Annotatef(NewError(KindParse, "invalid interval %q", raw), "parse interval")
		}
	}
	return Interval{Start: start, End: end}, nil
}

// GtidSet is the MySQL GTID position: a mapping from source uuid to its
// UuidSet (§3, §4.10).
type GtidSet struct {
	Sets map[string]*UuidSet
}

// NewGtidSet builds an empty GtidSet.
func NewGtidSet() *GtidSet {
	return &GtidSet{Sets: make(map[string]*UuidSet)}
}

// ParseGtidSet parses the textual GtidSet form: uuid-sets joined by ','
// (§4.10).
func ParseGtidSet(value string) (*GtidSet, error) {
	set := NewGtidSet()
	value = strings.TrimSpace(value)
	if value == "" {
		return set, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		us, err := parseUuidSet(part)
		if err != nil {
			return nil, errors.Annotatef(err, "parse gtid set %q", value)
		}
		set.Sets[us.SourceUUID.String()] = us
	}
	return set, nil
}

// AddGtid records a committed transaction against the given source uuid,
// creating the UuidSet if this is the first transaction seen from it.
func (g *GtidSet) AddGtid(source uuid.UUID, tx int64) bool {
	key := source.String()
	us, ok := g.Sets[key]
	if !ok {
		us = &UuidSet{SourceUUID: source}
		g.Sets[key] = us
	}
	return us.AddGtid(tx)
}

// String renders the set in sorted-by-uuid canonical form (§4.10).
func (g *GtidSet) String() string {
	keys := make([]string, 0, len(g.Sets))
	for k := range g.Sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = g.Sets[k].String()
	}
	return strings.Join(parts, ",")
}

// Clone returns a deep copy.
func (g *GtidSet) Clone() *GtidSet {
	out := NewGtidSet()
	for k, us := range g.Sets {
		intervals := make(IntervalSlice, len(us.Intervals))
		copy(intervals, us.Intervals)
		out.Sets[k] = &UuidSet{SourceUUID: us.SourceUUID, Intervals: intervals}
	}
	return out
}

// EncodeBinlogDumpGTID encodes the set in the binary form BINLOG_DUMP_GTID
// expects (§4.3): uuid_set_count u64 LE, then per source 16 raw uuid bytes,
// interval_count u64 LE, per interval start u64 LE and (end+1) u64 LE.
func (g *GtidSet) EncodeBinlogDumpGTID() []byte {
	keys := make([]string, 0, len(g.Sets))
	for k := range g.Sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(keys)))
	for _, k := range keys {
		us := g.Sets[k]
		idBytes, _ := us.SourceUUID.MarshalBinary()
		buf = append(buf, idBytes...)

		count := make([]byte, 8)
		binary.LittleEndian.PutUint64(count, uint64(len(us.Intervals)))
		buf = append(buf, count...)

		for _, iv := range us.Intervals {
			ivBuf := make([]byte, 16)
			binary.LittleEndian.PutUint64(ivBuf[0:8], uint64(iv.Start))
			binary.LittleEndian.PutUint64(ivBuf[8:16], uint64(iv.End)+1)
			buf = append(buf, ivBuf...)
		}
	}
	return buf
}

// DataLength returns the byte length EncodeBinlogDumpGTID produces, which is
// also the data_len field BINLOG_DUMP_GTID carries ahead of this block
// (§9's noted 8 + Σ(16 + 8 + 16*intervals) formula).
func (g *GtidSet) DataLength() int {
	total := 8
	for _, us := range g.Sets {
		total += 16 + 8 + 16*len(us.Intervals)
	}
	return total
}

// ParsePreviousGtidsPayload decodes a MySqlPrevGtids event payload (§4.8):
// uuid_set_count u64 LE, per set 16-byte uuid, interval_count u64 LE, per
// interval start u64 LE and (end+1) u64 LE, stored as [start, end].
func ParsePreviousGtidsPayload(data []byte) (*GtidSet, error) {
	set := NewGtidSet()
	if len(data) < 8 {
		return set, nil
	}
	setCount := binary.LittleEndian.Uint64(data[0:8])
	offset := 8
	for i := uint64(0); i < setCount; i++ {
		if offset+16+8 > len(data) {
			return nil, errors.Trace(ErrMalformPacket)
		}
		id, err := uuid.FromBytes(data[offset : offset+16])
		if err != nil {
			return nil, errors.Annotatef(NewError(KindParse, "invalid source uuid in previous-gtids: %v", err), "parse previous gtids")
		}
		offset += 16
		intervalCount := binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8

		intervals := make(IntervalSlice, 0, intervalCount)
		for j := uint64(0); j < intervalCount; j++ {
			if offset+16 > len(data) {
				return nil, errors.Trace(ErrMalformPacket)
			}
			start := binary.LittleEndian.Uint64(data[offset : offset+8])
			endExclusive := binary.LittleEndian.Uint64(data[offset+8 : offset+16])
			offset += 16
			intervals = append(intervals, Interval{Start: int64(start), End: int64(endExclusive) - 1})
		}
		set.Sets[id.String()] = &UuidSet{SourceUUID: id, Intervals: intervals.Normalize()}
	}
	return set, nil
}
