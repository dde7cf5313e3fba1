package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

// Gtid is a single MariaDB GTID coordinate: domain_id-server_id-sequence
// (§3, §4.8, §4.10).
type Gtid struct {
	DomainID uint32
	ServerID uint32
	Sequence uint64
}

func (g Gtid) String() string {
	return fmt.Sprintf("%d-%d-%d", g.DomainID, g.ServerID, g.Sequence)
}

func parseGtid(raw string) (Gtid, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return Gtid{}, NewError(KindParse, "invalid mariadb gtid %q: expected domain-server-sequence", raw)
	}
	domain, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Gtid{}, errors.Annotatef(NewError(KindParse, "invalid domain id in %q", raw), "parse mariadb gtid")
	}
	server, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Gtid{}, errors.Annotatef(NewError(KindParse, "invalid server id in %q", raw), "parse mariadb gtid")
	}
	seq, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Gtid{}, errors.Annotatef(NewError(KindParse, "invalid sequence in %q", raw), "parse mariadb gtid")
	}
	return Gtid{DomainID: uint32(domain), ServerID: uint32(server), Sequence: seq}, nil
}

// GtidList is an ordered sequence of Gtid values, unique by DomainID,
// preserving insertion order (§3, §4.10).
type GtidList struct {
	Gtids []Gtid
}

// NewGtidList builds an empty GtidList.
func NewGtidList() *GtidList {
	return &GtidList{}
}

// ParseGtidList parses the comma-separated textual form. It fails iff two
// entries share a domain_id (§4.10, §8 scenario 2).
func ParseGtidList(value string) (*GtidList, error) {
	list := NewGtidList()
	value = strings.TrimSpace(value)
	if value == "" {
		return list, nil
	}
	seen := make(map[uint32]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, err := parseGtid(part)
		if err != nil {
			return nil, errors.Annotatef(err, "parse gtid list %q", value)
		}
		if seen[g.DomainID] {
			return nil, NewError(KindParse, "gtid list %q must consist of unique domain ids", value)
		}
		seen[g.DomainID] = true
		list.Gtids = append(list.Gtids, g)
	}
	return list, nil
}

// AddGtid replaces the entry for g.DomainID if one is present, preserving
// its position, else appends g (§4.10).
func (l *GtidList) AddGtid(g Gtid) {
	for i, existing := range l.Gtids {
		if existing.DomainID == g.DomainID {
			l.Gtids[i] = g
			return
		}
	}
	l.Gtids = append(l.Gtids, g)
}

// String renders the list in domain-server-sequence form joined by ',',
// preserving insertion order (§4.10).
func (l *GtidList) String() string {
	parts := make([]string, len(l.Gtids))
	for i, g := range l.Gtids {
		parts[i] = g.String()
	}
	return strings.Join(parts, ",")
}

// Clone returns a deep copy.
func (l *GtidList) Clone() *GtidList {
	out := &GtidList{Gtids: make([]Gtid, len(l.Gtids))}
	copy(out.Gtids, l.Gtids)
	return out
}
