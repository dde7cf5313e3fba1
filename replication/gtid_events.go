package replication

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// MySqlGtidEvent marks the GTID a following transaction will commit under
// (§4.8).
type MySqlGtidEvent struct {
	Flags         byte
	SourceUUID    uuid.UUID
	TransactionID int64
}

func (e *MySqlGtidEvent) Decode(data []byte) error {
	if len(data) < 1+16+8 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	e.Flags = data[0]
	id, err := uuid.FromBytes(data[1:17])
	if err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindParse, "invalid source uuid: %v", err), "decode mysql gtid event")
	}
	e.SourceUUID = id
	e.TransactionID = int64(binary.LittleEndian.Uint64(data[17:25]))
	return nil
}

func (e *MySqlGtidEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "GTID: %s:%d\n", e.SourceUUID, e.TransactionID)
	fmt.Fprintln(w)
}

// MySqlPrevGtidsEvent records the set of GTIDs already applied before the
// current binlog file (§4.8).
type MySqlPrevGtidsEvent struct {
	GtidSet *mysql.GtidSet
}

func (e *MySqlPrevGtidsEvent) Decode(data []byte) error {
	set, err := mysql.ParsePreviousGtidsPayload(data)
	if err != nil {
		return err
	}
	e.GtidSet = set
	return nil
}

func (e *MySqlPrevGtidsEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "Previous GTIDs: %s\n", e.GtidSet.String())
	fmt.Fprintln(w)
}

// MariaDbGtidEvent marks the GTID a following transaction will commit under
// (§4.8).
type MariaDbGtidEvent struct {
	Gtid  mysql.Gtid
	Flags byte
}

const (
	mariaDbFlagDDL           byte = 0x01
	mariaDbFlagStandalone    byte = 0x02
	mariaDbFlagGroupCommitID byte = 0x04
)

func (e *MariaDbGtidEvent) Decode(data []byte) error {
	if len(data) < 13 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	sequence := binary.LittleEndian.Uint64(data[0:8])
	domainID := binary.LittleEndian.Uint32(data[8:12])
	e.Flags = data[12]
	e.Gtid = mysql.Gtid{DomainID: domainID, Sequence: sequence}
	return nil
}

// SetServerID fills in the ServerID field, which the event body itself
// does not carry (§4.8: "server_id is header.server_id").
func (e *MariaDbGtidEvent) SetServerID(serverID uint32) {
	e.Gtid.ServerID = serverID
}

func (e *MariaDbGtidEvent) IsDDL() bool        { return e.Flags&mariaDbFlagDDL != 0 }
func (e *MariaDbGtidEvent) IsStandalone() bool { return e.Flags&mariaDbFlagStandalone != 0 }

func (e *MariaDbGtidEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "GTID: %s\n", e.Gtid.String())
	fmt.Fprintf(w, "Flags: %d\n", e.Flags)
	fmt.Fprintln(w)
}

// MariaDbGtidListEvent records the GTID position at the start of a binlog
// file (§4.8).
type MariaDbGtidListEvent struct {
	GtidList *mysql.GtidList
}

func (e *MariaDbGtidListEvent) Decode(data []byte) error {
	if len(data) < 4 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	v := binary.LittleEndian.Uint32(data[0:4])
	count := v & ((1 << 28) - 1)
	pos := 4

	list := mysql.NewGtidList()
	for i := uint32(0); i < count; i++ {
		if pos+16 > len(data) {
			return errors.Trace(mysql.ErrMalformPacket)
		}
		domainID := binary.LittleEndian.Uint32(data[pos:])
		serverID := binary.LittleEndian.Uint32(data[pos+4:])
		sequence := binary.LittleEndian.Uint64(data[pos+8:])
		pos += 16
		list.AddGtid(mysql.Gtid{DomainID: domainID, ServerID: serverID, Sequence: sequence})
	}
	e.GtidList = list
	return nil
}

func (e *MariaDbGtidListEvent) Dump(w io.Writer) {
	fmt.Fprintf(w, "GTID list: %s\n", e.GtidList.String())
	fmt.Fprintln(w)
}
