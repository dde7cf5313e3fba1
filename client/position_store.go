package client

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// positionDoc is the on-disk shape of a saved BinlogOptions (§4.13).
type positionDoc struct {
	Filename        string                 `json:"filename"`
	Position        uint32                 `json:"position"`
	Strategy        mysql.StartingStrategy `json:"strategy"`
	MySqlGtidSet    string                 `json:"mysql_gtid,omitempty"`
	MariaDbGtidList string                 `json:"mariadb_gtid,omitempty"`
}

// PositionStore persists a session's BinlogOptions to a single JSON file so
// a restarted client can resume without replaying from scratch (§4.13).
type PositionStore struct {
	path string
}

// NewPositionStore builds a store backed by path.
func NewPositionStore(path string) *PositionStore {
	return &PositionStore{path: path}
}

// Save atomically persists opts (write-temp then rename), so a crash
// mid-write never leaves a corrupt position file (§4.13).
func (s *PositionStore) Save(opts BinlogOptions) error {
	doc := positionDoc{
		Filename: opts.Filename,
		Position: opts.Position,
		Strategy: opts.Strategy,
	}
	if opts.MySqlGtidSet != nil {
		doc.MySqlGtidSet = opts.MySqlGtidSet.String()
	}
	if opts.MariaDbGtidList != nil {
		doc.MariaDbGtidList = opts.MariaDbGtidList.String()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindProtocol, "marshal position: %v", err), "save position")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".position-*.tmp")
	if err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindIo, "create temp position file: %v", err), "save position")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Annotatef(mysql.NewError(mysql.KindIo, "write temp position file: %v", err), "save position")
	}
	if err := tmp.Close(); err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindIo, "close temp position file: %v", err), "save position")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindIo, "rename temp position file: %v", err), "save position")
	}
	return nil
}

// Load reads a BinlogOptions previously written by Save.
func (s *PositionStore) Load() (BinlogOptions, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return BinlogOptions{}, errors.Annotatef(mysql.NewError(mysql.KindIo, "read position file: %v", err), "load position")
	}

	var doc positionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return BinlogOptions{}, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "unmarshal position: %v", err), "load position")
	}

	opts := BinlogOptions{
		Strategy: doc.Strategy,
		Filename: doc.Filename,
		Position: doc.Position,
	}
	if doc.MySqlGtidSet != "" {
		set, err := mysql.ParseGtidSet(doc.MySqlGtidSet)
		if err != nil {
			return BinlogOptions{}, errors.Annotatef(err, "load position: parse mysql gtid set")
		}
		opts.MySqlGtidSet = set
	}
	if doc.MariaDbGtidList != "" {
		list, err := mysql.ParseGtidList(doc.MariaDbGtidList)
		if err != nil {
			return BinlogOptions{}, errors.Annotatef(err, "load position: parse mariadb gtid list")
		}
		opts.MariaDbGtidList = list
	}
	return opts, nil
}
