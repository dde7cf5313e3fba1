// Package schema resolves table column metadata over a live connection,
// used to enrich a TableMapEvent whose trailing TableMetadata block lacks
// column names/signedness (binlog_row_metadata=MINIMAL, the common server
// default) (§4.14).
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pingcap/errors"
)

// ColumnInfo is the subset of SHOW FULL COLUMNS a row decoder needs to graft
// onto a TableMapEvent cache entry: the declared name and whether its
// numeric type is unsigned (§4.14).
type ColumnInfo struct {
	Name     string
	Unsigned bool
}

type columnRow struct {
	Field string `db:"Field"`
	Type  string `db:"Type"`
}

// Resolver queries INFORMATION_SCHEMA (via SHOW FULL COLUMNS) over a plain
// database/sql connection, opened through sqlx for scan convenience (§4.14).
type Resolver struct {
	db *sqlx.DB
}

// NewResolver opens a connection pool against dsn (a go-sql-driver/mysql
// data source name).
func NewResolver(dsn string) (*Resolver, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "open schema resolver connection")
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) Close() error {
	return r.db.Close()
}

// Columns returns the columns of schemaName.table in declaration order.
func (r *Resolver) Columns(ctx context.Context, schemaName, table string) ([]ColumnInfo, error) {
	var rows []columnRow
	query := fmt.Sprintf("SHOW FULL COLUMNS FROM `%s`.`%s`", schemaName, table)
	// SHOW FULL COLUMNS returns more columns than columnRow maps; Unsafe lets
	// sqlx skip the unmapped ones instead of failing the scan.
	if err := r.db.Unsafe().SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Annotatef(err, "resolve columns of %s.%s", schemaName, table)
	}

	columns := make([]ColumnInfo, len(rows))
	for i, row := range rows {
		columns[i] = ColumnInfo{
			Name:     row.Field,
			Unsigned: isUnsignedColumnType(row.Type),
		}
	}
	return columns, nil
}

// isUnsignedColumnType classifies a SHOW FULL COLUMNS type string the way
// the teacher's AddColumn does: a numeric column is unsigned iff its raw
// type declaration contains "unsigned" or "zerofill".
func isUnsignedColumnType(columnType string) bool {
	return strings.Contains(columnType, "unsigned") || strings.Contains(columnType, "zerofill")
}
