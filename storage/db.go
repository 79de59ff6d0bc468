package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNoRows is returned when a select, update, delete or statement touches no row
var ErrNoRows = errors.New("storage: no rows")

// Conn is what a query runs on: the read or write *sqlx.DB or an open *sqlx.Tx
type Conn interface {
	sqlx.ExtContext
}

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
}

func newDB(conf *Config) *db {
	return &db{
		writeConnection: conf.WriteOnlyDbConn,
		readConnection:  conf.ReadOnlyDbConn,
	}
}

// queryOne runs a named query and scans the first row into dest
func (db *db) queryOne(ctx context.Context, conn Conn, query string, arg interface{}, dest interface{}) error {
	rows, err := sqlx.NamedQueryContext(ctx, conn, query, arg)
	if err != nil {
		return err
	}
	// Let's make sure we don't have a memory leak!! :)
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrNoRows
	}

	if err := rows.StructScan(dest); err != nil {
		return err
	}
	return rows.Err()
}

// queryAll runs a named query and scans every row into dest which must be a pointer to a slice
func (db *db) queryAll(ctx context.Context, conn Conn, query string, arg interface{}, dest interface{}) error {
	rows, err := sqlx.NamedQueryContext(ctx, conn, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	return sqlx.StructScan(rows, dest)
}

// queryIn runs a query with named parameters that may hold slices for `IN (:param)`
func (db *db) queryIn(ctx context.Context, conn Conn, query string, params map[string]interface{}, dest interface{}) error {
	q, args, err := sqlx.Named(query, params)
	if err != nil {
		return err
	}
	q, args, err = sqlx.In(q, args...)
	if err != nil {
		return err
	}

	rows, err := conn.QueryxContext(ctx, conn.Rebind(q), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	return sqlx.StructScan(rows, dest)
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}

func isNoRows(err error) bool {
	return errors.Is(err, ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
