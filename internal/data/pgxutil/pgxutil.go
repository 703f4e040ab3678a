// Package pgxutil runs native pgx calls on connections borrowed from a database/sql pool
// opened with the pgx stdlib driver.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNotPgxDriver is returned when the pool was not opened with the pgx stdlib driver.
var ErrNotPgxDriver = errors.New("database/sql pool is not backed by the pgx stdlib driver")

// WithConn borrows one connection from db and hands its *pgx.Conn to fn.
func WithConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return ErrNotPgxDriver
		}
		return fn(std.Conn())
	})
}

// QueryStructs runs query and scans every row into T, matching columns to `db` tags.
func QueryStructs[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	var out []T
	err := WithConn(ctx, db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exec runs a statement and returns the number of affected rows.
func Exec(ctx context.Context, db *sql.DB, stmt string, args ...any) (int64, error) {
	var n int64
	err := WithConn(ctx, db, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, stmt, args...)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}
