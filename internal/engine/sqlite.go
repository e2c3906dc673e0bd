// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLite runs queries against a local SQLite database through a sqlitex pool.
type SQLite struct {
	pool *sqlitex.Pool
}

// OpenSQLite opens a pool for uri, e.g. "file:wiki.db?mode=ro".
func OpenSQLite(uri string) (*SQLite, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("sqlite engine: database URI is required")
	}
	pool, err := sqlitex.NewPool(uri, sqlitex.PoolOptions{})
	if err != nil {
		return nil, fmt.Errorf("sqlite engine: %w", err)
	}
	return NewSQLite(pool), nil
}

// NewSQLite wraps an existing pool.
func NewSQLite(pool *sqlitex.Pool) *SQLite {
	return &SQLite{pool: pool}
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Close() error { return s.pool.Close() }

// Query runs a single statement and renders the rows as row-records.
func (s *SQLite) Query(ctx context.Context, query string) (json.RawMessage, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, connectionFailure(s.Name(), err)
	}
	defer s.pool.Put(conn)

	out := []Row{}
	opts := &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row := make(Row, stmt.ColumnCount())
			for i := 0; i < stmt.ColumnCount(); i++ {
				row[stmt.ColumnName(i)] = sqliteValue(stmt, i)
			}
			out = append(out, row)
			return nil
		},
	}
	if err := sqlitex.Execute(conn, query, opts); err != nil {
		return nil, queryFailure(s.Name(), err, map[string]any{
			"errorCode": sqlite.ErrCode(err).String(),
		})
	}

	return encodeRows(s.Name(), out)
}

func sqliteValue(stmt *sqlite.Stmt, i int) any {
	switch stmt.ColumnType(i) {
	case sqlite.TypeInteger:
		return stmt.ColumnInt64(i)
	case sqlite.TypeFloat:
		return stmt.ColumnFloat(i)
	case sqlite.TypeText:
		return stmt.ColumnText(i)
	case sqlite.TypeBlob:
		buf := make([]byte, stmt.ColumnLen(i))
		stmt.ColumnBytes(i, buf)
		return scalar(buf)
	default:
		return nil
	}
}
