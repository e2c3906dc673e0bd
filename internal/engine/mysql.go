// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"querydeck/cli/internal/dsn"
)

// MySQL runs queries through database/sql with the go-sql-driver/mysql driver.
type MySQL struct {
	db *sql.DB
}

// OpenMySQL validates rawDSN and prepares a connection pool. No connection is made yet.
func OpenMySQL(rawDSN string) (*MySQL, error) {
	native, err := dsn.Parse(rawDSN)
	if err != nil {
		return nil, err
	}
	cfg, err := mysql.ParseDSN(native)
	if err != nil {
		return nil, fmt.Errorf("mysql engine: %w", err)
	}
	cfg.ParseTime = true
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql engine: %w", err)
	}
	return &MySQL{db: sql.OpenDB(connector)}, nil
}

func (m *MySQL) Name() string { return "mysql" }

func (m *MySQL) Close() error { return m.db.Close() }

// Query runs a read query and renders the rows as row-records.
func (m *MySQL) Query(ctx context.Context, query string) (json.RawMessage, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, m.failure(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, m.failure(err)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, m.failure(err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = scalar(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, m.failure(err)
	}

	return encodeRows(m.Name(), out)
}

// failure keeps the server error number and SQLSTATE when mysql reported one.
func (m *MySQL) failure(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return queryFailure(m.Name(), err, map[string]any{
			"errorCode":    myErr.Number,
			"sqlState":     string(myErr.SQLState[:]),
			"errorMessage": myErr.Message,
		})
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return connectionFailure(m.Name(), err)
	}
	return classify(m.Name(), err)
}
