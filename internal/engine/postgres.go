// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"querydeck/cli/internal/dsn"
)

// Postgres runs queries over a pgx connection pool.
type Postgres struct {
	// Pool is the PostgreSQL connection pool
	Pool *pgxpool.Pool
}

// OpenPostgres normalizes rawDSN and creates a lazily connecting pool.
func OpenPostgres(ctx context.Context, rawDSN string) (*Postgres, error) {
	normalized, err := dsn.Parse(rawDSN)
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(normalized)
	if err != nil {
		return nil, fmt.Errorf("postgres engine: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres engine: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Close() error {
	p.Pool.Close()
	return nil
}

// Query runs a read query and renders the rows as row-records.
func (p *Postgres) Query(ctx context.Context, query string) (json.RawMessage, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, connectionFailure(p.Name(), err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, p.failure(err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	out := []Row{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, p.failure(err)
		}
		row := make(Row, len(cols))
		for i, v := range vals {
			row[cols[i]] = scalar(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.failure(err)
	}

	return encodeRows(p.Name(), out)
}

// failure keeps the server's SQLSTATE and message when postgres reported one.
func (p *Postgres) failure(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return queryFailure(p.Name(), err, map[string]any{
			"error":        pgErr.Severity,
			"errorCode":    pgErr.Code,
			"errorMessage": pgErr.Message,
		})
	}
	return classify(p.Name(), err)
}
