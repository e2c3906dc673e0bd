// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package engine provides the downstream query engines the relay forwards to.
// Every engine takes an opaque query string and returns a JSON array of
// row-records, or a *errors.E whose kind says whether the engine could not be
// reached, answered with a failure, or answered with something unreadable.
//
// Druid is the primary engine and its success body is passed through byte for
// byte. The SQL adapters (postgres, mysql, sqlite, rqlite) render their result
// sets into the same row-record shape so callers cannot tell them apart.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/httperrors"
)

// Engine executes opaque queries against one fixed downstream.
type Engine interface {
	// Name is the short engine name used in messages, e.g. "druid".
	Name() string
	// Query runs query and returns the rows as a JSON array of objects.
	// Errors are always *errors.E.
	Query(ctx context.Context, query string) (json.RawMessage, error)
	Close() error
}

// Kind names an engine adapter.
type Kind string

const (
	KindDruid    Kind = "druid"
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
	KindRqlite   Kind = "rqlite"
)

// Options selects and configures an engine.
type Options struct {
	Kind Kind
	// URL is the druid SQL endpoint, e.g. http://localhost:8888/druid/v2/sql.
	URL string
	// DSN is the connection string used by the SQL adapters. For rqlite it is
	// the node URL, optionally with user and password query parameters.
	DSN string
	// Timeout bounds rqlite's server-side query time; zero uses the default.
	Timeout time.Duration
}

// Open builds the engine described by opts. SQL pools connect lazily, so an
// unreachable database surfaces as ConnectionFailed on the first query rather
// than here.
func Open(ctx context.Context, opts Options) (Engine, error) {
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindDruid, "":
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("druid engine: downstream URL is required")
		}
		return NewDruid(opts.URL, nil), nil
	case KindPostgres:
		return OpenPostgres(ctx, opts.DSN)
	case KindMySQL:
		return OpenMySQL(opts.DSN)
	case KindSQLite:
		return OpenSQLite(opts.DSN)
	case KindRqlite:
		return OpenRqlite(opts.DSN, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown engine %q", opts.Kind)
	}
}

// connectionFailure builds the ConnectionFailed error for engine name.
func connectionFailure(name string, err error) *qerrors.E {
	return qerrors.Wrap(qerrors.ConnectionFailed, "error connecting to "+name, err).
		WithDetails(httperrors.Describe(err))
}

// queryFailure builds the DownstreamError for engine name with the given details.
func queryFailure(name string, err error, details map[string]any) *qerrors.E {
	if details == nil {
		details = map[string]any{}
	}
	if _, ok := details["errorMessage"]; !ok && err != nil {
		details["errorMessage"] = err.Error()
	}
	details["engine"] = name
	return qerrors.Wrap(qerrors.DownstreamError, name+" returned an error", err).WithDetails(details)
}

// classify turns an error from a SQL driver into a typed failure. Driver
// specific detail extraction happens in the adapters before this fallback.
func classify(name string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := qerrors.As(err); ok {
		return e
	}
	if httperrors.IsConnectionFailure(err) {
		return connectionFailure(name, err)
	}
	return queryFailure(name, err, nil)
}
