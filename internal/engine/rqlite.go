// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	rqlitehttp "github.com/rqlite/rqlite-go-http"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/httperrors"
)

// Rqlite runs queries against an rqlite cluster over its HTTP API.
type Rqlite struct {
	client          *rqlitehttp.Client
	timeout         time.Duration
	readConsistency rqlitehttp.ReadConsistencyLevel
}

// OpenRqlite creates a client for the node at rawURL. Credentials may be given
// as user and password query parameters; they are moved to basic auth.
func OpenRqlite(rawURL string, timeout time.Duration) (*Rqlite, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("rqlite engine: invalid node URL %q", rawURL)
	}
	user := u.Query().Get("user")
	password := u.Query().Get("password")
	u.RawQuery = ""
	client := rqlitehttp.NewClient(u.String(), nil)
	if user != "" && password != "" {
		client.SetBasicAuth(user, password)
	}
	return NewRqlite(client, timeout), nil
}

// NewRqlite wraps an existing client. A zero timeout means 30 seconds.
func NewRqlite(client *rqlitehttp.Client, timeout time.Duration) *Rqlite {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Rqlite{
		client:          client,
		timeout:         timeout,
		readConsistency: rqlitehttp.ReadConsistencyLevelWeak,
	}
}

func (r *Rqlite) Name() string { return "rqlite" }

func (r *Rqlite) Close() error { return nil }

// Query runs one statement and renders the rows as row-records.
func (r *Rqlite) Query(ctx context.Context, query string) (json.RawMessage, error) {
	opts := &rqlitehttp.QueryOptions{
		Timeout: r.timeout,
		Level:   r.readConsistency,
	}
	qr, err := r.client.Query(ctx, rqlitehttp.SQLStatements{{SQL: query}}, opts)
	if err != nil {
		if httperrors.IsConnectionFailure(err) {
			return nil, connectionFailure(r.Name(), err)
		}
		return nil, queryFailure(r.Name(), err, nil)
	}
	if len(qr.Results) != 1 {
		return nil, qerrors.New(qerrors.MalformedDownstreamResponse, "rqlite returned an unreadable response").
			WithDetails(fmt.Sprintf("expected 1 result, got %d", len(qr.Results)))
	}
	result := qr.Results[0]
	if result.Error != "" {
		return nil, queryFailure(r.Name(), nil, map[string]any{"errorMessage": result.Error})
	}

	out := make([]Row, 0, len(result.Values))
	for _, values := range result.Values {
		if len(values) != len(result.Columns) {
			return nil, qerrors.New(qerrors.MalformedDownstreamResponse, "rqlite returned an unreadable response").
				WithDetails(fmt.Sprintf("expected %d values, got %d", len(result.Columns), len(values)))
		}
		row := make(Row, len(result.Columns))
		for i, c := range result.Columns {
			row[c] = scalar(values[i])
		}
		out = append(out, row)
	}

	return encodeRows(r.Name(), out)
}
