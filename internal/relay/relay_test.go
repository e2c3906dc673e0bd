// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/logging"
)

// stubDownstream records every query it receives.
type stubDownstream struct {
	mu      sync.Mutex
	queries []string
	query   func(ctx context.Context, q string) (json.RawMessage, error)
}

func (s *stubDownstream) Name() string { return "stub" }

func (s *stubDownstream) Query(ctx context.Context, q string) (json.RawMessage, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.query == nil {
		return json.RawMessage(`[]`), nil
	}
	return s.query(ctx, q)
}

func (s *stubDownstream) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func TestRelayForwardsOnce(t *testing.T) {
	down := &stubDownstream{query: func(ctx context.Context, q string) (json.RawMessage, error) {
		return json.RawMessage(`[{"n": 42}]`), nil
	}}
	svc := New(down)

	for _, q := range []string{"SELECT 1", "SELECT COUNT(*) AS n FROM t", "  "} {
		resp := svc.Relay(context.Background(), Request{Query: q})
		require.True(t, resp.OK())
		assert.Equal(t, `[{"n": 42}]`, string(resp.Rows))
	}
	assert.Equal(t, []string{"SELECT 1", "SELECT COUNT(*) AS n FROM t", "  "}, down.calls())
}

func TestRelayMissingQuery(t *testing.T) {
	down := &stubDownstream{}
	svc := New(down)

	resp := svc.Relay(context.Background(), Request{})
	require.False(t, resp.OK())
	assert.Equal(t, qerrors.MissingQuery, resp.Failure.Kind)
	assert.Equal(t, `the "query" property is required in the body`, resp.Failure.Message)
	assert.Nil(t, resp.Rows)
	assert.Empty(t, down.calls())
}

func TestRelayNormalizesFailures(t *testing.T) {
	down := &stubDownstream{query: func(ctx context.Context, q string) (json.RawMessage, error) {
		return nil, errors.New("something odd")
	}}
	resp := New(down).Relay(context.Background(), Request{Query: "SELECT 1"})
	require.False(t, resp.OK())
	assert.Equal(t, qerrors.DownstreamError, resp.Failure.Kind)
	assert.Equal(t, "something odd", resp.Failure.Details)
}

func TestRelayTimeout(t *testing.T) {
	down := &stubDownstream{query: func(ctx context.Context, q string) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := New(down, WithTimeout(20*time.Millisecond))

	resp := svc.Relay(context.Background(), Request{Query: "SELECT sleep(60)"})
	require.False(t, resp.OK())
	assert.Equal(t, qerrors.ConnectionFailed, resp.Failure.Kind)
	assert.Contains(t, resp.Failure.Details, "timed out")
}

func TestRelayRecoversFromPanickingEngine(t *testing.T) {
	down := &stubDownstream{query: func(ctx context.Context, q string) (json.RawMessage, error) {
		panic("boom")
	}}
	resp := New(down).Relay(context.Background(), Request{Query: "SELECT 1"})
	require.False(t, resp.OK())
	assert.Equal(t, qerrors.DownstreamError, resp.Failure.Kind)
	assert.Contains(t, resp.Failure.Details, "stub engine panicked: boom")
}

func TestRelayLogsMaskedQuery(t *testing.T) {
	var buf bytes.Buffer
	down := &stubDownstream{}
	svc := New(down, WithLogger(logging.New("debug", "json", &buf)))

	svc.Relay(context.Background(), Request{Query: "SELECT * FROM dblink('postgres://admin:hunter2@db/wiki', 'x')"})

	out := buf.String()
	assert.Contains(t, out, "relaying query")
	assert.Contains(t, out, "query succeeded")
	assert.Contains(t, out, "*:*@db/wiki")
	assert.NotContains(t, out, "hunter2")
}

type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) { panic("disk on fire") }

func TestRelayLoggingFailureDoesNotAffectResponse(t *testing.T) {
	down := &stubDownstream{query: func(ctx context.Context, q string) (json.RawMessage, error) {
		return json.RawMessage(`[{"ok":true}]`), nil
	}}
	svc := New(down, WithLogger(logging.New("info", "text", panicWriter{})))

	resp := svc.Relay(context.Background(), Request{Query: "SELECT 1"})
	require.True(t, resp.OK())
	assert.Equal(t, `[{"ok":true}]`, string(resp.Rows))

	resp = svc.Relay(context.Background(), Request{})
	assert.Equal(t, qerrors.MissingQuery, resp.Failure.Kind)
}

func TestNormalize(t *testing.T) {
	typed := qerrors.New(qerrors.DownstreamError, "druid returned an error").WithDetails(map[string]any{"msg": "bad"})

	tests := []struct {
		name        string
		err         error
		wantKind    qerrors.Kind
		wantMessage string
		wantDetails any
	}{
		{name: "typed passes through", err: typed, wantKind: qerrors.DownstreamError, wantMessage: "druid returned an error", wantDetails: map[string]any{"msg": "bad"}},
		{name: "typed without message", err: qerrors.New(qerrors.MalformedDownstreamResponse, ""), wantKind: qerrors.MalformedDownstreamResponse, wantMessage: "the query engine returned an unreadable response"},
		{name: "cancelled", err: context.Canceled, wantKind: qerrors.ConnectionFailed, wantMessage: "error connecting to the query engine", wantDetails: "context canceled"},
		{name: "plain", err: errors.New("syntax error"), wantKind: qerrors.DownstreamError, wantMessage: "the query engine rejected the query", wantDetails: "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(tt.err)
			require.NotNil(t, f)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMessage, f.Message)
			assert.Equal(t, tt.wantDetails, f.Details)
		})
	}

	assert.Nil(t, Normalize(nil))
}
