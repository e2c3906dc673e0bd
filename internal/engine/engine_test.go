// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "querydeck/cli/internal/errors"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	e, err := Open(ctx, Options{Kind: KindDruid, URL: "http://localhost:8888/druid/v2/sql"})
	require.NoError(t, err)
	assert.Equal(t, "druid", e.Name())

	e, err = Open(ctx, Options{URL: "http://localhost:8888/druid/v2/sql"})
	require.NoError(t, err)
	assert.Equal(t, "druid", e.Name(), "empty kind defaults to druid")

	e, err = Open(ctx, Options{Kind: KindRqlite, DSN: "http://localhost:4001?user=admin&password=secret"})
	require.NoError(t, err)
	assert.Equal(t, "rqlite", e.Name())

	e, err = Open(ctx, Options{Kind: KindSQLite, DSN: "file:open_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", e.Name())
	require.NoError(t, e.Close())

	_, err = Open(ctx, Options{Kind: KindDruid})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Kind: "oracle"})
	assert.ErrorContains(t, err, `unknown engine "oracle"`)

	_, err = Open(ctx, Options{Kind: KindRqlite, DSN: "not a url"})
	assert.Error(t, err)
}

func TestScalar(t *testing.T) {
	ts := time.Date(2016, 6, 27, 0, 0, 11, 80_000_000, time.FixedZone("CET", 3600))
	uuid := [16]byte{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "text bytes", in: []byte("hello"), want: "hello"},
		{name: "uuid array", in: uuid, want: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "uuid bytes", in: uuid[:], want: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "binary bytes", in: []byte{0xff, 0xfe}, want: `\xfffe`},
		{name: "time", in: ts, want: "2016-06-26T23:00:11.08Z"},
		{name: "int", in: int64(7), want: int64(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scalar(tt.in))
		})
	}
}

func TestEncodeRowsNeverNull(t *testing.T) {
	b, err := encodeRows("sqlite", nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("postgres", nil))

	typed := qerrors.New(qerrors.DownstreamError, "already typed")
	assert.Same(t, typed, classify("postgres", typed))

	err := classify("postgres", fmt.Errorf("dial: %w", syscall.ECONNREFUSED))
	e, ok := qerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.ConnectionFailed, e.Kind)
	assert.Equal(t, "error connecting to postgres", e.Message)

	err = classify("mysql", errors.New("Unknown column 'x'"))
	e, ok = qerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.DownstreamError, e.Kind)
	assert.Equal(t, map[string]any{"errorMessage": "Unknown column 'x'", "engine": "mysql"}, e.Details)
}
