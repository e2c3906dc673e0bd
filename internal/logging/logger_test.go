// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"

	qerrors "querydeck/cli/internal/errors"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, pterm.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, pterm.LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, pterm.LogLevelDisabled, ParseLevel("off"))
	assert.Equal(t, pterm.LogLevelInfo, ParseLevel("bogus"))
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", "json", &buf)
	l.Info("relayed query", l.Args("rows", 3))
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"relayed query"`)
	assert.Contains(t, out, `"rows":3`)
	assert.NotContains(t, out, "hidden")
}

func TestPresentError(t *testing.T) {
	assert.Equal(t, "", PresentError("query", nil))
	assert.Equal(t, "query: error connecting to druid",
		PresentError("query", qerrors.Wrap(qerrors.ConnectionFailed, "error connecting to druid", errors.New("refused"))))
	assert.Equal(t, "connect: dial postgres://*:*@db/x",
		PresentError("connect", errors.New("dial postgres://u:p@db/x")))
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	pterm.DisableStyling()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
	return &buf
}

func TestPresentFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
		wantOut []string
	}{
		{
			name:    "relay unreachable",
			err:     qerrors.Wrap(qerrors.UnexpectedClientError, "cannot reach the relay at localhost:3001", fmt.Errorf("post: %w", syscall.ECONNREFUSED)),
			wantErr: "querying the relay: cannot reach the relay at localhost:3001",
			wantOut: []string{"Connection refused while querying the relay", "querydeck serve"},
		},
		{
			name:    "downstream details",
			err:     qerrors.New(qerrors.DownstreamError, "table not found").WithDetails(map[string]any{"errorClass": "ValidationException"}),
			wantErr: "querying the relay: table not found",
			wantOut: []string{"Details", "ValidationException"},
		},
		{
			name:    "plain error",
			err:     errors.New("dial postgres://u:p@db/x"),
			wantErr: "querying the relay: dial postgres://*:*@db/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			err := PresentFailure("querying the relay", tt.err)
			assert.EqualError(t, err, tt.wantErr)
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	assert.NoError(t, PresentFailure("x", nil))
}
