// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestIsConnectionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "refused errno", err: fmt.Errorf("post: %w", syscall.ECONNREFUSED), want: true},
		{name: "dial op error", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("something")}, want: true},
		{name: "refused text", err: errors.New("dial tcp 127.0.0.1:8888: connect: connection refused"), want: true},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "druid.invalid"}, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "tls", err: errors.New("tls: failed to verify certificate: x509: unknown authority"), want: true},
		{name: "syntax error", err: errors.New("ERROR: syntax error at or near \"SELEC\""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionFailure(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Contains(t, Describe(syscall.ECONNREFUSED), "connection refused")
	assert.Contains(t, Describe(context.DeadlineExceeded), "timed out")
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "localhost:8888", ExtractHostFromURL("http://localhost:8888/druid/v2/sql"))
	assert.Equal(t, "server", ExtractHostFromURL("::not a url"))
}

func TestFormatNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: context.DeadlineExceeded, want: "Connection timeout while loading the dashboard"},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "relay.invalid"}, want: "Cannot resolve server address while loading the dashboard"},
		{name: "refused", err: syscall.ECONNREFUSED, want: "Connection refused while loading the dashboard"},
		{name: "tls", err: errors.New("x509: certificate signed by unknown authority"), want: "Secure connection failed while loading the dashboard"},
		{name: "other", err: errors.New("unexpected EOF"), want: "Request failed while loading the dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			pterm.SetDefaultOutput(&buf)
			defer pterm.SetDefaultOutput(os.Stdout)

			err := FormatNetworkError(tt.err, "loading the dashboard")
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "network error")
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	assert.NoError(t, FormatNetworkError(nil, "x"))
}
