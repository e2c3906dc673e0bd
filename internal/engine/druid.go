// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/logging"
)

// Druid forwards queries to a Druid SQL endpoint over HTTP.
// A successful body is returned unmodified.
type Druid struct {
	// url is the SQL endpoint, fixed for the life of the process
	url string
	// client is the underlying HTTP client; no timeout unless the caller set one
	client *http.Client
}

// NewDruid creates a Druid engine posting to url. A nil client means a plain
// http.Client without timeout.
func NewDruid(url string, client *http.Client) *Druid {
	if client == nil {
		client = &http.Client{}
	}
	return &Druid{url: url, client: client}
}

func (d *Druid) Name() string { return "druid" }

func (d *Druid) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// Query posts {"query": query} to the SQL endpoint.
//
// Failures map as follows: transport errors are ConnectionFailed; a non-2xx
// status is DownstreamError whose details are the decoded JSON body, or
// "<code> <status text>" when the body is not JSON; a 2xx status with a body
// that is not JSON is MalformedDownstreamResponse.
func (d *Druid) Query(ctx context.Context, query string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, qerrors.Wrap(qerrors.UnexpectedClientError, "cannot encode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return nil, connectionFailure(d.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, connectionFailure(d.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, connectionFailure(d.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, qerrors.New(qerrors.DownstreamError, "druid returned an error").
			WithDetails(errorDetails(resp.StatusCode, body))
	}

	if !json.Valid(body) {
		return nil, qerrors.New(qerrors.MalformedDownstreamResponse, "druid returned an unreadable response").
			WithDetails(statusDescription(resp.StatusCode, body))
	}

	return json.RawMessage(body), nil
}

// errorDetails keeps the engine's error body when it is JSON and otherwise
// falls back to a textual status description.
func errorDetails(status int, body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		var v any
		if err := json.Unmarshal(trimmed, &v); err == nil {
			return v
		}
	}
	return statusDescription(status, body)
}

// statusDescription renders "<code> <status text>", followed by the start of
// the body when there is one.
func statusDescription(status int, body []byte) string {
	desc := fmt.Sprintf("%d %s", status, http.StatusText(status))
	if text := strings.TrimSpace(string(body)); text != "" {
		desc += ": " + logging.Truncate(text, 200)
	}
	return desc
}
