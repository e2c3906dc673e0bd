// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/httperrors"
	"querydeck/cli/internal/logging"
	"querydeck/cli/internal/relay"
)

// HTTPTransport talks to a relay over its JSON HTTP API.
type HTTPTransport struct {
	// baseURL is the relay root, e.g. "http://localhost:3001"
	baseURL string
	// client has no timeout unless the caller configured one
	client *http.Client
}

// NewHTTPTransport creates a transport for the relay at baseURL. A nil client
// means a plain http.Client without timeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Relay posts {"query": query} to /api/data and returns the rows body.
func (h *HTTPTransport) Relay(ctx context.Context, query string) (json.RawMessage, error) {
	payload, err := json.Marshal(relay.Request{Query: query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+relay.DataPath, bytes.NewReader(payload))
	if err != nil {
		return nil, h.unreachable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, h.unreachable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.unreachable(err)
	}

	if resp.StatusCode == http.StatusOK {
		if !json.Valid(body) {
			return nil, qerrors.New(qerrors.MalformedDownstreamResponse, "the relay returned an unreadable response").
				WithDetails(bodyText(body))
		}
		return json.RawMessage(body), nil
	}

	return nil, failureFromBody(resp.StatusCode, body)
}

// Version calls GET /api/version and returns the relay version when available.
func (h *HTTPTransport) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+relay.VersionPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", h.unreachable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

func (h *HTTPTransport) unreachable(err error) error {
	return qerrors.Wrap(qerrors.UnexpectedClientError,
		"cannot reach the relay at "+httperrors.ExtractHostFromURL(h.baseURL), err).
		WithDetails(httperrors.Describe(err))
}

// failureFromBody rebuilds the relay's failure from an error response.
// Relays that omit the kind get one from the status code.
func failureFromBody(status int, body []byte) error {
	var fb relay.FailureBody
	if err := json.Unmarshal(body, &fb); err != nil || fb.Error == "" {
		kind := kindForStatus(status)
		return qerrors.New(kind, fmt.Sprintf("relay returned %d %s", status, http.StatusText(status))).
			WithDetails(bodyText(body))
	}
	kind := fb.Kind
	if !kind.Known() {
		kind = kindForStatus(status)
	}
	return qerrors.New(kind, fb.Error).WithDetails(fb.Details)
}

func kindForStatus(status int) qerrors.Kind {
	if status == http.StatusBadRequest {
		return qerrors.MissingQuery
	}
	return qerrors.DownstreamError
}

func bodyText(body []byte) string {
	return logging.Truncate(strings.TrimSpace(string(body)), 200)
}
