// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge picks the transport commands use to reach a running relay:
// gRPC when an address for it is configured, HTTP otherwise.
package bridge

import (
	"strings"

	"querydeck/cli/internal/bridge/grpcclient"
	"querydeck/cli/internal/fetch"
)

// Client is a fetch transport that owns a connection.
type Client interface {
	fetch.Transport
	// Describe names the transport and its target for status output.
	Describe() string
	Close() error
}

// New returns a gRPC client when grpcAddr is set and an HTTP client for
// relayURL otherwise.
func New(relayURL, grpcAddr string) (Client, error) {
	if strings.TrimSpace(grpcAddr) != "" {
		c, err := grpcclient.Dial(grpcAddr)
		if err != nil {
			return nil, err
		}
		return grpcTransport{Client: c, addr: grpcAddr}, nil
	}
	return httpTransport{HTTPTransport: fetch.NewHTTPTransport(relayURL, nil), url: relayURL}, nil
}

type grpcTransport struct {
	*grpcclient.Client
	addr string
}

func (g grpcTransport) Describe() string { return "grpc://" + g.addr }

type httpTransport struct {
	*fetch.HTTPTransport
	url string
}

func (h httpTransport) Describe() string { return h.url }

func (h httpTransport) Close() error { return nil }

var (
	_ Client = grpcTransport{}
	_ Client = httpTransport{}
)

