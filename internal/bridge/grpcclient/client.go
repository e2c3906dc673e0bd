// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient is the gRPC implementation of the fetch transport.
package grpcclient

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"querydeck/cli/internal/bridge/model"
	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/relay"
)

// Client calls querydeck.Relay/Query on one connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. Without options the connection is plaintext.
// No connection is made until the first call.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Relay sends query and returns the rows or the relay's typed failure.
func (c *Client) Relay(ctx context.Context, query string) (json.RawMessage, error) {
	in, err := model.EncodeRequest(relay.Request{Query: query})
	if err != nil {
		return nil, qerrors.Wrap(qerrors.UnexpectedClientError, "cannot encode query", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, model.QueryMethod, in, out); err != nil {
		return nil, c.unreachable(err)
	}
	return model.DecodeResponse(out)
}

// Health asks the relay's health service about the relay service.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: model.ServiceName})
	if err != nil {
		return "", c.unreachable(err)
	}
	return resp.GetStatus().String(), nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) unreachable(err error) error {
	details := err.Error()
	if st, ok := status.FromError(err); ok {
		details = st.Code().String() + ": " + st.Message()
	}
	return qerrors.Wrap(qerrors.UnexpectedClientError, "cannot reach the relay at "+c.conn.Target(), err).
		WithDetails(details)
}
