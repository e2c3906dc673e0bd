// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model maps relay requests and responses onto the gRPC wire messages.
// Both directions use google.protobuf.Struct so the service needs no generated
// code: a request is {"query": "..."}, a response is either {"rows": [...]} or
// {"error": "...", "kind": "...", "details": ...}.
package model

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/relay"
)

const (
	ServiceName = "querydeck.Relay"
	QueryMethod = "/" + ServiceName + "/Query"
)

func EncodeRequest(req relay.Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"query": req.Query})
}

// DecodeRequest reads the query field; a missing or non-string field yields
// an empty query.
func DecodeRequest(in *structpb.Struct) relay.Request {
	return relay.Request{Query: in.GetFields()["query"].GetStringValue()}
}

// EncodeResponse renders resp as a Struct. Row values go through JSON so the
// result only contains types Struct can hold.
func EncodeResponse(resp relay.Response) (*structpb.Struct, error) {
	if resp.Failure != nil {
		fb := relay.Body(resp.Failure)
		details, err := plain(fb.Details)
		if err != nil {
			details = fmt.Sprint(fb.Details)
		}
		return structpb.NewStruct(map[string]any{
			"error":   fb.Error,
			"kind":    string(fb.Kind),
			"details": details,
		})
	}

	var rows any
	if err := json.Unmarshal(resp.Rows, &rows); err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return structpb.NewStruct(map[string]any{"rows": rows})
}

// DecodeResponse turns a response Struct back into rows or a typed failure.
func DecodeResponse(out *structpb.Struct) (json.RawMessage, error) {
	fields := out.AsMap()
	if rows, ok := fields["rows"]; ok {
		b, err := json.Marshal(rows)
		if err != nil {
			return nil, qerrors.Wrap(qerrors.MalformedDownstreamResponse, "the relay returned an unreadable response", err)
		}
		return b, nil
	}

	msg, _ := fields["error"].(string)
	kind := qerrors.Kind(fmt.Sprint(fields["kind"]))
	if !kind.Known() {
		kind = qerrors.DownstreamError
	}
	if msg == "" {
		msg = kind.DefaultMessage()
	}
	return nil, qerrors.New(kind, msg).WithDetails(fields["details"])
}

func plain(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(b, &out)
	return out, err
}
