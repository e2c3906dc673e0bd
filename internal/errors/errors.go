// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that crosses the relay boundary is expressed as an *E carrying a
// machine-readable Kind, a short human-readable message and, when available, the
// raw details returned by the downstream query engine.
//
// The relay and the fetch client both speak this one failure shape, so callers
// never have to inspect transport errors or ad hoc error bodies themselves.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// MissingQuery indicates the caller sent an empty or absent query.
	MissingQuery Kind = "missing_query"
	// ConnectionFailed indicates the downstream engine could not be reached.
	ConnectionFailed Kind = "connection_failed"
	// DownstreamError indicates the downstream engine answered with a failure.
	DownstreamError Kind = "downstream_error"
	// MalformedDownstreamResponse indicates the engine's body could not be parsed.
	MalformedDownstreamResponse Kind = "malformed_downstream_response"
	// UnexpectedClientError covers client-side failures outside the other kinds,
	// such as the relay itself being unreachable.
	UnexpectedClientError Kind = "unexpected_client_error"
)

// Known reports whether k is one of the kinds declared above.
func (k Kind) Known() bool {
	switch k {
	case MissingQuery, ConnectionFailed, DownstreamError, MalformedDownstreamResponse, UnexpectedClientError:
		return true
	}
	return false
}

// DefaultMessage returns the message used when a failure of this kind carries none.
func (k Kind) DefaultMessage() string {
	switch k {
	case MissingQuery:
		return `the "query" property is required in the body`
	case ConnectionFailed:
		return "error connecting to the query engine"
	case DownstreamError:
		return "the query engine rejected the query"
	case MalformedDownstreamResponse:
		return "the query engine returned an unreadable response"
	default:
		return "unexpected error"
	}
}

// E wraps an error with kind, human-friendly message and raw details.
// Details holds whatever the downstream returned (a decoded JSON value) or a
// synthesized description string; it is nil when nothing useful exists.
type E struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// WithDetails returns a copy of e carrying details.
func (e *E) WithDetails(details any) *E {
	c := *e
	c.Details = details
	return &c
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a shortcut for extracting an *E from err's chain.
func As(err error) (*E, bool) {
	var e *E
	ok := stderrors.As(err, &e)
	return e, ok
}
