// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fetch

import (
	qerrors "querydeck/cli/internal/errors"
)

// Status is the tag of a State.
type Status int

const (
	// Idle means no query has been requested; nothing is in flight.
	Idle Status = iota
	// Pending means a request for the current query is in flight.
	Pending
	// Failed means the current query ended with an error.
	Failed
	// Succeeded means the current query returned rows, possibly none.
	Succeeded
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	}
	return "unknown"
}

// State is an immutable snapshot of a Query. Only the accessors matching
// Status carry meaningful values: Rows for Succeeded, Kind/Message/Err for Failed.
type State[T any] struct {
	status  Status
	query   string
	rows    []T
	kind    qerrors.Kind
	message string
	err     error
}

func IdleState[T any]() State[T] { return State[T]{status: Idle} }

func PendingState[T any](query string) State[T] {
	return State[T]{status: Pending, query: query}
}

// FailedState builds a Failed state. An empty message is replaced by the
// kind's default message.
func FailedState[T any](query string, kind qerrors.Kind, message string) State[T] {
	if message == "" {
		message = kind.DefaultMessage()
	}
	return State[T]{status: Failed, query: query, kind: kind, message: message}
}

// SucceededState builds a Succeeded state; nil rows become an empty slice.
func SucceededState[T any](query string, rows []T) State[T] {
	if rows == nil {
		rows = []T{}
	}
	return State[T]{status: Succeeded, query: query, rows: rows}
}

func (s State[T]) Status() Status { return s.status }

// Query is the query this state belongs to; empty for Idle.
func (s State[T]) Query() string { return s.query }

// Rows returns the result rows of a Succeeded state and nil otherwise.
func (s State[T]) Rows() []T {
	if s.status != Succeeded {
		return nil
	}
	return s.rows
}

func (s State[T]) Kind() qerrors.Kind { return s.kind }

// Message is the human readable failure message of a Failed state.
func (s State[T]) Message() string { return s.message }

// Err is the underlying error of a Failed state, when one was kept.
func (s State[T]) Err() error { return s.err }

// Failure returns the error of a Failed state as an *errors.E carrying its kind
// and message, wrapping the original error when one was kept. It is nil for
// every other status.
func (s State[T]) Failure() error {
	if s.status != Failed {
		return nil
	}
	if e, ok := qerrors.As(s.err); ok && e.Kind == s.kind {
		return e
	}
	return qerrors.Wrap(s.kind, s.message, s.err)
}

// Settled reports whether the state will not change until the query does.
func (s State[T]) Settled() bool { return s.status != Pending }
