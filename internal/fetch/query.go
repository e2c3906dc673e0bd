// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package fetch turns a query string into a typed, observable result.
//
// A Query[T] runs one relay request per distinct query value and moves through
// Idle, Pending and then Failed or Succeeded. Every request is tagged with the
// generation that issued it; a result whose generation is no longer current is
// dropped, so a slow answer to an old query can never overwrite a newer one.
// Instances share nothing, so each widget owns its own.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	qerrors "querydeck/cli/internal/errors"
)

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("fetch: query closed")

// Transport sends one query to the relay and returns the raw rows.
// Relay failures are returned as *errors.E.
type Transport interface {
	Relay(ctx context.Context, query string) (json.RawMessage, error)
}

// Query holds the state of one widget's query.
type Query[T any] struct {
	transport Transport
	ctx       context.Context
	cancel    context.CancelFunc

	mu      sync.Mutex
	gen     uint64
	query   string
	state   State[T]
	changed chan struct{}
	closed  bool

	// completed is called after every finished request with whether its
	// result was applied.
	completed func(applied bool)
}

// New returns an Idle Query using transport.
func New[T any](transport Transport) *Query[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Query[T]{
		transport: transport,
		ctx:       ctx,
		cancel:    cancel,
		state:     IdleState[T](),
		changed:   make(chan struct{}),
	}
}

// Use is New followed by Set(query).
func Use[T any](transport Transport, query string) *Query[T] {
	q := New[T](transport)
	q.Set(query)
	return q
}

// Set switches the query. Setting the current value again does nothing.
// An empty query moves to Idle without a request; any other value moves to
// Pending and issues exactly one request.
func (q *Query[T]) Set(query string) {
	q.mu.Lock()
	if q.closed || query == q.query {
		q.mu.Unlock()
		return
	}
	q.gen++
	gen := q.gen
	q.query = query
	if query == "" {
		q.setLocked(IdleState[T]())
		q.mu.Unlock()
		return
	}
	q.setLocked(PendingState[T](query))
	q.mu.Unlock()

	go q.run(gen, query)
}

// State returns the current snapshot.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Observe returns the current snapshot and a channel closed at the next
// transition. Transitions between two Observe calls are coalesced.
func (q *Query[T]) Observe() (State[T], <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state, q.changed
}

// Changes returns a channel closed at the next transition.
func (q *Query[T]) Changes() <-chan struct{} {
	_, ch := q.Observe()
	return ch
}

// Done is closed by Close.
func (q *Query[T]) Done() <-chan struct{} { return q.ctx.Done() }

// Wait blocks until the state is settled or ctx ends.
func (q *Query[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		q.mu.Lock()
		s, ch, closed := q.state, q.changed, q.closed
		q.mu.Unlock()
		if s.Settled() {
			return s, nil
		}
		if closed {
			return s, ErrClosed
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Close discards in-flight results and stops further transitions.
// The last state stays readable.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cancel()
	close(q.changed)
}

func (q *Query[T]) setLocked(s State[T]) {
	q.state = s
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Query[T]) run(gen uint64, query string) {
	rows, err := q.fetch(query)

	q.mu.Lock()
	applied := !q.closed && gen == q.gen
	if applied {
		if err != nil {
			q.setLocked(failedState[T](query, err))
		} else {
			q.setLocked(SucceededState(query, rows))
		}
	}
	hook := q.completed
	q.mu.Unlock()

	if hook != nil {
		hook(applied)
	}
}

func (q *Query[T]) fetch(query string) (rows []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("fetch: transport panicked: %v", r)
		}
	}()

	raw, err := q.transport.Relay(q.ctx, query)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, qerrors.Wrap(qerrors.MalformedDownstreamResponse, "rows do not match the expected shape", err).
			WithDetails(err.Error())
	}
	return rows, nil
}
