// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package relay forwards opaque queries to the downstream engine fixed at
// process start and maps every outcome onto one response contract: either the
// engine's rows, passed through untouched, or a Failure with a kind, a short
// message and whatever diagnostic payload the engine produced.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/logging"
)

// Downstream is the engine the relay forwards to. engine.Engine satisfies it.
type Downstream interface {
	Name() string
	Query(ctx context.Context, query string) (json.RawMessage, error)
}

// Request is one inbound relay call.
type Request struct {
	Query string `json:"query"`
}

// Failure is the normalized failure record.
type Failure = qerrors.E

// Response carries exactly one of Rows or Failure.
type Response struct {
	Rows    json.RawMessage
	Failure *Failure
}

// OK reports whether the response carries rows.
func (r Response) OK() bool { return r.Failure == nil }

// Service relays queries to a single downstream.
type Service struct {
	downstream Downstream
	timeout    time.Duration
	log        *pterm.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithTimeout bounds each downstream call. Zero, the default, means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger used for query and outcome lines.
func WithLogger(l *pterm.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a Service forwarding to downstream.
func New(downstream Downstream, opts ...Option) *Service {
	s := &Service{downstream: downstream, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the downstream engine name.
func (s *Service) Engine() string { return s.downstream.Name() }

// Relay forwards req.Query to the downstream exactly once. An empty query
// fails with MissingQuery before anything is sent.
func (s *Service) Relay(ctx context.Context, req Request) Response {
	if req.Query == "" {
		f := qerrors.New(qerrors.MissingQuery, qerrors.MissingQuery.DefaultMessage())
		s.logOutcome("", 0, f)
		return Response{Failure: f}
	}

	s.logQuery(req.Query)
	start := time.Now()

	rows, err := s.call(ctx, req.Query)
	if err != nil {
		f := Normalize(err)
		s.logOutcome(req.Query, time.Since(start), f)
		return Response{Failure: f}
	}

	s.logOutcome(req.Query, time.Since(start), nil)
	return Response{Rows: rows}
}

func (s *Service) call(ctx context.Context, query string) (rows json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s engine panicked: %v", s.downstream.Name(), r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.downstream.Query(ctx, query)
}

func (s *Service) logQuery(query string) {
	defer func() { _ = recover() }()
	s.log.Info("relaying query", s.log.Args(
		"engine", s.downstream.Name(),
		"query", logging.Truncate(logging.Mask(query), 500),
	))
}

func (s *Service) logOutcome(query string, took time.Duration, f *Failure) {
	defer func() { _ = recover() }()
	if f == nil {
		s.log.Info("query succeeded", s.log.Args("engine", s.downstream.Name(), "took", took.Round(time.Millisecond).String()))
		return
	}
	args := s.log.Args(
		"engine", s.downstream.Name(),
		"kind", string(f.Kind),
		"error", logging.Mask(f.Message),
	)
	if f.Err != nil {
		args = append(args, s.log.Args("cause", logging.Mask(f.Err.Error()))...)
	}
	if query != "" {
		args = append(args, s.log.Args("took", took.Round(time.Millisecond).String())...)
	}
	if f.Kind == qerrors.MissingQuery {
		s.log.Warn("rejected request", args)
		return
	}
	s.log.Error("query failed", args)
}
