// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dashboard renders a set of query widgets in the terminal.
//
// A Board is built from a YAML Definition. Every widget runs its own
// fetch.Query, so widgets load, fail and succeed independently, and a
// definition reloaded at runtime swaps queries without ever showing a result
// that belongs to the previous one.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/fetch"
	"querydeck/cli/internal/logging"
	"querydeck/cli/internal/terminal"
)

// Board is a titled list of widgets sharing one transport.
type Board struct {
	transport fetch.Transport
	log       *pterm.Logger
	width     func() int
	notify    chan struct{}

	mu      sync.Mutex
	title   string
	widgets []Widget
	specs   map[string]WidgetSpec
}

// Option customizes a Board.
type Option func(*Board)

// WithLogger sets the logger used for reload messages.
func WithLogger(l *pterm.Logger) Option {
	return func(b *Board) { b.log = l }
}

// WithWidth overrides how the board measures the terminal.
func WithWidth(width func() int) Option {
	return func(b *Board) { b.width = width }
}

// NewBoard builds every widget in def and starts their queries.
func NewBoard(def Definition, transport fetch.Transport, opts ...Option) (*Board, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	b := &Board{
		transport: transport,
		log:       logging.Discard(),
		width:     terminal.Width,
		notify:    make(chan struct{}, 1),
		specs:     make(map[string]WidgetSpec),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.Apply(def); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Widgets returns the current widgets in display order.
func (b *Board) Widgets() []Widget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Widget(nil), b.widgets...)
}

// Apply switches the board to def. A widget whose id and kind are unchanged
// keeps its state and only gets the new query; other widgets are rebuilt, and
// widgets missing from def are closed.
func (b *Board) Apply(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	current := make(map[string]Widget, len(b.widgets))
	for _, w := range b.widgets {
		current[w.ID()] = w
	}

	var (
		next    = make([]Widget, 0, len(def.Widgets))
		started = make(map[Widget]<-chan struct{})
		specs   = make(map[string]WidgetSpec, len(def.Widgets))
	)
	for _, spec := range def.Widgets {
		specs[spec.ID] = spec
		if w, ok := current[spec.ID]; ok && sameLayout(b.specs[spec.ID], spec) {
			if b.specs[spec.ID].Query != spec.Query {
				b.log.Debug("widget query changed", b.log.Args("widget", spec.ID))
			}
			w.SetQuery(spec.Query)
			delete(current, spec.ID)
			next = append(next, w)
			continue
		}
		w, err := NewWidget(spec, b.transport)
		if err != nil {
			b.mu.Unlock()
			for s := range started {
				s.Close()
			}
			return err
		}
		started[w] = w.Changes()
		next = append(next, w)
	}
	for _, stale := range current {
		stale.Close()
	}
	b.title = def.Title
	b.widgets = next
	b.specs = specs
	b.mu.Unlock()

	for w, ch := range started {
		go b.forward(w, ch)
	}
	b.poke()
	return nil
}

// Render draws the title and one box per widget.
func (b *Board) Render() string {
	b.mu.Lock()
	title, widgets := b.title, append([]Widget(nil), b.widgets...)
	b.mu.Unlock()

	width := b.width()
	var sb strings.Builder
	if title != "" {
		sb.WriteString(pterm.DefaultSection.Sprint(title))
	}
	for _, w := range widgets {
		sb.WriteString(pterm.DefaultBox.WithTitle(w.Title()).Sprint(w.Render(width - 4)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// WaitSettled blocks until every widget has left Pending or ctx ends.
func (b *Board) WaitSettled(ctx context.Context) error {
	for _, w := range b.Widgets() {
		if err := w.Wait(ctx); err != nil {
			return fmt.Errorf("widget %q: %w", w.ID(), err)
		}
	}
	return nil
}

// RelayFailure returns the first widget failure meaning the relay itself could
// not be used, or nil. Engine failures are left to each widget's rendering.
func (b *Board) RelayFailure() error {
	for _, w := range b.Widgets() {
		if err := w.Failure(); qerrors.KindOf(err) == qerrors.UnexpectedClientError {
			return err
		}
	}
	return nil
}

// Changed receives a value after any widget changes state. Bursts are
// coalesced.
func (b *Board) Changed() <-chan struct{} { return b.notify }

// Run redraws the board in place on every change until ctx ends.
func (b *Board) Run(ctx context.Context) error {
	cursor.Hide()
	defer cursor.Show()

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return fmt.Errorf("start display: %w", err)
	}
	defer func() { _ = area.Stop() }()

	area.Update(b.Render())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.Changed():
			area.Update(b.Render())
		}
	}
}

// Close stops every widget.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.widgets {
		w.Close()
	}
	b.widgets = nil
}

// forward turns w's transitions into board notifications until w is closed.
// ch must be taken from w before the caller's own poke.
func (b *Board) forward(w Widget, ch <-chan struct{}) {
	for {
		select {
		case <-w.Done():
			return
		case <-ch:
			select {
			case <-w.Done():
				return
			default:
			}
			ch = w.Changes()
			b.poke()
		}
	}
}

// sameLayout reports whether a and b differ at most in their query.
func sameLayout(a, b WidgetSpec) bool {
	a.Query = b.Query
	return a == b
}

func (b *Board) poke() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
