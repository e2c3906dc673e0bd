// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

// DebounceInterval is how long a file must stay quiet before a reload.
const DebounceInterval = 500 * time.Millisecond

// Watcher calls a function whenever one file changes.
type Watcher struct {
	file     string
	onChange func() error
	watcher  *fsnotify.Watcher
	log      *pterm.Logger
	debounce time.Duration
}

// NewWatcher watches file. The containing directory is watched so that editors
// which replace the file on save are noticed too.
func NewWatcher(file string, log *pterm.Logger, onChange func() error) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		onChange: onChange,
		watcher:  watcher,
		log:      log,
		debounce: DebounceInterval,
	}, nil
}

// Run delivers debounced change notifications until ctx ends.
// Errors from the callback are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if p, err := filepath.Abs(event.Name); err != nil || p != w.file {
				continue
			}
			timer.Reset(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.onChange(); err != nil {
				w.log.Warn("reload failed", w.log.Args("file", w.file, "error", err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", w.log.Args("file", w.file, "error", err))
		}
	}
}
