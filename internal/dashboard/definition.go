// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dashboard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Kind selects how a widget decodes and renders its rows.
type Kind string

const (
	EventCountKind     Kind = "event_count"
	RecentEditsKind    Kind = "recent_edits"
	HourlyEditsKind    Kind = "hourly_edits"
	ActivityTrendsKind Kind = "activity_trends"
	TopCountriesKind   Kind = "top_countries"
	// TableKind renders any rows as a plain table.
	TableKind Kind = "table"
)

func (k Kind) valid() bool {
	switch k {
	case EventCountKind, RecentEditsKind, HourlyEditsKind, ActivityTrendsKind, TopCountriesKind, TableKind:
		return true
	}
	return false
}

// Definition is a dashboard read from YAML.
type Definition struct {
	Title   string       `yaml:"title"`
	Widgets []WidgetSpec `yaml:"widgets"`
}

// WidgetSpec declares one widget.
type WidgetSpec struct {
	ID    string `yaml:"id"`
	Kind  Kind   `yaml:"kind"`
	Title string `yaml:"title"`
	Query string `yaml:"query"`
	// Loading and Empty override the default Pending and no-rows texts.
	Loading string `yaml:"loading,omitempty"`
	Empty   string `yaml:"empty,omitempty"`
}

// Default returns the built-in Wikipedia edits dashboard.
func Default() Definition {
	def, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("dashboard: built-in definition is invalid: %v", err))
	}
	return def
}

// Load reads and validates a definition file from fs.
func Load(fs afero.Fs, path string) (Definition, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Definition{}, fmt.Errorf("read dashboard %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("dashboard %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a YAML definition. Unknown fields are rejected.
func Parse(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("parse: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	for i := range def.Widgets {
		def.Widgets[i].Query = strings.TrimSpace(def.Widgets[i].Query)
	}
	return def, nil
}

// Validate checks that widgets have unique ids and known kinds.
func (d Definition) Validate() error {
	if len(d.Widgets) == 0 {
		return errors.New("no widgets defined")
	}
	seen := make(map[string]bool, len(d.Widgets))
	for i, w := range d.Widgets {
		if w.ID == "" {
			return fmt.Errorf("widget %d: id is required", i+1)
		}
		if seen[w.ID] {
			return fmt.Errorf("widget %q: duplicate id", w.ID)
		}
		seen[w.ID] = true
		if !w.Kind.valid() {
			return fmt.Errorf("widget %q: unknown kind %q", w.ID, w.Kind)
		}
	}
	return nil
}

func (w WidgetSpec) title() string {
	if w.Title != "" {
		return w.Title
	}
	return w.ID
}
