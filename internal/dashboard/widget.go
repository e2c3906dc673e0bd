// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"querydeck/cli/internal/fetch"
)

// Widget is one panel of a board. Each widget owns its own fetch.Query.
type Widget interface {
	ID() string
	Title() string
	// SetQuery replaces the widget's query. A response to the previous query
	// that arrives later is discarded.
	SetQuery(query string)
	Status() fetch.Status
	// Failure is the error of a Failed widget and nil otherwise.
	Failure() error
	Render(width int) string
	// Wait blocks until the current query settles or ctx ends.
	Wait(ctx context.Context) error
	// Changes is closed on the next state transition.
	Changes() <-chan struct{}
	Done() <-chan struct{}
	Close()
}

type widget[T any] struct {
	spec  WidgetSpec
	query *fetch.Query[T]
	body  func(rows []T, width int) string
}

// NewWidget builds the widget for spec and starts its query.
func NewWidget(spec WidgetSpec, transport fetch.Transport) (Widget, error) {
	switch spec.Kind {
	case EventCountKind:
		return build(spec, transport, renderEventCount), nil
	case RecentEditsKind:
		return build(spec, transport, renderRecentEdits), nil
	case HourlyEditsKind:
		return build(spec, transport, renderHourlyEdits), nil
	case ActivityTrendsKind:
		return build(spec, transport, renderActivityTrends), nil
	case TopCountriesKind:
		return build(spec, transport, renderTopCountries), nil
	case TableKind:
		return build(spec, transport, renderTable), nil
	default:
		return nil, fmt.Errorf("widget %q: unknown kind %q", spec.ID, spec.Kind)
	}
}

func build[T any](spec WidgetSpec, transport fetch.Transport, body func([]T, int) string) *widget[T] {
	return &widget[T]{spec: spec, query: fetch.Use[T](transport, spec.Query), body: body}
}

func (w *widget[T]) ID() string               { return w.spec.ID }
func (w *widget[T]) Title() string            { return w.spec.title() }
func (w *widget[T]) SetQuery(query string)    { w.query.Set(query) }
func (w *widget[T]) Status() fetch.Status     { return w.query.State().Status() }
func (w *widget[T]) Failure() error           { return w.query.State().Failure() }
func (w *widget[T]) Changes() <-chan struct{} { return w.query.Changes() }
func (w *widget[T]) Done() <-chan struct{}    { return w.query.Done() }
func (w *widget[T]) Close()                   { w.query.Close() }

func (w *widget[T]) Wait(ctx context.Context) error {
	_, err := w.query.Wait(ctx)
	return err
}

func (w *widget[T]) Render(width int) string {
	state := w.query.State()
	switch state.Status() {
	case fetch.Idle:
		return pterm.Gray("No query configured")
	case fetch.Pending:
		if w.spec.Loading != "" {
			return w.spec.Loading
		}
		return fmt.Sprintf("Loading %s...", strings.ToLower(w.Title()))
	case fetch.Failed:
		return pterm.Red("Error: " + state.Message())
	}

	rows := state.Rows()
	if len(rows) == 0 {
		if w.spec.Empty != "" {
			return w.spec.Empty
		}
		return "No data"
	}
	return w.body(rows, width)
}

func renderEventCount(rows []EventCount, _ int) string {
	return pterm.Bold.Sprint(humanize.Comma(rows[0].EventCount)) + " events"
}

func renderRecentEdits(rows []Edit, _ int) string {
	data := pterm.TableData{{"Time", "Page", "Comment", "Country"}}
	for _, e := range rows {
		data = append(data, []string{
			editTime(e.Time),
			e.Page,
			orDefault(e.Comment, "No comment"),
			orDefault(e.CountryName, "Unknown"),
		})
	}
	return table(data)
}

func renderHourlyEdits(rows []HourlyEdits, width int) string {
	series := HourSeries(rows,
		func(r HourlyEdits) string { return r.HourOfDay },
		func(r HourlyEdits) int64 { return r.Edits })

	bars := make(pterm.Bars, 0, len(series))
	var peak int64
	for i, label := range HourLabels() {
		bars = append(bars, pterm.Bar{Label: label, Value: int(series[i])})
		peak = max(peak, series[i])
	}
	if peak == 0 {
		return "No edits in any hour"
	}
	out, err := pterm.DefaultBarChart.
		WithHorizontal().
		WithShowValue().
		WithWidth(barWidth(width)).
		WithBars(bars).
		Srender()
	if err != nil {
		return pterm.Red("Error: " + err.Error())
	}
	return "Edits\n" + out
}

func renderActivityTrends(rows []HourlyActivity, _ int) string {
	human := HourSeries(rows,
		func(r HourlyActivity) string { return r.HourOfDay },
		func(r HourlyActivity) int64 { return r.HumanEdits })
	robot := HourSeries(rows,
		func(r HourlyActivity) string { return r.HourOfDay },
		func(r HourlyActivity) int64 { return r.RobotEdits })

	data := pterm.TableData{{"Hour", "Human Edits", "Robot Edits"}}
	for i, label := range HourLabels() {
		data = append(data, []string{label, humanize.Comma(human[i]), humanize.Comma(robot[i])})
	}
	return table(data)
}

func renderTopCountries(rows []CountryEdits, width int) string {
	total, shares := CountryShares(rows)
	size := barWidth(width) / 2

	data := pterm.TableData{{"Country", "Edits", "Share", ""}}
	for _, s := range shares {
		filled := min(max(int(s.Percentage/100*float64(size)), 0), size)
		data = append(data, []string{
			orDefault(s.Name, "Unknown"),
			humanize.Comma(s.Count),
			fmt.Sprintf("%.1f%%", s.Percentage),
			strings.Repeat("█", filled) + strings.Repeat("░", size-filled),
		})
	}
	return fmt.Sprintf("Total edits: %s\n%s", humanize.Comma(total), table(data))
}

func renderTable(rows []map[string]any, _ int) string {
	return table(TableData(rows))
}

// TableData lays rows out under the union of their column names, sorted.
func TableData(rows []map[string]any) pterm.TableData {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)

	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok && v != nil {
				line[i] = fmt.Sprint(v)
			}
		}
		data = append(data, line)
	}
	return data
}

func table(data pterm.TableData) string {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return pterm.Red("Error: " + err.Error())
	}
	return out
}

func editTime(raw string) string {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Format("15:04:05")
	}
	return raw
}

func barWidth(width int) int {
	w := width - 20
	if w < 20 {
		return 20
	}
	return w
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
