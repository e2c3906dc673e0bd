// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dashboard

import (
	"fmt"
	"strconv"
	"strings"
)

// EventCount is the single row of an event_count widget.
type EventCount struct {
	EventCount int64 `json:"event_count"`
}

// Edit is one row of a recent_edits widget.
type Edit struct {
	Time        string `json:"__time"`
	Page        string `json:"page"`
	Comment     string `json:"comment"`
	CountryName string `json:"countryName"`
}

// HourlyEdits is one row of an hourly_edits widget.
type HourlyEdits struct {
	HourOfDay string `json:"hour_of_day"`
	Edits     int64  `json:"sales"`
}

// HourlyActivity is one row of an activity_trends widget.
type HourlyActivity struct {
	HourOfDay  string `json:"hour_of_day"`
	HumanEdits int64  `json:"human_edits"`
	RobotEdits int64  `json:"robot_edits"`
}

// CountryEdits is one row of a top_countries widget.
type CountryEdits struct {
	CountryName string `json:"countryName"`
	EditCount   int64  `json:"edit_count"`
}

// CountryShare is a country's part of the total edit count.
type CountryShare struct {
	Name       string
	Count      int64
	Percentage float64
}

// HourLabels returns "00:00" through "23:00".
func HourLabels() []string {
	labels := make([]string, 24)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00", i)
	}
	return labels
}

// HourSeries spreads values over 24 hourly slots. Hours that are missing or do
// not parse as 0-23 are left at zero; repeated hours are summed.
func HourSeries[T any](rows []T, hour func(T) string, value func(T) int64) [24]int64 {
	var series [24]int64
	for _, r := range rows {
		h, err := strconv.Atoi(strings.TrimSpace(hour(r)))
		if err != nil || h < 0 || h > 23 {
			continue
		}
		series[h] += value(r)
	}
	return series
}

// CountryShares computes each country's percentage of the rows' total.
// Percentages are clamped to 0-100 so negative counts cannot push a share
// out of range.
func CountryShares(rows []CountryEdits) (int64, []CountryShare) {
	var total int64
	for _, r := range rows {
		total += r.EditCount
	}
	shares := make([]CountryShare, len(rows))
	for i, r := range rows {
		shares[i] = CountryShare{Name: r.CountryName, Count: r.EditCount}
		if total > 0 {
			shares[i].Percentage = min(max(float64(r.EditCount)/float64(total)*100, 0), 100)
		}
	}
	return total, shares
}
