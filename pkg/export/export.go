// Package export writes engine results as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/opsched/core/schedule"
)

// HourlyEntry is one value of an annual hourly series.
type HourlyEntry struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// HourlyEntries timestamps values starting at January 1st 00:00 UTC of year.
func HourlyEntries(year int, values []float64) []HourlyEntry {
	return TimestepEntries(year, 1, values)
}

// TimestepEntries timestamps values spaced 1/stepsPerHour hours apart,
// starting at January 1st 00:00 UTC of year.
func TimestepEntries(year, stepsPerHour int, values []float64) []HourlyEntry {
	if stepsPerHour < 1 {
		stepsPerHour = 1
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	step := time.Hour / time.Duration(stepsPerHour)
	out := make([]HourlyEntry, len(values))
	for i, v := range values {
		out[i] = HourlyEntry{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return out
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v to w as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteHourlyCSV writes the series to w with a timestamp,value header.
func WriteHourlyCSV(w io.Writer, entries []HourlyEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "value"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Time.Format(time.RFC3339),
			strconv.FormatFloat(e.Value, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistogramCSV writes the number of days governed by each profile of
// rs. The default profile is listed first under index -1.
func WriteHistogramCSV(w io.Writer, rs *schedule.Ruleset, hist map[int]int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "profile", "days"}); err != nil {
		return err
	}
	indices := make([]int, 0, len(hist))
	for i := range hist {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		name := ""
		if i == schedule.DefaultIndex {
			name = rs.Default.Name
		} else if i >= 0 && i < len(rs.Rules) {
			name = rs.Rules[i].Name
		}
		if err := cw.Write([]string{strconv.Itoa(i), name, strconv.Itoa(hist[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
