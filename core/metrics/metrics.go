package metrics

import (
	"time"

	"github.com/kilianp07/opsched/core/analysis"
)

// OperationEvent describes one engine operation applied to a schedule.
type OperationEvent struct {
	Operation string
	Schedule  string
	Duration  time.Duration
	Err       error
	Time      time.Time
}

// Status returns "ok" or "error" depending on Err.
func (e OperationEvent) Status() string {
	if e.Err != nil {
		return "error"
	}
	return "ok"
}

// MetricsSink records engine operations for observability purposes.
type MetricsSink interface {
	RecordOperation(ev OperationEvent) error
}

// SummaryEvent carries the analysis of one schedule.
type SummaryEvent struct {
	Summary analysis.Summary
	Time    time.Time
}

// SummaryRecorder records schedule summaries.
type SummaryRecorder interface {
	RecordSummary(ev SummaryEvent) error
}

// HourlySeries is the annual hourly expansion of a schedule. Values[0] is
// hour 00:00-01:00 of January 1st of Year.
type HourlySeries struct {
	Schedule string
	Year     int
	Values   []float64
}

// Start returns the timestamp of the first value.
func (s HourlySeries) Start() time.Time {
	return time.Date(s.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// HourlyRecorder records hourly series.
type HourlyRecorder interface {
	RecordHourly(s HourlySeries) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordOperation(OperationEvent) error { return nil }
func (NopSink) RecordSummary(SummaryEvent) error     { return nil }
func (NopSink) RecordHourly(HourlySeries) error      { return nil }
