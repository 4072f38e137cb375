// Package metrics defines the sinks that observe schedule engine activity.
// Every sink records operation events; sinks may also implement
// SummaryRecorder or HourlyRecorder to receive analysis results and hourly
// series. NewMetricsSink builds sinks from configuration and wraps several of
// them in a MultiSink.
package metrics
