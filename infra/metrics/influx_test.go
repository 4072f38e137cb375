package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/opsched/core/analysis"
	coremetrics "github.com/kilianp07/opsched/core/metrics"
)

// captureServer records the line protocol bodies sent to the write endpoint.
func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func lineProtocol(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordOperation(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()

	require.NoError(t, sink.RecordOperation(coremetrics.OperationEvent{
		Operation: "invert", Schedule: "Office", Duration: 1500 * time.Microsecond, Time: now,
	}))
	p := write.NewPointWithMeasurement("schedule_operation").
		AddTag("operation", "invert").
		AddTag("status", "ok").
		AddTag("component", "engine").
		AddTag("schedule", "Office").
		AddField("duration_ms", 1.5).
		SetTime(now)
	assert.Equal(t, []string{lineProtocol(p)}, bodies())
}

func TestInfluxSinkRecordSummary(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	sum := analysis.Summary{Name: "Lights", Year: 2023, FullLoadHours: 3000.12345, HoursAbove: 4000,
		All: analysis.Range{Min: 0.05, Max: 0.9}, OverlapsFound: 1}

	require.NoError(t, sink.RecordSummary(coremetrics.SummaryEvent{Summary: sum, Time: now}))
	p := write.NewPointWithMeasurement("schedule_summary").
		AddTag("schedule", "Lights").
		AddTag("year", "2023").
		AddField("full_load_hours", 3000.123).
		AddField("hours_above", 4000).
		AddField("min", 0.05).
		AddField("max", 0.9).
		AddField("overlaps", 1).
		SetTime(now)
	assert.Equal(t, []string{lineProtocol(p)}, bodies())
}

func TestInfluxSinkRecordHourlyBatches(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	values := make([]float64, 8760)
	for i := range values {
		values[i] = float64(i % 24)
	}

	require.NoError(t, sink.RecordHourly(coremetrics.HourlySeries{Schedule: "Occ", Year: 2023, Values: values}))
	got := bodies()
	require.Len(t, got, 5)
	lines := 0
	for _, b := range got {
		lines += len(strings.Split(b, "\n"))
	}
	assert.Equal(t, 8760, lines)

	first := write.NewPointWithMeasurement("schedule_hourly").
		AddTag("schedule", "Occ").
		AddField("value", 0.0).
		SetTime(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, lineProtocol(first), strings.Split(got[0], "\n")[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
