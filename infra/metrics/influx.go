package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/opsched/core/metrics"
	"github.com/kilianp07/opsched/infra/logger"
)

// hourlyBatch bounds the number of points sent in one write request.
const hourlyBatch = 2000

// InfluxSink writes engine events and hourly series to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOperation writes one point per engine operation.
func (s *InfluxSink) RecordOperation(ev coremetrics.OperationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_operation").
		AddTag("operation", ev.Operation).
		AddTag("status", ev.Status()).
		AddTag("component", "engine")
	if ev.Schedule != "" {
		p = p.AddTag("schedule", ev.Schedule)
	}
	p = p.AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSummary writes the analysis figures of one schedule.
func (s *InfluxSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sum := ev.Summary
	p := write.NewPointWithMeasurement("schedule_summary").
		AddTag("schedule", sum.Name).
		AddTag("year", strconv.Itoa(sum.Year)).
		AddField("full_load_hours", round3(sum.FullLoadHours)).
		AddField("hours_above", sum.HoursAbove).
		AddField("min", round3(sum.All.Min)).
		AddField("max", round3(sum.All.Max)).
		AddField("overlaps", sum.OverlapsFound).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordHourly writes the series as one point per hour, timestamped at the
// start of the hour in UTC.
func (s *InfluxSink) RecordHourly(series coremetrics.HourlySeries) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	start := series.Start()
	batch := make([]*write.Point, 0, hourlyBatch)
	for i, v := range series.Values {
		batch = append(batch, write.NewPointWithMeasurement("schedule_hourly").
			AddTag("schedule", series.Schedule).
			AddField("value", v).
			SetTime(start.Add(time.Duration(i)*time.Hour)))
		if len(batch) == hourlyBatch {
			if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return s.writeAPI.WritePoint(ctx, batch...)
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
