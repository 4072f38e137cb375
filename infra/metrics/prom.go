package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/opsched/core/metrics"
)

// PromSink records engine operations and schedule summaries in Prometheus
// metrics. Batch runs can dump the gathered families to a textfile for the
// node exporter on Close.
type PromSink struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	flh        *prometheus.GaugeVec
	hoursAbove *prometheus.GaugeVec
	peak       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	textfile string
}

// NewPromSink registers engine metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_operations_total",
		Help: "Total number of schedule engine operations",
	}, []string{"operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_operation_duration_seconds",
		Help:    "Time spent in schedule engine operations",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"operation"})
	flh := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_full_load_hours",
		Help: "Annual full load hours of a schedule",
	}, []string{"schedule"})
	hoursAbove := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_hours_above_threshold",
		Help: "Hours per year whose average value exceeds the configured threshold",
	}, []string{"schedule"})
	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_hourly_peak",
		Help: "Largest hourly average value of a schedule",
	}, []string{"schedule"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if flh, err = register(reg, flh); err != nil {
		return nil, err
	}
	if hoursAbove, err = register(reg, hoursAbove); err != nil {
		return nil, err
	}
	if peak, err = register(reg, peak); err != nil {
		return nil, err
	}

	s := &PromSink{operations: operations, duration: duration, flh: flh, hoursAbove: hoursAbove, peak: peak}
	if g, ok := reg.(prometheus.Gatherer); ok {
		s.gatherer = g
	} else if reg == prometheus.DefaultRegisterer {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s, nil
}

// register returns the already registered collector when one with the same
// descriptor exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// WithTextfile makes Close write the gathered metrics to path.
func (s *PromSink) WithTextfile(path string) *PromSink {
	s.textfile = path
	return s
}

// RecordOperation counts the operation and observes its duration.
func (s *PromSink) RecordOperation(ev coremetrics.OperationEvent) error {
	s.operations.WithLabelValues(ev.Operation, ev.Status()).Inc()
	s.duration.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
	return nil
}

// RecordSummary exports the summary figures as per-schedule gauges.
func (s *PromSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	sum := ev.Summary
	s.flh.WithLabelValues(sum.Name).Set(sum.FullLoadHours)
	s.hoursAbove.WithLabelValues(sum.Name).Set(float64(sum.HoursAbove))
	s.peak.WithLabelValues(sum.Name).Set(sum.HourlyPeak)
	return nil
}

// Flush writes the textfile if one is configured.
func (s *PromSink) Flush() error {
	if s.textfile == "" {
		return nil
	}
	if s.gatherer == nil {
		return errors.New("prometheus registerer cannot be gathered")
	}
	return prometheus.WriteToTextfile(s.textfile, s.gatherer)
}

// Close flushes the textfile. Errors are dropped; call Flush to see them.
func (s *PromSink) Close() {
	_ = s.Flush()
}
