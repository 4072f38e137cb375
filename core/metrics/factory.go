package metrics

import "github.com/kilianp07/opsched/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string {
	return sinkRegistry.Names()
}

// NewMetricsSink builds every configured sink. No sinks yields a NopSink and
// several are fanned out through a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	var sinks []MetricsSink
	for _, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			closeAll(sinks)
			return nil, err
		}
		if _, nop := s.(NopSink); nop {
			continue
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

func closeAll(sinks []MetricsSink) {
	for _, s := range sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// RecordSummary hands ev to s when it implements SummaryRecorder.
func RecordSummary(s MetricsSink, ev SummaryEvent) error {
	if rec, ok := s.(SummaryRecorder); ok {
		return rec.RecordSummary(ev)
	}
	return nil
}

// RecordHourly hands series to s when it implements HourlyRecorder.
func RecordHourly(s MetricsSink, series HourlySeries) error {
	if rec, ok := s.(HourlyRecorder); ok {
		return rec.RecordHourly(series)
	}
	return nil
}
