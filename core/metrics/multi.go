package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOperation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordOperation(ev OperationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOperation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummary forwards summaries to sinks implementing SummaryRecorder.
func (m *MultiSink) RecordSummary(ev SummaryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SummaryRecorder); ok {
			if err := rec.RecordSummary(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordHourly forwards hourly series to sinks implementing HourlyRecorder.
func (m *MultiSink) RecordHourly(s HourlySeries) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(HourlyRecorder); ok {
			if err := rec.RecordHourly(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
