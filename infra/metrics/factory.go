package metrics

import (
	"errors"

	"github.com/kilianp07/opsched/core/factory"
	coremetrics "github.com/kilianp07/opsched/core/metrics"
)

// PromConfig configures the "prometheus" sink.
type PromConfig struct {
	// Textfile, when set, receives the gathered families on Flush/Close.
	Textfile string `json:"textfile"`
}

// InfluxConfig configures the "influx" sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Validate reports missing connection settings.
func (c InfluxConfig) Validate() error {
	if c.URL == "" {
		return errors.New("influx: url required")
	}
	if c.Bucket == "" {
		return errors.New("influx: bucket required")
	}
	return nil
}

func newProm(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c PromConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	s, err := NewPromSink()
	if err != nil {
		return nil, err
	}
	return s.WithTextfile(c.Textfile), nil
}

func newInflux(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterMetricsSink("prometheus", newProm)
	_ = coremetrics.RegisterMetricsSink("influx", newInflux)
}
