package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/opsched/core/factory"
	metrics "github.com/kilianp07/opsched/core/metrics"
	_ "github.com/kilianp07/opsched/infra/metrics"
)

func TestMetricsFactoryBuiltins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.NotNil(t, s)
	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
	assert.Subset(t, metrics.SinkTypes(), []string{"nop", "prometheus", "influx"})
}

func TestNewMetricsSinkMulti(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s, "nop entries are dropped")

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	require.NoError(t, err)
	_, isMulti := s.(*metrics.MultiSink)
	assert.False(t, isMulti)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "prometheus"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	assert.Len(t, m.Sinks, 2)
}

func TestMetricsConfigDecode(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte("sinks:\n  - type: prometheus\n  - type: prometheus\n"), &cfg))
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	assert.IsType(t, &metrics.MultiSink{}, s)

	cfg = metrics.Config{}
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg))
	_, err = metrics.NewMetricsSink(cfg.Sinks)
	assert.Error(t, err)
}
