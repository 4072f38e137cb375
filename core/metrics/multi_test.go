package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	ops    int
	hourly int
	err    error
}

func (r *recordSink) RecordOperation(OperationEvent) error {
	r.ops++
	return r.err
}

func (r *recordSink) RecordHourly(HourlySeries) error {
	r.hourly++
	return nil
}

// opsOnly implements MetricsSink and nothing else.
type opsOnly struct{ ops int }

func (o *opsOnly) RecordOperation(OperationEvent) error {
	o.ops++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1, s2, s3 := &recordSink{}, &recordSink{}, &opsOnly{}
	m := NewMultiSink(s1, s2, s3)
	require.NoError(t, m.RecordOperation(OperationEvent{Operation: "invert", Time: time.Now()}))
	require.NoError(t, m.RecordHourly(HourlySeries{Schedule: "s", Year: 2024}))
	require.NoError(t, m.RecordSummary(SummaryEvent{}))
	assert.Equal(t, 1, s1.ops)
	assert.Equal(t, 1, s2.hourly)
	assert.Equal(t, 1, s3.ops)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1, s2 := &recordSink{err: boom}, &recordSink{}
	err := NewMultiSink(s1, s2).RecordOperation(OperationEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s2.ops)
}

func TestOptionalRecorders(t *testing.T) {
	o := &opsOnly{}
	assert.NoError(t, RecordHourly(o, HourlySeries{}))
	assert.NoError(t, RecordSummary(o, SummaryEvent{}))

	r := &recordSink{}
	require.NoError(t, RecordHourly(r, HourlySeries{}))
	assert.Equal(t, 1, r.hourly)
}

func TestOperationStatusAndSeriesStart(t *testing.T) {
	assert.Equal(t, "ok", OperationEvent{}.Status())
	assert.Equal(t, "error", OperationEvent{Err: errors.New("x")}.Status())
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), HourlySeries{Year: 2023}.Start())
}
