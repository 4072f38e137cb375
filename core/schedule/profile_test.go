package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(h float64) time.Duration { return time.Duration(h * float64(time.Hour)) }

func officeProfile(t *testing.T) *DayProfile {
	t.Helper()
	p, err := NewDayProfile("office", []Breakpoint{
		{Until: hours(8), Value: 0},
		{Until: hours(12), Value: 0.4},
		{Until: hours(16), Value: 0.9},
		{Until: EndOfDay, Value: 0},
	})
	require.NoError(t, err)
	return p
}

func TestNewDayProfileRejectsMalformed(t *testing.T) {
	cases := map[string][]Breakpoint{
		"empty":          nil,
		"no terminal":    {{Until: hours(8), Value: 1}},
		"non increasing": {{Until: hours(8), Value: 1}, {Until: hours(8), Value: 0}, {Until: EndOfDay, Value: 0}},
		"decreasing":     {{Until: hours(12), Value: 1}, {Until: hours(6), Value: 0}, {Until: EndOfDay, Value: 0}},
		"zero time":      {{Until: 0, Value: 1}, {Until: EndOfDay, Value: 0}},
		"past midnight":  {{Until: hours(25), Value: 1}},
	}
	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDayProfile(name, pts)
			if !errors.Is(err, ErrMalformedProfile) {
				t.Fatalf("expected ErrMalformedProfile, got %v", err)
			}
		})
	}
}

func TestValueAtHalfOpen(t *testing.T) {
	p := officeProfile(t)
	assert.Equal(t, 0.0, p.ValueAt(0))
	assert.Equal(t, 0.0, p.ValueAt(hours(7.99)))
	assert.Equal(t, 0.4, p.ValueAt(hours(8)))
	assert.Equal(t, 0.9, p.ValueAt(hours(15)))
	assert.Equal(t, 0.0, p.ValueAt(hours(16)))
	assert.Equal(t, 0.0, p.ValueAt(EndOfDay))
}

func TestIntegrateAndAverage(t *testing.T) {
	p := officeProfile(t)
	assert.InDelta(t, 4*0.4+4*0.9, p.Integral(), 1e-9)
	assert.InDelta(t, 0.4, p.Average(hours(8), hours(9)), 1e-9)
	assert.InDelta(t, 0.65, p.Average(hours(11), hours(13)), 1e-9)
	assert.InDelta(t, 0.2, p.Average(hours(7.5), hours(8.5)), 1e-9)
}

func TestFromValuesCollapses(t *testing.T) {
	values := make([]float64, 24)
	for h := 8; h < 18; h++ {
		values[h] = 1
	}
	p, err := FromValues("hourly", values, 1)
	require.NoError(t, err)
	assert.Equal(t, []Breakpoint{
		{Until: hours(8), Value: 0},
		{Until: hours(18), Value: 1},
		{Until: EndOfDay, Value: 0},
	}, p.Breakpoints())

	_, err = FromValues("short", values[:10], 1)
	assert.ErrorIs(t, err, ErrMalformedProfile)
	_, err = FromValues("bad step", values, 7)
	assert.ErrorIs(t, err, ErrMalformedProfile)

	sub := make([]float64, 96)
	sub[33] = 0.5
	p, err = FromValues("quarter", sub, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 0.5, p.ValueAt(hours(8.25)))
}

func TestScaleRespectsFloor(t *testing.T) {
	p := officeProfile(t)
	floor := 0.5
	p.Scale(2, &floor)
	assert.Equal(t, []float64{0, 0.4, 1.8, 0}, values(p))

	p = officeProfile(t)
	p.Scale(0.5, nil)
	assert.Equal(t, []float64{0, 0.2, 0.45, 0}, values(p))
}

func TestInvertIsInvolution(t *testing.T) {
	p := officeProfile(t)
	orig := p.Clone()
	p.Invert(0, 1)
	assert.Equal(t, []float64{1, 0.6, 0.1, 1}, values(p))
	p.Invert(0, 1)
	assert.True(t, orig.Equal(p))

	temp, err := NewDayProfile("setpoint", []Breakpoint{{Until: hours(6), Value: 15.6}, {Until: EndOfDay, Value: 21.1}})
	require.NoError(t, err)
	tc := temp.Clone()
	temp.Invert(15.6, 21.1)
	assert.Equal(t, []float64{21.1, 15.6}, values(temp))
	temp.Invert(15.6, 21.1)
	assert.True(t, tc.Equal(temp))
}

func TestInvertKeepsUnroundedValues(t *testing.T) {
	p, err := NewDayProfile("avg", []Breakpoint{{Until: hours(8), Value: 1.0 / 3}, {Until: EndOfDay, Value: 0.123456789123}})
	require.NoError(t, err)
	orig := p.Clone()

	p.Invert(0, 1)
	assert.InDelta(t, 2.0/3, p.ValueAt(0), 1e-15)
	assert.InDelta(t, 0.876543210877, p.ValueAt(hours(12)), 1e-15)

	inv := p.Clone()
	inv.Invert(0, 1)
	assert.Equal(t, values(orig), values(inv))
	assert.True(t, orig.Equal(inv))

	// A changed value is mirrored afresh.
	p.Scale(0.5, nil)
	p.Invert(0, 1)
	assert.InDelta(t, 2.0/3, p.ValueAt(0), 1e-9)
}

func TestSplitAtAndCompact(t *testing.T) {
	p := officeProfile(t)
	p.SplitAt(hours(10), hours(8), hours(20), 0, EndOfDay)
	assert.Equal(t, 6, p.Len())
	assert.InDelta(t, 5.2, p.Integral(), 1e-9)
	p.Compact()
	assert.True(t, officeProfile(t).Equal(p))
}

func TestMinMax(t *testing.T) {
	lo, hi := officeProfile(t).MinMax()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.9, hi)
}

func values(p *DayProfile) []float64 {
	var out []float64
	for _, bp := range p.Breakpoints() {
		out = append(out, bp.Value)
	}
	return out
}
