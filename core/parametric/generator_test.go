package parametric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/core/transform"
)

func h(v float64) time.Duration { return time.Duration(v * float64(time.Hour)) }

func bp(pairs ...float64) []schedule.Breakpoint {
	out := make([]schedule.Breakpoint, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, schedule.Breakpoint{Until: h(pairs[i]), Value: pairs[i+1]})
	}
	return out
}

func occupancy(t *testing.T, name string, def []schedule.Breakpoint) *schedule.Ruleset {
	t.Helper()
	rs, err := transform.Complex(name, transform.ComplexSpec{
		SimpleSpec: transform.SimpleSpec{Default: def},
		Rules: []transform.RuleSpec{
			{Name: "Saturday", Dates: schedule.FullYear(), Days: schedule.NewWeekdaySet(time.Saturday), Breakpoints: bp(9, 0.05, 13, 0.5, 24, 0.05)},
			{Name: "Sunday", Dates: schedule.FullYear(), Days: schedule.NewWeekdaySet(time.Sunday), Breakpoints: bp(24, 0.05)},
		},
	})
	require.NoError(t, err)
	return rs
}

func TestInferHoursOfOperation(t *testing.T) {
	g := New(0.1, nil)
	schedules := []*schedule.Ruleset{
		occupancy(t, "Occ A", bp(8, 0.05, 12, 0.9, 13, 0.5, 18, 0.9, 24, 0.05)),
		occupancy(t, "Occ B", bp(8, 0, 18, 1, 24, 0)),
		occupancy(t, "Occ C", bp(7, 0, 19, 1, 24, 0)),
	}
	hoo, err := g.InferHoursOfOperation(schedules, 2023)
	require.NoError(t, err)
	assert.Equal(t, schedule.Window{Start: h(8), End: h(18)}, hoo.Default)
	assert.Equal(t, schedule.Window{Start: h(9), End: h(13)}, hoo.For(time.Saturday))
	assert.True(t, hoo.For(time.Sunday).Closed())
	assert.Equal(t, hoo.Default, hoo.For(time.Wednesday))

	_, err = g.InferHoursOfOperation(nil, 2023)
	assert.ErrorIs(t, err, ErrNoSchedules)
}

func TestParametrizeClassifiesIntervals(t *testing.T) {
	g := New(0.1, nil)
	rs := occupancy(t, "Lights", bp(6, 0.05, 10, 0.5, 17, 0.9, 24, 0.05))
	hoo := schedule.HoursOfOperation{
		Default: schedule.Window{Start: h(8), End: h(18)},
		Weekday: map[time.Weekday]schedule.Window{
			time.Saturday: {Start: h(9), End: h(13)},
			time.Sunday:   {},
		},
	}
	descs, err := g.Parametrize(rs, hoo)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	def := descs[0]
	assert.Equal(t, "default", def.Rule)
	assert.Equal(t, "08:00-18:00", def.Window)
	assert.InDelta(t, -2, def.OffsetFromOpen, 1e-9)
	assert.InDelta(t, 11, def.Duration, 1e-9)
	assert.InDelta(t, (4*0.5+7*0.9)/11, def.ValueDuring, 1e-9)
	assert.Equal(t, 0.05, def.ValueOutside)
	classes := make([]Class, len(def.Intervals))
	for i, iv := range def.Intervals {
		classes[i] = iv.Class
	}
	assert.Equal(t, []Class{BeforeOpen, DuringOpen, DuringOpen, DuringOpen}, classes)

	sat := descs[1]
	assert.InDelta(t, 0, sat.OffsetFromOpen, 1e-9)
	assert.InDelta(t, 4, sat.Duration, 1e-9)
	assert.Equal(t, 0.5, sat.ValueDuring)

	sun := descs[2]
	assert.Equal(t, 0.0, sun.Duration)
	assert.Equal(t, AfterClose, sun.Intervals[0].Class)

	stored, err := Descriptors(rs)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, def, stored[schedule.DefaultIndex])
	hooMeta, ok := rs.Meta(MetaHours)
	require.True(t, ok)
	assert.Contains(t, hooMeta, "08:00-18:00")
}

func TestRegenerateUnderNewHours(t *testing.T) {
	g := New(0.1, nil)
	rs := occupancy(t, "Occ", bp(8, 0, 18, 1, 24, 0))
	hoo := schedule.HoursOfOperation{Default: schedule.Window{Start: h(8), End: h(18)}}
	_, err := g.Parametrize(rs, hoo)
	require.NoError(t, err)

	later := schedule.HoursOfOperation{
		Default: schedule.Window{Start: h(10), End: h(20)},
		Weekday: map[time.Weekday]schedule.Window{time.Saturday: {Start: h(22), End: h(26)}},
	}
	n, err := g.Regenerate(rs, later)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, bp(10, 0, 20, 1, 24, 0), rs.Default.Breakpoints())
	// saturday keeps its one hour offset from opening and wraps past midnight
	assert.Equal(t, bp(3, 0.5, 23, 0.05, 24, 0.5), rs.Rules[0].Profile.Breakpoints())
	assert.Equal(t, bp(24, 0.05), rs.Rules[1].Profile.Breakpoints())
}

func TestRun(t *testing.T) {
	g := New(0.1, nil)
	a := occupancy(t, "Occ A", bp(8, 0, 18, 1, 24, 0))
	b := occupancy(t, "Occ B", bp(7, 0, 18, 0.8, 24, 0))
	res, err := g.Run("Building Hours", []*schedule.Ruleset{a, b}, 2024)
	require.NoError(t, err)
	assert.Equal(t, "Building Hours", res.HoursRules.Name)
	assert.Len(t, res.Descriptors["Occ A"], 3)
	assert.Len(t, res.Descriptors["Occ B"], 3)
	v, ok := a.Meta(MetaPrefix + "hoo_schedule")
	require.True(t, ok)
	assert.Equal(t, "Building Hours", v)
}

func TestParametrizeWindowPastMidnight(t *testing.T) {
	g := New(0.1, nil)
	rs, err := transform.Simple("Night Shift", transform.SimpleSpec{Default: bp(4, 1, 20, 0, 24, 1)})
	require.NoError(t, err)
	hoo, err := schedule.ParseHoursOfOperation("default 20:00-28:00")
	require.NoError(t, err)

	descs, err := g.Parametrize(rs, hoo)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	d := descs[0]
	classes := make([]Class, len(d.Intervals))
	for i, iv := range d.Intervals {
		classes[i] = iv.Class
	}
	assert.Equal(t, []Class{DuringOpen, BeforeOpen, DuringOpen}, classes)
	assert.InDelta(t, 0, d.OffsetFromOpen, 1e-9)
	assert.InDelta(t, 8, d.Duration, 1e-9)
	assert.Equal(t, 1.0, d.ValueDuring)
	assert.Equal(t, 0.0, d.ValueOutside)

	later, err := schedule.ParseHoursOfOperation("default 22:00-30:00")
	require.NoError(t, err)
	n, err := g.Regenerate(rs, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, bp(6, 1, 22, 0, 24, 1), rs.Default.Breakpoints())
}

func TestParametrizeSplitsRulesAcrossWindows(t *testing.T) {
	g := New(0.1, nil)
	build := func() *schedule.Ruleset {
		rs, err := transform.Complex("Store", transform.ComplexSpec{
			SimpleSpec: transform.SimpleSpec{Default: bp(24, 0)},
			Rules: []transform.RuleSpec{
				{Name: "Every Day", Dates: schedule.FullYear(), Days: schedule.AllWeekdays, Breakpoints: bp(8, 0, 18, 1, 24, 0)},
			},
		})
		require.NoError(t, err)
		return rs
	}
	weekly, err := schedule.ParseHoursOfOperation("default 08:00-18:00, Sat 09:00-13:00, Sun closed")
	require.NoError(t, err)

	rs := build()
	descs, err := g.Parametrize(rs, weekly)
	require.NoError(t, err)
	require.Len(t, descs, 4)
	require.Len(t, rs.Rules, 3)
	assert.Equal(t, "09:00-13:00", descs[2].Window)
	assert.InDelta(t, -1, descs[2].OffsetFromOpen, 1e-9)
	assert.Equal(t, "closed", descs[3].Window)

	// Parametrized under uniform hours, regenerated under weekly ones.
	rs = build()
	_, err = g.Parametrize(rs, schedule.HoursOfOperation{Default: schedule.Window{Start: h(8), End: h(18)}})
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)
	n, err := g.Regenerate(rs, weekly)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, rs.Rules, 3)
	assert.Equal(t, bp(8, 0, 18, 1, 24, 0), rs.Rules[0].Profile.Breakpoints())
	assert.Equal(t, bp(9, 0, 19, 1, 24, 0), rs.Rules[1].Profile.Breakpoints())
	assert.Equal(t, bp(24, 0), rs.Rules[2].Profile.Breakpoints())
	stored, err := Descriptors(rs)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}
