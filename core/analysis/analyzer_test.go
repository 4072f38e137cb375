package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/opsched/core/analysis"
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

func officeRuleset(t *testing.T) *schedule.Ruleset {
	t.Helper()
	rs, err := transform.Complex("Office", transform.ComplexSpec{
		SimpleSpec: transform.SimpleSpec{
			Default: bp(8, 0, 12, 0.4, 16, 0.9, 24, 0),
			Winter:  bp(24, 0),
			Summer:  bp(24, 1),
		},
		Rules: []transform.RuleSpec{
			{Name: "All Days", Dates: schedule.FullYear(), Days: schedule.AllWeekdays, Breakpoints: bp(8, 0.1, 12, 0.4, 16, 0.8, 24, 0.1)},
			{
				Name:        "March/April",
				Dates:       schedule.DateRange{Start: schedule.MonthDay{Month: time.March, Day: 1}, End: schedule.MonthDay{Month: time.April, Day: 30}},
				Days:        schedule.AllWeekdays,
				Breakpoints: bp(8, 0.2, 12, 0.4, 16, 0.7, 24, 0.2),
			},
		},
	})
	require.NoError(t, err)
	return rs
}

func TestConstantMinMax(t *testing.T) {
	rs, err := transform.Constant("c", 42, transform.ConstantOptions{})
	require.NoError(t, err)
	a := analysis.New(nil)
	ctx := schedule.CalendarContext{Year: 2023}
	assert.Equal(t, analysis.Range{Min: 42, Max: 42}, a.MinMax(rs, analysis.ScopeAllProfiles, ctx))
	assert.Equal(t, analysis.Range{Min: 42, Max: 42}, a.MinMax(rs, analysis.ScopeActiveProfiles, ctx))
}

func TestFullLoadHoursConstant(t *testing.T) {
	rs, err := transform.Constant("c", 42, transform.ConstantOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 42.0*8760, analysis.FullLoadHours(rs, 2023), 1e-6)
	assert.InDelta(t, 42.0*8784, analysis.FullLoadHours(rs, 2024), 1e-6)
}

func TestHourlyValuesInvariants(t *testing.T) {
	rs := officeRuleset(t)
	rs.Rules[0].Dates = schedule.DateRange{
		Start: schedule.MonthDay{Month: time.June, Day: 1},
		End:   schedule.MonthDay{Month: time.September, Day: 30},
	}
	// sub-hour breakpoints straddling hour boundaries
	require.NoError(t, rs.Default.SetBreakpoints(bp(7.75, 0, 12.5, 0.45, 16.25, 0.9, 24, 0.05)))
	for year, n := range map[int]int{2023: 8760, 2024: 8784} {
		hourly := analysis.HourlyValues(rs, year)
		require.Len(t, hourly, n)
		assert.InDelta(t, analysis.FullLoadHours(rs, year), floats.Sum(hourly), 1e-6)
	}
	hourly := analysis.HourlyValues(rs, 2023)
	// 2023-01-02 07:00-08:00 is 45 min at 0 and 15 min at 0.45.
	assert.InDelta(t, 0.1125, hourly[24+7], 1e-9)
	assert.InDelta(t, 0.45, hourly[24+8], 1e-9)
}

func TestTimestepValues(t *testing.T) {
	rs := officeRuleset(t)
	steps, err := analysis.TimestepValues(rs, 2023, 4)
	require.NoError(t, err)
	assert.Len(t, steps, 8760*4)
	assert.InDelta(t, analysis.FullLoadHours(rs, 2023), floats.Sum(steps)/4, 1e-6)

	_, err = analysis.TimestepValues(rs, 2023, 7)
	assert.Error(t, err)
}

func TestHoursAboveValue(t *testing.T) {
	rs := officeRuleset(t)
	// every day: 8 hours at 0.4 or 0.8, the rest at 0.1
	assert.Equal(t, 8*365, analysis.HoursAboveValue(rs, 2023, 0.1))
	assert.Equal(t, 4*366, analysis.HoursAboveValue(rs, 2024, 0.5))
	assert.Equal(t, 0, analysis.HoursAboveValue(rs, 2023, 0.8))
}

func TestComplexMinMaxScopes(t *testing.T) {
	rs := officeRuleset(t)
	a := analysis.New(nil)
	ctx := schedule.CalendarContext{Year: 2023}
	assert.Equal(t, analysis.Range{Min: 0, Max: 0.9}, a.MinMax(rs, analysis.ScopeAllProfiles, ctx))
	assert.Equal(t, analysis.Range{Min: 0.1, Max: 0.8}, a.MinMax(rs, analysis.ScopeActiveProfiles, ctx))
}

func TestMinMaxRunPeriod(t *testing.T) {
	rs := officeRuleset(t)
	rs.Rules = rs.Rules[1:]
	a := analysis.New(nil)
	spring := &schedule.RunPeriod{
		Begin: schedule.MonthDay{Month: time.March, Day: 10},
		End:   schedule.MonthDay{Month: time.April, Day: 10},
	}
	got := a.MinMax(rs, analysis.ScopeActiveProfiles, schedule.CalendarContext{Year: 2023, RunPeriod: spring})
	assert.Equal(t, analysis.Range{Min: 0.2, Max: 0.7}, got)
	got = a.MinMax(rs, analysis.ScopeActiveProfiles, schedule.CalendarContext{Year: 2023})
	assert.Equal(t, analysis.Range{Min: 0, Max: 0.9}, got)
}

func TestDesignDayMinMax(t *testing.T) {
	rs := officeRuleset(t)
	a := analysis.New(nil)
	assert.Equal(t, analysis.Range{Min: 0, Max: 0}, a.DesignDayMinMax(rs, schedule.WinterDesignDay))
	assert.Equal(t, analysis.Range{Min: 1, Max: 1}, a.DesignDayMinMax(rs, schedule.SummerDesignDay))

	rs.SummerDesign = nil
	assert.Equal(t, analysis.Range{Min: 0, Max: 0.9}, a.DesignDayMinMax(rs, schedule.SummerDesignDay))
}

func TestDayHistogramAndEquivalentHours(t *testing.T) {
	rs := officeRuleset(t)
	rs.Rules[0].Days = schedule.Weekdays
	hist := analysis.DayHistogram(rs, 2023)
	total := 0
	for _, n := range hist {
		total += n
	}
	assert.Equal(t, 365, total)
	assert.Equal(t, 260, hist[0])

	jan := &schedule.RunPeriod{Begin: schedule.FirstDay, End: schedule.MonthDay{Month: time.January, Day: 31}}
	efl := analysis.EquivalentFullLoadHours(rs, schedule.CalendarContext{Year: 2023, RunPeriod: jan})
	assert.Less(t, efl, analysis.FullLoadHours(rs, 2023))
	assert.Greater(t, efl, 0.0)
}

func TestSummarize(t *testing.T) {
	rs := officeRuleset(t)
	s := analysis.New(nil).Summarize(rs, schedule.CalendarContext{Year: 2023}, 0.5)
	assert.Equal(t, "Office", s.Name)
	assert.Equal(t, 4*365, s.HoursAbove)
	assert.Equal(t, 0.8, s.HourlyPeak)
	assert.Equal(t, 1, s.ActiveRules)
	assert.Equal(t, 1, s.OverlapsFound)
	assert.InDelta(t, analysis.FullLoadHours(rs, 2023), s.FullLoadHours, 1e-6)
	assert.Equal(t, 365, s.DaysPerProfile[0])
}
