package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("08:30-18:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Start: hours(8.5), End: hours(18)}, w)
	assert.Equal(t, "08:30-18:00", w.String())
	assert.Equal(t, hours(9.5), w.Duration())

	w, err = ParseWindow("22:00-30:00")
	require.NoError(t, err)
	assert.Equal(t, hours(8), w.Duration())

	w, err = ParseWindow("closed")
	require.NoError(t, err)
	assert.True(t, w.Closed())
	assert.Equal(t, time.Duration(0), w.Duration())

	for _, bad := range []string{"0800", "08:00-xx", "25:00-26:00"} {
		_, err := ParseWindow(bad)
		assert.Error(t, err, bad)
	}
}

func TestActiveWindow(t *testing.T) {
	p, err := NewDayProfile("occ", []Breakpoint{
		{Until: hours(7), Value: 0},
		{Until: hours(8), Value: 0.3},
		{Until: hours(17), Value: 0.9},
		{Until: hours(19), Value: 0.1},
		{Until: EndOfDay, Value: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, Window{Start: hours(7), End: hours(19)}, p.ActiveWindow(0.05))
	assert.Equal(t, Window{Start: hours(8), End: hours(17)}, p.ActiveWindow(0.5))
	assert.True(t, p.ActiveWindow(1).Closed())
}

func TestHoursOfOperationRoundTrip(t *testing.T) {
	hoo := HoursOfOperation{
		Default: Window{Start: hours(8), End: hours(18)},
		Weekday: map[time.Weekday]Window{
			time.Saturday: {Start: hours(9), End: hours(13)},
			time.Sunday:   {},
		},
	}
	s := hoo.String()
	assert.Equal(t, "default 08:00-18:00, Sat 09:00-13:00, Sun closed", s)
	back, err := ParseHoursOfOperation(s)
	require.NoError(t, err)
	assert.Equal(t, hoo, back)
	assert.Equal(t, hoo.Default, back.For(time.Wednesday))
	assert.Equal(t, hoo.Weekday[time.Saturday], back.ForDays(Weekend))

	bare, err := ParseHoursOfOperation("07:00-19:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Start: hours(7), End: hours(19)}, bare.Default)
	assert.Nil(t, bare.Weekday)

	for _, bad := range []string{"Sat 09:00-13:00", "default 08:00-18:00, Someday closed", "default a b c"} {
		_, err := ParseHoursOfOperation(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitRulesByHours(t *testing.T) {
	hoo, err := ParseHoursOfOperation("default 08:00-18:00, Sat 09:00-13:00, Sun closed")
	require.NoError(t, err)
	assert.Equal(t, []WeekdaySet{Weekdays, NewWeekdaySet(time.Saturday), NewWeekdaySet(time.Sunday)}, hoo.Partition(AllWeekdays))
	assert.Len(t, hoo.Partition(Weekdays), 1)

	rs, err := NewRuleset("Office", NewConstantProfile("Office Default", 0))
	require.NoError(t, err)
	all, err := NewRule("All Days", NewConstantProfile("All Days", 0.5), FullYear(), AllWeekdays)
	require.NoError(t, err)
	wkdy, err := NewRule("Weekdays", NewConstantProfile("Weekdays", 0.2), FullYear(), Weekdays)
	require.NoError(t, err)
	rs.AddRule(all)
	rs.AddRule(wkdy)
	before := AnnualRuleIndices(rs, 2023)

	origin := rs.SplitRulesByHours(hoo)
	assert.Equal(t, []int{0, 0, 0, 1}, origin)
	require.Len(t, rs.Rules, 4)
	assert.Equal(t, "All Days Wkdy", rs.Rules[0].Name)
	assert.Equal(t, "All Days Sat", rs.Rules[1].Name)
	assert.Equal(t, "All Days Sun", rs.Rules[2].Name)
	assert.Equal(t, "Weekdays", rs.Rules[3].Name)
	assert.NotSame(t, rs.Rules[0].Profile, rs.Rules[1].Profile)

	// Every day keeps the profile values it had.
	after := AnnualRuleIndices(rs, 2023)
	for day := range before {
		require.NotEqual(t, DefaultIndex, after[day])
		assert.Equal(t, before[day], origin[after[day]])
	}
}

func TestActiveSpanAcrossMidnight(t *testing.T) {
	night, err := NewDayProfile("night", []Breakpoint{{Until: hours(4), Value: 1}, {Until: hours(20), Value: 0}, {Until: EndOfDay, Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, Window{Start: 0, End: EndOfDay}, night.ActiveWindow(0))
	assert.Equal(t, Window{Start: hours(20), End: hours(28)}, night.ActiveSpan(0))

	day, err := NewDayProfile("day", []Breakpoint{{Until: hours(8), Value: 0}, {Until: hours(18), Value: 1}, {Until: EndOfDay, Value: 0}})
	require.NoError(t, err)
	assert.Equal(t, day.ActiveWindow(0), day.ActiveSpan(0))

	on := NewConstantProfile("on", 1)
	assert.Equal(t, Window{Start: 0, End: EndOfDay}, on.ActiveSpan(0))
}
