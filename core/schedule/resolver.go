package schedule

import (
	"sort"
	"time"
)

// DefaultIndex marks days governed by the default profile.
const DefaultIndex = -1

// IsLeap reports whether year has 366 days.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DateOfYear returns the date of the 1-based day of year.
func DateOfYear(year, day int) time.Time {
	return time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
}

// RunPeriod restricts an analysis to a sub-range of the year. It may wrap
// over the year end.
type RunPeriod struct {
	Begin MonthDay `json:"begin"`
	End   MonthDay `json:"end"`
}

// Contains reports whether md falls inside the period. A nil period covers
// the whole year.
func (p *RunPeriod) Contains(md MonthDay) bool {
	if p == nil {
		return true
	}
	return DateRange{Start: p.Begin, End: p.End}.Contains(md)
}

// CalendarContext is supplied per analysis call.
type CalendarContext struct {
	Year      int
	RunPeriod *RunPeriod
}

// IndexFor returns the index of the first rule covering the day, or
// DefaultIndex. Later matching rules are shadowed.
func (rs *Ruleset) IndexFor(md MonthDay, wd time.Weekday) int {
	for i, r := range rs.Rules {
		if r.Applies(md, wd) {
			return i
		}
	}
	return DefaultIndex
}

// IndexForDate resolves the governing rule index for a date.
func (rs *Ruleset) IndexForDate(t time.Time) int {
	return rs.IndexFor(MonthDayOf(t), t.Weekday())
}

// ProfileForDate returns the profile governing the date.
func (rs *Ruleset) ProfileForDate(t time.Time) *DayProfile {
	return rs.ProfileAt(rs.IndexForDate(t))
}

// AnnualRuleIndices returns, for every day of year, the governing rule index
// or DefaultIndex. Element 0 is January 1st.
func AnnualRuleIndices(rs *Ruleset, year int) []int {
	n := DaysInYear(year)
	out := make([]int, n)
	for d := 1; d <= n; d++ {
		out[d-1] = rs.IndexForDate(DateOfYear(year, d))
	}
	return out
}

// DaysUsedByRule groups the 1-based days of year by governing rule index.
// The groups partition 1..N exactly.
func DaysUsedByRule(rs *Ruleset, year int) map[int][]int {
	out := map[int][]int{}
	for i, idx := range AnnualRuleIndices(rs, year) {
		out[idx] = append(out[idx], i+1)
	}
	return out
}

// ActiveIndices returns the sorted distinct rule indices selected within the
// calendar context, DefaultIndex first when present.
func ActiveIndices(rs *Ruleset, ctx CalendarContext) []int {
	seen := map[int]struct{}{}
	n := DaysInYear(ctx.Year)
	for d := 1; d <= n; d++ {
		date := DateOfYear(ctx.Year, d)
		if !ctx.RunPeriod.Contains(MonthDayOf(date)) {
			continue
		}
		seen[rs.IndexForDate(date)] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// ForEachDay walks the calendar year in order, calling fn with the 1-based
// day of year, the date and its governing profile.
func ForEachDay(rs *Ruleset, year int, fn func(day int, date time.Time, p *DayProfile)) {
	n := DaysInYear(year)
	for d := 1; d <= n; d++ {
		date := DateOfYear(year, d)
		fn(d, date, rs.ProfileForDate(date))
	}
}

// leapCalendar lists every month/day of a leap year.
func leapCalendar() []MonthDay {
	out := make([]MonthDay, 0, 366)
	for d := 1; d <= 366; d++ {
		out = append(out, MonthDayOf(DateOfYear(leapReference, d)))
	}
	return out
}

// LeapCalendar lists every month/day including 2/29, January 1st first.
func LeapCalendar() []MonthDay { return leapCalendar() }
