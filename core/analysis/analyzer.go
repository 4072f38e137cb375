package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/opsched/core/logger"
	"github.com/kilianp07/opsched/core/schedule"
)

// Scope selects which profiles MinMax inspects.
type Scope int

const (
	// ScopeAllProfiles covers the default profile and every rule profile,
	// whether or not the rule ever governs a day.
	ScopeAllProfiles Scope = iota
	// ScopeActiveProfiles covers only profiles selected by the resolver
	// within the calendar context.
	ScopeActiveProfiles
)

// Range is a min/max pair.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Analyzer evaluates rulesets. The zero value is usable and logs nothing.
type Analyzer struct {
	log logger.Logger
}

// New returns an Analyzer logging lookup misses to log.
func New(log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Analyzer{log: log}
}

func (a *Analyzer) logger() logger.Logger {
	if a == nil || a.log == nil {
		return logger.NopLogger{}
	}
	return a.log
}

// MinMax returns the extreme values of the profiles in scope. Design day
// profiles are never included; use DesignDayMinMax for those.
func (a *Analyzer) MinMax(rs *schedule.Ruleset, scope Scope, ctx schedule.CalendarContext) Range {
	var profiles []*schedule.DayProfile
	switch scope {
	case ScopeActiveProfiles:
		for _, idx := range schedule.ActiveIndices(rs, ctx) {
			profiles = append(profiles, rs.ProfileAt(idx))
		}
	default:
		profiles = rs.Profiles(false)
	}
	if len(profiles) == 0 {
		a.logger().Warnf("schedule %s: no profile active in run period", rs.Name)
		return Range{Min: math.NaN(), Max: math.NaN()}
	}
	out := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range profiles {
		lo, hi := p.MinMax()
		out.Min = math.Min(out.Min, lo)
		out.Max = math.Max(out.Max, hi)
	}
	return out
}

// DesignDayMinMax returns the extremes of a design day profile. A ruleset
// without that profile falls back to its default profile with a warning.
func (a *Analyzer) DesignDayMinMax(rs *schedule.Ruleset, d schedule.DesignDay) Range {
	p, ok := rs.DesignDayProfile(d)
	if !ok {
		a.logger().Warnf("schedule %s: no %s design day profile, using default profile", rs.Name, d)
		p = rs.Default
	}
	lo, hi := p.MinMax()
	return Range{Min: lo, Max: hi}
}

// FullLoadHours integrates the resolved value over the calendar year.
func FullLoadHours(rs *schedule.Ruleset, year int) float64 {
	daily := make([]float64, 0, schedule.DaysInYear(year))
	schedule.ForEachDay(rs, year, func(_ int, _ time.Time, p *schedule.DayProfile) {
		daily = append(daily, p.Integral())
	})
	return floats.Sum(daily)
}

// EquivalentFullLoadHours integrates only the days inside the run period.
func EquivalentFullLoadHours(rs *schedule.Ruleset, ctx schedule.CalendarContext) float64 {
	var sum float64
	schedule.ForEachDay(rs, ctx.Year, func(_ int, date time.Time, p *schedule.DayProfile) {
		if ctx.RunPeriod.Contains(schedule.MonthDayOf(date)) {
			sum += p.Integral()
		}
	})
	return sum
}

// HourlyValues expands the ruleset into 24*N hourly averages.
func HourlyValues(rs *schedule.Ruleset, year int) []float64 {
	out, _ := TimestepValues(rs, year, 1)
	return out
}

// TimestepValues expands the ruleset into stepsPerHour values per hour, each
// the average of the governing profile over its half-open step.
func TimestepValues(rs *schedule.Ruleset, year, stepsPerHour int) ([]float64, error) {
	if stepsPerHour <= 0 || 60%stepsPerHour != 0 {
		return nil, fmt.Errorf("steps per hour must divide 60, got %d", stepsPerHour)
	}
	step := time.Hour / time.Duration(stepsPerHour)
	perDay := 24 * stepsPerHour
	out := make([]float64, 0, perDay*schedule.DaysInYear(year))
	cache := map[*schedule.DayProfile][]float64{}
	schedule.ForEachDay(rs, year, func(_ int, _ time.Time, p *schedule.DayProfile) {
		vals, ok := cache[p]
		if !ok {
			vals = make([]float64, perDay)
			for i := range vals {
				start := step * time.Duration(i)
				vals[i] = p.Average(start, start+step)
			}
			cache[p] = vals
		}
		out = append(out, vals...)
	})
	return out, nil
}

// HoursAboveValue counts hourly values strictly greater than threshold.
func HoursAboveValue(rs *schedule.Ruleset, year int, threshold float64) int {
	n := 0
	for _, v := range HourlyValues(rs, year) {
		if v > threshold {
			n++
		}
	}
	return n
}

// DayHistogram counts the days of year governed by each rule index.
func DayHistogram(rs *schedule.Ruleset, year int) map[int]int {
	out := map[int]int{}
	for _, idx := range schedule.AnnualRuleIndices(rs, year) {
		out[idx]++
	}
	return out
}

// Summary bundles the analytics consumed by compliance checks.
type Summary struct {
	Name           string      `json:"name" yaml:"name"`
	Year           int         `json:"year" yaml:"year"`
	All            Range       `json:"all_profiles" yaml:"all_profiles"`
	Active         Range       `json:"active_profiles" yaml:"active_profiles"`
	FullLoadHours  float64     `json:"full_load_hours" yaml:"full_load_hours"`
	HoursAbove     int         `json:"hours_above" yaml:"hours_above"`
	Threshold      float64     `json:"threshold" yaml:"threshold"`
	HourlyPeak     float64     `json:"hourly_peak" yaml:"hourly_peak"`
	ActiveRules    int         `json:"active_rules" yaml:"active_rules"`
	OverlapsFound  int         `json:"overlaps" yaml:"overlaps"`
	DaysPerProfile map[int]int `json:"days_per_profile" yaml:"days_per_profile"`
}

// Summarize computes a Summary for the calendar context.
func (a *Analyzer) Summarize(rs *schedule.Ruleset, ctx schedule.CalendarContext, threshold float64) Summary {
	hourly := HourlyValues(rs, ctx.Year)
	above := 0
	for _, v := range hourly {
		if v > threshold {
			above++
		}
	}
	active := 0
	for _, idx := range schedule.ActiveIndices(rs, ctx) {
		if idx != schedule.DefaultIndex {
			active++
		}
	}
	s := Summary{
		Name:           rs.Name,
		Year:           ctx.Year,
		All:            a.MinMax(rs, ScopeAllProfiles, ctx),
		Active:         a.MinMax(rs, ScopeActiveProfiles, ctx),
		FullLoadHours:  floats.Sum(hourly),
		HoursAbove:     above,
		Threshold:      threshold,
		HourlyPeak:     floats.Max(hourly),
		ActiveRules:    active,
		OverlapsFound:  len(rs.Validate()),
		DaysPerProfile: DayHistogram(rs, ctx.Year),
	}
	a.logger().Debugw("schedule summarized", map[string]any{
		"schedule":        rs.Name,
		"year":            ctx.Year,
		"full_load_hours": s.FullLoadHours,
	})
	return s
}
