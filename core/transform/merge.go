package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

// Weighted pairs a ruleset with its merge weight.
type Weighted struct {
	Ruleset *schedule.Ruleset
	Weight  float64
}

// MergeResult holds the merged ruleset and the plain sum of the weights.
// The merge never divides; callers normalize with Denominator.
type MergeResult struct {
	Merged      *schedule.Ruleset
	Denominator float64
}

// WeightedMerge builds a ruleset whose value at any time is the weighted sum
// of the input values. Every (month/day, weekday) pair resolves to the
// same combination of input profiles in the merged ruleset as in the inputs,
// so the result holds for any calendar year. Inputs are not modified.
func WeightedMerge(name string, items []Weighted) (MergeResult, error) {
	if len(items) == 0 {
		return MergeResult{}, ErrEmptyMerge
	}
	weights := make([]float64, len(items))
	var denom float64
	for i, it := range items {
		if it.Ruleset == nil {
			return MergeResult{}, fmt.Errorf("%w: input %d has no ruleset", ErrEmptyMerge, i)
		}
		weights[i] = it.Weight
		denom += it.Weight
	}

	defaults := make([]*schedule.DayProfile, len(items))
	for i, it := range items {
		defaults[i] = it.Ruleset.Default
	}
	def, err := mergeProfiles(name+" Default", defaults, weights)
	if err != nil {
		return MergeResult{}, err
	}
	merged, err := schedule.NewRuleset(name, def)
	if err != nil {
		return MergeResult{}, err
	}
	if merged.WinterDesign, err = mergeDesignDay(name, items, weights, schedule.WinterDesignDay); err != nil {
		return MergeResult{}, err
	}
	if merged.SummerDesign, err = mergeDesignDay(name, items, weights, schedule.SummerDesignDay); err != nil {
		return MergeResult{}, err
	}

	runs := collectRuns(items)
	cache := map[string]*schedule.DayProfile{}
	for i, run := range runs {
		p, ok := cache[run.key]
		if !ok {
			profiles := make([]*schedule.DayProfile, len(items))
			for j, idx := range run.indices {
				profiles[j] = items[j].Ruleset.ProfileAt(idx)
			}
			if p, err = mergeProfiles(run.key, profiles, weights); err != nil {
				return MergeResult{}, err
			}
			cache[run.key] = p
		}
		ruleName := fmt.Sprintf("%s Rule %d", name, i+1)
		own := p.Clone()
		own.Name = ruleName
		rule, err := schedule.NewRule(ruleName, own, run.dates, run.days)
		if err != nil {
			return MergeResult{}, err
		}
		merged.AddRule(rule)
	}
	merged.SetMeta("merge:denominator", strconv.FormatFloat(denom, 'f', -1, 64))
	return MergeResult{Merged: merged, Denominator: denom}, nil
}

func mergeDesignDay(name string, items []Weighted, weights []float64, d schedule.DesignDay) (*schedule.DayProfile, error) {
	found := false
	profiles := make([]*schedule.DayProfile, len(items))
	for i, it := range items {
		p, ok := it.Ruleset.DesignDayProfile(d)
		if ok {
			found = true
		} else {
			p = it.Ruleset.Default
		}
		profiles[i] = p
	}
	if !found {
		return nil, nil
	}
	return mergeProfiles(fmt.Sprintf("%s %s Design Day", name, d), profiles, weights)
}

type mergeRun struct {
	key     string
	indices []int
	dates   schedule.DateRange
	days    schedule.WeekdaySet
}

// collectRuns walks the leap calendar once per weekday and groups contiguous
// month/days resolving to the same input profiles. Runs with identical dates
// and profiles are folded into one weekday set; all-default runs are left to
// the merged default profile.
func collectRuns(items []Weighted) []*mergeRun {
	cal := schedule.LeapCalendar()
	var runs []*mergeRun
	byID := map[string]*mergeRun{}
	flush := func(indices []int, start, end schedule.MonthDay, wd time.Weekday) {
		allDefault := true
		for _, idx := range indices {
			if idx != schedule.DefaultIndex {
				allDefault = false
				break
			}
		}
		if allDefault {
			return
		}
		key := indexKey(indices)
		id := key + "|" + start.String() + "|" + end.String()
		if r, ok := byID[id]; ok {
			r.days = r.days.Add(wd)
			return
		}
		r := &mergeRun{
			key:     key,
			indices: indices,
			dates:   schedule.DateRange{Start: start, End: end},
			days:    schedule.NewWeekdaySet(wd),
		}
		byID[id] = r
		runs = append(runs, r)
	}
	for _, wd := range schedule.AllWeekdays.Days() {
		var cur []int
		runStart := 0
		for i, md := range cal {
			indices := make([]int, len(items))
			for j, it := range items {
				indices[j] = it.Ruleset.IndexFor(md, wd)
			}
			if i == 0 {
				cur = indices
				continue
			}
			if !sameIndices(cur, indices) {
				flush(cur, cal[runStart], cal[i-1], wd)
				cur, runStart = indices, i
			}
		}
		flush(cur, cal[runStart], cal[len(cal)-1], wd)
	}
	return runs
}

func sameIndices(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexKey(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// mergeProfiles evaluates the weighted sum on the union of all breakpoint
// times.
func mergeProfiles(name string, profiles []*schedule.DayProfile, weights []float64) (*schedule.DayProfile, error) {
	seen := map[time.Duration]struct{}{}
	var times []time.Duration
	for _, p := range profiles {
		for _, bp := range p.Breakpoints() {
			if _, ok := seen[bp.Until]; !ok {
				seen[bp.Until] = struct{}{}
				times = append(times, bp.Until)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	pts := make([]schedule.Breakpoint, 0, len(times))
	var start time.Duration
	for _, t := range times {
		var v float64
		for i, p := range profiles {
			v += weights[i] * p.ValueAt(start)
		}
		pts = append(pts, schedule.Breakpoint{Until: t, Value: schedule.RoundValue(v)})
		start = t
	}
	p, err := schedule.NewDayProfile(name, pts)
	if err != nil {
		return nil, err
	}
	p.Compact()
	return p, nil
}
