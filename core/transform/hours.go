package transform

import (
	"sort"
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

const (
	valueOn  = 1.0
	valueOff = 0.0
)

// SetHoursOfOperation rewrites p so that it is on (1) during each window and
// off (0) otherwise. Windows running past 24:00 wrap into the leading
// interval of the day; overlapping windows are merged.
func SetHoursOfOperation(p *schedule.DayProfile, windows ...schedule.Window) error {
	var segs []schedule.Interval
	for _, w := range windows {
		if w.Closed() {
			continue
		}
		if w.Duration() >= schedule.EndOfDay {
			segs = append(segs, schedule.Interval{Start: 0, End: schedule.EndOfDay})
			continue
		}
		start := w.Start % schedule.EndOfDay
		end := start + w.Duration()
		if end <= schedule.EndOfDay {
			segs = append(segs, schedule.Interval{Start: start, End: end})
			continue
		}
		segs = append(segs,
			schedule.Interval{Start: start, End: schedule.EndOfDay},
			schedule.Interval{Start: 0, End: end - schedule.EndOfDay})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })

	var merged []schedule.Interval
	for _, s := range segs {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	var pts []schedule.Breakpoint
	var cursor time.Duration
	for _, s := range merged {
		if s.Start > cursor {
			pts = append(pts, schedule.Breakpoint{Until: s.Start, Value: valueOff})
		}
		pts = append(pts, schedule.Breakpoint{Until: s.End, Value: valueOn})
		cursor = s.End
	}
	if cursor < schedule.EndOfDay {
		pts = append(pts, schedule.Breakpoint{Until: schedule.EndOfDay, Value: valueOff})
	}
	return p.SetBreakpoints(pts)
}

// HoursOfOperationRuleset builds an on/off ruleset from hoo: the default
// profile follows hoo.Default and every weekday override becomes a full-year
// rule.
func HoursOfOperationRuleset(name string, hoo schedule.HoursOfOperation) (*schedule.Ruleset, error) {
	def := schedule.NewConstantProfile(name+" Default", valueOff)
	if err := SetHoursOfOperation(def, hoo.Default); err != nil {
		return nil, err
	}
	rs, err := schedule.NewRuleset(name, def)
	if err != nil {
		return nil, err
	}
	onoff, _ := schedule.LimitsFor(schedule.PresetOnOff)
	rs.Limits = onoff
	for _, wd := range schedule.AllWeekdays.Days() {
		w, ok := hoo.Weekday[wd]
		if !ok || w == hoo.Default {
			continue
		}
		ruleName := name + " " + wd.String()
		p := schedule.NewConstantProfile(ruleName, valueOff)
		if err := SetHoursOfOperation(p, w); err != nil {
			return nil, err
		}
		r, err := schedule.NewRule(ruleName, p, schedule.FullYear(), schedule.NewWeekdaySet(wd))
		if err != nil {
			return nil, err
		}
		rs.AddRule(r)
	}
	rs.SetMeta("hoo:default", hoo.Default.String())
	return rs, nil
}

// AlignRulesWithHoursOfOperation retimes each profile so that its active
// interval (the span above its own minimum) coincides with the hours of
// operation of the days it governs. Time before, during and after the active
// interval is stretched proportionally, preserving the shape. The default
// profile uses hoo.Default. A rule whose weekdays fall under several windows
// is first split into one rule per window. It returns the number of profiles
// changed.
func AlignRulesWithHoursOfOperation(rs *schedule.Ruleset, hoo schedule.HoursOfOperation) (int, error) {
	rs.SplitRulesByHours(hoo)
	changed := 0
	ok, err := alignProfile(rs.Default, hoo.Default)
	if err != nil {
		return changed, err
	}
	if ok {
		changed++
	}
	for _, r := range rs.Rules {
		ok, err := alignProfile(r.Profile, hoo.ForDays(r.Days))
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func remap(t, from0, from1, to0, to1 time.Duration) time.Duration {
	if from1 == from0 {
		return to1
	}
	f := float64(t-from0) / float64(from1-from0)
	return (to0 + time.Duration(f*float64(to1-to0))).Round(time.Second)
}

func alignProfile(p *schedule.DayProfile, w schedule.Window) (bool, error) {
	if w.Closed() {
		return false, nil
	}
	baseline, _ := p.MinMax()
	active := p.ActiveWindow(baseline)
	if active.Closed() {
		return false, nil
	}
	if w.End > schedule.EndOfDay {
		return true, alignWrapped(p, active, w)
	}
	w0, w1 := w.Start, w.End
	if active.Start == w0 && active.End == w1 {
		return false, nil
	}
	a0, a1 := active.Start, active.End

	var pts []schedule.Breakpoint
	add := func(t time.Duration, v float64) {
		if n := len(pts); n > 0 && t <= pts[n-1].Until {
			return
		}
		if t <= 0 {
			return
		}
		pts = append(pts, schedule.Breakpoint{Until: t, Value: v})
	}
	ivs := p.Intervals()
	if w0 > 0 {
		if a0 == 0 {
			add(w0, baseline)
		}
		for _, iv := range ivs {
			if iv.End <= a0 {
				add(remap(iv.End, 0, a0, 0, w0), iv.Value)
			}
		}
	}
	for _, iv := range ivs {
		if iv.Start >= a0 && iv.End <= a1 {
			add(remap(iv.End, a0, a1, w0, w1), iv.Value)
		}
	}
	if w1 < schedule.EndOfDay {
		if a1 == schedule.EndOfDay {
			add(schedule.EndOfDay, baseline)
		}
		for _, iv := range ivs {
			if iv.Start >= a1 {
				add(remap(iv.End, a1, schedule.EndOfDay, w1, schedule.EndOfDay), iv.Value)
			}
		}
	}
	if n := len(pts); n > 0 && pts[n-1].Until != schedule.EndOfDay {
		pts[n-1].Until = schedule.EndOfDay
	}
	if err := p.SetBreakpoints(pts); err != nil {
		return false, err
	}
	p.Compact()
	return true, nil
}

// alignWrapped handles windows ending after midnight. The profile is laid
// out from the window start over one day: the active span onto the window,
// then the off time after and before the active span onto the rest. The
// result is folded back into a single day.
func alignWrapped(p *schedule.DayProfile, active, w schedule.Window) error {
	w0 := w.Start
	w1 := w0 + w.Duration()
	end := w0 + schedule.EndOfDay
	a0, a1 := active.Start, active.End
	off := schedule.EndOfDay - (a1 - a0)

	var segs []schedule.Interval
	for _, iv := range p.Intervals() {
		switch {
		case iv.Start >= a0 && iv.End <= a1:
			segs = append(segs, schedule.Interval{Start: remap(iv.Start, a0, a1, w0, w1), End: remap(iv.End, a0, a1, w0, w1), Value: iv.Value})
		case iv.Start >= a1:
			segs = append(segs, schedule.Interval{Start: remap(iv.Start-a1, 0, off, w1, end), End: remap(iv.End-a1, 0, off, w1, end), Value: iv.Value})
		default:
			lead := schedule.EndOfDay - a1
			segs = append(segs, schedule.Interval{Start: remap(lead+iv.Start, 0, off, w1, end), End: remap(lead+iv.End, 0, off, w1, end), Value: iv.Value})
		}
	}

	var folded []schedule.Interval
	for _, sg := range segs {
		switch {
		case sg.End <= schedule.EndOfDay:
			folded = append(folded, sg)
		case sg.Start >= schedule.EndOfDay:
			sg.Start -= schedule.EndOfDay
			sg.End -= schedule.EndOfDay
			folded = append(folded, sg)
		default:
			folded = append(folded,
				schedule.Interval{Start: sg.Start, End: schedule.EndOfDay, Value: sg.Value},
				schedule.Interval{Start: 0, End: sg.End - schedule.EndOfDay, Value: sg.Value})
		}
	}
	sort.SliceStable(folded, func(i, j int) bool { return folded[i].Start < folded[j].Start })

	var pts []schedule.Breakpoint
	for _, sg := range folded {
		if n := len(pts); sg.End <= 0 || (n > 0 && sg.End <= pts[n-1].Until) {
			continue
		}
		pts = append(pts, schedule.Breakpoint{Until: sg.End, Value: sg.Value})
	}
	if n := len(pts); n > 0 {
		pts[n-1].Until = schedule.EndOfDay
	}
	if err := p.SetBreakpoints(pts); err != nil {
		return err
	}
	p.Compact()
	return nil
}
