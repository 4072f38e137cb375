package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Window is an on period within a day. End may exceed 24:00, in which case
// the remainder wraps into the start of the same profile.
type Window struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Closed reports whether the window holds no on time.
func (w Window) Closed() bool { return w.End <= w.Start }

// Duration returns the on time, capped at one day.
func (w Window) Duration() time.Duration {
	if w.Closed() {
		return 0
	}
	if d := w.End - w.Start; d < EndOfDay {
		return d
	}
	return EndOfDay
}

func (w Window) String() string {
	if w.Closed() {
		return "closed"
	}
	return FormatTime(w.Start) + "-" + FormatTime(w.End)
}

// ParseWindow parses "HH:MM-HH:MM" or "closed".
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "closed") || s == "" {
		return Window{}, nil
	}
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	ws, err := ParseTime(start)
	if err != nil {
		return Window{}, err
	}
	we, err := ParseTime(end)
	if err != nil {
		return Window{}, err
	}
	if ws >= EndOfDay {
		return Window{}, fmt.Errorf("window %q starts after 24:00", s)
	}
	return Window{Start: ws, End: we}, nil
}

// HoursOfOperation gives the canonical on window of a building or zone per
// weekday. Weekdays without an override use Default.
type HoursOfOperation struct {
	Default Window
	Weekday map[time.Weekday]Window
}

// For returns the window of a weekday.
func (h HoursOfOperation) For(wd time.Weekday) Window {
	if w, ok := h.Weekday[wd]; ok {
		return w
	}
	return h.Default
}

// ForDays returns the window of the first day of set, Monday first. An empty
// set yields Default.
func (h HoursOfOperation) ForDays(set WeekdaySet) Window {
	days := set.Days()
	if len(days) == 0 {
		return h.Default
	}
	return h.For(days[0])
}

// Partition groups the weekdays of set by their window. Groups are ordered
// by their first day, Monday first.
func (h HoursOfOperation) Partition(set WeekdaySet) []WeekdaySet {
	var (
		groups []WeekdaySet
		seen   []Window
	)
next:
	for _, d := range set.Days() {
		w := h.For(d)
		for i := range seen {
			if seen[i] == w {
				groups[i] = groups[i].Add(d)
				continue next
			}
		}
		seen = append(seen, w)
		groups = append(groups, NewWeekdaySet(d))
	}
	return groups
}

// SplitRulesByHours replaces every rule whose weekdays fall under more than
// one window of h with one rule per window, each with its own copy of the
// profile, at the position of the original. It returns the index of the
// original rule for every resulting rule.
func (rs *Ruleset) SplitRulesByHours(h HoursOfOperation) []int {
	rules := make([]*Rule, 0, len(rs.Rules))
	origin := make([]int, 0, len(rs.Rules))
	for i, r := range rs.Rules {
		groups := h.Partition(r.Days)
		if len(groups) <= 1 {
			rules = append(rules, r)
			origin = append(origin, i)
			continue
		}
		for _, g := range groups {
			c := r.Clone()
			c.Name = r.Name + " " + g.String()
			c.Profile.Name = c.Name
			c.Days = g
			rules = append(rules, c)
			origin = append(origin, i)
		}
	}
	rs.Rules = rules
	return origin
}

func (h HoursOfOperation) String() string {
	parts := []string{"default " + h.Default.String()}
	for _, d := range weekOrder {
		if w, ok := h.Weekday[d]; ok {
			parts = append(parts, d.String()[:3]+" "+w.String())
		}
	}
	return strings.Join(parts, ", ")
}

// ParseHoursOfOperation parses the String form, e.g.
// "default 08:00-18:00, Sat 09:00-13:00, Sun closed". The default entry may
// be given as a bare window.
func ParseHoursOfOperation(s string) (HoursOfOperation, error) {
	var h HoursOfOperation
	seenDefault := false
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			fields = []string{"default", fields[0]}
		case 2:
		default:
			return HoursOfOperation{}, fmt.Errorf("invalid hours of operation entry %q", strings.TrimSpace(part))
		}
		w, err := ParseWindow(fields[1])
		if err != nil {
			return HoursOfOperation{}, err
		}
		if strings.EqualFold(fields[0], "default") {
			h.Default = w
			seenDefault = true
			continue
		}
		wd, err := ParseWeekday(fields[0])
		if err != nil {
			return HoursOfOperation{}, err
		}
		if h.Weekday == nil {
			h.Weekday = map[time.Weekday]Window{}
		}
		h.Weekday[wd] = w
	}
	if !seenDefault {
		return HoursOfOperation{}, fmt.Errorf("hours of operation %q: missing default window", s)
	}
	return h, nil
}

// ActiveWindow returns the span from the start of the first interval above
// threshold to the end of the last one. A profile never above threshold
// yields a closed window.
func (p *DayProfile) ActiveWindow(threshold float64) Window {
	var w Window
	found := false
	for _, iv := range p.Intervals() {
		if iv.Value <= threshold {
			continue
		}
		if !found {
			w.Start = iv.Start
			found = true
		}
		w.End = iv.End
	}
	return w
}

// ActiveSpan is ActiveWindow for profiles that stay active across midnight.
// When the first and last intervals are both above threshold and some
// interval is not, the window runs from the end of the last inactive
// interval to the start of the first one on the next day, so End exceeds
// 24:00.
func (p *DayProfile) ActiveSpan(threshold float64) Window {
	ivs := p.Intervals()
	if len(ivs) < 2 || ivs[0].Value <= threshold || ivs[len(ivs)-1].Value <= threshold {
		return p.ActiveWindow(threshold)
	}
	first, last := -1, -1
	for i, iv := range ivs {
		if iv.Value > threshold {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return Window{Start: 0, End: EndOfDay}
	}
	return Window{Start: ivs[last].End, End: EndOfDay + ivs[first].Start}
}
