package schedule

import (
	"fmt"
	"strings"
)

// Overlap describes a later rule sharing days with an earlier one. The later
// rule never governs the shared days.
type Overlap struct {
	Earlier     int
	Later       int
	EarlierName string
	LaterName   string
	Days        WeekdaySet
	// SharedDates counts month/days (leap calendar) covered by both ranges.
	SharedDates int
	// Shadowed is set when the later rule governs no day at all.
	Shadowed bool
}

func (o Overlap) String() string {
	s := fmt.Sprintf("rule %d %q overlaps earlier rule %d %q on %d dates (%s)",
		o.Later, o.LaterName, o.Earlier, o.EarlierName, o.SharedDates, o.Days)
	if o.Shadowed {
		s += ", fully shadowed"
	}
	return s
}

// Validate reports every pair of rules whose applicability overlaps. It never
// changes resolution.
func (rs *Ruleset) Validate() []Overlap {
	cal := leapCalendar()
	var out []Overlap
	for j := 1; j < len(rs.Rules); j++ {
		later := rs.Rules[j]
		shadowed := rs.shadowed(j, cal)
		for i := 0; i < j; i++ {
			earlier := rs.Rules[i]
			days := earlier.Days & later.Days
			if days.Empty() {
				continue
			}
			shared := 0
			for _, md := range cal {
				if earlier.Dates.Contains(md) && later.Dates.Contains(md) {
					shared++
				}
			}
			if shared == 0 {
				continue
			}
			out = append(out, Overlap{
				Earlier:     i,
				Later:       j,
				EarlierName: earlier.Name,
				LaterName:   later.Name,
				Days:        days,
				SharedDates: shared,
				Shadowed:    shadowed,
			})
		}
	}
	return out
}

// shadowed reports whether every day rule j applies to is taken by an
// earlier rule.
func (rs *Ruleset) shadowed(j int, cal []MonthDay) bool {
	r := rs.Rules[j]
	for _, md := range cal {
		if !r.Dates.Contains(md) {
			continue
		}
		for _, wd := range r.Days.Days() {
			if rs.IndexFor(md, wd) == j {
				return false
			}
		}
	}
	return true
}

// ValidateStrict fails with ErrRuleOverlap when Validate finds anything.
func (rs *Ruleset) ValidateStrict() error {
	overlaps := rs.Validate()
	if len(overlaps) == 0 {
		return nil
	}
	msgs := make([]string, len(overlaps))
	for i, o := range overlaps {
		msgs[i] = o.String()
	}
	return fmt.Errorf("ruleset %q: %w: %s", rs.Name, ErrRuleOverlap, strings.Join(msgs, "; "))
}
