package transform

import (
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

// RateOfChange returns a new ruleset whose profiles hold, for every hour, the
// change of the hourly average from the previous hour of the same profile.
// Hour 0 is compared with hour 23.
func RateOfChange(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
	out := rs.Clone()
	out.Name = rs.Name + " Rate of Change"
	out.Limits = nil
	for _, p := range out.Profiles(true) {
		var avg [24]float64
		for h := range avg {
			start := time.Duration(h) * time.Hour
			avg[h] = p.Average(start, start+time.Hour)
		}
		deltas := make([]float64, 24)
		for h := range deltas {
			prev := avg[(h+23)%24]
			deltas[h] = schedule.RoundValue(avg[h] - prev)
		}
		d, err := schedule.FromValues(p.Name, deltas, 1)
		if err != nil {
			return nil, err
		}
		if err := p.SetBreakpoints(d.Breakpoints()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
