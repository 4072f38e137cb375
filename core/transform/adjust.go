package transform

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

// MultiplyByValue scales p in place. Values below floor are left unscaled.
func MultiplyByValue(p *schedule.DayProfile, factor float64, floor *float64) {
	p.Scale(factor, floor)
}

// MultiplyRulesetByValue scales every profile of rs, design days included,
// then clamps to the ruleset limits.
func MultiplyRulesetByValue(rs *schedule.Ruleset, factor float64, floor *float64) {
	for _, p := range rs.Profiles(true) {
		p.Scale(factor, floor)
	}
	rs.Clamp()
}

// AdjustMode selects how SimpleValueAdjust combines delta with a value.
type AdjustMode string

const (
	AdjustSum      AdjustMode = "Sum"
	AdjustMultiply AdjustMode = "Multiply"
)

// SimpleValueAdjust adds delta to, or multiplies by delta, every breakpoint
// of every profile and clamps to the ruleset limits.
func SimpleValueAdjust(rs *schedule.Ruleset, delta float64, mode AdjustMode) error {
	var fn func(float64) float64
	switch mode {
	case AdjustSum:
		fn = func(v float64) float64 { return v + delta }
	case AdjustMultiply:
		fn = func(v float64) float64 { return v * delta }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	for _, p := range rs.Profiles(true) {
		p.MapValues(func(_ time.Duration, v float64) float64 {
			return schedule.RoundValue(rs.Limits.Clamp(fn(v)))
		})
	}
	return nil
}

// Comparison decides which values pass a conditional adjustment.
type Comparison int

const (
	// Below passes values strictly lower than the test value.
	Below Comparison = iota
	// Above passes values strictly greater than the test value.
	Above
)

// Conditional parameterizes ConditionalAdjustValue.
type Conditional struct {
	Test    float64
	Pass    float64
	Fail    float64
	Floor   float64
	Compare Comparison
}

func (c Conditional) passes(v float64) bool {
	if c.Compare == Above {
		return v > c.Test
	}
	return v < c.Test
}

// ConditionalAdjustValue substitutes Pass for values passing the test and
// Fail for the others. Results never go below Floor.
func ConditionalAdjustValue(rs *schedule.Ruleset, c Conditional) {
	for _, p := range rs.Profiles(true) {
		p.MapValues(func(_ time.Duration, v float64) float64 {
			out := c.Fail
			if c.passes(v) {
				out = c.Pass
			}
			return rs.Limits.Clamp(math.Max(out, c.Floor))
		})
		p.Compact()
	}
}

// TimeConditionalAdjustValue sets every interval inside [start, end] to
// inside and every other interval to outside. A window whose end precedes its
// start, or runs past 24:00, wraps over midnight.
func TimeConditionalAdjustValue(rs *schedule.Ruleset, start, end time.Duration, inside, outside float64) error {
	wraps := end < start
	if end > schedule.EndOfDay {
		end -= schedule.EndOfDay
		wraps = true
		if end >= start {
			start, end, wraps = 0, schedule.EndOfDay, false
		}
	}
	in := func(iv schedule.Interval) bool {
		if wraps {
			return iv.End <= end || iv.Start >= start
		}
		return iv.Start >= start && iv.End <= end
	}
	inside = rs.Limits.Clamp(inside)
	outside = rs.Limits.Clamp(outside)
	for _, p := range rs.Profiles(true) {
		p.SplitAt(start, end)
		ivs := p.Intervals()
		pts := make([]schedule.Breakpoint, len(ivs))
		for i, iv := range ivs {
			v := outside
			if in(iv) {
				v = inside
			}
			pts[i] = schedule.Breakpoint{Until: iv.End, Value: v}
		}
		if err := p.SetBreakpoints(pts); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		p.Compact()
	}
	return nil
}
