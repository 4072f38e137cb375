package schedule

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// EndOfDay is the time of the terminal breakpoint of every profile.
const EndOfDay = 24 * time.Hour

// valueScale bounds the precision of derived decimal values to nine decimals.
const valueScale = 1e9

// Breakpoint ends an interval: Value holds from the previous breakpoint (or
// midnight) until Until.
type Breakpoint struct {
	Until time.Duration `json:"until"`
	Value float64       `json:"value"`
}

// Interval is one constant segment of a profile, covering [Start, End).
type Interval struct {
	Start time.Duration
	End   time.Duration
	Value float64
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration { return i.End - i.Start }

// DayProfile is a piecewise-constant function over one day. The zero value is
// not usable; build profiles with NewDayProfile, NewConstantProfile or
// FromValues.
type DayProfile struct {
	Name   string
	points []Breakpoint

	// Set by Invert: the values before and after the last inversion and
	// the bound sum it used.
	mirrorFrom []float64
	mirrorTo   []float64
	mirrorSum  float64
}

// NewDayProfile validates the breakpoints and returns a profile owning a copy
// of them.
func NewDayProfile(name string, points []Breakpoint) (*DayProfile, error) {
	if err := checkBreakpoints(points); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	return &DayProfile{Name: name, points: append([]Breakpoint(nil), points...)}, nil
}

// NewConstantProfile returns a profile holding value for the whole day.
func NewConstantProfile(name string, value float64) *DayProfile {
	return &DayProfile{Name: name, points: []Breakpoint{{Until: EndOfDay, Value: value}}}
}

// FromValues collapses a fixed-step value array into the minimal breakpoint
// list. values must hold 24*stepsPerHour entries.
func FromValues(name string, values []float64, stepsPerHour int) (*DayProfile, error) {
	if stepsPerHour <= 0 || 60%stepsPerHour != 0 {
		return nil, fmt.Errorf("%w: %d steps per hour does not divide the hour", ErrMalformedProfile, stepsPerHour)
	}
	if len(values) != 24*stepsPerHour {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrMalformedProfile, 24*stepsPerHour, len(values))
	}
	step := time.Hour / time.Duration(stepsPerHour)
	var points []Breakpoint
	for i, v := range values {
		if i+1 < len(values) && values[i+1] == v {
			continue
		}
		points = append(points, Breakpoint{Until: step * time.Duration(i+1), Value: v})
	}
	return NewDayProfile(name, points)
}

func checkBreakpoints(points []Breakpoint) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: no breakpoints", ErrMalformedProfile)
	}
	var prev time.Duration
	for i, p := range points {
		if p.Until <= prev {
			return fmt.Errorf("%w: breakpoint %d at %s is not after %s", ErrMalformedProfile, i, FormatTime(p.Until), FormatTime(prev))
		}
		if p.Until > EndOfDay {
			return fmt.Errorf("%w: breakpoint %d at %s is past 24:00", ErrMalformedProfile, i, FormatTime(p.Until))
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("%w: breakpoint %d has non-finite value", ErrMalformedProfile, i)
		}
		prev = p.Until
	}
	if prev != EndOfDay {
		return fmt.Errorf("%w: missing terminal breakpoint at 24:00", ErrMalformedProfile)
	}
	return nil
}

// Breakpoints returns a copy of the profile breakpoints.
func (p *DayProfile) Breakpoints() []Breakpoint {
	return append([]Breakpoint(nil), p.points...)
}

// Len returns the number of breakpoints.
func (p *DayProfile) Len() int { return len(p.points) }

// SetBreakpoints replaces the breakpoints after validating them.
func (p *DayProfile) SetBreakpoints(points []Breakpoint) error {
	if err := checkBreakpoints(points); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	p.points = append(p.points[:0:0], points...)
	return nil
}

// Intervals returns the constant segments of the profile in time order.
func (p *DayProfile) Intervals() []Interval {
	out := make([]Interval, len(p.points))
	var start time.Duration
	for i, bp := range p.points {
		out[i] = Interval{Start: start, End: bp.Until, Value: bp.Value}
		start = bp.Until
	}
	return out
}

// ValueAt returns the value of the interval containing t. Intervals are
// half-open, so a breakpoint time belongs to the following interval; 24:00
// returns the last value.
func (p *DayProfile) ValueAt(t time.Duration) float64 {
	for _, bp := range p.points {
		if t < bp.Until {
			return bp.Value
		}
	}
	return p.points[len(p.points)-1].Value
}

// Integrate returns the time integral of the profile over [from, to) in
// value-hours.
func (p *DayProfile) Integrate(from, to time.Duration) float64 {
	from = clampTime(from)
	to = clampTime(to)
	if to <= from {
		return 0
	}
	var sum float64
	var start time.Duration
	for _, bp := range p.points {
		lo, hi := start, bp.Until
		start = bp.Until
		if hi <= from {
			continue
		}
		if lo >= to {
			break
		}
		if lo < from {
			lo = from
		}
		if hi > to {
			hi = to
		}
		sum += bp.Value * (hi - lo).Hours()
	}
	return sum
}

// Integral returns the integral over the whole day in value-hours.
func (p *DayProfile) Integral() float64 { return p.Integrate(0, EndOfDay) }

// Average returns the time-weighted average over [from, to).
func (p *DayProfile) Average(from, to time.Duration) float64 {
	if to <= from {
		return p.ValueAt(from)
	}
	return p.Integrate(from, to) / (to - from).Hours()
}

// MinMax returns the smallest and largest value of the profile.
func (p *DayProfile) MinMax() (float64, float64) {
	lo, hi := p.points[0].Value, p.points[0].Value
	for _, bp := range p.points[1:] {
		lo = math.Min(lo, bp.Value)
		hi = math.Max(hi, bp.Value)
	}
	return lo, hi
}

// Scale multiplies every value by mult. Values below floor are left as is,
// which keeps off baselines from being amplified.
func (p *DayProfile) Scale(mult float64, floor *float64) {
	for i := range p.points {
		if floor != nil && p.points[i].Value < *floor {
			continue
		}
		p.points[i].Value = RoundValue(p.points[i].Value * mult)
	}
}

// Invert mirrors every value inside [lower, upper]: v' = upper + lower - v.
// Inverting again with the same bounds restores the previous values exactly,
// including values whose float complement is not exact.
func (p *DayProfile) Invert(lower, upper float64) {
	sum := upper + lower
	before := p.values()
	if p.mirrorTo != nil && p.mirrorSum == sum && floats.Equal(before, p.mirrorTo) {
		for i := range p.points {
			p.points[i].Value = p.mirrorFrom[i]
		}
	} else {
		for i := range p.points {
			p.points[i].Value = mirrorValue(p.points[i].Value, sum)
		}
	}
	p.mirrorFrom, p.mirrorTo, p.mirrorSum = before, p.values(), sum
}

// mirrorValue keeps decimal values decimal (1-0.9 gives 0.1) and leaves any
// other value unrounded.
func mirrorValue(v, sum float64) float64 {
	if RoundValue(v) == v {
		return RoundValue(sum - v)
	}
	return sum - v
}

func (p *DayProfile) values() []float64 {
	out := make([]float64, len(p.points))
	for i, bp := range p.points {
		out[i] = bp.Value
	}
	return out
}

// MapValues replaces every value with fn(until, value).
func (p *DayProfile) MapValues(fn func(until time.Duration, v float64) float64) {
	for i := range p.points {
		p.points[i].Value = fn(p.points[i].Until, p.points[i].Value)
	}
}

// SplitAt inserts breakpoints at the given times without changing the
// function the profile describes.
func (p *DayProfile) SplitAt(times ...time.Duration) {
	for _, t := range times {
		if t <= 0 || t >= EndOfDay {
			continue
		}
		var start time.Duration
		for i, bp := range p.points {
			if t == bp.Until {
				break
			}
			if t > start && t < bp.Until {
				p.points = append(p.points, Breakpoint{})
				copy(p.points[i+1:], p.points[i:])
				p.points[i] = Breakpoint{Until: t, Value: bp.Value}
				break
			}
			start = bp.Until
		}
	}
}

// Compact merges consecutive breakpoints holding the same value.
func (p *DayProfile) Compact() {
	out := p.points[:0]
	for i, bp := range p.points {
		if i+1 < len(p.points) && p.points[i+1].Value == bp.Value {
			continue
		}
		out = append(out, bp)
	}
	p.points = out
}

// Clone returns a deep copy.
func (p *DayProfile) Clone() *DayProfile {
	return &DayProfile{
		Name:       p.Name,
		points:     append([]Breakpoint(nil), p.points...),
		mirrorFrom: append([]float64(nil), p.mirrorFrom...),
		mirrorTo:   append([]float64(nil), p.mirrorTo...),
		mirrorSum:  p.mirrorSum,
	}
}

// Equal reports whether both profiles have identical breakpoints.
func (p *DayProfile) Equal(o *DayProfile) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.points) != len(o.points) {
		return false
	}
	for i := range p.points {
		if p.points[i] != o.points[i] {
			return false
		}
	}
	return true
}

// RoundValue rounds v to the precision kept by derived profiles.
func RoundValue(v float64) float64 {
	return math.Round(v*valueScale) / valueScale
}

func clampTime(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if t > EndOfDay {
		return EndOfDay
	}
	return t
}
