package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DesignDay selects one of the sizing-only profiles of a ruleset.
type DesignDay int

const (
	WinterDesignDay DesignDay = iota + 1
	SummerDesignDay
)

func (d DesignDay) String() string {
	switch d {
	case WinterDesignDay:
		return "winter"
	case SummerDesignDay:
		return "summer"
	}
	return "unknown"
}

// ParseDesignDay accepts "winter"/"WntrDsn" and "summer"/"SmrDsn".
func ParseDesignDay(s string) (DesignDay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winter", "wntrdsn":
		return WinterDesignDay, nil
	case "summer", "smrdsn":
		return SummerDesignDay, nil
	}
	return 0, fmt.Errorf("unknown design day %q", s)
}

// Rule applies its profile to the days inside Dates whose weekday is in Days.
type Rule struct {
	Name    string
	Profile *DayProfile
	Dates   DateRange
	Days    WeekdaySet
}

// NewRule checks the rule applicability and takes ownership of p.
func NewRule(name string, p *DayProfile, dates DateRange, days WeekdaySet) (*Rule, error) {
	if p == nil {
		return nil, fmt.Errorf("rule %q: %w: nil profile", name, ErrMalformedProfile)
	}
	if !dates.Valid() {
		return nil, fmt.Errorf("rule %q: %w: %s", name, ErrInvalidDate, dates)
	}
	if days.Empty() {
		return nil, fmt.Errorf("rule %q: empty weekday set", name)
	}
	return &Rule{Name: name, Profile: p, Dates: dates, Days: days}, nil
}

// Applies reports whether the rule covers the given day.
func (r *Rule) Applies(md MonthDay, wd time.Weekday) bool {
	return r.Days.Has(wd) && r.Dates.Contains(md)
}

// Clone returns a deep copy of the rule and its profile.
func (r *Rule) Clone() *Rule {
	c := *r
	c.Profile = r.Profile.Clone()
	return &c
}

// Ruleset is a named annual schedule: a default profile, optional design day
// profiles and an ordered rule list where the position is the priority.
type Ruleset struct {
	Name         string
	Default      *DayProfile
	WinterDesign *DayProfile
	SummerDesign *DayProfile
	Rules        []*Rule
	Limits       *ValueTypeLimits
	// Metadata annotates the schedule, e.g. with parametric descriptors.
	Metadata map[string]string
}

// NewRuleset creates a ruleset owning def as its default profile.
func NewRuleset(name string, def *DayProfile) (*Ruleset, error) {
	if def == nil {
		return nil, fmt.Errorf("ruleset %q: %w", name, ErrMissingDefault)
	}
	return &Ruleset{Name: name, Default: def, Metadata: map[string]string{}}, nil
}

// AddRule appends r with the lowest priority so far and returns its index.
func (rs *Ruleset) AddRule(r *Rule) int {
	rs.Rules = append(rs.Rules, r)
	return len(rs.Rules) - 1
}

// ProfileAt returns the profile for a rule index or the default profile for
// DefaultIndex. Unknown indices return nil.
func (rs *Ruleset) ProfileAt(index int) *DayProfile {
	if index == DefaultIndex {
		return rs.Default
	}
	if index < 0 || index >= len(rs.Rules) {
		return nil
	}
	return rs.Rules[index].Profile
}

// DesignDayProfile returns the requested design day profile if present.
func (rs *Ruleset) DesignDayProfile(d DesignDay) (*DayProfile, bool) {
	var p *DayProfile
	switch d {
	case WinterDesignDay:
		p = rs.WinterDesign
	case SummerDesignDay:
		p = rs.SummerDesign
	}
	return p, p != nil
}

// Profiles returns the default profile followed by the rule profiles. Design
// day profiles are appended when includeDesign is set.
func (rs *Ruleset) Profiles(includeDesign bool) []*DayProfile {
	out := []*DayProfile{rs.Default}
	if includeDesign {
		if rs.WinterDesign != nil {
			out = append(out, rs.WinterDesign)
		}
		if rs.SummerDesign != nil {
			out = append(out, rs.SummerDesign)
		}
	}
	for _, r := range rs.Rules {
		out = append(out, r.Profile)
	}
	return out
}

// Clamp forces every profile value into the ruleset limits.
func (rs *Ruleset) Clamp() {
	if rs.Limits == nil {
		return
	}
	for _, p := range rs.Profiles(true) {
		p.MapValues(func(_ time.Duration, v float64) float64 { return rs.Limits.Clamp(v) })
	}
}

// SetMeta stores a metadata annotation.
func (rs *Ruleset) SetMeta(key, value string) {
	if rs.Metadata == nil {
		rs.Metadata = map[string]string{}
	}
	rs.Metadata[key] = value
}

// Meta returns a metadata annotation.
func (rs *Ruleset) Meta(key string) (string, bool) {
	v, ok := rs.Metadata[key]
	return v, ok
}

// Clone returns a deep copy sharing no profile with rs.
func (rs *Ruleset) Clone() *Ruleset {
	c := &Ruleset{
		Name:     rs.Name,
		Default:  rs.Default.Clone(),
		Limits:   rs.Limits.Clone(),
		Metadata: make(map[string]string, len(rs.Metadata)),
	}
	if rs.WinterDesign != nil {
		c.WinterDesign = rs.WinterDesign.Clone()
	}
	if rs.SummerDesign != nil {
		c.SummerDesign = rs.SummerDesign.Clone()
	}
	for _, r := range rs.Rules {
		c.Rules = append(c.Rules, r.Clone())
	}
	for k, v := range rs.Metadata {
		c.Metadata[k] = v
	}
	return c
}
