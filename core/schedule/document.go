package schedule

import "fmt"

// BreakpointDoc is the serialized form of a breakpoint, with the time of day
// written as HH:MM.
type BreakpointDoc struct {
	Until string  `json:"until" yaml:"until"`
	Value float64 `json:"value" yaml:"value"`
}

// RuleDoc is the serialized form of a rule.
type RuleDoc struct {
	Name    string          `json:"name" yaml:"name"`
	Start   string          `json:"start" yaml:"start"`
	End     string          `json:"end" yaml:"end"`
	Days    string          `json:"days" yaml:"days"`
	Profile []BreakpointDoc `json:"profile" yaml:"profile"`
}

// Document is the file and storage representation of a ruleset.
type Document struct {
	Name string `json:"name" yaml:"name"`
	// Preset names a value type limits preset; Limits wins when both are set.
	Preset       string            `json:"preset,omitempty" yaml:"preset,omitempty"`
	Limits       *ValueTypeLimits  `json:"limits,omitempty" yaml:"limits,omitempty"`
	Default      []BreakpointDoc   `json:"default" yaml:"default"`
	WinterDesign []BreakpointDoc   `json:"winter_design,omitempty" yaml:"winter_design,omitempty"`
	SummerDesign []BreakpointDoc   `json:"summer_design,omitempty" yaml:"summer_design,omitempty"`
	Rules        []RuleDoc         `json:"rules,omitempty" yaml:"rules,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Document converts the ruleset into its serialized form.
func (rs *Ruleset) Document() Document {
	d := Document{
		Name:     rs.Name,
		Limits:   rs.Limits.Clone(),
		Default:  encodeProfile(rs.Default),
		Metadata: rs.Metadata,
	}
	if rs.WinterDesign != nil {
		d.WinterDesign = encodeProfile(rs.WinterDesign)
	}
	if rs.SummerDesign != nil {
		d.SummerDesign = encodeProfile(rs.SummerDesign)
	}
	for _, r := range rs.Rules {
		d.Rules = append(d.Rules, RuleDoc{
			Name:    r.Name,
			Start:   r.Dates.Start.String(),
			End:     r.Dates.End.String(),
			Days:    r.Days.String(),
			Profile: encodeProfile(r.Profile),
		})
	}
	return d
}

// Ruleset builds and validates the ruleset described by d.
func (d Document) Ruleset() (*Ruleset, error) {
	def, err := decodeProfile(d.Name+" Default", d.Default)
	if err != nil {
		return nil, err
	}
	rs, err := NewRuleset(d.Name, def)
	if err != nil {
		return nil, err
	}
	if len(d.WinterDesign) > 0 {
		if rs.WinterDesign, err = decodeProfile(d.Name+" Winter Design Day", d.WinterDesign); err != nil {
			return nil, err
		}
	}
	if len(d.SummerDesign) > 0 {
		if rs.SummerDesign, err = decodeProfile(d.Name+" Summer Design Day", d.SummerDesign); err != nil {
			return nil, err
		}
	}
	switch {
	case d.Limits != nil:
		rs.Limits = d.Limits.Clone()
	case d.Preset != "":
		l, ok := LimitsFor(d.Preset)
		if !ok {
			return nil, fmt.Errorf("ruleset %q: unknown limits preset %q", d.Name, d.Preset)
		}
		rs.Limits = l
	}
	for _, rd := range d.Rules {
		r, err := rd.rule()
		if err != nil {
			return nil, fmt.Errorf("ruleset %q: %w", d.Name, err)
		}
		rs.AddRule(r)
	}
	for k, v := range d.Metadata {
		rs.SetMeta(k, v)
	}
	return rs, nil
}

func (rd RuleDoc) rule() (*Rule, error) {
	dates := FullYear()
	var err error
	if rd.Start != "" {
		if dates.Start, err = ParseMonthDay(rd.Start); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
		}
	}
	if rd.End != "" {
		if dates.End, err = ParseMonthDay(rd.End); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
		}
	}
	days, err := ParseWeekdaySet(rd.Days)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rd.Name, err)
	}
	p, err := decodeProfile(rd.Name, rd.Profile)
	if err != nil {
		return nil, err
	}
	return NewRule(rd.Name, p, dates, days)
}

func encodeProfile(p *DayProfile) []BreakpointDoc {
	out := make([]BreakpointDoc, 0, p.Len())
	for _, bp := range p.points {
		out = append(out, BreakpointDoc{Until: FormatTime(bp.Until), Value: bp.Value})
	}
	return out
}

func decodeProfile(name string, docs []BreakpointDoc) (*DayProfile, error) {
	points := make([]Breakpoint, 0, len(docs))
	for _, bd := range docs {
		t, err := ParseTime(bd.Until)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w: %v", name, ErrMalformedProfile, err)
		}
		points = append(points, Breakpoint{Until: t, Value: bd.Value})
	}
	return NewDayProfile(name, points)
}
