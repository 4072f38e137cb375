package transform

import (
	"errors"
	"fmt"

	"github.com/kilianp07/opsched/core/schedule"
)

var (
	// ErrEmptyMerge is returned when WeightedMerge receives no input.
	ErrEmptyMerge = errors.New("nothing to merge")
	// ErrUnknownMode is returned for an unsupported adjustment mode.
	ErrUnknownMode = errors.New("unknown adjustment mode")
)

// ConstantOptions tunes Constant.
type ConstantOptions struct {
	Limits *schedule.ValueTypeLimits
	// DesignDays also fills the winter and summer design day slots.
	DesignDays bool
}

// Constant returns a ruleset holding value all year.
func Constant(name string, value float64, opts ConstantOptions) (*schedule.Ruleset, error) {
	pts := []schedule.Breakpoint{{Until: schedule.EndOfDay, Value: value}}
	def, err := schedule.NewDayProfile(name+" Default", pts)
	if err != nil {
		return nil, err
	}
	rs, err := schedule.NewRuleset(name, def)
	if err != nil {
		return nil, err
	}
	if opts.DesignDays {
		rs.WinterDesign = schedule.NewConstantProfile(name+" Winter Design Day", value)
		rs.SummerDesign = schedule.NewConstantProfile(name+" Summer Design Day", value)
	}
	rs.Limits = opts.Limits.Clone()
	return rs, nil
}

// SimpleSpec holds one breakpoint list per slot. Empty design day lists leave
// the slot unset.
type SimpleSpec struct {
	Winter  []schedule.Breakpoint
	Summer  []schedule.Breakpoint
	Default []schedule.Breakpoint
	Limits  *schedule.ValueTypeLimits
}

// Simple builds a ruleset without rules.
func Simple(name string, spec SimpleSpec) (*schedule.Ruleset, error) {
	def, err := schedule.NewDayProfile(name+" Default", spec.Default)
	if err != nil {
		return nil, err
	}
	rs, err := schedule.NewRuleset(name, def)
	if err != nil {
		return nil, err
	}
	if len(spec.Winter) > 0 {
		if rs.WinterDesign, err = schedule.NewDayProfile(name+" Winter Design Day", spec.Winter); err != nil {
			return nil, err
		}
	}
	if len(spec.Summer) > 0 {
		if rs.SummerDesign, err = schedule.NewDayProfile(name+" Summer Design Day", spec.Summer); err != nil {
			return nil, err
		}
	}
	rs.Limits = spec.Limits.Clone()
	return rs, nil
}

// RuleSpec describes one rule of a complex ruleset.
type RuleSpec struct {
	Name        string
	Dates       schedule.DateRange
	Days        schedule.WeekdaySet
	Breakpoints []schedule.Breakpoint
}

// ComplexSpec is a SimpleSpec plus rules, appended in the given order, which
// is also their priority.
type ComplexSpec struct {
	SimpleSpec
	Rules []RuleSpec
	// Strict rejects rulesets where a rule overlaps an earlier one.
	Strict bool
}

// Complex builds a ruleset with explicit rules.
func Complex(name string, spec ComplexSpec) (*schedule.Ruleset, error) {
	rs, err := Simple(name, spec.SimpleSpec)
	if err != nil {
		return nil, err
	}
	for _, r := range spec.Rules {
		p, err := schedule.NewDayProfile(r.Name, r.Breakpoints)
		if err != nil {
			return nil, fmt.Errorf("ruleset %q: %w", name, err)
		}
		rule, err := schedule.NewRule(r.Name, p, r.Dates, r.Days)
		if err != nil {
			return nil, fmt.Errorf("ruleset %q: %w", name, err)
		}
		rs.AddRule(rule)
	}
	if spec.Strict {
		if err := rs.ValidateStrict(); err != nil {
			return nil, err
		}
	}
	return rs, nil
}
