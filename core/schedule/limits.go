package schedule

import "math"

// NumericType tells whether a schedule value is continuous or discrete.
type NumericType string

const (
	Continuous NumericType = "Continuous"
	Discrete   NumericType = "Discrete"
)

// Preset names of the value type limits taxonomy.
const (
	PresetDimensionless = "Dimensionless"
	PresetTemperature   = "Temperature"
	PresetHumidityRatio = "Humidity Ratio"
	PresetFraction      = "Fraction"
	PresetOnOff         = "OnOff"
	PresetActivity      = "Activity"
)

// ValueTypeLimits bounds the values a ruleset may hold. Nil bounds are open.
type ValueTypeLimits struct {
	Name     string      `json:"name" yaml:"name"`
	Lower    *float64    `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper    *float64    `json:"upper,omitempty" yaml:"upper,omitempty"`
	Numeric  NumericType `json:"numeric_type" yaml:"numeric_type"`
	UnitType string      `json:"unit_type" yaml:"unit_type"`
}

func bound(v float64) *float64 { return &v }

// LimitsFor returns a fresh copy of the named preset.
func LimitsFor(preset string) (*ValueTypeLimits, bool) {
	var l ValueTypeLimits
	switch preset {
	case PresetDimensionless:
		l = ValueTypeLimits{Numeric: Continuous, UnitType: "Dimensionless"}
	case PresetTemperature:
		l = ValueTypeLimits{Lower: bound(-60), Upper: bound(200), Numeric: Continuous, UnitType: "Temperature"}
	case PresetHumidityRatio:
		l = ValueTypeLimits{Lower: bound(0), Upper: bound(0.3), Numeric: Continuous, UnitType: "Dimensionless"}
	case PresetFraction:
		l = ValueTypeLimits{Lower: bound(0), Upper: bound(1), Numeric: Continuous, UnitType: "Dimensionless"}
	case PresetOnOff:
		l = ValueTypeLimits{Lower: bound(0), Upper: bound(1), Numeric: Discrete, UnitType: "Availability"}
	case PresetActivity:
		l = ValueTypeLimits{Lower: bound(0), Numeric: Continuous, UnitType: "ActivityLevel"}
	default:
		return nil, false
	}
	l.Name = preset
	return &l, true
}

// Clamp forces v into the bounds. Discrete limits also round to the nearest
// integer. A nil receiver returns v unchanged.
func (l *ValueTypeLimits) Clamp(v float64) float64 {
	if l == nil {
		return v
	}
	if l.Numeric == Discrete {
		v = math.Round(v)
	}
	if l.Lower != nil && v < *l.Lower {
		v = *l.Lower
	}
	if l.Upper != nil && v > *l.Upper {
		v = *l.Upper
	}
	return v
}

// Bounds returns both bounds when the limits are closed on each side.
func (l *ValueTypeLimits) Bounds() (lower, upper float64, ok bool) {
	if l == nil || l.Lower == nil || l.Upper == nil {
		return 0, 0, false
	}
	return *l.Lower, *l.Upper, true
}

// Clone returns a deep copy.
func (l *ValueTypeLimits) Clone() *ValueTypeLimits {
	if l == nil {
		return nil
	}
	c := *l
	if l.Lower != nil {
		c.Lower = bound(*l.Lower)
	}
	if l.Upper != nil {
		c.Upper = bound(*l.Upper)
	}
	return &c
}
