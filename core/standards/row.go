package standards

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

// ErrInvalidRow is returned for rows that cannot describe a day profile.
var ErrInvalidRow = errors.New("invalid schedule row")

// DayType tags the days a row applies to.
type DayType string

const (
	DayDefault DayType = "Default"
	DayWinter  DayType = "WntrDsn"
	DaySummer  DayType = "SmrDsn"
	DayWkdy    DayType = "Wkdy"
	DayWknd    DayType = "Wknd"
	DayMon     DayType = "Mon"
	DayTue     DayType = "Tue"
	DayWed     DayType = "Wed"
	DayThu     DayType = "Thu"
	DayFri     DayType = "Fri"
	DaySat     DayType = "Sat"
	DaySun     DayType = "Sun"
)

var weekdayOf = map[DayType]schedule.WeekdaySet{
	DayWkdy: schedule.Weekdays,
	DayWknd: schedule.Weekend,
	DayMon:  schedule.NewWeekdaySet(time.Monday),
	DayTue:  schedule.NewWeekdaySet(time.Tuesday),
	DayWed:  schedule.NewWeekdaySet(time.Wednesday),
	DayThu:  schedule.NewWeekdaySet(time.Thursday),
	DayFri:  schedule.NewWeekdaySet(time.Friday),
	DaySat:  schedule.NewWeekdaySet(time.Saturday),
	DaySun:  schedule.NewWeekdaySet(time.Sunday),
}

// ValueKind tells how Values is read.
type ValueKind string

const (
	// Constant rows hold a single value for the whole day.
	Constant ValueKind = "Constant"
	// Hourly rows hold 24 values, one per clock hour.
	Hourly ValueKind = "Hourly"
)

// Row is one day profile of a named schedule.
type Row struct {
	Name     string    `json:"name" yaml:"name"`
	Category string    `json:"category" yaml:"category"`
	Preset   string    `json:"units" yaml:"units"`
	DayTypes string    `json:"day_types" yaml:"day_types"`
	Start    string    `json:"start_date" yaml:"start_date"`
	End      string    `json:"end_date" yaml:"end_date"`
	Type     ValueKind `json:"type" yaml:"type"`
	Values   []float64 `json:"values" yaml:"values"`
}

// Days splits the pipe or comma separated day types.
func (r Row) Days() ([]DayType, error) {
	fields := strings.FieldsFunc(r.DayTypes, func(c rune) bool { return c == '|' || c == ',' })
	out := make([]DayType, 0, len(fields))
	for _, f := range fields {
		dt := DayType(strings.TrimSpace(f))
		switch dt {
		case DayDefault, DayWinter, DaySummer:
		default:
			if _, ok := weekdayOf[dt]; !ok {
				return nil, fmt.Errorf("%w: %s: unknown day type %q", ErrInvalidRow, r.Name, dt)
			}
		}
		out = append(out, dt)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s: no day types", ErrInvalidRow, r.Name)
	}
	return out, nil
}

// Dates returns the row date range, defaulting to the full year.
func (r Row) Dates() (schedule.DateRange, error) {
	dates := schedule.FullYear()
	var err error
	if r.Start != "" {
		if dates.Start, err = schedule.ParseMonthDay(r.Start); err != nil {
			return dates, fmt.Errorf("%w: %s: %v", ErrInvalidRow, r.Name, err)
		}
	}
	if r.End != "" {
		if dates.End, err = schedule.ParseMonthDay(r.End); err != nil {
			return dates, fmt.Errorf("%w: %s: %v", ErrInvalidRow, r.Name, err)
		}
	}
	return dates, nil
}

// Profile builds the day profile of the row.
func (r Row) Profile(name string) (*schedule.DayProfile, error) {
	switch r.Type {
	case Constant:
		if len(r.Values) == 0 {
			return nil, fmt.Errorf("%w: %s: constant row without value", ErrInvalidRow, r.Name)
		}
		return schedule.NewDayProfile(name, []schedule.Breakpoint{{Until: schedule.EndOfDay, Value: r.Values[0]}})
	case Hourly:
		if len(r.Values) != 24 {
			return nil, fmt.Errorf("%w: %s: hourly row has %d values", ErrInvalidRow, r.Name, len(r.Values))
		}
		return schedule.FromValues(name, r.Values, 1)
	}
	return nil, fmt.Errorf("%w: %s: unknown type %q", ErrInvalidRow, r.Name, r.Type)
}

// Validate checks that the row can be turned into a profile.
func (r Row) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRow)
	}
	if _, err := r.Days(); err != nil {
		return err
	}
	if _, err := r.Dates(); err != nil {
		return err
	}
	_, err := r.Profile(r.Name)
	return err
}

// FromRows builds a ruleset from the rows of one schedule, in order. Every
// slot and rule receives its own profile.
func FromRows(name string, rows []Row) (*schedule.Ruleset, error) {
	var (
		def, winter, summer *schedule.DayProfile
		rules               []*schedule.Rule
		preset              string
	)
	for _, row := range rows {
		days, err := row.Days()
		if err != nil {
			return nil, err
		}
		dates, err := row.Dates()
		if err != nil {
			return nil, err
		}
		if preset == "" {
			preset = row.Preset
		}
		var set schedule.WeekdaySet
		for _, dt := range days {
			switch dt {
			case DayDefault:
				if def == nil {
					if def, err = row.Profile(name + " Default"); err != nil {
						return nil, err
					}
				}
			case DayWinter:
				if winter, err = row.Profile(name + " Winter Design Day"); err != nil {
					return nil, err
				}
			case DaySummer:
				if summer, err = row.Profile(name + " Summer Design Day"); err != nil {
					return nil, err
				}
			default:
				set |= weekdayOf[dt]
			}
		}
		if set.Empty() {
			continue
		}
		ruleName := fmt.Sprintf("%s %s %s", name, set, dates)
		p, err := row.Profile(ruleName)
		if err != nil {
			return nil, err
		}
		r, err := schedule.NewRule(ruleName, p, dates, set)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	rs, err := schedule.NewRuleset(name, def)
	if err != nil {
		return nil, err
	}
	rs.WinterDesign, rs.SummerDesign = winter, summer
	rs.Rules = rules
	if preset != "" {
		l, ok := schedule.LimitsFor(preset)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown units %q", ErrInvalidRow, name, preset)
		}
		rs.Limits = l
	}
	rs.SetMeta("standards:rows", fmt.Sprint(len(rows)))
	return rs, nil
}
