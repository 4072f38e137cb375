package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// leapReference is used wherever a year-independent walk over every month/day
// (including 2/29) is needed.
const leapReference = 2024

// MonthDay is a calendar date without a year.
type MonthDay struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

var (
	// FirstDay is January 1st.
	FirstDay = MonthDay{Month: time.January, Day: 1}
	// LastDay is December 31st.
	LastDay = MonthDay{Month: time.December, Day: 31}
)

// NewMonthDay validates the month/day pair against a leap calendar.
func NewMonthDay(m time.Month, d int) (MonthDay, error) {
	md := MonthDay{Month: m, Day: d}
	if !md.Valid() {
		return MonthDay{}, fmt.Errorf("%w: %d/%d", ErrInvalidDate, m, d)
	}
	return md, nil
}

// MonthDayOf returns the month/day of t.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// ParseMonthDay parses "M/D".
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewMonthDay(time.Month(m), d)
}

// Valid reports whether the date exists in a leap year.
func (md MonthDay) Valid() bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	last := time.Date(leapReference, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return md.Day <= last
}

func (md MonthDay) ordinal() int { return int(md.Month)*32 + md.Day }

// Before reports whether md falls earlier in the year than o.
func (md MonthDay) Before(o MonthDay) bool { return md.ordinal() < o.ordinal() }

// In returns the date in the given year. 2/29 in a common year normalizes
// to 3/1.
func (md MonthDay) In(year int) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
}

func (md MonthDay) String() string { return fmt.Sprintf("%d/%d", int(md.Month), md.Day) }

// DateRange is a recurring month/day range, inclusive on both ends. A range
// whose end precedes its start wraps over the year end.
type DateRange struct {
	Start MonthDay `json:"start"`
	End   MonthDay `json:"end"`
}

// FullYear covers 1/1 through 12/31.
func FullYear() DateRange { return DateRange{Start: FirstDay, End: LastDay} }

// Valid reports whether both ends are real dates.
func (r DateRange) Valid() bool { return r.Start.Valid() && r.End.Valid() }

// Wraps reports whether the range crosses the year end.
func (r DateRange) Wraps() bool { return r.End.Before(r.Start) }

// Contains reports whether md is inside the range.
func (r DateRange) Contains(md MonthDay) bool {
	o := md.ordinal()
	if r.Wraps() {
		return o >= r.Start.ordinal() || o <= r.End.ordinal()
	}
	return o >= r.Start.ordinal() && o <= r.End.ordinal()
}

func (r DateRange) String() string { return r.Start.String() + "-" + r.End.String() }

// WeekdaySet is a bit set of weekdays indexed by time.Weekday.
type WeekdaySet uint8

const (
	// AllWeekdays contains Sunday through Saturday.
	AllWeekdays WeekdaySet = 0x7f
	// Weekdays contains Monday through Friday.
	Weekdays WeekdaySet = 0x3e
	// Weekend contains Saturday and Sunday.
	Weekend WeekdaySet = 0x41
)

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

// Add returns the set with d added.
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet { return s | 1<<uint(d) }

// Empty reports whether no weekday is set.
func (s WeekdaySet) Empty() bool { return s&AllWeekdays == 0 }

// Days lists the members, Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for _, d := range weekOrder {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	switch s & AllWeekdays {
	case AllWeekdays:
		return "AllDays"
	case Weekdays:
		return "Wkdy"
	case Weekend:
		return "Wknd"
	}
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || key == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdaySet parses a comma separated list of day names or one of the
// shorthands AllDays, Wkdy and Wknd.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alldays", "all":
		return AllWeekdays, nil
	case "wkdy", "weekdays":
		return Weekdays, nil
	case "wknd", "weekend":
		return Weekend, nil
	}
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		d, err := ParseWeekday(part)
		if err != nil {
			return 0, err
		}
		set = set.Add(d)
	}
	return set, nil
}

// FormatTime renders a time of day as HH:MM, 24:00 included. Seconds are
// appended only when present.
func FormatTime(t time.Duration) string {
	h := int(t / time.Hour)
	m := int((t % time.Hour) / time.Minute)
	if sec := int((t % time.Minute) / time.Second); sec != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseTime parses "HH:MM" or "HH:MM:SS" into a time of day. Hours up to 48
// are accepted so that windows may run past midnight.
func ParseTime(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		fields[i] = v
	}
	if fields[1] > 59 || fields[2] > 59 || fields[0] > 48 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(fields[0])*time.Hour + time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second, nil
}
