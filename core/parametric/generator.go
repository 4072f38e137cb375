package parametric

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/opsched/core/logger"
	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/core/transform"
)

// Metadata keys written by Parametrize.
const (
	MetaPrefix  = "parametric:"
	MetaHours   = MetaPrefix + "hoo"
	metaDefault = MetaPrefix + "default"
	metaRule    = MetaPrefix + "rule:"
)

// ErrNoSchedules is returned when inference has nothing to vote on.
var ErrNoSchedules = errors.New("no schedules to infer hours of operation from")

// Class locates an interval relative to the hours of operation.
type Class string

const (
	BeforeOpen Class = "before_open"
	DuringOpen Class = "during_open"
	AfterClose Class = "after_close"
)

// ClassifiedInterval is a profile interval tagged with its Class.
type ClassifiedInterval struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Value float64 `json:"value"`
	Class Class   `json:"class"`
}

// Descriptor re-expresses one profile relative to its hours of operation.
// Offsets and durations are in hours.
type Descriptor struct {
	Rule           string               `json:"rule"`
	Window         string               `json:"window"`
	OffsetFromOpen float64              `json:"offset_from_open"`
	Duration       float64              `json:"duration"`
	ValueDuring    float64              `json:"value_during"`
	ValueOutside   float64              `json:"value_outside"`
	Intervals      []ClassifiedInterval `json:"intervals"`
}

// Generator infers hours of operation and parametrizes schedules.
type Generator struct {
	// Threshold is the value above which a load counts as active when
	// inferring hours of operation.
	Threshold float64
	log       logger.Logger
}

// New returns a Generator.
func New(threshold float64, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Generator{Threshold: threshold, log: log}
}

// InferHoursOfOperation votes, per weekday, for the active window of the
// governing profile of every schedule on every day of year. The window with
// the most votes over all days becomes the default; weekdays whose own
// majority differs get an override.
func (g *Generator) InferHoursOfOperation(schedules []*schedule.Ruleset, year int) (schedule.HoursOfOperation, error) {
	if len(schedules) == 0 {
		return schedule.HoursOfOperation{}, ErrNoSchedules
	}
	perDay := map[time.Weekday]map[schedule.Window]int{}
	overall := map[schedule.Window]int{}
	for _, rs := range schedules {
		windows := map[*schedule.DayProfile]schedule.Window{}
		schedule.ForEachDay(rs, year, func(_ int, date time.Time, p *schedule.DayProfile) {
			w, ok := windows[p]
			if !ok {
				w = p.ActiveWindow(g.Threshold)
				windows[p] = w
			}
			if w.Closed() {
				w = schedule.Window{}
			}
			wd := date.Weekday()
			if perDay[wd] == nil {
				perDay[wd] = map[schedule.Window]int{}
			}
			perDay[wd][w]++
			overall[w]++
		})
	}
	hoo := schedule.HoursOfOperation{Default: majority(overall), Weekday: map[time.Weekday]schedule.Window{}}
	for wd, votes := range perDay {
		if w := majority(votes); w != hoo.Default {
			hoo.Weekday[wd] = w
		}
	}
	g.log.Infof("inferred hours of operation from %d schedules: %s", len(schedules), hoo)
	return hoo, nil
}

// majority picks the window with most votes; ties prefer open windows, then
// the earliest start, then the longest duration.
func majority(votes map[schedule.Window]int) schedule.Window {
	ws := make([]schedule.Window, 0, len(votes))
	for w := range votes {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if votes[a] != votes[b] {
			return votes[a] > votes[b]
		}
		if a.Closed() != b.Closed() {
			return !a.Closed()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End > b.End
	})
	if len(ws) == 0 {
		return schedule.Window{}
	}
	return ws[0]
}

// Parametrize classifies every profile interval of rs against hoo, stores one
// Descriptor per profile in rs.Metadata and returns them, default first.
// Rules whose weekdays fall under several windows of hoo are split first.
func (g *Generator) Parametrize(rs *schedule.Ruleset, hoo schedule.HoursOfOperation) ([]Descriptor, error) {
	rs.SplitRulesByHours(hoo)
	out := make([]Descriptor, 0, len(rs.Rules)+1)
	d := describe("default", rs.Default, hoo.Default)
	if err := store(rs, metaDefault, d); err != nil {
		return nil, err
	}
	out = append(out, d)
	for i, r := range rs.Rules {
		d := describe(r.Name, r.Profile, hoo.ForDays(r.Days))
		if err := store(rs, metaRule+strconv.Itoa(i), d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	rs.SetMeta(MetaHours, hoo.String())
	g.log.Debugw("schedule parametrized", map[string]any{"schedule": rs.Name, "profiles": len(out)})
	return out, nil
}

func describe(name string, p *schedule.DayProfile, w schedule.Window) Descriptor {
	baseline, _ := p.MinMax()
	d := Descriptor{Rule: name, Window: w.String(), ValueDuring: baseline, ValueOutside: baseline}
	open, shut := w.Start, w.End
	var wrap time.Duration
	if shut > schedule.EndOfDay {
		wrap = min(shut-schedule.EndOfDay, open)
		shut = schedule.EndOfDay
	}
	for _, iv := range p.Intervals() {
		class := DuringOpen
		switch {
		case w.Closed():
			class = AfterClose
		case iv.Start < wrap:
			// part of the window carried past midnight
		case iv.Start >= shut:
			class = AfterClose
		case iv.End <= open:
			class = BeforeOpen
		}
		d.Intervals = append(d.Intervals, ClassifiedInterval{
			Start: schedule.FormatTime(iv.Start),
			End:   schedule.FormatTime(iv.End),
			Value: iv.Value,
			Class: class,
		})
	}
	active := p.ActiveSpan(baseline)
	if active.Closed() {
		return d
	}
	d.OffsetFromOpen = (active.Start - open).Hours()
	d.Duration = (active.End - active.Start).Hours()
	integral := p.Integrate(active.Start, active.End)
	if active.End > schedule.EndOfDay {
		integral += p.Integrate(0, active.End-schedule.EndOfDay)
	}
	d.ValueDuring = schedule.RoundValue(integral / d.Duration)
	return d
}

func store(rs *schedule.Ruleset, key string, d Descriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode descriptor %s: %w", key, err)
	}
	rs.SetMeta(key, string(b))
	return nil
}

// Descriptors decodes the descriptors stored on rs keyed by rule index, with
// DefaultIndex for the default profile. Profiles without a stored descriptor
// are skipped.
func Descriptors(rs *schedule.Ruleset) (map[int]Descriptor, error) {
	out := map[int]Descriptor{}
	load := func(idx int, key string) error {
		raw, ok := rs.Meta(key)
		if !ok {
			return nil
		}
		var d Descriptor
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return fmt.Errorf("decode descriptor %s: %w", key, err)
		}
		out[idx] = d
		return nil
	}
	if err := load(schedule.DefaultIndex, metaDefault); err != nil {
		return nil, err
	}
	for i := range rs.Rules {
		if err := load(i, metaRule+strconv.Itoa(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Regenerate rebuilds every profile of rs that carries a descriptor under the
// new hours of operation: ValueDuring for Duration hours starting
// OffsetFromOpen after opening, ValueOutside elsewhere. Rules spanning
// several windows of hoo are split and each copy keeps the descriptor of its
// original. It returns the number of profiles rebuilt.
func (g *Generator) Regenerate(rs *schedule.Ruleset, hoo schedule.HoursOfOperation) (int, error) {
	descs, err := Descriptors(rs)
	if err != nil {
		return 0, err
	}
	origin := rs.SplitRulesByHours(hoo)
	n := 0
	for idx := schedule.DefaultIndex; idx < len(rs.Rules); idx++ {
		src, w := idx, hoo.Default
		if idx != schedule.DefaultIndex {
			src, w = origin[idx], hoo.ForDays(rs.Rules[idx].Days)
		}
		d, ok := descs[src]
		if !ok {
			g.log.Warnf("schedule %s: no parametric descriptor for profile %d", rs.Name, src)
			continue
		}
		if err := rebuild(rs.ProfileAt(idx), d, w); err != nil {
			return n, err
		}
		if idx != schedule.DefaultIndex && idx != src {
			if err := store(rs, metaRule+strconv.Itoa(idx), d); err != nil {
				return n, err
			}
		}
		n++
	}
	rs.SetMeta(MetaHours, hoo.String())
	return n, nil
}

func rebuild(p *schedule.DayProfile, d Descriptor, w schedule.Window) error {
	var windows []schedule.Window
	if d.Duration > 0 && !w.Closed() {
		start := w.Start + time.Duration(d.OffsetFromOpen*float64(time.Hour))
		for start < 0 {
			start += schedule.EndOfDay
		}
		start %= schedule.EndOfDay
		dur := time.Duration(d.Duration * float64(time.Hour)).Round(time.Second)
		windows = append(windows, schedule.Window{Start: start, End: start + dur})
	}
	if err := transform.SetHoursOfOperation(p, windows...); err != nil {
		return err
	}
	p.MapValues(func(_ time.Duration, v float64) float64 {
		if v > 0 {
			return d.ValueDuring
		}
		return d.ValueOutside
	})
	p.Compact()
	return nil
}

// Result is the outcome of Run.
type Result struct {
	Hours       schedule.HoursOfOperation
	HoursRules  *schedule.Ruleset
	Descriptors map[string][]Descriptor
}

// Run infers hours of operation from schedules, builds the matching on/off
// ruleset and parametrizes every schedule against it.
func (g *Generator) Run(name string, schedules []*schedule.Ruleset, year int) (Result, error) {
	hoo, err := g.InferHoursOfOperation(schedules, year)
	if err != nil {
		return Result{}, err
	}
	hrs, err := transform.HoursOfOperationRuleset(name, hoo)
	if err != nil {
		return Result{}, err
	}
	res := Result{Hours: hoo, HoursRules: hrs, Descriptors: map[string][]Descriptor{}}
	for _, rs := range schedules {
		descs, err := g.Parametrize(rs, hoo)
		if err != nil {
			return Result{}, err
		}
		rs.SetMeta(MetaPrefix+"hoo_schedule", name)
		res.Descriptors[rs.Name] = descs
	}
	return res, nil
}
