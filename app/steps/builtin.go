package steps

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/opsched/core/factory"
	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/core/transform"
)

func init() {
	_ = Register("multiply", func(conf map[string]any) (Step, error) {
		var c struct {
			Factor float64  `json:"factor"`
			Floor  *float64 `json:"floor"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			transform.MultiplyRulesetByValue(rs, c.Factor, c.Floor)
			return rs, nil
		}, nil
	})

	_ = Register("adjust", func(conf map[string]any) (Step, error) {
		var c struct {
			Delta float64 `json:"delta"`
			Mode  string  `json:"mode"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		mode := transform.AdjustSum
		if strings.EqualFold(c.Mode, string(transform.AdjustMultiply)) {
			mode = transform.AdjustMultiply
		} else if c.Mode != "" && !strings.EqualFold(c.Mode, string(transform.AdjustSum)) {
			return nil, fmt.Errorf("%w: %q", transform.ErrUnknownMode, c.Mode)
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			return rs, transform.SimpleValueAdjust(rs, c.Delta, mode)
		}, nil
	})

	_ = Register("conditional", func(conf map[string]any) (Step, error) {
		var c struct {
			Test    float64 `json:"test"`
			Pass    float64 `json:"pass"`
			Fail    float64 `json:"fail"`
			Floor   float64 `json:"floor"`
			Compare string  `json:"compare"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		cond := transform.Conditional{Test: c.Test, Pass: c.Pass, Fail: c.Fail, Floor: c.Floor}
		switch strings.ToLower(c.Compare) {
		case "", "below":
		case "above":
			cond.Compare = transform.Above
		default:
			return nil, fmt.Errorf("unknown comparison %q", c.Compare)
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			transform.ConditionalAdjustValue(rs, cond)
			return rs, nil
		}, nil
	})

	_ = Register("time_conditional", func(conf map[string]any) (Step, error) {
		var c struct {
			Start   string  `json:"start"`
			End     string  `json:"end"`
			Inside  float64 `json:"inside"`
			Outside float64 `json:"outside"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		start, err := schedule.ParseTime(c.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		end, err := schedule.ParseTime(c.End)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			if err := transform.TimeConditionalAdjustValue(rs, start, end, c.Inside, c.Outside); err != nil {
				return nil, err
			}
			return rs, nil
		}, nil
	})

	_ = Register("invert", func(map[string]any) (Step, error) {
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			return transform.Invert(rs), nil
		}, nil
	})

	_ = Register("rate_of_change", func(map[string]any) (Step, error) {
		return transform.RateOfChange, nil
	})

	_ = Register("align_hours", func(conf map[string]any) (Step, error) {
		hoo, err := decodeHours(conf)
		if err != nil {
			return nil, err
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			_, err := transform.AlignRulesWithHoursOfOperation(rs, hoo)
			return rs, err
		}, nil
	})

	_ = Register("rename", func(conf map[string]any) (Step, error) {
		var c struct {
			Name string `json:"name"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Name == "" {
			return nil, fmt.Errorf("name is required")
		}
		return func(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
			rs.Name = c.Name
			return rs, nil
		}, nil
	})
}

// decodeHours reads {"default": "08:00-18:00", "weekdays": {"Sat": "closed"}}.
func decodeHours(conf map[string]any) (schedule.HoursOfOperation, error) {
	var c struct {
		Default  string            `json:"default"`
		Weekdays map[string]string `json:"weekdays"`
	}
	if err := factory.Decode(conf, &c); err != nil {
		return schedule.HoursOfOperation{}, err
	}
	def, err := schedule.ParseWindow(c.Default)
	if err != nil {
		return schedule.HoursOfOperation{}, err
	}
	hoo := schedule.HoursOfOperation{Default: def, Weekday: map[time.Weekday]schedule.Window{}}
	for day, win := range c.Weekdays {
		wd, err := schedule.ParseWeekday(day)
		if err != nil {
			return schedule.HoursOfOperation{}, err
		}
		w, err := schedule.ParseWindow(win)
		if err != nil {
			return schedule.HoursOfOperation{}, err
		}
		hoo.Weekday[wd] = w
	}
	return hoo, nil
}
