package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/opsched/core/schedule"
)

// EngineConfig holds the calendar and analysis settings.
type EngineConfig struct {
	// Year is the reference calendar year. Zero means the current year.
	Year int `json:"year"`
	// RunBegin and RunEnd bound the run period as M/D; both empty means the whole year.
	RunBegin string `json:"run_begin"`
	RunEnd   string `json:"run_end"`
	// Threshold separates "on" from "off" values in hours-of-operation inference
	// and hours-above counts.
	Threshold    float64 `json:"threshold"`
	StepsPerHour int     `json:"steps_per_hour"`
	// Strict turns rule overlaps into errors.
	Strict bool `json:"strict"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.Year == 0 {
		c.Year = time.Now().Year()
	}
	if c.Threshold == 0 {
		c.Threshold = 0.05
	}
	if c.StepsPerHour == 0 {
		c.StepsPerHour = 1
	}
}

// Validate checks ranges and the run period.
func (c EngineConfig) Validate() error {
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("year %d out of range", c.Year)
	}
	if c.StepsPerHour < 1 || 60%c.StepsPerHour != 0 {
		return fmt.Errorf("steps_per_hour %d must divide 60", c.StepsPerHour)
	}
	if c.Threshold < 0 {
		return errors.New("threshold must not be negative")
	}
	_, err := c.RunPeriod()
	return err
}

// RunPeriod parses the run period bounds. It returns nil when none is set.
func (c EngineConfig) RunPeriod() (*schedule.RunPeriod, error) {
	if c.RunBegin == "" && c.RunEnd == "" {
		return nil, nil
	}
	if c.RunBegin == "" || c.RunEnd == "" {
		return nil, errors.New("run_begin and run_end must be set together")
	}
	begin, err := schedule.ParseMonthDay(c.RunBegin)
	if err != nil {
		return nil, fmt.Errorf("run_begin: %w", err)
	}
	end, err := schedule.ParseMonthDay(c.RunEnd)
	if err != nil {
		return nil, fmt.Errorf("run_end: %w", err)
	}
	return &schedule.RunPeriod{Begin: begin, End: end}, nil
}

// Calendar returns the calendar context described by the section. Call it
// on a validated config.
func (c EngineConfig) Calendar() schedule.CalendarContext {
	rp, _ := c.RunPeriod()
	return schedule.CalendarContext{Year: c.Year, RunPeriod: rp}
}

// StandardsConfig points at an optional standards dataset.
type StandardsConfig struct {
	Path string `json:"path"`
}
