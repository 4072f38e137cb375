// Package app wires the schedule engine to its configuration, logging,
// metrics and storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/opsched/app/steps"
	"github.com/kilianp07/opsched/config"
	"github.com/kilianp07/opsched/core/analysis"
	coremetrics "github.com/kilianp07/opsched/core/metrics"
	"github.com/kilianp07/opsched/core/parametric"
	"github.com/kilianp07/opsched/core/registry"
	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/core/standards"
	"github.com/kilianp07/opsched/core/transform"
	"github.com/kilianp07/opsched/infra/logger"
	_ "github.com/kilianp07/opsched/infra/metrics"
	"github.com/kilianp07/opsched/infra/store"
)

var (
	// ErrUnknownSchedule is returned when a schedule name resolves to nothing.
	ErrUnknownSchedule = errors.New("unknown schedule")
	// ErrNoStandards is returned when no standards dataset is configured.
	ErrNoStandards = errors.New("no standards dataset configured")
	// ErrStoreDisabled is returned by persistence calls without a store.
	ErrStoreDisabled = errors.New("schedule store disabled")
)

// Service holds the engine components for one model.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	Analyzer  *analysis.Analyzer
	Generator *parametric.Generator
	Model     *registry.Model
	Standards *standards.Registry
	Pipeline  *steps.Pipeline
	sink      coremetrics.MetricsSink
	store     *store.SQLiteStore
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, nil); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	pipeline, err := steps.Build(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	svc := &Service{
		cfg:       cfg,
		log:       logg,
		Analyzer:  analysis.New(logger.New("analyzer")),
		Generator: parametric.New(cfg.Engine.Threshold, logger.New("parametric")),
		Model:     registry.NewModel(logger.New("registry")),
		Pipeline:  pipeline,
		sink:      sink,
	}
	if cfg.Standards.Path != "" {
		reg, err := standards.LoadFile(cfg.Standards.Path, logger.New("standards"))
		if err != nil {
			return nil, fmt.Errorf("standards: %w", err)
		}
		svc.Standards = reg
	}
	if cfg.Store.Enabled {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		svc.store = st
	}
	return svc, nil
}

// Calendar returns the configured calendar context.
func (s *Service) Calendar() schedule.CalendarContext { return s.cfg.Engine.Calendar() }

// StepsPerHour returns the configured timestep resolution.
func (s *Service) StepsPerHour() int { return s.cfg.Engine.StepsPerHour }

func (s *Service) observe(op, name string, start time.Time, err error) {
	ev := coremetrics.OperationEvent{Operation: op, Schedule: name, Duration: time.Since(start), Err: err, Time: time.Now()}
	if rerr := s.sink.RecordOperation(ev); rerr != nil {
		s.log.Warnf("record %s: %v", op, rerr)
	}
}

// Register validates rs and adds it to the model. A schedule already
// registered under the same name wins and is returned instead.
func (s *Service) Register(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
	if _, err := s.Validate(rs); err != nil {
		return nil, err
	}
	out, created, err := s.Model.GetOrCreate(rs.Name, func() (*schedule.Ruleset, error) { return rs, nil })
	if err != nil {
		return nil, err
	}
	if !created {
		s.log.Warnf("schedule %s already registered, keeping the existing one", rs.Name)
	}
	return out, nil
}

// LoadFile registers every schedule of a YAML or JSON file.
func (s *Service) LoadFile(path string) (out []*schedule.Ruleset, err error) {
	defer func(start time.Time) { s.observe("load", path, start, err) }(time.Now())
	docs, err := ReadDocuments(path)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		rs, err := d.Ruleset()
		if err != nil {
			return nil, err
		}
		if rs, err = s.Register(rs); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}

// Standard builds and registers a schedule from the standards dataset.
func (s *Service) Standard(name string) (rs *schedule.Ruleset, err error) {
	defer func(start time.Time) { s.observe("standard", name, start, err) }(time.Now())
	if s.Standards == nil {
		return nil, ErrNoStandards
	}
	rs, err = s.Standards.Ruleset(name)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchedule, name)
	}
	return s.Register(rs)
}

// Schedule returns a registered schedule by name.
func (s *Service) Schedule(name string) (*schedule.Ruleset, error) {
	rs, ok := s.Model.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchedule, name)
	}
	return rs, nil
}

// Validate lists the rule overlaps of rs and logs each one. In strict mode
// any overlap is an error.
func (s *Service) Validate(rs *schedule.Ruleset) ([]schedule.Overlap, error) {
	overlaps := rs.Validate()
	for _, o := range overlaps {
		s.log.Warnf("schedule %s: %s", rs.Name, o)
	}
	if s.cfg.Engine.Strict && len(overlaps) > 0 {
		return overlaps, fmt.Errorf("schedule %s: %w", rs.Name, schedule.ErrRuleOverlap)
	}
	return overlaps, nil
}

// Analyze summarizes rs over the configured calendar and records the result.
func (s *Service) Analyze(rs *schedule.Ruleset) analysis.Summary {
	start := time.Now()
	sum := s.Analyzer.Summarize(rs, s.Calendar(), s.cfg.Engine.Threshold)
	s.observe("analyze", rs.Name, start, nil)
	if err := coremetrics.RecordSummary(s.sink, coremetrics.SummaryEvent{Summary: sum, Time: time.Now()}); err != nil {
		s.log.Warnf("record summary %s: %v", rs.Name, err)
	}
	return sum
}

// Hourly expands rs over the configured year at the configured steps per
// hour. The hourly series is also handed to the metrics sinks.
func (s *Service) Hourly(rs *schedule.Ruleset) (vals []float64, err error) {
	defer func(start time.Time) { s.observe("hourly", rs.Name, start, err) }(time.Now())
	year := s.cfg.Engine.Year
	hourly := analysis.HourlyValues(rs, year)
	series := coremetrics.HourlySeries{Schedule: rs.Name, Year: year, Values: hourly}
	if err := coremetrics.RecordHourly(s.sink, series); err != nil {
		s.log.Warnf("record hourly %s: %v", rs.Name, err)
	}
	if s.cfg.Engine.StepsPerHour == 1 {
		return hourly, nil
	}
	return analysis.TimestepValues(rs, year, s.cfg.Engine.StepsPerHour)
}

// Histogram counts the days governed by each profile of rs.
func (s *Service) Histogram(rs *schedule.Ruleset) map[int]int {
	return analysis.DayHistogram(rs, s.cfg.Engine.Year)
}

// Transform runs the configured pipeline on a copy of rs. A result carrying a
// new name is registered.
func (s *Service) Transform(rs *schedule.Ruleset) (out *schedule.Ruleset, err error) {
	defer func(start time.Time) { s.observe("transform", rs.Name, start, err) }(time.Now())
	out, err = s.Pipeline.Apply(rs)
	if err != nil {
		return nil, err
	}
	if out.Name == rs.Name {
		// Unnamed results never shadow their input in the model.
		return out, nil
	}
	return s.Register(out)
}

// WeightedName refers to a registered schedule by name.
type WeightedName struct {
	Name   string
	Weight float64
}

// Merge weights the named schedules into a new registered schedule.
func (s *Service) Merge(name string, inputs []WeightedName) (res transform.MergeResult, err error) {
	defer func(start time.Time) { s.observe("merge", name, start, err) }(time.Now())
	items := make([]transform.Weighted, 0, len(inputs))
	for _, in := range inputs {
		rs, err := s.Schedule(in.Name)
		if err != nil {
			return transform.MergeResult{}, err
		}
		items = append(items, transform.Weighted{Ruleset: rs, Weight: in.Weight})
	}
	res, err = transform.WeightedMerge(name, items)
	if err != nil {
		return transform.MergeResult{}, err
	}
	if res.Merged, err = s.Register(res.Merged); err != nil {
		return transform.MergeResult{}, err
	}
	return res, nil
}

// Parametrize infers the hours of operation of the registered schedules,
// records a parametric descriptor on each of them and registers the hours of
// operation schedule under name. With a store configured, every touched
// schedule is persisted.
func (s *Service) Parametrize(ctx context.Context, name string) (res parametric.Result, err error) {
	defer func(start time.Time) { s.observe("parametrize", name, start, err) }(time.Now())
	schedules := s.Model.All()
	res, err = s.Generator.Run(name, schedules, s.cfg.Engine.Year)
	if err != nil {
		return parametric.Result{}, err
	}
	if res.HoursRules, err = s.Register(res.HoursRules); err != nil {
		return parametric.Result{}, err
	}
	s.log.Infof("hours of operation %s: %s", name, res.Hours)
	if s.store == nil {
		return res, nil
	}
	for _, rs := range append(schedules, res.HoursRules) {
		if _, err := s.store.Save(ctx, rs); err != nil {
			return parametric.Result{}, fmt.Errorf("save %s: %w", rs.Name, err)
		}
	}
	return res, nil
}

// Regenerate rebuilds rs from its parametric descriptors under hoo.
func (s *Service) Regenerate(rs *schedule.Ruleset, hoo schedule.HoursOfOperation) (n int, err error) {
	defer func(start time.Time) { s.observe("regenerate", rs.Name, start, err) }(time.Now())
	return s.Generator.Regenerate(rs, hoo)
}

// Save persists rs in the store.
func (s *Service) Save(ctx context.Context, rs *schedule.Ruleset) (string, error) {
	if s.store == nil {
		return "", ErrStoreDisabled
	}
	return s.store.Save(ctx, rs)
}

// LoadStored reads a schedule from the store and registers it.
func (s *Service) LoadStored(ctx context.Context, name string) (*schedule.Ruleset, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	rs, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Register(rs)
}

// Stored lists the schedules held in the store.
func (s *Service) Stored(ctx context.Context) ([]store.Entry, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.List(ctx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
