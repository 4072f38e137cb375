package standards

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/opsched/core/logger"
	"github.com/kilianp07/opsched/core/schedule"
)

// ErrEmptyQuery is returned when a query names no criterion.
var ErrEmptyQuery = errors.New("query has no criteria")

// Query selects rows. Every non-empty field must match exactly.
type Query struct {
	Name     string
	Category string
	DayType  DayType
}

// Validate rejects queries without criteria.
func (q Query) Validate() error {
	if q.Name == "" && q.Category == "" && q.DayType == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Matches reports whether row satisfies every criterion of q.
func (q Query) Matches(row Row) bool {
	if q.Name != "" && row.Name != q.Name {
		return false
	}
	if q.Category != "" && row.Category != q.Category {
		return false
	}
	if q.DayType != "" {
		days, err := row.Days()
		if err != nil {
			return false
		}
		for _, d := range days {
			if d == q.DayType {
				return true
			}
		}
		return false
	}
	return true
}

// Dataset is the file layout read by Load.
type Dataset struct {
	Schedules []Row `json:"schedules" yaml:"schedules"`
}

// Registry is an immutable set of validated rows. It is safe for concurrent
// reads once built.
type Registry struct {
	rows   []Row
	byName map[string][]int
	log    logger.Logger
}

// NewRegistry validates and copies rows.
func NewRegistry(rows []Row, log logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	r := &Registry{rows: make([]Row, len(rows)), byName: map[string][]int{}, log: log}
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		row.Values = append([]float64(nil), row.Values...)
		r.rows[i] = row
		r.byName[row.Name] = append(r.byName[row.Name], i)
	}
	return r, nil
}

// Load decodes a Dataset in the given format ("yaml", "yml" or "json").
func Load(rd io.Reader, format string, log logger.Logger) (*Registry, error) {
	var ds Dataset
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(rd).Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode standards: %w", err)
		}
	case "json":
		if err := json.NewDecoder(rd).Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode standards: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return NewRegistry(ds.Schedules, log)
}

// LoadFile reads a dataset, picking the format from the extension.
func LoadFile(path string, log logger.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f, strings.TrimPrefix(filepath.Ext(path), "."), log)
}

// Len returns the number of rows.
func (r *Registry) Len() int { return len(r.rows) }

// Names lists the distinct schedule names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Find returns copies of the rows matching q in dataset order.
func (r *Registry) Find(q Query) ([]Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []Row
	candidates := r.rows
	if q.Name != "" {
		candidates = nil
		for _, i := range r.byName[q.Name] {
			candidates = append(candidates, r.rows[i])
		}
	}
	for _, row := range candidates {
		if q.Matches(row) {
			row.Values = append([]float64(nil), row.Values...)
			out = append(out, row)
		}
	}
	return out, nil
}

// Ruleset builds the named schedule. An unknown name returns nil with a
// warning; callers decide whether that is fatal.
func (r *Registry) Ruleset(name string) (*schedule.Ruleset, error) {
	rows, err := r.Find(Query{Name: name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		r.log.Warnf("standards: schedule %q not found", name)
		return nil, nil
	}
	return FromRows(name, rows)
}
