// Package registry keeps the schedules of one model addressable by name.
// Creation is idempotent: asking for an existing name returns the stored
// ruleset instead of building a duplicate.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/opsched/core/logger"
	"github.com/kilianp07/opsched/core/schedule"
)

// Model is a name-keyed schedule registry. All methods are safe for
// concurrent use; GetOrCreate holds the lock while building so that two
// callers never create the same name twice.
type Model struct {
	mu        sync.Mutex
	schedules map[string]*schedule.Ruleset
	order     []string
	log       logger.Logger
}

// NewModel returns an empty registry.
func NewModel(log logger.Logger) *Model {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Model{schedules: map[string]*schedule.Ruleset{}, log: log}
}

// GetOrCreate returns the ruleset registered under name, or calls build and
// registers its result. created reports whether build ran.
func (m *Model) GetOrCreate(name string, build func() (*schedule.Ruleset, error)) (rs *schedule.Ruleset, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rs, ok := m.schedules[name]; ok {
		return rs, false, nil
	}
	rs, err = build()
	if err != nil {
		return nil, false, fmt.Errorf("create schedule %q: %w", name, err)
	}
	if rs == nil {
		return nil, false, fmt.Errorf("create schedule %q: builder returned nothing", name)
	}
	rs.Name = name
	m.schedules[name] = rs
	m.order = append(m.order, name)
	m.log.Debugf("schedule %s created", name)
	return rs, true, nil
}

// Add registers rs under its own name. An existing entry wins and is
// returned instead.
func (m *Model) Add(rs *schedule.Ruleset) *schedule.Ruleset {
	out, _, _ := m.GetOrCreate(rs.Name, func() (*schedule.Ruleset, error) { return rs, nil })
	return out
}

// Get looks a schedule up by name. A miss is logged and reported as absent.
func (m *Model) Get(name string) (*schedule.Ruleset, bool) {
	m.mu.Lock()
	rs, ok := m.schedules[name]
	m.mu.Unlock()
	if !ok {
		m.log.Warnf("schedule %s not found", name)
	}
	return rs, ok
}

// Remove drops a schedule and reports whether it existed.
func (m *Model) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[name]; !ok {
		return false
	}
	delete(m.schedules, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns the schedules in creation order.
func (m *Model) All() []*schedule.Ruleset {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*schedule.Ruleset, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.schedules[n])
	}
	return out
}

// Names returns the registered names, sorted.
func (m *Model) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.order...)
	sort.Strings(out)
	return out
}

// Len returns the number of schedules.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}
