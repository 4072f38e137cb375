// Package steps turns configured transformation steps into functions over
// rulesets. Each step is declared by a type name and a raw configuration
// map, decoded with factory.Decode.
package steps

import (
	"fmt"

	"github.com/kilianp07/opsched/core/factory"
	"github.com/kilianp07/opsched/core/schedule"
)

// Step transforms a ruleset. It may modify rs in place and return it, or
// return a new ruleset.
type Step func(rs *schedule.Ruleset) (*schedule.Ruleset, error)

var registry = factory.NewRegistry[Step]()

// Register adds a step factory identified by name.
func Register(name string, f factory.Factory[Step]) error {
	return registry.Register(name, f)
}

// Types lists the registered step names.
func Types() []string { return registry.Names() }

// Pipeline is an ordered list of steps.
type Pipeline struct {
	names []string
	steps []Step
}

// Build creates the steps described by cfgs, in order.
func Build(cfgs []factory.ModuleConfig) (*Pipeline, error) {
	p := &Pipeline{}
	for i, c := range cfgs {
		s, err := registry.Create(c)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		p.names = append(p.names, c.Type)
		p.steps = append(p.steps, s)
	}
	return p, nil
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Names returns the step types in execution order.
func (p *Pipeline) Names() []string { return append([]string(nil), p.names...) }

// Apply runs the steps on a clone of rs; rs itself is not modified.
func (p *Pipeline) Apply(rs *schedule.Ruleset) (*schedule.Ruleset, error) {
	out := rs.Clone()
	for i, s := range p.steps {
		next, err := s(out)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, p.names[i], err)
		}
		out = next
	}
	return out, nil
}
