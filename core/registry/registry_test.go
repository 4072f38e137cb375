package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/opsched/core/schedule"
)

func constant(v float64) func() (*schedule.Ruleset, error) {
	return func() (*schedule.Ruleset, error) {
		return schedule.NewRuleset("tmp", schedule.NewConstantProfile("d", v))
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	m := NewModel(nil)
	a, created, err := m.GetOrCreate("Always On", constant(1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Always On", a.Name)

	b, created, err := m.GetOrCreate("Always On", constant(0))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
}

func TestGetOrCreateErrors(t *testing.T) {
	m := NewModel(nil)
	boom := errors.New("boom")
	_, _, err := m.GetOrCreate("x", func() (*schedule.Ruleset, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, _, err = m.GetOrCreate("y", func() (*schedule.Ruleset, error) { return nil, nil })
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestConcurrentCreationBuildsOnce(t *testing.T) {
	m := NewModel(nil)
	var builds int32
	var wg sync.WaitGroup
	results := make([]*schedule.Ruleset, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rs, _, err := m.GetOrCreate("shared", func() (*schedule.Ruleset, error) {
				atomic.AddInt32(&builds, 1)
				return constant(1)()
			})
			if err == nil {
				results[i] = rs
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), builds)
	for _, rs := range results {
		assert.Same(t, results[0], rs)
	}
}

func TestGetAddRemove(t *testing.T) {
	m := NewModel(nil)
	_, ok := m.Get("missing")
	assert.False(t, ok)

	rs, err := schedule.NewRuleset("B", schedule.NewConstantProfile("d", 1))
	require.NoError(t, err)
	assert.Same(t, rs, m.Add(rs))
	other, err := schedule.NewRuleset("B", schedule.NewConstantProfile("d", 0))
	require.NoError(t, err)
	assert.Same(t, rs, m.Add(other))

	_, _, err = m.GetOrCreate("A", constant(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, m.Names())
	assert.Equal(t, "B", m.All()[0].Name)

	assert.True(t, m.Remove("B"))
	assert.False(t, m.Remove("B"))
	assert.Equal(t, []string{"A"}, m.Names())
}
