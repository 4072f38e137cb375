package standards

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/opsched/core/schedule"
)

const dataset = `schedules:
  - name: Office Bldg Occ
    category: Occupancy
    units: Fraction
    day_types: Default|SmrDsn
    start_date: 1/1
    end_date: 12/31
    type: Hourly
    values: [0,0,0,0,0,0,0.1,0.2,0.95,0.95,0.95,0.95,0.5,0.95,0.95,0.95,0.95,0.3,0.1,0.1,0.1,0.1,0.05,0.05]
  - name: Office Bldg Occ
    category: Occupancy
    units: Fraction
    day_types: Sat
    type: Hourly
    values: [0,0,0,0,0,0,0.1,0.1,0.3,0.3,0.3,0.3,0.1,0.1,0.1,0.1,0.1,0.05,0.05,0,0,0,0,0]
  - name: Office Bldg Occ
    category: Occupancy
    units: Fraction
    day_types: Sun|WntrDsn
    type: Constant
    values: [0]
  - name: Always On
    category: Unknown
    units: Fraction
    day_types: Default
    type: Constant
    values: [1]
`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Load(bytes.NewBufferString(dataset), "yaml", nil)
	require.NoError(t, err)
	return reg
}

func TestLoadAndNames(t *testing.T) {
	reg := loadTestRegistry(t)
	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, []string{"Always On", "Office Bldg Occ"}, reg.Names())
}

func TestFindRequiresCriteria(t *testing.T) {
	reg := loadTestRegistry(t)
	_, err := reg.Find(Query{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	rows, err := reg.Find(Query{Category: "Occupancy", DayType: DaySat})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sat", rows[0].DayTypes)

	rows, err = reg.Find(Query{Name: "Office Bldg"})
	require.NoError(t, err)
	assert.Empty(t, rows, "partial names must not match")
}

func TestRulesetFromRows(t *testing.T) {
	reg := loadTestRegistry(t)
	rs, err := reg.Ruleset("Office Bldg Occ")
	require.NoError(t, err)
	require.NotNil(t, rs)

	assert.Equal(t, 0.95, rs.Default.ValueAt(9*time.Hour))
	assert.Equal(t, 0.5, rs.Default.ValueAt(12*time.Hour))
	require.NotNil(t, rs.SummerDesign)
	assert.True(t, rs.Default.Equal(rs.SummerDesign))
	assert.NotSame(t, rs.Default, rs.SummerDesign)
	require.NotNil(t, rs.WinterDesign)
	assert.Equal(t, []schedule.Breakpoint{{Until: schedule.EndOfDay, Value: 0}}, rs.WinterDesign.Breakpoints())

	require.Len(t, rs.Rules, 2)
	assert.Equal(t, schedule.NewWeekdaySet(time.Saturday), rs.Rules[0].Days)
	assert.Equal(t, schedule.NewWeekdaySet(time.Sunday), rs.Rules[1].Days)
	assert.Equal(t, schedule.PresetFraction, rs.Limits.Name)

	// 2023-01-07 is a Saturday
	sat := rs.ProfileForDate(time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.3, sat.ValueAt(10*time.Hour))
}

func TestRulesetMissingWarns(t *testing.T) {
	reg := loadTestRegistry(t)
	rs, err := reg.Ruleset("Nope")
	assert.NoError(t, err)
	assert.Nil(t, rs)
}

func TestInvalidRows(t *testing.T) {
	cases := []Row{
		{Name: "a", DayTypes: "Default", Type: Hourly, Values: []float64{1, 2}},
		{Name: "b", DayTypes: "Holiday", Type: Constant, Values: []float64{1}},
		{Name: "c", DayTypes: "Default", Type: "Weekly", Values: []float64{1}},
		{Name: "d", DayTypes: "Default", Type: Constant},
		{Name: "e", DayTypes: "Default", Start: "13/1", Type: Constant, Values: []float64{1}},
		{Name: "", DayTypes: "Default", Type: Constant, Values: []float64{1}},
	}
	for _, row := range cases {
		_, err := NewRegistry([]Row{row}, nil)
		assert.ErrorIs(t, err, ErrInvalidRow, "row %q", row.Name)
	}
}

func TestFromRowsWithoutDefault(t *testing.T) {
	_, err := FromRows("x", []Row{{Name: "x", DayTypes: "Sat", Type: Constant, Values: []float64{1}}})
	assert.ErrorIs(t, err, schedule.ErrMissingDefault)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "std.json")
	data := `{"schedules":[{"name":"Fan","day_types":"Default","type":"Constant","values":[1]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	reg, err := LoadFile(path, nil)
	require.NoError(t, err)
	rs, err := reg.Ruleset("Fan")
	require.NoError(t, err)
	assert.Nil(t, rs.Limits)

	_, err = Load(bytes.NewBufferString("{}"), "toml", nil)
	assert.Error(t, err)
}
