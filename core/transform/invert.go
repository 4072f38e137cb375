package transform

import (
	"strings"

	"github.com/kilianp07/opsched/core/schedule"
)

const invertedSuffix = " Inverted"

// Invert returns a new ruleset whose every profile is mirrored inside the
// ruleset limits, or inside [0, 1] when the limits are not closed. Inverting
// the result again reproduces rs.
func Invert(rs *schedule.Ruleset) *schedule.Ruleset {
	out := rs.Clone()
	if strings.HasSuffix(rs.Name, invertedSuffix) {
		out.Name = strings.TrimSuffix(rs.Name, invertedSuffix)
	} else {
		out.Name = rs.Name + invertedSuffix
	}
	lower, upper, ok := rs.Limits.Bounds()
	if !ok {
		lower, upper = 0, 1
	}
	for _, p := range out.Profiles(true) {
		p.Invert(lower, upper)
	}
	return out
}
