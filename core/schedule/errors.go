package schedule

import "errors"

var (
	// ErrMalformedProfile is returned when breakpoints do not describe a
	// total function over the day.
	ErrMalformedProfile = errors.New("malformed day profile")
	// ErrMissingDefault is returned when a ruleset is built without a
	// default profile.
	ErrMissingDefault = errors.New("ruleset requires a default profile")
	// ErrRuleOverlap is returned by ValidateStrict when a rule is shadowed
	// by an earlier one.
	ErrRuleOverlap = errors.New("overlapping schedule rules")
	// ErrInvalidDate is returned for month/day pairs outside the calendar.
	ErrInvalidDate = errors.New("invalid month/day")
)
