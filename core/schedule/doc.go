// Package schedule holds the data model of the schedule engine: piecewise
// constant day profiles, date and weekday scoped rules and the rulesets that
// combine them into a named annual schedule. It also resolves which profile
// governs each day of a calendar year.
//
// Resolution follows a first-match-wins policy: rules are evaluated in list
// order and the first rule whose date range and weekday set contain the day
// governs it. Later rules that would also match are shadowed. Validate can be
// used to report such overlaps.
package schedule
