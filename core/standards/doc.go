// Package standards holds named schedule rows from a standards dataset in an
// immutable registry and builds rulesets from them.
//
// A row carries one day profile and the day types it applies to:
// Default, WntrDsn and SmrDsn fill the ruleset slots while Wkdy, Wknd, Sat,
// Sun, Mon..Fri become rules. Rows keep their dataset order, which is the
// rule priority.
package standards
