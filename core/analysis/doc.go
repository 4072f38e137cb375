// Package analysis derives scalars and series from resolved rulesets:
// min/max over profiles, full load hours, hourly and sub-hourly expansion,
// hours above a threshold and the annual day-to-rule histogram.
//
// Hourly expansion uses half-open intervals: hour h of a day covers
// [h:00, h+1:00) and its value is the time-weighted average of the governing
// profile over that span. Because every hour is one hour wide, the sum of the
// hourly array equals FullLoadHours for the same year.
package analysis
