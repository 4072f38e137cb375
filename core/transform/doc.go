// Package transform builds and rewrites rulesets: constant, simple and
// complex factories, value adjustments, inversion, weighted merging and
// hours of operation alignment.
//
// Operations that take a ruleset or profile mutate it in place, with two
// exceptions: Invert and WeightedMerge return new rulesets and leave their
// inputs untouched.
package transform
