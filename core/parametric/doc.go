// Package parametric infers a canonical hours of operation from a set of
// load schedules and re-expresses each schedule relative to it. The derived
// descriptors are stored as ruleset metadata so that a later pass can rebuild
// equivalent schedules under different hours of operation.
package parametric
