// Package stratify decomposes a program's rule set into strata ordered so
// that a relation is never evaluated before every relation it positively
// or negatively depends on has stabilized, rejecting any program whose
// negation or aggregation edges form a cycle (spec.md §4.E).
package stratify

import "gopkg.in/src-d/go-errors.v1"

// ErrNotStratifiable is returned when some strongly-connected component
// of the dependency graph contains a negative-polarity edge (including a
// self-loop), per spec.md §7.
var ErrNotStratifiable = errors.NewKind("program not stratifiable: relation %q participates in a negation or aggregation cycle")
