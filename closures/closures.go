// Package closures defines the host-supplied capability interfaces the
// interpreter calls through: user predicates and user aggregates. Both are
// "typed vs. untyped" boundaries per the Design Notes — a host's
// declaration mechanism (out of scope here; spec.md calls it "the
// macro-generated user aggregate/predicate declarations") is expected to
// generate concrete implementations of these interfaces from statically
// typed Go functions.
package closures

import "github.com/rhizomedb/rhizome-go/value"

// PredicateWrapper evaluates a side condition over a row of already-bound
// values. Returning ok=false means the predicate itself failed to
// evaluate (spec.md §7 PredicateFailed), which aborts the current
// statement; returning ok=true, result=false simply means the row does
// not satisfy the predicate and is filtered out.
type PredicateWrapper interface {
	Apply(args []value.Value) (result bool, ok bool)
}

// PredicateFunc adapts a plain function to PredicateWrapper.
type PredicateFunc func(args []value.Value) (bool, bool)

func (f PredicateFunc) Apply(args []value.Value) (bool, bool) { return f(args) }

// Accumulator is one in-progress aggregation over a single group.
type Accumulator interface {
	Step(vals []value.Value)
	// Finalize returns the group's aggregate value, or ok=false to
	// signal the group should be skipped entirely (spec.md §4.H: "If
	// finalize returns none, skip that group").
	Finalize() (value.Value, bool)
}

// AggregateFactory names and constructs Accumulators for one kind of
// aggregation (sum, count, ...). A Reduce operation holds one
// AggregateFactory and calls New() once per group.
type AggregateFactory interface {
	Name() string
	New() Accumulator
}
