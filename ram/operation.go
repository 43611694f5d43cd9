package ram

import (
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// Operation is a node of the operator tree a single rule variant lowers
// to: a chain of Search nodes terminating in a Project (an ordinary
// Insert) or a Reduce (an aggregating Insert).
type Operation interface {
	isOperation()
}

// Search iterates the matching tuples of Relation@Version, extends the
// binding environment with the match under Alias, and evaluates Child
// for each one (spec.md §4.H).
type Search struct {
	Relation value.Id
	Version  fact.Version
	Alias    value.Id
	// Bindings are equality constraints tested as part of the scan
	// itself (column -> term); evaluated before Formulas, per the
	// ordering discipline.
	Bindings map[value.Id]Term
	Formulas []Formula
	Child    Operation
}

func (*Search) isOperation() {}

// Project writes one tuple into Relation@Version by resolving Terms
// against the environment accumulated by the enclosing Search chain.
// Formulas are evaluated first (for a rule body whose trailing terms
// are NotIn/Equality/Predicate formulas rather than another atom, with
// no further Search node available to host them); the write is skipped
// if any fails.
type Project struct {
	Relation value.Id
	Version  fact.Version
	Terms    map[value.Id]Term
	Formulas []Formula
}

func (*Project) isOperation() {}

// Yield is the innermost leaf of an operator tree used inside a Reduce:
// it performs no write, simply signaling "one input row for the
// enclosing aggregation" back to the Reduce driving the inner loop.
// Formulas covers an aggregation's Inner body ending in a trailing
// NotIn/Equality/Predicate term with no further atom to host it.
type Yield struct {
	Formulas []Formula
}

func (*Yield) isOperation() {}

// Reduce evaluates Child as an inner loop, grouping the rows it yields by
// GroupBy (resolved once per row) and stepping Factory's accumulator for
// that group with ValueArgs. After the inner loop completes, each
// accumulator is finalized and (if it does not return none — see
// spec.md §4.H) one row is projected into Relation@Version with
// GroupByCols bound to the group key and TargetColumn bound to the
// finalized result.
type Reduce struct {
	Relation     value.Id
	Version      fact.Version
	Factory      AggregateFactory
	TargetColumn value.Id
	GroupByCols  []value.Id
	GroupBy      []Term
	ValueArgs    []Term
	// Formulas are evaluated once, against the binding environment
	// outside the inner loop, before Child runs — the same trailing-
	// formula case Project.Formulas handles.
	Formulas []Formula
	Child    Operation
}

func (*Reduce) isOperation() {}
