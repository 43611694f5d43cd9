// Package ram defines the relational-algebra plan IR the lowerer emits and
// the interpreter executes: operations (Search, Project, Reduce) nested
// into trees, and statements (Insert, Merge, Swap, Purge, Loop, Exit,
// Sources, Sinks) sequenced at the top level (spec.md §4.F).
package ram

import (
	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// TermKind discriminates how a Term resolves to a value during
// evaluation.
type TermKind uint8

const (
	// TermLiteral resolves to a fixed value.Value (including CID-tagged
	// literals — spec.md's "a CID" term variant is a TermLiteral whose
	// Value.Tag() is value.TagCID).
	TermLiteral TermKind = iota
	// TermCol resolves to the value bound to Column within the tuple
	// currently matched under Alias (Term::Col(relation, alias, col) in
	// spec.md §4.G).
	TermCol
	// TermAggregateResult resolves to the finalized value of the
	// enclosing Reduce's accumulator; only legal inside that Reduce's own
	// Project-equivalent target-column term.
	TermAggregateResult
)

// Term is how a Project or a formula obtains a value at evaluation time.
type Term struct {
	Kind    TermKind
	Literal value.Value
	Alias   value.Id // TermCol: which Search binding to read from
	Column  value.Id // TermCol: which column of that binding
}

func Literal(v value.Value) Term { return Term{Kind: TermLiteral, Literal: v} }
func Col(alias, column value.Id) Term {
	return Term{Kind: TermCol, Alias: alias, Column: column}
}
func AggregateResult() Term { return Term{Kind: TermAggregateResult} }

// Env is the binding environment accumulated while walking nested Search
// nodes: alias identifier -> the tuple currently matched under that
// alias. It is threaded down through a single operator-tree evaluation
// and never shared across evaluations.
type Env map[value.Id]fact.Tuple

// Resolve evaluates t against env. aggResult is only consulted for
// TermAggregateResult and may be the zero Value elsewhere.
func (t Term) Resolve(env Env, aggResult value.Value) (value.Value, bool) {
	switch t.Kind {
	case TermLiteral:
		return t.Literal, true
	case TermCol:
		tup, ok := env[t.Alias]
		if !ok {
			return value.Value{}, false
		}
		return tup.Get(t.Column)
	case TermAggregateResult:
		return aggResult, true
	default:
		return value.Value{}, false
	}
}

// The AggregateFactory and PredicateWrapper aliases keep the ram package's public
// surface in terms of closures' interfaces without re-exporting the whole
// package at every call site.
type AggregateFactory = closures.AggregateFactory
type PredicateWrapper = closures.PredicateWrapper
