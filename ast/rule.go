package ast

import (
	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/value"
)

// Polarity is the sign of a dependency edge a body term contributes.
type Polarity uint8

const (
	Positive Polarity = iota
	Negative
)

// BodyTermKind discriminates the variants a rule body's ordered sequence
// may contain, per spec.md §3: "positive atoms, negated atoms (not_in),
// equality formulas, predicate applications, and aggregations over a
// group."
type BodyTermKind uint8

const (
	BodyAtom BodyTermKind = iota
	BodyNotIn
	BodyEquality
	BodyPredicate
	BodyAggregation
)

// BodyTerm is one element of a rule body.
type BodyTerm struct {
	Kind BodyTermKind

	Atom Atom // BodyAtom, BodyNotIn

	EqLeft  ColVal // BodyEquality
	EqRight ColVal

	PredicateName value.Id // BodyPredicate
	PredicateArgs []ColVal
	Predicate     closures.PredicateWrapper

	Aggregation *Aggregation // BodyAggregation
}

func AtomTerm(a Atom) BodyTerm      { return BodyTerm{Kind: BodyAtom, Atom: a} }
func NotInTerm(a Atom) BodyTerm     { return BodyTerm{Kind: BodyNotIn, Atom: a} }
func EqualityTerm(l, r ColVal) BodyTerm {
	return BodyTerm{Kind: BodyEquality, EqLeft: l, EqRight: r}
}
func PredicateTerm(name value.Id, args []ColVal, p closures.PredicateWrapper) BodyTerm {
	return BodyTerm{Kind: BodyPredicate, PredicateName: name, PredicateArgs: args, Predicate: p}
}
func AggregationTerm(agg *Aggregation) BodyTerm {
	return BodyTerm{Kind: BodyAggregation, Aggregation: agg}
}

// Aggregation captures "t = sum(s : score(s))": Target is the variable
// the result binds to (t), Factory computes the aggregate, GroupBy is the
// set of variables (bound by the rule's other body terms or by Inner)
// whose values define one group each, and Inner is the body evaluated to produce the stream
// of values fed to the accumulator (here, `score(s)`, with ValueVar
// naming which of Inner's bound variables (s) is stepped into the
// accumulator).
type Aggregation struct {
	Target   value.Id
	Factory  closures.AggregateFactory
	GroupBy  []value.Id
	Inner    []BodyTerm
	ValueVar value.Id
}

// Rule is a head atom plus an ordered body. An empty Body makes this a
// ground fact (see IsGround).
type Rule struct {
	Head Atom
	Body []BodyTerm
}

// IsGround reports whether this rule has no body, i.e. is a fact.
func (r Rule) IsGround() bool { return len(r.Body) == 0 }

// DependencyEdges returns one edge per positive/negated body atom plus
// one per positive atom of an aggregation's inner body, from that atom's relation to the
// head's relation, per spec.md §3's dependency graph definition.
func (r Rule) DependencyEdges() []DependencyEdge {
	var edges []DependencyEdge
	for _, bt := range r.Body {
		switch bt.Kind {
		case BodyAtom:
			edges = append(edges, DependencyEdge{From: bt.Atom.Relation, To: r.Head.Relation, Polarity: Positive})
		case BodyNotIn:
			edges = append(edges, DependencyEdge{From: bt.Atom.Relation, To: r.Head.Relation, Polarity: Negative})
		case BodyAggregation:
			for _, inner := range bt.Aggregation.Inner {
				if inner.Kind == BodyAtom {
					// An aggregation is itself a negative-strength
					// dependency for stratification purposes: it must
					// see the whole of its grouped-over relation before
					// producing a result, so it cannot participate in a
					// recursive cycle through that relation any more
					// than a negated atom could (spec.md §4.E: "The same
					// rule applies to edges that originate from an
					// aggregation").
					edges = append(edges, DependencyEdge{From: inner.Atom.Relation, To: r.Head.Relation, Polarity: Negative})
				}
			}
		}
	}
	return edges
}

// DependencyEdge is one edge of the relation dependency graph.
type DependencyEdge struct {
	From     value.Id
	To       value.Id
	Polarity Polarity
}

// Clause is either a ground Fact or a Rule; facts are represented as
// Rules with an empty Body; Clause.IsGround reports which.
type Clause = Rule
