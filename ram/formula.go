package ram

import "github.com/rhizomedb/rhizome-go/value"

// FormulaKind discriminates the three inline-formula variants a Search
// node may carry, evaluated after its equality bindings match
// (spec.md §4.G "Ordering discipline": NotIn before predicate closures).
type FormulaKind uint8

const (
	FormulaEquality FormulaKind = iota
	FormulaNotIn
	FormulaPredicate
)

// Formula is one side condition evaluated against the current binding
// environment after a Search node's row-level equality bindings match.
type Formula struct {
	Kind FormulaKind

	EqLeft  Term // FormulaEquality
	EqRight Term

	NotInRelation value.Id         // FormulaNotIn: relation probed (always its total version)
	NotInCols     map[value.Id]Term // FormulaNotIn: column -> term building the probe tuple

	PredicateName value.Id // FormulaPredicate
	PredicateArgs []Term
	Predicate     PredicateWrapper
}

func Equality(l, r Term) Formula {
	return Formula{Kind: FormulaEquality, EqLeft: l, EqRight: r}
}

func NotIn(rel value.Id, cols map[value.Id]Term) Formula {
	return Formula{Kind: FormulaNotIn, NotInRelation: rel, NotInCols: cols}
}

func Predicate(name value.Id, args []Term, p PredicateWrapper) Formula {
	return Formula{Kind: FormulaPredicate, PredicateName: name, PredicateArgs: args, Predicate: p}
}
