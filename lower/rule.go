package lower

import (
	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

// ruleLowerer holds the mutable state threaded through folding one rule
// variant's body into a nested Search chain: which variables are already
// bound (and to which Term), how many times each relation has been
// aliased so far (for self-joins), and the pending inline formulas
// collected since the last atom.
type ruleLowerer struct {
	bound         map[value.Id]ram.Term
	aliasSeq      map[value.Id]int
	pending       []ram.Formula
	posIdx        int
	versionForPos func(ordinal int) fact.Version
	targetVersion fact.Version
}

func newRuleLowerer(versionForPos func(int) fact.Version, target fact.Version) *ruleLowerer {
	return &ruleLowerer{
		bound:         make(map[value.Id]ram.Term),
		aliasSeq:      make(map[value.Id]int),
		versionForPos: versionForPos,
		targetVersion: target,
	}
}

func (lw *ruleLowerer) clone() *ruleLowerer {
	cp := &ruleLowerer{
		bound:         make(map[value.Id]ram.Term, len(lw.bound)),
		aliasSeq:      lw.aliasSeq,
		versionForPos: func(int) fact.Version { return fact.VersionTotal },
		targetVersion: lw.targetVersion,
	}
	for k, v := range lw.bound {
		cp.bound[k] = v
	}
	return cp
}

func (lw *ruleLowerer) aliasFor(rel value.Id) value.Id {
	n := lw.aliasSeq[rel]
	lw.aliasSeq[rel] = n + 1
	return value.NewAlias(rel, n)
}

func (lw *ruleLowerer) resolveColVal(cv ast.ColVal) (ram.Term, error) {
	switch cv.Kind {
	case ast.ColValLiteral:
		return ram.Literal(cv.Literal), nil
	case ast.ColValSymbol:
		return ram.Literal(value.String(cv.Symbol.Name())), nil
	case ast.ColValBinding:
		t, ok := lw.bound[cv.Var]
		if !ok {
			return ram.Term{}, ErrVariableNotBound.New(cv.Var.Name())
		}
		return t, nil
	default:
		return ram.Term{}, ErrVariableNotBound.New("<unknown>")
	}
}

// build folds body[idx:] into a nested Search chain, calling leaf once
// every atom has contributed a Search frame. leaf receives any pending
// formulas collected after the last atom (a rule body can legally end in
// a NotIn/Equality/Predicate term with no further atom to host them —
// leaf attaches them directly to the terminal Project/Reduce).
func (lw *ruleLowerer) build(body []ast.BodyTerm, idx int, leaf func(trailing []ram.Formula) (ram.Operation, error)) (ram.Operation, error) {
	if idx == len(body) {
		trailing := lw.pending
		lw.pending = nil
		return leaf(trailing)
	}
	term := body[idx]
	switch term.Kind {
	case ast.BodyAtom:
		alias := lw.aliasFor(term.Atom.Relation)
		bindings := make(map[value.Id]ram.Term)
		var joinFormulas []ram.Formula
		for col, cv := range term.Atom.Cols {
			switch cv.Kind {
			case ast.ColValLiteral:
				bindings[col] = ram.Literal(cv.Literal)
			case ast.ColValSymbol:
				bindings[col] = ram.Literal(value.String(cv.Symbol.Name()))
			case ast.ColValBinding:
				if t, seen := lw.bound[cv.Var]; seen {
					joinFormulas = append(joinFormulas, ram.Equality(ram.Col(alias, col), t))
				} else {
					lw.bound[cv.Var] = ram.Col(alias, col)
				}
			}
		}
		ordinal := lw.posIdx
		lw.posIdx++
		version := lw.versionForPos(ordinal)

		formulas := append(lw.pending, joinFormulas...)
		lw.pending = nil

		child, err := lw.build(body, idx+1, leaf)
		if err != nil {
			return nil, err
		}
		return &ram.Search{
			Relation: term.Atom.Relation,
			Version:  version,
			Alias:    alias,
			Bindings: bindings,
			Formulas: formulas,
			Child:    child,
		}, nil

	case ast.BodyNotIn:
		cols := make(map[value.Id]ram.Term)
		for col, cv := range term.Atom.Cols {
			t, err := lw.resolveColVal(cv)
			if err != nil {
				return nil, err
			}
			cols[col] = t
		}
		lw.pending = append(lw.pending, ram.NotIn(term.Atom.Relation, cols))
		return lw.build(body, idx+1, leaf)

	case ast.BodyEquality:
		l, err := lw.resolveColVal(term.EqLeft)
		if err != nil {
			return nil, err
		}
		r, err := lw.resolveColVal(term.EqRight)
		if err != nil {
			return nil, err
		}
		lw.pending = append(lw.pending, ram.Equality(l, r))
		return lw.build(body, idx+1, leaf)

	case ast.BodyPredicate:
		args := make([]ram.Term, len(term.PredicateArgs))
		for i, cv := range term.PredicateArgs {
			t, err := lw.resolveColVal(cv)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		lw.pending = append(lw.pending, ram.Predicate(term.PredicateName, args, term.Predicate))
		return lw.build(body, idx+1, leaf)

	case ast.BodyAggregation:
		// Only legal as the last body term; lowerRuleBody splits it off
		// before calling build, so reaching it here means it appeared
		// mid-body.
		return nil, ErrAggregationNotLast.New(term.Aggregation.Target.Name())

	default:
		return nil, ErrVariableNotBound.New("<unknown body term>")
	}
}

func headColFor(head ast.Atom, v value.Id) (value.Id, bool) {
	for col, cv := range head.Cols {
		if cv.Kind == ast.ColValBinding && cv.Var == v {
			return col, true
		}
	}
	return value.Id{}, false
}

func (lw *ruleLowerer) buildProject(head ast.Atom, trailing []ram.Formula) (ram.Operation, error) {
	terms := make(map[value.Id]ram.Term, len(head.Cols))
	for col, cv := range head.Cols {
		t, err := lw.resolveColVal(cv)
		if err != nil {
			return nil, err
		}
		terms[col] = t
	}
	return &ram.Project{Relation: head.Relation, Version: lw.targetVersion, Terms: terms, Formulas: trailing}, nil
}

func (lw *ruleLowerer) buildReduce(head ast.Atom, agg *ast.Aggregation, trailing []ram.Formula) (ram.Operation, error) {
	if len(head.Cols) != len(agg.GroupBy)+1 {
		return nil, ErrAggregationHeadShape.New(head.Relation.Name())
	}

	inner := lw.clone()
	innerChild, err := inner.build(agg.Inner, 0, func(innerTrailing []ram.Formula) (ram.Operation, error) {
		return &ram.Yield{Formulas: innerTrailing}, nil
	})
	if err != nil {
		return nil, err
	}
	valueTerm, ok := inner.bound[agg.ValueVar]
	if !ok {
		return nil, ErrVariableNotBound.New(agg.ValueVar.Name())
	}

	groupByTerms := make([]ram.Term, len(agg.GroupBy))
	groupByCols := make([]value.Id, len(agg.GroupBy))
	for i, v := range agg.GroupBy {
		t, ok := inner.bound[v]
		if !ok {
			return nil, ErrVariableNotBound.New(v.Name())
		}
		groupByTerms[i] = t
		col, ok := headColFor(head, v)
		if !ok {
			return nil, ErrAggregationHeadShape.New(head.Relation.Name())
		}
		groupByCols[i] = col
	}
	targetCol, ok := headColFor(head, agg.Target)
	if !ok {
		return nil, ErrAggregationHeadShape.New(head.Relation.Name())
	}

	return &ram.Reduce{
		Relation:     head.Relation,
		Version:      lw.targetVersion,
		Factory:      agg.Factory,
		TargetColumn: targetCol,
		GroupByCols:  groupByCols,
		GroupBy:      groupByTerms,
		ValueArgs:    []ram.Term{valueTerm},
		Formulas:     trailing,
		Child:        innerChild,
	}, nil
}

// lowerRuleBody lowers one rule variant's body (with a version already
// selected per atom via lw.versionForPos) into a single operator tree.
func lowerRuleBody(lw *ruleLowerer, body []ast.BodyTerm, head ast.Atom) (ram.Operation, error) {
	mainBody := body
	var agg *ast.Aggregation
	if n := len(body); n > 0 && body[n-1].Kind == ast.BodyAggregation {
		agg = body[n-1].Aggregation
		mainBody = body[:n-1]
	}

	leaf := func(trailing []ram.Formula) (ram.Operation, error) { return lw.buildProject(head, trailing) }
	if agg != nil {
		leaf = func(trailing []ram.Formula) (ram.Operation, error) { return lw.buildReduce(head, agg, trailing) }
	}
	return lw.build(mainBody, 0, leaf)
}

// countPositiveAtoms returns the number of top-level BodyAtom terms in
// body (excluding an aggregation's Inner terms, which always read Total
// regardless of variant — spec.md §4.E: an aggregation's dependency is
// itself negative-strength and can never be part of a recursive cycle).
func countPositiveAtoms(body []ast.BodyTerm) int {
	n := 0
	for _, bt := range body {
		if bt.Kind == ast.BodyAtom {
			n++
		}
	}
	return n
}

// lowerNonRecursiveRule produces the rule's single variant: every atom
// reads Total, the result is written straight into the head relation's
// Total.
func lowerNonRecursiveRule(r ast.Rule) (ram.Operation, error) {
	lw := newRuleLowerer(func(int) fact.Version { return fact.VersionTotal }, fact.VersionTotal)
	return lowerRuleBody(lw, r.Body, r.Head)
}

// lowerRecursiveRuleVariants produces the rule's n semi-naive variants
// (spec.md §4.G): in the k-th, the k-th positive atom reads Delta and
// every other atom reads Total; all variants write into the head
// relation's New.
func lowerRecursiveRuleVariants(r ast.Rule) ([]ram.Operation, error) {
	n := countPositiveAtoms(r.Body)
	variants := n
	if variants == 0 {
		variants = 1
	}
	ops := make([]ram.Operation, 0, variants)
	for k := 0; k < variants; k++ {
		delta := k
		lw := newRuleLowerer(func(ordinal int) fact.Version {
			if ordinal == delta {
				return fact.VersionDelta
			}
			return fact.VersionTotal
		}, fact.VersionNew)
		op, err := lowerRuleBody(lw, r.Body, r.Head)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// lowerGroundFact lowers a headless-body clause (a fact) to a single
// literal Project targeting the head relation's Total directly — it
// never needs to flow through a Merge/Swap pipeline since its value
// never changes across iterations.
func lowerGroundFact(r ast.Rule) (ram.Operation, error) {
	terms := make(map[value.Id]ram.Term, len(r.Head.Cols))
	for col, cv := range r.Head.Cols {
		terms[col] = ram.Literal(cv.AsValue())
	}
	return &ram.Project{Relation: r.Head.Relation, Version: fact.VersionTotal, Terms: terms}, nil
}
