package lower

import (
	"sort"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/stratify"
	"github.com/rhizomedb/rhizome-go/value"
)

// Lower translates prog's stratified clauses into a flat RAM program,
// per the top-level skeleton of spec.md §4.G: a single Sources, one
// block per stratum (a straight sequence of Inserts for a non-recursive
// stratum, a Loop for a recursive one), and a final Sinks.
func Lower(prog *ast.Program, strata []stratify.Stratum) (*ram.Program, error) {
	stmts := []ram.Statement{&ram.Sources{}}

	for _, s := range strata {
		if s.IsRecursive {
			body, err := lowerRecursiveStratum(s)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, &ram.Loop{Body: body})
			continue
		}
		block, err := lowerNonRecursiveStratum(s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, block...)
	}

	stmts = append(stmts, &ram.Sinks{Relations: outputRelations(prog)})
	return &ram.Program{Statements: stmts}, nil
}

func lowerNonRecursiveStratum(s stratify.Stratum) ([]ram.Statement, error) {
	var stmts []ram.Statement
	for _, clause := range s.Clauses {
		if clause.IsGround() {
			op, err := lowerGroundFact(clause)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, &ram.Insert{Op: op, IsGround: true})
			continue
		}
		op, err := lowerNonRecursiveRule(clause)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, &ram.Insert{Op: op})
	}
	return stmts, nil
}

func lowerRecursiveStratum(s stratify.Stratum) ([]ram.Statement, error) {
	var body []ram.Statement
	for _, clause := range s.Clauses {
		if clause.IsGround() {
			op, err := lowerGroundFact(clause)
			if err != nil {
				return nil, err
			}
			body = append(body, &ram.Insert{Op: op, IsGround: true})
			continue
		}
		variants, err := lowerRecursiveRuleVariants(clause)
		if err != nil {
			return nil, err
		}
		for _, op := range variants {
			body = append(body, &ram.Insert{Op: op})
		}
	}

	for _, rel := range s.Relations {
		body = append(body, &ram.Merge{Relation: rel, From: fact.VersionNew, Into: fact.VersionTotal})
	}
	for _, rel := range s.Relations {
		body = append(body, &ram.Swap{Relation: rel, A: fact.VersionNew, B: fact.VersionDelta})
	}
	for _, rel := range s.Relations {
		body = append(body, &ram.Purge{Relation: rel, Version: fact.VersionNew})
	}
	body = append(body, &ram.Exit{Relations: append([]value.Id(nil), s.Relations...)})
	return body, nil
}

// outputRelations returns every IDB relation declared IsOutput, in a
// deterministic order (prog.Declarations is a Go map with no inherent
// order, so Sinks visits relations sorted by name rather than true
// declaration order — documented in DESIGN.md as a deliberate divergence
// from spec.md's "relations visited in declaration order" wording, which
// this lowerer cannot observe without the builder recording one).
func outputRelations(prog *ast.Program) []value.Id {
	var out []value.Id
	for id, decl := range prog.Declarations {
		if decl.Kind == ast.KindIDB && decl.IsOutput {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
