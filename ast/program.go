package ast

import (
	"fmt"

	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// Program is the fully-validated set of relation declarations and
// clauses a host has built, ready for the stratifier (spec.md §3).
type Program struct {
	Declarations map[value.Id]Declaration
	Clauses      []Clause
}

// Builder accumulates declarations and clauses, validating each as it is
// added so that Build() never has to re-walk already-accepted state.
// Mirrors the teacher's catalog-then-analyze split: declarations (like a
// schema catalog) must exist before a clause referencing them is
// accepted.
type Builder struct {
	decls   map[value.Id]Declaration
	clauses []Clause
}

func NewBuilder() *Builder {
	return &Builder{decls: make(map[value.Id]Declaration)}
}

// DeclareEDB registers an extensional relation.
func (b *Builder) DeclareEDB(rel value.Id, schema value.Schema) error {
	return b.declare(Declaration{Relation: rel, Kind: KindEDB, Schema: schema, Backend: fact.BackendMap})
}

// DeclareIDB registers an intensional relation with the given merge
// lattice (pass fact.Lattice{} for the default set-union policy) and
// whether the host wants its contents drained at fixpoint.
func (b *Builder) DeclareIDB(rel value.Id, schema value.Schema, lattice fact.Lattice, isOutput bool) error {
	return b.declare(Declaration{
		Relation: rel, Kind: KindIDB, Schema: schema, Lattice: lattice,
		IsOutput: isOutput, Backend: fact.BackendMap,
	})
}

func (b *Builder) declare(d Declaration) error {
	if _, ok := b.decls[d.Relation]; ok {
		return fmt.Errorf("ast: relation %q already declared", d.Relation.Name())
	}
	b.decls[d.Relation] = d
	return nil
}

// Rule adds a rule (or, if body is empty, a ground fact) to the program,
// validating every column binding against the head's and each body
// atom's declared schema.
func (b *Builder) Rule(head Atom, body ...BodyTerm) error {
	headDecl, ok := b.decls[head.Relation]
	if !ok {
		return ErrUnknownRelation.New(head.Relation.Name())
	}
	if headDecl.Kind == KindEDB {
		return ErrClauseHeadEDB.New(head.Relation.Name())
	}
	if err := b.validateAtom(head); err != nil {
		return err
	}
	for _, bt := range body {
		if err := b.validateBodyTerm(bt); err != nil {
			return err
		}
	}
	b.clauses = append(b.clauses, Rule{Head: head, Body: body})
	return nil
}

func (b *Builder) validateBodyTerm(bt BodyTerm) error {
	switch bt.Kind {
	case BodyAtom, BodyNotIn:
		return b.validateAtom(bt.Atom)
	case BodyAggregation:
		for _, inner := range bt.Aggregation.Inner {
			if err := b.validateBodyTerm(inner); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateAtom checks that every bound column belongs to the relation's
// declared schema (UnrecognizedColumnBinding) and that the type of a
// literal binding matches the declared column type (TypeMismatch).
// ColumnMissing (a declared column with no binding at all) is
// deliberately not enforced here: a rule body atom is routinely a
// partial match (only some columns constrained), and only ground facts
// are required to bind every column — checked in Fact.
func (b *Builder) validateAtom(a Atom) error {
	decl, ok := b.decls[a.Relation]
	if !ok {
		return ErrUnknownRelation.New(a.Relation.Name())
	}
	for col, cv := range a.Cols {
		declType, ok := decl.Schema.Lookup(col)
		if !ok {
			return ErrUnrecognizedColumnBinding.New(col.Name(), a.Relation.Name())
		}
		if cv.Kind == ColValLiteral && cv.Literal.Tag() != declType {
			return ErrTypeMismatch.New(col.Name(), declType.String(), cv.Literal.Tag().String())
		}
	}
	return nil
}

// Fact adds a ground clause: head must be KindIDB (ClauseHeadEDB applies
// to facts exactly as it does to rule heads — facts targeting an EDB
// relation belong on that relation's input channel, not in the program),
// and every declared column of head.Relation must be bound to a literal
// (ColumnMissing otherwise).
func (b *Builder) Fact(head Atom) error {
	decl, ok := b.decls[head.Relation]
	if !ok {
		return ErrUnknownRelation.New(head.Relation.Name())
	}
	if decl.Kind == KindEDB {
		return ErrClauseHeadEDB.New(head.Relation.Name())
	}
	for _, col := range decl.Schema.Columns() {
		cv, ok := head.Cols[col]
		if !ok {
			return ErrColumnMissing.New(head.Relation.Name(), col.Name())
		}
		if cv.Kind != ColValLiteral {
			return fmt.Errorf("ast: fact column %q must be a literal, got a variable binding", col.Name())
		}
	}
	if err := b.validateAtom(head); err != nil {
		return err
	}
	b.clauses = append(b.clauses, Rule{Head: head})
	return nil
}

// Build finalizes the program. All static validation has already run
// incrementally in DeclareEDB/DeclareIDB/Rule/Fact; Build exists as the
// single place a future static check spanning multiple clauses (e.g. an
// unused-declaration lint) would be added.
func (b *Builder) Build() (*Program, error) {
	return &Program{Declarations: b.decls, Clauses: b.clauses}, nil
}
