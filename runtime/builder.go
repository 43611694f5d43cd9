package runtime

import (
	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/lower"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/stratify"
	"github.com/rhizomedb/rhizome-go/value"
)

// Builder is the embedding surface's program-construction half: a host
// declares relations and rules against it, then calls Build to run
// stratification and lowering once, up front, so that Program carries a
// ram.Program ready to execute repeatedly. Thin wrapper over ast.Builder;
// the split exists so a host never has to import ast/stratify/lower
// directly, mirroring how the teacher's top-level sqle.Engine hides
// analyzer/plan from a caller that only wants Query.
type Builder struct {
	ast *ast.Builder
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{ast: ast.NewBuilder()}
}

// DeclareEDB registers an extensional relation.
func (b *Builder) DeclareEDB(rel value.Id, schema value.Schema) error {
	return b.ast.DeclareEDB(rel, schema)
}

// DeclareIDB registers an intensional relation with the given merge
// lattice and drain behavior.
func (b *Builder) DeclareIDB(rel value.Id, schema value.Schema, lattice fact.Lattice, isOutput bool) error {
	return b.ast.DeclareIDB(rel, schema, lattice, isOutput)
}

// Rule adds a rule to the program.
func (b *Builder) Rule(head ast.Atom, body ...ast.BodyTerm) error {
	return b.ast.Rule(head, body...)
}

// Fact adds a ground fact binding every column of rel's declared schema
// to a literal value.
func (b *Builder) Fact(rel value.Id, cols map[value.Id]value.Value) error {
	atomCols := make(map[value.Id]ast.ColVal, len(cols))
	for col, v := range cols {
		atomCols[col] = ast.Lit(v)
	}
	return b.ast.Fact(ast.NewAtom(rel, atomCols))
}

// Program is a fully stratified and lowered engine program: the static
// errors named in spec.md §7 (NotStratifiable, TypeMismatch, ...) are
// only possible before Build returns one of these; everything after is
// runtime-only.
type Program struct {
	declarations map[value.Id]ast.Declaration
	strata       []stratify.Stratum
	ramProgram   *ram.Program
}

// Build runs stratification and lowering over everything accumulated so
// far and returns a Program ready to drive a Runtime. It may be called
// only once per Builder.
func (b *Builder) Build() (*Program, error) {
	prog, err := b.ast.Build()
	if err != nil {
		return nil, err
	}
	strata, err := stratify.Stratify(prog)
	if err != nil {
		return nil, err
	}
	ramProg, err := lower.Lower(prog, strata)
	if err != nil {
		return nil, err
	}
	return &Program{declarations: prog.Declarations, strata: strata, ramProgram: ramProg}, nil
}
