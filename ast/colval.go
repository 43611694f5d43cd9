package ast

import "github.com/rhizomedb/rhizome-go/value"

// ColValKind distinguishes the three ways a column can be bound in an
// atom. The original RhizomeDB system's column-value model (see
// original_source/rhizome/src/col_val.rs) supports all three; spec.md's
// distillation only describes "equality bindings" in prose, so this is a
// supplemented feature (SPEC_FULL.md §6).
type ColValKind uint8

const (
	// ColValLiteral binds a column to a fixed value known at build time.
	ColValLiteral ColValKind = iota
	// ColValBinding binds a column to a rule variable: the first
	// occurrence of the variable in the body introduces it, later
	// occurrences (in this atom or later ones) must agree with it.
	ColValBinding
	// ColValSymbol binds a column to an interned symbol used as a value
	// rather than a variable reference — e.g. matching a relation name or
	// another identifier literally rather than via substitution.
	ColValSymbol
)

// ColVal is one column's binding within an atom.
type ColVal struct {
	Kind    ColValKind
	Literal value.Value // meaningful iff Kind == ColValLiteral
	Var     value.Id    // meaningful iff Kind == ColValBinding
	Symbol  value.Id    // meaningful iff Kind == ColValSymbol
}

func Lit(v value.Value) ColVal { return ColVal{Kind: ColValLiteral, Literal: v} }
func Bind(v value.Id) ColVal   { return ColVal{Kind: ColValBinding, Var: v} }
func Sym(s value.Id) ColVal    { return ColVal{Kind: ColValSymbol, Symbol: s} }

// AsValue resolves a ColVal that does not depend on rule-body bindings
// (Literal or Symbol) to a concrete Value. It panics if called on a
// ColValBinding; the lowerer never does so.
func (c ColVal) AsValue() value.Value {
	switch c.Kind {
	case ColValLiteral:
		return c.Literal
	case ColValSymbol:
		return value.String(c.Symbol.Name())
	default:
		panic("ast: AsValue called on a variable binding")
	}
}
