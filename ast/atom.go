package ast

import "github.com/rhizomedb/rhizome-go/value"

// Atom is a relation identifier plus a column-value binding for some or
// all of its declared columns.
type Atom struct {
	Relation value.Id
	Cols     map[value.Id]ColVal
}

// NewAtom builds an Atom from a ready-made column binding map. Cols is a
// Go map, so a caller cannot construct one with the same key bound twice
// to begin with — duplicate keys in a map literal collapse to the last
// one before NewAtom ever sees it — which is why this representation
// cannot surface spec.md §7's ConflictingColumnBinding: see DESIGN.md for
// why that error Kind was removed rather than wired to a check that can
// never fire.
func NewAtom(rel value.Id, cols map[value.Id]ColVal) Atom {
	return Atom{Relation: rel, Cols: cols}
}

// Vars is a set of variable identifiers.
type Vars map[value.Id]struct{}

// Variables returns the set of variable identifiers this atom binds via
// ColValBinding.
func (a Atom) Variables() Vars {
	vs := make(Vars)
	for _, cv := range a.Cols {
		if cv.Kind == ColValBinding {
			vs[cv.Var] = struct{}{}
		}
	}
	return vs
}
