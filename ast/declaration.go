package ast

import (
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// RelationKind distinguishes an EDB (input) from an IDB (derived) relation.
type RelationKind uint8

const (
	KindEDB RelationKind = iota
	KindIDB
)

// Declaration is a single relation's schema plus the metadata the
// lowerer and runtime need to treat it correctly: whether it is fed by a
// source or produced by rules, its merge lattice if IDB, and whether the
// host asked for its contents to be drained by a Sinks statement.
type Declaration struct {
	Relation value.Id
	Kind     RelationKind
	Schema   value.Schema
	Lattice  fact.Lattice // only meaningful for KindIDB; zero value is set-union
	IsOutput bool         // only meaningful for KindIDB
	Backend  fact.Backend
}
