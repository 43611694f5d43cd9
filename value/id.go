// Package value defines the interned identifier and tagged scalar value
// model that every other package in this module builds on.
package value

import (
	"fmt"
	"sync"

	"github.com/mitchellh/hashstructure"
)

// IdKind distinguishes the namespace an Id was interned under. Two Ids with
// the same spelling but different kinds are never equal: a column named
// "x" and a variable named "x" must not collide when both appear as map
// keys in the same scope.
type IdKind uint8

const (
	IdKindColumn IdKind = iota
	IdKindRelation
	IdKindVariable
	IdKindAlias
)

func (k IdKind) String() string {
	switch k {
	case IdKindColumn:
		return "column"
	case IdKindRelation:
		return "relation"
	case IdKindVariable:
		return "variable"
	case IdKindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Id is an interned, non-empty string tagged with the namespace it was
// interned in. The zero Id is invalid; use an Interner or the Column,
// Relation and Variable helpers to build one.
type Id struct {
	kind IdKind
	name string
}

// Kind returns the namespace this Id was interned under.
func (id Id) Kind() IdKind { return id.kind }

// Name returns the original string this Id was interned from.
func (id Id) Name() string { return id.name }

// IsZero reports whether id is the zero value (never produced by intern).
func (id Id) IsZero() bool { return id.name == "" }

func (id Id) String() string {
	return fmt.Sprintf("%s:%s", id.kind, id.name)
}

// hashKey returns the value used as a map key in Interner's table. Two
// identically spelled names in different kinds must hash (and compare)
// differently, so the kind is folded into the key rather than relying on
// the string alone.
func hashKey(kind IdKind, name string) uint64 {
	h, err := hashstructure.Hash(struct {
		Kind IdKind
		Name string
	}{kind, name}, nil)
	if err != nil {
		// hashstructure only fails on unsupported types (channels, funcs);
		// a struct of a uint8 and a string can never hit that path.
		panic(fmt.Sprintf("value: unreachable hash failure: %v", err))
	}
	return h
}

// Interner hands out Ids that compare equal (by the built-in == operator)
// whenever they were interned from the same (kind, name) pair. It is safe
// for concurrent use.
type Interner struct {
	mu    sync.RWMutex
	table map[uint64]Id
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{table: make(map[uint64]Id)}
}

// Intern returns the canonical Id for (kind, name), creating it on first
// use. name must be non-empty.
func (in *Interner) Intern(kind IdKind, name string) (Id, error) {
	if name == "" {
		return Id{}, fmt.Errorf("value: cannot intern an empty identifier")
	}

	key := hashKey(kind, name)

	in.mu.RLock()
	if id, ok := in.table[key]; ok {
		in.mu.RUnlock()
		return id, nil
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.table[key]; ok {
		return id, nil
	}
	id := Id{kind: kind, name: name}
	in.table[key] = id
	return id, nil
}

// MustIntern is Intern but panics on error; useful for identifiers known
// statically at call sites (tests, builder literals).
func (in *Interner) MustIntern(kind IdKind, name string) Id {
	id, err := in.Intern(kind, name)
	if err != nil {
		panic(err)
	}
	return id
}

// global is the process-wide interner used by package-level helper
// constructors (Column, Relation, Variable below). A host embedding
// multiple independent runtimes in one process may instead construct its
// own Interner per runtime; CIDs of tuples containing strings serialize
// the string contents, never an interner handle, so scoping choice here
// has no bearing on content addressing stability.
var global = NewInterner()

// Column interns name in the column namespace using the process-global
// interner.
func Column(name string) Id { return global.MustIntern(IdKindColumn, name) }

// Relation interns name in the relation namespace using the process-global
// interner.
func Relation(name string) Id { return global.MustIntern(IdKindRelation, name) }

// Variable interns name in the variable namespace using the process-global
// interner.
func Variable(name string) Id { return global.MustIntern(IdKindVariable, name) }

// NewAlias mints a fresh alias Id for a relation that appears more than
// once in a single rule body, e.g. a self-join. Aliases are not interned
// against a name a user could type; the Id is determined by base and
// ordinal, so distinct ordinals give distinct Ids.
func NewAlias(base Id, ordinal int) Id {
	return Id{kind: IdKindAlias, name: fmt.Sprintf("%s#%d", base.name, ordinal)}
}
