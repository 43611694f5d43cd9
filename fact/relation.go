package fact

import "github.com/rhizomedb/rhizome-go/value"

// Iterator yields the tuples a Search call matched, one at a time.
type Iterator interface {
	// Next returns the next tuple and true, or the zero Tuple and false
	// once exhausted.
	Next() (Tuple, bool)
}

type sliceIterator struct {
	tuples []Tuple
	pos    int
}

func (it *sliceIterator) Next() (Tuple, bool) {
	if it.pos >= len(it.tuples) {
		return Tuple{}, false
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, true
}

// Relation abstracts a set of tuples sharing a schema, dynamically
// dispatched so the interpreter and lowerer need not know which concrete
// container backs a given relation. Two concrete backends satisfy it:
// MapRelation (a Go map keyed by tuple content) and RadixRelation (a
// persistent immutable radix tree), per the Design Notes' guidance that
// tagged variants are preferable to open downcasting.
type Relation interface {
	Len() int
	IsEmpty() bool
	Contains(t Tuple) bool
	// Search returns every tuple matching every (column, value) pair in
	// bindings; an empty bindings map matches every tuple (a full scan).
	Search(bindings map[value.Id]value.Value) Iterator
	// Insert adds t if absent, reporting whether it was newly added.
	Insert(t Tuple) bool
	// Remove deletes t's content key if present, reporting whether
	// anything was removed. Merge never calls this (monotonicity,
	// spec.md §3 "Invariant: total ⊇ delta after merge"); it exists for
	// MergeWithLattice, which re-keys a tuple under a joined Measure value
	// and must drop the stale key it is replacing.
	Remove(t Tuple) bool
	// Merge adds every tuple of other into the receiver, reporting how
	// many were newly added. It never removes tuples already present
	// (monotonicity, spec.md §3 "Invariant: total ⊇ delta after merge").
	Merge(other Relation) (int, error)
	// Purge empties the relation.
	Purge()
	// Tuples returns the relation's contents in an implementation-defined
	// but stable order (insertion order for MapRelation).
	Tuples() []Tuple
}

func matches(t Tuple, bindings map[value.Id]value.Value) bool {
	for col, want := range bindings {
		got, ok := t.Get(col)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// mergeInto is the backend-agnostic fallback used by Merge implementations
// when the other relation's concrete type is unrecognized: iterate its
// tuples through the Relation interface rather than downcasting.
func mergeInto(dst Relation, other Relation) (int, error) {
	added := 0
	for _, t := range other.Tuples() {
		if dst.Insert(t) {
			added++
		}
	}
	return added, nil
}
