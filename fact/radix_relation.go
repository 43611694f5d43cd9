package fact

import (
	"sort"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/rhizomedb/rhizome-go/value"
)

// RadixRelation is the second Relation backend named in the Design Notes:
// a persistent immutable ordered set, backed by an immutable radix tree. Each
// Insert produces a new tree root internally (copy-on-write along the
// mutated path) and swaps it in under the relation's own pointer, so a
// caller holding an older *iradix.Tree snapshot (e.g. a concurrent reader
// mid-iteration, see spec.md §5) keeps observing a consistent view.
//
// Useful for large EDB relations loaded once per epoch and scanned many
// times per stratum, where the immutable tree's structural sharing avoids
// copying the whole relation on every Insert.
type RadixRelation struct {
	tree *iradix.Tree
	raw  map[string]Tuple // key -> Tuple, since iradix values are interface{}; kept to avoid repeated type assertions
}

// NewRadixRelation returns an empty RadixRelation.
func NewRadixRelation() *RadixRelation {
	return &RadixRelation{tree: iradix.New(), raw: make(map[string]Tuple)}
}

func (r *RadixRelation) Len() int      { return r.tree.Len() }
func (r *RadixRelation) IsEmpty() bool { return r.tree.Len() == 0 }

func (r *RadixRelation) Contains(t Tuple) bool {
	_, ok := r.tree.Get([]byte(t.Key()))
	return ok
}

func (r *RadixRelation) Search(bindings map[value.Id]value.Value) Iterator {
	if len(bindings) == 0 {
		return &sliceIterator{tuples: r.Tuples()}
	}
	var matched []Tuple
	r.tree.Root().Walk(func(k []byte, v interface{}) bool {
		t := v.(Tuple)
		if matches(t, bindings) {
			matched = append(matched, t)
		}
		return false
	})
	return &sliceIterator{tuples: matched}
}

func (r *RadixRelation) Insert(t Tuple) bool {
	key := []byte(t.Key())
	newTree, _, existed := r.tree.Insert(key, t)
	r.tree = newTree
	if !existed {
		r.raw[string(key)] = t
	}
	return !existed
}

// Remove deletes the tuple keyed like t from the tree, if present.
func (r *RadixRelation) Remove(t Tuple) bool {
	key := []byte(t.Key())
	newTree, _, existed := r.tree.Delete(key)
	if !existed {
		return false
	}
	r.tree = newTree
	delete(r.raw, string(key))
	return true
}

func (r *RadixRelation) Merge(other Relation) (int, error) {
	if o, ok := other.(*RadixRelation); ok {
		added := 0
		o.tree.Root().Walk(func(k []byte, v interface{}) bool {
			if r.Insert(v.(Tuple)) {
				added++
			}
			return false
		})
		return added, nil
	}
	return mergeInto(r, other)
}

func (r *RadixRelation) Purge() {
	r.tree = iradix.New()
	r.raw = make(map[string]Tuple)
}

// Tuples returns the relation's contents in radix (lexicographic key)
// order, which is deterministic but not insertion order; see the Open
// Question in spec.md §9 about Sinks ordering over ordered-set backends.
func (r *RadixRelation) Tuples() []Tuple {
	keys := make([]string, 0, len(r.raw))
	for k := range r.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Tuple, len(keys))
	for i, k := range keys {
		out[i] = r.raw[k]
	}
	return out
}
