package fact

import "github.com/rhizomedb/rhizome-go/value"

// MapRelation is the default Relation backend: a Go map keyed by each
// tuple's canonical content key, plus a parallel slice preserving
// insertion order (spec.md §4.H Sinks: "order is insertion order within
// the relation's container").
type MapRelation struct {
	index map[string]int // tuple key -> index into order
	order []Tuple
}

// NewMapRelation returns an empty MapRelation.
func NewMapRelation() *MapRelation {
	return &MapRelation{index: make(map[string]int)}
}

func (r *MapRelation) Len() int      { return len(r.order) }
func (r *MapRelation) IsEmpty() bool { return len(r.order) == 0 }

func (r *MapRelation) Contains(t Tuple) bool {
	_, ok := r.index[t.Key()]
	return ok
}

func (r *MapRelation) Search(bindings map[value.Id]value.Value) Iterator {
	if len(bindings) == 0 {
		out := make([]Tuple, len(r.order))
		copy(out, r.order)
		return &sliceIterator{tuples: out}
	}
	var matched []Tuple
	for _, t := range r.order {
		if matches(t, bindings) {
			matched = append(matched, t)
		}
	}
	return &sliceIterator{tuples: matched}
}

func (r *MapRelation) Insert(t Tuple) bool {
	key := t.Key()
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.order)
	r.order = append(r.order, t)
	return true
}

// Remove deletes the tuple keyed like t, if present, preserving the
// relative insertion order of what remains.
func (r *MapRelation) Remove(t Tuple) bool {
	key := t.Key()
	idx, ok := r.index[key]
	if !ok {
		return false
	}
	r.order = append(r.order[:idx], r.order[idx+1:]...)
	delete(r.index, key)
	for k, i := range r.index {
		if i > idx {
			r.index[k] = i - 1
		}
	}
	return true
}

func (r *MapRelation) Merge(other Relation) (int, error) {
	if o, ok := other.(*MapRelation); ok {
		added := 0
		for _, t := range o.order {
			if r.Insert(t) {
				added++
			}
		}
		return added, nil
	}
	return mergeInto(r, other)
}

func (r *MapRelation) Purge() {
	r.index = make(map[string]int)
	r.order = nil
}

func (r *MapRelation) Tuples() []Tuple {
	out := make([]Tuple, len(r.order))
	copy(out, r.order)
	return out
}
