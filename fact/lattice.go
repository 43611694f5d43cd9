package fact

import "github.com/rhizomedb/rhizome-go/value"

// Lattice is the monotone semilattice merge policy an IDB relation
// carries (spec.md §3). The zero Lattice is the default policy:
// set-union over whole tuples, which is what Merge already does at the
// Relation level. A non-default Lattice additionally groups tuples by a
// key (every column except Measure) and joins the Measure column with
// Join whenever two tuples share a key, which is how a relation can
// accumulate, e.g., a running maximum instead of a flat set of readings.
type Lattice struct {
	// Measure is the column Join applies to. It is ignored when Join is
	// nil, which selects the default set-union policy.
	Measure value.Id
	// Join combines the existing and incoming value for Measure. Must be
	// associative, commutative, and idempotent to remain a valid
	// semilattice join (e.g. max, min, boolean or).
	Join func(existing, incoming value.Value) value.Value
}

// IsDefault reports whether l is the zero-value set-union policy.
func (l Lattice) IsDefault() bool { return l.Join == nil }

// MergeWithLattice merges other into dst according to l, returning the
// number of tuples whose state changed (newly inserted, or whose Measure
// column moved under Join). When l is the default policy this is exactly
// dst.Merge(other).
func MergeWithLattice(dst Relation, other Relation, l Lattice) (int, error) {
	if l.IsDefault() {
		return dst.Merge(other)
	}

	changed := 0
	for _, incoming := range other.Tuples() {
		key := keyWithoutMeasure(incoming, l.Measure)
		existing, found := findByKey(dst, key, l.Measure)
		if !found {
			dst.Insert(incoming)
			changed++
			continue
		}
		incomingVal, _ := incoming.Get(l.Measure)
		existingVal, _ := existing.Get(l.Measure)
		joined := l.Join(existingVal, incomingVal)
		if joined.Equal(existingVal) {
			continue // already at or above the incoming value
		}
		// MapRelation/RadixRelation key on full tuple content, so a
		// changed Measure value produces a different key: drop the stale
		// tuple before inserting its replacement, or both would coexist
		// under the group key. Join's monotonicity (never moves
		// backward) is what lets this count as an update rather than a
		// retraction.
		updated := NewTuple(incoming.Relation, cloneWithMeasure(existing, l.Measure, joined))
		dst.Remove(existing)
		dst.Insert(updated)
		changed++
	}
	return changed, nil
}

func keyWithoutMeasure(t Tuple, measure value.Id) map[value.Id]value.Value {
	key := make(map[value.Id]value.Value, len(t.Cols))
	for c, v := range t.Cols {
		if c == measure {
			continue
		}
		key[c] = v
	}
	return key
}

func findByKey(r Relation, key map[value.Id]value.Value, measure value.Id) (Tuple, bool) {
	it := r.Search(key)
	for {
		t, ok := it.Next()
		if !ok {
			return Tuple{}, false
		}
		if _, hasMeasure := t.Get(measure); hasMeasure {
			return t, true
		}
	}
}

func cloneWithMeasure(t Tuple, measure value.Id, v value.Value) map[value.Id]value.Value {
	cp := make(map[value.Id]value.Value, len(t.Cols))
	for c, val := range t.Cols {
		cp[c] = val
	}
	cp[measure] = v
	return cp
}
