// Package fact implements the tuple and relation model: content-addressed
// EDB tuples, derived IDB tuples, and the three-version (total/delta/new)
// relation containers semi-naive evaluation runs against (spec.md §3, §4.B).
package fact

import (
	"sort"

	"github.com/rhizomedb/rhizome-go/value"
)

// Tuple is a mapping from column identifier to value, plus the relation
// it belongs to. It underlies both EDB and IDB rows; EDB rows are always
// wrapped in EDBFact, which adds content addressing and links.
type Tuple struct {
	Relation value.Id
	Cols     map[value.Id]value.Value
}

// NewTuple builds a Tuple from the given relation and column bindings.
func NewTuple(rel value.Id, cols map[value.Id]value.Value) Tuple {
	cp := make(map[value.Id]value.Value, len(cols))
	for k, v := range cols {
		cp[k] = v
	}
	return Tuple{Relation: rel, Cols: cp}
}

// Get returns the value bound to col, if any.
func (t Tuple) Get(col value.Id) (value.Value, bool) {
	v, ok := t.Cols[col]
	return v, ok
}

// sortedColumns returns t's column identifiers sorted by name, giving a
// deterministic iteration order for hashing and equality regardless of Go
// map iteration order.
func (t Tuple) sortedColumns() []value.Id {
	cols := make([]value.Id, 0, len(t.Cols))
	for c := range t.Cols {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name() < cols[j].Name() })
	return cols
}

// Key returns a canonical string uniquely identifying this tuple's
// (relation, cols) content, used as the map/trie key by both relation
// backends. It deliberately does not depend on Go map iteration order.
func (t Tuple) Key() string {
	var b []byte
	b = append(b, t.Relation.Name()...)
	for _, c := range t.sortedColumns() {
		b = append(b, '\x00')
		b = append(b, c.Name()...)
		b = append(b, '\x01')
		v, _ := t.Get(c)
		b = append(b, v.Tag().String()...)
		b = append(b, ':')
		b = append(b, v.String()...)
	}
	return string(b)
}

// Equal reports whether two tuples have the same relation and columns.
func (t Tuple) Equal(o Tuple) bool {
	if t.Relation != o.Relation || len(t.Cols) != len(o.Cols) {
		return false
	}
	for c, v := range t.Cols {
		ov, ok := o.Cols[c]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// EDBFact is an extensional input tuple: content-addressed, with named
// links to other facts' CIDs. Links is a map, so the links carry no
// order of their own.
type EDBFact struct {
	Tuple
	CID   value.CID
	Links map[string]value.CID
}

// NewEDBFact wraps t with the content identifier and per-column links
// computed for it when the tuple was first stored in the block store.
func NewEDBFact(t Tuple, cid value.CID, links map[string]value.CID) EDBFact {
	return EDBFact{Tuple: t, CID: cid, Links: links}
}
