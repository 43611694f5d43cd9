package interp

import (
	"sort"

	"github.com/rhizomedb/rhizome-go/block"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// storeTuple content-addresses t as a set of per-column entity/attribute/
// value facts (entity = t's relation name) linked together under a
// synthetic "row" fact, and returns the resulting fact.EDBFact — t plus
// the row fact's own CID and its per-column links — so the caller can
// retain t's content identifier instead of discarding it. This is the
// bridge between the engine's n-ary fact.Tuple and the block store's
// entity/attribute/value wire shape inherited from the system this was
// distilled from (SPEC_FULL.md's supplemented block-store component).
func storeTuple(s block.Store, t fact.Tuple) (fact.EDBFact, error) {
	cols := make([]value.Id, 0, len(t.Cols))
	for c := range t.Cols {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name() < cols[j].Name() })

	links := make(map[string]value.CID, len(cols))
	for _, col := range cols {
		v, _ := t.Get(col)
		cid, err := block.EncodeTuple(s, t.Relation.Name(), col.Name(), v, nil)
		if err != nil {
			return fact.EDBFact{}, err
		}
		links[col.Name()] = cid
	}
	rowCID, err := block.EncodeTuple(s, t.Relation.Name(), "__row__", value.Bool(true), links)
	if err != nil {
		return fact.EDBFact{}, err
	}
	return fact.NewEDBFact(t, rowCID, links), nil
}
