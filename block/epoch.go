package block

import "github.com/rhizomedb/rhizome-go/value"

// Epoch is an append-only record of one batch of input tuples, per
// spec.md §3: {prev: cid?, tuples: [cid]}. Walking the prev chain lets a
// client replay an input stream from genesis.
type Epoch struct {
	Prev   *value.CID
	Tuples []value.CID
}

func (e Epoch) toWire() WireEpoch {
	w := WireEpoch{Tuples: make([]string, len(e.Tuples))}
	for i, c := range e.Tuples {
		w.Tuples[i] = string(c)
	}
	if e.Prev != nil {
		s := string(*e.Prev)
		w.Prev = &s
	}
	return w
}

func fromWireEpoch(w WireEpoch) Epoch {
	e := Epoch{Tuples: make([]value.CID, len(w.Tuples))}
	for i, s := range w.Tuples {
		e.Tuples[i] = value.CID(s)
	}
	if w.Prev != nil {
		c := value.CID(*w.Prev)
		e.Prev = &c
	}
	return e
}

// PutEpoch serializes and stores e, returning its CID.
func PutEpoch(s Store, e Epoch) (value.CID, error) {
	return PutSerializable(s, e.toWire())
}

// GetEpoch fetches and deserializes the epoch stored at cid.
func GetEpoch(s Store, cid value.CID) (Epoch, bool, error) {
	var w WireEpoch
	ok, err := GetSerializable(s, cid, &w)
	if err != nil || !ok {
		return Epoch{}, ok, err
	}
	return fromWireEpoch(w), true, nil
}

// Walk returns every epoch from cid back to genesis, oldest first.
func Walk(s Store, cid value.CID) ([]Epoch, error) {
	var chain []Epoch
	cur := cid
	for {
		e, ok, err := GetEpoch(s, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		chain = append(chain, e)
		if e.Prev == nil {
			break
		}
		cur = *e.Prev
	}
	// reverse to oldest-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
