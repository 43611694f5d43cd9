package block

import "github.com/rhizomedb/rhizome-go/value"

// EncodeTuple builds the canonical wire shape for an EDB tuple's
// (entity, attribute, value, links) quad and returns its CID after
// storing it. entity and attribute are plain strings here (the
// relation/column Ids they came from have already been resolved to their
// Name() by the caller in package interp) so that CIDs depend only on
// content, never on interner identity.
func EncodeTuple(s Store, entity, attribute string, v value.Value, links map[string]value.CID) (value.CID, error) {
	wireLinks := make(map[string]string, len(links))
	for name, cid := range links {
		wireLinks[name] = string(cid)
	}
	wt := WireTuple{
		Entity:    entity,
		Attribute: attribute,
		Value:     toWireValue(v),
		Links:     wireLinks,
	}
	return PutSerializable(s, wt)
}

// DecodeTuple fetches and decodes the tuple stored at cid.
func DecodeTuple(s Store, cid value.CID) (entity, attribute string, v value.Value, links map[string]value.CID, ok bool, err error) {
	var wt WireTuple
	ok, err = GetSerializable(s, cid, &wt)
	if err != nil || !ok {
		return "", "", value.Value{}, nil, ok, err
	}
	v, err = fromWireValue(wt.Value)
	if err != nil {
		return "", "", value.Value{}, nil, false, err
	}
	links = make(map[string]value.CID, len(wt.Links))
	for name, c := range wt.Links {
		links[name] = value.CID(c)
	}
	return wt.Entity, wt.Attribute, v, links, true, nil
}
