package block

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/rhizomedb/rhizome-go/value"
)

// canonicalEncMode produces deterministic DAG-CBOR-shaped bytes: map keys
// sorted per RFC 8949 §4.2.1 (bytewise lexicographic on the encoded key),
// consistent with the "Two values serialize to the same CID iff their
// DAG-CBOR canonical forms match byte-for-byte" invariant in spec.md §4.C.
var canonicalEncMode = mustCanonicalMode()

func mustCanonicalMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("block: unreachable cbor encmode failure: %v", err))
	}
	return mode
}

// Marshal encodes v to its canonical byte form.
func Marshal(v interface{}) ([]byte, error) {
	return canonicalEncMode.Marshal(v)
}

// Unmarshal decodes canonical bytes produced by Marshal back into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

// wireValue is the encoding of value.Value on the wire: every variant is
// a CBOR map with exactly one entry, whose key ("b", "i", "s" or "c")
// names the variant. Variants are not told apart by CBOR major type; a
// bool, int or string is never written as a bare CBOR item.
type wireValue struct {
	B   *bool   `cbor:"b,omitempty"`
	I   *int64  `cbor:"i,omitempty"`
	S   *string `cbor:"s,omitempty"`
	CID *string `cbor:"c,omitempty"`
}

func toWireValue(v value.Value) wireValue {
	switch v.Tag() {
	case value.TagBool:
		b, _ := v.AsBool()
		return wireValue{B: &b}
	case value.TagInt:
		i, _ := v.AsInt()
		return wireValue{I: &i}
	case value.TagString:
		s, _ := v.AsString()
		return wireValue{S: &s}
	case value.TagCID:
		c, _ := v.AsCID()
		s := string(c)
		return wireValue{CID: &s}
	default:
		panic("block: value with unknown tag cannot be serialized")
	}
}

func fromWireValue(w wireValue) (value.Value, error) {
	switch {
	case w.B != nil:
		return value.Bool(*w.B), nil
	case w.I != nil:
		return value.Int(*w.I), nil
	case w.S != nil:
		return value.String(*w.S), nil
	case w.CID != nil:
		return value.FromCID(value.CID(*w.CID)), nil
	default:
		return value.Value{}, fmt.Errorf("block: wire value has no populated variant")
	}
}

// WireTuple is the DAG-CBOR shape of an EDB tuple stored in the block
// store: {entity, attribute, value, links}, where links maps each link
// name to a CID string.
type WireTuple struct {
	Entity    string            `cbor:"entity"`
	Attribute string            `cbor:"attribute"`
	Value     wireValue         `cbor:"value"`
	Links     map[string]string `cbor:"links"` // link name -> cid string, sorted by canonical encoding
}

// WireEpoch is the DAG-CBOR shape of an epoch record: {prev, tuples},
// per spec.md §6.
type WireEpoch struct {
	Prev   *string  `cbor:"prev,omitempty"`
	Tuples []string `cbor:"tuples"`
}
