package value

import "fmt"

// Tag identifies which variant of a Value is populated.
type Tag uint8

const (
	TagBool Tag = iota
	TagInt
	TagString
	TagCID
)

func (t Tag) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagString:
		return "string"
	case TagCID:
		return "cid"
	default:
		return "unknown"
	}
}

// ColumnType is one of the four scalar types a column may declare.
type ColumnType = Tag

// CID is the block-store content identifier type. It is declared here
// (rather than imported from package block) to avoid a cycle: block
// stores Values, and Values may hold a CID.
type CID string

// Value is an immutable, cheaply-clonable tagged scalar. Only one of the
// fields is meaningful, selected by tag. The zero Value is a bool false,
// which is a deliberate, harmless default (never produced by ingestion
// since EDB pushes always set a tag explicitly).
type Value struct {
	tag Tag
	b   bool
	i   int64
	s   string
	c   CID
}

func Bool(b bool) Value     { return Value{tag: TagBool, b: b} }
func Int(i int64) Value     { return Value{tag: TagInt, i: i} }
func String(s string) Value { return Value{tag: TagString, s: s} }
func FromCID(c CID) Value   { return Value{tag: TagCID, c: c} }

func (v Value) Tag() Tag { return v.tag }

func (v Value) AsBool() (bool, bool)     { return v.b, v.tag == TagBool }
func (v Value) AsInt() (int64, bool)     { return v.i, v.tag == TagInt }
func (v Value) AsString() (string, bool) { return v.s, v.tag == TagString }
func (v Value) AsCID() (CID, bool)       { return v.c, v.tag == TagCID }

func (v Value) String() string {
	switch v.tag {
	case TagBool:
		return fmt.Sprintf("%t", v.b)
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagString:
		return fmt.Sprintf("%q", v.s)
	case TagCID:
		return string(v.c)
	default:
		return "<invalid>"
	}
}

// Equal reports whether two Values carry the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagBool:
		return v.b == o.b
	case TagInt:
		return v.i == o.i
	case TagString:
		return v.s == o.s
	case TagCID:
		return v.c == o.c
	default:
		return false
	}
}

// Compare defines the total order over Values required by spec.md §3:
// per-tag ordering, then lexicographic across tags. Tags are ordered
// bool < int < string < cid.
func (v Value) Compare(o Value) int {
	if v.tag != o.tag {
		if v.tag < o.tag {
			return -1
		}
		return 1
	}
	switch v.tag {
	case TagBool:
		return compareBool(v.b, o.b)
	case TagInt:
		switch {
		case v.i < o.i:
			return -1
		case v.i > o.i:
			return 1
		default:
			return 0
		}
	case TagString:
		switch {
		case v.s < o.s:
			return -1
		case v.s > o.s:
			return 1
		default:
			return 0
		}
	case TagCID:
		switch {
		case v.c < o.c:
			return -1
		case v.c > o.c:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}
