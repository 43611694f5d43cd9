package value

import "fmt"

// Schema is an unordered mapping from column identifier to column type.
// Column identifiers within a schema are unique by construction: NewSchema
// rejects duplicates rather than silently overwriting, surfacing the
// DuplicateDeclarationCol condition spec.md §7 names.
type Schema struct {
	cols  map[Id]ColumnType
	order []Id // declaration order, kept only for deterministic iteration/printing
}

// NewSchema builds a Schema from an ordered list of (column, type) pairs,
// rejecting a repeated column identifier.
func NewSchema(cols ...ColumnBinding) (Schema, error) {
	s := Schema{cols: make(map[Id]ColumnType, len(cols)), order: make([]Id, 0, len(cols))}
	for _, c := range cols {
		if _, ok := s.cols[c.Column]; ok {
			return Schema{}, &DuplicateColumnError{Column: c.Column}
		}
		s.cols[c.Column] = c.Type
		s.order = append(s.order, c.Column)
	}
	return s, nil
}

// ColumnBinding pairs a column identifier with its declared type.
type ColumnBinding struct {
	Column Id
	Type   ColumnType
}

// Lookup returns the declared type of col and whether it is present.
func (s Schema) Lookup(col Id) (ColumnType, bool) {
	t, ok := s.cols[col]
	return t, ok
}

// Columns returns the schema's columns in declaration order.
func (s Schema) Columns() []Id {
	out := make([]Id, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of columns in the schema.
func (s Schema) Len() int { return len(s.order) }

// DuplicateColumnError is returned by NewSchema when a column identifier
// appears more than once in a single relation's declaration.
type DuplicateColumnError struct {
	Column Id
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("value: duplicate column %q in declaration", e.Column.Name())
}
