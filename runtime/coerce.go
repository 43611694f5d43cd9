package runtime

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/rhizomedb/rhizome-go/value"
)

// coerceColumns normalizes a host's permissive interface{} column values
// against schema's declared types before they cross into the strict
// value.Value model — the same split the teacher draws at its own row
// boundary (driver/value.go converts database/sql/driver.Value the same
// way). An int literally typed as int32, a numeric string, a []byte that
// holds ASCII digits: cast absorbs all of these so a host need not
// construct value.Value by hand.
func coerceColumns(schema value.Schema, cols map[value.Id]interface{}) (map[value.Id]value.Value, error) {
	out := make(map[value.Id]value.Value, len(cols))
	for col, raw := range cols {
		declType, ok := schema.Lookup(col)
		if !ok {
			return nil, fmt.Errorf("runtime: column %q is not declared on this relation", col.Name())
		}
		v, err := coerceOne(declType, raw)
		if err != nil {
			return nil, fmt.Errorf("runtime: column %q: %w", col.Name(), err)
		}
		out[col] = v
	}
	return out, nil
}

func coerceOne(declType value.ColumnType, raw interface{}) (value.Value, error) {
	switch declType {
	case value.TagBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	case value.TagInt:
		i, err := cast.ToInt64E(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(i), nil
	case value.TagString:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case value.TagCID:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromCID(value.CID(s)), nil
	default:
		return value.Value{}, fmt.Errorf("unrecognized column type %v", declType)
	}
}
