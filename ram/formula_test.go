package ram_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

func TestEqualityFormulaCarriesBothTerms(t *testing.T) {
	l := ram.Literal(value.Int(1))
	r := ram.Literal(value.Int(2))
	f := ram.Equality(l, r)

	require.Equal(t, ram.FormulaEquality, f.Kind)
	require.Equal(t, l, f.EqLeft)
	require.Equal(t, r, f.EqRight)
}

func TestNotInFormulaCarriesRelationAndCols(t *testing.T) {
	rel := value.Relation("seen")
	col := value.Column("x")
	cols := map[value.Id]ram.Term{col: ram.Literal(value.Int(3))}

	f := ram.NotIn(rel, cols)

	require.Equal(t, ram.FormulaNotIn, f.Kind)
	require.Equal(t, rel, f.NotInRelation)
	require.Equal(t, cols, f.NotInCols)
}

func TestPredicateFormulaCarriesNameArgsAndWrapper(t *testing.T) {
	name := value.Variable("is_even")
	args := []ram.Term{ram.Literal(value.Int(4))}
	wrapper := closures.PredicateFunc(func(vs []value.Value) (bool, bool) {
		i, ok := vs[0].AsInt()
		if !ok {
			return false, false
		}
		return i%2 == 0, true
	})

	f := ram.Predicate(name, args, wrapper)

	require.Equal(t, ram.FormulaPredicate, f.Kind)
	require.Equal(t, name, f.PredicateName)
	require.Equal(t, args, f.PredicateArgs)

	result, ok := f.Predicate.Apply([]value.Value{value.Int(4)})
	require.True(t, ok)
	require.True(t, result)
}
