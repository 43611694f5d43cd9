package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

func mustSchema(t *testing.T, cols ...value.ColumnBinding) value.Schema {
	t.Helper()
	s, err := value.NewSchema(cols...)
	require.NoError(t, err)
	return s
}

func TestBuilderRejectsClauseHeadEDB(t *testing.T) {
	b := NewBuilder()
	edge := value.Relation("edge")
	require.NoError(t, b.DeclareEDB(edge, mustSchema(t,
		value.ColumnBinding{Column: value.Column("x"), Type: value.TagInt},
	)))

	err := b.Rule(NewAtom(edge, map[value.Id]ColVal{
		value.Column("x"): Bind(value.Variable("x")),
	}))
	require.Error(t, err)
	require.True(t, ErrClauseHeadEDB.Is(err))
}

func TestBuilderRejectsUnrecognizedColumn(t *testing.T) {
	b := NewBuilder()
	path := value.Relation("path")
	require.NoError(t, b.DeclareIDB(path, mustSchema(t,
		value.ColumnBinding{Column: value.Column("x"), Type: value.TagInt},
	), fact.Lattice{}, true))

	err := b.Rule(NewAtom(path, map[value.Id]ColVal{
		value.Column("x"):      Bind(value.Variable("x")),
		value.Column("bogus"): Bind(value.Variable("y")),
	}))
	require.Error(t, err)
	require.True(t, ErrUnrecognizedColumnBinding.Is(err))
}

func TestBuilderRejectsTypeMismatch(t *testing.T) {
	b := NewBuilder()
	node := value.Relation("node")
	require.NoError(t, b.DeclareIDB(node, mustSchema(t,
		value.ColumnBinding{Column: value.Column("i"), Type: value.TagInt},
	), fact.Lattice{}, false))

	err := b.Rule(NewAtom(node, map[value.Id]ColVal{
		value.Column("i"): Lit(value.String("not an int")),
	}))
	require.Error(t, err)
	require.True(t, ErrTypeMismatch.Is(err))
}

func TestFactRequiresEveryColumnBound(t *testing.T) {
	b := NewBuilder()
	node := value.Relation("node2")
	require.NoError(t, b.DeclareIDB(node, mustSchema(t,
		value.ColumnBinding{Column: value.Column("i"), Type: value.TagInt},
		value.ColumnBinding{Column: value.Column("j"), Type: value.TagInt},
	), fact.Lattice{}, false))

	err := b.Fact(NewAtom(node, map[value.Id]ColVal{
		value.Column("i"): Lit(value.Int(1)),
	}))
	require.Error(t, err)
	require.True(t, ErrColumnMissing.Is(err))

	require.NoError(t, b.Fact(NewAtom(node, map[value.Id]ColVal{
		value.Column("i"): Lit(value.Int(1)),
		value.Column("j"): Lit(value.Int(2)),
	})))
}
