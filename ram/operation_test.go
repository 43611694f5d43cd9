package ram_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

func TestSearchChainTerminatesInProject(t *testing.T) {
	edge := value.Relation("edge")
	path := value.Relation("path")
	aliasE := value.NewAlias(edge, 0)
	colX, colY := value.Column("x"), value.Column("y")

	project := &ram.Project{
		Relation: path,
		Version:  fact.VersionNew,
		Terms: map[value.Id]ram.Term{
			colX: ram.Col(aliasE, colX),
			colY: ram.Col(aliasE, colY),
		},
	}
	search := &ram.Search{
		Relation: edge,
		Version:  fact.VersionTotal,
		Alias:    aliasE,
		Bindings: map[value.Id]ram.Term{},
		Child:    project,
	}

	require.Equal(t, edge, search.Relation)
	child, ok := search.Child.(*ram.Project)
	require.True(t, ok)
	require.Same(t, project, child)
	require.Equal(t, path, child.Relation)
}

func TestReduceWrapsYieldingInnerChild(t *testing.T) {
	edge := value.Relation("edge")
	count := value.Relation("count")
	aliasE := value.NewAlias(edge, 0)

	inner := &ram.Search{
		Relation: edge,
		Version:  fact.VersionTotal,
		Alias:    aliasE,
		Child:    &ram.Yield{},
	}
	reduce := &ram.Reduce{
		Relation:     count,
		Version:      fact.VersionNew,
		TargetColumn: value.Column("n"),
		GroupByCols:  nil,
		ValueArgs:    nil,
		Child:        inner,
	}

	search, ok := reduce.Child.(*ram.Search)
	require.True(t, ok)
	_, ok = search.Child.(*ram.Yield)
	require.True(t, ok)
	require.Equal(t, count, reduce.Relation)
}

func TestFormulasAttachToEveryOperationKind(t *testing.T) {
	rel := value.Relation("r")
	notIn := ram.NotIn(rel, map[value.Id]ram.Term{})

	search := &ram.Search{Relation: rel, Formulas: []ram.Formula{notIn}}
	project := &ram.Project{Relation: rel, Formulas: []ram.Formula{notIn}}
	yield := &ram.Yield{Formulas: []ram.Formula{notIn}}
	reduce := &ram.Reduce{Relation: rel, Formulas: []ram.Formula{notIn}}

	require.Len(t, search.Formulas, 1)
	require.Len(t, project.Formulas, 1)
	require.Len(t, yield.Formulas, 1)
	require.Len(t, reduce.Formulas, 1)
}
