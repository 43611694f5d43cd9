package ram_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

func TestProgramIsFlatStatementSequence(t *testing.T) {
	rel := value.Relation("path")
	prog := &ram.Program{
		Statements: []ram.Statement{
			&ram.Sources{},
			&ram.Loop{
				Body: []ram.Statement{
					&ram.Merge{Relation: rel, From: fact.VersionNew, Into: fact.VersionTotal},
					&ram.Swap{Relation: rel, A: fact.VersionNew, B: fact.VersionDelta},
					&ram.Exit{Relations: []value.Id{rel}},
				},
			},
			&ram.Sinks{Relations: []value.Id{rel}},
		},
	}

	require.Len(t, prog.Statements, 3)
	loop, ok := prog.Statements[1].(*ram.Loop)
	require.True(t, ok)
	require.Len(t, loop.Body, 3)

	exit, ok := loop.Body[2].(*ram.Exit)
	require.True(t, ok)
	require.Equal(t, []value.Id{rel}, exit.Relations)
}

func TestInsertGroundFlagDefaultsFalse(t *testing.T) {
	ins := &ram.Insert{Op: &ram.Project{Relation: value.Relation("r"), Version: fact.VersionTotal}}
	require.False(t, ins.IsGround)

	ground := &ram.Insert{Op: ins.Op, IsGround: true}
	require.True(t, ground.IsGround)
}

func TestPurgeAndMergeCarryRelationAndVersions(t *testing.T) {
	rel := value.Relation("edge")
	p := &ram.Purge{Relation: rel, Version: fact.VersionDelta}
	require.Equal(t, rel, p.Relation)
	require.Equal(t, fact.VersionDelta, p.Version)

	m := &ram.Merge{Relation: rel, From: fact.VersionDelta, Into: fact.VersionTotal}
	require.Equal(t, fact.VersionDelta, m.From)
	require.Equal(t, fact.VersionTotal, m.Into)
}
