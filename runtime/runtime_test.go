package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/capability"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/runtime"
	"github.com/rhizomedb/rhizome-go/value"
)

func intSchema(t *testing.T, cols ...string) value.Schema {
	t.Helper()
	var bindings []value.ColumnBinding
	for _, c := range cols {
		bindings = append(bindings, value.ColumnBinding{Column: value.Column(c), Type: value.TagInt})
	}
	s, err := value.NewSchema(bindings...)
	require.NoError(t, err)
	return s
}

func buildTransitiveClosureProgram(t *testing.T) *runtime.Program {
	t.Helper()
	b := runtime.NewBuilder()
	edge := value.Relation("tc_edge")
	path := value.Relation("tc_path")
	x, y, z := value.Variable("x"), value.Variable("y"), value.Variable("z")
	colX, colY := value.Column("x"), value.Column("y")

	require.NoError(t, b.DeclareEDB(edge, intSchema(t, "x", "y")))
	require.NoError(t, b.DeclareIDB(path, intSchema(t, "x", "y"), fact.Lattice{}, true))
	require.NoError(t, b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)})),
	))
	require.NoError(t, b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(z)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)})),
		ast.AtomTerm(ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(y), colY: ast.Bind(z)})),
	))

	prog, err := b.Build()
	require.NoError(t, err)
	return prog
}

func TestRuntimeRunToFixpointTransitiveClosure(t *testing.T) {
	require := require.New(t)
	prog := buildTransitiveClosureProgram(t)
	rt := runtime.New(prog)

	edge := value.Relation("tc_edge")
	path := value.Relation("tc_path")
	colX, colY := value.Column("x"), value.Column("y")

	in, err := rt.RegisterEDB(edge)
	require.NoError(err)
	out, err := rt.RegisterIDB(path)
	require.NoError(err)

	require.NoError(in.Push(map[value.Id]interface{}{colX: 1, colY: 2}))
	require.NoError(in.Push(map[value.Id]interface{}{colX: 2, colY: 3}))
	require.NoError(in.Push(map[value.Id]interface{}{colX: "3", colY: int32(4)})) // cast coercion

	stats, err := rt.RunToFixpoint(context.Background())
	require.NoError(err)
	require.NotEmpty(stats.RunID)
	require.Equal(3, stats.TuplesIngested)

	rows, err := out.Drain()
	require.NoError(err)
	got := map[[2]int64]bool{}
	for _, tup := range rows {
		xv, _ := tup.Get(colX)
		yv, _ := tup.Get(colY)
		xi, _ := xv.AsInt()
		yi, _ := yv.AsInt()
		got[[2]int64{xi, yi}] = true
	}
	want := map[[2]int64]bool{
		{1, 2}: true, {2, 3}: true, {3, 4}: true,
		{1, 3}: true, {2, 4}: true, {1, 4}: true,
	}
	require.Equal(want, got)
}

func TestRuntimeGateDeniesUnauthorizedPush(t *testing.T) {
	require := require.New(t)
	prog := buildTransitiveClosureProgram(t)
	gate := capability.NewNativeSingle("reader", capability.DrainPerm|capability.RegisterPerm)
	rt := runtime.New(prog, runtime.WithGate(gate, "reader"))

	edge := value.Relation("tc_edge")
	in, err := rt.RegisterEDB(edge)
	require.NoError(err)

	err = in.Push(map[value.Id]interface{}{value.Column("x"): 1, value.Column("y"): 2})
	require.Error(err)
}

func TestRuntimeRegisterRejectsWrongKind(t *testing.T) {
	require := require.New(t)
	prog := buildTransitiveClosureProgram(t)
	rt := runtime.New(prog)

	path := value.Relation("tc_path")
	_, err := rt.RegisterEDB(path)
	require.Error(err)
	require.True(runtime.ErrWrongKind.Is(err))
}

func TestRuntimeCancelDiscardsInFlightRun(t *testing.T) {
	require := require.New(t)
	prog := buildTransitiveClosureProgram(t)
	rt := runtime.New(prog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before Tick ever polls it
	_, err := rt.Tick(ctx)
	require.Error(err)
}
