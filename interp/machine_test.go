package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/block"
	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/lower"
	"github.com/rhizomedb/rhizome-go/stratify"
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

// buildMachine constructs a Machine with one VersionedRelation per
// declared relation, wires a BufferedSource per EDB relation and a
// CollectingSink per output IDB relation, and returns everything the
// test needs to push input and read output.
func buildMachine(t *testing.T, prog *ast.Program) (*Machine, map[value.Id]*BufferedSource, map[value.Id]*CollectingSink) {
	t.Helper()
	relations := make(map[value.Id]*fact.VersionedRelation, len(prog.Declarations))
	sources := make(map[value.Id]Source)
	sinks := make(map[value.Id]Sink)
	bsrcs := make(map[value.Id]*BufferedSource)
	bsinks := make(map[value.Id]*CollectingSink)

	for id, decl := range prog.Declarations {
		relations[id] = fact.NewVersionedRelation(decl.Backend, decl.Lattice)
		if decl.Kind == ast.KindEDB {
			src := NewBufferedSource()
			sources[id] = src
			bsrcs[id] = src
		}
		if decl.Kind == ast.KindIDB && decl.IsOutput {
			sink := NewCollectingSink()
			sinks[id] = sink
			bsinks[id] = sink
		}
	}

	m := NewMachine(relations, block.NewMapStore(), sources, sinks, nil)
	return m, bsrcs, bsinks
}

func pushFact(t *testing.T, src *BufferedSource, rel value.Id, cols map[value.Id]value.Value) {
	t.Helper()
	src.Push(fact.NewTuple(rel, cols))
}

func TestMachineTransitiveClosure(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	edge := value.Relation("edge")
	path := value.Relation("path")
	x, y, z := value.Variable("x"), value.Variable("y"), value.Variable("z")
	colX, colY := value.Column("x"), value.Column("y")

	require.NoError(b.DeclareEDB(edge, intSchema(t, "x", "y")))
	require.NoError(b.DeclareIDB(path, intSchema(t, "x", "y"), fact.Lattice{}, true))

	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)})),
	))
	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(z)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{colX: ast.Bind(x), colY: ast.Bind(y)})),
		ast.AtomTerm(ast.NewAtom(path, map[value.Id]ast.ColVal{colX: ast.Bind(y), colY: ast.Bind(z)})),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := stratify.Stratify(prog)
	require.NoError(err)
	ramProg, err := lower.Lower(prog, strata)
	require.NoError(err)

	m, sources, sinks := buildMachine(t, prog)
	pushFact(t, sources[edge], edge, map[value.Id]value.Value{colX: value.Int(1), colY: value.Int(2)})
	pushFact(t, sources[edge], edge, map[value.Id]value.Value{colX: value.Int(2), colY: value.Int(3)})
	pushFact(t, sources[edge], edge, map[value.Id]value.Value{colX: value.Int(3), colY: value.Int(4)})

	_, err = m.Run(context.Background(), ramProg)
	require.NoError(err)

	got := map[[2]int64]bool{}
	for _, tup := range sinks[path].Drain() {
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

func TestMachineStratifiedNegation(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	node := value.Relation("node")
	live := value.Relation("live")
	dead := value.Relation("dead")
	i := value.Variable("i")
	colI := value.Column("i")

	require.NoError(b.DeclareEDB(node, intSchema(t, "i")))
	require.NoError(b.DeclareEDB(live, intSchema(t, "i")))
	require.NoError(b.DeclareIDB(dead, intSchema(t, "i"), fact.Lattice{}, true))

	require.NoError(b.Rule(
		ast.NewAtom(dead, map[value.Id]ast.ColVal{colI: ast.Bind(i)}),
		ast.AtomTerm(ast.NewAtom(node, map[value.Id]ast.ColVal{colI: ast.Bind(i)})),
		ast.NotInTerm(ast.NewAtom(live, map[value.Id]ast.ColVal{colI: ast.Bind(i)})),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := stratify.Stratify(prog)
	require.NoError(err)
	ramProg, err := lower.Lower(prog, strata)
	require.NoError(err)

	m, sources, sinks := buildMachine(t, prog)
	pushFact(t, sources[node], node, map[value.Id]value.Value{colI: value.Int(1)})
	pushFact(t, sources[node], node, map[value.Id]value.Value{colI: value.Int(2)})
	pushFact(t, sources[node], node, map[value.Id]value.Value{colI: value.Int(3)})
	pushFact(t, sources[live], live, map[value.Id]value.Value{colI: value.Int(2)})

	_, err = m.Run(context.Background(), ramProg)
	require.NoError(err)

	got := map[int64]bool{}
	for _, tup := range sinks[dead].Drain() {
		v, _ := tup.Get(colI)
		iv, _ := v.AsInt()
		got[iv] = true
	}
	require.Equal(map[int64]bool{1: true, 3: true}, got)
}

func TestMachineAggregationSum(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	score := value.Relation("score")
	total := value.Relation("total")
	s, tVar := value.Variable("s"), value.Variable("t")
	colS, colT := value.Column("s"), value.Column("t")

	require.NoError(b.DeclareEDB(score, intSchema(t, "s")))
	require.NoError(b.DeclareIDB(total, intSchema(t, "t"), fact.Lattice{}, true))

	agg := &ast.Aggregation{
		Target:   tVar,
		Factory:  closures.Builtins["sum"],
		GroupBy:  nil,
		ValueVar: s,
		Inner: []ast.BodyTerm{
			ast.AtomTerm(ast.NewAtom(score, map[value.Id]ast.ColVal{colS: ast.Bind(s)})),
		},
	}
	require.NoError(b.Rule(
		ast.NewAtom(total, map[value.Id]ast.ColVal{colT: ast.Bind(tVar)}),
		ast.AggregationTerm(agg),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := stratify.Stratify(prog)
	require.NoError(err)
	ramProg, err := lower.Lower(prog, strata)
	require.NoError(err)

	m, sources, sinks := buildMachine(t, prog)
	pushFact(t, sources[score], score, map[value.Id]value.Value{colS: value.Int(3)})
	pushFact(t, sources[score], score, map[value.Id]value.Value{colS: value.Int(5)})
	pushFact(t, sources[score], score, map[value.Id]value.Value{colS: value.Int(7)})

	_, err = m.Run(context.Background(), ramProg)
	require.NoError(err)

	rows := sinks[total].Drain()
	require.Len(rows, 1)
	v, _ := rows[0].Get(colT)
	iv, _ := v.AsInt()
	require.Equal(int64(15), iv)
}
