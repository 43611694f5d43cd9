package stratify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/fact"
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

func TestStratifyTransitiveClosureSingleRecursiveStratum(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	edge := value.Relation("edge")
	path := value.Relation("path")
	x, y, z := value.Variable("x"), value.Variable("y"), value.Variable("z")

	require.NoError(b.DeclareEDB(edge, intSchema(t, "x", "y")))
	require.NoError(b.DeclareIDB(path, intSchema(t, "x", "y"), fact.Lattice{}, true))

	// path(x,y) :- edge(x,y).
	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)})),
	))
	// path(x,z) :- edge(x,y), path(y,z).
	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(z)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)})),
		ast.AtomTerm(ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(y), value.Column("y"): ast.Bind(z)})),
	))

	prog, err := b.Build()
	require.NoError(err)

	strata, err := Stratify(prog)
	require.NoError(err)
	// The EDB relation edge forms its own clause-less stratum, ordered
	// before path, which depends on it.
	require.Len(strata, 2)
	require.True(strata[1].IsRecursive)
	require.Contains(strata[1].Relations, path)
}

func TestStratifyRejectsNegationCycle(t *testing.T) {
	b := ast.NewBuilder()
	a := value.Relation("a")
	bb := value.Relation("b")
	x := value.Variable("x")

	require.NoError(t, b.DeclareIDB(a, intSchema(t, "x"), fact.Lattice{}, false))
	require.NoError(t, b.DeclareIDB(bb, intSchema(t, "x"), fact.Lattice{}, false))

	// a(x) :- not b(x).
	require.NoError(t, b.Rule(
		ast.NewAtom(a, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x)}),
		ast.NotInTerm(ast.NewAtom(bb, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x)})),
	))
	// b(x) :- not a(x).
	require.NoError(t, b.Rule(
		ast.NewAtom(bb, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x)}),
		ast.NotInTerm(ast.NewAtom(a, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x)})),
	))

	prog, err := b.Build()
	require.NoError(t, err)

	_, err = Stratify(prog)
	require.Error(t, err)
	require.True(t, ErrNotStratifiable.Is(err))
}

func TestStratifyPlacesNegatingRuleInLastStratum(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	node := value.Relation("node")
	live := value.Relation("live")
	dead := value.Relation("dead")
	i := value.Variable("i")

	require.NoError(b.DeclareEDB(node, intSchema(t, "i")))
	require.NoError(b.DeclareEDB(live, intSchema(t, "i")))
	require.NoError(b.DeclareIDB(dead, intSchema(t, "i"), fact.Lattice{}, true))

	require.NoError(b.Rule(
		ast.NewAtom(dead, map[value.Id]ast.ColVal{value.Column("i"): ast.Bind(i)}),
		ast.AtomTerm(ast.NewAtom(node, map[value.Id]ast.ColVal{value.Column("i"): ast.Bind(i)})),
		ast.NotInTerm(ast.NewAtom(live, map[value.Id]ast.ColVal{value.Column("i"): ast.Bind(i)})),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := Stratify(prog)
	require.NoError(err)
	require.NotEmpty(strata)

	// dead depends negatively on live and positively on node; neither is
	// itself a rule head here (both EDB), so dead ends up the sole
	// non-trivial stratum.
	last := strata[len(strata)-1]
	require.Contains(last.Relations, dead)
	require.False(last.IsRecursive)
}
