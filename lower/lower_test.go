package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
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

func countOps(t *testing.T, prog *ram.Program) (inserts, merges, swaps, purges, loops, exits int) {
	t.Helper()
	var walk func(stmts []ram.Statement)
	walk = func(stmts []ram.Statement) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ram.Insert:
				inserts++
			case *ram.Merge:
				merges++
			case *ram.Swap:
				swaps++
			case *ram.Purge:
				purges++
			case *ram.Exit:
				exits++
			case *ram.Loop:
				loops++
				walk(st.Body)
			}
		}
	}
	walk(prog.Statements)
	return
}

func TestLowerTransitiveClosureProducesTwoVariantsPerRecursiveRule(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	edge := value.Relation("edge")
	path := value.Relation("path")
	x, y, z := value.Variable("x"), value.Variable("y"), value.Variable("z")

	require.NoError(b.DeclareEDB(edge, intSchema(t, "x", "y")))
	require.NoError(b.DeclareIDB(path, intSchema(t, "x", "y"), fact.Lattice{}, true))

	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)})),
	))
	require.NoError(b.Rule(
		ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(z)}),
		ast.AtomTerm(ast.NewAtom(edge, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(x), value.Column("y"): ast.Bind(y)})),
		ast.AtomTerm(ast.NewAtom(path, map[value.Id]ast.ColVal{value.Column("x"): ast.Bind(y), value.Column("y"): ast.Bind(z)})),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := stratify.Stratify(prog)
	require.NoError(err)
	// edge's clause-less stratum lowers to no statements.
	require.Len(strata, 2)

	ramProg, err := Lower(prog, strata)
	require.NoError(err)

	require.IsType(&ram.Sources{}, ramProg.Statements[0])
	require.IsType(&ram.Loop{}, ramProg.Statements[1])
	require.IsType(&ram.Sinks{}, ramProg.Statements[2])

	loop := ramProg.Statements[1].(*ram.Loop)
	_, merges, swaps, purges, _, exits := countOps(t, &ram.Program{Statements: loop.Body})
	// one merge/swap/purge per head relation (path only) and one Exit.
	require.Equal(1, merges)
	require.Equal(1, swaps)
	require.Equal(1, purges)
	require.Equal(1, exits)

	var inserts []*ram.Insert
	for _, st := range loop.Body {
		if ins, ok := st.(*ram.Insert); ok {
			inserts = append(inserts, ins)
		}
	}
	// rule 1 has one positive atom -> 1 variant; rule 2 has two -> 2 variants.
	require.Len(inserts, 3)
}

func TestLowerNonRecursiveStratumReadsTotal(t *testing.T) {
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
	strata, err := stratify.Stratify(prog)
	require.NoError(err)

	ramProg, err := Lower(prog, strata)
	require.NoError(err)

	var insert *ram.Insert
	for _, st := range ramProg.Statements {
		if ins, ok := st.(*ram.Insert); ok {
			insert = ins
		}
	}
	require.NotNil(insert)
	search, ok := insert.Op.(*ram.Search)
	require.True(ok)
	require.Equal(fact.VersionTotal, search.Version)

	proj, ok := search.Child.(*ram.Project)
	require.True(ok)
	require.Equal(fact.VersionTotal, proj.Version)
	// The NotIn follows the last atom, so it rides on the Project.
	require.Len(proj.Formulas, 1)
	require.Equal(ram.FormulaNotIn, proj.Formulas[0].Kind)
}

type sumFactory struct{}

func (sumFactory) Name() string { return "sum" }
func (sumFactory) New() closures.Accumulator { return nil }

func TestLowerAggregationProducesReduce(t *testing.T) {
	require := require.New(t)
	b := ast.NewBuilder()
	score := value.Relation("score")
	total := value.Relation("total")
	s, player, t_ := value.Variable("s"), value.Variable("player"), value.Variable("t")

	require.NoError(b.DeclareEDB(score, intSchema(t, "player", "points")))
	require.NoError(b.DeclareIDB(total, intSchema(t, "player", "t"), fact.Lattice{}, true))

	agg := &ast.Aggregation{
		Target:   t_,
		Factory:  sumFactory{},
		GroupBy:  []value.Id{player},
		ValueVar: s,
		Inner: []ast.BodyTerm{
			ast.AtomTerm(ast.NewAtom(score, map[value.Id]ast.ColVal{
				value.Column("player"): ast.Bind(player),
				value.Column("points"): ast.Bind(s),
			})),
		},
	}
	require.NoError(b.Rule(
		ast.NewAtom(total, map[value.Id]ast.ColVal{value.Column("player"): ast.Bind(player), value.Column("t"): ast.Bind(t_)}),
		ast.AggregationTerm(agg),
	))

	prog, err := b.Build()
	require.NoError(err)
	strata, err := stratify.Stratify(prog)
	require.NoError(err)

	ramProg, err := Lower(prog, strata)
	require.NoError(err)

	var insert *ram.Insert
	for _, st := range ramProg.Statements {
		if ins, ok := st.(*ram.Insert); ok {
			insert = ins
		}
	}
	require.NotNil(insert)
	reduce, ok := insert.Op.(*ram.Reduce)
	require.True(ok)
	require.Equal(value.Column("t"), reduce.TargetColumn)
	require.Equal([]value.Id{value.Column("player")}, reduce.GroupByCols)
	require.IsType(&ram.Search{}, reduce.Child)
}
