package ram

import (
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/value"
)

// Statement is a top-level (or Loop-body) instruction the interpreter
// executes in order (spec.md §4.F, §4.H).
type Statement interface {
	isStatement()
}

// Insert executes Op's operator tree once. If IsGround, the interpreter
// runs it at most once per program execution regardless of how many times
// the enclosing Loop iterates (tracked by pointer identity, since a
// ground Insert is only ever emitted once by the lowerer).
type Insert struct {
	Op       Operation
	IsGround bool
}

func (*Insert) isStatement() {}

// Merge applies the target relation's merge policy, folding From into
// Into.
type Merge struct {
	Relation value.Id
	From     fact.Version
	Into     fact.Version
}

func (*Merge) isStatement() {}

// Swap exchanges the contents of two versions of Relation.
type Swap struct {
	Relation value.Id
	A, B     fact.Version
}

func (*Swap) isStatement() {}

// Purge empties one version of Relation.
type Purge struct {
	Relation value.Id
	Version  fact.Version
}

func (*Purge) isStatement() {}

// Loop repeats Body until an Exit statement inside it signals
// termination.
type Loop struct {
	Body []Statement
}

func (*Loop) isStatement() {}

// Exit terminates the enclosing Loop iff every listed relation's delta
// version is empty. The lowerer must list every head relation of the
// stratum — spec.md §9 notes this as the load-bearing correctness
// condition for termination.
type Exit struct {
	Relations []value.Id
}

func (*Exit) isStatement() {}

// Sources drains the current epoch's EDB input channels into each EDB
// relation's delta and total versions.
type Sources struct{}

func (*Sources) isStatement() {}

// Sinks appends every tuple of each listed IDB relation (visited in the
// order Relations lists them; the lowerer sorts them by relation name,
// not by declaration order) to the corresponding output channel.
type Sinks struct {
	Relations []value.Id
}

func (*Sinks) isStatement() {}

// Program is the full lowered plan: a flat list of top-level statements.
type Program struct {
	Statements []Statement
}
