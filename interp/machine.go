package interp

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rhizomedb/rhizome-go/block"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

// Stats summarizes a single Run.
type Stats struct {
	Iterations     int
	TuplesIngested int
	TuplesEmitted  int

	// IngestedFacts is every tuple Run's Sources statement ingested,
	// content-addressed — the host's view of each fact's own CID and
	// column links, per spec.md §3. Empty if Sources ingested nothing.
	IngestedFacts []fact.EDBFact
	// LastEpoch is the CID of the block.Epoch Run appended to the chain
	// for this tick's ingested facts, or "" if nothing was ingested.
	LastEpoch value.CID
}

// Machine executes a ram.Program against a fixed set of versioned
// relations, a block store, and the sources/sinks a runtime registered
// for EDB/IDB relations. One Machine corresponds to one embedded
// program's lifetime; Run may be called repeatedly (each call is one
// "tick" over whatever tuples the sources have accumulated since the
// last call).
type Machine struct {
	relations map[value.Id]*fact.VersionedRelation
	store     block.Store
	log       *logrus.Entry

	// MaxLoopIterations bounds how many times a single Loop statement may
	// iterate before Run gives up and returns ErrInternal, guarding
	// against a host-supplied predicate or aggregate that never lets
	// delta go empty. Zero means unlimited.
	MaxLoopIterations int

	// Parallel enables the optional parallel-rule execution path
	// (parallel.go): consecutive *ram.Insert statements run concurrently
	// instead of one at a time, as long as none of them reads a relation
	// an earlier one in the same run writes. Off by
	// default; spec.md §5 marks this optimization optional, never
	// required for correctness.
	Parallel bool

	// EpochBatchSize bounds how many ingested facts go into a single
	// block.Epoch record; a tick that ingests more than this many facts
	// chains multiple epochs instead of one. Zero means one epoch per
	// tick regardless of size.
	EpochBatchSize int

	ioMu    sync.RWMutex
	sources map[value.Id]Source
	sinks   map[value.Id]Sink

	// epochMu guards epochHead, the CID of the most recently appended
	// block.Epoch, so the append-only chain stays consistent even if a
	// host somehow drives two Runs concurrently against one Machine.
	epochMu   sync.Mutex
	epochHead value.CID

	groundDone map[*ram.Insert]bool
}

// NewMachine builds a Machine. relations must contain an entry for every
// relation the program (in any tick) will reference; sources/sinks may
// have fewer entries than there are EDB/IDB relations (an EDB with no
// source simply never ingests, an IDB with no sink is simply never
// drained).
func NewMachine(relations map[value.Id]*fact.VersionedRelation, store block.Store, sources map[value.Id]Source, sinks map[value.Id]Sink, log *logrus.Entry) *Machine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Machine{
		relations:  relations,
		store:      store,
		sources:    sources,
		sinks:      sinks,
		log:        log,
		groundDone: make(map[*ram.Insert]bool),
	}
}

// AddSource registers src as the input feed for rel, overwriting any
// prior source for that relation. Safe to call while a Run is in flight;
// the new source is visible starting with the next Sources statement.
func (m *Machine) AddSource(rel value.Id, src Source) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.sources[rel] = src
}

// EpochHead returns the CID of the most recently appended epoch, or ""
// if no tick has ingested any tuple yet. A host can pass this to
// block.Walk to replay the full input history.
func (m *Machine) EpochHead() value.CID {
	m.epochMu.Lock()
	defer m.epochMu.Unlock()
	return m.epochHead
}

// AddSink registers sink as the output destination for rel, overwriting
// any prior sink for that relation.
func (m *Machine) AddSink(rel value.Id, sink Sink) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.sinks[rel] = sink
}

// Run executes prog.Statements in order, honoring ctx cancellation at
// every statement boundary (spec.md §5). On any error, including
// cancellation, it discards all new/delta contents; total remains valid.
// A cancelled run returns ErrCancelled.
func (m *Machine) Run(ctx context.Context, prog *ram.Program) (Stats, error) {
	var stats Stats
	_, err := m.execStatements(ctx, prog.Statements, &stats)
	if err != nil {
		m.discardNewAndDelta()
		if ctx.Err() != nil {
			return stats, ErrCancelled.New()
		}
		return stats, err
	}
	return stats, nil
}

func (m *Machine) discardNewAndDelta() {
	for _, vr := range m.relations {
		vr.Mu.Lock()
		vr.Purge(fact.VersionNew)
		vr.Purge(fact.VersionDelta)
		vr.Mu.Unlock()
	}
}

// execStatements runs stmts in order, returning terminate=true the
// moment an Exit statement's condition is satisfied (the caller, if it
// is a Loop, stops iterating). When m.Parallel is set, a maximal
// consecutive run of *ram.Insert statements is dispatched at once via
// execInsertRunParallel instead of one at a time (spec.md §5
// "Parallelism opportunities"). insertRun ends a run before any Insert
// that reads a relation an earlier Insert of the same run writes, so an
// Insert never runs concurrently with one whose output it depends on.
func (m *Machine) execStatements(ctx context.Context, stmts []ram.Statement, stats *Stats) (bool, error) {
	for i := 0; i < len(stmts); {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if m.Parallel {
			if run, next := insertRun(stmts, i); len(run) > 1 {
				if _, err := m.execInsertRunParallel(ctx, run); err != nil {
					return false, err
				}
				i = next
				continue
			}
		}

		terminate, err := m.execStatement(ctx, stmts[i], stats)
		if err != nil {
			return false, err
		}
		if terminate {
			return true, nil
		}
		i++
	}
	return false, nil
}

// insertRun returns the maximal run of *ram.Insert statements starting
// at i in which no Insert reads a relation written by an earlier Insert
// of the run, plus the index of the first statement after that run.
func insertRun(stmts []ram.Statement, i int) ([]*ram.Insert, int) {
	var run []*ram.Insert
	written := make(map[value.Id]bool)
	j := i
	for j < len(stmts) {
		ins, ok := stmts[j].(*ram.Insert)
		if !ok {
			break
		}
		dependent := false
		for rel := range collectReadRelations(ins.Op) {
			if written[rel] {
				dependent = true
			}
		}
		if dependent && len(run) > 0 {
			break
		}
		rel, _ := writeTarget(ins.Op)
		written[rel] = true
		run = append(run, ins)
		j++
	}
	return run, j
}

func (m *Machine) execStatement(ctx context.Context, st ram.Statement, stats *Stats) (bool, error) {
	switch s := st.(type) {
	case *ram.Sources:
		facts, err := m.execSources()
		stats.TuplesIngested += len(facts)
		stats.IngestedFacts = append(stats.IngestedFacts, facts...)
		if err != nil {
			return false, err
		}
		if len(facts) > 0 {
			epochCID, err := m.recordEpochs(facts)
			if err != nil {
				return false, err
			}
			stats.LastEpoch = epochCID
		}
		return false, nil

	case *ram.Insert:
		_, err := m.execInsert(s)
		return false, err

	case *ram.Merge:
		return false, m.execMerge(s)

	case *ram.Swap:
		return false, m.execSwap(s)

	case *ram.Purge:
		return false, m.execPurge(s)

	case *ram.Loop:
		iterations := 0
		for {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if m.MaxLoopIterations > 0 && iterations >= m.MaxLoopIterations {
				return false, ErrInternal.New("loop exceeded configured iteration cap")
			}
			iterations++
			stats.Iterations++
			terminate, err := m.execStatements(ctx, s.Body, stats)
			if err != nil {
				return false, err
			}
			if terminate {
				return false, nil
			}
		}

	case *ram.Exit:
		return m.execExit(s), nil

	case *ram.Sinks:
		n, err := m.execSinks(s)
		stats.TuplesEmitted += n
		return false, err

	default:
		return false, ErrInternal.New("unrecognized statement type")
	}
}

// execSources drains every registered source, content-addressing and
// inserting each tuple into its relation's delta and total versions (so
// both semi-naive delta variants and total-reading rules see it), and
// returns every tuple actually ingested (deduplicated against delta) as a
// fact.EDBFact carrying the CID the block store assigned it. Relations
// are visited in sorted order so the resulting slice — and the epoch
// built from it — are deterministic across ticks with the same input.
func (m *Machine) execSources() ([]fact.EDBFact, error) {
	m.ioMu.RLock()
	sources := make(map[value.Id]Source, len(m.sources))
	for rel, src := range m.sources {
		sources[rel] = src
	}
	m.ioMu.RUnlock()

	rels := make([]value.Id, 0, len(sources))
	for rel := range sources {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Name() < rels[j].Name() })

	var ingested []fact.EDBFact
	for _, rel := range rels {
		vr, ok := m.relations[rel]
		if !ok {
			return ingested, ErrInternal.New("source registered for undeclared relation " + rel.Name())
		}
		tuples := sources[rel].Drain()
		if len(tuples) == 0 {
			continue
		}
		vr.Mu.Lock()
		for _, t := range tuples {
			edbFact, err := storeTuple(m.store, t)
			if err != nil {
				vr.Mu.Unlock()
				return ingested, err
			}
			if vr.At(fact.VersionDelta).Insert(t) {
				vr.At(fact.VersionTotal).Insert(t)
				ingested = append(ingested, edbFact)
			}
		}
		vr.Mu.Unlock()
	}
	return ingested, nil
}

// recordEpochs batches facts' CIDs into one or more block.Epoch records
// chained onto the Machine's current epoch head and persists them,
// returning the last epoch's CID (spec.md §2 component I, §3, §6).
// EpochBatchSize caps how many tuples go into a single epoch; a tick
// that ingests more than that many facts chains several epochs instead
// of one oversized record.
func (m *Machine) recordEpochs(facts []fact.EDBFact) (value.CID, error) {
	chunkSize := len(facts)
	if m.EpochBatchSize > 0 && m.EpochBatchSize < chunkSize {
		chunkSize = m.EpochBatchSize
	}

	m.epochMu.Lock()
	defer m.epochMu.Unlock()

	var last value.CID
	for start := 0; start < len(facts); start += chunkSize {
		end := start + chunkSize
		if end > len(facts) {
			end = len(facts)
		}
		cids := make([]value.CID, end-start)
		for i, f := range facts[start:end] {
			cids[i] = f.CID
		}

		var prev *value.CID
		if m.epochHead != "" {
			head := m.epochHead
			prev = &head
		}
		cid, err := block.PutEpoch(m.store, block.Epoch{Prev: prev, Tuples: cids})
		if err != nil {
			return "", err
		}
		m.epochHead = cid
		last = cid
	}
	return last, nil
}

func (m *Machine) execInsert(ins *ram.Insert) (int, error) {
	if ins.IsGround && m.groundDone[ins] {
		return 0, nil
	}
	writeRel, _ := writeTarget(ins.Op)
	reads := collectReadRelations(ins.Op)

	vrs, unlock, err := m.acquireLocks(writeRel, reads)
	if err != nil {
		return 0, err
	}
	defer unlock()

	n, err := m.eval(ins.Op, vrs, ram.Env{}, value.Value{}, nil)
	if err != nil {
		return n, err
	}
	if ins.IsGround {
		m.groundDone[ins] = true
	}
	return n, nil
}

func (m *Machine) execMerge(s *ram.Merge) error {
	vr, ok := m.relations[s.Relation]
	if !ok {
		return ErrInternal.New("merge of undeclared relation " + s.Relation.Name())
	}
	vr.Mu.Lock()
	defer vr.Mu.Unlock()
	beforeInto := vr.At(s.Into).Len()
	beforeFrom := vr.At(s.From).Len()
	n, err := vr.MergeInto(s.From, s.Into)
	if err != nil {
		return err
	}
	afterInto := vr.At(s.Into).Len()
	if afterInto < beforeInto || afterInto < beforeFrom {
		return ErrInternal.New("merge violated monotonicity invariant for relation " + s.Relation.Name())
	}
	_ = n
	return nil
}

func (m *Machine) execSwap(s *ram.Swap) error {
	vr, ok := m.relations[s.Relation]
	if !ok {
		return ErrInternal.New("swap of undeclared relation " + s.Relation.Name())
	}
	vr.Mu.Lock()
	defer vr.Mu.Unlock()
	vr.Swap(s.A, s.B)
	return nil
}

func (m *Machine) execPurge(s *ram.Purge) error {
	vr, ok := m.relations[s.Relation]
	if !ok {
		return ErrInternal.New("purge of undeclared relation " + s.Relation.Name())
	}
	vr.Mu.Lock()
	defer vr.Mu.Unlock()
	vr.Purge(s.Version)
	return nil
}

// execExit reports whether every listed relation's delta version is
// empty (spec.md §4.H: "terminate when every delta is empty").
func (m *Machine) execExit(s *ram.Exit) bool {
	for _, rel := range s.Relations {
		vr, ok := m.relations[rel]
		if !ok {
			continue
		}
		vr.Mu.RLock()
		empty := vr.IsEmpty(fact.VersionDelta)
		vr.Mu.RUnlock()
		if !empty {
			return false
		}
	}
	return true
}

func (m *Machine) execSinks(s *ram.Sinks) (int, error) {
	m.ioMu.RLock()
	sinks := make(map[value.Id]Sink, len(m.sinks))
	for rel, sink := range m.sinks {
		sinks[rel] = sink
	}
	m.ioMu.RUnlock()

	total := 0
	for _, rel := range s.Relations {
		sink, ok := sinks[rel]
		if !ok {
			continue
		}
		vr, ok := m.relations[rel]
		if !ok {
			return total, ErrInternal.New("sink registered for undeclared relation " + rel.Name())
		}
		vr.Mu.RLock()
		tuples := vr.At(fact.VersionTotal).Tuples()
		vr.Mu.RUnlock()
		for _, t := range tuples {
			if err := sink.Push(t); err != nil {
				return total, ErrSinkPushError.New(rel.Name(), err.Error())
			}
			total++
		}
	}
	return total, nil
}

// acquireLocks takes a write lock on writeRel and read locks on every
// other relation in reads, in a fixed order (by relation name) to
// exclude deadlock with a concurrently-running statement touching an
// overlapping relation set (spec.md §5). A relation that is both the
// write target and read from (a rule joining against its own relation)
// is locked exactly once, for writing.
func (m *Machine) acquireLocks(writeRel value.Id, reads map[value.Id]bool) (map[value.Id]*fact.VersionedRelation, func(), error) {
	ids := make([]value.Id, 0, len(reads)+1)
	seen := make(map[value.Id]bool, len(reads)+1)
	add := func(id value.Id) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(writeRel)
	for id := range reads {
		add(id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Name() < ids[j].Name() })

	vrs := make(map[value.Id]*fact.VersionedRelation, len(ids))
	for i, id := range ids {
		vr, ok := m.relations[id]
		if !ok {
			// unwind whatever we already locked before failing
			for j := i - 1; j >= 0; j-- {
				prev := m.relations[ids[j]]
				if ids[j] == writeRel {
					prev.Mu.Unlock()
				} else {
					prev.Mu.RUnlock()
				}
			}
			return nil, nil, ErrInternal.New("reference to undeclared relation " + id.Name())
		}
		if id == writeRel {
			vr.Mu.Lock()
		} else {
			vr.Mu.RLock()
		}
		vrs[id] = vr
	}

	unlock := func() {
		for i := len(ids) - 1; i >= 0; i-- {
			id := ids[i]
			vr := m.relations[id]
			if id == writeRel {
				vr.Mu.Unlock()
			} else {
				vr.Mu.RUnlock()
			}
		}
	}
	return vrs, unlock, nil
}

// writeTarget walks op's Search chain to the leaf Project or Reduce and
// returns the relation+version it writes.
func writeTarget(op ram.Operation) (value.Id, fact.Version) {
	switch t := op.(type) {
	case *ram.Search:
		return writeTarget(t.Child)
	case *ram.Project:
		return t.Relation, t.Version
	case *ram.Reduce:
		return t.Relation, t.Version
	default:
		panic("interp: operator tree does not terminate in Project or Reduce")
	}
}

// collectReadRelations returns every relation op's Search/NotIn nodes
// read from, used to compute the read-lock set for execInsert.
func collectReadRelations(op ram.Operation) map[value.Id]bool {
	out := make(map[value.Id]bool)
	addFormulas := func(fs []ram.Formula) {
		for _, f := range fs {
			if f.Kind == ram.FormulaNotIn {
				out[f.NotInRelation] = true
			}
		}
	}
	var walk func(ram.Operation)
	walk = func(o ram.Operation) {
		switch t := o.(type) {
		case *ram.Search:
			out[t.Relation] = true
			addFormulas(t.Formulas)
			walk(t.Child)
		case *ram.Project:
			addFormulas(t.Formulas)
		case *ram.Yield:
			addFormulas(t.Formulas)
		case *ram.Reduce:
			addFormulas(t.Formulas)
			walk(t.Child)
		}
	}
	walk(op)
	return out
}
