// Package runtime is the embedding surface (spec.md §6, SPEC_FULL.md §8):
// a host builds a Program once via Builder, then drives a Runtime's
// input/output channels and tick loop against it, never touching
// ast/stratify/lower/ram/interp directly.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/block"
	"github.com/rhizomedb/rhizome-go/capability"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/interp"
	"github.com/rhizomedb/rhizome-go/value"
)

// Runtime error kinds layered over interp's: these name conditions that
// only make sense at the embedding boundary (an unregistered or
// mis-kinded relation, a capability check), never inside the interpreter
// itself.
var (
	// ErrUnknownRelation is returned by RegisterEDB/RegisterIDB for a
	// relation the Program never declared.
	ErrUnknownRelation = errors.NewKind("runtime: relation %q was not declared")
	// ErrWrongKind is returned when RegisterEDB is called on an IDB
	// relation or RegisterIDB on an EDB relation.
	ErrWrongKind = errors.NewKind("runtime: relation %q is not a %s relation")
)

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithStore supplies the block.Store the Runtime content-addresses every
// ingested EDB tuple into. Defaults to a block.BufferedStore wrapping a
// fresh block.MapStore, sized by Config.BlockStoreBufferSize.
func WithStore(s block.Store) Option {
	return func(r *Runtime) { r.store = s }
}

// WithGate scopes every Register/Push/Drain call behind gate, checked
// under the given token identity. Defaults to capability.Open{} (every
// call allowed, token ignored).
func WithGate(gate capability.Gate, token string) Option {
	return func(r *Runtime) { r.gate = gate; r.token = token }
}

// WithLogger supplies the logrus.Entry the Runtime and its interp.Machine
// log through. Defaults to an entry on logrus's standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Runtime) { r.log = log }
}

// WithConfig overrides the Runtime's tunables. Defaults to DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(r *Runtime) { r.config = cfg }
}

// Runtime binds one Program to a live set of versioned relations, a block
// store, and whatever sources/sinks a host has registered, and drives
// Tick/RunToFixpoint over them.
type Runtime struct {
	prog    *Program
	store   block.Store
	gate    capability.Gate
	token   string
	log     *logrus.Entry
	config  Config

	relations map[value.Id]*fact.VersionedRelation
	sources   map[value.Id]*interp.BufferedSource
	sinks     map[value.Id]*interp.CollectingSink
	machine   *interp.Machine

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// New builds a Runtime for p. Every relation p declared gets a backing
// fact.VersionedRelation immediately; RegisterEDB/RegisterIDB create a
// relation's input buffer or output sink on its first registration.
func New(p *Program, opts ...Option) *Runtime {
	r := &Runtime{
		prog:      p,
		gate:      capability.Open{},
		log:       logrus.NewEntry(logrus.StandardLogger()),
		config:    DefaultConfig(),
		relations: make(map[value.Id]*fact.VersionedRelation, len(p.declarations)),
		sources:   make(map[value.Id]*interp.BufferedSource),
		sinks:     make(map[value.Id]*interp.CollectingSink),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = block.NewBufferedStore(block.NewMapStore(), r.config.BlockStoreBufferSize)
	}
	for id, decl := range p.declarations {
		r.relations[id] = fact.NewVersionedRelation(decl.Backend, decl.Lattice)
	}

	sources := make(map[value.Id]interp.Source, len(r.sources))
	sinks := make(map[value.Id]interp.Sink, len(r.sinks))
	r.machine = interp.NewMachine(r.relations, r.store, sources, sinks, r.log)
	r.machine.MaxLoopIterations = r.config.LoopIterationCap
	r.machine.Parallel = r.config.ParallelExecution
	r.machine.EpochBatchSize = r.config.EpochBatchSize
	return r
}

// InputChannel lets a host push tuples onto a registered EDB relation.
type InputChannel struct {
	rt  *Runtime
	rel value.Id
}

// Push coerces cols against rel's declared schema (spf13/cast normalizes
// the permissive interface{} values a host supplies: a plain int for an
// int column, a numeric string, etc.) and appends the resulting tuple to
// the relation's pending input buffer; it is picked up by the next Tick's
// Sources statement.
func (ch InputChannel) Push(cols map[value.Id]interface{}) error {
	if err := ch.rt.gate.Allowed(ch.rt.token, ch.rel.Name(), capability.PushPerm); err != nil {
		return err
	}
	decl := ch.rt.prog.declarations[ch.rel]
	resolved, err := coerceColumns(decl.Schema, cols)
	if err != nil {
		return err
	}
	ch.rt.sources[ch.rel].Push(fact.NewTuple(ch.rel, resolved))
	return nil
}

// OutputChannel lets a host drain a registered IDB relation's derived
// tuples since the last Drain.
type OutputChannel struct {
	rt  *Runtime
	rel value.Id
}

// Drain returns and clears every tuple collected for this relation.
func (ch OutputChannel) Drain() ([]fact.Tuple, error) {
	if err := ch.rt.gate.Allowed(ch.rt.token, ch.rel.Name(), capability.DrainPerm); err != nil {
		return nil, err
	}
	return ch.rt.sinks[ch.rel].Drain(), nil
}

// RegisterEDB gates and wires an input channel for rel, which must have
// been declared KindEDB. Calling it twice for the same relation is safe
// and returns a channel bound to the same underlying buffer.
func (r *Runtime) RegisterEDB(rel value.Id) (InputChannel, error) {
	if err := r.gate.Allowed(r.token, rel.Name(), capability.RegisterPerm); err != nil {
		return InputChannel{}, err
	}
	decl, ok := r.prog.declarations[rel]
	if !ok {
		return InputChannel{}, ErrUnknownRelation.New(rel.Name())
	}
	if decl.Kind != ast.KindEDB {
		return InputChannel{}, ErrWrongKind.New(rel.Name(), "EDB")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[rel]; !ok {
		src := interp.NewBufferedSource()
		r.sources[rel] = src
		r.machine.AddSource(rel, src)
	}
	return InputChannel{rt: r, rel: rel}, nil
}

// RegisterIDB gates and wires an output channel for rel, which must have
// been declared KindIDB.
func (r *Runtime) RegisterIDB(rel value.Id) (OutputChannel, error) {
	if err := r.gate.Allowed(r.token, rel.Name(), capability.RegisterPerm); err != nil {
		return OutputChannel{}, err
	}
	decl, ok := r.prog.declarations[rel]
	if !ok {
		return OutputChannel{}, ErrUnknownRelation.New(rel.Name())
	}
	if decl.Kind != ast.KindIDB {
		return OutputChannel{}, ErrWrongKind.New(rel.Name(), "IDB")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sinks[rel]; !ok {
		sink := interp.NewCollectingSink()
		r.sinks[rel] = sink
		r.machine.AddSink(rel, sink)
	}
	return OutputChannel{rt: r, rel: rel}, nil
}

// Stats summarizes one Tick or RunToFixpoint call, plus a RunID a host
// can correlate against its own logs (SPEC_FULL.md §5: google/uuid).
type Stats struct {
	RunID string
	interp.Stats
}

// Tick runs the program's ram.Program once: drains every registered
// source, drives each stratum (recursive ones to local fixpoint), and
// fills every registered sink. It is the "tick()" of spec.md §6.
func (r *Runtime) Tick(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelFunc = cancel
	r.mu.Unlock()
	defer cancel()

	r.log.Debug("tick: starting")
	s, err := r.machine.Run(ctx, r.prog.ramProgram)
	runID := uuid.NewString()
	if err != nil {
		r.log.WithError(err).WithField("run_id", runID).Warn("tick: failed")
		return Stats{RunID: runID, Stats: s}, err
	}
	r.log.WithField("run_id", runID).Debug("tick: complete")
	return Stats{RunID: runID, Stats: s}, nil
}

// RunToFixpoint calls Tick repeatedly until a Tick ingests no new input
// tuples (meaning every registered source's buffer was already empty),
// accumulating Stats across every Tick, or until Config.FixpointTickCap
// Ticks have run. This is the "run_to_fixpoint()" of spec.md §6: useful
// when a host pushes input in batches and wants every batch fully
// derived and drained before it reads sinks.
func (r *Runtime) RunToFixpoint(ctx context.Context) (Stats, error) {
	var total Stats
	total.RunID = uuid.NewString()
	ticks := 0
	for {
		if r.config.FixpointTickCap > 0 && ticks >= r.config.FixpointTickCap {
			return total, interp.ErrInternal.New("run_to_fixpoint exceeded configured tick cap")
		}
		s, err := r.Tick(ctx)
		ticks++
		total.Iterations += s.Iterations
		total.TuplesIngested += s.TuplesIngested
		total.TuplesEmitted += s.TuplesEmitted
		total.IngestedFacts = append(total.IngestedFacts, s.IngestedFacts...)
		if s.LastEpoch != "" {
			total.LastEpoch = s.LastEpoch
		}
		if err != nil {
			return total, err
		}
		if s.TuplesIngested == 0 {
			return total, nil
		}
	}
}

// EpochHead returns the CID of the most recently appended input epoch,
// or "" if nothing has been ingested yet.
func (r *Runtime) EpochHead() value.CID {
	return r.machine.EpochHead()
}

// History replays the full epoch chain from EpochHead back to genesis,
// oldest first, letting a host reconstruct exactly what was ingested and
// in what batches (spec.md §3's "enabling a client to replay an input
// stream by walking the chain").
func (r *Runtime) History() ([]block.Epoch, error) {
	head := r.machine.EpochHead()
	if head == "" {
		return nil, nil
	}
	return block.Walk(r.store, head)
}

// Cancel cancels any Tick or RunToFixpoint currently in flight. Safe to
// call from a goroutine other than the one driving Tick, and safe to
// call when nothing is in flight (a no-op).
func (r *Runtime) Cancel() {
	r.mu.Lock()
	cancel := r.cancelFunc
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
