package interp

import (
	"sync"

	"github.com/rhizomedb/rhizome-go/fact"
)

// Source feeds one EDB relation's pending input tuples to a Sources
// statement. Drain must return every tuple pushed since the last Drain
// and clear its internal buffer; it is called at most once per Sources
// execution per relation.
type Source interface {
	Drain() []fact.Tuple
}

// Sink receives one IDB relation's tuples from a Sinks statement, in the
// relation's container order (spec.md §5 "Ordering guarantees").
type Sink interface {
	Push(t fact.Tuple) error
}

// BufferedSource is the default Source: a host pushes tuples onto it
// (typically from runtime.InputChannel) and the interpreter drains it
// once per Sources statement.
type BufferedSource struct {
	mu      sync.Mutex
	pending []fact.Tuple
}

func NewBufferedSource() *BufferedSource { return &BufferedSource{} }

// Push appends t to the pending buffer.
func (s *BufferedSource) Push(t fact.Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, t)
}

func (s *BufferedSource) Drain() []fact.Tuple {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// CollectingSink is the default Sink: it appends every pushed tuple to an
// in-memory slice a host can read back (e.g. runtime.OutputChannel).
type CollectingSink struct {
	mu   sync.Mutex
	rows []fact.Tuple
}

func NewCollectingSink() *CollectingSink { return &CollectingSink{} }

func (s *CollectingSink) Push(t fact.Tuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
	return nil
}

// Drain returns and clears every tuple collected so far.
func (s *CollectingSink) Drain() []fact.Tuple {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.rows
	s.rows = nil
	return out
}
