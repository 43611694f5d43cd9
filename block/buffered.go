package block

import (
	"sync"

	"github.com/rhizomedb/rhizome-go/value"
)

// BufferedStore interposes a write-behind buffer in front of an
// underlying Store, batching PutKeyed calls and flushing them together.
// It mirrors the teacher's pattern of wrapping a base table with a
// buffering layer rather than writing through on every call.
//
// Flush's durability semantics are intentionally unspecified beyond "the
// buffered writes are applied to the underlying store": see DESIGN.md,
// this mirrors an open question already present in the system this was
// distilled from.
type BufferedStore struct {
	base      Store
	mu        sync.Mutex
	pending   map[value.CID][]byte
	highWater int
}

// NewBufferedStore wraps base. highWater is the number of pending writes
// at which Flush is triggered automatically from PutKeyed; a highWater of
// 0 disables automatic flushing (the caller must call Flush explicitly).
func NewBufferedStore(base Store, highWater int) *BufferedStore {
	return &BufferedStore{
		base:      base,
		pending:   make(map[value.CID][]byte),
		highWater: highWater,
	}
}

func (b *BufferedStore) Has(cid value.CID) (bool, error) {
	b.mu.Lock()
	_, buffered := b.pending[cid]
	b.mu.Unlock()
	if buffered {
		return true, nil
	}
	return b.base.Has(cid)
}

func (b *BufferedStore) Get(cid value.CID) ([]byte, bool, error) {
	b.mu.Lock()
	data, buffered := b.pending[cid]
	b.mu.Unlock()
	if buffered {
		out := make([]byte, len(data))
		copy(out, data)
		return out, true, nil
	}
	return b.base.Get(cid)
}

func (b *BufferedStore) PutKeyed(cid value.CID, data []byte) error {
	b.mu.Lock()
	if _, ok := b.pending[cid]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		b.pending[cid] = cp
	}
	shouldFlush := b.highWater > 0 && len(b.pending) >= b.highWater
	b.mu.Unlock()

	if shouldFlush {
		return b.Flush()
	}
	return nil
}

// Flush applies every buffered write to the underlying store and clears
// the buffer. Writes already present in the base store (by CID) are
// skipped by the base store's own idempotent PutKeyed.
func (b *BufferedStore) Flush() error {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[value.CID][]byte)
	b.mu.Unlock()

	for cid, data := range pending {
		if err := b.base.PutKeyed(cid, data); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports how many writes are buffered and not yet flushed.
func (b *BufferedStore) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
