package interp

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rhizomedb/rhizome-go/ram"
)

// execInsertRunParallel runs run concurrently, one goroutine per Insert,
// via errgroup. Correctness does not depend on the statements' write
// targets actually being disjoint: acquireLocks still takes a write lock
// per relation, so two Inserts that did target the same relation would
// simply serialize against each other instead of racing. This is the
// optional parallel-stratum/parallel-rule path spec.md §5 describes as
// safe "because their write sets are disjoint by construction" — the
// locking is what makes it safe even when that construction invariant
// is violated by a future lowering change.
func (m *Machine) execInsertRunParallel(ctx context.Context, run []*ram.Insert) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	counts := make([]int, len(run))
	for i, ins := range run {
		i, ins := i, ins
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := m.execInsert(ins)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
