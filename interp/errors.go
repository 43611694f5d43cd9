// Package interp implements the RAM interpreter: it executes a
// ram.Program against a set of fact.VersionedRelations and a
// block.Store, following the statement and operator semantics of
// spec.md §4.F/H and the locking/cancellation discipline of spec.md §5.
package interp

import "gopkg.in/src-d/go-errors.v1"

// Runtime error kinds (spec.md §7's closed Runtime set). Every one aborts
// the current statement; in-flight new/delta mutations are discarded by
// the caller (Machine.Run), total remains consistent because merges have
// not yet happened.
var (
	ErrPredicateFailed = errors.NewKind("interp: predicate %q failed to evaluate")
	ErrAggregateFailed = errors.NewKind("interp: aggregate %q failed to evaluate")
	ErrSourceExhausted  = errors.NewKind("interp: input source for relation %q was closed mid-drain")
	ErrSinkPushError   = errors.NewKind("interp: pushing a tuple to relation %q's output sink failed: %s")
	ErrLockPoisoned    = errors.NewKind("interp: relation %q's lock was poisoned by a prior panic")
	ErrCancelled       = errors.NewKind("interp: run cancelled")
	ErrInternal        = errors.NewKind("interp: internal invariant violated: %s")
)
