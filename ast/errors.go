// Package ast defines the program model a host builds: relation
// declarations, ground facts, and rules, plus the dependency edges the
// stratifier consumes (spec.md §3, §4.D).
package ast

import (
	"gopkg.in/src-d/go-errors.v1"
)

// Static errors are returned by Builder.Rule and Builder.Fact as each
// clause is added, before any evaluation begins, per spec.md §7.
var (
	ErrClauseHeadEDB          = errors.NewKind("clause head %q targets an EDB relation; only rules may target IDB relations")
	ErrUnrecognizedColumnBinding = errors.NewKind("column %q in relation %q is not part of its declared schema")
	ErrColumnMissing          = errors.NewKind("relation %q declares column %q with no binding in this clause")
	ErrTypeMismatch           = errors.NewKind("column %q expected type %s, got %s")
	ErrUnknownRelation        = errors.NewKind("relation %q was never declared")
)
