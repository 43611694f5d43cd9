// Package lower translates a stratified ast.Program into a ram.Program:
// the semi-naive rewriting of each rule into per-stratum Search/Project/
// Reduce operator trees wrapped in the Insert/Merge/Swap/Purge/Loop/Exit
// top-level skeleton (spec.md §4.G).
package lower

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrVariableNotBound fires when a rule body references a variable
	// that no preceding positive atom introduced.
	ErrVariableNotBound = errors.NewKind("lower: variable %q not bound by any preceding atom")

	// ErrAggregationNotLast fires when a BodyAggregation term is not the
	// final element of a rule body; the lowerer only supports the
	// aggregation as the body's last term.
	ErrAggregationNotLast = errors.NewKind("lower: aggregation binding %q must be the last body term")

	// ErrAggregationHeadShape fires when a rule's aggregation-producing
	// head does not consist of exactly the aggregation's group-by
	// columns plus its target column — the only shape ram.Reduce can
	// express (spec.md §4.G: "emit one row per group containing the
	// group columns plus target_col").
	ErrAggregationHeadShape = errors.NewKind("lower: relation %q's aggregation rule head must bind exactly the group-by variables and the target variable")
)
