package closures

import "github.com/rhizomedb/rhizome-go/value"

// Builtins is the set of aggregates shipped with the engine, matching the
// five kernel math aggregates in original_source/rhizome/src/kernel/math/
// (count, sum, min, max, mean) — a feature spec.md's scenario 3 only
// exercises one of (sum), supplemented here per SPEC_FULL.md §6.
var Builtins = map[string]AggregateFactory{
	"count": countFactory{},
	"sum":   sumFactory{},
	"min":   minMaxFactory{name: "min", keepLesser: true},
	"max":   minMaxFactory{name: "max", keepLesser: false},
	"mean":  meanFactory{},
}

type countFactory struct{}

func (countFactory) Name() string    { return "count" }
func (countFactory) New() Accumulator { return &countAcc{} }

type countAcc struct{ n int64 }

func (a *countAcc) Step(vals []value.Value)        { a.n++ }
func (a *countAcc) Finalize() (value.Value, bool) { return value.Int(a.n), true }

type sumFactory struct{}

func (sumFactory) Name() string    { return "sum" }
func (sumFactory) New() Accumulator { return &sumAcc{} }

type sumAcc struct {
	total int64
	seen  bool
}

func (a *sumAcc) Step(vals []value.Value) {
	a.seen = true
	for _, v := range vals {
		if i, ok := v.AsInt(); ok {
			a.total += i
		}
	}
}

func (a *sumAcc) Finalize() (value.Value, bool) {
	if !a.seen {
		return value.Value{}, false
	}
	return value.Int(a.total), true
}

type minMaxFactory struct {
	name       string
	keepLesser bool
}

func (f minMaxFactory) Name() string    { return f.name }
func (f minMaxFactory) New() Accumulator { return &minMaxAcc{keepLesser: f.keepLesser} }

type minMaxAcc struct {
	keepLesser bool
	best       int64
	seen       bool
}

func (a *minMaxAcc) Step(vals []value.Value) {
	for _, v := range vals {
		i, ok := v.AsInt()
		if !ok {
			continue
		}
		if !a.seen {
			a.best, a.seen = i, true
			continue
		}
		if (a.keepLesser && i < a.best) || (!a.keepLesser && i > a.best) {
			a.best = i
		}
	}
}

func (a *minMaxAcc) Finalize() (value.Value, bool) {
	if !a.seen {
		return value.Value{}, false
	}
	return value.Int(a.best), true
}

type meanFactory struct{}

func (meanFactory) Name() string    { return "mean" }
func (meanFactory) New() Accumulator { return &meanAcc{} }

type meanAcc struct {
	total int64
	n     int64
}

func (a *meanAcc) Step(vals []value.Value) {
	for _, v := range vals {
		if i, ok := v.AsInt(); ok {
			a.total += i
			a.n++
		}
	}
}

// Finalize returns none on an empty group (mirrors the original's Option
// return; see SPEC_FULL.md §6), exercising the "skip that group" rule.
func (a *meanAcc) Finalize() (value.Value, bool) {
	if a.n == 0 {
		return value.Value{}, false
	}
	return value.Int(a.total / a.n), true
}
