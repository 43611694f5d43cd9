package interp

import (
	"strings"

	"github.com/rhizomedb/rhizome-go/closures"
	"github.com/rhizomedb/rhizome-go/fact"
	"github.com/rhizomedb/rhizome-go/ram"
	"github.com/rhizomedb/rhizome-go/value"
)

// eval walks op, threading env through nested Search nodes exactly as
// spec.md §4.H describes. onYield is non-nil only while evaluating a
// Reduce's Child: it is how the inner loop hands rows back out instead
// of performing a write. The returned int is the number of tuples newly
// inserted by this call's Project/Reduce leaves (0 for a pure Yield
// path).
func (m *Machine) eval(op ram.Operation, vrs map[value.Id]*fact.VersionedRelation, env ram.Env, aggResult value.Value, onYield func(ram.Env) error) (int, error) {
	switch t := op.(type) {
	case *ram.Search:
		vr, ok := vrs[t.Relation]
		if !ok {
			return 0, ErrInternal.New("search over unlocked relation " + t.Relation.Name())
		}
		bindings := make(map[value.Id]value.Value, len(t.Bindings))
		for col, term := range t.Bindings {
			v, ok := term.Resolve(env, aggResult)
			if !ok {
				return 0, ErrInternal.New("binding term for column " + col.Name() + " failed to resolve")
			}
			bindings[col] = v
		}

		it := vr.At(t.Version).Search(bindings)
		total := 0
		for {
			row, ok := it.Next()
			if !ok {
				break
			}
			env2 := cloneEnv(env)
			env2[t.Alias] = row

			pass, err := m.evalFormulas(t.Formulas, vrs, env2, aggResult)
			if err != nil {
				return total, err
			}
			if !pass {
				continue
			}

			n, err := m.eval(t.Child, vrs, env2, aggResult, onYield)
			total += n
			if err != nil {
				return total, err
			}
		}
		return total, nil

	case *ram.Project:
		pass, err := m.evalFormulas(t.Formulas, vrs, env, aggResult)
		if err != nil {
			return 0, err
		}
		if !pass {
			return 0, nil
		}
		cols := make(map[value.Id]value.Value, len(t.Terms))
		for col, term := range t.Terms {
			v, ok := term.Resolve(env, aggResult)
			if !ok {
				return 0, ErrInternal.New("project term for column " + col.Name() + " failed to resolve")
			}
			cols[col] = v
		}
		vr, ok := vrs[t.Relation]
		if !ok {
			return 0, ErrInternal.New("project into unlocked relation " + t.Relation.Name())
		}
		tup := fact.NewTuple(t.Relation, cols)
		// A tuple already in total is not new: keeping it out of new lets
		// delta go empty once an iteration derives nothing new.
		if t.Version == fact.VersionNew && vr.At(fact.VersionTotal).Contains(tup) {
			return 0, nil
		}
		if vr.At(t.Version).Insert(tup) {
			return 1, nil
		}
		return 0, nil

	case *ram.Yield:
		if onYield == nil {
			return 0, ErrInternal.New("yield reached outside a reduce's inner loop")
		}
		pass, err := m.evalFormulas(t.Formulas, vrs, env, aggResult)
		if err != nil {
			return 0, err
		}
		if !pass {
			return 0, nil
		}
		if err := onYield(env); err != nil {
			return 0, err
		}
		return 0, nil

	case *ram.Reduce:
		return m.evalReduce(t, vrs, env)

	default:
		return 0, ErrInternal.New("unrecognized operator type")
	}
}

type groupAcc struct {
	values []value.Value
	acc    closures.Accumulator
}

func (m *Machine) evalReduce(t *ram.Reduce, vrs map[value.Id]*fact.VersionedRelation, env ram.Env) (int, error) {
	pass, err := m.evalFormulas(t.Formulas, vrs, env, value.Value{})
	if err != nil {
		return 0, err
	}
	if !pass {
		return 0, nil
	}

	groups := make(map[string]*groupAcc)
	var order []string

	collect := func(e ram.Env) error {
		keyVals := make([]value.Value, len(t.GroupBy))
		for i, term := range t.GroupBy {
			v, ok := term.Resolve(e, value.Value{})
			if !ok {
				return ErrInternal.New("group-by term failed to resolve inside reduce")
			}
			keyVals[i] = v
		}
		key := groupKeyString(keyVals)
		g, ok := groups[key]
		if !ok {
			g = &groupAcc{values: keyVals, acc: t.Factory.New()}
			groups[key] = g
			order = append(order, key)
		}
		args := make([]value.Value, len(t.ValueArgs))
		for i, term := range t.ValueArgs {
			v, ok := term.Resolve(e, value.Value{})
			if !ok {
				return ErrInternal.New("aggregate argument term failed to resolve")
			}
			args[i] = v
		}
		g.acc.Step(args)
		return nil
	}

	if _, err := m.eval(t.Child, vrs, env, value.Value{}, collect); err != nil {
		return 0, err
	}

	vr, ok := vrs[t.Relation]
	if !ok {
		return 0, ErrInternal.New("reduce into unlocked relation " + t.Relation.Name())
	}

	inserted := 0
	for _, key := range order {
		g := groups[key]
		result, ok := g.acc.Finalize()
		if !ok {
			continue // spec.md §4.H: finalize() == none skips the group
		}
		cols := make(map[value.Id]value.Value, len(t.GroupByCols)+1)
		for i, col := range t.GroupByCols {
			cols[col] = g.values[i]
		}
		cols[t.TargetColumn] = result
		tup := fact.NewTuple(t.Relation, cols)
		if vr.At(t.Version).Insert(tup) {
			inserted++
		}
	}
	return inserted, nil
}

// evalFormulas evaluates fs in order against env, short-circuiting false
// on the first one that does not hold. vrs is the same already-locked
// relation set eval is using; a NotIn probe reads the probed relation's
// Total without taking an additional lock of its own, since
// collectReadRelations already added it to the read set acquireLocks
// locked for the whole statement.
func (m *Machine) evalFormulas(fs []ram.Formula, vrs map[value.Id]*fact.VersionedRelation, env ram.Env, aggResult value.Value) (bool, error) {
	for _, f := range fs {
		switch f.Kind {
		case ram.FormulaEquality:
			l, lok := f.EqLeft.Resolve(env, aggResult)
			r, rok := f.EqRight.Resolve(env, aggResult)
			if !lok || !rok {
				return false, ErrInternal.New("equality formula operand failed to resolve")
			}
			if !l.Equal(r) {
				return false, nil
			}

		case ram.FormulaNotIn:
			vr, ok := vrs[f.NotInRelation]
			if !ok {
				return false, ErrInternal.New("not_in probe of unlocked relation " + f.NotInRelation.Name())
			}
			bindings := make(map[value.Id]value.Value, len(f.NotInCols))
			for col, term := range f.NotInCols {
				v, ok := term.Resolve(env, aggResult)
				if !ok {
					return false, ErrInternal.New("not_in column term failed to resolve")
				}
				bindings[col] = v
			}
			it := vr.At(fact.VersionTotal).Search(bindings)
			_, found := it.Next()
			if found {
				return false, nil
			}

		case ram.FormulaPredicate:
			args := make([]value.Value, len(f.PredicateArgs))
			for i, term := range f.PredicateArgs {
				v, ok := term.Resolve(env, aggResult)
				if !ok {
					return false, ErrInternal.New("predicate argument term failed to resolve")
				}
				args[i] = v
			}
			result, ok := f.Predicate.Apply(args)
			if !ok {
				return false, ErrPredicateFailed.New(f.PredicateName.Name())
			}
			if !result {
				return false, nil
			}

		default:
			return false, ErrInternal.New("unrecognized formula kind")
		}
	}
	return true, nil
}

func cloneEnv(env ram.Env) ram.Env {
	cp := make(ram.Env, len(env)+1)
	for k, v := range env {
		cp[k] = v
	}
	return cp
}

func groupKeyString(vals []value.Value) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(v.Tag().String())
		b.WriteByte(':')
		b.WriteString(v.String())
		b.WriteByte('\x00')
	}
	return b.String()
}
