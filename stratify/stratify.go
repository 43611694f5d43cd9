package stratify

import (
	"sort"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/value"
)

// Stratum is an ordered set of mutually dependent relations, evaluated
// together before any later stratum, plus the clauses whose head falls in
// this stratum (spec.md §4.E).
type Stratum struct {
	Relations   []value.Id
	Clauses     []ast.Clause
	IsRecursive bool
}

// Stratify builds the dependency graph for p, computes its
// strongly-connected components, validates that no component contains a
// negative-polarity internal edge, and returns the components in
// topological order (deterministic: ties broken by minimum relation
// name).
func Stratify(p *ast.Program) ([]Stratum, error) {
	g := buildGraph(p)
	comps := tarjanSCC(g)

	owner := make(map[value.Id]*component, len(g.nodes))
	for _, c := range comps {
		for m := range c.members {
			owner[m] = c
		}
	}

	if err := validate(g, comps, owner); err != nil {
		return nil, err
	}

	order, err := topoOrder(g, comps, owner)
	if err != nil {
		return nil, err
	}

	clausesByHead := make(map[value.Id][]ast.Clause)
	for _, clause := range p.Clauses {
		clausesByHead[clause.Head.Relation] = append(clausesByHead[clause.Head.Relation], clause)
	}

	strata := make([]Stratum, 0, len(order))
	for _, c := range order {
		rels := sortedMembers(c)
		var clauses []ast.Clause
		for _, r := range rels {
			clauses = append(clauses, clausesByHead[r]...)
		}
		strata = append(strata, Stratum{
			Relations:   rels,
			Clauses:     clauses,
			IsRecursive: isRecursive(g, c),
		})
	}
	return strata, nil
}

func sortedMembers(c *component) []value.Id {
	out := make([]value.Id, 0, len(c.members))
	for m := range c.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// isRecursive reports whether the component contains an internal edge:
// either it has more than one member, or its single member has a
// self-loop.
func isRecursive(g *graph, c *component) bool {
	if len(c.members) > 1 {
		return true
	}
	for node := range c.members {
		for _, e := range g.adj[node] {
			if c.has(e.to) {
				return true
			}
		}
	}
	return false
}

// validate rejects any component with an internal negative-polarity edge,
// per spec.md §4.E step 3.
func validate(g *graph, comps []*component, owner map[value.Id]*component) error {
	for node, edges := range g.adj {
		co := owner[node]
		for _, e := range edges {
			if !co.has(e.to) {
				continue // edge leaves the component, not a cycle edge
			}
			if e.polarity == ast.Negative {
				return ErrNotStratifiable.New(e.to.Name())
			}
		}
	}
	return nil
}

// topoOrder produces a deterministic topological order of the components
// via Kahn's algorithm over the condensed graph, breaking ties among
// simultaneously-ready components by their minimum relation identifier
// name (spec.md §4.E "Tie-breaking").
func topoOrder(g *graph, comps []*component, owner map[value.Id]*component) ([]*component, error) {
	indegree := make(map[*component]int, len(comps))
	succs := make(map[*component]map[*component]struct{}, len(comps))
	for _, c := range comps {
		indegree[c] = 0
		succs[c] = make(map[*component]struct{})
	}
	for node, edges := range g.adj {
		from := owner[node]
		for _, e := range edges {
			to := owner[e.to]
			if from == to {
				continue // internal edge, not a condensation edge
			}
			if _, dup := succs[from][to]; dup {
				continue
			}
			succs[from][to] = struct{}{}
			indegree[to]++
		}
	}

	minName := func(c *component) string {
		best := ""
		for m := range c.members {
			if best == "" || m.Name() < best {
				best = m.Name()
			}
		}
		return best
	}

	var ready []*component
	for _, c := range comps {
		if indegree[c] == 0 {
			ready = append(ready, c)
		}
	}

	var order []*component
	processed := 0
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return minName(ready[i]) < minName(ready[j]) })
		var next []*component
		for _, c := range ready {
			order = append(order, c)
			processed++
			for succ := range succs[c] {
				indegree[succ]--
				if indegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		ready = next
	}

	if processed != len(comps) {
		// Every remaining cycle must be internally positive (validate
		// already rejected negative cycles), so this can only happen if
		// the condensation itself still has a cycle, which is impossible
		// for a true condensation graph — kept as an internal-error
		// guard rather than silently returning a partial order.
		return nil, ErrNotStratifiable.New("<condensation cycle>")
	}

	return order, nil
}
