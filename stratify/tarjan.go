package stratify

import "github.com/rhizomedb/rhizome-go/value"

// component is a strongly-connected component of the dependency graph:
// an unordered set of relations that (if size > 1, or via a self-loop)
// mutually depend on one another.
type component struct {
	members map[value.Id]struct{}
}

func (c *component) has(id value.Id) bool {
	_, ok := c.members[id]
	return ok
}

// tarjanSCC computes the graph's strongly-connected components using
// Tarjan's algorithm. The returned slice is in the order components are
// closed off by the DFS (a valid reverse-topological order of the
// condensation), but callers should not rely on that ordering directly —
// stratify.go re-derives a deterministic topological order via Kahn's
// algorithm so it can apply the tie-breaking rule spec.md §4.E requires.
func tarjanSCC(g *graph) []*component {
	t := &tarjanState{
		g:       g,
		index:   make(map[value.Id]int),
		lowlink: make(map[value.Id]int),
		onStack: make(map[value.Id]bool),
	}
	for node := range g.nodes {
		if _, visited := t.index[node]; !visited {
			t.strongConnect(node)
		}
	}
	return t.components
}

type tarjanState struct {
	g          *graph
	counter    int
	index      map[value.Id]int
	lowlink    map[value.Id]int
	onStack    map[value.Id]bool
	stack      []value.Id
	components []*component
}

func (t *tarjanState) strongConnect(v value.Id) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, e := range t.g.adj[v] {
		w := e.to
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		members := make(map[value.Id]struct{})
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			members[w] = struct{}{}
			if w == v {
				break
			}
		}
		t.components = append(t.components, &component{members: members})
	}
}
