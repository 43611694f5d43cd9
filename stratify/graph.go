package stratify

import (
	"github.com/cespare/xxhash/v2"

	"github.com/rhizomedb/rhizome-go/ast"
	"github.com/rhizomedb/rhizome-go/value"
)

// edge is one dependency-graph edge, carrying the strongest (most
// negative) polarity observed across every clause contributing it —
// two rules can both target the same head relation from the same body
// relation with different polarities, and a single negative occurrence
// is enough to make the edge negative for stratification purposes.
type edge struct {
	to       value.Id
	polarity ast.Polarity
}

// graph is an adjacency-list dependency graph over relation identifiers.
// A rule set can wire a head relation to many distinct body relations, so
// addEdge's duplicate-edge check is on the hot path of graph construction;
// index turns it from a linear scan of adj[from] into an xxhash-keyed
// lookup, falling back to an equality check only within a hash's bucket.
type graph struct {
	nodes map[value.Id]struct{}
	adj   map[value.Id][]edge
	index map[value.Id]map[uint64][]int
}

func buildGraph(p *ast.Program) *graph {
	g := &graph{
		nodes: make(map[value.Id]struct{}),
		adj:   make(map[value.Id][]edge),
		index: make(map[value.Id]map[uint64][]int),
	}
	for rel := range p.Declarations {
		g.nodes[rel] = struct{}{}
	}
	for _, clause := range p.Clauses {
		for _, e := range clause.DependencyEdges() {
			g.addEdge(e.From, e.To, e.Polarity)
		}
	}
	return g
}

func idHash(id value.Id) uint64 {
	return xxhash.Sum64String(id.String())
}

func (g *graph) addEdge(from, to value.Id, pol ast.Polarity) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	bucket, ok := g.index[from]
	if !ok {
		bucket = make(map[uint64][]int)
		g.index[from] = bucket
	}
	h := idHash(to)
	for _, i := range bucket[h] {
		if g.adj[from][i].to == to {
			if pol == ast.Negative {
				g.adj[from][i].polarity = ast.Negative
			}
			return
		}
	}
	g.adj[from] = append(g.adj[from], edge{to: to, polarity: pol})
	bucket[h] = append(bucket[h], len(g.adj[from])-1)
}
