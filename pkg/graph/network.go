package graph

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// Edge is an undirected weighted connection between two concepts.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type neighbor struct {
	to     int
	weight int
}

// Graph is an immutable undirected graph with non-negative integer edge
// weights and no self loops. Node order is the order given at construction
// and every iteration over nodes or neighbours follows it, which keeps all
// algorithms on the graph deterministic.
type Graph struct {
	nodes    []string
	index    map[string]int
	adj      [][]neighbor
	numEdges int
}

// NewGraph builds a graph from a node list and an edge list. Every edge
// endpoint must be a listed node; self loops, negative weights, duplicate
// nodes and duplicate edges are rejected.
func NewGraph(nodes []string, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: slices.Clone(nodes),
		index: make(map[string]int, len(nodes)),
		adj:   make([][]neighbor, len(nodes)),
	}
	for i, n := range nodes {
		if _, ok := g.index[n]; ok {
			return nil, fmt.Errorf("duplicate node %q", n)
		}
		g.index[n] = i
	}

	seen := make(map[[2]int]struct{}, len(edges))
	for _, e := range edges {
		s, ok := g.index[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge references unknown node %q", e.Source)
		}
		t, ok := g.index[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge references unknown node %q", e.Target)
		}
		if s == t {
			return nil, fmt.Errorf("self loop on node %q", e.Source)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("negative weight on edge %s-%s", e.Source, e.Target)
		}
		key := [2]int{min(s, t), max(s, t)}
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("duplicate edge %s-%s", e.Source, e.Target)
		}
		seen[key] = struct{}{}
		g.adj[s] = append(g.adj[s], neighbor{to: t, weight: e.Weight})
		g.adj[t] = append(g.adj[t], neighbor{to: s, weight: e.Weight})
		g.numEdges++
	}
	for i := range g.adj {
		slices.SortFunc(g.adj[i], func(a, b neighbor) int { return cmp.Compare(a.to, b.to) })
	}
	return g, nil
}

// EmptyGraph returns a graph without nodes.
func EmptyGraph() *Graph {
	g, _ := NewGraph(nil, nil)
	return g
}

// Nodes returns the node labels in graph order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

func (g *Graph) NumNodes() int { return len(g.nodes) }
func (g *Graph) NumEdges() int { return g.numEdges }

func (g *Graph) HasNode(n string) bool {
	_, ok := g.index[n]
	return ok
}

// Weight returns the weight of the edge a-b and whether the edge exists.
func (g *Graph) Weight(a, b string) (int, bool) {
	i, ok := g.index[a]
	if !ok {
		return 0, false
	}
	j, ok := g.index[b]
	if !ok {
		return 0, false
	}
	k, found := slices.BinarySearchFunc(g.adj[i], j, func(n neighbor, t int) int { return cmp.Compare(n.to, t) })
	if !found {
		return 0, false
	}
	return g.adj[i][k].weight, true
}

func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.Weight(a, b)
	return ok
}

// Neighbors returns the neighbours of n in graph order.
func (g *Graph) Neighbors(n string) []string {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.adj[i]))
	for _, nb := range g.adj[i] {
		out = append(out, g.nodes[nb.to])
	}
	return out
}

// Degree returns the number of neighbours of n.
func (g *Graph) Degree(n string) int {
	i, ok := g.index[n]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// Edges returns every edge once, ordered by the graph position of the
// source and then of the target. Source always precedes Target in graph order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.numEdges)
	for i, nbs := range g.adj {
		for _, nb := range nbs {
			if nb.to > i {
				out = append(out, Edge{Source: g.nodes[i], Target: g.nodes[nb.to], Weight: nb.weight})
			}
		}
	}
	return out
}

// Subgraph returns the subgraph induced by keep. Node order follows g;
// unknown names are ignored.
func (g *Graph) Subgraph(keep []string) *Graph {
	want := make(map[string]struct{}, len(keep))
	for _, n := range keep {
		want[n] = struct{}{}
	}
	nodes := make([]string, 0, len(want))
	for _, n := range g.nodes {
		if _, ok := want[n]; ok {
			nodes = append(nodes, n)
		}
	}
	edges := make([]Edge, 0)
	for _, e := range g.Edges() {
		_, s := want[e.Source]
		_, t := want[e.Target]
		if s && t {
			edges = append(edges, e)
		}
	}
	sub, _ := NewGraph(nodes, edges)
	return sub
}

type graphJSON struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Edges: g.Edges()})
}
