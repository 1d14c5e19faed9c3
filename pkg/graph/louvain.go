package graph

import (
	"math/rand"
	"slices"
)

// minModularityGain stops a pass (or the whole aggregation) once the
// modularity improvement falls below it.
const minModularityGain = 1e-7

// Louvain is a multi-level modularity optimiser for weighted undirected
// graphs. Node visiting order and neighbour community order are shuffled with
// a generator seeded by Seed, so equal seeds give equal partitions.
type Louvain struct {
	Seed       int64
	Resolution float64
}

// wedge is an edge of an aggregation level.
type wedge struct {
	to     int
	weight float64
}

// levelGraph is the weighted graph of one aggregation level. Self loops are
// kept apart from the adjacency lists and count twice towards a degree.
type levelGraph struct {
	adj    [][]wedge
	loops  []float64
	degree []float64
	total  float64
}

func newLevelGraph(adj [][]wedge, loops []float64) *levelGraph {
	lg := &levelGraph{adj: adj, loops: loops, degree: make([]float64, len(adj))}
	sum := 0.0
	for i, nbs := range adj {
		d := 2 * loops[i]
		for _, e := range nbs {
			d += e.weight
		}
		lg.degree[i] = d
		sum += d
	}
	lg.total = sum / 2
	return lg
}

func levelGraphFrom(g *Graph) *levelGraph {
	adj := make([][]wedge, len(g.adj))
	for i, nbs := range g.adj {
		adj[i] = make([]wedge, len(nbs))
		for k, nb := range nbs {
			adj[i][k] = wedge{to: nb.to, weight: float64(nb.weight)}
		}
	}
	return newLevelGraph(adj, make([]float64, len(g.adj)))
}

type louvainStatus struct {
	node2com  []int
	internals []float64
	degrees   []float64
	gdegrees  []float64
	loops     []float64
	total     float64
}

func newLouvainStatus(lg *levelGraph) *louvainStatus {
	n := len(lg.adj)
	s := &louvainStatus{
		node2com:  make([]int, n),
		internals: make([]float64, n),
		degrees:   make([]float64, n),
		gdegrees:  make([]float64, n),
		loops:     make([]float64, n),
		total:     lg.total,
	}
	for i := 0; i < n; i++ {
		s.node2com[i] = i
		s.degrees[i] = lg.degree[i]
		s.gdegrees[i] = lg.degree[i]
		s.loops[i] = lg.loops[i]
		s.internals[i] = lg.loops[i]
	}
	return s
}

func (s *louvainStatus) modularity(resolution float64) float64 {
	if s.total <= 0 {
		return 0
	}
	seen := make(map[int]struct{}, len(s.node2com))
	q := 0.0
	for _, c := range s.node2com {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		frac := s.degrees[c] / (2 * s.total)
		q += s.internals[c]*resolution/s.total - frac*frac
	}
	return q
}

// neighborCommunities sums edge weights from node towards each neighbouring
// community. The returned order is the order of first appearance.
func (s *louvainStatus) neighborCommunities(lg *levelGraph, node int) (map[int]float64, []int) {
	weights := make(map[int]float64)
	order := make([]int, 0, len(lg.adj[node]))
	for _, e := range lg.adj[node] {
		c := s.node2com[e.to]
		if _, ok := weights[c]; !ok {
			order = append(order, c)
		}
		weights[c] += e.weight
	}
	return weights, order
}

func (s *louvainStatus) remove(node, com int, weight float64) {
	s.degrees[com] -= s.gdegrees[node]
	s.internals[com] -= weight + s.loops[node]
	s.node2com[node] = -1
}

func (s *louvainStatus) insert(node, com int, weight float64) {
	s.node2com[node] = com
	s.degrees[com] += s.gdegrees[node]
	s.internals[com] += weight + s.loops[node]
}

// oneLevel moves single nodes between communities until no move improves
// modularity by more than minModularityGain.
func (s *louvainStatus) oneLevel(lg *levelGraph, resolution float64, rng *rand.Rand) {
	nodes := make([]int, len(lg.adj))
	for i := range nodes {
		nodes[i] = i
	}

	newMod := s.modularity(resolution)
	for modified := true; modified; {
		curMod := newMod
		modified = false

		rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		for _, node := range nodes {
			comNode := s.node2com[node]
			degcTotw := s.gdegrees[node] / (s.total * 2)
			neigh, order := s.neighborCommunities(lg, node)
			removeCost := -neigh[comNode] + resolution*(s.degrees[comNode]-s.gdegrees[node])*degcTotw
			s.remove(node, comNode, neigh[comNode])

			bestCom := comNode
			bestIncrease := 0.0
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
			for _, com := range order {
				incr := removeCost + neigh[com] - resolution*s.degrees[com]*degcTotw
				if incr > bestIncrease {
					bestIncrease = incr
					bestCom = com
				}
			}
			s.insert(node, bestCom, neigh[bestCom])
			if bestCom != comNode {
				modified = true
			}
		}

		newMod = s.modularity(resolution)
		if newMod-curMod < minModularityGain {
			break
		}
	}
}

// renumber maps community ids to 0..k-1 in order of first appearance.
func renumber(node2com []int) []int {
	ids := make(map[int]int)
	out := make([]int, len(node2com))
	for i, c := range node2com {
		id, ok := ids[c]
		if !ok {
			id = len(ids)
			ids[c] = id
		}
		out[i] = id
	}
	return out
}

// induce collapses every community of partition into a single node.
func induce(lg *levelGraph, partition []int) *levelGraph {
	k := 0
	for _, c := range partition {
		k = max(k, c+1)
	}
	acc := make([]map[int]float64, k)
	for i := range acc {
		acc[i] = make(map[int]float64)
	}
	loops := make([]float64, k)

	for i, nbs := range lg.adj {
		ci := partition[i]
		loops[ci] += lg.loops[i]
		for _, e := range nbs {
			if e.to <= i {
				continue
			}
			cj := partition[e.to]
			if ci == cj {
				loops[ci] += e.weight
				continue
			}
			acc[ci][cj] += e.weight
			acc[cj][ci] += e.weight
		}
	}

	adj := make([][]wedge, k)
	for c, m := range acc {
		adj[c] = make([]wedge, 0, len(m))
		for to := 0; to < k; to++ {
			if w, ok := m[to]; ok {
				adj[c] = append(adj[c], wedge{to: to, weight: w})
			}
		}
	}
	return newLevelGraph(adj, loops)
}

// Detect runs the Louvain method on g and returns the community id of every
// node. Community ids are dense, starting at 0. A graph without (positively
// weighted) edges puts every node into its own community.
func (l Louvain) Detect(g *Graph) (map[string]int, error) {
	resolution := l.Resolution
	if resolution <= 0 {
		resolution = 1
	}

	partition := make(map[string]int, g.NumNodes())
	lg := levelGraphFrom(g)
	if g.NumEdges() == 0 || lg.total <= 0 {
		for i, n := range g.nodes {
			partition[n] = i
		}
		return partition, nil
	}

	rng := rand.New(rand.NewSource(l.Seed))

	status := newLouvainStatus(lg)
	status.oneLevel(lg, resolution, rng)
	mod := status.modularity(resolution)
	level := renumber(status.node2com)
	dendrogram := [][]int{level}
	lg = induce(lg, level)

	for {
		status = newLouvainStatus(lg)
		status.oneLevel(lg, resolution, rng)
		newMod := status.modularity(resolution)
		if newMod-mod < minModularityGain {
			break
		}
		level = renumber(status.node2com)
		dendrogram = append(dendrogram, level)
		mod = newMod
		lg = induce(lg, level)
	}

	for i, n := range g.nodes {
		c := dendrogram[0][i]
		for _, lvl := range dendrogram[1:] {
			c = lvl[c]
		}
		partition[n] = c
	}
	return partition, nil
}

// Modularity returns the weighted modularity of partition over g. Nodes
// missing from partition are treated as singleton communities.
func Modularity(g *Graph, partition map[string]int) float64 {
	lg := levelGraphFrom(g)
	if lg.total <= 0 {
		return 0
	}
	com := make([]int, g.NumNodes())
	next := 0
	for _, c := range partition {
		next = max(next, c+1)
	}
	for i, n := range g.nodes {
		c, ok := partition[n]
		if !ok {
			c = next
			next++
		}
		com[i] = c
	}

	internals := make(map[int]float64)
	degrees := make(map[int]float64)
	for i, nbs := range lg.adj {
		degrees[com[i]] += lg.degree[i]
		for _, e := range nbs {
			if e.to > i && com[e.to] == com[i] {
				internals[com[i]] += e.weight
			}
		}
	}
	ids := make([]int, 0, len(degrees))
	for c := range degrees {
		ids = append(ids, c)
	}
	slices.Sort(ids)

	q := 0.0
	for _, c := range ids {
		frac := degrees[c] / (2 * lg.total)
		q += internals[c]/lg.total - frac*frac
	}
	return q
}
