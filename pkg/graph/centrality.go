package graph

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	MetricPageRank    = "pagerank"
	MetricBetweenness = "betweenness"
	MetricEigenvector = "eigenvector"
	MetricDegree      = "degree"
)

// MetricNames lists every metric computed by ComputeAllMetrics.
var MetricNames = []string{MetricPageRank, MetricBetweenness, MetricEigenvector, MetricDegree}

// Scores maps a node to its score under one metric.
type Scores map[string]float64

// Metrics maps a metric name to the scores of every node.
type Metrics map[string]Scores

// MetricOptions configures the iterative metrics.
type MetricOptions struct {
	Damping            float64
	Tolerance          float64
	PageRankMaxIter    int
	EigenvectorMaxIter int
}

// DefaultMetricOptions returns the options used when none are given.
func DefaultMetricOptions() MetricOptions {
	return MetricOptions{
		Damping:            0.85,
		Tolerance:          1e-6,
		PageRankMaxIter:    100,
		EigenvectorMaxIter: 100,
	}
}

func (o MetricOptions) withDefaults() MetricOptions {
	def := DefaultMetricOptions()
	if o.Damping <= 0 || o.Damping >= 1 {
		o.Damping = def.Damping
	}
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	if o.PageRankMaxIter <= 0 {
		o.PageRankMaxIter = def.PageRankMaxIter
	}
	if o.EigenvectorMaxIter <= 0 {
		o.EigenvectorMaxIter = def.EigenvectorMaxIter
	}
	return o
}

// ComputeAllMetrics computes every metric of MetricNames concurrently.
//
// A failing metric does not stop the others. The returned Metrics holds the
// metrics that succeeded; the error joins one *MetricError per failure.
func ComputeAllMetrics(ctx context.Context, g *Graph, opts MetricOptions) (Metrics, error) {
	opts = opts.withDefaults()

	compute := map[string]func() (Scores, error){
		MetricPageRank:    func() (Scores, error) { return PageRank(ctx, g, opts) },
		MetricBetweenness: func() (Scores, error) { return Betweenness(ctx, g) },
		MetricEigenvector: func() (Scores, error) { return Eigenvector(ctx, g, opts) },
		MetricDegree:      func() (Scores, error) { return Degree(g), nil },
	}

	var mu sync.Mutex
	metrics := make(Metrics, len(MetricNames))
	errs := make([]error, len(MetricNames))

	var eg errgroup.Group
	for i, name := range MetricNames {
		eg.Go(func() error {
			scores, err := compute[name]()
			if err != nil {
				errs[i] = &MetricError{Metric: name, Err: err}
				return nil
			}
			mu.Lock()
			metrics[name] = scores
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return metrics, errors.Join(errs...)
}

// strengths returns the weighted degree of every node.
func strengths(g *Graph) []float64 {
	out := make([]float64, len(g.adj))
	for i, nbs := range g.adj {
		for _, nb := range nbs {
			out[i] += float64(nb.weight)
		}
	}
	return out
}

func (g *Graph) scores(values []float64) Scores {
	out := make(Scores, len(g.nodes))
	for i, n := range g.nodes {
		out[n] = values[i]
	}
	return out
}

// PageRank computes weighted PageRank by power iteration. Each node spreads
// its rank over its neighbours proportionally to edge weight; the rank of
// nodes without weighted edges is spread uniformly. Iteration stops once the
// L1 change drops below n*Tolerance.
func PageRank(ctx context.Context, g *Graph, opts MetricOptions) (Scores, error) {
	opts = opts.withDefaults()
	n := g.NumNodes()
	if n == 0 {
		return Scores{}, nil
	}

	str := strengths(g)
	uniform := 1 / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = uniform
	}

	alpha := opts.Damping
	for iter := 0; iter < opts.PageRankMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		last := x
		x = make([]float64, n)

		dangling := 0.0
		for i := range last {
			if str[i] == 0 {
				dangling += last[i]
			}
		}
		dangling *= alpha

		for i, nbs := range g.adj {
			if str[i] == 0 {
				continue
			}
			for _, nb := range nbs {
				x[nb.to] += alpha * last[i] * float64(nb.weight) / str[i]
			}
		}
		for i := range x {
			x[i] += dangling*uniform + (1-alpha)*uniform
		}

		diff := 0.0
		for i := range x {
			diff += math.Abs(x[i] - last[i])
		}
		if diff < float64(n)*opts.Tolerance {
			return g.scores(x), nil
		}
	}
	return nil, fmt.Errorf("%w: pagerank after %d iterations", ErrConvergence, opts.PageRankMaxIter)
}

// Eigenvector computes weighted eigenvector centrality by power iteration on
// A+I, starting from the uniform vector and normalising to unit L2 norm after
// every step.
func Eigenvector(ctx context.Context, g *Graph, opts MetricOptions) (Scores, error) {
	opts = opts.withDefaults()
	n := g.NumNodes()
	if n == 0 {
		return Scores{}, nil
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}

	for iter := 0; iter < opts.EigenvectorMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		last := x
		x = make([]float64, n)
		copy(x, last)
		for i, nbs := range g.adj {
			for _, nb := range nbs {
				x[nb.to] += last[i] * float64(nb.weight)
			}
		}

		norm := 0.0
		for _, v := range x {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		diff := 0.0
		for i := range x {
			x[i] /= norm
			diff += math.Abs(x[i] - last[i])
		}
		if diff < float64(n)*opts.Tolerance {
			return g.scores(x), nil
		}
	}
	return nil, fmt.Errorf("%w: eigenvector after %d iterations", ErrConvergence, opts.EigenvectorMaxIter)
}

// Degree returns the number of neighbours of every node divided by n-1.
// The only node of a single node graph scores 1.
func Degree(g *Graph) Scores {
	n := g.NumNodes()
	out := make(Scores, n)
	if n == 1 {
		out[g.nodes[0]] = 1
		return out
	}
	for i, nbs := range g.adj {
		out[g.nodes[i]] = float64(len(nbs)) / float64(n-1)
	}
	return out
}

// Betweenness computes weighted betweenness centrality with Brandes'
// algorithm, edge weights acting as distances. Sums over ordered source and
// target pairs are scaled by 1/((n-1)(n-2)); graphs with at most two nodes
// are left unscaled.
func Betweenness(ctx context.Context, g *Graph) (Scores, error) {
	n := g.NumNodes()
	bc := make([]float64, n)

	for s := 0; s < n; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order, preds, sigma := shortestPaths(g, s)

		delta := make([]float64, n)
		for k := len(order) - 1; k >= 0; k-- {
			w := order[k]
			coeff := (1 + delta[w]) / sigma[w]
			for _, v := range preds[w] {
				delta[v] += sigma[v] * coeff
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	if n > 2 {
		scale := 1 / float64((n-1)*(n-2))
		for i := range bc {
			bc[i] *= scale
		}
	}
	return g.scores(bc), nil
}

// shortestPaths runs Dijkstra from s. It returns the settled nodes in order
// of non-decreasing distance, the shortest-path predecessors of every node
// and the number of shortest paths reaching every node.
func shortestPaths(g *Graph, s int) ([]int, [][]int, []float64) {
	n := g.NumNodes()
	preds := make([][]int, n)
	sigma := make([]float64, n)
	settled := make([]bool, n)
	seen := make([]float64, n)
	for i := range seen {
		seen[i] = math.Inf(1)
	}

	order := make([]int, 0, n)
	sigma[s] = 1
	seen[s] = 0

	pq := &distQueue{}
	heap.Push(pq, distItem{dist: 0, seq: 0, node: s, pred: s})
	seq := 1

	for pq.Len() > 0 {
		it := heap.Pop(pq).(distItem)
		v := it.node
		if settled[v] {
			continue
		}
		if v != s {
			sigma[v] += sigma[it.pred]
		}
		order = append(order, v)
		settled[v] = true

		for _, nb := range g.adj[v] {
			w := nb.to
			d := it.dist + float64(nb.weight)
			switch {
			case !settled[w] && d < seen[w]:
				seen[w] = d
				heap.Push(pq, distItem{dist: d, seq: seq, node: w, pred: v})
				seq++
				sigma[w] = 0
				preds[w] = []int{v}
			case d == seen[w]:
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}
	return order, preds, sigma
}

type distItem struct {
	dist float64
	seq  int
	node int
	pred int
}

type distQueue []distItem

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].seq < q[j].seq
}
func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any) { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
