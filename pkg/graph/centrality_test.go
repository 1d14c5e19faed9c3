package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAllMetricsPathGraph(t *testing.T) {
	metrics, err := ComputeAllMetrics(context.Background(), pathGraph(t), MetricOptions{})
	require.NoError(t, err)

	require.Len(t, metrics, 4)
	for _, name := range MetricNames {
		require.Contains(t, metrics, name)
		assert.Len(t, metrics[name], 3, name)
	}

	assert.Equal(t, Scores{"A": 0.5, "B": 1, "C": 0.5}, metrics[MetricDegree])

	assert.InDelta(t, 1, metrics[MetricBetweenness]["B"], 1e-9)
	assert.InDelta(t, 0, metrics[MetricBetweenness]["A"], 1e-9)
	assert.InDelta(t, 0, metrics[MetricBetweenness]["C"], 1e-9)

	pr := metrics[MetricPageRank]
	assert.InDelta(t, 0.2567, pr["A"], 1e-3)
	assert.InDelta(t, 0.4865, pr["B"], 1e-3)
	assert.InDelta(t, pr["A"], pr["C"], 1e-12)
	assert.InDelta(t, 1, pr["A"]+pr["B"]+pr["C"], 1e-6)

	ev := metrics[MetricEigenvector]
	assert.InDelta(t, 0.5, ev["A"], 1e-3)
	assert.InDelta(t, 0.7071, ev["B"], 1e-3)
	assert.InDelta(t, 0.5, ev["C"], 1e-3)
}

func TestPageRankSumsToOne(t *testing.T) {
	g := twoCliques(t)

	pr, err := PageRank(context.Background(), g, MetricOptions{})
	require.NoError(t, err)

	sum := 0.0
	for _, v := range pr {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Greater(t, pr["a0"], pr["a1"])
}

func TestPageRankIsolatedNodes(t *testing.T) {
	g, err := NewGraph([]string{"x", "y"}, nil)
	require.NoError(t, err)

	pr, err := PageRank(context.Background(), g, MetricOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, pr["x"], 1e-9)
	assert.InDelta(t, 0.5, pr["y"], 1e-9)
}

func TestBetweennessUsesWeightsAsDistances(t *testing.T) {
	// A-C is heavier than the detour A-B-C, so shortest paths run through B.
	g, err := NewGraph([]string{"A", "B", "C"}, []Edge{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "B", Target: "C", Weight: 1},
		{Source: "A", Target: "C", Weight: 5},
	})
	require.NoError(t, err)

	bc, err := Betweenness(context.Background(), g)
	require.NoError(t, err)

	assert.InDelta(t, 1, bc["B"], 1e-9)
	assert.InDelta(t, 0, bc["A"], 1e-9)
}

func TestBetweennessEqualPaths(t *testing.T) {
	// Square A-B-D, A-C-D: the two shortest A-D paths split the credit.
	g, err := NewGraph([]string{"A", "B", "C", "D"}, []Edge{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "A", Target: "C", Weight: 1},
		{Source: "B", Target: "D", Weight: 1},
		{Source: "C", Target: "D", Weight: 1},
	})
	require.NoError(t, err)

	bc, err := Betweenness(context.Background(), g)
	require.NoError(t, err)

	for _, n := range []string{"A", "B", "C", "D"} {
		assert.InDelta(t, 1.0/6, bc[n], 1e-9, n)
	}
}

func TestDegreeSingleNode(t *testing.T) {
	g, err := NewGraph([]string{"solo"}, nil)
	require.NoError(t, err)

	assert.Equal(t, Scores{"solo": 1}, Degree(g))
}

func TestEigenvectorConvergenceFailure(t *testing.T) {
	_, err := Eigenvector(context.Background(), pathGraph(t), MetricOptions{EigenvectorMaxIter: 1})
	assert.ErrorIs(t, err, ErrConvergence)
}

func TestComputeAllMetricsPartialFailure(t *testing.T) {
	metrics, err := ComputeAllMetrics(context.Background(), pathGraph(t), MetricOptions{EigenvectorMaxIter: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConvergence)

	var me *MetricError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, MetricEigenvector, me.Metric)

	assert.NotContains(t, metrics, MetricEigenvector)
	assert.Contains(t, metrics, MetricPageRank)
	assert.Contains(t, metrics, MetricBetweenness)
	assert.Contains(t, metrics, MetricDegree)
}

func TestComputeAllMetricsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeAllMetrics(ctx, pathGraph(t), MetricOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeAllMetricsEmptyGraph(t *testing.T) {
	metrics, err := ComputeAllMetrics(context.Background(), EmptyGraph(), MetricOptions{})
	require.NoError(t, err)

	for _, name := range MetricNames {
		assert.Empty(t, metrics[name], name)
	}
}

func TestComputeAllMetricsDeterministic(t *testing.T) {
	g := twoCliques(t)

	first, err := ComputeAllMetrics(context.Background(), g, MetricOptions{})
	require.NoError(t, err)
	second, err := ComputeAllMetrics(context.Background(), g, MetricOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
