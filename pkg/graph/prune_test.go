package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentilePruner(t *testing.T) {
	counts, err := IntMatrixFromRows([][]int{
		{2, 1, 0},
		{1, 2, 1},
		{0, 1, 2},
	})
	require.NoError(t, err)

	g, err := PercentilePruner{Percentile: 50}.Prune(counts, []string{"B", "A", "C"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, g.Nodes())
	assert.True(t, g.HasEdge("A", "B"))
	assert.True(t, g.HasEdge("B", "C"))
	assert.False(t, g.HasEdge("A", "C"))
	assert.Equal(t, 2, g.NumEdges())
}

func TestPercentilePrunerKeepsOnlyStrongEdges(t *testing.T) {
	counts, err := IntMatrixFromRows([][]int{
		{3, 3, 1, 1},
		{3, 4, 1, 2},
		{1, 1, 2, 1},
		{1, 2, 1, 3},
	})
	require.NoError(t, err)

	g, err := PercentilePruner{Percentile: 90}.Prune(counts, []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	assert.Equal(t, []Edge{{Source: "a", Target: "b", Weight: 3}}, g.Edges())
	assert.Equal(t, 4, g.NumNodes())
}

func TestPercentilePrunerMonotonic(t *testing.T) {
	counts, err := IntMatrixFromRows([][]int{
		{5, 4, 1, 0, 2},
		{4, 6, 3, 1, 0},
		{1, 3, 4, 2, 1},
		{0, 1, 2, 3, 5},
		{2, 0, 1, 5, 6},
	})
	require.NoError(t, err)
	names := []string{"a", "b", "c", "d", "e"}

	prev := -1
	for _, p := range []float64{100, 90, 75, 50, 25, 0} {
		g, err := PercentilePruner{Percentile: p}.Prune(counts, names)
		require.NoError(t, err)
		if prev >= 0 {
			assert.GreaterOrEqual(t, g.NumEdges(), prev, "percentile %v", p)
		}
		prev = g.NumEdges()
		for _, e := range g.Edges() {
			assert.Positive(t, e.Weight)
		}
	}
}

func TestPercentilePrunerInvalid(t *testing.T) {
	counts := NewIntMatrix(2, 2)

	_, err := PercentilePruner{Percentile: 101}.Prune(counts, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidPercentile)

	_, err = PercentilePruner{Percentile: -1}.Prune(counts, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidPercentile)

	_, err = PercentilePruner{Percentile: 50}.Prune(counts, []string{"a"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPercentilePrunerSingleNode(t *testing.T) {
	counts, err := IntMatrixFromRows([][]int{{3}})
	require.NoError(t, err)

	g, err := PercentilePruner{Percentile: 99}.Prune(counts, []string{"only"})
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, g.Nodes())
	assert.Equal(t, 0, g.NumEdges())
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 0, 1},
		{[]float64{1, 2, 3, 4}, 100, 4},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{4, 1, 3, 2}, 25, 1.75},
		{[]float64{0, 0, 0, 10}, 99, 9.7},
		{[]float64{7}, 42, 7},
	}
	for _, tt := range tests {
		got, err := Percentile(tt.values, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "percentile %v of %v", tt.p, tt.values)
	}

	_, err := Percentile(nil, 50)
	assert.Error(t, err)
}
