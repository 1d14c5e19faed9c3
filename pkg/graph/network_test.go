package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph([]string{"A", "B", "C"}, []Edge{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "B", Target: "C", Weight: 1},
	})
	require.NoError(t, err)
	return g
}

func TestNewGraph(t *testing.T) {
	g := pathGraph(t)

	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 2, g.NumEdges())
	assert.Equal(t, []string{"A", "C"}, g.Neighbors("B"))
	assert.Equal(t, 2, g.Degree("B"))
	assert.Equal(t, 0, g.Degree("missing"))

	w, ok := g.Weight("C", "B")
	assert.True(t, ok)
	assert.Equal(t, 1, w)
	assert.False(t, g.HasEdge("A", "C"))
}

func TestNewGraphRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []Edge
	}{
		{"duplicate node", []string{"A", "A"}, nil},
		{"unknown node", []string{"A"}, []Edge{{Source: "A", Target: "B", Weight: 1}}},
		{"self loop", []string{"A"}, []Edge{{Source: "A", Target: "A", Weight: 1}}},
		{"negative weight", []string{"A", "B"}, []Edge{{Source: "A", Target: "B", Weight: -1}}},
		{"duplicate edge", []string{"A", "B"}, []Edge{
			{Source: "A", Target: "B", Weight: 1},
			{Source: "B", Target: "A", Weight: 2},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.nodes, tt.edges)
			assert.Error(t, err)
		})
	}
}

func TestSubgraph(t *testing.T) {
	g := pathGraph(t)

	sub := g.Subgraph([]string{"C", "B", "Z"})

	assert.Equal(t, []string{"B", "C"}, sub.Nodes())
	assert.Equal(t, []Edge{{Source: "B", Target: "C", Weight: 1}}, sub.Edges())
}

func TestGraphMarshalJSON(t *testing.T) {
	data, err := json.Marshal(pathGraph(t))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"nodes": ["A", "B", "C"],
		"edges": [
			{"source": "A", "target": "B", "weight": 1},
			{"source": "B", "target": "C", "weight": 1}
		]
	}`, string(data))
}
