package stub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

var (
	_ ai.ConceptExtractor = (*Fixed)(nil)
	_ ai.ConceptExtractor = (*Keyword)(nil)
)

func TestFixed(t *testing.T) {
	f := NewFixed(
		common.RawConcept{Text: "A", Relevance: 0.9},
		common.RawConcept{Text: "B", Relevance: 0.5},
	)

	got, err := f.ExtractConcepts(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.ExtractConcepts(context.Background(), "anything", ai.WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, []common.RawConcept{{Text: "A", Relevance: 0.9}}, got)

	empty, err := NewFixed().ExtractConcepts(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestKeyword(t *testing.T) {
	k := NewKeyword("Wind power", "Solar", "Coal")

	got, err := k.ExtractConcepts(context.Background(), "Solar panels and wind power. More solar!")
	require.NoError(t, err)
	assert.Equal(t, []common.RawConcept{
		{Text: "Solar", Relevance: 1, Resource: "http://dbpedia.org/resource/Solar"},
		{Text: "Wind power", Relevance: 0.5, Resource: "http://dbpedia.org/resource/Wind_power"},
	}, got)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyword("x").ExtractConcepts(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
