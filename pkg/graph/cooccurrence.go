package graph

import (
	"slices"
	"strconv"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

// Cooccurrence holds the document×concept indicator matrix, the derived
// concept×concept co-occurrence counts and the thresholded edge list.
type Cooccurrence struct {
	// Indicator has one row per document with at least one concept (sorted
	// by document index) and one column per distinct concept (sorted).
	Indicator *IntMatrix
	// Counts is IndicatorᵀIndicator: Counts[a,b] is the number of documents
	// containing both a and b, Counts[a,a] the number containing a.
	Counts *IntMatrix
	// DocIndices lists the document index of every Indicator row.
	DocIndices []int
	// Concepts lists the concept of every Indicator column and Counts row.
	Concepts []string
	// Edges contains every pair a < b with Counts[a,b] >= threshold.
	Edges []Edge
}

// ComputeCooccurrence groups rows per document, binarizes them into the
// indicator matrix, computes the co-occurrence counts and extracts all
// concept pairs whose count reaches threshold.
func ComputeCooccurrence(rows []common.ConceptRow, threshold int) *Cooccurrence {
	byDoc := make(map[int]map[string]struct{})
	conceptSet := make(map[string]struct{})
	for _, r := range rows {
		set, ok := byDoc[r.DocIndex]
		if !ok {
			set = make(map[string]struct{})
			byDoc[r.DocIndex] = set
		}
		set[r.Concept] = struct{}{}
		conceptSet[r.Concept] = struct{}{}
	}

	docs := make([]int, 0, len(byDoc))
	for d := range byDoc {
		docs = append(docs, d)
	}
	slices.Sort(docs)

	concepts := make([]string, 0, len(conceptSet))
	for c := range conceptSet {
		concepts = append(concepts, c)
	}
	slices.Sort(concepts)

	col := make(map[string]int, len(concepts))
	for i, c := range concepts {
		col[c] = i
	}

	docLabels := make([]string, len(docs))
	m := NewIntMatrix(len(docs), len(concepts))
	for i, d := range docs {
		docLabels[i] = strconv.Itoa(d)
		for c := range byDoc[d] {
			m.set(i, col[c], 1)
		}
	}
	m.withLabels(docLabels, slices.Clone(concepts))

	counts := m.Gram()

	edges := make([]Edge, 0)
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			if w := counts.At(i, j); w >= threshold {
				edges = append(edges, Edge{Source: concepts[i], Target: concepts[j], Weight: w})
			}
		}
	}

	return &Cooccurrence{
		Indicator:  m,
		Counts:     counts,
		DocIndices: docs,
		Concepts:   concepts,
		Edges:      edges,
	}
}
