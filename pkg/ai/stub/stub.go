// Package stub provides deterministic concept extractors for development
// and tests. They never talk to a model.
package stub

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

// Fixed returns the same concepts for every text. Without concepts it
// behaves like a model that finds nothing.
type Fixed struct {
	Concepts []common.RawConcept
}

func NewFixed(concepts ...common.RawConcept) *Fixed {
	return &Fixed{Concepts: concepts}
}

func (f *Fixed) ExtractConcepts(ctx context.Context, text string, opts ...ai.ExtractOption) ([]common.RawConcept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := ai.ApplyOptions(ai.ExtractOptions{}, opts...)
	out := slices.Clone(f.Concepts)
	if len(out) > o.Limit {
		out = out[:o.Limit]
	}
	return out, nil
}

// Keyword reports every vocabulary term that occurs in the text. The
// relevance of a term is its occurrence count relative to the most frequent
// term, so the most frequent term scores 1.
type Keyword struct {
	Vocabulary []string
}

func NewKeyword(vocabulary ...string) *Keyword {
	return &Keyword{Vocabulary: vocabulary}
}

func (k *Keyword) ExtractConcepts(ctx context.Context, text string, opts ...ai.ExtractOption) ([]common.RawConcept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := ai.ApplyOptions(ai.ExtractOptions{}, opts...)
	lower := strings.ToLower(text)

	type hit struct {
		term  string
		count int
	}
	hits := make([]hit, 0)
	top := 0
	for _, term := range k.Vocabulary {
		n := strings.Count(lower, strings.ToLower(term))
		if term == "" || n == 0 {
			continue
		}
		hits = append(hits, hit{term: term, count: n})
		top = max(top, n)
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(b.count, a.count) })
	if len(hits) > o.Limit {
		hits = hits[:o.Limit]
	}

	out := make([]common.RawConcept, len(hits))
	for i, h := range hits {
		out[i] = common.RawConcept{
			Text:      h.term,
			Relevance: float64(h.count) / float64(top),
			Resource:  "http://dbpedia.org/resource/" + strings.ReplaceAll(h.term, " ", "_"),
		}
	}
	return out, nil
}
