package ai

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

type conceptItem struct {
	Text      string  `json:"text" jsonschema_description:"Title of the English Wikipedia article naming the concept"`
	Relevance float64 `json:"relevance" jsonschema_description:"Relevance of the concept for the text between 0 and 1"`
	Resource  string  `json:"dbpedia_resource" jsonschema_description:"DBpedia resource URL of the concept or an empty string"`
}

// ConceptResponse is the structured output requested from chat models.
type ConceptResponse struct {
	Concepts []conceptItem `json:"concepts" jsonschema_description:"Concepts identified in the text document"`
}

// ConceptSystemPrompt renders the extraction prompt for limit concepts.
func ConceptSystemPrompt(limit int) string {
	if limit <= 0 {
		limit = DefaultConceptLimit
	}
	return fmt.Sprintf(ConceptPrompt, limit)
}

// NormalizeConcepts cleans model output: names are trimmed, relevances
// are clamped into [0,1], duplicates keep their highest relevance and the
// result is ordered by relevance and cut to limit.
func NormalizeConcepts(resp ConceptResponse, limit int) []common.RawConcept {
	best := make(map[string]int)
	out := make([]common.RawConcept, 0, len(resp.Concepts))
	for _, c := range resp.Concepts {
		text := strings.TrimSpace(c.Text)
		if text == "" || math.IsNaN(c.Relevance) {
			continue
		}
		rel := min(max(c.Relevance, 0), 1)
		key := strings.ToLower(text)
		if i, ok := best[key]; ok {
			if rel > out[i].Relevance {
				out[i].Relevance = rel
			}
			continue
		}
		best[key] = len(out)
		out = append(out, common.RawConcept{
			Text:      text,
			Relevance: rel,
			Resource:  strings.TrimSpace(c.Resource),
		})
	}

	slices.SortStableFunc(out, func(a, b common.RawConcept) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
