package graph

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"
)

// FilterOptions configures FilterConcepts.
type FilterOptions struct {
	// MinRelevance drops concepts whose relevance is below the value.
	// The zero value keeps everything.
	MinRelevance float64
}

// DropRange removes the half-open range [From, To) of the corpus-sorted
// concept list in CleanConcepts.
type DropRange struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// CleanOptions configures the corpus-wide cleaning pass of CleanConcepts.
// Every knob is off in the zero value.
type CleanOptions struct {
	MinRelevance float64
	Dedupe       bool
	Denylist     []string
	Drop         *DropRange
}

// FilterConcepts flattens per-document raw concepts into concept rows.
//
// A concept is dropped when its resource is excluded for its document or
// when its relevance is below opts.MinRelevance. Malformed concepts (empty
// text, NaN or out of range relevance) are skipped. The result is sorted by
// document index ascending and relevance descending; ties keep extraction
// order. Documents without surviving concepts contribute no rows.
func FilterConcepts(docs []common.Document, exclusions Exclusions, opts FilterOptions) []common.ConceptRow {
	rows := make([]common.ConceptRow, 0)
	skipped := 0
	excluded := 0

	for _, doc := range docs {
		for _, c := range doc.Concepts {
			text := strings.TrimSpace(c.Text)
			if text == "" || !validRelevance(c.Relevance) {
				skipped++
				continue
			}
			if exclusions.Excluded(doc.Index, c.Resource) {
				excluded++
				continue
			}
			if c.Relevance < opts.MinRelevance {
				continue
			}
			rows = append(rows, common.ConceptRow{
				DocIndex:  doc.Index,
				Concept:   text,
				Relevance: c.Relevance,
			})
		}
	}

	if skipped > 0 {
		logger.Debug("[Graph] Skipped malformed concepts", "count", skipped)
	}
	logger.Debug("[Graph] Filtered concepts", "documents", len(docs), "rows", len(rows), "excluded", excluded)

	sortRows(rows)
	return rows
}

// CleanConcepts applies the stricter corpus-wide cleaning policy to already
// filtered rows: a global relevance threshold, deduplication by concept text
// keeping the highest relevance occurrence, removal of rows whose concept
// contains a denylisted term (case-insensitive) and an optional positional
// drop over the list sorted by relevance. The returned rows follow the same
// ordering contract as FilterConcepts.
func CleanConcepts(rows []common.ConceptRow, opts CleanOptions) []common.ConceptRow {
	ranked := make([]common.ConceptRow, 0, len(rows))
	for _, r := range rows {
		if r.Relevance < opts.MinRelevance {
			continue
		}
		ranked = append(ranked, r)
	}

	slices.SortStableFunc(ranked, func(a, b common.ConceptRow) int {
		if c := cmp.Compare(b.Relevance, a.Relevance); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DocIndex, b.DocIndex); c != 0 {
			return c
		}
		return strings.Compare(a.Concept, b.Concept)
	})

	if opts.Dedupe {
		seen := make(map[string]struct{}, len(ranked))
		deduped := ranked[:0]
		for _, r := range ranked {
			if _, ok := seen[r.Concept]; ok {
				continue
			}
			seen[r.Concept] = struct{}{}
			deduped = append(deduped, r)
		}
		ranked = deduped
	}

	if len(opts.Denylist) > 0 {
		deny := make([]string, 0, len(opts.Denylist))
		for _, d := range opts.Denylist {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				deny = append(deny, d)
			}
		}
		kept := ranked[:0]
		for _, r := range ranked {
			if containsAny(strings.ToLower(r.Concept), deny) {
				continue
			}
			kept = append(kept, r)
		}
		ranked = kept
	}

	if opts.Drop != nil {
		from := max(0, min(opts.Drop.From, len(ranked)))
		to := max(from, min(opts.Drop.To, len(ranked)))
		ranked = slices.Delete(ranked, from, to)
	}

	out := slices.Clone(ranked)
	sortRows(out)
	logger.Debug("[Graph] Cleaned concepts", "in", len(rows), "out", len(out))
	return out
}

func sortRows(rows []common.ConceptRow) {
	slices.SortStableFunc(rows, func(a, b common.ConceptRow) int {
		if c := cmp.Compare(a.DocIndex, b.DocIndex); c != 0 {
			return c
		}
		return cmp.Compare(b.Relevance, a.Relevance)
	})
}

func validRelevance(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
