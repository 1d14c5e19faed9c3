package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"
)

type conceptRecord struct {
	DocIndex *int              `json:"doc_index"`
	Concepts []json.RawMessage `json:"concepts"`
}

// LoadConcepts reads pre-extracted concepts from a JSON file.
func LoadConcepts(path string) ([]common.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concepts file: %w", err)
	}
	return ParseConcepts(data)
}

// ParseConcepts decodes a JSON array of documents of the form
//
//	[{"doc_index": 0, "concepts": [{"text": "...", "relevance": 0.9, "dbpedia_resource": "..."}]}]
//
// A record without doc_index takes its array position. Concepts that cannot
// be decoded or have no text are skipped; records sharing a document index
// are merged. The result is sorted by document index.
func ParseConcepts(data []byte) ([]common.Document, error) {
	var records []conceptRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse concepts: %w", err)
	}

	byIndex := make(map[int]*common.Document, len(records))
	skipped := 0
	for pos, rec := range records {
		idx := pos
		if rec.DocIndex != nil {
			idx = *rec.DocIndex
		}
		if idx < 0 {
			return nil, fmt.Errorf("negative document index %d in record %d", idx, pos)
		}

		doc, ok := byIndex[idx]
		if !ok {
			doc = &common.Document{Index: idx, Concepts: []common.RawConcept{}}
			byIndex[idx] = doc
		}
		for _, raw := range rec.Concepts {
			var c common.RawConcept
			if err := json.Unmarshal(raw, &c); err != nil || strings.TrimSpace(c.Text) == "" {
				skipped++
				continue
			}
			doc.Concepts = append(doc.Concepts, c)
		}
	}

	if skipped > 0 {
		logger.Warn("[Loader] Skipped malformed concepts", "count", skipped)
	}

	docs := make([]common.Document, 0, len(byIndex))
	for _, d := range byIndex {
		docs = append(docs, *d)
	}
	slices.SortFunc(docs, func(a, b common.Document) int { return a.Index - b.Index })
	return docs, nil
}
