package common

// RawConcept is a single concept as produced by a concept extractor for one
// document. Relevance is expected to be in [0,1]. Resource is an optional
// canonical identifier (for example a DBpedia resource URL) and may be empty.
//
// RawConcepts are created once per document analysis and never modified.
type RawConcept struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Resource  string  `json:"dbpedia_resource,omitempty"`
}

// Document represents one analysed text of the corpus.
//
// Index is the position of the document in the original corpus and is the
// key used by per-document exclusion configuration. Text may be empty when
// the concepts were loaded from a pre-extracted source.
type Document struct {
	Index    int          `json:"doc_index"`
	Text     string       `json:"text,omitempty"`
	Concepts []RawConcept `json:"concepts"`
}

// ConceptRow is a concept that survived filtering, tagged with the index of
// the document it was extracted from.
type ConceptRow struct {
	DocIndex  int     `json:"doc_index"`
	Concept   string  `json:"concept"`
	Relevance float64 `json:"relevance"`
}
