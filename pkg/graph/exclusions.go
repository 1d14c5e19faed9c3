package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Exclusions maps a document index to the set of resource identifiers whose
// concepts must be dropped for that document.
type Exclusions map[int]map[string]struct{}

// NewExclusions builds an Exclusions set from plain slices.
func NewExclusions(raw map[int][]string) Exclusions {
	ex := make(Exclusions, len(raw))
	for doc, resources := range raw {
		set := make(map[string]struct{}, len(resources))
		for _, r := range resources {
			set[r] = struct{}{}
		}
		ex[doc] = set
	}
	return ex
}

// Excluded reports whether resource is excluded for the given document.
// An empty resource is only excluded if "" is explicitly listed.
func (e Exclusions) Excluded(docIndex int, resource string) bool {
	set, ok := e[docIndex]
	if !ok {
		return false
	}
	_, found := set[resource]
	return found
}

// LoadExclusions reads the per-document exclusion configuration from a JSON
// file of the form {"0": ["http://dbpedia.org/resource/X", ...], ...}.
//
// A missing file yields an error wrapping ErrConfigNotFound.
func LoadExclusions(path string) (Exclusions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read exclusion config: %w", err)
	}
	return ParseExclusions(data)
}

// ParseExclusions decodes the JSON exclusion format. Keys must be
// non-negative integers encoded as strings.
func ParseExclusions(data []byte) (Exclusions, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse exclusion config: %w", err)
	}

	byDoc := make(map[int][]string, len(raw))
	for key, resources := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid document index %q in exclusion config", key)
		}
		byDoc[idx] = append(byDoc[idx], resources...)
	}

	return NewExclusions(byDoc), nil
}
