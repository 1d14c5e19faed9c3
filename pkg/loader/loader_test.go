package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string]string

func (m mapLoader) GetText(_ context.Context, file CorpusFile) ([]byte, error) {
	text, ok := m[file.Path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(text), nil
}

func TestListCorpus(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "c.html", "notes.pdf", "z.TXT"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	files, err := ListCorpus(dir)
	require.NoError(t, err)

	assert.Equal(t, []CorpusFile{
		{Index: 0, Path: filepath.Join(dir, "a.md"), Type: FileTypeText},
		{Index: 1, Path: filepath.Join(dir, "b.txt"), Type: FileTypeText},
		{Index: 2, Path: filepath.Join(dir, "c.html"), Type: FileTypeHTML},
		{Index: 3, Path: filepath.Join(dir, "z.TXT"), Type: FileTypeText},
	}, files)
}

func TestListCorpusMissingDir(t *testing.T) {
	_, err := ListCorpus(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadTexts(t *testing.T) {
	files := []CorpusFile{
		{Index: 0, Path: "one"},
		{Index: 1, Path: "two"},
	}

	texts, err := LoadTexts(context.Background(), files, mapLoader{"one": "first", "two": "second"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, texts)

	_, err = LoadTexts(context.Background(), files, mapLoader{"one": "first"})
	assert.ErrorContains(t, err, "two")
}

func TestParseConcepts(t *testing.T) {
	data := []byte(`[
		{"doc_index": 2, "concepts": [
			{"text": "Energy", "relevance": 0.9, "dbpedia_resource": "http://dbpedia.org/resource/Energy"},
			{"text": "", "relevance": 0.5},
			{"text": "Broken", "relevance": "high"}
		]},
		{"concepts": [{"text": "Grid", "relevance": 0.4}]},
		{"doc_index": 2, "concepts": [{"text": "Storage", "relevance": 0.3}]},
		{"doc_index": 5, "concepts": []}
	]`)

	docs, err := ParseConcepts(data)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, 1, docs[0].Index)
	assert.Equal(t, "Grid", docs[0].Concepts[0].Text)

	assert.Equal(t, 2, docs[1].Index)
	require.Len(t, docs[1].Concepts, 2)
	assert.Equal(t, "http://dbpedia.org/resource/Energy", docs[1].Concepts[0].Resource)
	assert.Equal(t, "Storage", docs[1].Concepts[1].Text)

	assert.Equal(t, 5, docs[2].Index)
	assert.Empty(t, docs[2].Concepts)
}

func TestParseConceptsInvalid(t *testing.T) {
	_, err := ParseConcepts([]byte(`{"doc_index": 0}`))
	assert.Error(t, err)

	_, err = ParseConcepts([]byte(`[{"doc_index": -1, "concepts": []}]`))
	assert.Error(t, err)
}

func TestLoadConcepts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concepts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"doc_index": 0, "concepts": [{"text": "A", "relevance": 1}]}]`), 0o644))

	docs, err := LoadConcepts(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "A", docs[0].Concepts[0].Text)

	_, err = LoadConcepts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
