package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  conceptItem
	}{
		{
			name:  "valid json object",
			input: `{"text":"Energy"}`,
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{text: 'Energy'}`,
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "trailing comma",
			input: `{"text":"Energy",}`,
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "missing endbracket",
			input: `{"text":"Energy`,
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{text: 'Energy'}"`,
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"text\": \"Energy\"\n}\n",
			want:  conceptItem{Text: "Energy"},
		},
		{
			name:  "duplicate leading brace no newlines",
			input: `{ { "text": "Energy" }`,
			want:  conceptItem{Text: "Energy"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got conceptItem
			require.NoError(t, UnmarshalFlexible(tc.input, &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnmarshalFlexible_ConceptResponse(t *testing.T) {
	input := `"{ \"concepts\": [ { \"text\": \"Climate change\", \"relevance\": 0.93, \"dbpedia_resource\": \"http://dbpedia.org/resource/Climate_change\" } ] }"`

	var got ConceptResponse
	require.NoError(t, UnmarshalFlexible(input, &got))
	require.Len(t, got.Concepts, 1)
	assert.Equal(t, "Climate change", got.Concepts[0].Text)
	assert.Equal(t, 0.93, got.Concepts[0].Relevance)
	assert.Equal(t, "http://dbpedia.org/resource/Climate_change", got.Concepts[0].Resource)
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	var got []conceptItem
	require.NoError(t, UnmarshalFlexible(`[{text:'A'},{text:'B',}]`, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Text)
	assert.Equal(t, "B", got[1].Text)
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got conceptItem
	assert.Error(t, UnmarshalFlexible("hello", &got))
}

func TestGenerateSchema(t *testing.T) {
	raw, err := json.Marshal(GenerateSchema(&ConceptResponse{}))
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Contains(t, schema["required"], "concepts")

	props := schema["properties"].(map[string]any)
	concepts := props["concepts"].(map[string]any)
	assert.Equal(t, "array", concepts["type"])

	item := concepts["items"].(map[string]any)
	itemProps := item["properties"].(map[string]any)
	assert.Contains(t, itemProps, "text")
	assert.Contains(t, itemProps, "relevance")
	assert.Contains(t, itemProps, "dbpedia_resource")
}

func TestUnmarshalFlexible_WrapsSentinel(t *testing.T) {
	var got ConceptResponse
	err := UnmarshalFlexible(`{"concepts": 5}`, &got)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerateSchema_Cached(t *testing.T) {
	a := GenerateSchema(ConceptResponse{})
	b := GenerateSchema(&ConceptResponse{})
	assert.Same(t, a, b)
}

func TestDecodeConceptResponse(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{"object", `{"concepts":[{"text":"Wind power","relevance":0.7}]}`, []string{"Wind power"}},
		{"code fence", "```json\n{\"concepts\":[{\"text\":\"Wind power\",\"relevance\":0.7}]}\n```", []string{"Wind power"}},
		{"bare array", `[{"text":"Wind power"},{"text":"Hydropower"}]`, []string{"Wind power", "Hydropower"}},
		{"repaired", `{concepts: [{text: 'Wind power', relevance: 0.7,}]`, []string{"Wind power"}},
		{"empty list", `{"concepts":[]}`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := DecodeConceptResponse(tc.answer)
			require.NoError(t, err)
			var names []string
			for _, c := range resp.Concepts {
				names = append(names, c.Text)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}
