package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

func newTestServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
}

func TestExtractConcepts(t *testing.T) {
	var req map[string]any
	srv := newTestServer(t, `{"concepts":[{"text":"Wind power","relevance":0.7,"dbpedia_resource":"http://dbpedia.org/resource/Wind_power"},{"text":"Climate change","relevance":0.95,"dbpedia_resource":""}]}`, &req)
	defer srv.Close()

	client := NewConceptOpenAIClient(NewConceptOpenAIClientParams{
		Model:   "test-model",
		ChatURL: srv.URL + "/",
		ChatKey: "test",
		Limit:   5,
	})

	got, err := client.ExtractConcepts(context.Background(), "Wind farms help against climate change.")
	require.NoError(t, err)
	assert.Equal(t, []common.RawConcept{
		{Text: "Climate change", Relevance: 0.95},
		{Text: "Wind power", Relevance: 0.7, Resource: "http://dbpedia.org/resource/Wind_power"},
	}, got)

	assert.Equal(t, "test-model", req["model"])
	format := req["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	msgs := req["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Contains(t, msgs[0].(map[string]any)["content"], "at most 5 high-level concepts")

	m := client.GetMetrics()
	assert.Equal(t, 1, m.Requests)
	assert.Equal(t, 120, m.InputTokens)
	assert.Equal(t, 150, m.TotalTokens)
}

func TestExtractConcepts_RepairsMalformedOutput(t *testing.T) {
	srv := newTestServer(t, `{concepts: [{text: 'Energy', relevance: 0.5, dbpedia_resource: ''},]`, nil)
	defer srv.Close()

	client := NewConceptOpenAIClient(NewConceptOpenAIClientParams{Model: "m", ChatURL: srv.URL + "/", ChatKey: "k"})

	got, err := client.ExtractConcepts(context.Background(), "text", ai.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Energy", got[0].Text)
}

func TestExtractConcepts_EmptyResponse(t *testing.T) {
	srv := newTestServer(t, "", nil)
	defer srv.Close()

	client := NewConceptOpenAIClient(NewConceptOpenAIClientParams{Model: "m", ChatURL: srv.URL + "/", ChatKey: "k"})

	_, err := client.ExtractConcepts(context.Background(), "text")
	assert.ErrorContains(t, err, "empty response")
}
