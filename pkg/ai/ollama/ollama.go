package ollama

import (
	"net/http"
	"net/url"

	"github.com/OFFIS-RIT/semgraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// ConceptOllamaClient implements ai.ConceptExtractor using a locally hosted
// Ollama model with a JSON schema response format.
type ConceptOllamaClient struct {
	model        string
	limit        int
	temperature  float64
	tokenEncoder string
	maxTokens    int

	reqLock *semaphore.Weighted

	ai.MetricsCollector

	Client *api.Client
}

// NewConceptOllamaClientParams contains configuration options for creating a
// new ConceptOllamaClient.
type NewConceptOllamaClientParams struct {
	Model       string
	Limit       int
	Temperature float64

	BaseURL string
	ApiKey  string

	TokenEncoder string
	MaxTokens    int

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewConceptOllamaClient creates a new Ollama-based concept extractor. It
// connects to the Ollama server at the given BaseURL (or the default if
// empty).
func NewConceptOllamaClient(
	params NewConceptOllamaClientParams,
) (*ConceptOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	var cli *api.Client
	if u != nil {
		cli = api.NewClient(u, httpClient)
	} else {
		cli, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	encoder := params.TokenEncoder
	if encoder == "" {
		encoder = "o200k_base"
	}

	return &ConceptOllamaClient{
		model:        params.Model,
		limit:        params.Limit,
		temperature:  params.Temperature,
		tokenEncoder: encoder,
		maxTokens:    params.MaxTokens,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		Client: cli,
	}, nil
}
