package openai

import (
	"github.com/OFFIS-RIT/semgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ConceptOpenAIClient extracts concepts with an OpenAI compatible chat
// completion endpoint using structured JSON output.
//
// A ConceptOpenAIClient should be created using NewConceptOpenAIClient.
type ConceptOpenAIClient struct {
	model        string
	limit        int
	temperature  float64
	tokenEncoder string
	maxTokens    int

	ai.MetricsCollector

	ChatClient *openai.Client
}

// NewConceptOpenAIClientParams defines the configuration parameters for
// creating a new ConceptOpenAIClient.
//
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL talks to api.openai.com. Input texts longer than MaxTokens tokens
// of TokenEncoder are truncated before they are sent.
type NewConceptOpenAIClientParams struct {
	Model       string
	ChatURL     string
	ChatKey     string
	Limit       int
	Temperature float64

	TokenEncoder string
	MaxTokens    int

	// RequestOptions are appended to the client options, mostly for tests.
	RequestOptions []option.RequestOption
}

// NewConceptOpenAIClient creates and returns a new ConceptOpenAIClient.
//
// Example:
//
//	client := openai.NewConceptOpenAIClient(openai.NewConceptOpenAIClientParams{
//		Model:   "gpt-4o-mini",
//		ChatKey: os.Getenv("AI_CHAT_KEY"),
//	})
func NewConceptOpenAIClient(params NewConceptOpenAIClientParams) *ConceptOpenAIClient {
	encoder := params.TokenEncoder
	if encoder == "" {
		encoder = "o200k_base"
	}
	return &ConceptOpenAIClient{
		model:        params.Model,
		limit:        params.Limit,
		temperature:  params.Temperature,
		tokenEncoder: encoder,
		maxTokens:    params.MaxTokens,

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey, params.RequestOptions...),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	extra ...option.RequestOption,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, extra...)

	client := openai.NewClient(options...)

	return &client
}
