package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"

	"github.com/openai/openai-go/v3"
)

// ExtractConcepts asks the chat model for the concepts of text and returns
// them normalised and ordered by relevance.
func (c *ConceptOpenAIClient) ExtractConcepts(
	ctx context.Context,
	text string,
	opts ...ai.ExtractOption,
) ([]common.RawConcept, error) {
	options := ai.ApplyOptions(ai.ExtractOptions{
		Model:       c.model,
		Temperature: c.temperature,
		Limit:       c.limit,
	}, opts...)

	input, tokens, err := util.TruncateTokens(text, c.tokenEncoder, c.maxTokens)
	if err != nil {
		return nil, err
	}
	if tokens > c.maxTokens && c.maxTokens > 0 {
		logger.Debug("[Extract] Truncated input text", "tokens", tokens, "max_tokens", c.maxTokens)
	}

	prompts := append([]string{ai.ConceptSystemPrompt(options.Limit)}, options.SystemPrompts...)

	answer, err := c.generateWithFormat(ctx, "concepts", "Concepts of a text document", input, prompts, options, ai.ConceptResponse{})
	if err != nil {
		return nil, fmt.Errorf("failed to extract concepts: %w", err)
	}
	out, err := ai.DecodeConceptResponse(answer)
	if err != nil {
		return nil, err
	}
	return ai.NormalizeConcepts(out, options.Limit), nil
}

// generateWithFormat sends a prompt to the chat model and returns the raw
// answer, enforcing the JSON schema derived from format.
func (c *ConceptOpenAIClient) generateWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	systemPrompts []string,
	options ai.ExtractOptions,
	format any,
) (string, error) {
	schema := ai.GenerateSchema(format)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(systemPrompts)+1)
	for _, sp := range systemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	c.Add(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return "", fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return message, nil
}
