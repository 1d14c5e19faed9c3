package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"

	"github.com/ollama/ollama/api"
)

const defaultContext = 4096

// ExtractConcepts asks the model for the concepts of text. At most
// MaxConcurrentRequests calls run against the server at the same time.
func (c *ConceptOllamaClient) ExtractConcepts(
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

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	answer, err := c.generateWithFormat(ctx, input, min(tokens, c.maxTokens), options, ai.ConceptResponse{})
	if err != nil {
		return nil, fmt.Errorf("failed to extract concepts: %w", err)
	}
	out, err := ai.DecodeConceptResponse(answer)
	if err != nil {
		return nil, err
	}
	return ai.NormalizeConcepts(out, options.Limit), nil
}

// generateWithFormat enforces the JSON schema of format and returns the raw
// answer.
func (c *ConceptOllamaClient) generateWithFormat(
	ctx context.Context,
	prompt string,
	promptTokens int,
	options ai.ExtractOptions,
	format any,
) (string, error) {
	formatBytes, err := json.Marshal(ai.GenerateSchema(format))
	if err != nil {
		return "", err
	}

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+2)
	msgs = append(msgs, api.Message{Role: "system", Content: ai.ConceptSystemPrompt(options.Limit)})
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   json.RawMessage(formatBytes),
		Options:  map[string]any{"temperature": options.Temperature},
	}

	// prompt plus room for the system prompt and the answer
	if tokens := promptTokens + 1024; tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.Add(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	if final.Message.Content == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return final.Message.Content, nil
}
