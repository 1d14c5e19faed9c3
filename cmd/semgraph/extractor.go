package main

import (
	"fmt"

	"github.com/OFFIS-RIT/semgraph/internal/config"
	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/ai/ollama"
	"github.com/OFFIS-RIT/semgraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/semgraph/pkg/ai/stub"
)

func newExtractor(cfg config.ExtractorConfig) (ai.ConceptExtractor, error) {
	switch cfg.Adapter {
	case config.AdapterStub:
		if len(cfg.Vocabulary) > 0 {
			return stub.NewKeyword(cfg.Vocabulary...), nil
		}
		return stub.NewFixed(), nil
	case config.AdapterOllama:
		client, err := ollama.NewConceptOllamaClient(ollama.NewConceptOllamaClientParams{
			Model:       cfg.Model,
			Limit:       cfg.Limit,
			Temperature: cfg.Temperature,

			BaseURL: cfg.BaseURL,
			ApiKey:  cfg.APIKey,

			TokenEncoder: cfg.TokenEncoder,
			MaxTokens:    cfg.MaxTokens,

			MaxConcurrentRequests: int64(cfg.MaxConcurrentRequests),
		})
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		return client, nil
	case config.AdapterOpenAI:
		return openai.NewConceptOpenAIClient(openai.NewConceptOpenAIClientParams{
			Model:       cfg.Model,
			ChatURL:     cfg.BaseURL,
			ChatKey:     cfg.APIKey,
			Limit:       cfg.Limit,
			Temperature: cfg.Temperature,

			TokenEncoder: cfg.TokenEncoder,
			MaxTokens:    cfg.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown extractor adapter %q", cfg.Adapter)
	}
}
