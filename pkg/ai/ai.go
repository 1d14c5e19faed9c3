package ai

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
)

// DefaultConceptLimit is the number of concepts requested per document when
// no limit is configured.
const DefaultConceptLimit = 8

// ErrMalformedResponse is returned when a model answer cannot be decoded even
// after repair.
var ErrMalformedResponse = errors.New("malformed model response")

// ConceptExtractor turns raw text into a list of weighted concepts.
// Implementations must be safe for concurrent use.
type ConceptExtractor interface {
	ExtractConcepts(ctx context.Context, text string, opts ...ExtractOption) ([]common.RawConcept, error)
}

// MetricsReporter is implemented by extractors that account model usage.
type MetricsReporter interface {
	ResetMetrics()
	GetMetrics() ModelMetrics
}

// ExtractOptions holds configuration for a single extraction request.
type ExtractOptions struct {
	Model         string   // Model identifier to use for extraction
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	Limit         int      // Maximum number of concepts returned
}

// ExtractOption is a functional option for configuring extraction requests.
type ExtractOption func(*ExtractOptions)

// WithModel returns an ExtractOption that overrides the configured model.
func WithModel(model string) ExtractOption {
	return func(o *ExtractOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns an ExtractOption that sets the system prompts
// to prepend to the request.
func WithSystemPrompts(prompts ...string) ExtractOption {
	return func(o *ExtractOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns an ExtractOption that sets the sampling temperature.
func WithTemperature(temp float64) ExtractOption {
	return func(o *ExtractOptions) {
		o.Temperature = temp
	}
}

// WithLimit returns an ExtractOption that caps the number of concepts.
func WithLimit(limit int) ExtractOption {
	return func(o *ExtractOptions) {
		o.Limit = limit
	}
}

// ApplyOptions applies opts on top of base.
func ApplyOptions(base ExtractOptions, opts ...ExtractOption) ExtractOptions {
	for _, o := range opts {
		o(&base)
	}
	if base.Limit <= 0 {
		base.Limit = DefaultConceptLimit
	}
	return base
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	Requests       int     `json:"requests"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// MetricsCollector accumulates ModelMetrics across concurrent requests.
// Its zero value is ready to use.
type MetricsCollector struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// Add accumulates m.
func (c *MetricsCollector) Add(m ModelMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.Requests++
	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}

// ResetMetrics clears all accumulated metrics.
func (c *MetricsCollector) ResetMetrics() {
	c.mu.Lock()
	c.metrics = ModelMetrics{}
	c.mu.Unlock()
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *MetricsCollector) GetMetrics() ModelMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}
