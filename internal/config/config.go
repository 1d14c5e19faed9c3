package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/graph"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const (
	AdapterOpenAI = "openai"
	AdapterOllama = "ollama"
	AdapterStub   = "stub"
)

// Config is the root configuration of a pipeline run.
type Config struct {
	ExclusionsPath string          `yaml:"exclusions_path" validate:"required"`
	Pipeline       PipelineConfig  `yaml:"pipeline"`
	Filter         FilterConfig    `yaml:"filter"`
	Extractor      ExtractorConfig `yaml:"extractor"`
	Store          StoreConfig     `yaml:"store"`
}

// PipelineConfig holds the numeric parameters of graph construction.
type PipelineConfig struct {
	Threshold          int     `yaml:"threshold" validate:"min=1"`
	Percentile         float64 `yaml:"percentile" validate:"min=0,max=100"`
	MinCommunitySize   int     `yaml:"min_community_size" validate:"min=1"`
	Seed               int64   `yaml:"seed"`
	Resolution         float64 `yaml:"resolution" validate:"gt=0"`
	EigenvectorMaxIter int     `yaml:"eigenvector_max_iter" validate:"min=1"`
	Tolerance          float64 `yaml:"tolerance" validate:"gt=0"`
	SkipFailedMetrics  bool    `yaml:"skip_failed_metrics"`
}

// FilterConfig configures concept filtering. Clean enables the stricter
// corpus-wide cleaning pass.
type FilterConfig struct {
	MinRelevance float64      `yaml:"min_relevance" validate:"min=0,max=1"`
	Clean        *CleanConfig `yaml:"clean"`
}

type CleanConfig struct {
	MinRelevance float64          `yaml:"min_relevance"`
	Dedupe       bool             `yaml:"dedupe"`
	Denylist     []string         `yaml:"denylist"`
	Drop         *graph.DropRange `yaml:"drop"`
}

// ExtractorConfig selects and configures the concept extractor.
type ExtractorConfig struct {
	Adapter               string        `yaml:"adapter" validate:"oneof=openai ollama stub"`
	Model                 string        `yaml:"model"`
	BaseURL               string        `yaml:"base_url"`
	APIKey                string        `yaml:"api_key"`
	Limit                 int           `yaml:"limit" validate:"min=1"`
	Temperature           float64       `yaml:"temperature" validate:"min=0,max=2"`
	TokenEncoder          string        `yaml:"token_encoder"`
	MaxTokens             int           `yaml:"max_tokens" validate:"min=0"`
	ParallelDocs          int           `yaml:"parallel_docs" validate:"min=1"`
	MaxRetries            int           `yaml:"max_retries" validate:"min=1"`
	RetryDelay            time.Duration `yaml:"retry_delay" validate:"min=0"`
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests" validate:"min=1"`
	SkipFailedDocs        bool          `yaml:"skip_failed_docs"`
	Vocabulary            []string      `yaml:"vocabulary"`
}

// StoreConfig configures snapshot persistence.
type StoreConfig struct {
	DatabaseURL    string        `yaml:"database_url"`
	MigrationsPath string        `yaml:"migrations_path"`
	LeaseTTL       time.Duration `yaml:"lease_ttl" validate:"min=0"`
}

// Default returns the configuration used for unset values.
func Default() *Config {
	p := graph.DefaultParams()
	return &Config{
		ExclusionsPath: "config/dbpedia_exclusions.json",
		Pipeline: PipelineConfig{
			Threshold:          p.Threshold,
			Percentile:         p.Percentile,
			MinCommunitySize:   p.MinCommunitySize,
			Seed:               p.Seed,
			Resolution:         p.Resolution,
			EigenvectorMaxIter: p.EigenvectorMaxIter,
			Tolerance:          p.Tolerance,
		},
		Extractor: ExtractorConfig{
			Adapter:               AdapterOpenAI,
			Model:                 "gpt-4o-mini",
			Limit:                 8,
			TokenEncoder:          "o200k_base",
			MaxTokens:             8000,
			ParallelDocs:          4,
			MaxRetries:            3,
			RetryDelay:            time.Second,
			MaxConcurrentRequests: 10,
		},
		Store: StoreConfig{
			MigrationsPath: "migrations",
			LeaseTTL:       5 * time.Minute,
		},
	}
}

var validate = validator.New()

// Load reads the YAML configuration at path on top of Default, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ExclusionsPath = util.GetEnvString("SEMGRAPH_EXCLUSIONS_PATH", cfg.ExclusionsPath)

	cfg.Pipeline.Threshold = util.GetEnvInt("SEMGRAPH_THRESHOLD", cfg.Pipeline.Threshold)
	cfg.Pipeline.Percentile = util.GetEnvFloat("SEMGRAPH_PERCENTILE", cfg.Pipeline.Percentile)
	cfg.Pipeline.MinCommunitySize = util.GetEnvInt("SEMGRAPH_MIN_COMMUNITY_SIZE", cfg.Pipeline.MinCommunitySize)
	cfg.Pipeline.Seed = util.GetEnvInt64("SEMGRAPH_SEED", cfg.Pipeline.Seed)
	cfg.Pipeline.SkipFailedMetrics = util.GetEnvBool("SEMGRAPH_SKIP_FAILED_METRICS", cfg.Pipeline.SkipFailedMetrics)

	cfg.Extractor.Adapter = util.GetEnvString("AI_ADAPTER", cfg.Extractor.Adapter)
	cfg.Extractor.BaseURL = util.GetEnvString("AI_CHAT_URL", cfg.Extractor.BaseURL)
	cfg.Extractor.APIKey = util.GetEnvString("AI_CHAT_KEY", cfg.Extractor.APIKey)
	cfg.Extractor.Model = util.GetEnvString("AI_CHAT_EXTRACT_MODEL", cfg.Extractor.Model)
	cfg.Extractor.MaxConcurrentRequests = util.GetEnvInt("AI_PARALLEL_REQ", cfg.Extractor.MaxConcurrentRequests)
	cfg.Extractor.RetryDelay = util.GetEnvDuration("AI_RETRY_DELAY", cfg.Extractor.RetryDelay)
	cfg.Extractor.Vocabulary = util.GetEnvList("SEMGRAPH_STUB_VOCABULARY", cfg.Extractor.Vocabulary)
	if util.GetEnvBool("DEV_MODE", false) {
		cfg.Extractor.Adapter = AdapterStub
	}

	cfg.Store.DatabaseURL = util.GetEnvString("DATABASE_URL", cfg.Store.DatabaseURL)
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if d := c.Filter.Clean; d != nil && d.Drop != nil && (d.Drop.From < 0 || d.Drop.To < d.Drop.From) {
		return fmt.Errorf("invalid config: drop range [%d,%d)", d.Drop.From, d.Drop.To)
	}
	return nil
}

// Params converts the pipeline section into graph parameters.
func (p PipelineConfig) Params() graph.Params {
	return graph.Params{
		Threshold:          p.Threshold,
		Percentile:         p.Percentile,
		MinCommunitySize:   p.MinCommunitySize,
		Seed:               p.Seed,
		Resolution:         p.Resolution,
		EigenvectorMaxIter: p.EigenvectorMaxIter,
		Tolerance:          p.Tolerance,
		SkipFailedMetrics:  p.SkipFailedMetrics,
	}
}

// Options converts the filter section into filter and clean options. The
// clean options are nil unless cleaning is configured.
func (f FilterConfig) Options() (graph.FilterOptions, *graph.CleanOptions) {
	opts := graph.FilterOptions{MinRelevance: f.MinRelevance}
	if f.Clean == nil {
		return opts, nil
	}
	return opts, &graph.CleanOptions{
		MinRelevance: f.Clean.MinRelevance,
		Dedupe:       f.Clean.Dedupe,
		Denylist:     f.Clean.Denylist,
		Drop:         f.Clean.Drop,
	}
}
