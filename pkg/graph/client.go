package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

// GraphClient runs concept extraction over a corpus and builds semantic
// graphs from the result. It manages token encoding, document parallelism
// and retries of failed extraction requests.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	tokenEncoder   string
	parallelDocs   int
	maxRetries     int
	retryDelay     time.Duration
	maxTokens      int
	skipFailedDocs bool

	countTokens func(string) int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// ParallelDocs controls how many documents are analysed concurrently.
// Documents longer than MaxTokens tokens of TokenEncoder are split into
// sentence aligned units that are analysed separately; MaxTokens <= 0 sends
// every document whole. Failed requests are retried MaxRetries times with
// an exponential wait starting at RetryDelay. With SkipFailedDocs a document whose extraction
// keeps failing contributes no concepts instead of failing the corpus.
type NewGraphClientParams struct {
	TokenEncoder   string
	ParallelDocs   int
	MaxRetries     int
	RetryDelay     time.Duration
	MaxTokens      int
	SkipFailedDocs bool
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		TokenEncoder: "o200k_base",
//		ParallelDocs: 4,
//		MaxTokens:    4000,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	parallel := params.ParallelDocs
	if parallel <= 0 {
		parallel = 1
	}
	encoder := params.TokenEncoder
	if encoder == "" {
		encoder = "o200k_base"
	}

	g := &GraphClient{
		tokenEncoder:   encoder,
		parallelDocs:   parallel,
		maxRetries:     maxRetries,
		retryDelay:     params.RetryDelay,
		maxTokens:      params.MaxTokens,
		skipFailedDocs: params.SkipFailedDocs,
	}

	if g.maxTokens > 0 {
		enc, err := tiktoken.GetEncoding(encoder)
		if err != nil {
			return nil, fmt.Errorf("unknown token encoder %q: %w", encoder, err)
		}
		g.countTokens = func(s string) int { return len(enc.Encode(s, nil, nil)) }
	}

	return g, nil
}

// AnalyzeCorpus extracts the concepts of every text with extractor. The
// i-th document of the result has index i and carries the i-th text. Up to
// ParallelDocs documents are processed at once; each extraction call is
// retried up to MaxRetries times.
func (g *GraphClient) AnalyzeCorpus(
	ctx context.Context,
	texts []string,
	extractor ai.ConceptExtractor,
	opts ...ai.ExtractOption,
) ([]common.Document, error) {
	docs := make([]common.Document, len(texts))
	progress := util.NewProgress(len(texts))

	logger.Info("[Extract] Analysing corpus", "documents", len(texts), "parallel", g.parallelDocs)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelDocs)
	for i, text := range texts {
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
			}

			concepts, err := g.analyzeDocument(gCtx, text, extractor, opts)
			if err != nil {
				if !g.skipFailedDocs || gCtx.Err() != nil {
					return fmt.Errorf("failed to extract concepts from document %d: %w", i, err)
				}
				logger.Warn("[Extract] Skipping document", "doc_index", i, "err", err)
				concepts = nil
			}

			docs[i] = common.Document{Index: i, Text: text, Concepts: concepts}
			p := progress.Done(err != nil)
			logger.Debug("[Extract] Progress", "step", p.Step, "percentage", p.Percentage, "remaining", p.TimeRemaining)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m, ok := extractor.(ai.MetricsReporter); ok {
		metrics := m.GetMetrics()
		logger.Info("[Extract] Corpus analysed",
			"documents", len(docs),
			"requests", metrics.Requests,
			"total_tokens", metrics.TotalTokens,
			"tokens_per_second", metrics.TokenPerSecond,
		)
	}
	return docs, nil
}

func (g *GraphClient) analyzeDocument(
	ctx context.Context,
	text string,
	extractor ai.ConceptExtractor,
	opts []ai.ExtractOption,
) ([]common.RawConcept, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var units []string
	if g.countTokens != nil {
		units = splitIntoUnits(text, g.maxTokens, g.countTokens)
	} else {
		units = []string{text}
	}

	var merged []common.RawConcept
	for _, unit := range units {
		backoff := util.Backoff{Tries: g.maxRetries, Delay: g.retryDelay, MaxDelay: 30 * time.Second}
		concepts, err := util.RetryWithBackoff(ctx, backoff, func(ctx context.Context) ([]common.RawConcept, error) {
			return extractor.ExtractConcepts(ctx, unit, opts...)
		})
		if err != nil {
			return nil, err
		}
		merged = mergeConcepts(merged, concepts)
	}
	return merged, nil
}

// mergeConcepts appends the concepts of next to acc. A concept already in
// acc keeps its position and the higher relevance; a missing resource is
// taken from the later occurrence.
func mergeConcepts(acc, next []common.RawConcept) []common.RawConcept {
	for _, c := range next {
		found := false
		for j := range acc {
			if acc[j].Text == c.Text {
				acc[j].Relevance = max(acc[j].Relevance, c.Relevance)
				if acc[j].Resource == "" {
					acc[j].Resource = c.Resource
				}
				found = true
				break
			}
		}
		if !found {
			acc = append(acc, c)
		}
	}
	return acc
}

// BuildGraph filters the concepts of docs and builds a semantic graph from
// the remaining rows.
func (g *GraphClient) BuildGraph(
	ctx context.Context,
	docs []common.Document,
	exclusions Exclusions,
	filter FilterOptions,
	clean *CleanOptions,
	params Params,
) (*SemanticGraph, error) {
	rows := FilterConcepts(docs, exclusions, filter)
	if clean != nil {
		rows = CleanConcepts(rows, *clean)
	}
	logger.Info("[Graph] Filtered concepts", "documents", len(docs), "rows", len(rows))
	return NewSemanticGraph(ctx, rows, params)
}
