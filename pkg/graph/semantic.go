package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"

	"github.com/go-playground/validator"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Stage names used for timings.
const (
	StageCooccurrence = "cooccurrence"
	StagePrune        = "prune"
	StageCommunities  = "communities"
	StageMetrics      = "metrics"
)

// Params configures NewSemanticGraph.
type Params struct {
	// Threshold is the minimum co-occurrence count of an edge in the edge list.
	Threshold int `validate:"min=1"`
	// Percentile is the pruning percentile used when Pruner is nil.
	Percentile float64 `validate:"min=0,max=100"`
	// MinCommunitySize is the smallest community kept in the final graph.
	MinCommunitySize int `validate:"min=1"`
	// Seed and Resolution configure the default Louvain detector.
	Seed       int64
	Resolution float64 `validate:"gt=0"`

	EigenvectorMaxIter int     `validate:"min=1"`
	Tolerance          float64 `validate:"gt=0"`

	// SkipFailedMetrics leaves failed metrics out of the snapshot instead of
	// failing the build. Failures are then reported by MetricErrors.
	SkipFailedMetrics bool

	// Pruner and Detector replace the default percentile pruner and Louvain
	// detector when set.
	Pruner   Pruner
	Detector CommunityDetector
}

// DefaultParams returns the parameters of the reference analysis.
func DefaultParams() Params {
	return Params{
		Threshold:          1,
		Percentile:         99,
		MinCommunitySize:   9,
		Seed:               42,
		Resolution:         1,
		EigenvectorMaxIter: 100,
		Tolerance:          1e-6,
	}
}

var validate = validator.New()

// Validate checks the numeric parameters.
func (p Params) Validate() error {
	if err := validatePercentile(p.Percentile); err != nil {
		return err
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (p Params) pruner() Pruner {
	if p.Pruner != nil {
		return p.Pruner
	}
	return PercentilePruner{Percentile: p.Percentile}
}

func (p Params) detector() CommunityDetector {
	if p.Detector != nil {
		return p.Detector
	}
	return Louvain{Seed: p.Seed, Resolution: p.Resolution}
}

// SemanticGraph is the immutable result of one pipeline run over a set of
// filtered concept rows. Accessors return copies.
type SemanticGraph struct {
	id     string
	params Params

	cooc      *Cooccurrence
	backbone  *Graph
	community *CommunityResult

	metrics       Metrics
	metricErrors  []*MetricError
	modularity    float64
	timings       map[string]time.Duration
	conceptsCount int
}

// NewSemanticGraph runs co-occurrence counting, pruning, community detection
// and centrality scoring over rows. Zero rows yield an empty snapshot.
func NewSemanticGraph(ctx context.Context, rows []common.ConceptRow, params Params) (*SemanticGraph, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	sg := &SemanticGraph{
		id:            id,
		params:        params,
		timings:       make(map[string]time.Duration, 4),
		conceptsCount: len(rows),
	}

	start := time.Now()
	sg.cooc = ComputeCooccurrence(rows, params.Threshold)
	sg.timings[StageCooccurrence] = time.Since(start)
	logger.Debug("[Graph] Computed co-occurrence", "documents", len(sg.cooc.DocIndices), "concepts", len(sg.cooc.Concepts), "edges", len(sg.cooc.Edges), "duration", sg.timings[StageCooccurrence])

	if len(sg.cooc.Concepts) == 0 {
		logger.Info("[Graph] No concepts left after filtering, returning empty graph", "id", id)
		sg.backbone = EmptyGraph()
		sg.community = &CommunityResult{Graph: EmptyGraph(), Retained: []int{}, Partition: map[string]int{}, Detected: map[string]int{}, Sizes: map[int]int{}}
		sg.metrics = emptyMetrics()
		return sg, nil
	}

	start = time.Now()
	sg.backbone, err = params.pruner().Prune(sg.cooc.Counts, sg.cooc.Concepts)
	if err != nil {
		return nil, fmt.Errorf("failed to prune graph: %w", err)
	}
	sg.timings[StagePrune] = time.Since(start)

	start = time.Now()
	sg.community, err = DetectAndFilterCommunities(sg.backbone, params.detector(), params.MinCommunitySize)
	if err != nil {
		return nil, err
	}
	sg.modularity = Modularity(sg.backbone, sg.community.Detected)
	sg.timings[StageCommunities] = time.Since(start)

	start = time.Now()
	sg.metrics, err = ComputeAllMetrics(ctx, sg.community.Graph, MetricOptions{
		Tolerance:          params.Tolerance,
		EigenvectorMaxIter: params.EigenvectorMaxIter,
	})
	sg.timings[StageMetrics] = time.Since(start)
	if err != nil {
		if !params.SkipFailedMetrics || ctx.Err() != nil {
			return nil, fmt.Errorf("failed to compute metrics: %w", err)
		}
		sg.metricErrors = collectMetricErrors(err)
		for _, me := range sg.metricErrors {
			logger.Warn("[Graph] Skipping failed metric", "metric", me.Metric, "err", me.Err)
		}
	}

	logger.Info("[Graph] Built semantic graph",
		"id", id,
		"nodes", sg.community.Graph.NumNodes(),
		"edges", sg.community.Graph.NumEdges(),
		"communities", len(sg.community.Sizes),
		"retained", len(sg.community.Retained),
		"modularity", sg.modularity,
	)
	return sg, nil
}

func emptyMetrics() Metrics {
	m := make(Metrics, len(MetricNames))
	for _, name := range MetricNames {
		m[name] = Scores{}
	}
	return m
}

func collectMetricErrors(err error) []*MetricError {
	var out []*MetricError
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var me *MetricError
			if errors.As(e, &me) {
				out = append(out, me)
			}
		}
		return out
	}
	var me *MetricError
	if errors.As(err, &me) {
		out = append(out, me)
	}
	return out
}

func (s *SemanticGraph) ID() string { return s.id }
func (s *SemanticGraph) Params() Params { return s.params }

// IsEmpty reports whether no concept survived filtering.
func (s *SemanticGraph) IsEmpty() bool { return len(s.cooc.Concepts) == 0 }

// Indicator returns the document×concept indicator matrix.
func (s *SemanticGraph) Indicator() *IntMatrix { return s.cooc.Indicator }

// Cooccurrence returns the concept×concept co-occurrence counts.
func (s *SemanticGraph) Cooccurrence() *IntMatrix { return s.cooc.Counts }

// Edges returns the thresholded co-occurrence edge list.
func (s *SemanticGraph) Edges() []Edge { return slices.Clone(s.cooc.Edges) }

// FeatureNames returns the sorted distinct concepts.
func (s *SemanticGraph) FeatureNames() []string { return slices.Clone(s.cooc.Concepts) }

// DocIndices returns the document index of every indicator row.
func (s *SemanticGraph) DocIndices() []int { return slices.Clone(s.cooc.DocIndices) }

// Backbone returns the pruned graph before community suppression.
func (s *SemanticGraph) Backbone() *Graph { return s.backbone }

// Graph returns the final graph restricted to the retained communities.
func (s *SemanticGraph) Graph() *Graph { return s.community.Graph }

// Partition returns the community of every node of the final graph.
func (s *SemanticGraph) Partition() map[string]int { return maps.Clone(s.community.Partition) }

// Sizes returns the member count of every community before suppression.
func (s *SemanticGraph) Sizes() map[int]int { return maps.Clone(s.community.Sizes) }

// Retained returns the kept community ids in ascending order.
func (s *SemanticGraph) Retained() []int { return slices.Clone(s.community.Retained) }

// Modularity returns the modularity of the unfiltered partition over the
// backbone.
func (s *SemanticGraph) Modularity() float64 { return s.modularity }

// Metrics returns the centrality scores of every final node.
func (s *SemanticGraph) Metrics() Metrics {
	out := make(Metrics, len(s.metrics))
	for k, v := range s.metrics {
		out[k] = maps.Clone(v)
	}
	return out
}

// MetricErrors lists the metrics skipped because of SkipFailedMetrics.
func (s *SemanticGraph) MetricErrors() []*MetricError { return slices.Clone(s.metricErrors) }

// Timings returns the wall time spent in each stage.
func (s *SemanticGraph) Timings() map[string]time.Duration { return maps.Clone(s.timings) }

// RowCount returns the number of concept rows the graph was built from.
func (s *SemanticGraph) RowCount() int { return s.conceptsCount }

type semanticGraphJSON struct {
	ID           string            `json:"id"`
	FeatureNames []string          `json:"feature_names"`
	Indicator    *IntMatrix        `json:"indicator"`
	Cooccurrence *IntMatrix        `json:"cooccurrence"`
	Edges        []Edge            `json:"edges"`
	Graph        *Graph            `json:"graph"`
	Partition    map[string]int    `json:"partition"`
	Sizes        map[int]int       `json:"community_sizes"`
	Retained     []int             `json:"retained_communities"`
	Modularity   float64           `json:"modularity"`
	Metrics      Metrics           `json:"metrics"`
	MetricErrors map[string]string `json:"metric_errors,omitempty"`
}

func (s *SemanticGraph) MarshalJSON() ([]byte, error) {
	var metricErrors map[string]string
	if len(s.metricErrors) > 0 {
		metricErrors = make(map[string]string, len(s.metricErrors))
		for _, me := range s.metricErrors {
			metricErrors[me.Metric] = me.Err.Error()
		}
	}
	return json.Marshal(semanticGraphJSON{
		ID:           s.id,
		FeatureNames: s.cooc.Concepts,
		Indicator:    s.cooc.Indicator,
		Cooccurrence: s.cooc.Counts,
		Edges:        s.cooc.Edges,
		Graph:        s.community.Graph,
		Partition:    s.community.Partition,
		Sizes:        s.community.Sizes,
		Retained:     s.community.Retained,
		Modularity:   s.modularity,
		Metrics:      s.metrics,
		MetricErrors: metricErrors,
	})
}
