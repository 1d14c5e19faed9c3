package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/graph"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"
	"github.com/OFFIS-RIT/semgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

var (
	nodeColumns = []string{"snapshot_id", "concept", "community", "doc_frequency", "pagerank", "betweenness", "eigenvector", "degree"}
	edgeColumns = []string{"snapshot_id", "source", "target", "weight"}
)

// SnapshotDBStorage implements store.SnapshotStorage on PostgreSQL. Nodes
// and edges are written with COPY in chunks of batchSize rows inside the
// snapshot transaction.
type SnapshotDBStorage struct {
	conn      pgxIConn
	batchSize int
}

type SnapshotDBStorageOption func(*SnapshotDBStorage)

func WithBatchSize(n int) SnapshotDBStorageOption {
	return func(s *SnapshotDBStorage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewSnapshotDBStorage creates a new SnapshotDBStorage on an existing
// connection or pool.
func NewSnapshotDBStorage(conn pgxIConn, opts ...SnapshotDBStorageOption) *SnapshotDBStorage {
	s := &SnapshotDBStorage{
		conn:      conn,
		batchSize: 5000,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

var _ store.SnapshotStorage = (*SnapshotDBStorage)(nil)

type snapshotParams struct {
	Threshold          int     `json:"threshold"`
	Percentile         float64 `json:"percentile"`
	MinCommunitySize   int     `json:"min_community_size"`
	Seed               int64   `json:"seed"`
	Resolution         float64 `json:"resolution"`
	EigenvectorMaxIter int     `json:"eigenvector_max_iter"`
	Tolerance          float64 `json:"tolerance"`
	SkipFailedMetrics  bool    `json:"skip_failed_metrics"`
	Retained           []int   `json:"retained_communities"`
}

func (s *SnapshotDBStorage) SaveSnapshot(ctx context.Context, corpus string, sg *graph.SemanticGraph) error {
	p := sg.Params()
	params, err := json.Marshal(snapshotParams{
		Threshold:          p.Threshold,
		Percentile:         p.Percentile,
		MinCommunitySize:   p.MinCommunitySize,
		Seed:               p.Seed,
		Resolution:         p.Resolution,
		EigenvectorMaxIter: p.EigenvectorMaxIter,
		Tolerance:          p.Tolerance,
		SkipFailedMetrics:  p.SkipFailedMetrics,
		Retained:           sg.Retained(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot params: %w", err)
	}
	var metricErrors []byte
	if errs := sg.MetricErrors(); len(errs) > 0 {
		m := make(map[string]string, len(errs))
		for _, e := range errs {
			m[e.Metric] = e.Err.Error()
		}
		if metricErrors, err = json.Marshal(m); err != nil {
			return fmt.Errorf("failed to encode metric errors: %w", err)
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	final := sg.Graph()
	_, err = tx.Exec(ctx, insertSnapshotSQL,
		sg.ID(),
		util.SanitizePostgresText(corpus),
		params,
		sg.IsEmpty(),
		sg.RowCount(),
		final.NumNodes(),
		final.NumEdges(),
		sg.Modularity(),
		metricErrors,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	nodes := nodeRows(sg)
	if err := s.copyChunked(ctx, tx, "snapshot_nodes", nodeColumns, nodes); err != nil {
		return err
	}
	edges := edgeRows(sg)
	if err := s.copyChunked(ctx, tx, "snapshot_edges", edgeColumns, edges); err != nil {
		return err
	}

	batch := &pgxv5.Batch{}
	for _, row := range timingRows(sg) {
		batch.Queue(insertTimingSQL, row...)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert stage timings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logger.Info("[Store] Saved snapshot", "id", sg.ID(), "corpus", corpus, "nodes", len(nodes), "edges", len(edges))
	return nil
}

func (s *SnapshotDBStorage) copyChunked(ctx context.Context, tx pgxv5.Tx, table string, columns []string, rows [][]any) error {
	for chunk := range slices.Chunk(rows, s.batchSize) {
		if _, err := tx.CopyFrom(ctx, pgxv5.Identifier{table}, columns, pgxv5.CopyFromRows(chunk)); err != nil {
			return fmt.Errorf("failed to copy %s: %w", table, err)
		}
	}
	return nil
}

func (s *SnapshotDBStorage) LatestSnapshotID(ctx context.Context, corpus string) (string, error) {
	var id string
	err := s.conn.QueryRow(ctx, latestSnapshotSQL, util.SanitizePostgresText(corpus)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return "", store.ErrSnapshotNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *SnapshotDBStorage) DeleteSnapshot(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, deleteSnapshotSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSnapshotNotFound
	}
	return nil
}

// nodeRows builds one row per node of the final graph. Metrics skipped
// because of a failure are stored as NULL.
func nodeRows(sg *graph.SemanticGraph) [][]any {
	id := sg.ID()
	partition := sg.Partition()
	metrics := sg.Metrics()

	freq := make(map[string]int)
	cooc := sg.Cooccurrence()
	for i, name := range sg.FeatureNames() {
		freq[name] = cooc.At(i, i)
	}

	metric := func(name, node string) any {
		scores, ok := metrics[name]
		if !ok {
			return nil
		}
		return scores[node]
	}

	nodes := sg.Graph().Nodes()
	rows := make([][]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []any{
			id,
			util.SanitizePostgresText(n),
			partition[n],
			freq[n],
			metric(graph.MetricPageRank, n),
			metric(graph.MetricBetweenness, n),
			metric(graph.MetricEigenvector, n),
			metric(graph.MetricDegree, n),
		})
	}
	return rows
}

func edgeRows(sg *graph.SemanticGraph) [][]any {
	id := sg.ID()
	edges := sg.Graph().Edges()
	rows := make([][]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []any{
			id,
			util.SanitizePostgresText(e.Source),
			util.SanitizePostgresText(e.Target),
			e.Weight,
		})
	}
	return rows
}

func timingRows(sg *graph.SemanticGraph) [][]any {
	timings := sg.Timings()
	stages := make([]string, 0, len(timings))
	for stage := range timings {
		stages = append(stages, stage)
	}
	slices.Sort(stages)

	rows := make([][]any, 0, len(stages))
	for _, stage := range stages {
		rows = append(rows, []any{sg.ID(), stage, timings[stage].Milliseconds()})
	}
	return rows
}

const insertSnapshotSQL = `
INSERT INTO snapshots (id, corpus_key, params, is_empty, row_count, node_count, edge_count, modularity, metric_errors)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

const insertTimingSQL = `
INSERT INTO snapshot_stage_timings (snapshot_id, stage, duration_ms)
VALUES ($1, $2, $3);
`

const latestSnapshotSQL = `
SELECT id FROM snapshots
WHERE corpus_key = $1
ORDER BY created_at DESC
LIMIT 1;
`

const deleteSnapshotSQL = `
DELETE FROM snapshots WHERE id = $1;
`
