package pgx

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/graph"
	"github.com/OFFIS-RIT/semgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatchResults struct {
	pgxv5.BatchResults
}

func (fakeBatchResults) Close() error { return nil }

type fakeTx struct {
	pgxv5.Tx

	execs     []string
	copies    map[string]int
	chunks    map[string]int
	batched   int
	committed bool
	copyErr   error
}

func (tx *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *fakeTx) CopyFrom(_ context.Context, table pgxv5.Identifier, _ []string, src pgxv5.CopyFromSource) (int64, error) {
	if tx.copyErr != nil {
		return 0, tx.copyErr
	}
	n := 0
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return 0, err
		}
		n++
	}
	tx.copies[table.Sanitize()] += n
	tx.chunks[table.Sanitize()]++
	return int64(n), nil
}

func (tx *fakeTx) SendBatch(_ context.Context, b *pgxv5.Batch) pgxv5.BatchResults {
	tx.batched += b.Len()
	return fakeBatchResults{}
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error { return nil }

type fakeRow struct {
	id  string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.id
	return nil
}

type fakeConn struct {
	tx       *fakeTx
	row      fakeRow
	affected string
}

func (c *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(c.affected), nil
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgxv5.Row { return c.row }

func (c *fakeConn) Begin(context.Context) (pgxv5.Tx, error) { return c.tx, nil }

func newFakeConn() *fakeConn {
	return &fakeConn{tx: &fakeTx{copies: map[string]int{}, chunks: map[string]int{}}}
}

func buildSnapshot(t *testing.T) *graph.SemanticGraph {
	t.Helper()
	rows := []common.ConceptRow{
		{DocIndex: 0, Concept: "Grid", Relevance: 0.9},
		{DocIndex: 0, Concept: "Solar\x00", Relevance: 0.8},
		{DocIndex: 1, Concept: "Grid", Relevance: 0.7},
		{DocIndex: 1, Concept: "Storage", Relevance: 0.6},
	}
	params := graph.DefaultParams()
	params.Percentile = 0
	params.MinCommunitySize = 1

	sg, err := graph.NewSemanticGraph(context.Background(), rows, params)
	require.NoError(t, err)
	return sg
}

func TestNodeRows(t *testing.T) {
	sg := buildSnapshot(t)

	rows := nodeRows(sg)
	require.Len(t, rows, 3)

	byConcept := make(map[string][]any, len(rows))
	for _, r := range rows {
		require.Len(t, r, len(nodeColumns))
		assert.Equal(t, sg.ID(), r[0])
		byConcept[r[1].(string)] = r
	}

	require.Contains(t, byConcept, "Solar")
	grid := byConcept["Grid"]
	assert.Equal(t, 2, grid[3])
	assert.Equal(t, 1.0, grid[7])
	assert.Equal(t, 1, byConcept["Storage"][3])
}

func TestEdgeRows(t *testing.T) {
	sg := buildSnapshot(t)

	rows := edgeRows(sg)
	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Len(t, r, len(edgeColumns))
		assert.Equal(t, 1, r[3])
		assert.NotContains(t, r[1], "\x00")
		assert.NotContains(t, r[2], "\x00")
	}
}

func TestTimingRows(t *testing.T) {
	sg := buildSnapshot(t)

	rows := timingRows(sg)
	require.Len(t, rows, 4)
	assert.Equal(t, graph.StageCommunities, rows[0][1])
	assert.Equal(t, graph.StagePrune, rows[3][1])
}

func TestSaveSnapshot(t *testing.T) {
	sg := buildSnapshot(t)
	conn := newFakeConn()

	s := NewSnapshotDBStorage(conn, WithBatchSize(2))
	require.NoError(t, s.SaveSnapshot(context.Background(), "energy-corpus", sg))

	tx := conn.tx
	assert.True(t, tx.committed)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0], "INSERT INTO snapshots")
	assert.Equal(t, 3, tx.copies[`"snapshot_nodes"`])
	assert.Equal(t, 2, tx.chunks[`"snapshot_nodes"`])
	assert.Equal(t, 2, tx.copies[`"snapshot_edges"`])
	assert.Equal(t, 4, tx.batched)
}

func TestSaveSnapshotCopyFailure(t *testing.T) {
	sg := buildSnapshot(t)
	conn := newFakeConn()
	conn.tx.copyErr = errors.New("copy failed")

	err := NewSnapshotDBStorage(conn).SaveSnapshot(context.Background(), "c", sg)
	assert.ErrorContains(t, err, "snapshot_nodes")
	assert.False(t, conn.tx.committed)
}

func TestLatestSnapshotID(t *testing.T) {
	conn := newFakeConn()
	conn.row = fakeRow{id: "abc"}

	id, err := NewSnapshotDBStorage(conn).LatestSnapshotID(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	conn.row = fakeRow{err: pgxv5.ErrNoRows}
	_, err = NewSnapshotDBStorage(conn).LatestSnapshotID(context.Background(), "c")
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	conn := newFakeConn()

	conn.affected = "DELETE 1"
	assert.NoError(t, NewSnapshotDBStorage(conn).DeleteSnapshot(context.Background(), "abc"))

	conn.affected = "DELETE 0"
	assert.ErrorIs(t, NewSnapshotDBStorage(conn).DeleteSnapshot(context.Background(), "abc"), store.ErrSnapshotNotFound)
}
