package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/semgraph/pkg/graph"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStorage defines the interface for persisting semantic graph
// snapshots. A snapshot is written atomically together with its nodes,
// edges and stage timings; corpus is the key snapshots are grouped under.
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, corpus string, sg *graph.SemanticGraph) error
	LatestSnapshotID(ctx context.Context, corpus string) (string, error)
	DeleteSnapshot(ctx context.Context, id string) error
}
