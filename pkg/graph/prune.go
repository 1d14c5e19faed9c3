package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/OFFIS-RIT/semgraph/pkg/logger"
)

// Pruner turns a square co-occurrence matrix into a backbone graph.
// names are the concept labels of the matrix; implementations decide how
// they map onto matrix indices.
type Pruner interface {
	Prune(counts *IntMatrix, names []string) (*Graph, error)
}

// PercentilePruner keeps the edges whose weight is at or above the given
// percentile of all off-diagonal weights.
type PercentilePruner struct {
	Percentile float64
}

// Prune sorts names lexicographically and labels matrix row/column i with
// the i-th sorted name. The threshold is the linear-interpolation percentile
// of the strictly upper triangular entries; entries at or above it are kept,
// the diagonal is dropped and every kept positive entry becomes an edge.
func (p PercentilePruner) Prune(counts *IntMatrix, names []string) (*Graph, error) {
	if err := validatePercentile(p.Percentile); err != nil {
		return nil, err
	}
	n := len(names)
	if counts.Rows() != n || counts.Cols() != n {
		return nil, fmt.Errorf("%w: %dx%d matrix for %d names", ErrDimensionMismatch, counts.Rows(), counts.Cols(), n)
	}

	sorted := slices.Clone(names)
	slices.Sort(sorted)

	upper := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			upper = append(upper, float64(counts.At(i, j)))
		}
	}

	edges := make([]Edge, 0)
	if len(upper) > 0 {
		threshold, err := Percentile(upper, p.Percentile)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				w := counts.At(i, j)
				if w > 0 && float64(w) >= threshold {
					edges = append(edges, Edge{Source: sorted[i], Target: sorted[j], Weight: w})
				}
			}
		}
		logger.Debug("[Graph] Pruned co-occurrence graph", "percentile", p.Percentile, "threshold", threshold, "kept", len(edges), "pairs", len(upper))
	}

	return NewGraph(sorted, edges)
}

// Percentile returns the p-th percentile of values using linear
// interpolation between the closest ranks, matching numpy's default method.
func Percentile(values []float64, p float64) (float64, error) {
	if err := validatePercentile(p); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty set")
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

func validatePercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidPercentile, p)
	}
	return nil
}
