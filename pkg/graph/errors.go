package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound is returned when the exclusion configuration file
	// does not exist. The pipeline cannot start without it.
	ErrConfigNotFound = errors.New("exclusion config not found")

	// ErrInvalidPercentile is returned when a pruning percentile lies
	// outside of [0,100].
	ErrInvalidPercentile = errors.New("percentile must be in [0,100]")

	// ErrConvergence is returned when an iterative metric does not converge
	// within its iteration budget.
	ErrConvergence = errors.New("power iteration failed to converge")

	// ErrDimensionMismatch is returned when a matrix does not match the
	// labels it is paired with.
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")

	// ErrInvalidParams is returned for pipeline parameters that fail validation.
	ErrInvalidParams = errors.New("invalid pipeline parameters")
)

// MetricError reports the failure of a single centrality metric.
type MetricError struct {
	Metric string
	Err    error
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("metric %s: %v", e.Metric, e.Err)
}

func (e *MetricError) Unwrap() error {
	return e.Err
}
