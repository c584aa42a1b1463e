package nnindex

import (
	"fmt"

	"github.com/hupe1980/nnindex/space"
)

// handle holds the state shared by the graph and brute-force index handles.
//
// Bookkeeping fields are single-writer by contract: all mutating calls on a
// handle (AddItems, MarkDeleted, Resize, Init, Close) must be externally
// serialized by the caller. Concurrent SearchKNN calls are safe as long as
// the handle is not being mutated at the same time.
type handle struct {
	space       space.Space
	metric      space.Metric
	dim         int
	normalize   bool
	initialized bool
	closed      bool
	assigned    uint64 // next default label

	logger  *Logger
	metrics MetricsCollector
}

func newHandle(metric space.Metric, dim int, opts Options) (handle, error) {
	if dim <= 0 {
		return handle{}, fmt.Errorf("%w: %w", ErrInitializationFailed, &ErrInvalidDimension{Dimension: dim})
	}

	sp, err := space.New(metric, dim)
	if err != nil {
		return handle{}, fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger()
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	return handle{
		space:     sp,
		metric:    metric,
		dim:       dim,
		normalize: metric == space.MetricCosine,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// ready reports whether the handle accepts engine operations.
func (h *handle) ready() error {
	if h.closed {
		return ErrClosed
	}
	if !h.initialized {
		return ErrNotInitialized
	}
	return nil
}

// validateRows checks every row against the handle's dimension before any
// engine call, so a shape violation never partially mutates state.
func (h *handle) validateRows(rows [][]float32) error {
	for i, v := range rows {
		if len(v) != h.dim {
			return &ErrDimensionMismatch{Expected: h.dim, Actual: len(v), Row: i}
		}
	}
	return nil
}

// Dim returns the configured vector dimension.
func (h *handle) Dim() int { return h.dim }

// Metric returns the configured distance metric.
func (h *handle) Metric() space.Metric { return h.metric }
