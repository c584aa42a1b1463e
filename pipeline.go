package nnindex

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hupe1980/nnindex/engine"
	"github.com/hupe1980/nnindex/internal/parallel"
	"github.com/hupe1980/nnindex/space"
)

// effectiveWorkers resolves a worker-count hint for a batch of the given
// size. Small batches run sequentially; the thread-spawn overhead would
// otherwise dominate.
func effectiveWorkers(hint, rows int) int {
	workers := hint
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if rows <= workers*4 {
		workers = 1
	}

	return workers
}

// newScratch allocates one normalization buffer per worker. Buffers are
// private to a worker slot for the duration of a single batch call, so
// normalized rows never race.
func newScratch(workers, dim int) [][]float32 {
	scratch := make([][]float32, workers)
	for i := range scratch {
		scratch[i] = make([]float32, dim)
	}
	return scratch
}

// addRange dispatches rows [start, len(vectors)) to the engine through the
// parallel executor. Labels come from the explicit slice when present,
// otherwise from the handle's running counter plus the row index.
func (h *handle) addRange(ctx context.Context, eng engine.Engine, vectors [][]float32, labels []uint64, start, workers int, replaceDeleted bool) error {
	var scratch [][]float32
	if h.normalize {
		scratch = newScratch(workers, h.dim)
	}

	return parallel.For(ctx, start, len(vectors), workers, func(i, worker int) error {
		label := h.assigned + uint64(i)
		if labels != nil {
			label = labels[i]
		}

		vec := vectors[i]
		if h.normalize {
			buf := scratch[worker]
			space.Normalize(buf, vec)
			vec = buf
		}

		return eng.AddPoint(vec, label, replaceDeleted)
	})
}

// searchKNN runs the parallel k-NN pipeline against the given engine.
// Workers write into flat row-major buffers, which are reshaped into one
// row per query before returning.
func (h *handle) searchKNN(ctx context.Context, eng engine.Engine, queries [][]float32, k int, opts SearchOptions) ([][]uint64, [][]float32, error) {
	if err := h.ready(); err != nil {
		return nil, nil, err
	}

	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: %w", ErrSearchFailed, ErrInvalidK)
	}

	if err := h.validateRows(queries); err != nil {
		return nil, nil, err
	}

	n := len(queries)
	if n == 0 {
		return [][]uint64{}, [][]float32{}, nil
	}

	workers := effectiveWorkers(opts.NumWorkers, n)

	var scratch [][]float32
	if h.normalize {
		scratch = newScratch(workers, h.dim)
	}

	flatLabels := make([]uint64, n*k)
	flatDistances := make([]float32, n*k)

	err := parallel.For(ctx, 0, n, workers, func(i, worker int) error {
		q := queries[i]
		if h.normalize {
			buf := scratch[worker]
			space.Normalize(buf, q)
			q = buf
		}

		result, err := eng.SearchKNN(q, k)
		if err != nil {
			return err
		}

		if result.Len() != k {
			return fmt.Errorf("cannot return %d results for query %d, only %d found; ef or M is probably too small", k, i, result.Len())
		}

		// Draining the max-heap from slot k-1 down to 0 turns the
		// largest-first pop order into ascending distances.
		for j := k - 1; j >= 0; j-- {
			c, _ := result.Pop()
			flatLabels[i*k+j] = c.Label
			flatDistances[i*k+j] = c.Distance
		}

		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	labels := make([][]uint64, n)
	distances := make([][]float32, n)
	for i := 0; i < n; i++ {
		labels[i] = flatLabels[i*k : (i+1)*k]
		distances[i] = flatDistances[i*k : (i+1)*k]
	}

	return labels, distances, nil
}
