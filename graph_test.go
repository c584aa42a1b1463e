package nnindex

import (
	"context"
	"testing"

	"github.com/hupe1980/nnindex/space"
	"github.com/hupe1980/nnindex/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneHot returns a dim-length vector with a single 1 at position i.
func oneHot(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}

func newTestGraph(t *testing.T, metric space.Metric, dim, maxElements int) *GraphIndex {
	t.Helper()

	g, err := NewGraph(metric, dim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	require.NoError(t, g.Init(maxElements))

	return g
}

func TestNewGraph(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := NewGraph(space.MetricL2, 0)
		assert.ErrorIs(t, err, ErrInitializationFailed)

		var dimErr *ErrInvalidDimension
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 0, dimErr.Dimension)
	})

	t.Run("NotInitialized", func(t *testing.T) {
		g, err := NewGraph(space.MetricL2, 4)
		require.NoError(t, err)
		defer g.Close()

		err = g.AddItems(context.Background(), [][]float32{{1, 2, 3, 4}})
		assert.ErrorIs(t, err, ErrNotInitialized)

		_, _, err = g.SearchKNN(context.Background(), [][]float32{{1, 2, 3, 4}}, 1)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("InvalidMaxElements", func(t *testing.T) {
		g, err := NewGraph(space.MetricL2, 4)
		require.NoError(t, err)
		defer g.Close()

		assert.ErrorIs(t, g.Init(0), ErrInitializationFailed)
	})

	t.Run("Accessors", func(t *testing.T) {
		g := newTestGraph(t, space.MetricCosine, 8, 10)

		assert.Equal(t, 8, g.Dim())
		assert.Equal(t, space.MetricCosine, g.Metric())
		assert.Equal(t, 16, g.M())
		assert.Equal(t, 10, g.MaxElements())
	})
}

func TestGraphAddItems(t *testing.T) {
	ctx := context.Background()

	t.Run("OneHot", func(t *testing.T) {
		dim := 8
		g := newTestGraph(t, space.MetricL2, dim, dim)

		vectors := make([][]float32, dim)
		for i := range vectors {
			vectors[i] = oneHot(dim, i)
		}

		require.NoError(t, g.AddItems(ctx, vectors))
		assert.Equal(t, dim, g.Count())

		// Every row finds itself at distance zero under its sequential label.
		for i := 0; i < dim; i++ {
			labels, distances, err := g.SearchKNN(ctx, [][]float32{oneHot(dim, i)}, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(i), labels[0][0])
			assert.InDelta(t, 0, distances[0][0], 1e-6)
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 4, 4)

		require.NoError(t, g.AddItems(ctx, [][]float32{}))
		assert.Equal(t, 0, g.Count())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 4, 8)

		err := g.AddItems(ctx, [][]float32{{1, 2, 3, 4}, {1, 2}})

		var dimErr *ErrDimensionMismatch
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 4, dimErr.Expected)
		assert.Equal(t, 2, dimErr.Actual)
		assert.Equal(t, 1, dimErr.Row)

		// A rejected batch must not mutate the index or its label counter.
		assert.Equal(t, 0, g.Count())

		require.NoError(t, g.AddItems(ctx, [][]float32{{1, 2, 3, 4}}))

		labels, _, err := g.SearchKNN(ctx, [][]float32{{1, 2, 3, 4}}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), labels[0][0])
	})

	t.Run("LabelCountMismatch", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 8)

		err := g.AddItems(ctx, [][]float32{{1, 0}, {0, 1}}, WithLabels([]uint64{7}))
		assert.ErrorIs(t, err, ErrAddItemsFailed)
	})

	t.Run("ExplicitLabels", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 8)

		require.NoError(t, g.AddItems(ctx,
			[][]float32{{1, 0}, {0, 1}},
			WithLabels([]uint64{100, 200}),
		))

		labels, _, err := g.SearchKNN(ctx, [][]float32{{0, 1}}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), labels[0][0])
	})

	t.Run("SequentialLabelsAcrossBatches", func(t *testing.T) {
		dim := 8
		g := newTestGraph(t, space.MetricL2, dim, dim)

		require.NoError(t, g.AddItems(ctx, [][]float32{oneHot(dim, 0), oneHot(dim, 1)}))
		require.NoError(t, g.AddItems(ctx, [][]float32{oneHot(dim, 2), oneHot(dim, 3)}))

		labels, _, err := g.SearchKNN(ctx, [][]float32{oneHot(dim, 3)}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), labels[0][0])
	})

	t.Run("ParallelWorkers", func(t *testing.T) {
		dim := 16
		size := 400
		rng := util.NewRNG(4711)
		vectors := rng.GenerateRandomVectors(size, dim)

		for _, workers := range []int{1, 2, 8} {
			g := newTestGraph(t, space.MetricL2, dim, size)
			g.SetEF(64)

			require.NoError(t, g.AddItems(ctx, vectors, WithAddWorkers(workers)))
			require.Equal(t, size, g.Count())

			// Labels stay row-aligned no matter how rows were distributed.
			hits := 0
			for i := 0; i < 50; i++ {
				labels, distances, err := g.SearchKNN(ctx, [][]float32{vectors[i]}, 1)
				require.NoError(t, err)
				if labels[0][0] == uint64(i) && distances[0][0] < 1e-6 {
					hits++
				}
			}
			assert.GreaterOrEqual(t, hits, 48)
		}
	})

	t.Run("Capacity", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 2)

		require.NoError(t, g.AddItems(ctx, [][]float32{{1, 0}, {0, 1}}))

		err := g.AddItems(ctx, [][]float32{{1, 1}})
		assert.ErrorIs(t, err, ErrAddItemsFailed)
	})
}

func TestGraphSearchKNN(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidK", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 4)

		_, _, err := g.SearchKNN(ctx, [][]float32{{1, 0}}, 0)
		assert.ErrorIs(t, err, ErrSearchFailed)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("EmptyQueries", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 4)

		labels, distances, err := g.SearchKNN(ctx, [][]float32{}, 3)
		require.NoError(t, err)
		assert.NotNil(t, labels)
		assert.NotNil(t, distances)
		assert.Len(t, labels, 0)
		assert.Len(t, distances, 0)
	})

	t.Run("KAboveCount", func(t *testing.T) {
		g := newTestGraph(t, space.MetricL2, 2, 4)

		require.NoError(t, g.AddItems(ctx, [][]float32{{1, 0}, {0, 1}}))

		_, _, err := g.SearchKNN(ctx, [][]float32{{1, 0}}, 5)
		assert.ErrorIs(t, err, ErrSearchFailed)
	})

	t.Run("AscendingDistances", func(t *testing.T) {
		dim := 16
		size := 300
		k := 10

		rng := util.NewRNG(42)
		vectors := rng.GenerateRandomVectors(size, dim)
		queries := rng.GenerateRandomVectors(8, dim)

		g := newTestGraph(t, space.MetricL2, dim, size)
		g.SetEF(64)
		require.NoError(t, g.AddItems(ctx, vectors))

		labels, distances, err := g.SearchKNN(ctx, queries, k, WithSearchWorkers(4))
		require.NoError(t, err)
		require.Len(t, labels, len(queries))
		require.Len(t, distances, len(queries))

		for _, row := range distances {
			require.Len(t, row, k)
			for j := 1; j < k; j++ {
				assert.LessOrEqual(t, row[j-1], row[j])
			}
		}
	})

	t.Run("Cosine", func(t *testing.T) {
		dim := 4
		g := newTestGraph(t, space.MetricCosine, dim, 4)

		// Collinear vectors of different magnitude are equidistant after
		// normalization; the orthogonal one is a unit distance away.
		require.NoError(t, g.AddItems(ctx, [][]float32{
			{1, 0, 0, 0},
			{2, 0, 0, 0},
			{0, 1, 0, 0},
		}))

		labels, distances, err := g.SearchKNN(ctx, [][]float32{{10, 0, 0, 0}}, 3)
		require.NoError(t, err)

		assert.InDelta(t, 0, distances[0][0], 1e-5)
		assert.InDelta(t, 0, distances[0][1], 1e-5)
		assert.InDelta(t, 1, distances[0][2], 1e-5)

		assert.ElementsMatch(t, []uint64{0, 1}, labels[0][:2])
		assert.Equal(t, uint64(2), labels[0][2])
	})

	t.Run("QueriesNotMutated", func(t *testing.T) {
		g := newTestGraph(t, space.MetricCosine, 2, 4)

		require.NoError(t, g.AddItems(ctx, [][]float32{{3, 4}}))

		q := [][]float32{{3, 4}}
		_, _, err := g.SearchKNN(ctx, q, 1)
		require.NoError(t, err)

		// Normalization happens in scratch buffers, not the caller's rows.
		assert.Equal(t, []float32{3, 4}, q[0])
	})
}

func TestGraphDelete(t *testing.T) {
	ctx := context.Background()

	dim := 8
	g := newTestGraph(t, space.MetricL2, dim, dim)

	vectors := make([][]float32, dim)
	for i := range vectors {
		vectors[i] = oneHot(dim, i)
	}
	require.NoError(t, g.AddItems(ctx, vectors))

	t.Run("Excluded", func(t *testing.T) {
		g.MarkDeleted(ctx, 3)

		labels, _, err := g.SearchKNN(ctx, [][]float32{oneHot(dim, 3)}, 1)
		require.NoError(t, err)
		assert.NotEqual(t, uint64(3), labels[0][0])
	})

	t.Run("ErrorsSwallowed", func(t *testing.T) {
		// Unknown labels and repeated marks do not surface errors.
		g.MarkDeleted(ctx, 999)
		g.MarkDeleted(ctx, 3)
		g.UnmarkDeleted(ctx, 999)
	})

	t.Run("Unmark", func(t *testing.T) {
		g.UnmarkDeleted(ctx, 3)

		labels, distances, err := g.SearchKNN(ctx, [][]float32{oneHot(dim, 3)}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), labels[0][0])
		assert.InDelta(t, 0, distances[0][0], 1e-6)
	})
}

func TestGraphResize(t *testing.T) {
	ctx := context.Background()

	g := newTestGraph(t, space.MetricL2, 2, 2)

	require.NoError(t, g.AddItems(ctx, [][]float32{{1, 0}, {0, 1}}))
	require.ErrorIs(t, g.AddItems(ctx, [][]float32{{1, 1}}), ErrAddItemsFailed)

	t.Run("BelowCount", func(t *testing.T) {
		assert.ErrorIs(t, g.Resize(1), ErrResizeFailed)
	})

	t.Run("Grow", func(t *testing.T) {
		require.NoError(t, g.Resize(4))
		assert.Equal(t, 4, g.MaxElements())

		require.NoError(t, g.AddItems(ctx, [][]float32{{1, 1}}))
		assert.Equal(t, 3, g.Count())

		// The failed batch did not advance the label counter.
		labels, _, err := g.SearchKNN(ctx, [][]float32{{1, 1}}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), labels[0][0])
	})
}

func TestGraphSetEF(t *testing.T) {
	g, err := NewGraph(space.MetricL2, 2)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 10, g.EF())

	// Applied before Init and carried into the engine.
	g.SetEF(50)
	require.NoError(t, g.Init(4))
	assert.Equal(t, 50, g.EF())

	g.SetEF(80)
	assert.Equal(t, 80, g.EF())
}

func TestGraphClose(t *testing.T) {
	ctx := context.Background()

	g := newTestGraph(t, space.MetricL2, 2, 4)
	require.NoError(t, g.AddItems(ctx, [][]float32{{1, 0}}))

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	assert.ErrorIs(t, g.AddItems(ctx, [][]float32{{1, 0}}), ErrClosed)
	assert.ErrorIs(t, g.Init(4), ErrClosed)

	_, _, err := g.SearchKNN(ctx, [][]float32{{1, 0}}, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGraphMetrics(t *testing.T) {
	ctx := context.Background()

	collector := &BasicMetricsCollector{}

	g, err := NewGraph(space.MetricL2, 2, WithMetrics(collector), WithLogger(NoopLogger()))
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Init(4))
	require.NoError(t, g.AddItems(ctx, [][]float32{{1, 0}, {0, 1}}))

	_, _, err = g.SearchKNN(ctx, [][]float32{{1, 0}}, 1)
	require.NoError(t, err)

	g.MarkDeleted(ctx, 0)

	assert.Equal(t, int64(1), collector.BatchInsertCount.Load())
	assert.Equal(t, int64(2), collector.BatchInsertRows.Load())
	assert.Equal(t, int64(1), collector.SearchCount.Load())
	assert.Equal(t, int64(1), collector.DeleteCount.Load())
	assert.Equal(t, int64(0), collector.SearchFails.Load())
}
