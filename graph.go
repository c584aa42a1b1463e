package nnindex

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/nnindex/engine/hnsw"
	"github.com/hupe1980/nnindex/space"
)

// defaultEF is the search breadth applied to a fresh engine until
// SetEF is called.
const defaultEF = 10

// GraphIndex is an index handle backed by the graph-based approximate
// engine. It owns its metric space and engine exclusively; both are
// released by Close.
//
// Mutating calls (Init, AddItems, MarkDeleted, UnmarkDeleted, Resize,
// Close) must be externally serialized. Concurrent SearchKNN calls are
// safe on a handle that is not being mutated.
type GraphIndex struct {
	handle

	engine  *hnsw.Graph
	epAdded bool
	ef      int
}

// NewGraph creates a graph index handle for the given metric and dimension.
// The engine is not allocated until Init is called. Cosine selects
// automatic L2 normalization of all inserted and queried vectors.
func NewGraph(metric space.Metric, dim int, optFns ...func(o *Options)) (*GraphIndex, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	h, err := newHandle(metric, dim, opts)
	if err != nil {
		return nil, err
	}

	return &GraphIndex{
		handle: h,
		ef:     defaultEF,
	}, nil
}

// Init allocates the engine with the given capacity. Calling Init on an
// already initialized handle replaces the engine and discards its state;
// the label counter and entry-point flag are reset.
func (g *GraphIndex) Init(maxElements int, optFns ...func(o *GraphInitOptions)) error {
	if g.closed {
		return ErrClosed
	}

	opts := DefaultGraphInitOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	eng, err := hnsw.New(g.space, maxElements, func(o *hnsw.Options) {
		o.M = opts.M
		o.EFConstruction = opts.EFConstruction
		o.Seed = opts.Seed
		o.AllowReplaceDeleted = opts.AllowReplaceDeleted
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}

	eng.SetEF(g.ef)

	g.engine = eng
	g.assigned = 0
	g.epAdded = false
	g.initialized = true

	return nil
}

// AddItems inserts the given rows. Without explicit labels, rows receive
// sequential labels starting at the handle's running counter; the counter
// advances only when the whole batch succeeds.
func (g *GraphIndex) AddItems(ctx context.Context, vectors [][]float32, optFns ...func(o *AddOptions)) error {
	var opts AddOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := g.addItems(ctx, vectors, opts)
	g.metrics.RecordBatchInsert(len(vectors), time.Since(start), err)
	g.logger.LogBatchInsert(ctx, len(vectors), opts.NumWorkers, err)

	return err
}

func (g *GraphIndex) addItems(ctx context.Context, vectors [][]float32, opts AddOptions) error {
	if err := g.ready(); err != nil {
		return err
	}

	rows := len(vectors)

	if opts.Labels != nil && len(opts.Labels) != rows {
		return fmt.Errorf("%w: %d labels for %d rows", ErrAddItemsFailed, len(opts.Labels), rows)
	}

	if err := g.validateRows(vectors); err != nil {
		return err
	}

	if rows == 0 {
		return nil
	}

	workers := effectiveWorkers(opts.NumWorkers, rows)

	start := 0
	if !g.epAdded {
		// The graph engine needs an established entry point before
		// concurrent inserts are well-defined, so row 0 goes in
		// synchronously on the calling goroutine.
		label := g.assigned
		if opts.Labels != nil {
			label = opts.Labels[0]
		}

		vec := vectors[0]
		if g.normalize {
			buf := make([]float32, g.dim)
			space.Normalize(buf, vec)
			vec = buf
		}

		if err := g.engine.AddPoint(vec, label, opts.ReplaceDeleted); err != nil {
			return fmt.Errorf("%w: %w", ErrAddItemsFailed, err)
		}

		g.epAdded = true
		start = 1
	}

	if err := g.addRange(ctx, g.engine, vectors, opts.Labels, start, workers, opts.ReplaceDeleted); err != nil {
		return fmt.Errorf("%w: %w", ErrAddItemsFailed, err)
	}

	g.assigned += uint64(rows)

	return nil
}

// SearchKNN returns the labels and distances of the k nearest neighbors
// for every query row. Distances within each row are non-decreasing.
func (g *GraphIndex) SearchKNN(ctx context.Context, queries [][]float32, k int, optFns ...func(o *SearchOptions)) ([][]uint64, [][]float32, error) {
	var opts SearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	labels, distances, err := g.searchKNN(ctx, g.engine, queries, k, opts)
	g.metrics.RecordSearch(len(queries), k, time.Since(start), err)
	g.logger.LogSearch(ctx, len(queries), k, opts.NumWorkers, err)

	return labels, distances, err
}

// MarkDeleted excludes the label from future search results. Engine
// errors (unknown or already deleted labels) are logged and swallowed;
// the engine remains the sole source of truth for live/deleted status.
func (g *GraphIndex) MarkDeleted(ctx context.Context, label uint64) {
	if err := g.ready(); err != nil {
		g.logger.LogDelete(ctx, "mark deleted", label, err)
		return
	}

	err := g.engine.MarkDelete(label)
	g.metrics.RecordDelete(err)
	g.logger.LogDelete(ctx, "mark deleted", label, err)
}

// UnmarkDeleted makes the label searchable again. Engine errors are
// logged and swallowed, mirroring MarkDeleted.
func (g *GraphIndex) UnmarkDeleted(ctx context.Context, label uint64) {
	if err := g.ready(); err != nil {
		g.logger.LogDelete(ctx, "unmark deleted", label, err)
		return
	}

	err := g.engine.UnmarkDelete(label)
	g.metrics.RecordDelete(err)
	g.logger.LogDelete(ctx, "unmark deleted", label, err)
}

// Resize grows the engine capacity to newSize. Existing points, labels
// and deletion marks are preserved; the label counter is unaffected.
func (g *GraphIndex) Resize(newSize int) error {
	if err := g.ready(); err != nil {
		return err
	}

	if err := g.engine.Resize(newSize); err != nil {
		return fmt.Errorf("%w: %w", ErrResizeFailed, err)
	}

	return nil
}

// SetEF sets the default search breadth. The value is applied to the
// current engine and to any engine created by a later Init.
func (g *GraphIndex) SetEF(ef int) {
	g.ef = ef
	if g.engine != nil {
		g.engine.SetEF(ef)
	}
}

// EF returns the current search breadth.
func (g *GraphIndex) EF() int {
	if g.engine != nil {
		return g.engine.EF()
	}
	return g.ef
}

// M returns the engine's connection count per layer, or 0 before Init.
func (g *GraphIndex) M() int {
	if g.engine == nil {
		return 0
	}
	return g.engine.M()
}

// Count returns the number of points held by the engine, including
// deleted ones.
func (g *GraphIndex) Count() int {
	if g.engine == nil {
		return 0
	}
	return g.engine.Count()
}

// MaxElements returns the engine's configured capacity.
func (g *GraphIndex) MaxElements() int {
	if g.engine == nil {
		return 0
	}
	return g.engine.MaxElements()
}

// Close releases the engine and the metric space. Close is idempotent;
// all other operations fail with ErrClosed afterwards.
func (g *GraphIndex) Close() error {
	if g.closed {
		return nil
	}

	g.closed = true
	g.initialized = false
	g.engine = nil
	g.space = nil

	return nil
}
