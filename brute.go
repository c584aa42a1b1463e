package nnindex

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/nnindex/engine/brute"
	"github.com/hupe1980/nnindex/space"
)

// BruteIndex is an index handle backed by the exact brute-force engine.
// It offers no soft deletion, no resize and no search-breadth parameter.
//
// The concurrency contract matches GraphIndex: mutating calls are
// externally serialized, concurrent searches are safe.
type BruteIndex struct {
	handle

	engine *brute.Brute
}

// NewBrute creates a brute-force index handle for the given metric and
// dimension. The engine is not allocated until Init is called.
func NewBrute(metric space.Metric, dim int, optFns ...func(o *Options)) (*BruteIndex, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	h, err := newHandle(metric, dim, opts)
	if err != nil {
		return nil, err
	}

	return &BruteIndex{handle: h}, nil
}

// Init allocates the engine with the given capacity. Calling Init on an
// already initialized handle replaces the engine and discards its state.
func (b *BruteIndex) Init(maxElements int) error {
	if b.closed {
		return ErrClosed
	}

	eng, err := brute.New(b.space, maxElements)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}

	b.engine = eng
	b.assigned = 0
	b.initialized = true

	return nil
}

// AddItems inserts the given rows. The brute-force engine has no entry
// point requirement, so all rows are eligible for parallel dispatch.
func (b *BruteIndex) AddItems(ctx context.Context, vectors [][]float32, optFns ...func(o *AddOptions)) error {
	var opts AddOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := b.addItems(ctx, vectors, opts)
	b.metrics.RecordBatchInsert(len(vectors), time.Since(start), err)
	b.logger.LogBatchInsert(ctx, len(vectors), opts.NumWorkers, err)

	return err
}

func (b *BruteIndex) addItems(ctx context.Context, vectors [][]float32, opts AddOptions) error {
	if err := b.ready(); err != nil {
		return err
	}

	rows := len(vectors)

	if opts.Labels != nil && len(opts.Labels) != rows {
		return fmt.Errorf("%w: %d labels for %d rows", ErrAddItemsFailed, len(opts.Labels), rows)
	}

	if err := b.validateRows(vectors); err != nil {
		return err
	}

	if rows == 0 {
		return nil
	}

	workers := effectiveWorkers(opts.NumWorkers, rows)

	if err := b.addRange(ctx, b.engine, vectors, opts.Labels, 0, workers, false); err != nil {
		return fmt.Errorf("%w: %w", ErrAddItemsFailed, err)
	}

	b.assigned += uint64(rows)

	return nil
}

// SearchKNN returns the labels and distances of the k nearest neighbors
// for every query row. Distances within each row are non-decreasing.
func (b *BruteIndex) SearchKNN(ctx context.Context, queries [][]float32, k int, optFns ...func(o *SearchOptions)) ([][]uint64, [][]float32, error) {
	var opts SearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	labels, distances, err := b.searchKNN(ctx, b.engine, queries, k, opts)
	b.metrics.RecordSearch(len(queries), k, time.Since(start), err)
	b.logger.LogSearch(ctx, len(queries), k, opts.NumWorkers, err)

	return labels, distances, err
}

// Count returns the number of points held by the engine.
func (b *BruteIndex) Count() int {
	if b.engine == nil {
		return 0
	}
	return b.engine.Count()
}

// MaxElements returns the engine's configured capacity.
func (b *BruteIndex) MaxElements() int {
	if b.engine == nil {
		return 0
	}
	return b.engine.MaxElements()
}

// Close releases the engine and the metric space. Close is idempotent;
// all other operations fail with ErrClosed afterwards.
func (b *BruteIndex) Close() error {
	if b.closed {
		return nil
	}

	b.closed = true
	b.initialized = false
	b.engine = nil
	b.space = nil

	return nil
}
