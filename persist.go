package nnindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/nnindex/blobstore"
	"github.com/hupe1980/nnindex/engine/brute"
	"github.com/hupe1980/nnindex/engine/hnsw"
	"github.com/hupe1980/nnindex/snapshot"
	"github.com/hupe1980/nnindex/space"
)

// SaveTo writes a snapshot of the index to w.
func (g *GraphIndex) SaveTo(w io.Writer, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := g.saveTo(w, opts)
	g.metrics.RecordSave(time.Since(start), err)
	g.logger.LogSnapshot(context.Background(), "save", "writer", err)

	return err
}

func (g *GraphIndex) saveTo(w io.Writer, opts SaveOptions) error {
	if err := g.ready(); err != nil {
		return err
	}

	sw, err := snapshot.NewWriter(w, opts.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := g.engine.Save(sw); err != nil {
		_ = sw.Close()
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := sw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}

// Save writes a snapshot of the index to the file at path.
func (g *GraphIndex) Save(path string, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := saveFile(path, func(w io.Writer) error { return g.saveTo(w, opts) })
	g.metrics.RecordSave(time.Since(start), err)
	g.logger.LogSnapshot(context.Background(), "save", path, err)

	return err
}

// SaveToStore writes a snapshot of the index to the named blob.
func (g *GraphIndex) SaveToStore(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := savePut(ctx, store, name, func(w io.Writer) error { return g.saveTo(w, opts) })
	g.metrics.RecordSave(time.Since(start), err)
	g.logger.LogSnapshot(ctx, "save", name, err)

	return err
}

// LoadGraphFrom reads a graph index snapshot from r. The metric and
// dimension must match the values the snapshot was written with.
func LoadGraphFrom(r io.Reader, metric space.Metric, dim int, optFns ...func(o *LoadOptions)) (*GraphIndex, error) {
	var opts LoadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	g, err := loadGraph(r, metric, dim, opts)

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	metrics.RecordLoad(time.Since(start), err)

	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger()
	}
	logger.LogSnapshot(context.Background(), "load", "reader", err)

	return g, err
}

// LoadGraph reads a graph index snapshot from the file at path.
func LoadGraph(metric space.Metric, dim int, path string, optFns ...func(o *LoadOptions)) (*GraphIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close()

	return LoadGraphFrom(f, metric, dim, optFns...)
}

// LoadGraphFromStore reads a graph index snapshot from the named blob.
func LoadGraphFromStore(ctx context.Context, store blobstore.Store, metric space.Metric, dim int, name string, optFns ...func(o *LoadOptions)) (*GraphIndex, error) {
	rc, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer rc.Close()

	return LoadGraphFrom(rc, metric, dim, optFns...)
}

func loadGraph(r io.Reader, metric space.Metric, dim int, opts LoadOptions) (*GraphIndex, error) {
	h, err := newHandle(metric, dim, Options{Logger: opts.Logger, Metrics: opts.Metrics})
	if err != nil {
		return nil, err
	}

	sr, err := snapshot.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer sr.Close()

	eng, err := hnsw.Load(sr, h.space, opts.MaxElements, opts.AllowReplaceDeleted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	h.initialized = true
	h.assigned = uint64(eng.Count())

	return &GraphIndex{
		handle:  h,
		engine:  eng,
		epAdded: eng.Count() > 0,
		ef:      eng.EF(),
	}, nil
}

// SaveTo writes a snapshot of the index to w.
func (b *BruteIndex) SaveTo(w io.Writer, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := b.saveTo(w, opts)
	b.metrics.RecordSave(time.Since(start), err)
	b.logger.LogSnapshot(context.Background(), "save", "writer", err)

	return err
}

func (b *BruteIndex) saveTo(w io.Writer, opts SaveOptions) error {
	if err := b.ready(); err != nil {
		return err
	}

	sw, err := snapshot.NewWriter(w, opts.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := b.engine.Save(sw); err != nil {
		_ = sw.Close()
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := sw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}

// Save writes a snapshot of the index to the file at path.
func (b *BruteIndex) Save(path string, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := saveFile(path, func(w io.Writer) error { return b.saveTo(w, opts) })
	b.metrics.RecordSave(time.Since(start), err)
	b.logger.LogSnapshot(context.Background(), "save", path, err)

	return err
}

// SaveToStore writes a snapshot of the index to the named blob.
func (b *BruteIndex) SaveToStore(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	err := savePut(ctx, store, name, func(w io.Writer) error { return b.saveTo(w, opts) })
	b.metrics.RecordSave(time.Since(start), err)
	b.logger.LogSnapshot(ctx, "save", name, err)

	return err
}

// LoadBruteFrom reads a brute-force index snapshot from r. The metric and
// dimension must match the values the snapshot was written with.
func LoadBruteFrom(r io.Reader, metric space.Metric, dim int, optFns ...func(o *LoadOptions)) (*BruteIndex, error) {
	var opts LoadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	b, err := loadBrute(r, metric, dim, opts)

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	metrics.RecordLoad(time.Since(start), err)

	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger()
	}
	logger.LogSnapshot(context.Background(), "load", "reader", err)

	return b, err
}

// LoadBrute reads a brute-force index snapshot from the file at path.
func LoadBrute(metric space.Metric, dim int, path string, optFns ...func(o *LoadOptions)) (*BruteIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close()

	return LoadBruteFrom(f, metric, dim, optFns...)
}

// LoadBruteFromStore reads a brute-force index snapshot from the named blob.
func LoadBruteFromStore(ctx context.Context, store blobstore.Store, metric space.Metric, dim int, name string, optFns ...func(o *LoadOptions)) (*BruteIndex, error) {
	rc, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer rc.Close()

	return LoadBruteFrom(rc, metric, dim, optFns...)
}

func loadBrute(r io.Reader, metric space.Metric, dim int, opts LoadOptions) (*BruteIndex, error) {
	h, err := newHandle(metric, dim, Options{Logger: opts.Logger, Metrics: opts.Metrics})
	if err != nil {
		return nil, err
	}

	sr, err := snapshot.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer sr.Close()

	eng, err := brute.Load(sr, h.space, opts.MaxElements)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	h.initialized = true
	h.assigned = uint64(eng.Count())

	return &BruteIndex{
		handle: h,
		engine: eng,
	}, nil
}

func saveFile(path string, write func(w io.Writer) error) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrSaveFailed)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}

func savePut(ctx context.Context, store blobstore.Store, name string, write func(w io.Writer) error) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrSaveFailed)
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}

	if err := store.Put(ctx, name, &buf); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}
