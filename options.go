package nnindex

import "github.com/hupe1980/nnindex/snapshot"

// Options contains configuration options common to all index handles.
type Options struct {
	// Logger receives structured operation logs. Defaults to a no-op logger.
	Logger *Logger

	// Metrics receives operational metrics. Defaults to a no-op collector.
	Metrics MetricsCollector
}

// WithLogger sets the logger for a handle.
func WithLogger(logger *Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMetrics sets the metrics collector for a handle.
func WithMetrics(metrics MetricsCollector) func(o *Options) {
	return func(o *Options) {
		o.Metrics = metrics
	}
}

// GraphInitOptions contains the construction parameters for the graph engine.
type GraphInitOptions struct {
	// M specifies the number of established connections for every new
	// element during construction.
	M int

	// EFConstruction specifies the size of the dynamic candidate list
	// during construction.
	EFConstruction int

	// Seed seeds the engine's level generator.
	Seed int64

	// AllowReplaceDeleted permits inserts to reuse slots of deleted points.
	AllowReplaceDeleted bool
}

// DefaultGraphInitOptions contains the default graph construction parameters.
var DefaultGraphInitOptions = GraphInitOptions{
	M:              16,
	EFConstruction: 200,
	Seed:           100,
}

// AddOptions contains per-call options for AddItems.
type AddOptions struct {
	// Labels assigns an explicit label to every row. When nil, labels are
	// assigned sequentially from the handle's running counter.
	Labels []uint64

	// NumWorkers hints the worker count for the parallel dispatch.
	// Non-positive values select the number of available CPUs.
	NumWorkers int

	// ReplaceDeleted asks the engine to reuse slots of deleted points.
	ReplaceDeleted bool
}

// WithLabels sets explicit labels for the rows of an AddItems call.
func WithLabels(labels []uint64) func(o *AddOptions) {
	return func(o *AddOptions) {
		o.Labels = labels
	}
}

// WithAddWorkers hints the worker count for an AddItems call.
func WithAddWorkers(n int) func(o *AddOptions) {
	return func(o *AddOptions) {
		o.NumWorkers = n
	}
}

// WithReplaceDeleted asks the engine to reuse slots of deleted points.
func WithReplaceDeleted() func(o *AddOptions) {
	return func(o *AddOptions) {
		o.ReplaceDeleted = true
	}
}

// SearchOptions contains per-call options for SearchKNN.
type SearchOptions struct {
	// NumWorkers hints the worker count for the parallel dispatch.
	// Non-positive values select the number of available CPUs.
	NumWorkers int
}

// WithSearchWorkers hints the worker count for a SearchKNN call.
func WithSearchWorkers(n int) func(o *SearchOptions) {
	return func(o *SearchOptions) {
		o.NumWorkers = n
	}
}

// SaveOptions contains per-call options for Save.
type SaveOptions struct {
	// Compression selects the snapshot payload compression.
	Compression snapshot.Compression
}

// WithCompression selects the snapshot payload compression.
func WithCompression(c snapshot.Compression) func(o *SaveOptions) {
	return func(o *SaveOptions) {
		o.Compression = c
	}
}

// LoadOptions contains options for the load constructors.
type LoadOptions struct {
	// MaxElements overrides the capacity stored in the snapshot.
	// Zero keeps the stored value.
	MaxElements int

	// AllowReplaceDeleted permits inserts to reuse slots of deleted points
	// on the loaded index.
	AllowReplaceDeleted bool

	// Logger receives structured operation logs. Defaults to a no-op logger.
	Logger *Logger

	// Metrics receives operational metrics. Defaults to a no-op collector.
	Metrics MetricsCollector
}
