// Package engine defines the capability contract shared by the
// nearest-neighbor search engines and the result queue they produce.
package engine

import (
	"errors"
	"io"
)

var (
	// ErrCapacity is returned when an engine has no room for another point.
	ErrCapacity = errors.New("engine: max elements reached")

	// ErrUnknownLabel is returned when a label is not present in the engine.
	ErrUnknownLabel = errors.New("engine: unknown label")

	// ErrLabelDeleted is returned when an operation targets a label that
	// has been marked deleted.
	ErrLabelDeleted = errors.New("engine: label is deleted")

	// ErrLabelNotDeleted is returned when UnmarkDelete targets a label that
	// is not marked deleted.
	ErrLabelNotDeleted = errors.New("engine: label is not deleted")

	// ErrReplaceDisabled is returned when replacement of deleted points is
	// requested but the engine was built without replace support.
	ErrReplaceDisabled = errors.New("engine: replacement of deleted points is disabled")

	// ErrUnsupported is returned for operations an engine does not offer.
	ErrUnsupported = errors.New("engine: operation not supported")
)

// Engine is a nearest-neighbor search engine bound to a metric space.
//
// AddPoint must be safe for concurrent use. SearchKNN must be safe to run
// concurrently with other searches, but not with mutations.
type Engine interface {
	// AddPoint inserts or updates the vector for the given label.
	// When replaceDeleted is true and the engine is full, the point may
	// take over the slot of a previously deleted one.
	AddPoint(v []float32, label uint64, replaceDeleted bool) error

	// SearchKNN returns the k nearest live points to q as a max-heap of
	// candidates, largest distance on top.
	SearchKNN(q []float32, k int) (*Candidates, error)

	// MarkDelete excludes the label from future search results.
	MarkDelete(label uint64) error

	// UnmarkDelete makes the label searchable again.
	UnmarkDelete(label uint64) error

	// Resize grows the engine's capacity to maxElements.
	Resize(maxElements int) error

	// Save writes a snapshot of the engine state to w.
	Save(w io.Writer) error

	// Count returns the number of points held, including deleted ones.
	Count() int

	// MaxElements returns the configured capacity.
	MaxElements() int
}
