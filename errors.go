package nnindex

import (
	"errors"
	"fmt"
)

var (
	// ErrInitializationFailed is returned when a handle or its engine
	// cannot be allocated.
	ErrInitializationFailed = errors.New("initialization failed")

	// ErrNotInitialized is returned when an operation requires a prior
	// successful Init call.
	ErrNotInitialized = errors.New("index not initialized")

	// ErrClosed is returned when an operation is attempted on a closed
	// handle.
	ErrClosed = errors.New("index is closed")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrAddItemsFailed wraps label-count mismatches and per-item insert
	// errors.
	ErrAddItemsFailed = errors.New("add items failed")

	// ErrSearchFailed wraps per-query search errors, including an engine
	// returning fewer than k results.
	ErrSearchFailed = errors.New("search failed")

	// ErrResizeFailed wraps engine capacity errors during resize.
	ErrResizeFailed = errors.New("resize failed")

	// ErrSaveFailed wraps I/O and encoding errors during save.
	ErrSaveFailed = errors.New("save failed")

	// ErrLoadFailed wraps I/O and decoding errors during load.
	ErrLoadFailed = errors.New("load failed")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Configured dimension of the handle
	Actual   int // Length of the offending row
	Row      int // Index of the offending row
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }
