// Package blobstore abstracts the storage backends index snapshots can be
// written to and read from.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is a named-blob storage backend.
type Store interface {
	// Put writes the blob under the given name, replacing any previous
	// content atomically where the backend allows it.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the named blob for reading. The caller closes the result.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named blob. Deleting a missing blob is not an
	// error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
