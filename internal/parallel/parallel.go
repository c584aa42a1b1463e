// Package parallel provides a bounded fan-out helper for independent
// per-item work.
package parallel

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// For invokes fn once for every index in the half-open range [start, end),
// passing the index and the identifier of the worker that runs it.
//
// If numWorkers <= 0, the number of available CPUs is used. With a single
// worker the range is processed sequentially in index order on the calling
// goroutine. With more workers, indices are claimed from a shared atomic
// cursor, which balances load without static partitioning.
//
// The first error returned by fn stops the remaining workers from claiming
// further indices and is returned after all in-flight items settle. Items
// completed before the error remain applied. Context cancellation stops the
// range the same way.
func For(ctx context.Context, start, end, numWorkers int, fn func(i, worker int) error) error {
	if start >= end {
		return nil
	}

	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	if numWorkers == 1 {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i, 0); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		cursor  atomic.Int64
		stopped atomic.Bool
	)
	cursor.Store(int64(start))

	g := new(errgroup.Group)
	for w := 0; w < numWorkers; w++ {
		worker := w
		g.Go(func() error {
			for {
				if stopped.Load() {
					return nil
				}
				if err := ctx.Err(); err != nil {
					stopped.Store(true)
					return err
				}

				i := int(cursor.Add(1)) - 1
				if i >= end {
					return nil
				}

				if err := fn(i, worker); err != nil {
					stopped.Store(true)
					return err
				}
			}
		})
	}

	// Wait returns the first error observed across workers.
	return g.Wait()
}
