// Package brute implements an exact nearest-neighbor engine that scans
// every stored vector.
package brute

import (
	"fmt"
	"sync"

	"github.com/hupe1980/nnindex/engine"
	"github.com/hupe1980/nnindex/space"
)

// Compile-time check to ensure Brute satisfies the engine interface.
var _ engine.Engine = (*Brute)(nil)

// Brute represents the brute-force engine. Vectors are stored in dense
// slots; searches scan all of them and keep the k closest in a bounded
// max-heap.
type Brute struct {
	space       space.Space
	maxElements int

	vectors [][]float32
	labels  []uint64
	ids     map[uint64]uint32 // label -> slot

	mu sync.Mutex
}

// New creates a brute-force engine bound to the given space with a fixed
// capacity.
func New(s space.Space, maxElements int) (*Brute, error) {
	if maxElements <= 0 {
		return nil, fmt.Errorf("brute: invalid max elements: %d", maxElements)
	}

	return &Brute{
		space:       s,
		maxElements: maxElements,
		vectors:     make([][]float32, 0, maxElements),
		labels:      make([]uint64, 0, maxElements),
		ids:         make(map[uint64]uint32, maxElements),
	}, nil
}

// AddPoint inserts or updates the vector for the given label. The
// replaceDeleted flag is ignored; the brute-force engine has no deletion.
func (b *Brute) AddPoint(v []float32, label uint64, _ bool) error {
	if len(v) != b.space.Dim() {
		return fmt.Errorf("brute: vector length %d does not match space dimension %d", len(v), b.space.Dim())
	}

	vec := make([]float32, len(v))
	copy(vec, v)

	b.mu.Lock()
	defer b.mu.Unlock()

	if slot, ok := b.ids[label]; ok {
		b.vectors[slot] = vec
		return nil
	}

	if len(b.vectors) >= b.maxElements {
		return engine.ErrCapacity
	}

	slot := uint32(len(b.vectors))
	b.vectors = append(b.vectors, vec)
	b.labels = append(b.labels, label)
	b.ids[label] = slot

	return nil
}

// SearchKNN returns the k nearest points to q as a max-heap.
func (b *Brute) SearchKNN(q []float32, k int) (*engine.Candidates, error) {
	if len(q) != b.space.Dim() {
		return nil, fmt.Errorf("brute: query length %d does not match space dimension %d", len(q), b.space.Dim())
	}

	if k <= 0 {
		return nil, fmt.Errorf("brute: k must be positive, got %d", k)
	}

	top := engine.NewCandidates(k)

	for slot, vec := range b.vectors {
		d := b.space.Distance(q, vec)

		if top.Len() < k {
			top.Push(engine.Candidate{Label: b.labels[slot], Distance: d})
			continue
		}

		if largest, _ := top.Top(); d < largest.Distance {
			top.Pop()
			top.Push(engine.Candidate{Label: b.labels[slot], Distance: d})
		}
	}

	return top, nil
}

// MarkDelete is not supported by the brute-force engine.
func (b *Brute) MarkDelete(uint64) error { return engine.ErrUnsupported }

// UnmarkDelete is not supported by the brute-force engine.
func (b *Brute) UnmarkDelete(uint64) error { return engine.ErrUnsupported }

// Resize is not supported by the brute-force engine.
func (b *Brute) Resize(int) error { return engine.ErrUnsupported }

// Count returns the number of points held.
func (b *Brute) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.vectors)
}

// MaxElements returns the configured capacity.
func (b *Brute) MaxElements() int { return b.maxElements }
