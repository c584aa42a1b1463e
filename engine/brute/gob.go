package brute

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/hupe1980/nnindex/space"
)

// Save writes a snapshot of the engine to w.
func (b *Brute) Save(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder := gob.NewEncoder(w)

	if err := encoder.Encode(b.maxElements); err != nil {
		return err
	}

	if err := encoder.Encode(b.vectors); err != nil {
		return err
	}

	return encoder.Encode(b.labels)
}

// Load reconstructs a brute-force engine from a snapshot written by Save.
// maxElements == 0 keeps the capacity stored in the snapshot.
func Load(r io.Reader, s space.Space, maxElements int) (*Brute, error) {
	decoder := gob.NewDecoder(r)

	var storedMax int
	if err := decoder.Decode(&storedMax); err != nil {
		return nil, err
	}

	var vectors [][]float32
	if err := decoder.Decode(&vectors); err != nil {
		return nil, err
	}

	var labels []uint64
	if err := decoder.Decode(&labels); err != nil {
		return nil, err
	}

	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("brute: corrupt snapshot: %d vectors, %d labels", len(vectors), len(labels))
	}

	if maxElements == 0 {
		maxElements = storedMax
	}
	if maxElements < len(vectors) {
		return nil, fmt.Errorf("brute: max elements %d below stored point count %d", maxElements, len(vectors))
	}

	ids := make(map[uint64]uint32, len(labels))
	for slot, label := range labels {
		if len(vectors[slot]) != s.Dim() {
			return nil, fmt.Errorf("brute: stored dimension %d does not match space dimension %d", len(vectors[slot]), s.Dim())
		}
		ids[label] = uint32(slot)
	}

	return &Brute{
		space:       s,
		maxElements: maxElements,
		vectors:     vectors,
		labels:      labels,
		ids:         ids,
	}, nil
}
