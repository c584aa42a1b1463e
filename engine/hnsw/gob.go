package hnsw

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/nnindex/space"
)

// Save writes a snapshot of the graph to w. The snapshot contains the
// construction parameters, every node with its vector, label and
// connections, and the deletion marks.
func (g *Graph) Save(w io.Writer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	deleted, err := g.deleted.ToBytes()
	if err != nil {
		return err
	}

	encoder := gob.NewEncoder(w)

	if err := encoder.Encode(g.opts); err != nil {
		return err
	}

	if err := encoder.Encode(g.maxElements); err != nil {
		return err
	}

	if err := encoder.Encode(g.ef); err != nil {
		return err
	}

	if err := encoder.Encode(g.ep); err != nil {
		return err
	}

	if err := encoder.Encode(g.maxLevel); err != nil {
		return err
	}

	if err := encoder.Encode(g.nodes); err != nil {
		return err
	}

	return encoder.Encode(deleted)
}

// Load reconstructs a graph engine from a snapshot written by Save.
//
// The given space must match the metric and dimension the snapshot was
// built with. maxElements == 0 keeps the capacity stored in the snapshot;
// a positive value overrides it, as long as it is not below the stored
// point count. allowReplaceDeleted overrides the stored replace setting.
func Load(r io.Reader, s space.Space, maxElements int, allowReplaceDeleted bool) (*Graph, error) {
	decoder := gob.NewDecoder(r)

	var opts Options
	if err := decoder.Decode(&opts); err != nil {
		return nil, err
	}

	var storedMax int
	if err := decoder.Decode(&storedMax); err != nil {
		return nil, err
	}

	var ef int
	if err := decoder.Decode(&ef); err != nil {
		return nil, err
	}

	var ep uint32
	if err := decoder.Decode(&ep); err != nil {
		return nil, err
	}

	var maxLevel int
	if err := decoder.Decode(&maxLevel); err != nil {
		return nil, err
	}

	var nodes []*Node
	if err := decoder.Decode(&nodes); err != nil {
		return nil, err
	}

	var deletedBytes []byte
	if err := decoder.Decode(&deletedBytes); err != nil {
		return nil, err
	}

	deleted := roaring.New()
	if err := deleted.UnmarshalBinary(deletedBytes); err != nil {
		return nil, err
	}

	if maxElements == 0 {
		maxElements = storedMax
	}
	if maxElements < len(nodes) {
		return nil, fmt.Errorf("hnsw: max elements %d below stored point count %d", maxElements, len(nodes))
	}

	labels := make(map[uint64]uint32, len(nodes))
	for id, n := range nodes {
		if len(n.Vector) != s.Dim() {
			return nil, fmt.Errorf("hnsw: stored dimension %d does not match space dimension %d", len(n.Vector), s.Dim())
		}
		labels[n.Label] = uint32(id)
	}

	opts.AllowReplaceDeleted = allowReplaceDeleted

	return &Graph{
		space:       s,
		opts:        opts,
		maxElements: maxElements,
		mmax:        opts.M,
		mmax0:       2 * opts.M,
		ml:          1 / logM(opts.M),
		ef:          ef,
		ep:          ep,
		maxLevel:    maxLevel,
		nodes:       nodes,
		labels:      labels,
		deleted:     deleted,
		rng:         rand.New(rand.NewSource(opts.Seed)), // nolint gosec
	}, nil
}

// Snapshot returns the serialized graph as a byte slice.
func (g *Graph) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
