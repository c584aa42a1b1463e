// Package hnsw implements a graph-based approximate nearest-neighbor
// engine using a Hierarchical Navigable Small World graph.
package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/nnindex/engine"
	"github.com/hupe1980/nnindex/space"
)

// Compile-time check to ensure Graph satisfies the engine interface.
var _ engine.Engine = (*Graph)(nil)

// Node represents a node in the HNSW graph.
type Node struct {
	Connections [][]uint32 // Links to other nodes, one slice per layer
	Vector      []float32
	Layer       int    // Top layer the node exists in
	Label       uint64 // Caller-visible identifier
}

// Options represents the options for configuring the graph engine.
type Options struct {
	// M specifies the number of established connections for every new
	// element during construction. The range 12-48 is ok for most use
	// cases; higher M works better for high-dimensional data at high
	// recall.
	M int

	// EFConstruction specifies the size of the dynamic candidate list
	// during construction. Larger values improve graph quality at the
	// cost of slower inserts.
	EFConstruction int

	// Seed seeds the level generator, making graph construction
	// deterministic for a fixed insert order.
	Seed int64

	// AllowReplaceDeleted permits AddPoint to reuse the slot of a deleted
	// point when asked to.
	AllowReplaceDeleted bool
}

// DefaultOptions contains the default configuration options for the graph engine.
var DefaultOptions = Options{
	M:              16,
	EFConstruction: 200,
	Seed:           100,
}

// Graph represents the Hierarchical Navigable Small World graph engine.
//
// AddPoint, MarkDelete, UnmarkDelete and Resize are serialized internally;
// SearchKNN is read-only and safe to run concurrently with other searches,
// but not with mutations.
type Graph struct {
	space       space.Space
	opts        Options
	maxElements int
	mmax        int     // Max connections per element per layer
	mmax0       int     // Max for the 0 layer
	ml          float64 // Normalization factor for level generation
	ef          int     // Search breadth
	ep          uint32  // Entry point into the top layer
	maxLevel    int

	nodes   []*Node
	labels  map[uint64]uint32 // label -> internal id
	deleted *roaring.Bitmap   // internal ids marked deleted

	rng *rand.Rand

	mu sync.Mutex
}

// New creates a graph engine bound to the given space with a fixed capacity.
func New(s space.Space, maxElements int, optFns ...func(o *Options)) (*Graph, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if maxElements <= 0 {
		return nil, fmt.Errorf("hnsw: invalid max elements: %d", maxElements)
	}

	if opts.M < 2 {
		// M == 1 would make the level normalization factor divide by zero
		opts.M = 2
	}

	if opts.EFConstruction < opts.M {
		opts.EFConstruction = opts.M
	}

	return &Graph{
		space:       s,
		opts:        opts,
		maxElements: maxElements,
		mmax:        opts.M,
		mmax0:       2 * opts.M,
		ml:          1 / logM(opts.M),
		ef:          10,
		nodes:       make([]*Node, 0, maxElements),
		labels:      make(map[uint64]uint32, maxElements),
		deleted:     roaring.New(),
		rng:         rand.New(rand.NewSource(opts.Seed)), // nolint gosec
	}, nil
}

// AddPoint inserts or updates the vector for the given label.
func (g *Graph) AddPoint(v []float32, label uint64, replaceDeleted bool) error {
	if len(v) != g.space.Dim() {
		return fmt.Errorf("hnsw: vector length %d does not match space dimension %d", len(v), g.space.Dim())
	}

	if replaceDeleted && !g.opts.AllowReplaceDeleted {
		return engine.ErrReplaceDisabled
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.labels[label]; ok {
		// Re-adding an existing label rewrites its vector in place and
		// revives it if deleted.
		copy(g.nodes[id].Vector, v)
		g.deleted.Remove(id)
		return nil
	}

	if replaceDeleted && !g.deleted.IsEmpty() {
		id := g.deleted.Minimum()
		node := g.nodes[id]
		delete(g.labels, node.Label)
		copy(node.Vector, v)
		node.Label = label
		g.labels[label] = id
		g.deleted.Remove(id)
		return nil
	}

	if len(g.nodes) >= g.maxElements {
		return engine.ErrCapacity
	}

	g.insert(v, label)

	return nil
}

// insert adds a brand-new point to the graph. Caller holds g.mu.
func (g *Graph) insert(v []float32, label uint64) {
	vec := make([]float32, len(v))
	copy(vec, v)

	id := uint32(len(g.nodes))
	layer := int(math.Floor(-math.Log(g.rng.Float64()) * g.ml))

	node := &Node{
		Label:       label,
		Vector:      vec,
		Layer:       layer,
		Connections: make([][]uint32, layer+1),
	}

	if len(g.nodes) == 0 {
		g.nodes = append(g.nodes, node)
		g.labels[label] = id
		g.ep = id
		g.maxLevel = layer
		return
	}

	// Greedy descent through the layers above the node's own top layer
	// yields the entry point for construction.
	curr := g.ep
	currDist := g.space.Distance(g.nodes[curr].Vector, vec)

	for level := g.maxLevel; level > layer; level-- {
		curr, currDist = g.greedyClosest(vec, curr, currDist, level)
	}

	for level := min(layer, g.maxLevel); level >= 0; level-- {
		top := g.searchLayer(vec, item{node: curr, distance: currDist}, g.opts.EFConstruction, level, false)

		node.Connections[level] = g.selectNeighbours(top, g.opts.M)

		if len(node.Connections[level]) > 0 {
			curr = node.Connections[level][0]
			currDist = g.space.Distance(g.nodes[curr].Vector, vec)
		}
	}

	g.nodes = append(g.nodes, node)
	g.labels[label] = id

	// Link the neighbour nodes back to the new node, making it visible.
	for level := min(layer, g.maxLevel); level >= 0; level-- {
		for _, neighbour := range node.Connections[level] {
			g.link(neighbour, id, level)
		}
	}

	if layer > g.maxLevel {
		g.ep = id
		g.maxLevel = layer
	}
}

// SearchKNN returns the k nearest live points to q as a max-heap.
func (g *Graph) SearchKNN(q []float32, k int) (*engine.Candidates, error) {
	if len(q) != g.space.Dim() {
		return nil, fmt.Errorf("hnsw: query length %d does not match space dimension %d", len(q), g.space.Dim())
	}

	if k <= 0 {
		return nil, fmt.Errorf("hnsw: k must be positive, got %d", k)
	}

	if len(g.nodes) == 0 {
		return engine.NewCandidates(0), nil
	}

	curr := g.ep
	currDist := g.space.Distance(g.nodes[curr].Vector, q)

	for level := g.maxLevel; level > 0; level-- {
		curr, currDist = g.greedyClosest(q, curr, currDist, level)
	}

	ef := g.ef
	if ef < k {
		ef = k
	}

	top := g.searchLayer(q, item{node: curr, distance: currDist}, ef, 0, true)

	for top.Len() > k {
		top.Pop()
	}

	results := engine.NewCandidates(top.Len())
	for top.Len() > 0 {
		it := top.Pop()
		results.Push(engine.Candidate{Label: g.nodes[it.node].Label, Distance: it.distance})
	}

	return results, nil
}

// greedyClosest follows the closest-neighbour links at the given level
// until no neighbour improves the distance to q.
func (g *Graph) greedyClosest(q []float32, curr uint32, currDist float32, level int) (uint32, float32) {
	for changed := true; changed; {
		changed = false

		node := g.nodes[curr]
		if len(node.Connections) <= level {
			break
		}

		for _, n := range node.Connections[level] {
			if d := g.space.Distance(g.nodes[n].Vector, q); d < currDist {
				curr = n
				currDist = d
				changed = true
			}
		}
	}

	return curr, currDist
}

// searchLayer performs a best-first search in a single layer of the graph.
// It returns a max-heap of up to ef results. Deleted nodes are still
// traversed as routing nodes; with filtered=true they are excluded from
// the result heap.
func (g *Graph) searchLayer(q []float32, ep item, ef, level int, filtered bool) *pq {
	var visited bitset.BitSet

	visited.Set(uint(ep.node))

	candidates := newMin(ef)
	top := newMax(ef)

	candidates.Push(ep)
	if !filtered || !g.deleted.Contains(ep.node) {
		top.Push(ep)
	}

	for candidates.Len() > 0 {
		if top.Len() >= ef && candidates.Top().distance > top.Top().distance {
			break
		}

		curr := candidates.Pop()

		node := g.nodes[curr.node]
		if len(node.Connections) <= level {
			continue
		}

		for _, n := range node.Connections[level] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d := g.space.Distance(q, g.nodes[n].Vector)

			if top.Len() < ef || d < top.Top().distance {
				candidates.Push(item{node: n, distance: d})

				if !filtered || !g.deleted.Contains(n) {
					top.Push(item{node: n, distance: d})
					if top.Len() > ef {
						top.Pop()
					}
				}
			}
		}
	}

	return top
}

// selectNeighbours applies the HNSW selection heuristic to the candidates
// in top, keeping at most m of them. The result is ordered closest first.
// top is consumed.
func (g *Graph) selectNeighbours(top *pq, m int) []uint32 {
	// Drain the max-heap into ascending distance order.
	asc := make([]item, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		asc[i] = top.Pop()
	}

	selected := make([]item, 0, m)
	discarded := make([]item, 0, len(asc))

	for _, cand := range asc {
		if len(selected) >= m {
			break
		}

		// Keep a candidate only if no already kept neighbour is closer to
		// it than the candidate is to the query.
		keep := true
		for _, s := range selected {
			if g.space.Distance(g.nodes[s.node].Vector, g.nodes[cand.node].Vector) < cand.distance {
				keep = false
				break
			}
		}

		if keep {
			selected = append(selected, cand)
		} else {
			discarded = append(discarded, cand)
		}
	}

	// Backfill from the discarded candidates if the heuristic kept too few.
	for _, cand := range discarded {
		if len(selected) >= m {
			break
		}
		selected = append(selected, cand)
	}

	out := make([]uint32, len(selected))
	for i, it := range selected {
		out[i] = it.node
	}

	return out
}

// link adds a connection from first to second at the given level, pruning
// the connection list with the selection heuristic when it overflows.
func (g *Graph) link(first, second uint32, level int) {
	maxConnections := g.mmax
	// HNSW allows double the connections for the bottom level
	if level == 0 {
		maxConnections = g.mmax0
	}

	node := g.nodes[first]
	if len(node.Connections) <= level {
		return
	}

	node.Connections[level] = append(node.Connections[level], second)

	if len(node.Connections[level]) > maxConnections {
		candidates := newMax(len(node.Connections[level]))
		for _, id := range node.Connections[level] {
			candidates.Push(item{node: id, distance: g.space.Distance(node.Vector, g.nodes[id].Vector)})
		}

		node.Connections[level] = g.selectNeighbours(candidates, maxConnections)
	}
}

// MarkDelete excludes the label from future search results.
func (g *Graph) MarkDelete(label uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.labels[label]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownLabel, label)
	}

	if g.deleted.Contains(id) {
		return fmt.Errorf("%w: %d", engine.ErrLabelDeleted, label)
	}

	g.deleted.Add(id)

	return nil
}

// UnmarkDelete makes the label searchable again.
func (g *Graph) UnmarkDelete(label uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.labels[label]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownLabel, label)
	}

	if !g.deleted.Contains(id) {
		return fmt.Errorf("%w: %d", engine.ErrLabelNotDeleted, label)
	}

	g.deleted.Remove(id)

	return nil
}

// Resize grows the capacity of the graph. All existing points, labels and
// connections are preserved.
func (g *Graph) Resize(maxElements int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if maxElements < len(g.nodes) {
		return fmt.Errorf("hnsw: cannot resize to %d below current count %d", maxElements, len(g.nodes))
	}

	g.maxElements = maxElements

	return nil
}

// Count returns the number of points held, including deleted ones.
func (g *Graph) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.nodes)
}

// DeletedCount returns the number of points currently marked deleted.
func (g *Graph) DeletedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return int(g.deleted.GetCardinality())
}

// MaxElements returns the configured capacity.
func (g *Graph) MaxElements() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.maxElements
}

// EF returns the current search breadth.
func (g *Graph) EF() int { return g.ef }

// SetEF sets the search breadth used by SearchKNN.
func (g *Graph) SetEF(ef int) { g.ef = ef }

// M returns the configured connection count per layer.
func (g *Graph) M() int { return g.opts.M }

func logM(m int) float64 { return math.Log(float64(m)) }
