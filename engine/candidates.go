package engine

// Candidate is a single search result: a label and its distance to the query.
type Candidate struct {
	Label    uint64
	Distance float32
}

// Candidates is a binary max-heap of search candidates ordered by distance,
// largest on top. The zero value is ready to use.
//
// Value-based storage keeps pushes and pops allocation free.
type Candidates struct {
	items []Candidate
}

// NewCandidates creates a heap with room for capacity items.
func NewCandidates(capacity int) *Candidates {
	return &Candidates{items: make([]Candidate, 0, capacity)}
}

// Len returns the number of candidates in the heap.
func (c *Candidates) Len() int { return len(c.items) }

// Top returns the candidate with the largest distance without removing it.
func (c *Candidates) Top() (Candidate, bool) {
	if len(c.items) == 0 {
		return Candidate{}, false
	}
	return c.items[0], true
}

// Push inserts a candidate while maintaining the heap invariant.
func (c *Candidates) Push(item Candidate) {
	c.items = append(c.items, item)
	c.siftUp(len(c.items) - 1)
}

// Pop removes and returns the candidate with the largest distance.
func (c *Candidates) Pop() (Candidate, bool) {
	n := len(c.items)
	if n == 0 {
		return Candidate{}, false
	}
	root := c.items[0]
	last := c.items[n-1]
	c.items[n-1] = Candidate{}
	c.items = c.items[:n-1]
	if n-1 > 0 {
		c.items[0] = last
		c.siftDown(0)
	}
	return root, true
}

func (c *Candidates) less(i, j int) bool {
	return c.items[i].Distance > c.items[j].Distance
}

func (c *Candidates) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !c.less(i, p) {
			return
		}
		c.items[i], c.items[p] = c.items[p], c.items[i]
		i = p
	}
}

func (c *Candidates) siftDown(i int) {
	n := len(c.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && c.less(r, l) {
			best = r
		}
		if !c.less(best, i) {
			return
		}
		c.items[i], c.items[best] = c.items[best], c.items[i]
		i = best
	}
}
