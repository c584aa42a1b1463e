package hnsw

// item is an entry in the traversal queues: an internal node id and its
// distance to the query.
type item struct {
	node     uint32
	distance float32
}

// pq is a value-based binary heap over items. With max=true the largest
// distance is on top, otherwise the smallest.
type pq struct {
	max   bool
	items []item
}

func newMin(capacity int) *pq { return &pq{items: make([]item, 0, capacity)} }

func newMax(capacity int) *pq { return &pq{max: true, items: make([]item, 0, capacity)} }

func (q *pq) Len() int { return len(q.items) }

func (q *pq) Top() item { return q.items[0] }

func (q *pq) Push(it item) {
	q.items = append(q.items, it)
	q.siftUp(len(q.items) - 1)
}

func (q *pq) Pop() item {
	n := len(q.items)
	root := q.items[0]
	last := q.items[n-1]
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root
}

func (q *pq) less(i, j int) bool {
	if q.max {
		return q.items[i].distance > q.items[j].distance
	}
	return q.items[i].distance < q.items[j].distance
}

func (q *pq) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *pq) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
