package queue

import "github.com/hupe1980/hyperlsh/model"

// TopK keeps the k smallest IdxVal pairs pushed into it.
type TopK struct {
	k    int
	heap *PriorityQueue
}

// maxPrealloc bounds the up-front heap allocation. k is caller controlled
// and may far exceed the number of candidates ever pushed.
const maxPrealloc = 64

// NewTopK returns a collector bounded to k entries.
func NewTopK(k int) *TopK {
	return &TopK{k: k, heap: NewMax(min(k, maxPrealloc) + 1)}
}

// Push offers a candidate. When the collector overflows, the current maximum
// is evicted.
func (t *TopK) Push(idx int, value float64) {
	t.heap.PushItem(model.IdxVal{Idx: idx, Value: value})
	if t.heap.Len() > t.k {
		t.heap.PopItem()
	}
}

// Full reports whether k entries are held.
func (t *TopK) Full() bool { return t.heap.Len() >= t.k }

// Len returns the number of held entries.
func (t *TopK) Len() int { return t.heap.Len() }

// Worst returns the largest held entry.
func (t *TopK) Worst() (model.IdxVal, bool) { return t.heap.TopItem() }

// Drain empties the collector and returns its entries in ascending order.
func (t *TopK) Drain() []model.IdxVal {
	out := make([]model.IdxVal, t.heap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = t.heap.PopItem()
	}
	return out
}
