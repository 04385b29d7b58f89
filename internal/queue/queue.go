// Package queue provides a binary heap of model.IdxVal used for bounded
// top-k collection during search.
package queue

import (
	"github.com/hupe1980/hyperlsh/model"
)

// PriorityQueue is a value-based binary max-heap of IdxVal ordered by
// (Value, Idx). The largest pair is on top.
type PriorityQueue struct {
	items []model.IdxVal
}

// NewMax initializes a new max-heap. capacity is only a preallocation hint;
// the heap grows past it on demand.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		items: make([]model.IdxVal, 0, capacity),
	}
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (model.IdxVal, bool) {
	if len(pq.items) == 0 {
		return model.IdxVal{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item model.IdxVal) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PopItem removes and returns the top element while maintaining the heap invariant.
func (pq *PriorityQueue) PopItem() (model.IdxVal, bool) {
	n := len(pq.items)
	if n == 0 {
		return model.IdxVal{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

func (pq *PriorityQueue) less(i, j int) bool {
	return model.Compare(pq.items[i], pq.items[j]) > 0
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
