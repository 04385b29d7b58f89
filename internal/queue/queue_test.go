package queue

import (
	"math"
	"math/rand"
	"testing"

	"github.com/hupe1980/hyperlsh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueOrder(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"preallocated", 4},
		{"grows", 1},
		{"zero", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pq := NewMax(tt.capacity)
			pq.PushItem(model.IdxVal{Idx: 0, Value: 2})
			pq.PushItem(model.IdxVal{Idx: 1, Value: 1})
			pq.PushItem(model.IdxVal{Idx: 3, Value: 3})
			pq.PushItem(model.IdxVal{Idx: 2, Value: 2})

			var got []int
			for pq.Len() > 0 {
				item, ok := pq.PopItem()
				require.True(t, ok)
				got = append(got, item.Idx)
			}
			assert.Equal(t, []int{3, 2, 0, 1}, got)

			_, ok := pq.PopItem()
			assert.False(t, ok)
		})
	}
}

func TestTopKKeepsSmallest(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	values := make([]float64, 200)
	for i := range values {
		values[i] = r.Float64()
	}

	top := NewTopK(10)
	for i, v := range values {
		top.Push(i, v)
		assert.LessOrEqual(t, top.Len(), 10)
	}
	require.True(t, top.Full())

	expected := make([]model.IdxVal, len(values))
	for i, v := range values {
		expected[i] = model.IdxVal{Idx: i, Value: v}
	}
	model.Sort(expected)

	assert.Equal(t, expected[:10], top.Drain())
	assert.Zero(t, top.Len())
}

func TestTopKWorst(t *testing.T) {
	top := NewTopK(2)
	_, ok := top.Worst()
	assert.False(t, ok)

	top.Push(5, 3)
	top.Push(6, 1)
	top.Push(7, 2)

	w, ok := top.Worst()
	require.True(t, ok)
	assert.Equal(t, model.IdxVal{Idx: 7, Value: 2}, w)
}

func TestTopKUnboundedK(t *testing.T) {
	for _, k := range []int{math.MaxInt, 1 << 40} {
		top := NewTopK(k)
		for i := range 100 {
			top.Push(i, float64(100-i))
		}
		assert.False(t, top.Full())
		got := top.Drain()
		require.Len(t, got, 100)
		assert.Equal(t, model.IdxVal{Idx: 99, Value: 1}, got[0])
	}
}
