package priority_queue

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// Item is a handle to a value stored in a Queue.
type Item[V any, P constraints.Ordered] struct {
	object   V
	priority P
	index    int
}

type wrapper[V any, P constraints.Ordered] []*Item[V, P]

func (pq wrapper[V, P]) Len() int           { return len(pq) }
func (pq wrapper[V, P]) Less(i, j int) bool { return pq[i].priority < pq[j].priority }

func (pq wrapper[V, P]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *wrapper[V, P]) Push(x any) {
	item := x.(*Item[V, P])
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *wrapper[V, P]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Queue is a min-priority queue.
type Queue[V any, P constraints.Ordered] struct {
	pq wrapper[V, P]
}

// New creates a new priority queue. The zero value is also usable.
func New[V any, P constraints.Ordered]() Queue[V, P] {
	return Queue[V, P]{wrapper[V, P]{}}
}

// Len returns the length of the priority queue.
func (q *Queue[V, P]) Len() int {
	return q.pq.Len()
}

// Push pushes value with the given priority and returns its handle.
func (q *Queue[V, P]) Push(value V, priority P) *Item[V, P] {
	ret := &Item[V, P]{object: value, priority: priority}
	heap.Push(&q.pq, ret)
	return ret
}

// Peek returns the minimum element without removing it.
func (q *Queue[V, P]) Peek() V {
	return q.pq[0].object
}

// PeekPriority returns the minimum element's priority.
func (q *Queue[V, P]) PeekPriority() P {
	return q.pq[0].priority
}

// Pop removes and returns the minimum element.
func (q *Queue[V, P]) Pop() V {
	return heap.Pop(&q.pq).(*Item[V, P]).object
}

// UpdatePriority changes the priority of an item still in the queue.
func (q *Queue[V, P]) UpdatePriority(item *Item[V, P], priority P) {
	item.priority = priority
	heap.Fix(&q.pq, item.index)
}

// Remove deletes an item from the queue. Removing an item twice is a no-op.
func (q *Queue[V, P]) Remove(item *Item[V, P]) {
	if item.index < 0 || item.index >= len(q.pq) || q.pq[item.index] != item {
		return
	}
	heap.Remove(&q.pq, item.index)
}

// Value returns the value of the item
func (item *Item[V, P]) Value() V {
	return item.object
}
