// Package queue implements a fixed-capacity binary heap specialized as either a min-heap
// or a max-heap over (node-index, score) pairs. It backs both the "best-so-far" candidate
// sets and the expansion frontiers used by the HNSW index.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// Item is an entry in the priority queue: a node index paired with its score.
type Item struct {
	Node  uint32  // Node is the index of the candidate, arbitrary otherwise.
	Score float32 // Score is the heap priority; larger is better everywhere in this codebase.
	Index int     // Index is maintained by heap.Interface, not for caller use.
}

// PriorityQueue implements heap.Interface over a fixed-capacity slice of Items.
//
// Order selects orientation: false is a min-heap (Top returns the lowest score, used for
// "worst-of-best-so-far" candidate sets where the weakest member must be evicted first),
// true is a max-heap (Top returns the highest score, used for expansion frontiers where the
// best-unexplored candidate must be popped first, and for ranking results best-first).
//
// Capacity, when non-zero, bounds the queue: Push returns false instead of growing past it.
// A zero Capacity means unbounded, matching container/heap's normal behavior.
type PriorityQueue struct {
	Order    bool
	Capacity int
	Items    []*Item
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.Items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if !pq.Order {
		return pq.Items[i].Score < pq.Items[j].Score
	}
	return pq.Items[i].Score > pq.Items[j].Score
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
	pq.Items[i].Index, pq.Items[j].Index = i, j
}

// Push implements heap.Interface. Prefer TryPush for capacity-aware insertion; Push does
// not check Capacity, since heap.Interface has no way to signal failure, so a direct
// heap.Push grows the queue past it.
func (pq *PriorityQueue) Push(x any) {
	item, _ := x.(*Item)
	item.Index = len(pq.Items)
	pq.Items = append(pq.Items, item)
}

// Pop removes and returns the top element from the priority queue.
func (pq *PriorityQueue) Pop() any {
	if len(pq.Items) == 0 {
		return nil
	}

	old := pq.Items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	pq.Items = old[:n-1]

	return item
}

// Top returns the top element of the priority queue without removing it.
func (pq *PriorityQueue) Top() *Item {
	if len(pq.Items) == 0 {
		return nil
	}
	return pq.Items[0]
}

// Empty reports whether the queue holds no items.
func (pq *PriorityQueue) Empty() bool { return len(pq.Items) == 0 }

// Full reports whether the queue is at its bounded Capacity. Always false when unbounded.
func (pq *PriorityQueue) Full() bool {
	return pq.Capacity > 0 && len(pq.Items) >= pq.Capacity
}

// TryPush pushes an item, heap-ordered, unless the queue is already at Capacity, in which
// case it returns false and leaves the queue unchanged.
func TryPush(pq *PriorityQueue, item *Item) bool {
	if pq.Full() {
		return false
	}
	heap.Push(pq, item)
	return true
}

// New constructs an empty, heap-initialized PriorityQueue with the given orientation and
// bounded capacity (0 means unbounded).
func New(order bool, capacity int) *PriorityQueue {
	pq := &PriorityQueue{Order: order, Capacity: capacity}
	heap.Init(pq)
	return pq
}

// Drain pops every item off the queue in heap-pop order (ascending for a min-heap,
// descending for a max-heap) and returns them as a plain slice.
func Drain(pq *PriorityQueue) []*Item {
	out := make([]*Item, 0, pq.Len())
	for pq.Len() > 0 {
		out = append(out, heap.Pop(pq).(*Item))
	}
	return out
}
