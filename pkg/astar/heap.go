package astar

import "container/heap"

type entryQueue []frontierEntry

func (q entryQueue) Len() int { return len(q) }
func (q entryQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q entryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *entryQueue) Push(x any) {
	*q = append(*q, x.(frontierEntry))
}

func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// HeapFrontier is a binary min-heap keyed by f with insertion sequence as the
// secondary key. Push and Pop are O(log n).
type HeapFrontier struct {
	queue entryQueue
	next  uint32
}

func NewHeapFrontier(capacity int) *HeapFrontier {
	return &HeapFrontier{queue: make(entryQueue, 0, capacity)}
}

func (h *HeapFrontier) Push(node int32, f float64) {
	heap.Push(&h.queue, frontierEntry{node: node, f: f, seq: h.next})
	h.next++
}

func (h *HeapFrontier) Pop() (int32, bool) {
	if len(h.queue) == 0 {
		return -1, false
	}
	return heap.Pop(&h.queue).(frontierEntry).node, true
}

func (h *HeapFrontier) Len() int { return len(h.queue) }

func (h *HeapFrontier) Reset() {
	h.queue = h.queue[:0]
	h.next = 0
}
