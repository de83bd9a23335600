package pipeline

import "container/heap"

// priorityQueue orders pending requests by nearest-first (largest
// -DistSquared), per §4.6 step 1: "drain all pending requests from the
// channel into an in-worker max-priority-queue keyed by -distance²".
type priorityQueue []Request

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	return q[i].DistSquared < q[j].DistSquared
}

func (q priorityQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue) Push(x interface{}) {
	*q = append(*q, x.(Request))
}

func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityQueue)(nil)
