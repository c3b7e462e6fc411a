package schedule

import (
	"container/heap"
	"time"

	"github.com/dshills/pedald/internal/button"
)

// purpose says what a deadline does when it comes due.
type purpose uint8

const (
	// purposeHold checks a button's hold threshold.
	purposeHold purpose = iota + 1

	// purposeRelease runs a deferred release-all for a button.
	purposeRelease
)

func (p purpose) String() string {
	switch p {
	case purposeHold:
		return "hold"
	case purposeRelease:
		return "release"
	default:
		return "unknown"
	}
}

// deadline is one pending timed action.
type deadline struct {
	at      time.Time
	button  button.ID
	purpose purpose
}

// deadlineQueue is a min-heap of deadlines ordered by due time.
// Entries are never removed early: a hold deadline made stale by an
// early release still pops, and the state machine rejects it then.
type deadlineQueue struct {
	entries deadlineHeap
}

func newDeadlineQueue() *deadlineQueue {
	q := &deadlineQueue{}
	heap.Init(&q.entries)
	return q
}

func (q *deadlineQueue) push(d deadline) {
	heap.Push(&q.entries, d)
}

// peek returns the earliest deadline without removing it.
func (q *deadlineQueue) peek() (deadline, bool) {
	if len(q.entries) == 0 {
		return deadline{}, false
	}
	return q.entries[0], true
}

// pop removes and returns the earliest deadline.
func (q *deadlineQueue) pop() (deadline, bool) {
	if len(q.entries) == 0 {
		return deadline{}, false
	}
	return heap.Pop(&q.entries).(deadline), true
}

func (q *deadlineQueue) len() int { return len(q.entries) }

type deadlineHeap []deadline

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x any) { *h = append(*h, x.(deadline)) }

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}
