// Package timer holds the deadline-ordered queue that replaces free-running
// timers. The queue never fires on its own: the owner advances it from inside
// the tick, so every action runs on the loop goroutine.
package timer

import (
	"container/heap"
	"time"
)

// Action is a one-shot unit of deferred work. The context (normally the
// world) is passed in at fire time rather than captured.
type Action[C any] func(ctx C)

type entry[C any] struct {
	at  time.Duration
	seq uint64
	fn  Action[C]
}

type entryHeap[C any] []*entry[C]

func (h entryHeap[C]) Len() int { return len(h) }

func (h entryHeap[C]) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap[C]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[C]) Push(x any) { *h = append(*h, x.(*entry[C])) }

func (h *entryHeap[C]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue orders actions by absolute simulation time, ties by insertion order.
// Accessed only from the game loop goroutine, so no locks.
type Queue[C any] struct {
	now   time.Duration
	seq   uint64
	items entryHeap[C]
}

func NewQueue[C any]() *Queue[C] {
	return &Queue[C]{items: make(entryHeap[C], 0, 16)}
}

// Now returns the current simulation time.
func (q *Queue[C]) Now() time.Duration { return q.now }

// Schedule enqueues fn to fire no earlier than delay from now. Negative
// delays count as zero.
func (q *Queue[C]) Schedule(delay time.Duration, fn Action[C]) {
	if delay < 0 {
		delay = 0
	}
	q.seq++
	heap.Push(&q.items, &entry[C]{at: q.now + delay, seq: q.seq, fn: fn})
}

// Advance moves the clock forward by dt and fires every due action.
// Actions scheduled while firing wait for the next Advance even when their
// deadline has already passed. Returns the number of actions fired.
func (q *Queue[C]) Advance(dt time.Duration, ctx C) int {
	if dt > 0 {
		q.now += dt
	}
	barrier := q.seq
	fired := 0
	for len(q.items) > 0 {
		next := q.items[0]
		if next.at > q.now || next.seq > barrier {
			break
		}
		heap.Pop(&q.items)
		next.fn(ctx)
		fired++
	}
	return fired
}

// Pending returns the number of actions not yet fired.
func (q *Queue[C]) Pending() int { return len(q.items) }
