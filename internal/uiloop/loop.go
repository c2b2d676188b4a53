// Package uiloop abstracts the UI's single logical execution context. All
// UI-owned state (lifecycle store, pending set, history cache) is mutated
// only from functions posted here, which eliminates data races on that
// state by construction.
package uiloop

import "sync"

// Loop marshals work onto the UI's single logical thread. Post never blocks
// the caller and the posted function runs on the next drain of the loop.
type Loop interface {
	Post(fn func())
}

// Queue is a message-queue Loop drained once per UI run-loop tick. The TUI
// wraps a tea.Program instead; Queue serves headless runs and tests.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	closed  bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post enqueues fn for the next Drain. Safe from any goroutine.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Drain runs everything posted so far, in order, on the calling goroutine.
// Returns the number of functions executed.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Wake returns a channel that receives when work is pending. A run loop
// selects on it and calls Drain.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// Close discards queued work and rejects further posts.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.mu.Unlock()
}

// Immediate is a Loop that runs posted functions synchronously on the
// calling goroutine. Only for single-goroutine tests.
type Immediate struct{}

func (Immediate) Post(fn func()) { fn() }
