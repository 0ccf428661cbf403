// Package fifo provides an unbounded FIFO guarded by a mutex, with a condition
// variable consumers block on while it is empty.
package fifo

import (
	"sync"

	"github.com/eapache/queue"
)

// Queue is safe for any number of producers. Consumers block in Pop.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *queue.Queue

	// eager signals a waiter on every Push instead of only on the empty -> non-empty edge.
	// Needed when more than one goroutine consumes the queue.
	eager bool
}

// New returns a queue meant for a single consumer.
func New[T any]() *Queue[T] {
	return newQueue[T](false)
}

// NewShared returns a queue meant for several concurrent consumers.
func NewShared[T any]() *Queue[T] {
	return newQueue[T](true)
}

func newQueue[T any](eager bool) *Queue[T] {
	q := &Queue[T]{items: queue.New(), eager: eager}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v to the tail and reports whether the queue was empty before.
func (q *Queue[T]) Push(v T) bool {
	first, _ := q.PushIf(v, func() bool { return true })
	return first
}

// PushIf appends v only if admit, evaluated with the queue lock held, reports true.
// first reports whether the queue was empty before.
func (q *Queue[T]) PushIf(v T, admit func() bool) (first, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !admit() {
		return false, false
	}
	first = q.items.Length() == 0
	q.items.Add(v)
	if first || q.eager {
		q.cond.Signal()
	}
	return first, true
}

// Pop removes the head, blocking while the queue is empty.
//
// proceed is evaluated with the queue lock held, once before waiting and again after
// every wake-up. When it reports false Pop returns immediately with ok == false and
// leaves the queue untouched.
func (q *Queue[T]) Pop(proceed func() bool) (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !proceed() {
		return v, false
	}
	for q.items.Length() == 0 {
		q.cond.Wait()
		if !proceed() {
			return v, false
		}
	}
	return q.items.Remove().(T), true
}

// Drain drops every queued item, wakes all waiters, and returns how many were dropped.
func (q *Queue[T]) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.items.Length()
	for q.items.Length() > 0 {
		q.items.Remove()
	}
	q.cond.Broadcast()
	return n
}

// Wake releases every goroutine blocked in Pop so it re-evaluates its proceed func.
func (q *Queue[T]) Wake() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}
