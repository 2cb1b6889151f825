// Package util holds small concurrency helpers shared by the platforms.
package util

import (
	"sync"
)

// Latest hands the most recent value from a producer to a consumer without
// ever blocking the producer. Intermediate values may be dropped.
type Latest[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{} // capacity 1
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores v and marks it pending. It never blocks.
func (l *Latest[T]) Send(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.value = v
	select {
	case l.notify <- struct{}{}:
	default:
		// already pending
	}
}

// Channel receives once for every batch of Sends.
func (l *Latest[T]) Channel() <-chan struct{} {
	return l.notify
}

func (l *Latest[T]) Value() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// HasPending reports whether a notification waits, without consuming it.
func (l *Latest[T]) HasPending() bool {
	return len(l.notify) > 0
}
