// Package sched provides the timer and dispatch primitives the light core
// runs on. Every callback handed to a Scheduler runs to completion before
// the next one starts, so the core never needs locks of its own.
package sched

import "time"

// Timer is a single-shot or repeating timer. A new timer is stopped.
// Start on a running timer restarts it; there is never more than one
// pending fire per timer.
type Timer interface {
	Start()
	Stop()
	Active() bool
}

// Scheduler creates timers and serialises callbacks.
type Scheduler interface {
	// Once returns a single-shot timer calling fn interval after Start.
	Once(interval time.Duration, fn func()) Timer
	// Every returns a repeating timer calling fn every interval after Start.
	Every(interval time.Duration, fn func()) Timer
	// Post queues fn to run in dispatch context.
	Post(fn func())
}
