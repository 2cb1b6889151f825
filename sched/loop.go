package sched

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Loop is a real-time Scheduler. Timer fires and posted functions are
// queued in order of arrival and executed one by one by the goroutine
// running Run.
type Loop struct {
	mu    sync.Mutex
	queue deque.Deque[func()]
	wake  chan struct{}
}

// NewLoop creates an idle loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn for execution in dispatch context. It never blocks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue.PushBack(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

// Call posts fn and waits until it has run or ctx is done.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		for fn, ok := l.next(); ok; fn, ok = l.next() {
			if ctx.Err() != nil {
				return
			}
			fn()
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queue.Len() == 0 {
		return nil, false
	}
	return l.queue.PopFront(), true
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

func (l *Loop) Once(interval time.Duration, fn func()) Timer {
	return newLoopTimer(l, interval, false, fn)
}

func (l *Loop) Every(interval time.Duration, fn func()) Timer {
	return newLoopTimer(l, interval, true, fn)
}

type loopTimer struct {
	loop     *Loop
	interval time.Duration
	repeat   bool
	fn       func()

	// Guards everything below. Start and Stop may be called from any
	// goroutine, fire only runs on the loop.
	mu     sync.Mutex
	gen    uint64
	active bool
	next   time.Time
	timer  *time.Timer
}

func newLoopTimer(l *Loop, interval time.Duration, repeat bool, fn func()) *loopTimer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &loopTimer{loop: l, interval: interval, repeat: repeat, fn: fn}
}

func (t *loopTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.active = true
	t.next = time.Now().Add(t.interval)
	t.armLocked()
}

func (t *loopTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.active = false
}

func (t *loopTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// cancelLocked invalidates fires that are already queued on the loop.
func (t *loopTimer) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *loopTimer) armLocked() {
	gen := t.gen
	t.timer = time.AfterFunc(time.Until(t.next), func() {
		t.loop.Post(func() { t.fire(gen) })
	})
}

func (t *loopTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return
	}
	if t.repeat {
		now := time.Now()
		t.next = t.next.Add(t.interval)
		if !t.next.After(now) {
			// fell behind, skip the missed periods
			t.next = now.Add(t.interval)
		}
		t.armLocked()
	} else {
		t.active = false
	}
	t.mu.Unlock()

	t.fn()
}
