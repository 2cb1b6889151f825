package sched

import "time"

// Manual is a Scheduler driven by a virtual clock. Time only moves when
// Advance is called, which makes timing behaviour reproducible in tests.
// It is not safe for concurrent use.
type Manual struct {
	now    time.Duration
	seq    uint64
	timers []*manualTimer
	queue  []func()
}

func NewManual() *Manual {
	return &Manual{}
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// Drain runs posted work, including work posted while draining.
func (m *Manual) Drain() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing every timer that falls
// due on the way in deadline order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	m.Drain()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.deadline
		t.fire()
		m.Drain()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	var due *manualTimer
	for _, t := range m.timers {
		if !t.active || t.deadline > target {
			continue
		}
		if due == nil || t.deadline < due.deadline || (t.deadline == due.deadline && t.seq < due.seq) {
			due = t
		}
	}
	return due
}

func (m *Manual) nextSeq() uint64 {
	m.seq++
	return m.seq
}

func (m *Manual) Once(interval time.Duration, fn func()) Timer {
	return m.add(interval, false, fn)
}

func (m *Manual) Every(interval time.Duration, fn func()) Timer {
	return m.add(interval, true, fn)
}

func (m *Manual) add(interval time.Duration, repeat bool, fn func()) *manualTimer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := &manualTimer{m: m, interval: interval, repeat: repeat, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

type manualTimer struct {
	m        *Manual
	interval time.Duration
	repeat   bool
	fn       func()

	active   bool
	deadline time.Duration
	seq      uint64
}

func (t *manualTimer) Start() {
	t.active = true
	t.deadline = t.m.now + t.interval
	t.seq = t.m.nextSeq()
}

func (t *manualTimer) Stop() {
	t.active = false
}

func (t *manualTimer) Active() bool {
	return t.active
}

func (t *manualTimer) fire() {
	if t.repeat {
		t.deadline += t.interval
		t.seq = t.m.nextSeq()
	} else {
		t.active = false
	}
	t.fn()
}
