// Package gesture turns raw button edges into press, release and double
// click events.
package gesture

import (
	"fmt"
	"strings"
	"time"

	"lautenbacher.net/golight/sched"
)

type Event int

const (
	Pressed Event = iota
	Released
	DoubleClick
)

func (e Event) String() string {
	switch e {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case DoubleClick:
		return "double-click"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Policy selects how bounces are rejected.
type Policy int

const (
	// Settle waits until no edge arrived for the debounce delay and then
	// reads the settled level.
	Settle Policy = iota
	// Edge accepts the first edge at once and ignores every further edge
	// until the debounce delay has passed. The level is reconciled when the
	// lockout ends so a release swallowed by the lockout is not lost.
	Edge
)

// ParsePolicy maps the configuration names "settle" and "edge".
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "settle":
		return Settle, nil
	case "edge":
		return Edge, nil
	}
	return Settle, fmt.Errorf("unknown gesture policy %q", name)
}

func (p Policy) String() string {
	if p == Edge {
		return "edge"
	}
	return "settle"
}

type Config struct {
	Debounce    time.Duration
	ClickWindow time.Duration
	Policy      Policy
}

// Detector classifies the edges of one button. All methods must be called
// in dispatch context of the scheduler it was created with.
type Detector struct {
	policy  Policy
	level   func() bool
	handler func(Event)

	debounce sched.Timer
	window   sched.Timer

	lastEdge bool // level reported by the most recent edge
	pressed  bool // debounced level
	armed    bool // first click seen, waiting for the second
	closed   bool
}

// New creates a detector. level, if not nil, reads the current pin level
// (true = pressed) and is consulted once the button has settled. Without it
// the level of the last reported edge is used.
func New(s sched.Scheduler, cfg Config, level func() bool, handler func(Event)) *Detector {
	d := &Detector{
		policy:  cfg.Policy,
		level:   level,
		handler: handler,
	}
	d.debounce = s.Once(cfg.Debounce, d.onDebounce)
	d.window = s.Once(cfg.ClickWindow, d.onWindow)
	return d
}

// OnEdge is called once per physical transition, true meaning the button
// went down.
func (d *Detector) OnEdge(pressed bool) {
	if d.closed {
		return
	}
	d.lastEdge = pressed

	switch d.policy {
	case Settle:
		d.debounce.Start()
	case Edge:
		if d.debounce.Active() {
			return
		}
		d.debounce.Start()
		d.transition(pressed)
	}
}

// Pressed reports the debounced level.
func (d *Detector) Pressed() bool {
	return d.pressed
}

// Close stops the timers. Edges after Close are ignored.
func (d *Detector) Close() {
	d.closed = true
	d.debounce.Stop()
	d.window.Stop()
	d.armed = false
}

func (d *Detector) currentLevel() bool {
	if d.level != nil {
		return d.level()
	}
	return d.lastEdge
}

func (d *Detector) onDebounce() {
	if d.closed {
		return
	}
	d.transition(d.currentLevel())
}

func (d *Detector) onWindow() {
	// no second click within the window, nothing to report
	d.armed = false
}

func (d *Detector) transition(pressed bool) {
	if pressed == d.pressed {
		return
	}
	d.pressed = pressed
	if !pressed {
		d.handler(Released)
		return
	}

	d.handler(Pressed)
	if d.armed {
		d.armed = false
		d.window.Stop()
		d.handler(DoubleClick)
		return
	}
	d.armed = true
	d.window.Start()
}
