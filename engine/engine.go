// Package engine holds the interactive color state machine: the active
// color, the edited channel and the ramp that changes it while the button
// is held.
package engine

import (
	"log/slog"
	"time"

	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/gesture"
	"lautenbacher.net/golight/persist"
	"lautenbacher.net/golight/sched"
)

type Config struct {
	RampInterval   time.Duration
	HueStep        int
	SaturationStep int
	ValueStep      int

	SlowBlink      time.Duration
	FastBlink      time.Duration
	IndicatorLevel uint16
}

func DefaultConfig() Config {
	return Config{
		RampInterval:   15 * time.Millisecond,
		HueStep:        1,
		SaturationStep: 1,
		ValueStep:      1,
		SlowBlink:      500 * time.Millisecond,
		FastBlink:      150 * time.Millisecond,
		IndicatorLevel: color.MaxLevel,
	}
}

// Output receives the color layer.
type Output interface {
	SetColor(color.RGB)
	SetIndicator(level uint16)
}

// Engine must only be used from the dispatch context of its scheduler.
type Engine struct {
	cfg   Config
	state *persist.State
	store persist.Committer
	out   Output
	pub   events.Publisher

	mode    Mode
	holding bool
	satDir  int
	valDir  int

	ramp      sched.Timer
	indicator *indicator
}

// New creates the engine in mode None and shows the active color of state.
// state is shared with the preset store, every commit writes all of it.
func New(s sched.Scheduler, state *persist.State, store persist.Committer, out Output, pub events.Publisher, cfg Config) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	e := &Engine{
		cfg:    cfg,
		state:  state,
		store:  store,
		out:    out,
		pub:    pub,
		satDir: -1,
		valDir: -1,
	}
	e.ramp = s.Every(cfg.RampInterval, e.tick)
	e.indicator = newIndicator(s, cfg.SlowBlink, cfg.FastBlink, cfg.IndicatorLevel, out.SetIndicator)
	e.indicator.show(None)
	e.update()
	return e
}

func (e *Engine) Mode() Mode           { return e.mode }
func (e *Engine) Holding() bool        { return e.holding }
func (e *Engine) Active() color.HSV    { return e.state.Active }
func (e *Engine) ActiveRGB() color.RGB { return e.state.Active.RGB() }

// OnGesture reacts to a classified button event.
func (e *Engine) OnGesture(ev gesture.Event) {
	switch ev {
	case gesture.DoubleClick:
		_ = e.setMode(e.mode.Next())
	case gesture.Pressed:
		e.holding = true
		if e.mode != None {
			e.ramp.Start()
		}
	case gesture.Released:
		e.holding = false
		e.ramp.Stop()
	}
}

// SetHSV replaces the active color, leaves editing and persists at once.
// Out of range components are clamped.
func (e *Engine) SetHSV(h, s, v int) error {
	e.state.Active = color.ClampHSV(h, s, v)
	return e.apply()
}

// SetRGB is SetHSV for a permille RGB color.
func (e *Engine) SetRGB(r, g, b int) error {
	e.state.Active = color.ClampRGB(r, g, b).HSV()
	return e.apply()
}

func (e *Engine) apply() error {
	if err := e.setMode(None); err != nil {
		e.update()
		return err
	}
	e.update()
	return e.commit()
}

// Close stops all timers and switches the indicator off.
func (e *Engine) Close() {
	e.ramp.Stop()
	e.indicator.stop()
}

func (e *Engine) setMode(m Mode) error {
	prev := e.mode
	e.mode = m
	e.indicator.show(m)
	if m == None {
		e.ramp.Stop()
	}
	if m != prev {
		slog.Debug("Mode changed", "from", prev, "to", m)
		e.pub.Publish(events.ModeChanged{Mode: m.String()})
	}
	if m == None && prev != None {
		return e.commit()
	}
	return nil
}

func (e *Engine) commit() error {
	if err := e.store.Commit(*e.state); err != nil {
		slog.Error("Failed to persist color", "color", e.state.Active, "error", err)
		return err
	}
	return nil
}

func (e *Engine) tick() {
	// a fire may already be queued when the button is released
	if !e.holding || e.mode == None {
		return
	}

	c := &e.state.Active
	switch e.mode {
	case Hue:
		c.H = uint16((int(c.H) + e.cfg.HueStep) % color.MaxHue)
	case Saturation:
		s := pendulum(int(c.S), e.cfg.SaturationStep, &e.satDir)
		c.S = uint8(s)
	case Value:
		v := pendulum(int(c.V), e.cfg.ValueStep, &e.valDir)
		c.V = uint8(v)
	}
	e.update()
}

// pendulum moves v one step in direction dir and turns around when a bound
// is reached.
func pendulum(v, step int, dir *int) int {
	v += *dir * step
	switch {
	case v >= color.MaxSV:
		v = color.MaxSV
		*dir = -1
	case v <= 0:
		v = 0
		*dir = 1
	}
	return v
}

func (e *Engine) update() {
	rgb := e.state.Active.RGB()
	e.out.SetColor(rgb)
	e.pub.Publish(events.ColorChanged{HSV: e.state.Active, RGB: rgb})
}
