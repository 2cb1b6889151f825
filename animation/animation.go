// Package animation plays the identifier blink pattern: one channel at a
// time fades in and out, as many times as its digit says.
package animation

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/output"
	"lautenbacher.net/golight/sched"
)

var ErrNoChannels = errors.New("no channel has a blink count")

type Phase int

const (
	Idle Phase = iota
	FadingIn
	FadingOut
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FadingIn:
		return "fading-in"
	case FadingOut:
		return "fading-out"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Config struct {
	Interval time.Duration
	Step     int
	// Counts holds the number of blinks per channel, a zero skips it.
	Counts [output.Channels]int
}

// Output is where the animation draws. While running it owns all channels.
type Output interface {
	Overlay(output.Frame)
	Release()
}

type Animation struct {
	cfg   Config
	out   Output
	pub   events.Publisher
	timer sched.Timer

	running bool
	phase   Phase
	duty    int
	channel int
	blinks  int
}

func New(s sched.Scheduler, cfg Config, out Output, pub events.Publisher) *Animation {
	if pub == nil {
		pub = events.Nop{}
	}
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	a := &Animation{cfg: cfg, out: out, pub: pub}
	a.timer = s.Every(cfg.Interval, a.tick)
	return a
}

func (a *Animation) Active() bool { return a.running }

func (a *Animation) Phase() Phase { return a.phase }

// Channel returns the channel currently fading.
func (a *Animation) Channel() int { return a.channel }

// Start begins the pattern from zero on the first channel with a count,
// also when it is already running.
func (a *Animation) Start() error {
	first := a.nextChannel(-1)
	if first < 0 {
		return ErrNoChannels
	}
	a.channel = first
	a.duty = 0
	a.blinks = 0
	a.phase = FadingIn
	a.timer.Start()
	a.draw()

	if !a.running {
		a.running = true
		slog.Info("Animation started", "counts", a.cfg.Counts)
		a.pub.Publish(events.AnimationToggled{Active: true})
	}
	return nil
}

// Stop switches every channel off at once and hands the light back.
func (a *Animation) Stop() {
	if !a.running {
		return
	}
	a.timer.Stop()
	a.running = false
	a.phase = Idle
	a.duty = 0
	a.out.Overlay(output.Frame{})
	a.out.Release()
	slog.Info("Animation stopped")
	a.pub.Publish(events.AnimationToggled{Active: false})
}

// Toggle starts a stopped animation and stops a running one. It reports
// whether the animation runs afterwards.
func (a *Animation) Toggle() (bool, error) {
	if a.running {
		a.Stop()
		return false, nil
	}
	if err := a.Start(); err != nil {
		return false, err
	}
	return true, nil
}

// nextChannel returns the first channel after from with a non zero count,
// wrapping around, or -1 if there is none.
func (a *Animation) nextChannel(from int) int {
	n := len(a.cfg.Counts)
	for i := 1; i <= n; i++ {
		c := ((from+i)%n + n) % n
		if a.cfg.Counts[c] > 0 {
			return c
		}
	}
	return -1
}

func (a *Animation) tick() {
	if !a.running {
		return
	}

	switch a.phase {
	case FadingIn:
		a.duty += a.cfg.Step
		if a.duty >= color.MaxLevel {
			a.duty = color.MaxLevel
			a.phase = FadingOut
		}
	case FadingOut:
		if a.duty <= a.cfg.Step {
			a.duty = 0
			a.phase = FadingIn
			a.blinks++
			if a.blinks >= a.cfg.Counts[a.channel] {
				a.blinks = 0
				a.channel = a.nextChannel(a.channel)
			}
		} else {
			a.duty -= a.cfg.Step
		}
	}
	a.draw()
}

func (a *Animation) draw() {
	var f output.Frame
	f[a.channel] = uint16(a.duty)
	a.out.Overlay(f)
}
