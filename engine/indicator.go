package engine

import (
	"time"

	"lautenbacher.net/golight/sched"
)

// indicator drives the auxiliary channel that shows the current mode.
type indicator struct {
	set   func(level uint16)
	level uint16

	slow sched.Timer
	fast sched.Timer
	on   bool
}

func newIndicator(s sched.Scheduler, slow, fast time.Duration, level uint16, set func(uint16)) *indicator {
	ind := &indicator{set: set, level: level}
	ind.slow = s.Every(slow, ind.toggle)
	ind.fast = s.Every(fast, ind.toggle)
	return ind
}

func (ind *indicator) show(m Mode) {
	ind.slow.Stop()
	ind.fast.Stop()

	switch m {
	case None:
		ind.write(false)
	case Hue:
		ind.write(true)
		ind.slow.Start()
	case Saturation:
		ind.write(true)
		ind.fast.Start()
	case Value:
		ind.write(true)
	}
}

func (ind *indicator) toggle() {
	ind.write(!ind.on)
}

func (ind *indicator) write(on bool) {
	ind.on = on
	if on {
		ind.set(ind.level)
	} else {
		ind.set(0)
	}
}

func (ind *indicator) stop() {
	ind.slow.Stop()
	ind.fast.Stop()
	ind.write(false)
}
