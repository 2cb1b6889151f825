package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/golight/config"
	"lautenbacher.net/golight/output"
)

// dutyRange is the PWM cycle length, a frame level maps 1:1 to a duty.
const dutyRange = 1000

// softSteps is the resolution of software PWM.
const softSteps = 20

type RaspberryPiPlatform struct {
	*AbstractPlatform
	hw     config.HardwareConfig
	button rpio.Pin
	leds   [output.Channels]led
	soft   []*led

	pollStopChan chan struct{}
	pollWg       sync.WaitGroup
}

// led is one output channel. Pins with a free hardware PWM channel are
// driven by the PWM unit, all others by the software PWM loop.
type led struct {
	pin      rpio.Pin
	hardware bool
	duty     atomic.Uint32
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{
		hw:           conf.Hardware,
		pollStopChan: make(chan struct{}),
	}
	inst.AbstractPlatform = newAbstractPlatform(inst.rpiDisplayFunc)
	return inst
}

func (s *RaspberryPiPlatform) Start() error {
	slog.Info("Initialise GPIO...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}

	s.button = rpio.Pin(s.hw.ButtonPin)
	s.button.Input()
	if s.hw.ButtonActiveLow {
		s.button.PullUp()
	} else {
		s.button.PullDown()
	}
	s.button.Detect(rpio.AnyEdge)
	s.pressed.Store(buttonLevel(s.button.Read(), s.hw.ButtonActiveLow))

	hardware := assignPWM(s.hw.LedPins)
	for i, pin := range s.hw.LedPins {
		l := &s.leds[i]
		l.pin = rpio.Pin(pin)
		l.hardware = hardware[i]
		if l.hardware {
			l.pin.Mode(rpio.Pwm)
			l.pin.Freq(s.hw.PwmFrequency * dutyRange)
			l.pin.DutyCycle(pwmDuty(0, s.hw.ActiveLow), dutyRange)
		} else {
			l.pin.Output()
			l.pin.Write(digitalLevel(false, s.hw.ActiveLow))
			s.soft = append(s.soft, l)
		}
		slog.Info("LED channel", "channel", i, "pin", pin, "hardwarePWM", l.hardware)
	}

	s.startDisplay()
	s.pollWg.Add(1)
	go s.pollButton()
	if len(s.soft) > 0 {
		s.pollWg.Add(1)
		go s.softPWM()
	}
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	close(s.pollStopChan)
	s.pollWg.Wait()
	s.stopDisplay()

	s.button.Detect(rpio.NoEdge)
	for i := range s.leds {
		l := &s.leds[i]
		if l.hardware {
			l.pin.DutyCycle(pwmDuty(0, s.hw.ActiveLow), dutyRange)
		} else {
			l.pin.Write(digitalLevel(false, s.hw.ActiveLow))
		}
	}
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

func (s *RaspberryPiPlatform) rpiDisplayFunc(f output.Frame) {
	for i := range s.leds {
		l := &s.leds[i]
		l.duty.Store(uint32(f[i]))
		if l.hardware {
			l.pin.DutyCycle(pwmDuty(f[i], s.hw.ActiveLow), dutyRange)
		}
	}
}

func (s *RaspberryPiPlatform) pollButton() {
	defer s.pollWg.Done()
	ticker := time.NewTicker(s.hw.PollInterval)
	defer ticker.Stop()

	last := s.pressed.Load()
	for {
		select {
		case <-s.pollStopChan:
			return
		case <-ticker.C:
			level := buttonLevel(s.button.Read(), s.hw.ButtonActiveLow)
			for _, e := range edgesFor(last, level, s.button.EdgeDetected()) {
				s.edge(e)
			}
			last = level
		}
	}
}

func (s *RaspberryPiPlatform) softPWM() {
	defer s.pollWg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(s.hw.PwmFrequency*softSteps))
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-s.pollStopChan:
			return
		case <-ticker.C:
			for _, l := range s.soft {
				on := softOn(step, l.duty.Load())
				l.pin.Write(digitalLevel(on, s.hw.ActiveLow))
			}
			step = (step + 1) % softSteps
		}
	}
}

// pwmChannel returns the hardware PWM channel of a BCM pin or -1.
func pwmChannel(pin int) int {
	switch pin {
	case 12, 18:
		return 0
	case 13, 19:
		return 1
	}
	return -1
}

// assignPWM hands out the two hardware channels in pin order. Pins sharing
// a channel with an earlier pin fall back to software PWM.
func assignPWM(pins []int) []bool {
	taken := map[int]bool{}
	hardware := make([]bool, len(pins))
	for i, pin := range pins {
		ch := pwmChannel(pin)
		if ch < 0 || taken[ch] {
			continue
		}
		taken[ch] = true
		hardware[i] = true
	}
	return hardware
}

func pwmDuty(level uint16, activeLow bool) uint32 {
	duty := uint32(min(level, dutyRange))
	if activeLow {
		return dutyRange - duty
	}
	return duty
}

func digitalLevel(on, activeLow bool) rpio.State {
	if on != activeLow {
		return rpio.High
	}
	return rpio.Low
}

func softOn(step int, duty uint32) bool {
	return uint32(step)*dutyRange < duty*softSteps
}

func buttonLevel(state rpio.State, activeLow bool) bool {
	return (state == rpio.High) != activeLow
}

// edgesFor turns two polls into transitions. A detected edge without a
// level change is a pulse shorter than the poll interval.
func edgesFor(last, level, detected bool) []bool {
	switch {
	case level != last:
		return []bool{level}
	case detected:
		return []bool{!level, level}
	}
	return nil
}
