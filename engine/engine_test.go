package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/gesture"
	"lautenbacher.net/golight/persist"
	"lautenbacher.net/golight/sched"
)

type mockCommitter struct {
	commits []persist.State
	fail    error
}

func (m *mockCommitter) Commit(s persist.State) error {
	if m.fail != nil {
		return m.fail
	}
	m.commits = append(m.commits, s.Clone())
	return nil
}

type mockOutput struct {
	rgb        color.RGB
	indicator  uint16
	colorCalls int
}

func (m *mockOutput) SetColor(c color.RGB) {
	m.rgb = c
	m.colorCalls++
}

func (m *mockOutput) SetIndicator(level uint16) {
	m.indicator = level
}

type mockPublisher struct {
	events []events.Event
}

func (m *mockPublisher) Publish(e events.Event) {
	m.events = append(m.events, e)
}

type fixture struct {
	*Engine
	clock *sched.Manual
	state *persist.State
	store *mockCommitter
	out   *mockOutput
	pub   *mockPublisher
}

func newFixture(active color.HSV) *fixture {
	f := &fixture{
		clock: sched.NewManual(),
		state: &persist.State{Active: active},
		store: &mockCommitter{},
		out:   &mockOutput{},
		pub:   &mockPublisher{},
	}
	f.Engine = New(f.clock, f.state, f.store, f.out, f.pub, DefaultConfig())
	return f
}

func (f *fixture) enter(m Mode) {
	for f.Mode() != m {
		f.OnGesture(gesture.DoubleClick)
	}
}

// hold keeps the button down for n ramp ticks.
func (f *fixture) hold(n int) {
	f.OnGesture(gesture.Pressed)
	f.clock.Advance(time.Duration(n) * DefaultConfig().RampInterval)
	f.OnGesture(gesture.Released)
}

func TestModeCycle(t *testing.T) {
	assert.Equal(t, Hue, None.Next())
	assert.Equal(t, Saturation, Hue.Next())
	assert.Equal(t, Value, Saturation.Next())
	assert.Equal(t, None, Value.Next())

	for _, m := range Modes {
		assert.NotContains(t, m.String(), "Mode(")
	}
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestNewShowsActiveColor(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 100, V: 100})
	assert.Equal(t, None, f.Mode())
	assert.Equal(t, color.RGB{R: 1000}, f.out.rgb)
	assert.Equal(t, uint16(0), f.out.indicator)
	assert.Empty(t, f.store.commits)
}

func TestDoubleClickCyclesAndCommitsOnReturn(t *testing.T) {
	f := newFixture(color.HSV{H: 10, S: 50, V: 50})

	f.OnGesture(gesture.DoubleClick)
	assert.Equal(t, Hue, f.Mode())
	f.OnGesture(gesture.DoubleClick)
	assert.Equal(t, Saturation, f.Mode())
	f.OnGesture(gesture.DoubleClick)
	assert.Equal(t, Value, f.Mode())
	assert.Empty(t, f.store.commits, "no commit while editing")

	f.OnGesture(gesture.DoubleClick)
	assert.Equal(t, None, f.Mode())
	require.Len(t, f.store.commits, 1)
	assert.Equal(t, color.HSV{H: 10, S: 50, V: 50}, f.store.commits[0].Active)

	var modes []string
	for _, e := range f.pub.events {
		if m, ok := e.(events.ModeChanged); ok {
			modes = append(modes, m.Mode)
		}
	}
	assert.Equal(t, []string{"hue", "saturation", "value", "none"}, modes)
}

func TestIndicatorPatterns(t *testing.T) {
	f := newFixture(color.HSV{})
	level := DefaultConfig().IndicatorLevel

	f.enter(Hue)
	assert.Equal(t, level, f.out.indicator)
	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, uint16(0), f.out.indicator, "slow blink toggles after 500ms")
	f.clock.Advance(499 * time.Millisecond)
	assert.Equal(t, uint16(0), f.out.indicator)
	f.clock.Advance(time.Millisecond)
	assert.Equal(t, level, f.out.indicator)

	f.enter(Saturation)
	assert.Equal(t, level, f.out.indicator)
	f.clock.Advance(150 * time.Millisecond)
	assert.Equal(t, uint16(0), f.out.indicator, "fast blink toggles after 150ms")
	f.clock.Advance(150 * time.Millisecond)
	assert.Equal(t, level, f.out.indicator)

	f.enter(Value)
	for range 10 {
		f.clock.Advance(100 * time.Millisecond)
		assert.Equal(t, level, f.out.indicator, "steady on")
	}

	f.enter(None)
	f.clock.Advance(time.Second)
	assert.Equal(t, uint16(0), f.out.indicator)
}

func TestPressInNoneDoesNotRamp(t *testing.T) {
	f := newFixture(color.HSV{H: 100, S: 50, V: 50})
	f.OnGesture(gesture.Pressed)
	assert.True(t, f.Holding())
	calls := f.out.colorCalls
	f.clock.Advance(time.Second)
	assert.Equal(t, calls, f.out.colorCalls)
	assert.Equal(t, color.HSV{H: 100, S: 50, V: 50}, f.Active())
	f.OnGesture(gesture.Released)
	assert.False(t, f.Holding())
}

func TestHueRampWraps(t *testing.T) {
	f := newFixture(color.HSV{H: 357, S: 100, V: 100})
	f.enter(Hue)

	f.hold(5)
	assert.Equal(t, uint16(2), f.Active().H, "357+5 wraps past 359")
	assert.Equal(t, f.Active().RGB(), f.out.rgb)

	// released, no further steps
	f.clock.Advance(time.Second)
	assert.Equal(t, uint16(2), f.Active().H)
}

func TestHueFrom360(t *testing.T) {
	f := newFixture(color.HSV{H: 360, S: 100, V: 100})
	f.enter(Hue)
	f.hold(1)
	assert.Equal(t, uint16(1), f.Active().H)
}

func TestSaturationPendulumFlipsAtBounds(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 3, V: 100})
	f.enter(Saturation)

	var seen []uint8
	f.OnGesture(gesture.Pressed)
	for range 6 {
		f.clock.Advance(DefaultConfig().RampInterval)
		seen = append(seen, f.Active().S)
	}
	f.OnGesture(gesture.Released)
	assert.Equal(t, []uint8{2, 1, 0, 1, 2, 3}, seen, "turns exactly at 0")
}

func TestValuePendulumFlipsAtTop(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 100, V: 98})
	f.enter(Value)
	f.valDir = 1

	var seen []uint8
	f.OnGesture(gesture.Pressed)
	for range 4 {
		f.clock.Advance(DefaultConfig().RampInterval)
		seen = append(seen, f.Active().V)
	}
	f.OnGesture(gesture.Released)
	assert.Equal(t, []uint8{99, 100, 99, 98}, seen)
}

func TestPendulumStaysInRange(t *testing.T) {
	for _, m := range []Mode{Saturation, Value} {
		f := newFixture(color.HSV{H: 0, S: 50, V: 50})
		f.enter(m)
		f.OnGesture(gesture.Pressed)
		for range 1000 {
			f.clock.Advance(DefaultConfig().RampInterval)
			c := f.Active()
			assert.LessOrEqual(t, c.S, uint8(100))
			assert.LessOrEqual(t, c.V, uint8(100))
		}
	}
}

func TestDirectionSurvivesRelease(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 1, V: 100})
	f.enter(Saturation)

	f.hold(2) // 1 -> 0, turn, -> 1
	assert.Equal(t, uint8(1), f.Active().S)
	assert.Equal(t, 1, f.satDir)

	f.hold(2)
	assert.Equal(t, uint8(3), f.Active().S, "second hold keeps going up")

	// leaving and re-entering the mode keeps the direction, too
	f.enter(None)
	f.enter(Saturation)
	f.hold(1)
	assert.Equal(t, uint8(4), f.Active().S)
}

func TestInitialDirectionIsDown(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 50, V: 50})
	f.enter(Saturation)
	f.hold(1)
	assert.Equal(t, uint8(49), f.Active().S)
	f.enter(Value)
	f.hold(1)
	assert.Equal(t, uint8(49), f.Active().V)
}

func TestRampStopsWhenModeReturnsToNone(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 100, V: 50})
	f.enter(Value)
	f.OnGesture(gesture.Pressed)
	f.clock.Advance(DefaultConfig().RampInterval)
	f.OnGesture(gesture.DoubleClick)
	assert.Equal(t, None, f.Mode())

	v := f.Active().V
	f.clock.Advance(time.Second)
	assert.Equal(t, v, f.Active().V)
}

func TestCommitCarriesRampedColor(t *testing.T) {
	f := newFixture(color.HSV{H: 0, S: 100, V: 100})
	f.enter(Hue)
	f.hold(20)
	f.enter(None)
	require.Len(t, f.store.commits, 1)
	assert.Equal(t, uint16(20), f.store.commits[0].Active.H)
}

func TestSetHSVClampsAndCommits(t *testing.T) {
	f := newFixture(color.HSV{})
	f.enter(Saturation)

	require.NoError(t, f.SetHSV(400, 150, -3))
	assert.Equal(t, None, f.Mode())
	assert.Equal(t, color.HSV{H: 360, S: 100, V: 0}, f.Active())
	assert.Equal(t, color.RGB{}, f.out.rgb)
	assert.Equal(t, uint16(0), f.out.indicator)
	require.NotEmpty(t, f.store.commits)
	assert.Equal(t, f.Active(), f.store.commits[len(f.store.commits)-1].Active)
}

func TestSetHSVFromNone(t *testing.T) {
	f := newFixture(color.HSV{})
	require.NoError(t, f.SetHSV(180, 50, 50))
	require.Len(t, f.store.commits, 1)
	assert.Equal(t, color.RGB{R: 250, G: 500, B: 500}, f.out.rgb)
}

func TestSetRGB(t *testing.T) {
	f := newFixture(color.HSV{})
	require.NoError(t, f.SetRGB(0, 2000, 0))
	assert.Equal(t, color.HSV{H: 120, S: 100, V: 100}, f.Active())
	assert.Equal(t, color.RGB{G: 1000}, f.ActiveRGB())
	assert.Equal(t, color.RGB{G: 1000}, f.out.rgb)
}

func TestCommitFailureIsReturned(t *testing.T) {
	f := newFixture(color.HSV{})
	f.store.fail = errors.New("stall")
	err := f.SetHSV(1, 2, 3)
	assert.ErrorContains(t, err, "stall")
	assert.Equal(t, color.HSV{H: 1, S: 2, V: 3}, f.Active(), "memory state is kept")
}

func TestColorChangedPublished(t *testing.T) {
	f := newFixture(color.HSV{})
	require.NoError(t, f.SetHSV(0, 100, 100))
	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, events.ColorChanged{HSV: color.HSV{H: 0, S: 100, V: 100}, RGB: color.RGB{R: 1000}}, last)
}

func TestStaleTickIsIgnored(t *testing.T) {
	f := newFixture(color.HSV{H: 5, S: 100, V: 100})
	f.enter(Hue)
	f.OnGesture(gesture.Pressed)
	f.holding = false // as if the release raced with a queued fire
	f.clock.Advance(DefaultConfig().RampInterval)
	assert.Equal(t, uint16(5), f.Active().H)
}

func TestClose(t *testing.T) {
	f := newFixture(color.HSV{})
	f.enter(Hue)
	f.Close()
	f.clock.Advance(time.Second)
	assert.Equal(t, uint16(0), f.out.indicator)
}
