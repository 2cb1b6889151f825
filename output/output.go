// Package output composes the channel intensities sent to the light.
package output

import (
	"fmt"

	"lautenbacher.net/golight/color"
)

const (
	Indicator = iota
	Red
	Green
	Blue
	Channels
)

// Frame holds one permille intensity per physical channel. Channel 0 is the
// auxiliary mode indicator, 1 to 3 are red, green and blue.
type Frame [Channels]uint16

func (f Frame) String() string {
	return fmt.Sprintf("I:%d R:%d G:%d B:%d", f[Indicator], f[Red], f[Green], f[Blue])
}

type Sink interface {
	SetChannels(Frame)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Frame)

func (f SinkFunc) SetChannels(frame Frame) { f(frame) }

// Mixer keeps two layers: the color layer written by the color engine and
// an overlay written by the animation. While the overlay is held it is shown
// instead of the color layer. Frames reach the sink only when they change.
type Mixer struct {
	sink Sink

	color   Frame
	overlay Frame
	held    bool

	last   Frame
	pushed bool
}

func NewMixer(sink Sink) *Mixer {
	return &Mixer{sink: sink}
}

// SetColor replaces the RGB channels of the color layer.
func (m *Mixer) SetColor(c color.RGB) {
	m.color[Red] = c.R
	m.color[Green] = c.G
	m.color[Blue] = c.B
	m.push()
}

// SetIndicator sets the indicator channel of the color layer.
func (m *Mixer) SetIndicator(level uint16) {
	m.color[Indicator] = min(level, color.MaxLevel)
	m.push()
}

// Overlay shows f instead of the color layer until Release is called.
func (m *Mixer) Overlay(f Frame) {
	for i := range f {
		f[i] = min(f[i], color.MaxLevel)
	}
	m.overlay = f
	m.held = true
	m.push()
}

// Release drops the overlay and shows the color layer again.
func (m *Mixer) Release() {
	if !m.held {
		return
	}
	m.held = false
	m.overlay = Frame{}
	m.push()
}

// Held reports whether the overlay is shown.
func (m *Mixer) Held() bool {
	return m.held
}

// Frame returns the composed frame as last sent to the sink.
func (m *Mixer) Frame() Frame {
	return m.compose()
}

func (m *Mixer) compose() Frame {
	if m.held {
		return m.overlay
	}
	return m.color
}

func (m *Mixer) push() {
	f := m.compose()
	if m.pushed && f == m.last {
		return
	}
	m.last = f
	m.pushed = true
	m.sink.SetChannels(f)
}
