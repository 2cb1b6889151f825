package platform

import (
	"lautenbacher.net/golight/output"
)

// Platform abstracts away the real hardware from the TUI simulation.
type Platform interface {
	// Start initializes the platform (e.g., opens GPIO, or starts the TUI).
	Start() error

	// Stop cleans up all platform resources and switches the light off.
	Stop()

	// SetChannels shows a frame. It never blocks, a frame that was not
	// displayed yet is replaced by the next one.
	SetChannels(f output.Frame)

	// ButtonEdges delivers one value per raw transition of the button,
	// true meaning pressed. Bounces are passed through.
	ButtonEdges() <-chan bool

	// ButtonPressed reads the current button level.
	ButtonPressed() bool
}
