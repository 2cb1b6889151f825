package engine

import "fmt"

// Mode is the channel currently edited with the button.
type Mode int

const (
	None Mode = iota
	Hue
	Saturation
	Value
	modeCount
)

// Modes lists every mode in cycle order.
var Modes = []Mode{None, Hue, Saturation, Value}

// Next returns the following mode of the cycle None, Hue, Saturation, Value.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Hue:
		return "hue"
	case Saturation:
		return "saturation"
	case Value:
		return "value"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
