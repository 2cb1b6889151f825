package events

import "lautenbacher.net/golight/color"

// Event type constants for kelindar/event.
const (
	TypeColorChanged uint32 = iota + 1
	TypeModeChanged
	TypePresetsChanged
	TypeAnimationToggled
	TypeGestureDetected
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ColorChanged is published whenever the active color changes.
type ColorChanged struct {
	HSV color.HSV
	RGB color.RGB
}

func (e ColorChanged) Type() uint32 { return TypeColorChanged }

// ModeChanged is published when the edited channel changes.
type ModeChanged struct {
	Mode string
}

func (e ModeChanged) Type() uint32 { return TypeModeChanged }

type PresetsChanged struct {
	Names []string
}

func (e PresetsChanged) Type() uint32 { return TypePresetsChanged }

type AnimationToggled struct {
	Active bool
}

func (e AnimationToggled) Type() uint32 { return TypeAnimationToggled }

// GestureDetected carries every classified button event.
type GestureDetected struct {
	Gesture string
}

func (e GestureDetected) Type() uint32 { return TypeGestureDetected }
