// Package persist keeps the durable state of the light: the active color and
// the list of saved presets. The whole state is always written as one page.
package persist

import (
	"golang.org/x/exp/slices"

	"lautenbacher.net/golight/color"
)

const (
	// Capacity is the maximum number of presets.
	Capacity = 10
	// NameLen is the maximum preset name length in bytes.
	NameLen = 11
)

type Entry struct {
	Name  string
	Color color.HSV
}

type State struct {
	Active  color.HSV
	Presets []Entry
}

// Clone returns a deep copy so callers can mutate the preset list freely.
func (s State) Clone() State {
	return State{Active: s.Active, Presets: slices.Clone(s.Presets)}
}

// Digits returns the four identifier digits used for the default hue and the
// animation pattern. Non-digit characters count as 0, missing ones as well.
func Digits(id string) [4]int {
	var d [4]int
	for i := range d {
		if i < len(id) && id[i] >= '0' && id[i] <= '9' {
			d[i] = int(id[i] - '0')
		}
	}
	return d
}

// Default is the state of a device that never saved anything. The hue is
// taken from the last two identifier digits as a percentage of the circle.
func Default(id string) State {
	d := Digits(id)
	hue := color.MaxHue * (d[2]*10 + d[3]) / 100
	return State{Active: color.ClampHSV(hue, color.MaxSV, color.MaxSV)}
}
