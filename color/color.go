package color

import (
	"fmt"
	"math"
)

const (
	MaxHue = 360
	MaxSV  = 100
	// MaxLevel is the PWM resolution of a light channel (permille).
	MaxLevel = 1000
)

// HSV is a color in the cylindrical model. H is in degrees, S and V in
// percent. Values built through ClampHSV are always in range.
type HSV struct {
	H uint16
	S uint8
	V uint8
}

// RGB holds three channel intensities on the permille scale.
type RGB struct {
	R uint16
	G uint16
	B uint16
}

// ClampHSV builds an HSV from unchecked integers. Negative components
// become 0, everything above the maximum is cut to the maximum.
func ClampHSV(h, s, v int) HSV {
	return HSV{
		H: uint16(clamp(h, MaxHue)),
		S: uint8(clamp(s, MaxSV)),
		V: uint8(clamp(v, MaxSV)),
	}
}

// ClampRGB builds an RGB from unchecked integers, each channel cut into
// [0, MaxLevel].
func ClampRGB(r, g, b int) RGB {
	return RGB{
		R: uint16(clamp(r, MaxLevel)),
		G: uint16(clamp(g, MaxLevel)),
		B: uint16(clamp(b, MaxLevel)),
	}
}

// Scale8 maps an 8 bit channel value (0-255) onto the permille scale.
func Scale8(v int) int {
	return clamp(v, 255) * MaxLevel / 255
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// RGB converts the color to permille channel intensities.
func (c HSV) RGB() RGB {
	h := float64(c.H)
	s := float64(c.S) / MaxSV
	v := float64(c.V) / MaxSV

	chroma := v * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - chroma

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	return RGB{
		R: toLevel(r + m),
		G: toLevel(g + m),
		B: toLevel(b + m),
	}
}

func toLevel(f float64) uint16 {
	return uint16(clamp(int(math.Round(f*MaxLevel)), MaxLevel))
}

// HSV converts permille channel intensities back to HSV.
func (c RGB) HSV() HSV {
	r := float64(c.R) / MaxLevel
	g := float64(c.G) / MaxLevel
	b := float64(c.B) / MaxLevel

	cmax := math.Max(r, math.Max(g, b))
	cmin := math.Min(r, math.Min(g, b))

	var s float64
	if cmax > 0 {
		s = (cmax - cmin) / cmax
	}

	h := int(math.Round(hueDegrees(r, g, b))) % MaxHue
	return ClampHSV(h, int(math.Round(s*MaxSV)), int(math.Round(cmax*MaxSV)))
}

// hueDegrees returns the hue of normalised channels in [0, 360). It is
// 0 for grays.
func hueDegrees(r, g, b float64) float64 {
	cmax := math.Max(r, math.Max(g, b))
	cmin := math.Min(r, math.Min(g, b))
	delta := cmax - cmin
	if delta == 0 {
		return 0
	}

	var sector float64
	switch cmax {
	case r:
		// (g-b)/delta is negative between magenta and red
		sector = math.Mod((g-b)/delta, 6)
		if sector < 0 {
			sector += 6
		}
	case g:
		sector = (b-r)/delta + 2
	default:
		sector = (r-g)/delta + 4
	}
	return 60 * sector
}

func (c HSV) String() string {
	return fmt.Sprintf("H:%d S:%d V:%d", c.H, c.S, c.V)
}

func (c RGB) String() string {
	return fmt.Sprintf("R:%d G:%d B:%d", c.R, c.G, c.B)
}
