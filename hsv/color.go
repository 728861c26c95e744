// Package hsv holds the color being edited and its projections onto the
// RGB LED and the 5x5 indicator.
package hsv

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an HSV triple with components in [0,1] plus the channel that
// the potentiometer writes. The zero value is the boot state: hue active,
// black.
type Color struct {
	H, S, V float64
	active  Channel
}

// RGB components are in [0,1].
type RGB struct {
	R, G, B float64
}

// Active returns the channel the potentiometer edits.
func (c *Color) Active() Channel { return c.active }

// Rotate moves the active channel one step in dir.
func (c *Color) Rotate(dir Direction) {
	if dir == Prev {
		c.active = c.active.Prev()
		return
	}
	c.active = c.active.Next()
}

// SetActive overwrites the active component. v must already be in [0,1].
func (c *Color) SetActive(v float64) {
	switch c.active {
	case Hue:
		c.H = v
	case Saturation:
		c.S = v
	default:
		c.V = v
	}
}

// Get returns the active component.
func (c *Color) Get() float64 {
	switch c.active {
	case Hue:
		return c.H
	case Saturation:
		return c.S
	default:
		return c.V
	}
}

// ToRGB converts with the standard HSV formula. Hue 1.0 is the same as 0.
func (c Color) ToRGB() RGB {
	h := math.Mod(c.H, 1) * 360
	rgb := colorful.Hsv(h, c.S, c.V)
	return RGB{R: rgb.R, G: rgb.G, B: rgb.B}
}

// ToIndicator returns the glyph of the active channel.
func (c Color) ToIndicator() Pattern { return PatternFor(c.active) }
