//go:build tinygo && microbit

// Package microbit binds the lamp to a BBC micro:bit v2: an RGB LED on
// P13/P14/P15, buttons A and B, a potentiometer wiper on P2 and the
// built-in 5x5 matrix.
package microbit

import (
	"image/color"
	"machine"
	"time"

	"github.com/benbjohnson/clock"
	"tinygo.org/x/drivers/microbitmatrix"

	"hsvled-go/errcode"
	"hsvled-go/hal"
	"hsvled-go/hsv"
	"hsvled-go/swpwm"
)

type Options struct {
	InvertPot bool
	// Hold is how long one Show keeps scanning the matrix. Zero means 100 ms.
	Hold time.Duration
}

// NewBoard configures the peripherals. Failures here are fatal at boot.
func NewBoard(opts Options) (hal.Board, error) {
	lines := newLines(machine.P13, machine.P14, machine.P15)

	machine.InitADC()
	adc := machine.ADC{Pin: machine.P2}
	adc.Configure(machine.ADCConfig{})

	b := hal.Board{
		Lines:    lines,
		Matrix:   newMatrix(opts.Hold),
		Pot:      hal.Pot{ADC: adcReader{adc}, Invert: opts.InvertPot},
		Buttons:  &buttons{a: machine.BUTTONA, b: machine.BUTTONB},
		Clock:    clock.New(),
		NewAlarm: newTimerAlarm,
	}
	return b, b.Validate()
}

// ---- RGB lines ----

type lines struct {
	pins [swpwm.NumLines]machine.Pin
}

func newLines(r, g, b machine.Pin) *lines {
	l := &lines{pins: [swpwm.NumLines]machine.Pin{r, g, b}}
	for _, p := range l.pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	return l
}

func (l *lines) Set(line swpwm.Line, high bool) {
	if line >= swpwm.NumLines {
		return
	}
	l.pins[line].Set(high)
}

// ---- Potentiometer ----

type adcReader struct{ a machine.ADC }

func (r adcReader) Read() (uint16, error) { return r.a.Get(), nil }

// ---- Buttons ----

type buttons struct {
	a, b machine.Pin
}

// OnPress arms falling-edge interrupts; the buttons pull low when pressed.
func (s *buttons) OnPress(a, b func()) error {
	s.a.Configure(machine.PinConfig{Mode: machine.PinInput})
	s.b.Configure(machine.PinConfig{Mode: machine.PinInput})
	if err := s.a.SetInterrupt(machine.PinFalling, func(machine.Pin) { a() }); err != nil {
		return errcode.Wrap(errcode.UnknownPin, "buttons.a", err)
	}
	if err := s.b.SetInterrupt(machine.PinFalling, func(machine.Pin) { b() }); err != nil {
		return errcode.Wrap(errcode.UnknownPin, "buttons.b", err)
	}
	return nil
}

// ---- Matrix ----

type matrix struct {
	d    microbitmatrix.Device
	hold time.Duration
}

var (
	pixelOn  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	pixelOff = color.RGBA{}
)

func newMatrix(hold time.Duration) *matrix {
	if hold <= 0 {
		hold = 100 * time.Millisecond
	}
	d := microbitmatrix.New()
	d.Configure(microbitmatrix.Config{})
	d.ClearDisplay()
	return &matrix{d: d, hold: hold}
}

// Show loads p and scans it for the hold time. The matrix is multiplexed,
// so the pattern is only visible while this runs.
func (m *matrix) Show(p hsv.Pattern) {
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			c := pixelOff
			if p.Lit(x, y) {
				c = pixelOn
			}
			m.d.SetPixel(int16(x), int16(y), c)
		}
	}
	start := time.Now()
	for time.Since(start) < m.hold {
		if err := m.d.Display(); err != nil {
			return
		}
	}
}
