// Package hal describes the board the lamp runs on. Everything here is a
// thin boundary; the logic lives in hsv, swpwm and debounce.
package hal

import (
	"github.com/benbjohnson/clock"

	"hsvled-go/errcode"
	"hsvled-go/hsv"
	"hsvled-go/swpwm"
	"hsvled-go/x/mathx"
)

// Sampler yields a potentiometer position normalised to [0,1].
type Sampler interface {
	Sample() (float64, error)
}

// Matrix shows a pattern on the 5x5 display. It may block for a refresh.
type Matrix interface {
	Show(p hsv.Pattern)
}

// Buttons delivers press edges. The callbacks run in interrupt context on
// MCU builds and must only post work.
type Buttons interface {
	OnPress(a, b func()) error
}

// Board bundles the collaborators the lamp service needs.
type Board struct {
	Lines   swpwm.Lines
	Matrix  Matrix
	Pot     Sampler
	Buttons Buttons
	Clock   clock.Clock

	// NewAlarm builds the PWM alarm around its expiry callback.
	// Nil means a ClockAlarm on Clock.
	NewAlarm func(fire func()) swpwm.Alarm
}

// Validate reports the first missing collaborator.
func (b *Board) Validate() error {
	switch {
	case b.Lines == nil:
		return errcode.New(errcode.InvalidParams, "board", "lines missing")
	case b.Matrix == nil:
		return errcode.New(errcode.InvalidParams, "board", "matrix missing")
	case b.Pot == nil:
		return errcode.New(errcode.InvalidParams, "board", "potentiometer missing")
	case b.Buttons == nil:
		return errcode.New(errcode.InvalidParams, "board", "buttons missing")
	}
	return nil
}

// Alarm returns the configured PWM alarm.
func (b *Board) Alarm(fire func()) swpwm.Alarm {
	if b.NewAlarm != nil {
		return b.NewAlarm(fire)
	}
	return NewClockAlarm(b.Clk(), fire)
}

// Clk returns the board clock, defaulting to the wall clock.
func (b *Board) Clk() clock.Clock {
	if b.Clock == nil {
		b.Clock = clock.New()
	}
	return b.Clock
}

// ADC is a raw 16-bit converter.
type ADC interface {
	Read() (uint16, error)
}

// Pot turns raw ADC readings into [0,1] samples.
type Pot struct {
	ADC    ADC
	Invert bool // wiper wired backwards
}

func (p Pot) Sample() (float64, error) {
	raw, err := p.ADC.Read()
	if err != nil {
		return 0, errcode.Wrap(errcode.ReadFailed, "pot.sample", err)
	}
	v := mathx.Clamp(mathx.NormU16(raw), 0, 1)
	if p.Invert {
		v = 1 - v
	}
	return v, nil
}
