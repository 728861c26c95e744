// Package sim is an in-memory board for the host simulator and tests.
package sim

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"hsvled-go/hal"
	"hsvled-go/hsv"
	"hsvled-go/swpwm"
)

// -----------------------------------------------------------------------------
// Output lines
// -----------------------------------------------------------------------------

// Lines records levels and integrates high time per line on a clock.
type Lines struct {
	clk clock.Clock

	mu     sync.Mutex
	level  [swpwm.NumLines]bool
	since  [swpwm.NumLines]time.Time
	high   [swpwm.NumLines]time.Duration
	edges  [swpwm.NumLines]uint32
	window time.Time
}

func NewLines(clk clock.Clock) *Lines {
	l := &Lines{clk: clk}
	l.Reset()
	return l
}

func (l *Lines) Set(line swpwm.Line, high bool) {
	if line >= swpwm.NumLines {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level[line] == high {
		return
	}
	now := l.clk.Now()
	if l.level[line] {
		l.high[line] += now.Sub(l.since[line])
	}
	l.level[line] = high
	l.since[line] = now
	l.edges[line]++
}

// Level reports the current output of line.
func (l *Lines) Level(line swpwm.Line) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level[line]
}

// Duty returns the fraction of time each line was high since Reset.
func (l *Lines) Duty() [swpwm.NumLines]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out [swpwm.NumLines]float64
	now := l.clk.Now()
	total := now.Sub(l.window)
	if total <= 0 {
		return out
	}
	for i := range out {
		h := l.high[i]
		if l.level[i] {
			h += now.Sub(l.since[i])
		}
		out[i] = float64(h) / float64(total)
	}
	return out
}

// Edges counts level changes per line since Reset.
func (l *Lines) Edges() [swpwm.NumLines]uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.edges
}

// Reset starts a new measurement window.
func (l *Lines) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clk.Now()
	l.window = now
	for i := range l.since {
		l.since[i] = now
		l.high[i] = 0
		l.edges[i] = 0
	}
}

// -----------------------------------------------------------------------------
// Matrix
// -----------------------------------------------------------------------------

type Matrix struct {
	mu    sync.Mutex
	last  hsv.Pattern
	shows int
}

func (m *Matrix) Show(p hsv.Pattern) {
	m.mu.Lock()
	m.last = p
	m.shows++
	m.mu.Unlock()
}

func (m *Matrix) Last() (hsv.Pattern, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.shows
}

// Render draws the last pattern as five rows of '#' and '.'.
func (m *Matrix) Render() string {
	p, _ := m.Last()
	var b strings.Builder
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if p.Lit(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Potentiometer
// -----------------------------------------------------------------------------

// ErrNoSample is returned by ADC reads injected with Fail.
var ErrNoSample = errors.New("sim: conversion not ready")

// ADC is a settable 16-bit converter. Wrap it in hal.Pot.
type ADC struct {
	mu    sync.Mutex
	raw   uint16
	fails int
}

// SetUnit positions the wiper at v in [0,1].
func (a *ADC) SetUnit(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	a.mu.Lock()
	a.raw = uint16(v*65535 + 0.5)
	a.mu.Unlock()
}

// Fail makes the next n reads return ErrNoSample.
func (a *ADC) Fail(n int) {
	a.mu.Lock()
	a.fails = n
	a.mu.Unlock()
}

func (a *ADC) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fails > 0 {
		a.fails--
		return 0, ErrNoSample
	}
	return a.raw, nil
}

// -----------------------------------------------------------------------------
// Buttons
// -----------------------------------------------------------------------------

type Buttons struct {
	mu   sync.Mutex
	a, b func()
}

func (s *Buttons) OnPress(a, b func()) error {
	s.mu.Lock()
	s.a, s.b = a, b
	s.mu.Unlock()
	return nil
}

// PressA fires n edges on button A, as a bouncing contact would.
func (s *Buttons) PressA(n int) {
	s.mu.Lock()
	cb := s.a
	s.mu.Unlock()
	fire(cb, n)
}

// PressB fires n edges on button B.
func (s *Buttons) PressB(n int) {
	s.mu.Lock()
	cb := s.b
	s.mu.Unlock()
	fire(cb, n)
}

func fire(cb func(), n int) {
	if cb == nil {
		return
	}
	for i := 0; i < n; i++ {
		cb()
	}
}

// -----------------------------------------------------------------------------
// Board
// -----------------------------------------------------------------------------

// Board is a complete simulated board sharing one clock.
type Board struct {
	Lines   *Lines
	Matrix  *Matrix
	ADC     *ADC
	Buttons *Buttons
	Clock   clock.Clock
}

func NewBoard(clk clock.Clock) *Board {
	return &Board{
		Lines:   NewLines(clk),
		Matrix:  &Matrix{},
		ADC:     &ADC{},
		Buttons: &Buttons{},
		Clock:   clk,
	}
}

// HAL exposes the simulated parts as a hal.Board.
func (b *Board) HAL() hal.Board {
	return hal.Board{
		Lines:   b.Lines,
		Matrix:  b.Matrix,
		Pot:     hal.Pot{ADC: b.ADC},
		Buttons: b.Buttons,
		Clock:   b.Clock,
	}
}
