// Package swpwm reproduces a 3-channel duty cycle on plain on/off lines
// using one countdown alarm.
//
// Each frame starts with every line high. The alarm then walks the frame's
// pulses in ascending order, turning off the previous line at each expiry,
// so every line carries one contiguous high pulse of its own duty length.
// New colors are double buffered and only swapped in at a frame boundary.
package swpwm

import (
	"time"

	"hsvled-go/hsv"
)

const (
	FrameDuration = 10 * time.Millisecond
	DutySteps     = 100
	StepDuration  = FrameDuration / DutySteps

	// IdleDelay is how long to wait before polling again when nothing is scheduled.
	IdleDelay = 10 * time.Microsecond
)

// Lines drives the three outputs.
type Lines interface {
	Set(l Line, high bool)
}

// Alarm is a one-shot countdown. Its expiry must end up calling Step.
type Alarm interface {
	Arm(d time.Duration)
}

// Stats counts scheduler activity since construction.
type Stats struct {
	Frames    uint32 // pending frames swapped in
	IdleTicks uint32 // steps with nothing to run
	Submits   uint32 // frames handed to Submit
}

// Scheduler is not safe for concurrent use; callers guard it (see lockcell).
type Scheduler struct {
	lines Lines
	alarm Alarm

	active     Frame
	pending    Frame
	hasPending bool
	current    Line
	elapsed    uint8 // steps since frame start

	stats Stats
}

func New(lines Lines, alarm Alarm) *Scheduler {
	return &Scheduler{
		lines:   lines,
		alarm:   alarm,
		active:  exhausted(),
		current: NoLine,
	}
}

// Submit queues rgb to start at the next frame boundary, replacing any
// frame that has not started yet.
func (s *Scheduler) Submit(rgb hsv.RGB) { s.SubmitFrame(NewFrame(rgb)) }

// SubmitFrame is Submit for a frame built outside the critical section.
func (s *Scheduler) SubmitFrame(f Frame) {
	s.pending = f
	s.hasPending = true
	s.stats.Submits++
}

// IsScheduled reports whether a frame is waiting for the next boundary.
func (s *Scheduler) IsScheduled() bool { return s.hasPending }

// Stats returns a copy of the counters.
func (s *Scheduler) Stats() Stats { return s.stats }

// Step advances the schedule by one alarm expiry. Call it once at startup
// and then from every alarm expiry.
func (s *Scheduler) Step() {
	if p, ok := s.active.pop(); ok {
		if s.current != NoLine {
			s.lines.Set(s.current, false)
		}
		// Pulses are sorted, so p.Steps >= elapsed.
		s.alarm.Arm(time.Duration(p.Steps-s.elapsed) * StepDuration)
		s.elapsed = p.Steps
		s.current = p.Line
		return
	}

	if s.hasPending {
		for l := Line(0); l < NumLines; l++ {
			s.lines.Set(l, true)
		}
		s.active = s.pending
		s.pending = Frame{}
		s.hasPending = false
		s.elapsed = 0
		s.stats.Frames++
		// A fresh frame always has pulses, so this recurses once.
		s.Step()
		return
	}

	s.stats.IdleTicks++
	s.alarm.Arm(IdleDelay)
}
