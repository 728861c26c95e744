package swpwm

import (
	"hsvled-go/hsv"
	"hsvled-go/x/mathx"
	"hsvled-go/x/sortx"
)

// Line identifies one of the three physical outputs.
type Line uint8

const (
	LineR Line = iota
	LineG
	LineB

	NumLines = 3

	// NoLine marks the end-of-frame pulse that drives nothing.
	NoLine Line = 0xFF
)

func (l Line) String() string {
	switch l {
	case LineR:
		return "r"
	case LineG:
		return "g"
	case LineB:
		return "b"
	case NoLine:
		return "none"
	}
	return "invalid"
}

// Pulse is the point in the frame, in duty steps, where Line turns off.
type Pulse struct {
	Line  Line
	Steps uint8
}

// Frame is one PWM period: three channel pulses sorted by Steps followed by
// the end-of-frame pulse, plus a read cursor.
type Frame struct {
	pulses [4]Pulse
	next   int
}

// NewFrame builds the schedule for rgb. Each channel is on for
// round(c*DutySteps) steps, capped to [0, DutySteps].
func NewFrame(rgb hsv.RGB) Frame {
	f := Frame{pulses: [4]Pulse{
		{Line: LineR, Steps: mathx.UnitSteps(rgb.R, DutySteps)},
		{Line: LineG, Steps: mathx.UnitSteps(rgb.G, DutySteps)},
		{Line: LineB, Steps: mathx.UnitSteps(rgb.B, DutySteps)},
		{Line: NoLine, Steps: DutySteps},
	}}
	sortx.Sort3ByKey(f.pulses[:3], func(p Pulse) uint8 { return p.Steps })
	return f
}

// Pulses returns the full schedule regardless of the cursor.
func (f *Frame) Pulses() [4]Pulse { return f.pulses }

// Remaining reports how many pulses are left to dequeue.
func (f *Frame) Remaining() int { return len(f.pulses) - f.next }

func (f *Frame) pop() (Pulse, bool) {
	if f.next >= len(f.pulses) {
		return Pulse{}, false
	}
	p := f.pulses[f.next]
	f.next++
	return p, true
}

// exhausted is the zero schedule: nothing left to run.
func exhausted() Frame { return Frame{next: 4} }
