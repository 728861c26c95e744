// Package debounce gates repeat edge events with a countdown timer per
// input source. It never samples the input level.
package debounce

import (
	"time"

	"hsvled-go/x/lockcell"
)

// Interval is the default suppression window after an accepted edge.
const Interval = 100 * time.Millisecond

// Countdown is a one-shot down counter. Read returns zero once it has
// expired or if it was never started.
type Countdown interface {
	Read() time.Duration
	Start(d time.Duration)
}

// Debounce runs action only when c reads zero, then restarts c for
// Interval. It reports whether action ran.
func Debounce(c Countdown, action func()) bool {
	return DebounceFor(c, Interval, action)
}

// DebounceFor is Debounce with an explicit window.
func DebounceFor(c Countdown, window time.Duration, action func()) bool {
	if c.Read() != 0 {
		return false
	}
	action()
	c.Start(window)
	return true
}

// Source is one bounce-prone input with its own guarded countdown, so one
// source's window never masks another's edge.
type Source struct {
	timer  lockcell.Cell[Countdown]
	window time.Duration
}

// NewSource guards c. A zero window means Interval.
func NewSource(c Countdown, window time.Duration) *Source {
	if window <= 0 {
		window = Interval
	}
	s := &Source{window: window}
	s.timer.Init(c)
	return s
}

// Do runs action under the source's lock if the window has passed.
func (s *Source) Do(action func()) bool {
	var ran bool
	s.timer.WithLock(func(c *Countdown) {
		ran = DebounceFor(*c, s.window, action)
	})
	return ran
}
