package debounce

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"hsvled-go/hal"
)

func TestDebounceWithinWindow(t *testing.T) {
	clk := clock.NewMock()
	cd := hal.NewClockCountdown(clk)

	var n int
	inc := func() { n++ }

	if !Debounce(cd, inc) {
		t.Fatal("first edge suppressed")
	}
	clk.Add(Interval / 2)
	if Debounce(cd, inc) {
		t.Fatal("second edge inside window ran")
	}
	if n != 1 {
		t.Fatalf("action ran %d times, want 1", n)
	}
}

func TestDebounceBeyondWindow(t *testing.T) {
	clk := clock.NewMock()
	cd := hal.NewClockCountdown(clk)

	var n int
	inc := func() { n++ }

	Debounce(cd, inc)
	clk.Add(Interval + time.Millisecond)
	if cd.Read() != 0 {
		t.Fatalf("countdown reads %v after window", cd.Read())
	}
	Debounce(cd, inc)
	if n != 2 {
		t.Fatalf("action ran %d times, want 2", n)
	}
}

func TestRejectedEdgeDoesNotExtendWindow(t *testing.T) {
	clk := clock.NewMock()
	cd := hal.NewClockCountdown(clk)

	var n int
	inc := func() { n++ }

	Debounce(cd, inc)
	clk.Add(90 * time.Millisecond)
	Debounce(cd, inc) // suppressed, must not rearm
	clk.Add(11 * time.Millisecond)
	Debounce(cd, inc)
	if n != 2 {
		t.Fatalf("action ran %d times, want 2", n)
	}
}

func TestSourcesAreIndependent(t *testing.T) {
	clk := clock.NewMock()
	a := NewSource(hal.NewClockCountdown(clk), 0)
	b := NewSource(hal.NewClockCountdown(clk), 0)

	var na, nb int
	if !a.Do(func() { na++ }) {
		t.Fatal("a suppressed")
	}
	if !b.Do(func() { nb++ }) {
		t.Fatal("b masked by a's window")
	}
	clk.Add(10 * time.Millisecond)
	a.Do(func() { na++ })
	b.Do(func() { nb++ })
	if na != 1 || nb != 1 {
		t.Fatalf("na=%d nb=%d, want 1/1", na, nb)
	}
}

func TestSourceCustomWindow(t *testing.T) {
	clk := clock.NewMock()
	s := NewSource(hal.NewClockCountdown(clk), 20*time.Millisecond)
	var n int
	s.Do(func() { n++ })
	clk.Add(25 * time.Millisecond)
	s.Do(func() { n++ })
	if n != 2 {
		t.Fatalf("action ran %d times, want 2", n)
	}
}
