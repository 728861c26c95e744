package hal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ClockCountdown is a one-shot down counter on a clock. It reads zero
// until started and again once the deadline passes.
type ClockCountdown struct {
	clk      clock.Clock
	deadline time.Time
}

func NewClockCountdown(clk clock.Clock) *ClockCountdown {
	return &ClockCountdown{clk: clk}
}

func (c *ClockCountdown) Start(d time.Duration) { c.deadline = c.clk.Now().Add(d) }

func (c *ClockCountdown) Read() time.Duration {
	if c.deadline.IsZero() {
		return 0
	}
	if r := c.deadline.Sub(c.clk.Now()); r > 0 {
		return r
	}
	return 0
}

// ClockAlarm calls fire once per Arm after the armed delay. Re-arming
// cancels an expiry that has not happened yet. fire runs on the clock's
// timer goroutine and must not block.
type ClockAlarm struct {
	clk  clock.Clock
	fire func()

	mu sync.Mutex
	t  *clock.Timer
}

func NewClockAlarm(clk clock.Clock, fire func()) *ClockAlarm {
	return &ClockAlarm{clk: clk, fire: fire}
}

func (a *ClockAlarm) Arm(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
	}
	a.t = a.clk.AfterFunc(d, a.fire)
}

// Stop cancels a pending expiry.
func (a *ClockAlarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
		a.t = nil
	}
}
