package lamp

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"hsvled-go/bus"
	"hsvled-go/hal/sim"
	"hsvled-go/hsv"
	"hsvled-go/services/config"
	"hsvled-go/swpwm"
	"hsvled-go/types"
	"hsvled-go/x/logx"
)

// fakeAlarm records arm calls; tests drive ticks by calling onTick.
type fakeAlarm struct {
	mu    sync.Mutex
	armed []time.Duration
}

func (a *fakeAlarm) Arm(d time.Duration) {
	a.mu.Lock()
	a.armed = append(a.armed, d)
	a.mu.Unlock()
}

func (a *fakeAlarm) arms() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Duration(nil), a.armed...)
}

type fixture struct {
	s     *Service
	board *sim.Board
	clk   *clock.Mock
	alarm *fakeAlarm
}

func newFixture(t *testing.T, cfg config.LampConfig) *fixture {
	t.Helper()
	mock := clock.NewMock()
	sb := sim.NewBoard(mock)
	hb := sb.HAL()
	fa := &fakeAlarm{}
	hb.NewAlarm = func(func()) swpwm.Alarm { return fa }
	s, err := New(cfg, hb, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{s: s, board: sb, clk: mock, alarm: fa}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

func TestBootScenario(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)

	c := f.s.Color()
	if c.Active() != hsv.Hue || c.H != 0 || c.S != 0 || c.V != 0 {
		t.Fatalf("boot color = %+v active %v", c, c.Active())
	}

	f.board.ADC.SetUnit(0.5)
	f.s.sampleOnce()

	c = f.s.Color()
	if !near(c.H, 0.5) || c.S != 0 || c.V != 0 {
		t.Fatalf("after sample: %+v", c)
	}
	if rgb := c.ToRGB(); rgb != (hsv.RGB{}) {
		t.Fatalf("expected black while value is 0, got %+v", rgb)
	}
	if c.ToIndicator() != hsv.PatternHue {
		t.Fatal("indicator should show hue")
	}
}

func TestButtonsRotateDebounced(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)

	// A bouncing press is one rotation.
	f.board.Buttons.PressB(3)
	f.s.irq.RunPending()
	if got := activeOf(f.s.Color()); got != hsv.Saturation {
		t.Fatalf("after B: %v", got)
	}

	// Inside the window: ignored.
	f.clk.Add(50 * time.Millisecond)
	f.board.Buttons.PressB(1)
	f.s.irq.RunPending()
	if got := activeOf(f.s.Color()); got != hsv.Saturation {
		t.Fatalf("bounce inside window rotated to %v", got)
	}

	// Past the window.
	f.clk.Add(60 * time.Millisecond)
	f.board.Buttons.PressA(1)
	f.s.irq.RunPending()
	if got := activeOf(f.s.Color()); got != hsv.Hue {
		t.Fatalf("after A: %v", got)
	}

	// A's fresh window does not mask B.
	f.board.Buttons.PressB(1)
	f.s.irq.RunPending()
	if got := activeOf(f.s.Color()); got != hsv.Saturation {
		t.Fatalf("B masked by A: %v", got)
	}
}

func TestSampleFailureKeepsColor(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)

	f.board.ADC.SetUnit(0.3)
	f.s.sampleOnce()

	f.board.ADC.Fail(1)
	f.board.ADC.SetUnit(0.9)
	f.s.sampleOnce()

	if c := f.s.Color(); !near(c.H, 0.3) {
		t.Fatalf("failed read changed hue to %v", c.H)
	}
	if d := f.s.Stats().Dropped; d != 1 {
		t.Fatalf("Dropped = %d, want 1", d)
	}

	f.s.sampleOnce()
	if c := f.s.Color(); !near(c.H, 0.9) {
		t.Fatalf("recovered read not applied: %v", c.H)
	}
}

func TestDeadband(t *testing.T) {
	cfg := config.Default().Lamp
	cfg.Deadband = 0.05
	f := newFixture(t, cfg)

	step := func(v, want float64) {
		t.Helper()
		f.board.ADC.SetUnit(v)
		f.s.sampleOnce()
		if h := f.s.Color().H; !near(h, want) {
			t.Fatalf("pot %v: hue %v, want %v", v, h, want)
		}
	}
	step(0.5, 0.5)
	step(0.52, 0.5)
	step(0.6, 0.6)
	step(0.97, 0.97)
	step(1, 1) // ends always apply
	if f.s.Color().H != 1 {
		t.Fatal("full scale not exact")
	}
}

func TestTickRefill(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)

	if !f.s.submit() {
		t.Fatal("first submit refused")
	}
	if f.s.submit() {
		t.Fatal("submit over a pending frame")
	}

	// Black frame: swap, then three zero-length pulses and the sentinel.
	for i := 0; i < 4; i++ {
		f.s.onTick()
	}
	select {
	case <-f.s.refill:
	default:
		t.Fatal("no refill signal after frame swap")
	}
	for l := swpwm.Line(0); l < swpwm.NumLines; l++ {
		if f.board.Lines.Level(l) {
			t.Fatalf("line %v still high after black frame", l)
		}
	}
	want := []time.Duration{0, 0, 0, swpwm.FrameDuration}
	if diff := cmp.Diff(want, f.alarm.arms()); diff != "" {
		t.Fatalf("arms (-want +got):\n%s", diff)
	}
	if !f.s.submit() {
		t.Fatal("refill submit refused")
	}
	if st := f.s.Stats(); st.Frames != 1 || st.Submits != 2 {
		t.Fatalf("stats %+v", st)
	}
}

func TestPublishesColorAndChannel(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)
	conn := bus.NewBus(8).NewConnection("test")
	f.s.conn = conn
	sub := conn.Subscribe(bus.T(types.TopicColor, "#"))

	f.board.ADC.SetUnit(0.25)
	f.s.sampleOnce()
	f.board.Buttons.PressB(1)
	f.s.irq.RunPending()

	var sawHSV, sawChannel bool
	for !(sawHSV && sawChannel) {
		select {
		case m := <-sub.Channel():
			switch p := m.Payload.(type) {
			case types.ColorValue:
				if !near(p.H, 0.25) || !m.Retained {
					t.Fatalf("color/hsv %+v retained=%v", p, m.Retained)
				}
				sawHSV = true
			case types.ChannelValue:
				if p.Active != "saturation" {
					t.Fatalf("color/channel %+v", p)
				}
				sawChannel = true
			}
		case <-time.After(time.Second):
			t.Fatalf("missing messages: hsv=%v channel=%v", sawHSV, sawChannel)
		}
	}
}

func TestNewRejectsIncompleteBoard(t *testing.T) {
	hb := sim.NewBoard(clock.NewMock()).HAL()
	hb.Matrix = nil
	if _, err := New(config.Default().Lamp, hb, nil); err == nil {
		t.Fatal("expected error for missing matrix")
	}
}

func TestStartStop(t *testing.T) {
	cfg := config.Default().Lamp
	cfg.SamplePeriod = config.Duration(time.Millisecond)
	cfg.IndicatorPeriod = config.Duration(5 * time.Millisecond)
	cfg.StatsPeriod = config.Duration(10 * time.Millisecond)

	sb := sim.NewBoard(clock.New())
	s, err := New(cfg, sb.HAL(), logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	conn := bus.NewBus(8).NewConnection("test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, shows := sb.Matrix.Last()
		if shows >= 2 && s.Stats().Frames >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("lamp not running: shows=%d stats=%+v", shows, s.Stats())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
	for l := swpwm.Line(0); l < swpwm.NumLines; l++ {
		if sb.Lines.Level(l) {
			t.Fatalf("line %v left high", l)
		}
	}

	sub := conn.Subscribe(bus.T(types.TopicLamp, types.TopicState))
	select {
	case m := <-sub.Channel():
		if st := m.Payload.(types.LampState); st.Level != "stopped" {
			t.Fatalf("state %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained lamp/state")
	}
}

func TestRetune(t *testing.T) {
	f := newFixture(t, config.Default().Lamp)
	sample := f.clk.Ticker(time.Second)
	defer sample.Stop()
	stats := f.clk.Ticker(time.Second)
	defer stats.Stop()

	c := config.Default().Lamp
	c.Deadband = 0.2
	c.SamplePeriod = config.Duration(20 * time.Millisecond)
	f.s.retune(c, sample, stats)
	if f.s.cfg.Deadband != 0.2 || f.s.cfg.SamplePeriod.D() != 20*time.Millisecond {
		t.Fatalf("cfg after retune %+v", f.s.cfg)
	}

	f.board.ADC.SetUnit(0.5)
	f.s.sampleOnce()
	f.board.ADC.SetUnit(0.6)
	f.s.sampleOnce()
	if h := f.s.Color().H; !near(h, 0.5) {
		t.Fatalf("move inside new deadband applied: %v", h)
	}

	// Out-of-range deadband is ignored.
	c.Deadband = 0.7
	f.s.retune(c, sample, stats)
	if f.s.cfg.Deadband != 0.2 {
		t.Fatalf("deadband %v", f.s.cfg.Deadband)
	}
}

// activeOf takes an addressable copy so the pointer-receiver Active can be called.
func activeOf(c hsv.Color) hsv.Channel { return c.Active() }
