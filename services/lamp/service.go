// Package lamp is the main loop of the HSV lamp. It owns the color, the
// PWM scheduler and the button debounce state, and wires them to the board.
//
// Interrupt-side work (alarm expiry, button edges) only posts to an irq
// dispatcher. The dispatcher worker runs the handlers, each of which takes
// at most one guarded cell at a time, except the button handlers which nest
// the color cell inside their debounce cell. Nothing takes them the other
// way round.
package lamp

import (
	"context"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"hsvled-go/bus"
	"hsvled-go/debounce"
	"hsvled-go/hal"
	"hsvled-go/hsv"
	"hsvled-go/internal/irq"
	"hsvled-go/services/config"
	"hsvled-go/swpwm"
	"hsvled-go/types"
	"hsvled-go/x/lockcell"
	"hsvled-go/x/logx"
	"hsvled-go/x/mathx"
	"hsvled-go/x/timex"
)

const serviceName = "lamp"

// Interrupt sources, in service order.
const (
	srcTick irq.Source = iota
	srcButtonA
	srcButtonB
)

var (
	topicState   = bus.T(types.TopicLamp, types.TopicState)
	topicHSV     = bus.T(types.TopicColor, types.TopicHSV)
	topicChannel = bus.T(types.TopicColor, types.TopicChannel)
	topicStats   = bus.T(types.TopicPWM, types.TopicStats)
	topicConfig  = bus.T(types.TopicConfig, serviceName)
)

type Service struct {
	Name string

	cfg   config.LampConfig
	board hal.Board
	log   logx.Logger
	conn  *bus.Connection

	color lockcell.Cell[hsv.Color]
	pwm   lockcell.Cell[swpwm.Scheduler]
	btnA  *debounce.Source
	btnB  *debounce.Source

	irq    *irq.Dispatcher
	alarm  swpwm.Alarm
	refill chan struct{}
	done   chan struct{}

	skipped uint32
}

// New wires the service to board. Nothing runs until Start.
func New(cfg config.LampConfig, board hal.Board, log logx.Logger) (*Service, error) {
	if err := board.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logx.Nop()
	}
	clk := board.Clk()
	s := &Service{
		Name:   serviceName,
		cfg:    cfg,
		board:  board,
		log:    log.With("svc", serviceName),
		btnA:   debounce.NewSource(hal.NewClockCountdown(clk), cfg.Debounce.D()),
		btnB:   debounce.NewSource(hal.NewClockCountdown(clk), cfg.Debounce.D()),
		irq:    irq.New(),
		refill: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.alarm = s.board.Alarm(func() { s.irq.Post(srcTick) })
	s.color.Init(hsv.Color{})
	s.pwm.Init(*swpwm.New(board.Lines, s.alarm))

	s.irq.Handle(srcTick, s.onTick)
	s.irq.Handle(srcButtonA, func() { s.rotate(s.btnA, hsv.Prev) })
	s.irq.Handle(srcButtonB, func() { s.rotate(s.btnB, hsv.Next) })

	err := board.Buttons.OnPress(
		func() { s.irq.Post(srcButtonA) },
		func() { s.irq.Post(srcButtonB) },
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Handlers (dispatcher worker)
// -----------------------------------------------------------------------------

func (s *Service) onTick() {
	var swapped bool
	s.pwm.WithLock(func(p *swpwm.Scheduler) {
		n := p.Stats().Frames
		p.Step()
		swapped = p.Stats().Frames != n
	})
	if swapped {
		// The pending slot just emptied.
		select {
		case s.refill <- struct{}{}:
		default:
		}
	}
}

func (s *Service) rotate(src *debounce.Source, dir hsv.Direction) {
	var ch hsv.Channel
	ok := src.Do(func() {
		s.color.WithLock(func(c *hsv.Color) {
			c.Rotate(dir)
			ch = c.Active()
		})
	})
	if !ok {
		s.log.Debug("bounce suppressed", "dir", int(dir))
		return
	}
	s.log.Info("channel", "active", ch.String())
	s.publishChannel(ch)
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

// sampleOnce reads the potentiometer into the active channel. A failed read
// leaves the color as it was.
func (s *Service) sampleOnce() {
	v, err := s.board.Pot.Sample()
	if err != nil {
		atomic.AddUint32(&s.skipped, 1)
		s.log.Debug("sample skipped", "err", err.Error())
		return
	}
	var (
		changed bool
		c       hsv.Color
	)
	s.color.WithLock(func(col *hsv.Color) {
		if !s.moved(col.Get(), v) {
			return
		}
		col.SetActive(v)
		changed = true
		c = *col
	})
	if changed {
		s.publishColor(c)
	}
	s.submit()
}

// moved reports whether v differs enough from cur to apply. The ends of
// the range always apply so full and zero stay reachable.
func (s *Service) moved(cur, v float64) bool {
	if v == cur {
		return false
	}
	if v == 0 || v == 1 || s.cfg.Deadband <= 0 {
		return true
	}
	return mathx.AbsDiff(cur, v) >= s.cfg.Deadband
}

// submit queues a frame of the current color if the scheduler has no
// pending one. The frame is built outside the scheduler's lock.
func (s *Service) submit() bool {
	c, _ := s.color.Load()
	f := swpwm.NewFrame(c.ToRGB())
	var queued bool
	s.pwm.WithLock(func(p *swpwm.Scheduler) {
		if p.IsScheduled() {
			return
		}
		p.SubmitFrame(f)
		queued = true
	})
	return queued
}

func (s *Service) serviceLoop(ctx context.Context) {
	clk := s.board.Clk()
	sample := clk.Ticker(s.cfg.SamplePeriod.D())
	defer sample.Stop()
	stats := clk.Ticker(s.cfg.StatsPeriod.D())
	defer stats.Stop()

	var cfgCh <-chan *bus.Message
	if s.conn != nil {
		sub := s.conn.Subscribe(topicConfig)
		defer s.conn.Unsubscribe(sub)
		cfgCh = sub.Channel()
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.refill:
			s.submit()
		case <-sample.C:
			s.sampleOnce()
		case <-stats.C:
			s.publish(topicStats, s.Stats(), false)
		case msg, ok := <-cfgCh:
			if !ok {
				cfgCh = nil
				continue
			}
			if c, ok := msg.Payload.(config.LampConfig); ok {
				s.retune(c, sample, stats)
			}
		}
	}
}

// retune applies a new deadband and loop periods. Debounce and indicator
// settings take effect on the next start.
func (s *Service) retune(c config.LampConfig, sample, stats *clock.Ticker) {
	if c.Deadband >= 0 && c.Deadband < 0.5 {
		s.cfg.Deadband = c.Deadband
	}
	if d := c.SamplePeriod; d > 0 && d != s.cfg.SamplePeriod {
		s.cfg.SamplePeriod = d
		sample.Reset(d.D())
	}
	if d := c.StatsPeriod; d > 0 && d != s.cfg.StatsPeriod {
		s.cfg.StatsPeriod = d
		stats.Reset(d.D())
	}
	s.log.Info("retuned", "deadband", s.cfg.Deadband, "sample", s.cfg.SamplePeriod.D().String())
}

// indicatorLoop refreshes the matrix. Show may block, so it never runs
// under a cell lock.
func (s *Service) indicatorLoop(ctx context.Context) {
	t := s.board.Clk().Ticker(s.cfg.IndicatorPeriod.D())
	defer t.Stop()
	for {
		c, _ := s.color.Load()
		s.board.Matrix.Show(c.ToIndicator())
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Service) shutdown() {
	<-s.irq.Stopped()
	if st, ok := s.alarm.(interface{ Stop() }); ok {
		st.Stop()
	}
	for l := swpwm.Line(0); l < swpwm.NumLines; l++ {
		s.board.Lines.Set(l, false)
	}
	s.publishState("stopped", "")
	s.log.Info("stopped")
	close(s.done)
}

// Start runs the first scheduler step and launches the loops. conn may be
// nil, in which case nothing is published.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.conn = conn
	s.publishState("starting", "")
	s.irq.Start(ctx)

	s.submit()
	s.pwm.WithLock(func(p *swpwm.Scheduler) { p.Step() })

	c, _ := s.color.Load()
	s.publishColor(c)
	s.publishChannel(c.Active())

	go s.indicatorLoop(ctx)
	go s.serviceLoop(ctx)

	s.publishState("running", "")
	s.log.Info("started", "debounce", s.cfg.Debounce.D().String(), "sample", s.cfg.SamplePeriod.D().String())
	return nil
}

// Done is closed once the service has stopped and the lines are low.
func (s *Service) Done() <-chan struct{} { return s.done }

// Color returns the color being edited.
func (s *Service) Color() hsv.Color {
	c, _ := s.color.Load()
	return c
}

// Stats merges scheduler, dispatcher and sampling counters.
func (s *Service) Stats() types.PWMStats {
	p, _ := s.pwm.Load()
	st := p.Stats()
	return types.PWMStats{
		Frames:    st.Frames,
		IdleTicks: st.IdleTicks,
		Submits:   st.Submits,
		Coalesced: s.irq.Coalesced(),
		Dropped:   atomic.LoadUint32(&s.skipped),
	}
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

func (s *Service) publish(t bus.Topic, payload any, retained bool) {
	if s.conn == nil {
		return
	}
	s.conn.PublishValue(t, payload, retained)
}

func (s *Service) publishState(level, status string) {
	s.publish(topicState, types.LampState{Level: level, Status: status, TS: timex.NowMs()}, true)
}

func (s *Service) publishColor(c hsv.Color) {
	rgb := c.ToRGB()
	s.publish(topicHSV, types.ColorValue{H: c.H, S: c.S, V: c.V, R: rgb.R, G: rgb.G, B: rgb.B}, true)
}

func (s *Service) publishChannel(ch hsv.Channel) {
	s.publish(topicChannel, types.ChannelValue{Active: ch.String()}, true)
}
