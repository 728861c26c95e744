// Package telemetry logs what the lamp publishes and emits a periodic
// heartbeat with the latest PWM counters.
package telemetry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"hsvled-go/bus"
	"hsvled-go/services/config"
	"hsvled-go/types"
	"hsvled-go/x/logx"
)

var (
	topicConfig = bus.T(types.TopicConfig, "telemetry")
	topicColor  = bus.T(types.TopicColor, "#")
	topicStats  = bus.T(types.TopicPWM, types.TopicStats)
	topicState  = bus.T(types.TopicLamp, types.TopicState)
)

const (
	defaultInterval = 5 * time.Second

	// The pot publishes color/hsv every sample while it moves.
	colorLogEvery = 250 * time.Millisecond
)

type Service struct {
	Name string

	log logx.Logger
	clk clock.Clock

	session    string
	colorLimit *rate.Limiter
	suppressed uint32

	last      types.PWMStats
	haveStats bool
	beats     uint32
	started   time.Time
}

func New(log logx.Logger, clk clock.Clock) *Service {
	if log == nil {
		log = logx.Nop()
	}
	if clk == nil {
		clk = clock.New()
	}
	session := uuid.NewString()
	return &Service{
		Name:       "telemetry",
		log:        log.With("svc", "telemetry", "session", session),
		clk:        clk,
		session:    session,
		colorLimit: rate.NewLimiter(rate.Every(colorLogEvery), 1),
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, ready chan<- struct{}) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	colorSub := conn.Subscribe(topicColor)
	defer conn.Unsubscribe(colorSub)
	statsSub := conn.Subscribe(topicStats)
	defer conn.Unsubscribe(statsSub)
	stateSub := conn.Subscribe(topicState)
	defer conn.Unsubscribe(stateSub)
	close(ready)

	interval := defaultInterval
	tick := s.clk.Ticker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping", "beats", s.beats)
			return
		case <-tick.C:
			s.heartbeat()
		case msg := <-cfgSub.Channel():
			tc, ok := msg.Payload.(config.TelemetryConfig)
			if !ok || tc.Heartbeat.D() <= 0 || tc.Heartbeat.D() == interval {
				continue
			}
			interval = tc.Heartbeat.D()
			tick.Reset(interval)
			s.log.Info("heartbeat interval", "every", interval.String())
		case msg := <-colorSub.Channel():
			s.logColor(msg)
		case msg := <-statsSub.Channel():
			if st, ok := msg.Payload.(types.PWMStats); ok {
				s.last = st
				s.haveStats = true
				s.log.Debug("pwm", "frames", st.Frames, "submits", st.Submits)
			}
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.LampState); ok {
				s.log.Info("lamp", "state", st.Level, "status", st.Status)
			}
		}
	}
}

func (s *Service) logColor(msg *bus.Message) {
	switch p := msg.Payload.(type) {
	case types.ColorValue:
		if !s.colorLimit.AllowN(s.clk.Now(), 1) {
			s.suppressed++
			return
		}
		s.log.Debug("color", "h", p.H, "s", p.S, "v", p.V, "r", p.R, "g", p.G, "b", p.B)
	case types.ChannelValue:
		s.log.Info("editing", "channel", p.Active)
	}
}

func (s *Service) heartbeat() {
	s.beats++
	up := s.clk.Since(s.started).Truncate(time.Second)
	if !s.haveStats {
		s.log.Info("heartbeat", "uptime", up.String(), "color_suppressed", s.suppressed)
		return
	}
	s.log.Info("heartbeat",
		"uptime", up.String(),
		"frames", s.last.Frames,
		"idle", s.last.IdleTicks,
		"submits", s.last.Submits,
		"coalesced", s.last.Coalesced,
		"skipped", s.last.Dropped,
		"color_suppressed", s.suppressed,
	)
}

// Session identifies this run in the logs.
func (s *Service) Session() string { return s.session }

// Start subscribes and launches the loop. Subscriptions are in place when
// Start returns, so retained messages published later are not missed.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.started = s.clk.Now()
	ready := make(chan struct{})
	go s.serviceLoop(ctx, conn, ready)
	<-ready
	return nil
}
