package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"hsvled-go/bus"
	"hsvled-go/services/config"
	"hsvled-go/types"
	"hsvled-go/x/logx"
)

type entry struct {
	level string
	msg   string
	kv    []any
}

type sink struct {
	mu      sync.Mutex
	entries []entry
}

// recLog is a logx.Logger that records into a shared sink.
type recLog struct {
	s    *sink
	base []any
}

func (l recLog) add(level, msg string, kv []any) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	all := append(append([]any(nil), l.base...), kv...)
	l.s.entries = append(l.s.entries, entry{level, msg, all})
}

func (l recLog) Debug(msg string, kv ...any)          { l.add("debug", msg, kv) }
func (l recLog) Info(msg string, kv ...any)           { l.add("info", msg, kv) }
func (l recLog) Warn(msg string, kv ...any)           { l.add("warn", msg, kv) }
func (l recLog) Error(msg string, _ error, kv ...any) { l.add("error", msg, kv) }
func (l recLog) With(kv ...any) logx.Logger           { return recLog{l.s, append(append([]any(nil), l.base...), kv...)} }

// wait polls until an entry with msg appears whose kv holds key=val.
func (s *sink) wait(t *testing.T, msg string, key string, val any) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		for _, e := range s.entries {
			if e.msg != msg {
				continue
			}
			if key == "" {
				s.mu.Unlock()
				return
			}
			for i := 0; i+1 < len(e.kv); i += 2 {
				if e.kv[i] == key && e.kv[i+1] == val {
					s.mu.Unlock()
					return
				}
			}
		}
		s.mu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("no %q entry with %s=%v", msg, key, val)
}

func start(t *testing.T) (*sink, *clock.Mock, *bus.Connection, context.CancelFunc) {
	t.Helper()
	sk := &sink{}
	mock := clock.NewMock()
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	if err := New(recLog{s: sk}, mock).Start(ctx, b.NewConnection("telemetry")); err != nil {
		t.Fatal(err)
	}
	return sk, mock, b.NewConnection("lamp"), cancel
}

func TestLogsLampTraffic(t *testing.T) {
	sk, _, conn, cancel := start(t)
	defer cancel()

	conn.PublishValue(bus.T(types.TopicColor, types.TopicChannel), types.ChannelValue{Active: "value"}, true)
	conn.PublishValue(bus.T(types.TopicLamp, types.TopicState), types.LampState{Level: "running"}, true)

	sk.wait(t, "editing", "channel", "value")
	sk.wait(t, "lamp", "state", "running")
}

func TestHeartbeatCarriesStats(t *testing.T) {
	sk, mock, conn, cancel := start(t)
	defer cancel()

	conn.PublishValue(bus.T(types.TopicPWM, types.TopicStats), types.PWMStats{Frames: 42, Submits: 43}, false)
	sk.wait(t, "pwm", "frames", uint32(42))

	mock.Add(defaultInterval)
	sk.wait(t, "heartbeat", "frames", uint32(42))
}

func TestHeartbeatIntervalFromConfig(t *testing.T) {
	sk, mock, conn, cancel := start(t)
	defer cancel()

	conn.PublishValue(bus.T(types.TopicConfig, "telemetry"),
		config.TelemetryConfig{Heartbeat: config.Duration(time.Second)}, true)
	sk.wait(t, "heartbeat interval", "every", "1s")

	mock.Add(time.Second)
	sk.wait(t, "heartbeat", "", nil)
}

func (s *sink) count(msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.msg == msg {
			n++
		}
	}
	return n
}

func TestColorLogsAreThrottled(t *testing.T) {
	sk, mock, conn, cancel := start(t)
	defer cancel()

	hsvTopic := bus.T(types.TopicColor, types.TopicHSV)
	chTopic := bus.T(types.TopicColor, types.TopicChannel)

	for i := 0; i < 3; i++ {
		conn.PublishValue(hsvTopic, types.ColorValue{H: float64(i) / 10}, true)
	}
	// Same subscription, so this lands after the three colors.
	conn.PublishValue(chTopic, types.ChannelValue{Active: "value"}, true)
	sk.wait(t, "editing", "channel", "value")
	if n := sk.count("color"); n != 1 {
		t.Fatalf("color logged %d times, want 1", n)
	}

	mock.Add(2 * colorLogEvery)
	conn.PublishValue(hsvTopic, types.ColorValue{H: 0.9}, true)
	conn.PublishValue(chTopic, types.ChannelValue{Active: "hue"}, true)
	sk.wait(t, "editing", "channel", "hue")
	if n := sk.count("color"); n != 2 {
		t.Fatalf("color logged %d times after the window, want 2", n)
	}

	mock.Add(defaultInterval)
	sk.wait(t, "heartbeat", "color_suppressed", uint32(2))
}

func TestSessionTagsLogs(t *testing.T) {
	sk := &sink{}
	svc := New(recLog{s: sk}, clock.NewMock())
	if len(svc.Session()) != 36 {
		t.Fatalf("session %q is not a uuid", svc.Session())
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := svc.Start(ctx, bus.NewBus(4).NewConnection("t")); err != nil {
		t.Fatal(err)
	}
	cancel()
	sk.wait(t, "stopping", "session", svc.Session())
}
