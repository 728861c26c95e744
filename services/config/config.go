package config

import (
	"context"
	"sync"
	"time"

	"hsvled-go/bus"
	"hsvled-go/errcode"
	"hsvled-go/types"
)

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

// Duration is a time.Duration that reads as "100ms" in YAML.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

type Config struct {
	Lamp      LampConfig      `yaml:"lamp"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
	Bus       BusConfig       `yaml:"bus"`
}

// LampConfig tunes the main loop. The PWM frame itself is fixed at 10 ms.
type LampConfig struct {
	Debounce        Duration `yaml:"debounce"`         // per-button suppression window
	SamplePeriod    Duration `yaml:"sample_period"`    // potentiometer poll
	IndicatorPeriod Duration `yaml:"indicator_period"` // matrix refresh cadence
	StatsPeriod     Duration `yaml:"stats_period"`     // pwm/stats publish cadence
	Deadband        float64  `yaml:"deadband"`         // ignore pot moves smaller than this
	InvertPot       bool     `yaml:"invert_pot"`
}

type TelemetryConfig struct {
	Heartbeat Duration `yaml:"heartbeat"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type BusConfig struct {
	QueueLen int `yaml:"queue_len"`
}

// Default is the configuration flashed onto the board.
func Default() Config {
	return Config{
		Lamp: LampConfig{
			Debounce:        Duration(100 * time.Millisecond),
			SamplePeriod:    Duration(10 * time.Millisecond),
			IndicatorPeriod: Duration(100 * time.Millisecond),
			StatsPeriod:     Duration(time.Second),
			Deadband:        0.005,
		},
		Telemetry: TelemetryConfig{Heartbeat: Duration(5 * time.Second)},
		Log:       LogConfig{Level: "info"},
		Bus:       BusConfig{QueueLen: 16},
	}
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	bad := func(msg string) error { return errcode.New(errcode.InvalidConfig, "config", msg) }
	l := c.Lamp
	switch {
	case l.Debounce <= 0:
		return bad("lamp.debounce must be > 0")
	case l.SamplePeriod <= 0:
		return bad("lamp.sample_period must be > 0")
	case l.IndicatorPeriod <= 0:
		return bad("lamp.indicator_period must be > 0")
	case l.StatsPeriod <= 0:
		return bad("lamp.stats_period must be > 0")
	case l.Deadband < 0 || l.Deadband >= 0.5:
		return bad("lamp.deadband must be in [0, 0.5)")
	case c.Telemetry.Heartbeat <= 0:
		return bad("telemetry.heartbeat must be > 0")
	case c.Bus.QueueLen <= 0:
		return bad("bus.queue_len must be > 0")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

const serviceName = "config"

// ConfigService publishes each section as a retained config/<section>
// message so services started later still see it.
type ConfigService struct {
	Name string

	mu  sync.Mutex
	cfg Config
}

func NewConfigService(cfg Config) *ConfigService {
	return &ConfigService{Name: serviceName, cfg: cfg}
}

func (s *ConfigService) publishConfig(conn *bus.Connection) {
	conn.PublishValue(bus.T(types.TopicConfig, "lamp"), s.cfg.Lamp, true)
	conn.PublishValue(bus.T(types.TopicConfig, "telemetry"), s.cfg.Telemetry, true)
}

// Start validates and publishes the configuration. Nothing keeps running.
func (s *ConfigService) Start(_ context.Context, conn *bus.Connection) error {
	return s.Apply(conn, s.Config())
}

// Config returns the configuration last applied.
func (s *ConfigService) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Apply replaces the configuration and republishes it. An invalid cfg
// leaves the previous one in place.
func (s *ConfigService) Apply(conn *bus.Connection, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.publishConfig(conn)
	return nil
}
