// Package logx is the logging facade shared by host and MCU builds.
// Key/value pairs follow the message: Info("frame", "steps", 20).
package logx

type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
	// With returns a child logger that adds kv to every line.
	With(kv ...any) Logger
}

type nop struct{}

func (nop) Debug(string, ...any)        {}
func (nop) Info(string, ...any)         {}
func (nop) Warn(string, ...any)         {}
func (nop) Error(string, error, ...any) {}
func (n nop) With(...any) Logger        { return n }

// Nop discards everything.
func Nop() Logger { return nop{} }
