//go:build !tinygo

package logx

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

type zlog struct{ z zerolog.Logger }

// New returns a zerolog-backed logger. json selects structured output;
// otherwise a console writer is used.
func New(w io.Writer, level Level, json bool) Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	z := zerolog.New(w).With().Timestamp().Logger().Level(zlevel(level))
	return zlog{z: z}
}

// FromZerolog adapts an existing zerolog logger.
func FromZerolog(z zerolog.Logger) Logger { return zlog{z: z} }

func zlevel(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

func emit(e *zerolog.Event, msg string, kv []any) {
	if len(kv) > 0 {
		e = e.Fields(kv)
	}
	e.Msg(msg)
}

func (l zlog) Debug(msg string, kv ...any) { emit(l.z.Debug(), msg, kv) }
func (l zlog) Info(msg string, kv ...any)  { emit(l.z.Info(), msg, kv) }
func (l zlog) Warn(msg string, kv ...any)  { emit(l.z.Warn(), msg, kv) }
func (l zlog) Error(msg string, err error, kv ...any) {
	emit(l.z.Error().Err(err), msg, kv)
}

func (l zlog) With(kv ...any) Logger {
	return zlog{z: l.z.With().Fields(kv).Logger()}
}
