//go:build tinygo

package logx

import "hsvled-go/x/conv"

// New returns a println logger; output goes wherever the runtime sends
// println (USB CDC or RTT on the boards we use).
func New(level Level) Logger { return plog{level: level} }

type plog struct {
	level Level
	ctx   []any
}

func (l plog) Debug(msg string, kv ...any) { l.out(DebugLevel, "Debug:", msg, nil, kv) }
func (l plog) Info(msg string, kv ...any)  { l.out(InfoLevel, "Info:", msg, nil, kv) }
func (l plog) Warn(msg string, kv ...any)  { l.out(WarnLevel, "Warn:", msg, nil, kv) }
func (l plog) Error(msg string, err error, kv ...any) {
	l.out(ErrorLevel, "Error:", msg, err, kv)
}

func (l plog) With(kv ...any) Logger {
	ctx := make([]any, 0, len(l.ctx)+len(kv))
	ctx = append(append(ctx, l.ctx...), kv...)
	return plog{level: l.level, ctx: ctx}
}

func (l plog) out(lv Level, tag, msg string, err error, kv []any) {
	if lv < l.level {
		return
	}
	print(tag, " ", msg)
	if err != nil {
		print(" err=", err.Error())
	}
	printKV(l.ctx)
	printKV(kv)
	println()
}

func printKV(kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		print(" ", k, "=")
		switch v := kv[i+1].(type) {
		case string:
			print(v)
		case int:
			print(v)
		case uint8:
			print(v)
		case uint32:
			print(v)
		case int64:
			print(v)
		case float64:
			// println renders floats in exponent form.
			var buf [32]byte
			print(string(conv.AppendFixed(buf[:0], v, 3)))
		case bool:
			print(v)
		case error:
			print(v.Error())
		case interface{ String() string }:
			print(v.String())
		default:
			print("?")
		}
	}
}
