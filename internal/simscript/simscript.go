// Package simscript drives the simulated board from a Lua script:
//
//	pot(0.5)          -- move the wiper
//	press("b")        -- one clean edge on button B
//	press("a", 4)     -- a bouncing press, four edges
//	sleep(250)        -- milliseconds
//	local h, s, v, ch = color()
//	log("text")
package simscript

import (
	"context"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"hsvled-go/errcode"
	"hsvled-go/hal/sim"
	"hsvled-go/hsv"
	"hsvled-go/x/logx"
)

// Env is what a script can reach.
type Env struct {
	Board *sim.Board
	// Color reports the lamp's color for color(). Nil makes color() fail.
	Color func() hsv.Color
	Log   logx.Logger
	// Sleep waits d and reports false if ctx ended first. Nil sleeps on
	// the board clock.
	Sleep func(ctx context.Context, d time.Duration) bool
}

type runner struct {
	ctx context.Context
	env Env
}

// Run executes src. name only labels errors.
func Run(ctx context.Context, env Env, name, src string) error {
	if env.Board == nil {
		return errcode.New(errcode.InvalidParams, "simscript", "no board")
	}
	if env.Log == nil {
		env.Log = logx.Nop()
	}
	if env.Sleep == nil {
		env.Sleep = clockSleep(env.Board)
	}
	r := &runner{ctx: ctx, env: env}

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	r.register(L)

	fn, err := L.LoadString(src)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "simscript."+name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if ctx.Err() != nil {
			return errcode.Wrap(errcode.Timeout, "simscript."+name, ctx.Err())
		}
		return errcode.Wrap(errcode.Error, "simscript."+name, err)
	}
	return nil
}

// RunFile executes the script at path.
func RunFile(ctx context.Context, env Env, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "simscript", err)
	}
	return Run(ctx, env, path, string(src))
}

func (r *runner) register(L *lua.LState) {
	L.SetGlobal("pot", L.NewFunction(r.luaPot))
	L.SetGlobal("press", L.NewFunction(r.luaPress))
	L.SetGlobal("sleep", L.NewFunction(r.luaSleep))
	L.SetGlobal("color", L.NewFunction(r.luaColor))
	L.SetGlobal("log", L.NewFunction(r.luaLog))
}

func (r *runner) luaPot(L *lua.LState) int {
	v := float64(L.CheckNumber(1))
	if v < 0 || v > 1 {
		L.ArgError(1, "pot position must be in [0,1]")
		return 0
	}
	r.env.Board.ADC.SetUnit(v)
	return 0
}

func (r *runner) luaPress(L *lua.LState) int {
	btn := L.CheckString(1)
	n := L.OptInt(2, 1)
	if n < 1 {
		L.ArgError(2, "edge count must be >= 1")
		return 0
	}
	switch btn {
	case "a", "A":
		r.env.Board.Buttons.PressA(n)
	case "b", "B":
		r.env.Board.Buttons.PressB(n)
	default:
		L.ArgError(1, `button must be "a" or "b"`)
	}
	return 0
}

func (r *runner) luaSleep(L *lua.LState) int {
	ms := L.CheckInt(1)
	if !r.env.Sleep(r.ctx, time.Duration(ms)*time.Millisecond) {
		L.RaiseError("cancelled")
	}
	return 0
}

func (r *runner) luaColor(L *lua.LState) int {
	if r.env.Color == nil {
		L.RaiseError("color() unavailable")
		return 0
	}
	c := r.env.Color()
	L.Push(lua.LNumber(c.H))
	L.Push(lua.LNumber(c.S))
	L.Push(lua.LNumber(c.V))
	L.Push(lua.LString(c.Active().String()))
	return 4
}

func (r *runner) luaLog(L *lua.LState) int {
	r.env.Log.Info(L.CheckString(1), "source", "lua")
	return 0
}

func clockSleep(b *sim.Board) func(context.Context, time.Duration) bool {
	return func(ctx context.Context, d time.Duration) bool {
		t := b.Clock.Timer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return true
		case <-ctx.Done():
			return false
		}
	}
}
