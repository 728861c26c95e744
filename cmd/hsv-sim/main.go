// hsv-sim runs the lamp against a simulated board on the host.
//
// With -config the file is watched and lamp and telemetry settings are
// reapplied when it changes. Without -script it reads commands from stdin:
//
//	a | b [n]      press a button, n edges
//	pot <0..1>     move the potentiometer
//	show           print color, duty cycles and the matrix
//	quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/shlex"

	"hsvled-go/bus"
	"hsvled-go/hal"
	"hsvled-go/hal/sim"
	"hsvled-go/internal/simscript"
	"hsvled-go/services/config"
	"hsvled-go/services/lamp"
	"hsvled-go/services/telemetry"
	"hsvled-go/x/logx"
)

func main() {
	var (
		configPath string
		scriptPath string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration (defaults built in)")
	flag.StringVar(&scriptPath, "script", "", "Lua input script; stdin is used when empty")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}
	log := logx.New(os.Stderr, logx.ParseLevel(cfg.Log.Level), cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board := sim.NewBoard(clock.New())
	hb := board.HAL()
	hb.Pot = hal.Pot{ADC: board.ADC, Invert: cfg.Lamp.InvertPot}

	b := bus.NewBus(cfg.Bus.QueueLen)
	if err := telemetry.New(log, hb.Clk()).Start(ctx, b.NewConnection("telemetry")); err != nil {
		log.Error("telemetry", err)
		os.Exit(1)
	}
	cfgSvc := config.NewConfigService(cfg)
	cfgConn := b.NewConnection("config")
	if err := cfgSvc.Start(ctx, cfgConn); err != nil {
		log.Error("config", err)
		os.Exit(1)
	}
	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, log, func(c config.Config) {
				if err := cfgSvc.Apply(cfgConn, c); err != nil {
					log.Warn("config rejected", "err", err.Error())
				}
			})
			if err != nil {
				log.Error("config watch", err)
			}
		}()
	}
	svc, err := lamp.New(cfg.Lamp, hb, log)
	if err != nil {
		log.Error("lamp", err)
		os.Exit(1)
	}
	if err := svc.Start(ctx, b.NewConnection("lamp")); err != nil {
		log.Error("lamp", err)
		os.Exit(1)
	}

	if scriptPath != "" {
		env := simscript.Env{Board: board, Color: svc.Color, Log: log}
		if err := simscript.RunFile(ctx, env, scriptPath); err != nil {
			log.Error("script", err)
		}
		// Let the last frame land before reporting.
		time.Sleep(3 * cfg.Lamp.SamplePeriod.D())
		report(os.Stdout, board, svc)
	} else {
		repl(ctx, os.Stdin, os.Stdout, board, svc)
	}

	cancel()
	<-svc.Done()
}

func repl(ctx context.Context, in io.Reader, out io.Writer, board *sim.Board, svc *lamp.Service) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		args, err := shlex.Split(sc.Text())
		if err != nil || len(args) == 0 {
			continue
		}
		switch args[0] {
		case "a", "b":
			n := 1
			if len(args) > 1 {
				if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
					fmt.Fprintln(out, "edge count must be a positive integer")
					continue
				}
			}
			if args[0] == "a" {
				board.Buttons.PressA(n)
			} else {
				board.Buttons.PressB(n)
			}
		case "pot":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: pot <0..1>")
				continue
			}
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil || v < 0 || v > 1 {
				fmt.Fprintln(out, "pot position must be in [0,1]")
				continue
			}
			board.ADC.SetUnit(v)
		case "show":
			report(out, board, svc)
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(out, "unknown command %q\n", args[0])
		}
	}
}

func report(out io.Writer, board *sim.Board, svc *lamp.Service) {
	c := svc.Color()
	rgb := c.ToRGB()
	duty := board.Lines.Duty()
	fmt.Fprintf(out, "hsv=(%.3f, %.3f, %.3f) editing=%s\n", c.H, c.S, c.V, c.Active())
	fmt.Fprintf(out, "rgb=(%.3f, %.3f, %.3f) duty=(%.3f, %.3f, %.3f)\n",
		rgb.R, rgb.G, rgb.B, duty[0], duty[1], duty[2])
	st := svc.Stats()
	fmt.Fprintf(out, "frames=%d submits=%d idle=%d coalesced=%d skipped=%d\n",
		st.Frames, st.Submits, st.IdleTicks, st.Coalesced, st.Dropped)
	fmt.Fprint(out, board.Matrix.Render())
	board.Lines.Reset()
}
