//go:build tinygo && microbit

// Firmware for the micro:bit v2:
//
//	tinygo flash -target microbit-v2 -tags microbit ./cmd/hsv-mb2
package main

import (
	"context"
	"time"

	"hsvled-go/bus"
	"hsvled-go/hal/microbit"
	"hsvled-go/services/config"
	"hsvled-go/services/lamp"
	"hsvled-go/services/telemetry"
	"hsvled-go/x/logx"
)

func main() {
	// Give RTT/CDC a moment before the first line.
	time.Sleep(500 * time.Millisecond)

	cfg := config.Default()
	log := logx.New(logx.ParseLevel(cfg.Log.Level))
	log.Info("boot")

	board, err := microbit.NewBoard(microbit.Options{
		InvertPot: cfg.Lamp.InvertPot,
		Hold:      cfg.Lamp.IndicatorPeriod.D(),
	})
	if err != nil {
		fatal(log, "board", err)
	}

	ctx := context.Background()
	b := bus.NewBus(cfg.Bus.QueueLen)

	if err := telemetry.New(log, board.Clk()).Start(ctx, b.NewConnection("telemetry")); err != nil {
		fatal(log, "telemetry", err)
	}
	if err := config.NewConfigService(cfg).Start(ctx, b.NewConnection("config")); err != nil {
		fatal(log, "config", err)
	}
	svc, err := lamp.New(cfg.Lamp, board, log)
	if err != nil {
		fatal(log, "lamp", err)
	}
	if err := svc.Start(ctx, b.NewConnection("lamp")); err != nil {
		fatal(log, "lamp", err)
	}

	<-svc.Done()
}

func fatal(log logx.Logger, what string, err error) {
	log.Error("init failed", err, "stage", what)
	for {
		time.Sleep(time.Second)
	}
}
