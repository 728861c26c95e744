package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/benbjohnson/clock"

	"hsvled-go/hal/sim"
	"hsvled-go/services/config"
	"hsvled-go/services/lamp"
	"hsvled-go/x/logx"
)

func TestREPL(t *testing.T) {
	board := sim.NewBoard(clock.NewMock())
	svc, err := lamp.New(config.Default().Lamp, board.HAL(), logx.Nop())
	if err != nil {
		t.Fatal(err)
	}

	in := strings.NewReader("pot 1\npot 2\nb x\n\"unterminated\nfrobnicate\nshow\nquit\npot 0\n")
	var out bytes.Buffer
	repl(context.Background(), in, &out, board, svc)

	if raw, _ := board.ADC.Read(); raw != 65535 {
		t.Fatalf("pot not applied or applied after quit: raw=%d", raw)
	}
	got := out.String()
	for _, want := range []string{
		"pot position must be in [0,1]",
		"edge count must be a positive integer",
		`unknown command "frobnicate"`,
		"hsv=(0.000, 0.000, 0.000) editing=hue",
		"frames=0",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}
