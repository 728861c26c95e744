package conv

import (
	"math"
	"testing"
)

func TestAppendInt(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		7:             "7",
		-42:           "-42",
		1234567890:    "1234567890",
		math.MaxInt64: "9223372036854775807",
		math.MinInt64: "-9223372036854775808",
	}
	for n, want := range cases {
		if got := string(AppendInt(nil, n)); got != want {
			t.Errorf("AppendInt(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestAppendUintKeepsPrefix(t *testing.T) {
	got := string(AppendUint([]byte("frames="), 100))
	if got != "frames=100" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendFixed(t *testing.T) {
	cases := []struct {
		v    float64
		d    int
		want string
	}{
		{0, 3, "0.000"},
		{0.5, 3, "0.500"},
		{1, 2, "1.00"},
		{0.0625, 3, "0.063"},
		{-2.25, 1, "-2.3"},
		{12.75, 0, "13"},
		{0.333333333, 9, "0.333333"},
		{math.NaN(), 2, "nan"},
		{math.Inf(1), 2, "+inf"},
		{math.Inf(-1), 2, "-inf"},
	}
	for _, c := range cases {
		if got := string(AppendFixed(nil, c.v, c.d)); got != c.want {
			t.Errorf("AppendFixed(%v, %d) = %q, want %q", c.v, c.d, got, c.want)
		}
	}
}
