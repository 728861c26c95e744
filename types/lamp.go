package types

// ---- Lamp state (retained) ----

type LampState struct {
	Level  string `json:"level"`  // "starting", "running", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ---- Color ----

// ColorValue is the committed color and its RGB projection.
type ColorValue struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// ChannelValue names the HSV component the potentiometer edits.
type ChannelValue struct {
	Active string `json:"active"` // "hue", "saturation", "value"
}

// ---- Software PWM ----

type PWMStats struct {
	Frames    uint32 `json:"frames"`
	IdleTicks uint32 `json:"idle_ticks"`
	Submits   uint32 `json:"submits"`
	Coalesced uint32 `json:"irq_coalesced"`
	Dropped   uint32 `json:"samples_skipped"`
}
