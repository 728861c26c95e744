package mathx

// NormU16 maps a raw 16-bit reading onto [0,1].
func NormU16(raw uint16) float64 {
	return float64(raw) / 65535
}

// UnitSteps converts a unit-interval value to an integer count in [0, steps],
// rounding half away from zero. Out-of-range input is clamped first.
func UnitSteps(v float64, steps uint8) uint8 {
	v = Clamp(v, 0, 1)
	return uint8(v*float64(steps) + 0.5)
}
