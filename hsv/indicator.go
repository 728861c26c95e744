package hsv

// Pattern is a 5x5 bitmap for the LED matrix, indexed [row][col].
type Pattern [5][5]uint8

// Lit reports whether the cell at column x, row y is on.
func (p Pattern) Lit(x, y int) bool { return p[y][x] != 0 }

var (
	PatternHue = Pattern{
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
	}
	PatternSaturation = Pattern{
		{0, 1, 1, 1, 0},
		{0, 1, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 1, 0},
		{0, 1, 1, 1, 0},
	}
	PatternValue = Pattern{
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{0, 0, 1, 0, 0},
	}
)

// PatternFor maps every channel to its glyph.
func PatternFor(c Channel) Pattern {
	switch c {
	case Saturation:
		return PatternSaturation
	case Value:
		return PatternValue
	default:
		return PatternHue
	}
}
