package hsv

// Channel is the HSV component the potentiometer currently edits.
type Channel uint8

const (
	Hue Channel = iota
	Saturation
	Value

	numChannels = 3
)

// Direction selects which way Rotate walks the channel cycle.
type Direction int8

const (
	Prev Direction = -1
	Next Direction = 1
)

// Next returns the following channel: Hue -> Saturation -> Value -> Hue.
func (c Channel) Next() Channel { return (c%numChannels + 1) % numChannels }

// Prev returns the preceding channel: Hue -> Value -> Saturation -> Hue.
func (c Channel) Prev() Channel { return (c%numChannels + numChannels - 1) % numChannels }

func (c Channel) String() string {
	switch c {
	case Hue:
		return "hue"
	case Saturation:
		return "saturation"
	case Value:
		return "value"
	}
	return "invalid"
}
