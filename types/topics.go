package types

// Topic levels used on the in-process bus.
const (
	TopicLamp    = "lamp"
	TopicColor   = "color"
	TopicPWM     = "pwm"
	TopicConfig  = "config"
	TopicState   = "state"
	TopicHSV     = "hsv"
	TopicChannel = "channel"
	TopicStats   = "stats"
)
