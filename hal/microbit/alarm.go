//go:build tinygo && microbit

package microbit

import (
	"device/nrf"
	"runtime/interrupt"
	"time"

	"hsvled-go/swpwm"
)

// TIMER3 runs at 1 MHz and stops itself on compare, so every Arm is one
// expiry. The interrupt handler cannot capture, hence the package var.
var alarmFire func()

type timerAlarm struct{}

func newTimerAlarm(fire func()) swpwm.Alarm {
	alarmFire = fire

	t := nrf.TIMER3
	t.TASKS_STOP.Set(1)
	t.MODE.Set(nrf.TIMER_MODE_MODE_Timer)
	t.BITMODE.Set(nrf.TIMER_BITMODE_BITMODE_32Bit)
	t.PRESCALER.Set(4) // 16 MHz / 2^4
	t.SHORTS.Set(nrf.TIMER_SHORTS_COMPARE0_CLEAR_Msk | nrf.TIMER_SHORTS_COMPARE0_STOP_Msk)
	t.INTENSET.Set(nrf.TIMER_INTENSET_COMPARE0_Msk)

	intr := interrupt.New(nrf.IRQ_TIMER3, func(interrupt.Interrupt) {
		nrf.TIMER3.EVENTS_COMPARE[0].Set(0)
		if alarmFire != nil {
			alarmFire()
		}
	})
	intr.Enable()
	return timerAlarm{}
}

func (timerAlarm) Arm(d time.Duration) {
	us := uint32(d / time.Microsecond)
	if us == 0 {
		// CC0 = 0 never matches after CLEAR.
		us = 1
	}
	t := nrf.TIMER3
	t.TASKS_STOP.Set(1)
	t.TASKS_CLEAR.Set(1)
	t.CC[0].Set(us)
	t.TASKS_START.Set(1)
}
