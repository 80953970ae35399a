//go:build tinygo && baremetal

package hal

import (
	"machine"
	"runtime/interrupt"
	"time"

	"tachomatrix/tach"
)

// monoCounter scales the runtime monotonic clock to a fixed tick rate.
type monoCounter struct {
	t0 time.Time
	hz uint32
}

func newMonoCounter(hz uint32) *monoCounter {
	return &monoCounter{t0: time.Now(), hz: hz}
}

func (c *monoCounter) Ticks() uint32 { return ticksAt(time.Since(c.t0), c.hz) }
func (c *monoCounter) Hz() uint32    { return c.hz }

func (c *monoCounter) Snapshot() uint32 {
	mask := interrupt.Disable()
	v := c.Ticks()
	interrupt.Restore(mask)
	return v
}

// pinEdges arms GPIO interrupts on the two sensor lines. Both pins share the
// bank interrupt, so handlers never nest.
type pinEdges struct {
	start   machine.Pin
	stop    machine.Pin
	enabled bool
}

func (e *pinEdges) Enable(l *tach.Latch, isr func()) error {
	if e.enabled {
		return ErrEdgesEnabled
	}
	e.start.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	e.stop.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	err := e.start.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		l.Raise(tach.FlagStart)
		isr()
	})
	if err != nil {
		return err
	}
	err = e.stop.SetInterrupt(machine.PinRising, func(machine.Pin) {
		l.Raise(tach.FlagStop)
		isr()
	})
	if err != nil {
		e.start.SetInterrupt(0, nil)
		return err
	}
	e.enabled = true
	return nil
}

func (e *pinEdges) Disable() error {
	if !e.enabled {
		return nil
	}
	e.enabled = false
	e.start.SetInterrupt(0, nil)
	e.stop.SetInterrupt(0, nil)
	return nil
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }
