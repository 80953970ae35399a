//go:build tinygo && baremetal

package hal

import (
	"machine"

	"tachomatrix/max7219"
	"tachomatrix/tach"
)

// Raspberry Pi Pico wiring.
const (
	pinStart = machine.GP20 // sensor start line, falling edge
	pinStop  = machine.GP21 // sensor stop line, rising edge

	pinSCK = machine.GP18
	pinSDO = machine.GP19
	pinSDI = machine.GP16
	pinCS  = machine.GP17 // MAX7219 LOAD
)

type tinyGoHAL struct {
	logger  *uartLogger
	led     *pinLED
	counter *monoCounter
	delay   tach.BusyWait
	edges   *pinEdges
	bus     *SPIBus
}

// New returns a Raspberry Pi Pico HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// MAX7219: SPI0 on GP18 (CLK) / GP19 (DIN), LOAD on GP17, mode 3, 1 MHz.
// Sensor: start on GP20, stop on GP21, both pulled up.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	logger := &uartLogger{uart: uart}

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: 1_000_000,
		SCK:       pinSCK,
		SDO:       pinSDO,
		SDI:       pinSDI,
		Mode:      3,
	}); err != nil {
		logger.WriteLineString("hal: spi0: " + err.Error())
	}
	pinCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCS.High()

	counter := newMonoCounter(tach.DefaultHz)
	return &tinyGoHAL{
		logger:  logger,
		led:     &pinLED{pin: ledPin},
		counter: counter,
		delay:   maskedDelay(counter),
		edges:   &pinEdges{start: pinStart, stop: pinStop},
		bus:     NewSPIBus(spi, pinCS),
	}
}

func (h *tinyGoHAL) Logger() Logger      { return h.logger }
func (h *tinyGoHAL) LED() LED            { return h.led }
func (h *tinyGoHAL) Counter() Counter    { return h.counter }
func (h *tinyGoHAL) Delay() tach.Delayer { return h.delay }
func (h *tinyGoHAL) Edges() EdgeSource   { return h.edges }
func (h *tinyGoHAL) Bus() max7219.Bus    { return h.bus }
func (h *tinyGoHAL) Display() Display    { return noDisplay{} }

type noDisplay struct{}

func (noDisplay) Framebuffer() Framebuffer { return nil }
