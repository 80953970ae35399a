//go:build linux && !tinygo

package hal

import (
	"fmt"
	"sync"

	"github.com/mkch/gpio"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"tachomatrix/max7219"
	"tachomatrix/tach"
)

// LinuxConfig names the GPIO lines and SPI port of a Linux board.
type LinuxConfig struct {
	// Chip is the GPIO character device, e.g. /dev/gpiochip0.
	Chip      string
	StartLine uint32
	StopLine  uint32

	// SPI is a periph port name such as "SPI0.0"; empty picks the first.
	SPI   string
	SPIHz physic.Frequency
}

const consumer = "tachomatrix"

func (h *Host) openLinux(cfg LinuxConfig) error {
	if cfg.Chip == "" {
		cfg.Chip = "/dev/gpiochip0"
	}
	if cfg.SPIHz == 0 {
		cfg.SPIHz = 1 * physic.MegaHertz
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("hal: periph init: %w", err)
	}

	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return fmt.Errorf("hal: spi %q: %w", cfg.SPI, err)
	}
	h.closers = append(h.closers, port.Close)

	// Clock idles high, data sampled on the rising edge, MSB first.
	conn, err := port.Connect(cfg.SPIHz, spi.Mode3, 8)
	if err != nil {
		return fmt.Errorf("hal: spi connect: %w", err)
	}
	h.bus = &spidevBus{conn: conn}
	h.edges = &gpioEdges{cfg: cfg, irq: &h.irq}
	return nil
}

// spidevBus sends each word as one two-byte SPI transaction. The kernel
// driver returns only once the transfer is done, so the transmitter is always
// ready and complete between calls.
type spidevBus struct {
	mu   sync.Mutex
	conn spi.Conn
	w    [2]byte
}

func (b *spidevBus) Status() max7219.Status {
	return max7219.StatusTXBL | max7219.StatusTXC
}

func (b *spidevBus) WriteDouble(word uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w[0] = byte(word >> 8)
	b.w[1] = byte(word)
	if err := b.conn.Tx(b.w[:], nil); err != nil {
		return fmt.Errorf("hal: spi tx %#04x: %w", word, err)
	}
	return nil
}

// gpioEdges requests both lines for edge events and pumps them into the
// handler from one goroutine, so handlers never overlap.
type gpioEdges struct {
	cfg LinuxConfig
	irq *sync.Mutex

	mu    sync.Mutex
	start *gpio.LineWithEvent
	stop  *gpio.LineWithEvent
	done  chan struct{}
	wg    sync.WaitGroup
}

func (e *gpioEdges) Enable(l *tach.Latch, isr func()) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		return ErrEdgesEnabled
	}

	chip, err := gpio.OpenChip(e.cfg.Chip)
	if err != nil {
		return fmt.Errorf("hal: gpio chip %s: %w", e.cfg.Chip, err)
	}
	defer func() { err = multierr.Append(err, chip.Close()) }()

	start, err := chip.OpenLineWithEvents(e.cfg.StartLine, gpio.Input, gpio.BothEdges, consumer)
	if err != nil {
		return fmt.Errorf("hal: gpio line %d: %w", e.cfg.StartLine, err)
	}
	stop, err := chip.OpenLineWithEvents(e.cfg.StopLine, gpio.Input, gpio.BothEdges, consumer)
	if err != nil {
		return multierr.Append(fmt.Errorf("hal: gpio line %d: %w", e.cfg.StopLine, err), start.Close())
	}

	e.start, e.stop = start, stop
	e.done = make(chan struct{})
	e.wg.Add(1)
	go e.pump(l, isr, e.done)
	return nil
}

func (e *gpioEdges) pump(l *tach.Latch, isr func(), done <-chan struct{}) {
	defer e.wg.Done()
	startEv, stopEv := e.start.Events(), e.stop.Events()
	for {
		var f tach.Flags
		select {
		case <-done:
			return
		case ev, ok := <-startEv:
			if !ok {
				return
			}
			if ev.RisingEdge {
				continue
			}
			f = tach.FlagStart
		case ev, ok := <-stopEv:
			if !ok {
				return
			}
			if !ev.RisingEdge {
				continue
			}
			f = tach.FlagStop
		}

		e.irq.Lock()
		l.Raise(f)
		isr()
		e.irq.Unlock()
	}
}

func (e *gpioEdges) Disable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		return nil
	}
	close(e.done)
	e.wg.Wait()
	err := multierr.Combine(e.start.Close(), e.stop.Close())
	e.start, e.stop, e.done = nil, nil, nil
	return err
}
