// Package max7219 drives a MAX7219 8x8 LED matrix over a two-byte transfer
// bus and models the chip for the host simulator.
package max7219

import (
	"errors"
	"fmt"

	"tachomatrix/glyph"
	"tachomatrix/tach"
)

// Status is the transmitter status word of the bus.
type Status uint32

const (
	// StatusTXC is set once the last transfer has left the shift register.
	StatusTXC Status = 1 << 5
	// StatusTXBL is set while the transmit buffer can take another word.
	StatusTXBL Status = 1 << 6
)

// Bus is the byte-transfer primitive: one 16-bit word per chip-select frame,
// register address in the upper byte, data in the lower byte.
type Bus interface {
	Status() Status
	WriteDouble(word uint16) error
}

// Register addresses.
const (
	RegNoop        byte = 0x0
	RegDigit0      byte = 0x1
	RegDecodeMode  byte = 0x9
	RegIntensity   byte = 0xA
	RegScanLimit   byte = 0xB
	RegShutdown    byte = 0xC
	RegDisplayTest byte = 0xF
)

// Columns is the number of digit registers (matrix columns).
const Columns = 8

// DecodeMode selects Code B decoding per digit register.
type DecodeMode byte

const (
	DecodeNone DecodeMode = 0x00
	DecodeB    DecodeMode = 0xFF
)

var (
	ErrPeripheralTimeout = errors.New("max7219: peripheral timeout")
	ErrNotReady          = errors.New("max7219: transmit buffer not ready")
	ErrBadValue          = errors.New("max7219: value out of range")
)

// Word packs a register write the way it goes on the wire.
func Word(addr, data byte) uint16 {
	return uint16(addr)<<8 | uint16(data)
}

// Timing holds the fixed delays of the display protocol, in counter ticks.
type Timing struct {
	Startup uint32
	Config  uint32
	Column  uint32
	Refresh uint32
}

// DefaultTiming is the firmware timing at 32768 Hz.
var DefaultTiming = Timing{
	Startup: 10000,
	Config:  1000,
	Column:  500,
	Refresh: 1000,
}

// DefaultMaxPolls bounds the transmit-complete wait.
const DefaultMaxPolls = 1 << 16

type Config struct {
	Timing Timing

	// MaxPolls is how many times Write polls for StatusTXC before giving up.
	// Zero means DefaultMaxPolls.
	MaxPolls int
}

// Report describes one refresh pass.
type Report struct {
	Sent int
	// Skipped has bit c-1 set for every column c that was not sent.
	Skipped uint8
}

// Complete reports whether all columns went out.
func (r Report) Complete() bool { return r.Skipped == 0 && r.Sent == Columns }

// SkippedColumns lists the 1-based columns dropped in the pass.
func (r Report) SkippedColumns() []int {
	var cols []int
	for c := 1; c <= Columns; c++ {
		if r.Skipped&(1<<uint(c-1)) != 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// Driver sends frames to one MAX7219.
type Driver struct {
	bus   Bus
	delay tach.Delayer
	cfg   Config
}

func New(bus Bus, delay tach.Delayer, cfg Config) *Driver {
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	return &Driver{bus: bus, delay: delay, cfg: cfg}
}

func (d *Driver) Timing() Timing { return d.cfg.Timing }

// Write sends one register write and waits for the transfer to complete.
func (d *Driver) Write(addr, data byte) error {
	if err := d.bus.WriteDouble(Word(addr, data)); err != nil {
		return fmt.Errorf("max7219: write %#02x=%#02x: %w", addr, data, err)
	}
	for i := 0; i < d.cfg.MaxPolls; i++ {
		if d.bus.Status()&StatusTXC != 0 {
			return nil
		}
	}
	return fmt.Errorf("max7219: write %#02x=%#02x: no TXC after %d polls: %w",
		addr, data, d.cfg.MaxPolls, ErrPeripheralTimeout)
}

// Init waits for the chip to power up, leaves shutdown and enables all eight
// columns.
func (d *Driver) Init() error {
	if err := d.wait(d.cfg.Timing.Startup); err != nil {
		return err
	}
	if err := d.configure(RegShutdown, 0x01); err != nil {
		return err
	}
	return d.configure(RegScanLimit, Columns-1)
}

func (d *Driver) configure(addr, data byte) error {
	if err := d.Write(addr, data); err != nil {
		return err
	}
	return d.wait(d.cfg.Timing.Config)
}

// Refresh sends columns 1 through 8 of f in order, each a blocking Write
// followed by the column delay. A column is dropped without retry when the
// transmit buffer is not ready; dropped columns are reported, not returned as
// an error.
func (d *Driver) Refresh(f glyph.Frame) (Report, error) {
	var r Report
	for c := 1; c <= Columns; c++ {
		if d.bus.Status()&StatusTXBL == 0 {
			r.Skipped |= 1 << uint(c-1)
			continue
		}
		if err := d.Write(byte(c), f[c-1]); err != nil {
			return r, err
		}
		r.Sent++
		if err := d.wait(d.cfg.Timing.Column); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Rest waits out the gap between two refresh passes.
func (d *Driver) Rest() error {
	return d.wait(d.cfg.Timing.Refresh)
}

func (d *Driver) SetIntensity(level byte) error {
	if level > 0x0F {
		return fmt.Errorf("%w: intensity %d", ErrBadValue, level)
	}
	return d.Write(RegIntensity, level)
}

func (d *Driver) SetDecode(m DecodeMode) error {
	return d.Write(RegDecodeMode, byte(m))
}

func (d *Driver) SetScanLimit(columns int) error {
	if columns < 1 || columns > Columns {
		return fmt.Errorf("%w: scan limit %d", ErrBadValue, columns)
	}
	return d.Write(RegScanLimit, byte(columns-1))
}

// DisplayTest lights every LED while on, regardless of the digit registers.
func (d *Driver) DisplayTest(on bool) error {
	return d.Write(RegDisplayTest, boolByte(on))
}

// Shutdown blanks the display while keeping register contents.
func (d *Driver) Shutdown(on bool) error {
	return d.Write(RegShutdown, boolByte(!on))
}

func (d *Driver) wait(ticks uint32) error {
	if ticks == 0 || d.delay == nil {
		return nil
	}
	if err := d.delay.Delay(ticks); err != nil {
		return fmt.Errorf("max7219: delay: %w", err)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
