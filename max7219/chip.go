package max7219

import (
	"sync"

	"tachomatrix/glyph"
)

// ChipState is a snapshot of the chip registers.
type ChipState struct {
	Digits    glyph.Frame
	Decode    DecodeMode
	Intensity byte
	ScanLimit byte
	Shutdown  bool
	Test      bool
	Words     uint64
	Unknown   uint64
}

// Chip decodes wire words into MAX7219 register state. It starts the way the
// part powers up: in shutdown with every register cleared.
type Chip struct {
	mu sync.Mutex
	st ChipState
}

func NewChip() *Chip {
	return &Chip{st: ChipState{Shutdown: true}}
}

// Apply executes one wire word. Words for unknown registers are counted and
// otherwise ignored, as the part does.
func (c *Chip) Apply(word uint16) {
	addr, data := byte(word>>8), byte(word)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Words++

	switch {
	case addr == RegNoop:
	case addr >= RegDigit0 && addr < RegDigit0+Columns:
		c.st.Digits[addr-RegDigit0] = data
	case addr == RegDecodeMode:
		c.st.Decode = DecodeMode(data)
	case addr == RegIntensity:
		c.st.Intensity = data & 0x0F
	case addr == RegScanLimit:
		c.st.ScanLimit = data & 0x07
	case addr == RegShutdown:
		c.st.Shutdown = data&0x01 == 0
	case addr == RegDisplayTest:
		c.st.Test = data&0x01 != 0
	default:
		c.st.Unknown++
	}
}

func (c *Chip) State() ChipState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Visible returns what the matrix shows: all on in test mode, dark in
// shutdown, and columns past the scan limit dark.
func (c *Chip) Visible() glyph.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	var f glyph.Frame
	switch {
	case c.st.Test:
		for i := range f {
			f[i] = 0xFF
		}
	case c.st.Shutdown:
	default:
		for i := 0; i <= int(c.st.ScanLimit); i++ {
			f[i] = c.st.Digits[i]
		}
	}
	return f
}

// ChipBus is a Bus that feeds a Chip. It is always transmit-complete;
// NotReadyEvery and StuckTXC inject the faults the driver must survive.
type ChipBus struct {
	Chip *Chip

	// NotReadyEvery clears StatusTXBL on every n-th status read.
	NotReadyEvery int
	// StuckTXC never reports StatusTXC.
	StuckTXC bool

	mu    sync.Mutex
	reads int
}

func (b *ChipBus) Status() Status {
	b.mu.Lock()
	b.reads++
	n := b.reads
	b.mu.Unlock()

	s := StatusTXBL | StatusTXC
	if b.StuckTXC {
		s &^= StatusTXC
	}
	if b.NotReadyEvery > 0 && n%b.NotReadyEvery == 0 {
		s &^= StatusTXBL
	}
	return s
}

func (b *ChipBus) WriteDouble(word uint16) error {
	b.Chip.Apply(word)
	return nil
}
