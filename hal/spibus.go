package hal

import (
	"fmt"

	"tinygo.org/x/drivers"

	"tachomatrix/max7219"
)

// ChipSelect is the LOAD line of the display driver.
type ChipSelect interface {
	High()
	Low()
}

// SPIBus sends MAX7219 words over a blocking SPI peripheral. Each word is
// latched by a LOAD (chip select) pulse.
//
// Tx returns once both bytes have been shifted out, so the bus always
// reports itself ready and complete.
type SPIBus struct {
	spi drivers.SPI
	cs  ChipSelect
	w   [2]byte
}

func NewSPIBus(spi drivers.SPI, cs ChipSelect) *SPIBus {
	return &SPIBus{spi: spi, cs: cs}
}

func (b *SPIBus) Status() max7219.Status {
	return max7219.StatusTXBL | max7219.StatusTXC
}

func (b *SPIBus) WriteDouble(word uint16) error {
	b.w[0] = byte(word >> 8)
	b.w[1] = byte(word)
	b.cs.Low()
	err := b.spi.Tx(b.w[:], nil)
	b.cs.High()
	if err != nil {
		return fmt.Errorf("hal: spi tx %#04x: %w", word, err)
	}
	return nil
}
