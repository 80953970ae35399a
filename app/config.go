package app

import (
	"errors"
	"fmt"
	"math"

	"tachomatrix/glyph"
	"tachomatrix/max7219"
)

var ErrBadConfig = errors.New("app: bad config")

// Config is the firmware configuration.
type Config struct {
	// CounterBits is the width of the tick counter. Intervals are taken
	// modulo 2^CounterBits.
	CounterBits uint8

	// RateHz divides the interval to get seconds. Zero uses the counter
	// rate; 32000 reproduces the readings of the EFM32 board.
	RateHz uint32

	Mode glyph.Mode

	// Strict drops stop edges that have no start edge.
	Strict bool

	Timing   max7219.Timing
	MaxPolls int

	// InitialValue is shown until the first measurement arrives.
	InitialValue float64

	// Intensity is written after display init when in 0-15. Negative leaves
	// the power-on level.
	Intensity int

	// Console draws the reading and recent log lines on the framebuffer,
	// when the board has one.
	Console bool
}

// DefaultConfig is the stock board configuration: 32-bit counter, literal
// digits, 0.1 shown at power-up.
func DefaultConfig() Config {
	return Config{
		CounterBits:  32,
		Mode:         glyph.ModeLiteral,
		Timing:       max7219.DefaultTiming,
		MaxPolls:     max7219.DefaultMaxPolls,
		InitialValue: 0.1,
		Intensity:    -1,
		Console:      true,
	}
}

func (c Config) Validate() error {
	if c.CounterBits == 0 || c.CounterBits > 32 {
		return fmt.Errorf("%w: counter bits %d not in 1-32", ErrBadConfig, c.CounterBits)
	}
	if _, err := glyph.ParseMode(c.Mode.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	v := c.InitialValue
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: initial value %v", ErrBadConfig, v)
	}
	if d, err := glyph.Decompose(v, c.Mode); err != nil || d.First > 9 {
		return fmt.Errorf("%w: initial value %v has no single-digit integer part", ErrBadConfig, v)
	}
	if c.Intensity > 15 {
		return fmt.Errorf("%w: intensity %d not in 0-15", ErrBadConfig, c.Intensity)
	}
	if c.MaxPolls < 0 {
		return fmt.Errorf("%w: max polls %d", ErrBadConfig, c.MaxPolls)
	}
	return nil
}
