//go:build !linux && !tinygo

package hal

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// LinuxConfig names the GPIO lines and SPI port of a Linux board.
type LinuxConfig struct {
	Chip      string
	StartLine uint32
	StopLine  uint32
	SPI       string
	SPIHz     physic.Frequency
}

func (h *Host) openLinux(LinuxConfig) error {
	return fmt.Errorf("hal: linux backend: %w", ErrNotImplemented)
}
