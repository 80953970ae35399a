package hal

import (
	"errors"

	"tachomatrix/max7219"
	"tachomatrix/tach"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// ErrorLogger is implemented by loggers that keep errors apart from
// ordinary lines.
type ErrorLogger interface {
	WriteErrorString(s string)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrEdgesEnabled   = errors.New("hal: edges already enabled")
)

// Counter is the free-running tick counter.
type Counter interface {
	tach.Counter

	// Snapshot reads the counter with edge interrupts masked.
	Snapshot() uint32
}

// EdgeSource delivers the start (falling) and stop (rising) edges.
//
// Each edge raises its flag in the latch and then calls isr. Calls to isr
// never overlap, the way a non-nesting interrupt handler behaves.
type EdgeSource interface {
	Enable(l *tach.Latch, isr func()) error
	Disable() error
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Logger() Logger
	LED() LED
	Counter() Counter
	Delay() tach.Delayer
	Edges() EdgeSource
	Bus() max7219.Bus
	Display() Display
}
