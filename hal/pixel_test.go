//go:build !tinygo

package hal

import (
	"image/color"
	"testing"
)

func TestRGB565RoundTrip(t *testing.T) {
	tests := []struct {
		c    color.RGBA
		want uint16
	}{
		{color.RGBA{A: 0xFF}, 0x0000},
		{color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, 0xFFFF},
		{color.RGBA{R: 0xFF, A: 0xFF}, 0xF800},
		{color.RGBA{G: 0xFF, A: 0xFF}, 0x07E0},
		{color.RGBA{B: 0xFF, A: 0xFF}, 0x001F},
	}
	for _, tc := range tests {
		p := RGB565(tc.c)
		if p != tc.want {
			t.Errorf("RGB565(%v) = %#04x, want %#04x", tc.c, p, tc.want)
		}
		if got := RGBAFrom565(p); got != tc.c {
			t.Errorf("RGBAFrom565(%#04x) = %v, want %v", p, got, tc.c)
		}
	}
}

func TestSetPixel565Clips(t *testing.T) {
	fb := newHostFramebuffer(4, 3)
	if !SetPixel565(fb, 3, 2, 0xF800) {
		t.Fatal("SetPixel565(3, 2) = false")
	}
	buf := fb.Buffer()
	if off := 2*fb.StrideBytes() + 3*2; buf[off] != 0x00 || buf[off+1] != 0xF8 {
		t.Fatalf("pixel bytes = %#02x %#02x", buf[off], buf[off+1])
	}
	for _, pt := range [][2]int{{-1, 0}, {4, 0}, {0, 3}, {0, -1}} {
		if SetPixel565(fb, pt[0], pt[1], 0xFFFF) {
			t.Errorf("SetPixel565(%d, %d) = true outside the buffer", pt[0], pt[1])
		}
	}
}

func TestFillRect565Clips(t *testing.T) {
	fb := newHostFramebuffer(4, 4)
	FillRect565(fb, -2, 2, 4, 10, 0x07E0)

	lit := 0
	buf := fb.Buffer()
	for i := 0; i < len(buf); i += 2 {
		if uint16(buf[i])|uint16(buf[i+1])<<8 == 0x07E0 {
			lit++
		}
	}
	// Columns 0-1 of rows 2-3.
	if lit != 4 {
		t.Fatalf("filled %d pixels, want 4", lit)
	}
}
