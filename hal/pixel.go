package hal

import "image/color"

// RGB565 packs c as rrrrrggggggbbbbb. Alpha is ignored.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

// RGBAFrom565 expands a 565 pixel to full range, opaque.
func RGBAFrom565(p uint16) color.RGBA {
	return color.RGBA{
		R: uint8(((p >> 11) & 0x1F) * 255 / 31),
		G: uint8(((p >> 5) & 0x3F) * 255 / 63),
		B: uint8((p & 0x1F) * 255 / 31),
		A: 0xFF,
	}
}

// SetPixel565 stores p at (x, y). It reports false, writing nothing, when fb
// is not RGB565 or the point is outside it.
func SetPixel565(fb Framebuffer, x, y int, p uint16) bool {
	if fb == nil || fb.Format() != PixelFormatRGB565 {
		return false
	}
	if x < 0 || x >= fb.Width() || y < 0 || y >= fb.Height() {
		return false
	}
	buf := fb.Buffer()
	off := y*fb.StrideBytes() + x*2
	if off+1 >= len(buf) {
		return false
	}
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
	return true
}

// FillRect565 fills the w by h rectangle at (x, y), clipped to fb.
func FillRect565(fb Framebuffer, x, y, w, h int, p uint16) {
	if fb == nil || fb.Format() != PixelFormatRGB565 {
		return
	}
	x0, x1 := clip(x, fb.Width()), clip(x+w, fb.Width())
	y0, y1 := clip(y, fb.Height()), clip(y+h, fb.Height())

	buf := fb.Buffer()
	lo, hi := byte(p), byte(p>>8)
	stride := fb.StrideBytes()
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			off := py*stride + px*2
			if off+1 >= len(buf) {
				return
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
}

func clip(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
