package app

import (
	"image/color"

	"tinygo.org/x/drivers"

	"tachomatrix/hal"
)

// fbDisplay lets tinyfont and tinyterm draw into an RGB565 framebuffer.
//
// It covers the band of rows starting at top; height 0 runs to the bottom of
// the framebuffer. Coordinates are relative to the band and clipped to it.
type fbDisplay struct {
	fb     hal.Framebuffer
	top    int16
	height int16
}

func (d fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	h := int16(d.fb.Height()) - d.top
	if d.height > 0 && d.height < h {
		h = d.height
	}
	if h < 0 {
		h = 0
	}
	return int16(d.fb.Width()), h
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if _, h := d.Size(); y < 0 || y >= h {
		return
	}
	hal.SetPixel565(d.fb, int(x), int(d.top+y), hal.RGB565(c))
}

func (d fbDisplay) FillRectangle(x, y, w, h int16, c color.RGBA) error {
	_, bandH := d.Size()
	y0, y1 := int(y), int(y)+int(h)
	if y0 < 0 {
		y0 = 0
	}
	if y1 > int(bandH) {
		y1 = int(bandH)
	}
	if y1 > y0 {
		hal.FillRect565(d.fb, int(x), int(d.top)+y0, int(w), y1-y0, hal.RGB565(c))
	}
	return nil
}

// SetScroll is a no-op: the framebuffer has no scroll offset, so terminals on
// it use software scrolling.
func (d fbDisplay) SetScroll(line int16) {}

func (d fbDisplay) SetRotation(r drivers.Rotation) error {
	if r != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

func (d fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}
