package app

import (
	"image/color"
	"strings"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"tachomatrix/hal"
	"tachomatrix/kernel"
)

var panicFG = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func installPanicHandler(h hal.HAL) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}

		disp := h.Display()
		if disp == nil {
			return
		}
		fb := disp.Framebuffer()
		if fb == nil {
			return
		}

		fb.ClearRGB(0x80, 0, 0)
		d := fbDisplay{fb: fb}
		font := &proggy.TinySZ8pt7b
		y := int16(consoleLineHeight - 2)
		for _, line := range lines {
			if int(y) > fb.Height() {
				break
			}
			tinyfont.WriteLine(d, font, consoleMargin, y, line, panicFG)
			y += consoleLineHeight
		}
		_ = fb.Present()
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"panic: " + info.String(),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
