package app

import (
	"fmt"
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"tachomatrix/kernel"
)

// measureTask picks up intervals published by the edge interrupt.
type measureTask struct {
	s       *system
	seen    uint32
	orphans uint32
}

func (t *measureTask) Step(ctx *kernel.Context) {
	s := t.s
	if st := s.capture.Stats(); st.Orphans != t.orphans {
		ctx.Logf("dropped %d stop edges without a start", st.Orphans-t.orphans)
		t.orphans = st.Orphans
	}

	ticks, seq, missed, ok := s.slot.Since(t.seen)
	if !ok {
		return
	}
	t.seen = seq
	if missed > 0 {
		ctx.Logf("%d readings overwritten", missed)
	}
	s.show(ctx, ticks, seq)
}

// displayTask initialises the matrix on its first step and pushes the frame
// once per step after that.
type displayTask struct {
	s       *system
	ready   bool
	passes  uint64
	partial uint64
}

func (t *displayTask) Step(ctx *kernel.Context) {
	drv := t.s.drv
	if !t.ready {
		if err := drv.Init(); err != nil {
			ctx.Fail(err)
			return
		}
		if lvl := t.s.cfg.Intensity; lvl >= 0 {
			if err := drv.SetIntensity(byte(lvl)); err != nil {
				ctx.Fail(err)
				return
			}
		}
		t.ready = true
		ctx.Logf("matrix ready")
	}

	rep, err := drv.Refresh(t.s.frame)
	if err != nil {
		ctx.Fail(err)
		return
	}
	t.passes++
	if !rep.Complete() {
		t.partial++
		ctx.Logf("loop %d: skipped columns %v, %d of %d passes partial",
			ctx.NowTick(), rep.SkippedColumns(), t.partial, t.passes)
	}
	if err := drv.Rest(); err != nil {
		ctx.Fail(err)
	}
}

const (
	consoleLineHeight = 12
	consoleFontOffset = 10
	consoleMargin     = 2
)

var (
	consoleBG      = color.RGBA{A: 0xff}
	consoleReading = color.RGBA{R: 0xff, G: 0x40, B: 0x30, A: 0xff}
	consoleError   = color.RGBA{R: 0xff, G: 0xd0, B: 0x40, A: 0xff}
)

// consoleTask keeps the reading on the top line of the console and presents
// the framebuffer when the reading or the log terminal below it changed.
type consoleTask struct {
	s      *system
	header fbDisplay
}

func (t *consoleTask) Step(ctx *kernel.Context) {
	s := t.s
	if !s.dirty {
		return
	}
	s.dirty = false

	w, h := t.header.Size()
	_ = t.header.FillRectangle(0, 0, w, h, consoleBG)

	r := s.reading
	line := fmt.Sprintf("%s s  %d ticks  #%d", r.Digits, r.Ticks, r.Seq)
	fg := consoleReading
	if r.Err != nil {
		line += "  (over range)"
		fg = consoleError
	}
	tinyfont.WriteLine(t.header, &proggy.TinySZ8pt7b, consoleMargin, consoleFontOffset, line, fg)

	if err := t.header.Display(); err != nil {
		ctx.Errorf("present: %v", err)
	}
}
