//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/multierr"

	"tachomatrix/glyph"
	"tachomatrix/internal/buildinfo"
)

const (
	cellPx    = 32
	matrixPx  = 8 * cellPx
	stripPx   = 16
	windowW   = matrixPx
	consoleY  = matrixPx + stripPx
	windowH   = consoleY + consoleHeight
	windowTPS = 30
)

var (
	colorLit   = color.RGBA{R: 0xff, G: 0x30, B: 0x20, A: 0xff}
	colorDark  = color.RGBA{R: 0x30, G: 0x08, B: 0x08, A: 0xff}
	colorLine  = color.RGBA{R: 0x4a, G: 0xdf, B: 0x6a, A: 0xff}
	colorIdle  = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	colorStrip = color.RGBA{R: 0x08, G: 0x08, B: 0x08, A: 0xff}
)

// RunWindow shows the simulated matrix, the sensor lines and the console in
// a desktop window while the firmware runs. It blocks until the window
// closes or the firmware fails.
func RunWindow(ctx context.Context, cfg HostConfig, newApp NewApp) (err error) {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	h, err := New(runCtx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, h.Close()) }()

	step, err := newApp(h)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- runLoop(runCtx, step, 0) }()

	g := &hostGame{h: h, done: done}
	ebiten.SetWindowTitle("tachomatrix (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(windowW*2, windowH*2)
	ebiten.SetTPS(windowTPS)
	err = ebiten.RunGame(g)
	stop()
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if g.loopDone {
		return multierr.Append(err, g.loopErr)
	}
	return multierr.Append(err, <-done)
}

type hostGame struct {
	h    *Host
	done <-chan error

	loopDone bool
	loopErr  error

	cells   *ebiten.Image
	console *ebiten.Image
	rgba    []byte
	pix     []byte
}

func (g *hostGame) Update() error {
	select {
	case err := <-g.done:
		g.loopDone, g.loopErr = true, err
		return ebiten.Termination
	default:
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	if g.cells == nil {
		g.cells = ebiten.NewImage(8, 8)
		g.console = ebiten.NewImage(consoleWidth, consoleHeight)
		g.pix = make([]byte, 8*8*4)
		g.rgba = make([]byte, consoleWidth*consoleHeight*4)
	}

	var f glyph.Frame
	if g.h.chip != nil {
		f = g.h.chip.Visible()
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			px := colorDark
			if f[c]&(1<<uint(r)) != 0 {
				px = colorLit
			}
			i := (r*8 + c) * 4
			g.pix[i+0], g.pix[i+1], g.pix[i+2], g.pix[i+3] = px.R, px.G, px.B, px.A
		}
	}
	g.cells.WritePixels(g.pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(cellPx, cellPx)
	screen.DrawImage(g.cells, op)

	g.drawStrip(screen)

	g.h.fb.snapshotRGBA(g.rgba)
	g.console.WritePixels(g.rgba)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, consoleY)
	screen.DrawImage(g.console, op)
}

// drawStrip shows the start line, stop line and LED between matrix and
// console.
func (g *hostGame) drawStrip(screen *ebiten.Image) {
	strip := screen.SubImage(rectAt(0, matrixPx, windowW, stripPx)).(*ebiten.Image)
	strip.Fill(colorStrip)

	var start, stop bool
	if g.h.wave != nil {
		start, stop = g.h.wave.levels(g.h.counter.clk.Now())
	}
	for i, on := range []bool{start, stop, g.h.led.On()} {
		c := colorIdle
		if on {
			c = colorLine
		}
		box := screen.SubImage(rectAt(4+i*20, matrixPx+4, 12, 8)).(*ebiten.Image)
		box.Fill(c)
	}
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowW, windowH
}

func rectAt(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}
