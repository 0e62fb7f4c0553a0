// Package raylib draws the game in a desktop window. The window itself needs
// cgo and is only built with the raylib build tag; without it, Open reports
// that windowed rendering is unavailable.
package raylib

import (
	"fmt"

	"github.com/baldhumanity/flappy-neat/flappy"
)

// Box is an axis-aligned rectangle in window pixels.
type Box struct {
	X, Y, W, H float32
}

// Scene is the list of boxes to draw for one frame, back to front.
type Scene struct {
	Pipes  []Box
	Ground []Box
	Birds  []BirdBox
	Status string
}

// BirdBox is a bird sprite rectangle with its cosmetic rotation in degrees.
type BirdBox struct {
	Box
	Tilt      float32
	WingFrame int
}

// Layout converts a frame to window boxes. The window uses world pixels, so
// only pipe extents and ground tiles need deriving.
func Layout(f flappy.Frame) Scene {
	cfg := f.Config
	pw, ph := float32(cfg.Pipe.Width), float32(cfg.Pipe.Height)
	s := Scene{
		Pipes:  make([]Box, 0, 2*len(f.Pipes)),
		Birds:  make([]BirdBox, 0, len(f.Birds)),
		Status: statusLine(f),
	}
	for _, p := range f.Pipes {
		s.Pipes = append(s.Pipes,
			Box{X: float32(p.X), Y: float32(p.Top), W: pw, H: ph},
			Box{X: float32(p.X), Y: float32(p.GapBottom), W: pw, H: ph},
		)
	}
	groundH := float32(float64(cfg.Window.Height) - cfg.Base.Y)
	bw := float32(cfg.Base.Width)
	s.Ground = []Box{
		{X: float32(f.BaseX1), Y: float32(cfg.Base.Y), W: bw, H: groundH},
		{X: float32(f.BaseX2), Y: float32(cfg.Base.Y), W: bw, H: groundH},
	}
	bwid, bhei := float32(cfg.Bird.Width), float32(cfg.Bird.Height)
	for _, b := range f.Birds {
		s.Birds = append(s.Birds, BirdBox{
			Box:       Box{X: float32(b.X), Y: float32(b.Y), W: bwid, H: bhei},
			Tilt:      float32(b.Tilt),
			WingFrame: b.WingFrame,
		})
	}
	return s
}

func statusLine(f flappy.Frame) string {
	return fmt.Sprintf("Gen: %d  Score: %d  Alive: %d", f.Generation, f.Score, f.Alive)
}
