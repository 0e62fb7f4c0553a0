//go:build raylib

package raylib

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/baldhumanity/flappy-neat/flappy"
)

var (
	skyColor    = rl.Color{R: 113, G: 197, B: 207, A: 255}
	pipeColor   = rl.Color{R: 94, G: 173, B: 58, A: 255}
	pipeEdge    = rl.Color{R: 55, G: 110, B: 35, A: 255}
	groundColor = rl.Color{R: 222, G: 216, B: 149, A: 255}
	groundEdge  = rl.Color{R: 140, G: 120, B: 60, A: 255}
)

// birdColors is indexed by wing frame.
var birdColors = [3]rl.Color{
	{R: 250, G: 200, B: 40, A: 255},
	{R: 245, G: 180, B: 30, A: 255},
	{R: 235, G: 160, B: 20, A: 255},
}

// Available reports whether windowed rendering was compiled in.
const Available = true

// Window renders frames into a raylib window. Closing the window, pressing
// Esc or clicking Stop make the next Render return flappy.ErrStop. Space and
// the up arrow press the latch.
//
// raylib must be driven from the goroutine that opened the window.
type Window struct {
	latch   *flappy.Latch
	stopped bool
}

// Open creates a window sized to the world. latch may be nil.
func Open(cfg *flappy.Config, latch *flappy.Latch) (*Window, error) {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "Flappy NEAT")
	rl.SetExitKey(rl.KeyEscape)
	return &Window{latch: latch}, nil
}

// Render implements flappy.Renderer.
func (w *Window) Render(f flappy.Frame) error {
	if w.stopped || rl.WindowShouldClose() {
		w.stopped = true
		return flappy.ErrStop
	}
	if w.latch != nil && (rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyUp)) {
		w.latch.Press()
	}

	s := Layout(f)
	rl.BeginDrawing()
	rl.ClearBackground(skyColor)
	for _, p := range s.Pipes {
		r := rect(p)
		rl.DrawRectangleRec(r, pipeColor)
		rl.DrawRectangleLinesEx(r, 3, pipeEdge)
	}
	for _, g := range s.Ground {
		rl.DrawRectangleRec(rect(g), groundColor)
		rl.DrawLine(int32(g.X), int32(g.Y), int32(g.X+g.W), int32(g.Y), groundEdge)
	}
	for _, b := range s.Birds {
		frame := b.WingFrame
		if frame < 0 || frame >= len(birdColors) {
			frame = 1
		}
		// Rotate about the sprite centre; raylib angles run clockwise.
		r := rl.Rectangle{X: b.X + b.W/2, Y: b.Y + b.H/2, Width: b.W, Height: b.H}
		rl.DrawRectanglePro(r, rl.Vector2{X: b.W / 2, Y: b.H / 2}, -b.Tilt, birdColors[frame])
	}
	rl.DrawText(s.Status, 10, 10, 24, rl.White)
	if gui.Button(rl.Rectangle{X: float32(f.Config.Window.Width) - 90, Y: 10, Width: 80, Height: 28}, "Stop") {
		w.stopped = true
	}
	rl.EndDrawing()
	return nil
}

func rect(b Box) rl.Rectangle {
	return rl.Rectangle{X: b.X, Y: b.Y, Width: b.W, Height: b.H}
}

// Close closes the window.
func (w *Window) Close() { rl.CloseWindow() }
