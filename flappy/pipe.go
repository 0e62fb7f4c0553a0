package flappy

import "math/rand"

// Pipe is a top/bottom barrier pair with a gap of fixed size.
type Pipe struct {
	X      float64
	Height float64 // y where the top barrier ends, i.e. the top of the gap
	Top    float64 // y of the top barrier sprite
	Bottom float64 // y of the bottom barrier sprite, i.e. the bottom of the gap
	Passed bool

	cfg              *PipeConfig
	topMask, botMask *Mask
}

// NewPipe spawns a pipe at x with a random gap position.
func NewPipe(x float64, cfg *PipeConfig, rng *rand.Rand) *Pipe {
	p := &Pipe{X: x, cfg: cfg}
	p.SetHeight(float64(cfg.MinHeight + rng.Intn(cfg.MaxHeight-cfg.MinHeight)))
	return p
}

// SetHeight moves the gap so that it starts at y.
func (p *Pipe) SetHeight(y float64) {
	p.Height = y
	p.Top = y - float64(p.cfg.Height)
	p.Bottom = y + p.cfg.Gap
}

// SetMasks overrides the solid default shapes of both barriers.
func (p *Pipe) SetMasks(top, bottom *Mask) {
	p.topMask, p.botMask = top, bottom
}

// Advance scrolls the pipe left by the shared velocity.
func (p *Pipe) Advance() { p.X -= p.cfg.Velocity }

// GapTop returns the top edge of the gap.
func (p *Pipe) GapTop() float64 { return p.Height }

// GapBottom returns the bottom edge of the gap.
func (p *Pipe) GapBottom() float64 { return p.Bottom }

// Right returns the x-coordinate of the pipe's right edge.
func (p *Pipe) Right() float64 { return p.X + float64(p.cfg.Width) }

// TopShape returns the placed collision shape of the top barrier.
func (p *Pipe) TopShape() Shape {
	return Shape{Box: rectAt(p.X, p.Top, p.cfg.Width, p.cfg.Height), Mask: p.topMask}
}

// BottomShape returns the placed collision shape of the bottom barrier.
func (p *Pipe) BottomShape() Shape {
	return Shape{Box: rectAt(p.X, p.Bottom, p.cfg.Width, p.cfg.Height), Mask: p.botMask}
}

// Intersects reports whether the bird touches either barrier.
func (p *Pipe) Intersects(b *Bird, c Collider) bool {
	bird := b.Shape()
	return c.Overlap(bird, p.BottomShape()) || c.Overlap(bird, p.TopShape())
}

// Behind reports whether the pipe has moved left of x.
func (p *Pipe) Behind(x float64) bool { return p.X < x }

// Offscreen reports whether the pipe has fully left the screen.
func (p *Pipe) Offscreen() bool { return p.Right() < 0 }
