package flappy

// Base is the scrolling ground, drawn as two tiles that leapfrog each other.
type Base struct {
	Y      float64
	X1, X2 float64

	cfg *BaseConfig
}

// NewBase places the ground at cfg.Y.
func NewBase(cfg *BaseConfig) *Base {
	return &Base{Y: cfg.Y, X1: 0, X2: float64(cfg.Width), cfg: cfg}
}

// Advance scrolls both tiles and wraps the one that left the screen.
func (b *Base) Advance() {
	w := float64(b.cfg.Width)
	b.X1 -= b.cfg.Velocity
	b.X2 -= b.cfg.Velocity
	if b.X1+w < 0 {
		b.X1 = b.X2 + w
	}
	if b.X2+w < 0 {
		b.X2 = b.X1 + w
	}
}
