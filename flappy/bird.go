package flappy

// Bird is the controllable agent. X never changes; the world scrolls past it.
type Bird struct {
	X         float64
	Y         float64
	Velocity  float64
	TickCount int     // frames since the last jump
	Height    float64 // y at the last jump

	// Cosmetic state for renderers.
	Tilt     float64
	ImgCount int

	wing int
	cfg  *BirdConfig
	mask *Mask // nil means solid
}

// NewBird places a bird at (x, y) at rest.
func NewBird(x, y float64, cfg *BirdConfig) *Bird {
	return &Bird{
		X:      x,
		Y:      y,
		Height: y,
		cfg:    cfg,
	}
}

// Jump applies the upward impulse and restarts the fall clock.
func (b *Bird) Jump() {
	b.Velocity = b.cfg.JumpVelocity
	b.TickCount = 0
	b.Height = b.Y
}

// Displacement returns the vertical move for a given tick count and impulse.
func (b *Bird) Displacement(tick int) float64 {
	t := float64(tick)
	d := b.Velocity*t + b.cfg.Acceleration*t*t
	if d >= b.cfg.TerminalDisplacement {
		d = b.cfg.TerminalDisplacement
	}
	if d < 0 {
		d -= b.cfg.RiseBias
	}
	return d
}

// Advance moves the bird one frame and returns the applied displacement.
func (b *Bird) Advance() float64 {
	b.TickCount++
	d := b.Displacement(b.TickCount)
	b.Y += d

	if d < 0 || b.Y < b.Height+50 {
		if b.Tilt < b.cfg.MaxRotation {
			b.Tilt = b.cfg.MaxRotation
		}
	} else if b.Tilt > -90 {
		b.Tilt -= b.cfg.RotationVelocity
	}

	b.flap()
	return d
}

// flap steps the wing cycle 0,1,2,1,0. The frame is held for one extra tick
// at the end of the cycle; a diving bird glides with its wings level.
func (b *Bird) flap() {
	at := b.cfg.AnimationTime
	b.ImgCount++
	switch {
	case b.ImgCount < at:
		b.wing = 0
	case b.ImgCount < at*2:
		b.wing = 1
	case b.ImgCount < at*3:
		b.wing = 2
	case b.ImgCount < at*4:
		b.wing = 1
	case b.ImgCount == at*4+1:
		b.wing = 0
		b.ImgCount = 0
	}
	if b.Tilt <= -80 {
		b.wing = 1
		b.ImgCount = at * 2
	}
}

// Bounds returns the bird's bounding box on the pixel grid.
func (b *Bird) Bounds() Rect {
	return rectAt(b.X, b.Y, b.cfg.Width, b.cfg.Height)
}

// Shape returns the placed collision shape of the bird.
func (b *Bird) Shape() Shape {
	return Shape{Box: b.Bounds(), Mask: b.mask}
}

// SetMask replaces the collision mask, e.g. with one built by MaskFromImage.
func (b *Bird) SetMask(m *Mask) { b.mask = m }

// WingFrame returns the flap sprite index 0..2 chosen by the last Advance.
func (b *Bird) WingFrame() int { return b.wing }
