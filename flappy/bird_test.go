package flappy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirdFreeFallIsCappedAtTerminalDisplacement(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(cfg.Bird.SpawnX, cfg.Bird.SpawnY, &cfg.Bird)

	var moves []float64
	for i := 0; i < 5; i++ {
		moves = append(moves, b.Advance())
	}
	assert.Equal(t, []float64{1.5, 6, 13.5, 16, 16}, moves)
	assert.Equal(t, cfg.Bird.SpawnY+1.5+6+13.5+16+16, b.Y)
	assert.Equal(t, 5, b.TickCount)
	assert.Equal(t, cfg.Bird.SpawnX, b.X)
}

func TestBirdJumpResetsFallClock(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(cfg.Bird.SpawnX, 400, &cfg.Bird)
	b.Advance()
	b.Advance()

	b.Jump()
	assert.Equal(t, cfg.Bird.JumpVelocity, b.Velocity)
	assert.Zero(t, b.TickCount)
	assert.Equal(t, b.Y, b.Height)
}

func TestBirdRisingGetsExtraLift(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(cfg.Bird.SpawnX, 400, &cfg.Bird)
	b.Jump()

	// -10.5*t + 1.5*t^2, minus the rise bias while negative.
	assert.Equal(t, -11.0, b.Advance())
	assert.Equal(t, -17.0, b.Advance())
	assert.Equal(t, 372.0, b.Y)

	assert.Equal(t, 0.0, b.Displacement(7))
	assert.Equal(t, 12.0, b.Displacement(8))
}

func TestBirdWingFrameCycles(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 5, cfg.Bird.AnimationTime)
	b := NewBird(cfg.Bird.SpawnX, 400, &cfg.Bird)
	assert.Zero(t, b.WingFrame())

	// Jumping every frame keeps the bird tilted up and out of the glide.
	var frames []int
	for i := 0; i < 22; i++ {
		b.Jump()
		b.Advance()
		frames = append(frames, b.WingFrame())
		if i == 20 {
			assert.Zero(t, b.ImgCount, "cycle restarts after 4*AnimationTime+1 ticks")
		}
	}
	assert.Equal(t, []int{
		0, 0, 0, 0,
		1, 1, 1, 1, 1,
		2, 2, 2, 2, 2,
		1, 1, 1, 1, 1,
		1, // tick 20 holds the previous frame
		0, 0,
	}, frames)
}

func TestBirdGlidesWhileDiving(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(cfg.Bird.SpawnX, 0, &cfg.Bird)

	for i := 0; i < 50 && b.Tilt > -80; i++ {
		b.Advance()
	}
	require.LessOrEqual(t, b.Tilt, -80.0)
	assert.Equal(t, 1, b.WingFrame())
	assert.Equal(t, cfg.Bird.AnimationTime*2, b.ImgCount)

	b.Advance()
	assert.Equal(t, 1, b.WingFrame(), "wings stay level for the whole dive")
	assert.Equal(t, cfg.Bird.AnimationTime*2, b.ImgCount)
}

func TestBirdTiltsUpWhileRising(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(cfg.Bird.SpawnX, 400, &cfg.Bird)
	b.Jump()
	b.Advance()
	assert.Equal(t, cfg.Bird.MaxRotation, b.Tilt)

	for i := 0; i < 30; i++ {
		b.Advance()
	}
	require.Greater(t, b.Y, b.Height+50)
	assert.Less(t, b.Tilt, cfg.Bird.MaxRotation)
	assert.GreaterOrEqual(t, b.Tilt, -90-cfg.Bird.RotationVelocity)
}

func TestBirdBoundsRoundToPixels(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBird(230.4, 350.6, &cfg.Bird)
	assert.Equal(t, Rect{X: 230, Y: 351, W: cfg.Bird.Width, H: cfg.Bird.Height}, b.Bounds())
	assert.Nil(t, b.Shape().Mask)

	m := FilledMask(cfg.Bird.Width, cfg.Bird.Height)
	b.SetMask(m)
	assert.Same(t, m, b.Shape().Mask)
}

func TestBaseTilesLeapfrog(t *testing.T) {
	cfg := DefaultConfig()
	base := NewBase(&cfg.Base)
	w := float64(cfg.Base.Width)

	steps := int(w/cfg.Base.Velocity) + 1
	for i := 0; i < steps; i++ {
		base.Advance()
	}
	assert.Equal(t, base.X2+w, base.X1)
	assert.Equal(t, cfg.Base.Y, base.Y)
}
