package raylib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/flappy-neat/flappy"
)

func TestLayout(t *testing.T) {
	cfg := flappy.DefaultConfig()
	f := flappy.Frame{
		Config: cfg,
		Birds:  []flappy.BirdView{{ID: 4, X: 230, Y: 310, Tilt: 25, WingFrame: 2}},
		Pipes: []flappy.PipeView{
			{X: 600, Top: 250 - 640, GapTop: 250, GapBottom: 450},
		},
		BaseX1:     -20,
		BaseX2:     652,
		Score:      7,
		Generation: 12,
		Alive:      9,
	}

	s := Layout(f)

	require.Len(t, s.Pipes, 2)
	assert.Equal(t, Box{X: 600, Y: -390, W: 104, H: 640}, s.Pipes[0])
	assert.Equal(t, Box{X: 600, Y: 450, W: 104, H: 640}, s.Pipes[1])
	assert.Equal(t, s.Pipes[0].Y+s.Pipes[0].H, float32(250), "top pipe ends at the gap")

	require.Len(t, s.Ground, 2)
	assert.Equal(t, Box{X: -20, Y: 730, W: 672, H: 70}, s.Ground[0])
	assert.Equal(t, Box{X: 652, Y: 730, W: 672, H: 70}, s.Ground[1])

	require.Len(t, s.Birds, 1)
	assert.Equal(t, BirdBox{Box: Box{X: 230, Y: 310, W: 68, H: 48}, Tilt: 25, WingFrame: 2}, s.Birds[0])

	assert.Equal(t, "Gen: 12  Score: 7  Alive: 9", s.Status)
}

func TestLayoutEmptyFrame(t *testing.T) {
	s := Layout(flappy.Frame{Config: flappy.DefaultConfig()})
	assert.Empty(t, s.Pipes)
	assert.Empty(t, s.Birds)
	assert.Len(t, s.Ground, 2)
}
