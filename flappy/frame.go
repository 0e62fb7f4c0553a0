package flappy

import (
	"context"
	"errors"
	"time"
)

// ErrStop is returned by a Renderer when the user asked to close the game.
var ErrStop = errors.New("stop requested")

// BirdView is the renderable state of one live bird.
type BirdView struct {
	ID        int
	X, Y      float64
	Tilt      float64
	WingFrame int
}

// PipeView is the renderable state of one pipe.
type PipeView struct {
	X         float64
	Top       float64
	GapTop    float64
	GapBottom float64
	Passed    bool
}

// Frame is the per-frame snapshot handed to a Renderer.
type Frame struct {
	Config     *Config
	Birds      []BirdView
	Pipes      []PipeView
	BaseX1     float64
	BaseX2     float64
	Score      int
	Generation int
	Tick       int
	Alive      int
	State      State
}

// Renderer draws one frame. Returning ErrStop ends the episode.
type Renderer interface {
	Render(f Frame) error
}

// Pacer bounds the loop to a frame interval.
type Pacer interface {
	Wait(ctx context.Context) error
}

// TickerPacer paces frames with a time.Ticker.
type TickerPacer struct {
	t *time.Ticker
}

// NewTickerPacer returns a pacer that releases fps frames per second.
func NewTickerPacer(fps int) *TickerPacer {
	return &TickerPacer{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// Wait blocks until the next tick or until ctx is done.
func (p *TickerPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.t.C:
		return nil
	}
}

// Stop releases the ticker.
func (p *TickerPacer) Stop() { p.t.Stop() }

// NopPacer never waits. Training runs unpaced.
type NopPacer struct{}

// Wait returns ctx.Err().
func (NopPacer) Wait(ctx context.Context) error { return ctx.Err() }

// Observer is notified of gameplay events, e.g. to play sounds.
type Observer interface {
	OnJump(id int)
	OnScore(score int)
	OnRetire(id int, reason RetireReason)
}

// RetireReason says why a bird left the episode.
type RetireReason int

const (
	RetireCollision RetireReason = iota
	RetireOutOfBounds
	RetireControllerFault
)

func (r RetireReason) String() string {
	switch r {
	case RetireCollision:
		return "collision"
	case RetireOutOfBounds:
		return "out_of_bounds"
	case RetireControllerFault:
		return "controller_fault"
	}
	return "unknown"
}
