package flappy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
)

// State is the episode state machine.
type State int

const (
	Running State = iota
	AllAgentsDead
	ScoreCapReached
	ExternalStop
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AllAgentsDead:
		return "all_agents_dead"
	case ScoreCapReached:
		return "score_cap_reached"
	case ExternalStop:
		return "external_stop"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminated reports whether s is a final state.
func (s State) Terminated() bool { return s != Running }

// Entrant is one member of the population entering an episode.
type Entrant struct {
	ID         int
	Controller Controller
	Fitness    *float64 // owned by the optimizer; the episode only adds deltas
}

// Competitor is a live bird together with its controller and fitness accumulator.
type Competitor struct {
	ID         int
	Bird       *Bird
	Controller Controller
	Fitness    *float64

	retired bool
}

func (c *Competitor) reward(delta float64) {
	if c.Fitness != nil {
		*c.Fitness += delta
	}
}

// Options carries the collaborators of an episode. Zero values are usable.
type Options struct {
	Generation int
	Rand       *rand.Rand // seeds pipe gaps; time-seeded when nil
	Masks      Masks      // applied to every bird and pipe the episode spawns
	Collider   Collider   // MaskCollider when Masks has any mask, else BoxCollider
	Renderer   Renderer
	Pacer      Pacer
	Observer   Observer
	Logger     *slog.Logger
}

// EpisodeResult summarises a finished episode.
type EpisodeResult struct {
	Generation int
	State      State
	Score      int
	Ticks      int
	Survivors  int
	Entrants   int
	Duration   time.Duration
	Err        error // renderer or pacer error that ended the episode, if any
}

// LogValue implements slog.LogValuer.
func (r EpisodeResult) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", r.Generation),
		slog.String("state", r.State.String()),
		slog.Int("score", r.Score),
		slog.String("ticks", humanize.Comma(int64(r.Ticks))),
		slog.Int("survivors", r.Survivors),
		slog.Int("entrants", r.Entrants),
		slog.Duration("duration", r.Duration),
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Environment runs one episode: a shared set of pipes and a population of birds.
type Environment struct {
	cfg  *Config
	opts Options
	log  *slog.Logger

	competitors []*Competitor
	pipes       []*Pipe
	base        *Base

	score    int
	tick     int
	entrants int
	state    State
}

// NewEnvironment validates cfg and sets up an episode with one bird per entrant
// at the spawn point and a single pipe at the configured spawn offset.
func NewEnvironment(cfg *Config, entrants []Entrant, opts Options) (*Environment, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Collider == nil {
		opts.Collider = BoxCollider{}
		if !opts.Masks.Empty() {
			opts.Collider = MaskCollider{}
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Environment{
		cfg:         cfg,
		opts:        opts,
		log:         opts.Logger.With("generation", opts.Generation),
		competitors: make([]*Competitor, 0, len(entrants)),
		base:        NewBase(&cfg.Base),
		entrants:    len(entrants),
	}
	for _, en := range entrants {
		if en.Controller == nil {
			return nil, fmt.Errorf("entrant %d has no controller", en.ID)
		}
		e.competitors = append(e.competitors, &Competitor{
			ID:         en.ID,
			Bird:       e.spawnBird(),
			Controller: en.Controller,
			Fitness:    en.Fitness,
		})
	}
	e.pipes = []*Pipe{e.spawnPipe(cfg.Pipe.SpawnX)}
	if len(e.competitors) == 0 {
		e.state = AllAgentsDead
	}
	return e, nil
}

func (e *Environment) spawnBird() *Bird {
	b := NewBird(e.cfg.Bird.SpawnX, e.cfg.Bird.SpawnY, &e.cfg.Bird)
	b.SetMask(e.opts.Masks.Bird)
	return b
}

func (e *Environment) spawnPipe(x float64) *Pipe {
	p := NewPipe(x, &e.cfg.Pipe, e.opts.Rand)
	p.SetMasks(e.opts.Masks.PipeTop, e.opts.Masks.PipeBottom)
	return p
}

// State returns the current episode state.
func (e *Environment) State() State { return e.state }

// Score returns the number of pipes passed so far.
func (e *Environment) Score() int { return e.score }

// Tick returns the number of frames stepped.
func (e *Environment) Tick() int { return e.tick }

// Competitors returns the live competitors in index order.
func (e *Environment) Competitors() []*Competitor { return e.competitors }

// Pipes returns the live pipes in spawn order.
func (e *Environment) Pipes() []*Pipe { return e.pipes }

// leadPipe returns the first pipe whose right edge is not yet behind x.
func (e *Environment) leadPipe(x float64) *Pipe {
	for _, p := range e.pipes {
		if p.Right() >= x {
			return p
		}
	}
	if len(e.pipes) > 0 {
		return e.pipes[len(e.pipes)-1]
	}
	return nil
}

// Observe builds the controller input for a bird.
func (e *Environment) Observe(b *Bird) Observation {
	obs := Observation{Y: b.Y}
	if p := e.leadPipe(b.X); p != nil {
		obs.DistTop = math.Abs(b.Y - p.GapTop())
		obs.DistBottom = math.Abs(b.Y - p.GapBottom())
	}
	return obs
}

// decide calls the controller, turning a panic into an error.
func decide(c Controller, obs Observation) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("controller panicked: %v", r)
		}
	}()
	return c.Decide(obs)
}

func (e *Environment) retire(c *Competitor, reason RetireReason) {
	c.retired = true
	if e.opts.Observer != nil {
		e.opts.Observer.OnRetire(c.ID, reason)
	}
}

// Step advances the episode by one frame and returns the resulting state.
// Retired competitors are only marked during the frame and compacted at its end,
// so every competitor that starts a frame is evaluated exactly once.
func (e *Environment) Step() State {
	if e.state != Running {
		return e.state
	}
	e.tick++
	fit := &e.cfg.Fitness

	// Controllers in index order. Each decides from its bird's position at
	// the start of the frame.
	for _, c := range e.competitors {
		out, err := decide(c.Controller, e.Observe(c.Bird))
		c.Bird.Advance()
		c.reward(fit.SurvivalBonus)
		if err != nil {
			e.log.Warn("controller failed, retiring bird", "id", c.ID, "error", err)
			c.reward(fit.CollisionPenalty)
			e.retire(c, RetireControllerFault)
			continue
		}
		if out > fit.DecisionThreshold {
			c.Bird.Jump()
			if e.opts.Observer != nil {
				e.opts.Observer.OnJump(c.ID)
			}
		}
	}

	// Collisions and passes.
	addPipe := false
	for _, p := range e.pipes {
		for _, c := range e.competitors {
			if !c.retired && p.Intersects(c.Bird, e.opts.Collider) {
				c.reward(fit.CollisionPenalty)
				e.retire(c, RetireCollision)
			}
			if !p.Passed && p.Behind(c.Bird.X) {
				p.Passed = true
				addPipe = true
			}
		}
		p.Advance()
	}

	kept := e.pipes[:0]
	for _, p := range e.pipes {
		if !p.Offscreen() {
			kept = append(kept, p)
		}
	}
	clear(e.pipes[len(kept):])
	e.pipes = kept

	if addPipe {
		e.score++
		for _, c := range e.competitors {
			if !c.retired {
				c.reward(fit.PassBonus)
			}
		}
		e.pipes = append(e.pipes, e.spawnPipe(e.cfg.Pipe.RespawnX))
		if e.opts.Observer != nil {
			e.opts.Observer.OnScore(e.score)
		}
	}

	ground := e.cfg.Base.Y - float64(e.cfg.Bird.Height)
	for _, c := range e.competitors {
		if !c.retired && (c.Bird.Y >= ground || c.Bird.Y < e.cfg.Episode.Ceiling) {
			e.retire(c, RetireOutOfBounds)
		}
	}

	e.base.Advance()
	e.compact()

	switch {
	case len(e.competitors) == 0:
		e.state = AllAgentsDead
	case e.score > e.cfg.Episode.ScoreCap:
		e.state = ScoreCapReached
	}
	return e.state
}

// compact drops retired competitors, keeping index order.
func (e *Environment) compact() {
	kept := e.competitors[:0]
	for _, c := range e.competitors {
		if !c.retired {
			kept = append(kept, c)
		}
	}
	clear(e.competitors[len(kept):])
	e.competitors = kept
}

// Stop terminates a running episode with ExternalStop.
func (e *Environment) Stop() {
	if e.state == Running {
		e.state = ExternalStop
	}
}

// Run steps the episode until it terminates or ctx is done. Each frame is paced
// and rendered when a Pacer or Renderer is configured.
func (e *Environment) Run(ctx context.Context) EpisodeResult {
	start := time.Now()
	var runErr error
	if e.opts.Renderer != nil && e.state == Running {
		runErr = e.opts.Renderer.Render(e.Frame())
	}
	for e.state == Running && runErr == nil {
		if ctx.Err() != nil {
			break
		}
		if e.opts.Pacer != nil {
			if err := e.opts.Pacer.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}
		e.Step()
		if e.opts.Renderer != nil {
			runErr = e.opts.Renderer.Render(e.Frame())
		}
	}
	if e.state == Running {
		e.Stop()
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, ErrStop) {
		e.log.Warn("episode interrupted", "error", runErr)
	}

	res := EpisodeResult{
		Generation: e.opts.Generation,
		State:      e.state,
		Score:      e.score,
		Ticks:      e.tick,
		Survivors:  len(e.competitors),
		Entrants:   e.entrants,
		Duration:   time.Since(start),
		Err:        runErr,
	}
	if res.Err == nil && res.State == ExternalStop {
		res.Err = ctx.Err()
	}
	e.log.Debug("episode finished", "result", res)
	return res
}

// Frame snapshots the episode for renderers.
func (e *Environment) Frame() Frame {
	f := Frame{
		Config:     e.cfg,
		Birds:      make([]BirdView, 0, len(e.competitors)),
		Pipes:      make([]PipeView, 0, len(e.pipes)),
		BaseX1:     e.base.X1,
		BaseX2:     e.base.X2,
		Score:      e.score,
		Generation: e.opts.Generation,
		Tick:       e.tick,
		Alive:      len(e.competitors),
		State:      e.state,
	}
	for _, c := range e.competitors {
		f.Birds = append(f.Birds, BirdView{
			ID:        c.ID,
			X:         c.Bird.X,
			Y:         c.Bird.Y,
			Tilt:      c.Bird.Tilt,
			WingFrame: c.Bird.WingFrame(),
		})
	}
	for _, p := range e.pipes {
		f.Pipes = append(f.Pipes, PipeView{
			X:         p.X,
			Top:       p.Top,
			GapTop:    p.GapTop(),
			GapBottom: p.GapBottom(),
			Passed:    p.Passed,
		})
	}
	return f
}
