package flappy

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"math/rand"
	"slices"

	"github.com/baldhumanity/flappy-neat/neat"
	"github.com/baldhumanity/flappy-neat/neat/nn"
)

// ErrNoGenomes is returned when a generation has nothing to evaluate.
var ErrNoGenomes = errors.New("no genomes to evaluate")

// Evaluator flies one bird per genome through a shared episode and writes
// each genome's accumulated fitness. Evaluate satisfies neat.FitnessFunc.
type Evaluator struct {
	Config   *Config
	Rand     *rand.Rand
	Masks    Masks
	Collider Collider
	Renderer Renderer
	Pacer    Pacer
	Observer Observer
	Logger   *slog.Logger

	// Last is the result of the most recent episode.
	Last EpisodeResult
}

// Evaluate runs one episode for the given generation. Genomes are entered in
// key order and start at fitness 0. A genome whose network cannot be built
// keeps fitness 0 and does not fly. A stopped episode returns ctx.Err(), or
// ErrStop when the renderer asked to quit; fitness written so far is kept.
func (ev *Evaluator) Evaluate(ctx context.Context, generation int, genomes map[int]*neat.Genome, _ *neat.Config) error {
	if len(genomes) == 0 {
		return ErrNoGenomes
	}
	log := ev.Logger
	if log == nil {
		log = slog.Default()
	}

	entrants := make([]Entrant, 0, len(genomes))
	for _, key := range slices.Sorted(maps.Keys(genomes)) {
		g := genomes[key]
		g.Fitness = 0
		net, err := nn.CreateFeedForwardNetwork(g)
		if err != nil {
			log.Warn("failed to create network, genome sits out", "genome", key, "error", err)
			continue
		}
		entrants = append(entrants, Entrant{
			ID:         key,
			Controller: NetworkController{Net: net},
			Fitness:    &g.Fitness,
		})
	}

	env, err := NewEnvironment(ev.Config, entrants, Options{
		Generation: generation,
		Rand:       ev.Rand,
		Masks:      ev.Masks,
		Collider:   ev.Collider,
		Renderer:   ev.Renderer,
		Pacer:      ev.Pacer,
		Observer:   ev.Observer,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	ev.Last = env.Run(ctx)
	log.Info("episode finished", "result", ev.Last)
	if ev.Last.State != ExternalStop {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.Last.Err != nil {
		return ev.Last.Err
	}
	return ErrStop
}
