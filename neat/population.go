package neat

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"time"
)

// ErrExtinct is returned when every species died out and
// reset_on_extinction is off.
var ErrExtinct = errors.New("population extinct")

// FitnessFunc evaluates one generation. It must set the Fitness field of every
// genome in place.
type FitnessFunc func(ctx context.Context, generation int, genomes map[int]*Genome, config *Config) error

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Reporters    *ReporterSet
	Generation   int
	BestGenome   *Genome // copy of the fittest genome seen so far
	Rand         *rand.Rand

	criterion func([]float64) float64
}

// NewPopulation creates and speciates the initial population. All random
// draws come from one source seeded with config.Neat.Seed, or from the clock
// when the seed is 0.
func NewPopulation(config *Config) (*Population, error) {
	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	p.Population = p.Reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize)
	p.SpeciesSet.Speciate(p.Population, p.Generation)
	return p, nil
}

func newPopulation(config *Config) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	criterion, ok := StatFunctions[strings.ToLower(config.Neat.FitnessCriterion)]
	if !ok {
		return nil, fmt.Errorf("%w: unexpected fitness_criterion: %q", ErrInvalidConfig, config.Neat.FitnessCriterion)
	}

	reporters := &ReporterSet{}
	p := &Population{
		Config:       config,
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet),
		Reproduction: NewReproduction(&config.Reproduction, stagnation, reporters),
		Stagnation:   stagnation,
		Reporters:    reporters,
		criterion:    criterion,
	}
	p.Reseed(config.Neat.Seed)
	return p, nil
}

// Reseed replaces the random source shared by reproduction and genome
// operations. A seed of 0 seeds from the clock.
func (p *Population) Reseed(seed int64) {
	p.Config.Neat.Seed = seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p.Rand = rand.New(rand.NewSource(seed))
	p.Config.Genome.SetRand(p.Rand)
}

// AddReporter registers a progress reporter.
func (p *Population) AddReporter(r Reporter) { p.Reporters.Add(r) }

// RemoveReporter unregisters a progress reporter.
func (p *Population) RemoveReporter(r Reporter) { p.Reporters.Remove(r) }

// RunGeneration evaluates the current generation and, unless the fitness
// criterion is met, breeds and speciates the next one. It returns the best
// genome when the criterion is met and nil otherwise. When ctx is done or
// evaluation fails the population is left untouched.
func (p *Population) RunGeneration(ctx context.Context, fitnessFunc FitnessFunc) (*Genome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.Reporters.StartGeneration(p.Generation)

	if err := fitnessFunc(ctx, p.Generation, p.Population, p.Config); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	keys := slices.Sorted(maps.Keys(p.Population))
	var best *Genome
	fitnesses := make([]float64, 0, len(keys))
	for _, k := range keys {
		g := p.Population[k]
		fitnesses = append(fitnesses, g.Fitness)
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)

	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best.Clone()
	}

	if !p.Config.Neat.NoFitnessTermination && len(fitnesses) > 0 {
		if p.criterion(fitnesses) >= p.Config.Neat.FitnessThreshold {
			p.Reporters.FoundSolution(p.Config, p.Generation, best)
			return p.BestGenome, nil
		}
	}

	p.Population = p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation, p.Rand)

	if len(p.SpeciesSet.Species) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return nil, fmt.Errorf("generation %d: %w", p.Generation, ErrExtinct)
		}
		p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
	}

	p.SpeciesSet.Speciate(p.Population, p.Generation)
	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	p.Generation++
	return nil, nil
}

// Run calls RunGeneration up to n times (forever when n <= 0) and returns the
// best genome seen. It stops early when the fitness criterion is met.
func (p *Population) Run(ctx context.Context, fitnessFunc FitnessFunc, n int) (*Genome, error) {
	for k := 0; n <= 0 || k < n; k++ {
		winner, err := p.RunGeneration(ctx, fitnessFunc)
		if err != nil {
			return p.BestGenome, err
		}
		if winner != nil {
			return winner, nil
		}
	}
	if p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}
