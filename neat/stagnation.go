package neat

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("%w: invalid species_fitness_func: %s", ErrInvalidConfig, config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn}, nil
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update recomputes every species' fitness, records it in its history and
// reports which species are stagnant, least fit first. A species is stagnant
// when it has not improved for max_stagnation generations, unless it is among
// the species_elitism fittest or marking it would leave no more than
// species_elitism non-stagnant species.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	data := make([]*Species, 0, len(speciesSet.Species))
	for _, sid := range speciesSet.SpeciesKeys() {
		sp := speciesSet.Species[sid]
		prev := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			prev = MaxFloat(sp.FitnessHistory)
		}
		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > prev {
			sp.LastImproved = generation
		}
		data = append(data, sp)
	}

	slices.SortStableFunc(data, func(a, b *Species) int { return cmp.Compare(a.Fitness, b.Fitness) })

	result := make([]StagnationInfo, len(data))
	nonStagnant := len(data)
	for i, sp := range data {
		stagnant := false
		if nonStagnant > s.Config.SpeciesElitism {
			stagnant = generation-sp.LastImproved >= s.Config.MaxStagnation
		}
		if len(data)-i <= s.Config.SpeciesElitism {
			stagnant = false
		}
		if stagnant {
			nonStagnant--
		}
		result[i] = StagnationInfo{SpeciesID: sp.Key, Species: sp, IsStagnant: stagnant}
	}
	return result
}
