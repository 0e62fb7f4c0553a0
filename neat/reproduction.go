package neat

import (
	"cmp"
	"log/slog"
	"math"
	"math/rand"
	"slices"
)

// Reproduction creates genomes, either from scratch or by crossover and
// mutation of the survivors of each species.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][2]int // genome key -> parent keys; elites and founders are absent
	Stagnation    *Stagnation

	reporters *ReporterSet
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, reporters *ReporterSet) *Reproduction {
	if reporters == nil {
		reporters = &ReporterSet{}
	}
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][2]int),
		Stagnation:    stagnation,
		reporters:     reporters,
	}
}

func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates popSize genomes configured from scratch.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
	}
	return genomes
}

// ComputeSpawn returns how many offspring each species gets. Each species
// moves halfway from its previous size towards its fitness-proportional
// share, and the result is normalized to popSize.
func ComputeSpawn(adjustedFitness []float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	afSum := Sum(adjustedFitness)
	spawn := make([]int, len(adjustedFitness))
	total := 0
	for i, af := range adjustedFitness {
		s := float64(minSpeciesSize)
		if afSum > 0 {
			s = math.Max(s, af/afSum*float64(popSize))
		}
		ps := previousSizes[i]
		d := (s - float64(ps)) * 0.5
		c := int(math.RoundToEven(d))
		n := ps
		switch {
		case c != 0:
			n += c
		case d > 0:
			n++
		case d < 0:
			n--
		}
		spawn[i] = n
		total += n
	}

	norm := float64(popSize) / float64(max(total, 1))
	for i, n := range spawn {
		spawn[i] = max(minSpeciesSize, int(math.RoundToEven(float64(n)*norm)))
	}
	return spawn
}

// Reproduce drops stagnant species and breeds the next population from the
// rest. Species with offspring are kept in speciesSet with their members
// cleared until the next Speciate. An empty result means complete extinction.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize, generation int, rng *rand.Rand) map[int]*Genome {
	var allFitnesses []float64
	var remaining []*Species
	for _, info := range r.Stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			r.reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			continue
		}
		allFitnesses = append(allFitnesses, info.Species.GetFitnesses()...)
		remaining = append(remaining, info.Species)
	}

	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return map[int]*Genome{}
	}

	minFitness := MinFloat(allFitnesses)
	fitnessRange := math.Max(1.0, MaxFloat(allFitnesses)-minFitness)

	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	for i, sp := range remaining {
		sp.AdjustedFitness = (Mean(sp.GetFitnesses()) - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}
	logger().Debug("average adjusted fitness", slog.Float64("value", Mean(adjusted)))

	minSpeciesSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := ComputeSpawn(adjusted, previousSizes, popSize, minSpeciesSize)

	population := make(map[int]*Genome, popSize)
	speciesSet.Species = make(map[int]*Species, len(remaining))
	for i, sp := range remaining {
		spawn := max(spawnAmounts[i], r.Config.Elitism)

		oldMembers := make([]*Genome, 0, len(sp.Members))
		for _, g := range sp.Members {
			oldMembers = append(oldMembers, g)
		}
		slices.SortFunc(oldMembers, func(a, b *Genome) int {
			if c := cmp.Compare(b.Fitness, a.Fitness); c != 0 {
				return c
			}
			return cmp.Compare(a.Key, b.Key)
		})
		sp.Members = make(map[int]*Genome)
		speciesSet.Species[sp.Key] = sp

		for _, elite := range oldMembers[:min(r.Config.Elitism, len(oldMembers))] {
			population[elite.Key] = elite
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		parents := oldMembers[:min(max(cutoff, 2), len(oldMembers))]

		for ; spawn > 0; spawn-- {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]
			key := r.getNextKey()
			child := NewGenome(key, &config.Genome)
			child.ConfigureCrossover(p1, p2)
			child.Mutate()
			population[key] = child
			r.Ancestors[key] = [2]int{p1.Key, p2.Key}
		}
	}

	if len(population) != popSize {
		logger().Debug("population size drifted", slog.Int("size", len(population)), slog.Int("target", popSize))
	}
	return population
}
