package neat

import (
	"log/slog"
	"maps"
	"math"
	"slices"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // generation the species appeared in
	LastImproved    int // last generation its fitness beat its history
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates a new species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the representative and members.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the member fitnesses in member key order.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, k := range slices.Sorted(maps.Keys(s.Members)) {
		fitnesses = append(fitnesses, s.Members[k].Fitness)
	}
	return fitnesses
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct{ a, b int }

// GenomeDistanceCache memoizes genome distances for one speciation pass.
type GenomeDistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{Distances: make(map[genomePair]float64)}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	key := genomePair{genome1.Key, genome2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := genome1.Distance(genome2)
	dc.Distances[key] = d
	return d
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // next species key, starting at 1
	Config          *SpeciesSetConfig

	// Genetic distance statistics of the last Speciate call.
	DistanceMean  float64
	DistanceStdev float64
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
	}
}

// SpeciesKeys returns species keys in ascending order.
func (ss *SpeciesSet) SpeciesKeys() []int {
	return slices.Sorted(maps.Keys(ss.Species))
}

// Speciate partitions the population into species. Each existing species
// first claims the genome closest to its old representative as its new one;
// every remaining genome then joins the closest species within the
// compatibility threshold or founds a new species.
func (ss *SpeciesSet) Speciate(population map[int]*Genome, generation int) {
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return
	}

	threshold := ss.Config.CompatibilityThreshold
	distances := NewGenomeDistanceCache()

	unspeciated := make(map[int]bool, len(population))
	for k := range population {
		unspeciated[k] = true
	}
	newRepresentatives := make(map[int]int) // species key -> genome key
	newMembers := make(map[int][]int)

	for _, sid := range ss.SpeciesKeys() {
		s := ss.Species[sid]
		if s.Representative == nil {
			logger().Warn("species has no representative", slog.Int("species", sid))
			continue
		}
		best, bestDist := -1, math.Inf(1)
		for _, gid := range slices.Sorted(maps.Keys(unspeciated)) {
			if d := distances.Distance(s.Representative, population[gid]); d < bestDist {
				best, bestDist = gid, d
			}
		}
		if best == -1 {
			break
		}
		newRepresentatives[sid] = best
		newMembers[sid] = []int{best}
		delete(unspeciated, best)
	}

	for _, gid := range slices.Sorted(maps.Keys(unspeciated)) {
		g := population[gid]
		bestSpecies, minDist := -1, math.Inf(1)
		for _, sid := range slices.Sorted(maps.Keys(newRepresentatives)) {
			d := distances.Distance(population[newRepresentatives[sid]], g)
			if d < threshold && d < minDist {
				bestSpecies, minDist = sid, d
			}
		}
		if bestSpecies == -1 {
			bestSpecies = ss.Indexer
			ss.Indexer++
			newRepresentatives[bestSpecies] = gid
		}
		newMembers[bestSpecies] = append(newMembers[bestSpecies], gid)
	}

	species := make(map[int]*Species, len(newRepresentatives))
	genomeToSpecies := make(map[int]int, len(population))
	for sid, rid := range newRepresentatives {
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
			logger().Debug("created species", slog.Int("species", sid), slog.Int("representative", rid))
		}
		members := make(map[int]*Genome, len(newMembers[sid]))
		for _, gid := range newMembers[sid] {
			members[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		s.Update(population[rid], members)
		species[sid] = s
	}
	for sid := range ss.Species {
		if _, ok := species[sid]; !ok {
			logger().Debug("species died out", slog.Int("species", sid))
		}
	}
	ss.Species = species
	ss.GenomeToSpecies = genomeToSpecies

	all := slices.Collect(maps.Values(distances.Distances))
	ss.DistanceMean = Mean(all)
	ss.DistanceStdev = Stdev(all)
}

// GetSpeciesID returns the species ID for a given genome ID.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	return sid, exists
}

// GetSpecies returns the Species object for a given genome ID.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	if !exists {
		return nil, false
	}
	s, exists := ss.Species[sid]
	return s, exists
}
