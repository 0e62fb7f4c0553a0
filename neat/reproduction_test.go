package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSpawn(t *testing.T) {
	tests := []struct {
		name     string
		adjusted []float64
		previous []int
		popSize  int
		minSize  int
		want     []int
	}{
		{"moves halfway to share", []float64{1, 0}, []int{5, 5}, 10, 2, []int{7, 3}},
		{"steady", []float64{0.5, 0.5}, []int{5, 5}, 10, 1, []int{5, 5}},
		{"no fitness", []float64{0, 0}, []int{3, 3}, 6, 2, []int{3, 3}},
		{"normalized with minimum", []float64{1, 0}, []int{1, 1}, 10, 3, []int{7, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSpawn(tt.adjusted, tt.previous, tt.popSize, tt.minSize))
		})
	}
}

func TestCreateNewPopulation(t *testing.T) {
	cfg := testConfig(t)
	r := NewReproduction(&cfg.Reproduction, nil, nil)
	pop := r.CreateNewPopulation(&cfg.Genome, 4)

	require.Len(t, pop, 4)
	for k := 1; k <= 4; k++ {
		require.Contains(t, pop, k)
		assert.Equal(t, k, pop[k].Key)
		assert.Len(t, pop[k].Connections, 3)
	}
	assert.Equal(t, 5, r.NextGenomeKey)
	assert.Empty(t, r.Ancestors)
}

type stagnantRecorder struct {
	BaseReporter
	stagnant []int
	extinct  int
}

func (r *stagnantRecorder) SpeciesStagnant(sid int, _ *Species) { r.stagnant = append(r.stagnant, sid) }
func (r *stagnantRecorder) CompleteExtinction()                 { r.extinct++ }

func TestReproduceKeepsElitesAndBreedsFromSurvivors(t *testing.T) {
	cfg := testConfig(t)
	st, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	r := NewReproduction(&cfg.Reproduction, st, nil)
	r.NextGenomeKey = 11

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	s := NewSpecies(1, 0)
	for k := 1; k <= 10; k++ {
		g := newTestGenome(t, cfg, k)
		g.Fitness = float64(k)
		s.Members[k] = g
	}
	s.Representative = s.Members[1]
	ss.Species[1] = s

	pop := r.Reproduce(cfg, ss, 10, 0, rand.New(rand.NewSource(1)))
	require.Len(t, pop, 10)
	assert.Contains(t, pop, 10)
	assert.Contains(t, pop, 9)
	assert.Equal(t, 10.0, pop[10].Fitness)
	for k := 11; k <= 18; k++ {
		require.Contains(t, pop, k)
		parents := r.Ancestors[k]
		assert.Subset(t, []int{9, 10}, parents[:])
	}
	assert.Equal(t, 19, r.NextGenomeKey)
	assert.Empty(t, ss.Species[1].Members)
	assert.Equal(t, 0.5, ss.Species[1].AdjustedFitness)
}

func TestReproduceReportsExtinction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stagnation.MaxStagnation = 1
	cfg.Stagnation.SpeciesElitism = 0
	st, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	rec := &stagnantRecorder{}
	reporters := &ReporterSet{}
	reporters.Add(rec)
	r := NewReproduction(&cfg.Reproduction, st, reporters)

	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Species[1] = speciesWith(1, []float64{100}, 1, 2)
	ss.Species[2] = speciesWith(2, []float64{100}, 3)

	pop := r.Reproduce(cfg, ss, 10, 5, rand.New(rand.NewSource(1)))
	assert.Empty(t, pop)
	assert.Empty(t, ss.Species)
	assert.Equal(t, []int{1, 2}, rec.stagnant)
}
