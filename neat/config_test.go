package neat

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigINI = `
[NEAT]
fitness_criterion     = max
fitness_threshold     = 3.9
pop_size              = 30
reset_on_extinction   = False
seed                  = 42

[DefaultGenome]
num_inputs              = 3
num_outputs             = 1
num_hidden              = 0
feed_forward            = True  # no recurrent links
initial_connection      = full
activation_default      = sigmoid
activation_options      = sigmoid tanh
aggregation_default     = sum
aggregation_options     = sum
bias_init_mean          = 0.0
bias_init_stdev         = 1.0
bias_max_value          = 30.0
bias_min_value          = -30.0
bias_mutate_power       = 0.5
bias_mutate_rate        = 0.7
bias_replace_rate       = 0.1
response_init_mean      = 1.0
response_init_stdev     = 0.0
response_max_value      = 30.0
response_min_value      = -30.0
weight_init_mean        = 0.0
weight_init_stdev       = 1.0
weight_max_value        = 30
weight_min_value        = -30
weight_mutate_power     = 0.5
weight_mutate_rate      = 0.8
weight_replace_rate     = 0.1
enabled_default         = True
enabled_mutate_rate     = 0.01
conn_add_prob           = 0.5
conn_delete_prob        = 0.5
node_add_prob           = 0.2
node_delete_prob        = 0.2
compatibility_disjoint_coefficient = 1.0
compatibility_weight_coefficient   = 0.5

[DefaultSpeciesSet]
compatibility_threshold = 3.0

[DefaultStagnation]
species_fitness_func = max
max_stagnation       = 20
species_elitism      = 2

[DefaultReproduction]
elitism            = 2
survival_threshold = 0.2
`

// testConfig parses testConfigINI and gives the genome config a fixed source.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(testConfigINI))
	require.NoError(t, err)
	cfg.Genome.SetRand(rand.New(rand.NewSource(1)))
	return cfg
}

func TestParseConfig(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, 30, cfg.Neat.PopSize)
	assert.Equal(t, "max", cfg.Neat.FitnessCriterion)
	assert.Equal(t, 3.9, cfg.Neat.FitnessThreshold)
	assert.Equal(t, int64(42), cfg.Neat.Seed)
	assert.False(t, cfg.Neat.ResetOnExtinction)

	g := cfg.Genome
	assert.True(t, g.FeedForward)
	assert.Equal(t, []string{"sigmoid", "tanh"}, g.ActivationOptions)
	assert.Equal(t, []string{"sum"}, g.AggregationOptions)
	assert.Equal(t, []int{-1, -2, -3}, g.InputKeys)
	assert.Equal(t, []int{0}, g.OutputKeys)
	assert.Equal(t, 1, g.NodeKeyIndex)
	assert.Equal(t, "full", g.InitialConnection)
	assert.Equal(t, 1.0, g.ConnectionFraction())

	assert.Equal(t, 2, cfg.Reproduction.Elitism)
	assert.Equal(t, 1, cfg.Reproduction.MinSpeciesSize)
	assert.Equal(t, 2, cfg.Stagnation.SpeciesElitism)
	assert.Equal(t, 3.0, cfg.SpeciesSet.CompatibilityThreshold)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[NEAT]
pop_size = 5
[DefaultGenome]
num_inputs = 2
num_outputs = 2
activation_options = relu
aggregation_options = sum
`))
	require.NoError(t, err)

	assert.Equal(t, "max", cfg.Neat.FitnessCriterion)
	assert.Equal(t, "unconnected", cfg.Genome.InitialConnection)
	assert.Equal(t, "gaussian", cfg.Genome.WeightInitType)
	assert.Equal(t, "random", cfg.Genome.ActivationDefault)
	assert.Equal(t, "True", cfg.Genome.EnabledDefault)
	assert.Equal(t, "default", cfg.Genome.StructuralMutationSurer)
	assert.Equal(t, 0.2, cfg.Reproduction.SurvivalThreshold)
	assert.Equal(t, 15, cfg.Stagnation.MaxStagnation)
	assert.Equal(t, "mean", cfg.Stagnation.SpeciesFitnessFunc)
	assert.Equal(t, []int{0, 1}, cfg.Genome.OutputKeys)
	assert.Equal(t, 2, cfg.Genome.NodeKeyIndex)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero population", func(c *Config) { c.Neat.PopSize = 0 }},
		{"stdev criterion", func(c *Config) { c.Neat.FitnessCriterion = "stdev" }},
		{"unknown criterion", func(c *Config) { c.Neat.FitnessCriterion = "best" }},
		{"unknown species fitness", func(c *Config) { c.Stagnation.SpeciesFitnessFunc = "best" }},
		{"unknown activation", func(c *Config) { c.Genome.ActivationOptions = []string{"swish"} }},
		{"unknown aggregation", func(c *Config) { c.Genome.AggregationOptions = []string{"norm"} }},
		{"no inputs", func(c *Config) { c.Genome.NumInputs = 0 }},
		{"weight range", func(c *Config) { c.Genome.WeightMaxValue = -100 }},
		{"probability", func(c *Config) { c.Genome.ConnAddProb = 1.5 }},
		{"survival threshold", func(c *Config) { c.Reproduction.SurvivalThreshold = 2 }},
		{"initial connection", func(c *Config) { c.Genome.InitialConnection = "dense" }},
		{"partial without fraction", func(c *Config) { c.Genome.InitialConnection = "partial" }},
		{"partial fraction range", func(c *Config) { c.Genome.InitialConnection = "partial 1.5" }},
		{"surer", func(c *Config) { c.Genome.StructuralMutationSurer = "maybe" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestPartialInitialConnection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Genome.InitialConnection = "partial_direct 0.5"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "partial_direct", cfg.Genome.InitialConnection)
	assert.Equal(t, 0.5, cfg.Genome.ConnectionFraction())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neat.ini")
	require.NoError(t, os.WriteFile(path, []byte(testConfigINI), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Neat.PopSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestStructuralSurer(t *testing.T) {
	gc := &GenomeConfig{StructuralMutationSurer: "default"}
	assert.False(t, gc.structuralSurer())
	gc.SingleStructuralMutation = true
	assert.True(t, gc.structuralSurer())
	gc.StructuralMutationSurer = "false"
	assert.False(t, gc.structuralSurer())
	gc.StructuralMutationSurer = "True"
	assert.True(t, gc.structuralSurer())
}

func TestGetNewNodeKey(t *testing.T) {
	gc := &GenomeConfig{NodeKeyIndex: 4}
	assert.Equal(t, 4, gc.GetNewNodeKey())
	assert.Equal(t, 5, gc.GetNewNodeKey())
	assert.Equal(t, 6, gc.NodeKeyIndex)
}
