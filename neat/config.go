package neat

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid neat config")

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // max, min or mean
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
	Seed                 int64   `ini:"seed"` // 0 means seed from the clock
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	StructuralMutationSurer          string  `ini:"structural_mutation_surer"`
	InitialConnection                string  `ini:"initial_connection"`

	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "`
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// Derived after loading.
	InputKeys    []int `ini:"-"`
	OutputKeys   []int `ini:"-"`
	NodeKeyIndex int   `ini:"-"` // next hidden node key

	connectionFraction float64 // from "partial[_direct|_nodirect] <fraction>"
	rng                *rand.Rand
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

// boolKeys are re-read after MapTo so that values with trailing comments
// ("True  # comment") still parse.
var boolKeys = map[string][]string{
	"NEAT":          {"reset_on_extinction", "no_fitness_termination"},
	"DefaultGenome": {"feed_forward", "single_structural_mutation"},
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := loadConfig(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return cfg, nil
}

// ParseConfig parses configuration parameters from INI text.
func ParseConfig(data []byte) (*Config, error) {
	return loadConfig(data)
}

func loadConfig(source interface{}) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	for section, keys := range boolKeys {
		for _, name := range keys {
			if !file.Section(section).HasKey(name) {
				continue
			}
			v := parseBoolAttribute(cleanIniString(file.Section(section).Key(name).String()), nil)
			switch name {
			case "reset_on_extinction":
				config.Neat.ResetOnExtinction = v
			case "no_fitness_termination":
				config.Neat.NoFitnessTermination = v
			case "feed_forward":
				config.Genome.FeedForward = v
			case "single_structural_mutation":
				config.Genome.SingleStructuralMutation = v
			}
		}
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.derive()
	return config, nil
}

// applyDefaults cleans string values and fills in neat-python's implicit defaults.
func (c *Config) applyDefaults() {
	g := &c.Genome
	for _, s := range []*string{
		&g.BiasInitType, &g.ResponseInitType, &g.ActivationDefault, &g.AggregationDefault,
		&g.WeightInitType, &g.EnabledDefault, &g.InitialConnection, &g.StructuralMutationSurer,
		&c.Neat.FitnessCriterion, &c.Stagnation.SpeciesFitnessFunc,
	} {
		*s = cleanIniString(*s)
	}
	g.ActivationOptions = cleanOptions(g.ActivationOptions)
	g.AggregationOptions = cleanOptions(g.AggregationOptions)

	defaults := []struct {
		field *string
		value string
	}{
		{&g.BiasInitType, "gaussian"},
		{&g.ResponseInitType, "gaussian"},
		{&g.ActivationDefault, "random"},
		{&g.AggregationDefault, "random"},
		{&g.WeightInitType, "gaussian"},
		{&g.EnabledDefault, "True"},
		{&g.InitialConnection, "unconnected"},
		{&g.StructuralMutationSurer, "default"},
		{&c.Neat.FitnessCriterion, "max"},
		{&c.Stagnation.SpeciesFitnessFunc, "mean"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
	if c.Reproduction.MinSpeciesSize == 0 {
		c.Reproduction.MinSpeciesSize = 1
	}
	if c.Reproduction.SurvivalThreshold == 0 {
		c.Reproduction.SurvivalThreshold = 0.2
	}
	if c.Stagnation.MaxStagnation == 0 {
		c.Stagnation.MaxStagnation = 15
	}
}

// Validate checks value ranges and option names.
func (c *Config) Validate() error {
	g := &c.Genome
	switch {
	case c.Neat.PopSize <= 0:
		return configError("pop_size must be positive")
	case len(g.ActivationOptions) == 0:
		return configError("activation_options must be specified")
	case len(g.AggregationOptions) == 0:
		return configError("aggregation_options must be specified")
	case g.NumInputs <= 0:
		return configError("num_inputs must be positive")
	case g.NumOutputs <= 0:
		return configError("num_outputs must be positive")
	case g.NumHidden < 0:
		return configError("num_hidden cannot be negative")
	case g.CompatibilityDisjointCoefficient < 0:
		return configError("compatibility_disjoint_coefficient cannot be negative")
	case g.CompatibilityWeightCoefficient < 0:
		return configError("compatibility_weight_coefficient cannot be negative")
	case g.BiasMaxValue < g.BiasMinValue:
		return configError("bias_max_value cannot be less than bias_min_value")
	case g.ResponseMaxValue < g.ResponseMinValue:
		return configError("response_max_value cannot be less than response_min_value")
	case g.WeightMaxValue < g.WeightMinValue:
		return configError("weight_max_value cannot be less than weight_min_value")
	case c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1:
		return configError("survival_threshold must be between 0 and 1")
	case c.Reproduction.MinSpeciesSize <= 0:
		return configError("min_species_size must be positive")
	case c.Reproduction.Elitism < 0:
		return configError("elitism cannot be negative")
	case c.SpeciesSet.CompatibilityThreshold < 0:
		return configError("compatibility_threshold cannot be negative")
	case c.Stagnation.MaxStagnation <= 0:
		return configError("max_stagnation must be positive")
	}

	probs := map[string]float64{
		"conn_add_prob":    g.ConnAddProb,
		"conn_delete_prob": g.ConnDeleteProb,
		"node_add_prob":    g.NodeAddProb,
		"node_delete_prob": g.NodeDeleteProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return configError("%s must be between 0 and 1", name)
		}
	}

	for _, name := range g.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return configError("activation_options: %v", err)
		}
	}
	for _, name := range g.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return configError("aggregation_options: %v", err)
		}
	}

	if _, ok := StatFunctions[strings.ToLower(c.Neat.FitnessCriterion)]; !ok || c.Neat.FitnessCriterion == "stdev" {
		return configError("invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", c.Neat.FitnessCriterion)
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return configError("invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}

	switch strings.ToLower(g.StructuralMutationSurer) {
	case "default", "true", "false", "1", "0", "yes", "no", "on", "off":
	default:
		return configError("invalid structural_mutation_surer '%s'", g.StructuralMutationSurer)
	}

	kind, fraction, err := parseInitialConnection(g.InitialConnection)
	if err != nil {
		return err
	}
	g.InitialConnection = kind
	g.connectionFraction = fraction
	return nil
}

// derive fills the key lists and the hidden node counter.
func (c *Config) derive() {
	g := &c.Genome
	g.InputKeys = make([]int, g.NumInputs)
	for i := range g.InputKeys {
		g.InputKeys[i] = -(i + 1)
	}
	g.OutputKeys = make([]int, g.NumOutputs)
	for i := range g.OutputKeys {
		g.OutputKeys[i] = i
	}
	g.NodeKeyIndex = g.NumOutputs
}

var initialConnections = map[string]bool{
	"unconnected": true, "fs_neat_nohidden": true, "fs_neat": true, "fs_neat_hidden": true,
	"full_nodirect": true, "full": true, "full_direct": true,
	"partial_nodirect": true, "partial": true, "partial_direct": true,
}

// parseInitialConnection splits "partial_direct 0.5" into kind and fraction.
func parseInitialConnection(s string) (string, float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || !initialConnections[fields[0]] {
		return "", 0, configError("invalid initial_connection type '%s'", s)
	}
	kind := fields[0]
	if !strings.HasPrefix(kind, "partial") {
		return kind, 1, nil
	}
	if len(fields) != 2 {
		return "", 0, configError("initial_connection '%s' needs a connection fraction", kind)
	}
	var fraction float64
	if _, err := fmt.Sscanf(fields[1], "%g", &fraction); err != nil || fraction < 0 || fraction > 1 {
		return "", 0, configError("initial_connection fraction '%s' must be a number in [0, 1]", fields[1])
	}
	return kind, fraction, nil
}

// GetNewNodeKey returns a fresh hidden node key.
func (gc *GenomeConfig) GetNewNodeKey() int {
	key := gc.NodeKeyIndex
	gc.NodeKeyIndex++
	return key
}

// SetRand makes every genome operation under this config draw from r.
func (gc *GenomeConfig) SetRand(r *rand.Rand) { gc.rng = r }

// Rand returns the source genome operations draw from, seeding one from the
// clock on first use.
func (gc *GenomeConfig) Rand() *rand.Rand {
	if gc.rng == nil {
		gc.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return gc.rng
}

// ConnectionFraction returns the fraction parsed from a partial initial_connection.
func (gc *GenomeConfig) ConnectionFraction() float64 { return gc.connectionFraction }

// structuralSurer reports whether a structural mutation that finds nothing to
// change should fall back to the nearest equivalent change.
func (gc *GenomeConfig) structuralSurer() bool {
	switch strings.ToLower(gc.StructuralMutationSurer) {
	case "true", "1", "yes", "on":
		return true
	case "default":
		return gc.SingleStructuralMutation
	}
	return false
}

// cleanIniString removes inline comments and trims whitespace.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func cleanOptions(opts []string) []string {
	out := opts[:0]
	for _, o := range opts {
		o = cleanIniString(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
