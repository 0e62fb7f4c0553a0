package neat

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
)

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the neural network genome.
type NodeGene struct {
	Key         int // negative for inputs, >= 0 for outputs and hidden nodes
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// NewNodeGene creates a new NodeGene with attributes initialized according to the config.
func NewNodeGene(key int, config *GenomeConfig) *NodeGene {
	r := config.Rand()
	return &NodeGene{
		Key:         key,
		Bias:        initFloatAttribute(r, config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue),
		Response:    initFloatAttribute(r, config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue),
		Activation:  initStringAttribute(r, config.ActivationDefault, config.ActivationOptions),
		Aggregation: initStringAttribute(r, config.AggregationDefault, config.AggregationOptions),
	}
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate perturbs, replaces or keeps each attribute according to the config rates.
func (ng *NodeGene) Mutate(config *GenomeConfig) {
	r := config.Rand()
	ng.Bias = mutateFloatAttribute(r, ng.Bias, config.BiasMutateRate, config.BiasReplaceRate, config.BiasMutatePower,
		config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = mutateFloatAttribute(r, ng.Response, config.ResponseMutateRate, config.ResponseReplaceRate, config.ResponseMutatePower,
		config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	ng.Activation = mutateStringAttribute(r, ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateStringAttribute(r, ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance is the attribute distance between two homologous node genes.
func (ng *NodeGene) Distance(other *NodeGene, config *GenomeConfig) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d += 1.0
	}
	if ng.Aggregation != other.Aggregation {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover picks each attribute from either parent with equal probability.
// The receiver's key is kept.
func (ng *NodeGene) Crossover(other *NodeGene, r *rand.Rand) *NodeGene {
	child := ng.Copy()
	if r.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if r.Float64() < 0.5 {
		child.Response = other.Response
	}
	if r.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if r.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey uniquely identifies a connection gene (innovation).
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene represents a connection between two nodes in the genome.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

// NewConnectionGene creates a new ConnectionGene with attributes initialized according to the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig) *ConnectionGene {
	r := config.Rand()
	return &ConnectionGene{
		Key:     key,
		Weight:  initFloatAttribute(r, config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue),
		Enabled: parseBoolAttribute(config.EnabledDefault, r),
	}
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate adjusts weight and enabled flag. In feed-forward genomes a disabled
// connection is only re-enabled when that does not close a cycle.
func (cg *ConnectionGene) Mutate(genome *Genome, config *GenomeConfig) {
	r := config.Rand()
	cg.Weight = mutateFloatAttribute(r, cg.Weight, config.WeightMutateRate, config.WeightReplaceRate, config.WeightMutatePower,
		config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)

	rate := config.EnabledMutateRate
	if cg.Enabled {
		rate += config.EnabledRateToFalseAdd
	} else {
		rate += config.EnabledRateToTrueAdd
	}
	if rate <= 0 || r.Float64() >= rate {
		return
	}
	enable := r.Float64() < 0.5
	if enable && !cg.Enabled && config.FeedForward && createsCycle(genome, cg.Key.InNodeID, cg.Key.OutNodeID) {
		return
	}
	cg.Enabled = enable
}

// Distance is the attribute distance between two homologous connection genes.
func (cg *ConnectionGene) Distance(other *ConnectionGene, config *GenomeConfig) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover picks each attribute from either parent with equal probability.
func (cg *ConnectionGene) Crossover(other *ConnectionGene, r *rand.Rand) *ConnectionGene {
	child := cg.Copy()
	if r.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if r.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}

// --------------------------- Attribute Helpers ---------------------------

func initFloatAttribute(r *rand.Rand, mean, stdev float64, initType string, minVal, maxVal float64) float64 {
	switch strings.ToLower(initType) {
	case "gaussian", "normal", "":
	case "uniform":
		lo := math.Max(minVal, mean-2*stdev)
		hi := math.Min(maxVal, mean+2*stdev)
		if hi < lo {
			hi = lo
		}
		return lo + r.Float64()*(hi-lo)
	default:
		logger().Warn("unknown float init_type, using gaussian", slog.String("init_type", initType))
	}
	return clamp(r.NormFloat64()*stdev+mean, minVal, maxVal)
}

func mutateFloatAttribute(r *rand.Rand, value, mutateRate, replaceRate, mutatePower, initMean, initStdev float64, initType string, minVal, maxVal float64) float64 {
	x := r.Float64()
	switch {
	case x < mutateRate:
		return clamp(value+r.NormFloat64()*mutatePower, minVal, maxVal)
	case x < mutateRate+replaceRate:
		return initFloatAttribute(r, initMean, initStdev, initType, minVal, maxVal)
	}
	return value
}

func initStringAttribute(r *rand.Rand, defaultVal string, options []string) string {
	if len(options) == 0 {
		return defaultVal
	}
	switch strings.ToLower(defaultVal) {
	case "random", "none", "":
		return options[r.Intn(len(options))]
	}
	for _, opt := range options {
		if opt == defaultVal {
			return defaultVal
		}
	}
	logger().Warn("default not among options, choosing at random",
		slog.String("default", defaultVal), slog.Any("options", options))
	return options[r.Intn(len(options))]
}

// mutateStringAttribute replaces value with a random option, which may be the same one.
func mutateStringAttribute(r *rand.Rand, value string, mutateRate float64, options []string) string {
	if len(options) == 0 || mutateRate <= 0 {
		return value
	}
	if r.Float64() < mutateRate {
		return options[r.Intn(len(options))]
	}
	return value
}
