package neat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatFunctions(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 2.5, Mean(values))
	assert.InDelta(t, math.Sqrt(1.25), Stdev(values), 1e-12)
	assert.Equal(t, 10.0, Sum(values))
	assert.Equal(t, 4.0, MaxFloat(values))
	assert.Equal(t, 1.0, MinFloat(values))
	assert.Equal(t, 2.5, Median(values))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "inputs must not be reordered")
}

func TestStatFunctionsEmpty(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Stdev(nil))
	assert.Zero(t, Sum(nil))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.True(t, math.IsInf(MinFloat(nil), 1))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestParseBoolAttribute(t *testing.T) {
	for _, s := range []string{"True", "true", "yes", "ON", "1", " true "} {
		assert.True(t, parseBoolAttribute(s, nil), s)
	}
	for _, s := range []string{"False", "no", "0", "", "random"} {
		assert.False(t, parseBoolAttribute(s, nil), s)
	}

	r := rand.New(rand.NewSource(3))
	seen := map[bool]bool{}
	for i := 0; i < 100; i++ {
		seen[parseBoolAttribute("random", r)] = true
	}
	assert.Len(t, seen, 2)
}

func TestActivations(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want float64
	}{
		{"sigmoid", 0, 0.5},
		{"tanh", 0, 0},
		{"sin", 0, 0},
		{"gauss", 0, 1},
		{"relu", -2, 0},
		{"relu", 2, 2},
		{"elu", 0, 0},
		{"lelu", -2, -0.01},
		{"identity", 1.25, 1.25},
		{"clamped", 3, 1},
		{"clamped", -3, -1},
		{"inv", 0, 0},
		{"inv", 4, 0.25},
		{"exp", 0, 1},
		{"abs", -3, 3},
		{"hat", 0, 1},
		{"hat", 2, 0},
		{"square", -3, 9},
		{"cube", -2, -8},
	}
	for _, tt := range tests {
		fn, err := GetActivation(tt.name)
		if assert.NoError(t, err, tt.name) {
			assert.InDelta(t, tt.want, fn(tt.z), 1e-12, "%s(%g)", tt.name, tt.z)
		}
	}

	assert.InDelta(t, 1, Sigmoid(1000), 1e-12)
	assert.InDelta(t, 0, Sigmoid(-1000), 1e-12)
	assert.InDelta(t, math.Tanh(2.5), Tanh(1), 1e-12)
	assert.False(t, math.IsInf(Exp(1000), 0))
	assert.False(t, math.IsInf(Log(0), 0))

	_, err := GetActivation("swish")
	assert.Error(t, err)
}

func TestAggregations(t *testing.T) {
	in := []float64{1, -4, 2}
	tests := map[string]float64{
		"sum":     -1,
		"product": -8,
		"max":     2,
		"min":     -4,
		"maxabs":  -4,
		"median":  1,
		"mean":    -1.0 / 3,
	}
	for name, want := range tests {
		fn, err := GetAggregation(name)
		if assert.NoError(t, err, name) {
			assert.InDelta(t, want, fn(in), 1e-12, name)
		}
	}

	assert.Equal(t, 1.0, AggregateProduct(nil))
	assert.Zero(t, AggregateMax(nil))
	assert.Zero(t, AggregateMaxAbs(nil))

	_, err := GetAggregation("norm")
	assert.Error(t, err)
}
