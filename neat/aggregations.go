package neat

import (
	"fmt"
	"math"
)

// AggregationType combines the weighted inputs of a node.
type AggregationType func(inputs []float64) float64

// AggregationFunctions maps configuration names to aggregation functions.
var AggregationFunctions = map[string]AggregationType{
	"sum":     Sum,
	"product": AggregateProduct,
	"max":     AggregateMax,
	"min":     AggregateMin,
	"maxabs":  AggregateMaxAbs,
	"median":  AggregateMedian,
	"mean":    Mean,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationType, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateProduct multiplies the inputs. The empty product is 1.
func AggregateProduct(inputs []float64) float64 {
	p := 1.0
	for _, v := range inputs {
		p *= v
	}
	return p
}

// AggregateMax returns the largest input, or 0 for a node without inputs.
func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MaxFloat(inputs)
}

// AggregateMin returns the smallest input, or 0 for a node without inputs.
func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MinFloat(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude, sign included.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}

func AggregateMedian(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return Median(inputs)
}
