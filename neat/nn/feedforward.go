package nn

import (
	"errors"
	"fmt"
	"slices"

	"github.com/baldhumanity/flappy-neat/neat"
)

// ErrNotFeedForward is returned when building a network from a recurrent genome.
var ErrNotFeedForward = errors.New("genome is not configured as feed-forward")

// Link is one weighted input of a node.
type Link struct {
	From   int
	Weight float64
}

// NodeEval is everything needed to compute one node's value.
type NodeEval struct {
	Key           int
	Bias          float64
	Response      float64
	ActivationFn  neat.ActivationType
	AggregationFn neat.AggregationType
	Links         []Link
}

// FeedForwardNetwork is a phenotype network without cycles. Only nodes that
// can influence an output are evaluated.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int
	NodeEvals  []NodeEval // in evaluation order

	values map[int]float64
	buf    []float64
}

// RequiredForOutput returns the non-input nodes whose values can reach an
// output through the given connections. Outputs are always required.
func RequiredForOutput(inputs, outputs []int, connections []neat.ConnectionKey) map[int]bool {
	required := make(map[int]bool, len(outputs))
	for _, o := range outputs {
		required[o] = true
	}
	frontier := slices.Clone(outputs)
	for len(frontier) > 0 {
		var next []int
		for _, c := range connections {
			if slices.Contains(frontier, c.OutNodeID) && !required[c.InNodeID] && !slices.Contains(inputs, c.InNodeID) {
				required[c.InNodeID] = true
				next = append(next, c.InNodeID)
			}
		}
		frontier = next
	}
	return required
}

// CreateFeedForwardNetwork builds a runnable network from a genome's enabled
// connections, ordering the required nodes topologically.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, ErrNotFeedForward
	}

	var connections []neat.ConnectionKey
	for _, key := range g.ConnectionKeys() {
		if g.Connections[key].Enabled {
			connections = append(connections, key)
		}
	}
	inputs, outputs := g.Config.InputKeys, g.Config.OutputKeys
	required := RequiredForOutput(inputs, outputs, connections)

	// Edges into a required node come from inputs or other required nodes.
	incoming := make(map[int][]Link)
	pending := make(map[int]int) // required node -> unresolved required sources
	for _, c := range connections {
		if !required[c.OutNodeID] {
			continue
		}
		incoming[c.OutNodeID] = append(incoming[c.OutNodeID], Link{From: c.InNodeID, Weight: g.Connections[c].Weight})
		if required[c.InNodeID] {
			pending[c.OutNodeID]++
		}
	}

	var ready []int
	for key := range required {
		if pending[key] == 0 {
			ready = append(ready, key)
		}
	}
	slices.Sort(ready)

	net := &FeedForwardNetwork{
		InputKeys:  inputs,
		OutputKeys: outputs,
		values:     make(map[int]float64, len(inputs)+len(required)),
	}
	for len(ready) > 0 {
		var next []int
		for _, key := range ready {
			eval, err := nodeEval(g, key, incoming[key])
			if err != nil {
				return nil, err
			}
			net.NodeEvals = append(net.NodeEvals, eval)
			for _, c := range connections {
				if c.InNodeID == key && required[c.OutNodeID] {
					pending[c.OutNodeID]--
					if pending[c.OutNodeID] == 0 {
						next = append(next, c.OutNodeID)
					}
				}
			}
		}
		slices.Sort(next)
		ready = next
	}
	if len(net.NodeEvals) != len(required) {
		return nil, fmt.Errorf("failed topological sort: cycle among %d required nodes", len(required)-len(net.NodeEvals))
	}
	return net, nil
}

func nodeEval(g *neat.Genome, key int, links []Link) (NodeEval, error) {
	ng, ok := g.Nodes[key]
	if !ok {
		return NodeEval{}, fmt.Errorf("connection references missing node %d", key)
	}
	act, err := neat.GetActivation(ng.Activation)
	if err != nil {
		return NodeEval{}, fmt.Errorf("node %d: %w", key, err)
	}
	agg, err := neat.GetAggregation(ng.Aggregation)
	if err != nil {
		return NodeEval{}, fmt.Errorf("node %d: %w", key, err)
	}
	return NodeEval{
		Key:           key,
		Bias:          ng.Bias,
		Response:      ng.Response,
		ActivationFn:  act,
		AggregationFn: agg,
		Links:         links,
	}, nil
}

// Activate computes the outputs for one input vector. Each node's value is
// activation(bias + response * aggregation(weighted inputs)). A network is
// not safe for concurrent use.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputKeys))
	}
	if net.values == nil {
		net.values = make(map[int]float64)
	}
	for i, k := range net.InputKeys {
		net.values[k] = inputs[i]
	}
	for _, n := range net.NodeEvals {
		buf := net.buf[:0]
		for _, l := range n.Links {
			buf = append(buf, net.values[l.From]*l.Weight)
		}
		net.buf = buf
		net.values[n.Key] = n.ActivationFn(n.Bias + n.Response*n.AggregationFn(buf))
	}
	outputs := make([]float64, len(net.OutputKeys))
	for i, k := range net.OutputKeys {
		outputs[i] = net.values[k]
	}
	return outputs, nil
}
