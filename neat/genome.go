package neat

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene                 // output and hidden nodes; inputs are implicit
	Connections map[ConnectionKey]*ConnectionGene // innovation -> gene
	Fitness     float64
	Config      *GenomeConfig // relinked after loading a checkpoint
}

// NewGenome creates an empty genome with the specified key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

func (g *Genome) String() string {
	nodes, conns := g.Size()
	return fmt.Sprintf("Genome(Key: %d, Fitness: %.4f, Nodes: %d, Enabled connections: %d)", g.Key, g.Fitness, nodes, conns)
}

// Clone returns a deep copy sharing the config.
func (g *Genome) Clone() *Genome {
	c := NewGenome(g.Key, g.Config)
	c.Fitness = g.Fitness
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, cg := range g.Connections {
		c.Connections[k] = cg.Copy()
	}
	return c
}

// Size returns the number of nodes and the number of enabled connections.
func (g *Genome) Size() (nodes, enabled int) {
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

// NodeKeys returns the node keys in ascending order.
func (g *Genome) NodeKeys() []int {
	return slices.Sorted(maps.Keys(g.Nodes))
}

// ConnectionKeys returns the connection keys ordered by input, then output node.
func (g *Genome) ConnectionKeys() []ConnectionKey {
	return slices.SortedFunc(maps.Keys(g.Connections), compareConnectionKeys)
}

func compareConnectionKeys(a, b ConnectionKey) int {
	if c := cmp.Compare(a.InNodeID, b.InNodeID); c != 0 {
		return c
	}
	return cmp.Compare(a.OutNodeID, b.OutNodeID)
}

// ConfigureNew creates output and hidden nodes and the initial connections
// described by initial_connection.
func (g *Genome) ConfigureNew() {
	for _, key := range g.Config.OutputKeys {
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		key := g.Config.GetNewNodeKey()
		if _, exists := g.Nodes[key]; exists {
			panic(fmt.Sprintf("attempted to create duplicate node key: %d", key))
		}
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}

	hidden := g.Config.NumHidden > 0
	switch g.Config.InitialConnection {
	case "unconnected":
	case "fs_neat_nohidden":
		g.connectFSNeat(false)
	case "fs_neat":
		if hidden {
			logger().Warn("initial_connection = fs_neat will not connect to hidden nodes; use fs_neat_nohidden or fs_neat_hidden")
		}
		g.connectFSNeat(false)
	case "fs_neat_hidden":
		g.connectFSNeat(true)
	case "full_nodirect":
		g.connectFull(false, 1)
	case "full":
		if hidden {
			logger().Warn("initial_connection = full with hidden nodes will not make direct input-output connections; use full_nodirect or full_direct")
		}
		g.connectFull(false, 1)
	case "full_direct":
		g.connectFull(true, 1)
	case "partial_nodirect":
		g.connectFull(false, g.Config.ConnectionFraction())
	case "partial":
		if hidden {
			logger().Warn("initial_connection = partial with hidden nodes will not make direct input-output connections; use partial_nodirect or partial_direct")
		}
		g.connectFull(false, g.Config.ConnectionFraction())
	case "partial_direct":
		g.connectFull(true, g.Config.ConnectionFraction())
	default:
		panic(fmt.Sprintf("invalid initial_connection type in genome configuration: %s", g.Config.InitialConnection))
	}
}

// connectFSNeat connects one randomly chosen input to every output, and to
// every hidden node when withHidden is set.
func (g *Genome) connectFSNeat(withHidden bool) {
	r := g.Config.Rand()
	in := g.Config.InputKeys[r.Intn(len(g.Config.InputKeys))]
	for _, out := range g.NodeKeys() {
		if withHidden || g.isOutput(out) {
			g.addConnection(in, out)
		}
	}
}

// connectFull connects inputs to hidden, hidden to outputs, and inputs to
// outputs when direct is set or there are no hidden nodes. A fraction below 1
// keeps a random subset of that many connections.
func (g *Genome) connectFull(direct bool, fraction float64) {
	var hidden, outputs []int
	for _, k := range g.NodeKeys() {
		if g.isOutput(k) {
			outputs = append(outputs, k)
		} else {
			hidden = append(hidden, k)
		}
	}

	var keys []ConnectionKey
	for _, h := range hidden {
		for _, in := range g.Config.InputKeys {
			keys = append(keys, ConnectionKey{in, h})
		}
		for _, out := range outputs {
			keys = append(keys, ConnectionKey{h, out})
		}
	}
	if direct || len(hidden) == 0 {
		for _, in := range g.Config.InputKeys {
			for _, out := range outputs {
				keys = append(keys, ConnectionKey{in, out})
			}
		}
	}
	if !g.Config.FeedForward {
		for _, k := range g.NodeKeys() {
			keys = append(keys, ConnectionKey{k, k})
		}
	}

	if fraction < 1 {
		r := g.Config.Rand()
		r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		keys = keys[:int(math.RoundToEven(float64(len(keys))*fraction))]
	}
	for _, k := range keys {
		g.addConnection(k.InNodeID, k.OutNodeID)
	}
}

func (g *Genome) addConnection(in, out int) *ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	c := NewConnectionGene(key, g.Config)
	g.Connections[key] = c
	return c
}

func (g *Genome) isOutput(key int) bool {
	return slices.Contains(g.Config.OutputKeys, key)
}

// ConfigureCrossover fills g from two parents. Genes shared by both parents
// mix their attributes; genes only the fitter parent has are copied; genes
// only the weaker parent has are dropped.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	r := g.Config.Rand()

	for _, key := range parent1.ConnectionKeys() {
		c1 := parent1.Connections[key]
		if c2, ok := parent2.Connections[key]; ok {
			g.Connections[key] = c1.Crossover(c2, r)
		} else {
			g.Connections[key] = c1.Copy()
		}
	}
	for _, key := range parent1.NodeKeys() {
		n1 := parent1.Nodes[key]
		if n2, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = n1.Crossover(n2, r)
		} else {
			g.Nodes[key] = n1.Copy()
		}
	}
}

// Mutate applies structural mutations and then attribute mutations to every gene.
func (g *Genome) Mutate() {
	cfg := g.Config
	r := cfg.Rand()

	if cfg.SingleStructuralMutation {
		div := math.Max(1, cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb+cfg.ConnDeleteProb)
		x := r.Float64()
		switch {
		case x < cfg.NodeAddProb/div:
			g.mutateAddNode()
		case x < (cfg.NodeAddProb+cfg.NodeDeleteProb)/div:
			g.mutateDeleteNode()
		case x < (cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb)/div:
			g.mutateAddConnection()
		case x < (cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb+cfg.ConnDeleteProb)/div:
			g.mutateDeleteConnection()
		}
	} else {
		if r.Float64() < cfg.NodeAddProb {
			g.mutateAddNode()
		}
		if r.Float64() < cfg.NodeDeleteProb {
			g.mutateDeleteNode()
		}
		if r.Float64() < cfg.ConnAddProb {
			g.mutateAddConnection()
		}
		if r.Float64() < cfg.ConnDeleteProb {
			g.mutateDeleteConnection()
		}
	}

	for _, key := range g.ConnectionKeys() {
		g.Connections[key].Mutate(g, cfg)
	}
	for _, key := range g.NodeKeys() {
		g.Nodes[key].Mutate(cfg)
	}
}

// mutateAddNode splits a random connection: in -> new (weight 1) and
// new -> out (old weight). The split connection is disabled.
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		if g.Config.structuralSurer() {
			g.mutateAddConnection()
		}
		return
	}
	keys := g.ConnectionKeys()
	split := g.Connections[keys[g.Config.Rand().Intn(len(keys))]]
	split.Enabled = false

	key := g.Config.GetNewNodeKey()
	g.Nodes[key] = NewNodeGene(key, g.Config)

	c1 := g.addConnection(split.Key.InNodeID, key)
	c1.Weight, c1.Enabled = 1.0, true
	c2 := g.addConnection(key, split.Key.OutNodeID)
	c2.Weight, c2.Enabled = split.Weight, true
}

// mutateAddConnection tries one random (input or node) -> node pair. It does
// nothing when the pair already exists, joins two outputs, or would close a
// cycle in a feed-forward genome.
func (g *Genome) mutateAddConnection() {
	if len(g.Nodes) == 0 {
		return
	}
	r := g.Config.Rand()
	outputs := g.NodeKeys()
	out := outputs[r.Intn(len(outputs))]
	inputs := append(outputs, g.Config.InputKeys...)
	in := inputs[r.Intn(len(inputs))]

	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	if existing, ok := g.Connections[key]; ok {
		if g.Config.structuralSurer() {
			existing.Enabled = true
		}
		return
	}
	if g.isOutput(in) && g.isOutput(out) {
		return
	}
	if g.Config.FeedForward && createsCycle(g, in, out) {
		return
	}
	g.addConnection(in, out)
}

// mutateDeleteNode removes a random hidden node with all its connections.
func (g *Genome) mutateDeleteNode() {
	var available []int
	for _, k := range g.NodeKeys() {
		if !g.isOutput(k) {
			available = append(available, k)
		}
	}
	if len(available) == 0 {
		return
	}
	del := available[g.Config.Rand().Intn(len(available))]
	for key := range g.Connections {
		if key.InNodeID == del || key.OutNodeID == del {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, del)
}

// mutateDeleteConnection removes a random connection.
func (g *Genome) mutateDeleteConnection() {
	if len(g.Connections) == 0 {
		return
	}
	keys := g.ConnectionKeys()
	delete(g.Connections, keys[g.Config.Rand().Intn(len(keys))])
}

// Distance is the compatibility distance between two genomes: for nodes and
// for connections separately, the summed attribute distance of shared genes
// plus the disjoint coefficient times the number of unshared genes, divided by
// the larger gene count. The two parts are added.
func (g *Genome) Distance(other *Genome) float64 {
	c := g.Config.CompatibilityDisjointCoefficient

	nodeDistance := 0.0
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint := 0
		for k := range other.Nodes {
			if _, ok := g.Nodes[k]; !ok {
				disjoint++
			}
		}
		for _, k := range g.NodeKeys() {
			if n2, ok := other.Nodes[k]; ok {
				nodeDistance += g.Nodes[k].Distance(n2, g.Config)
			} else {
				disjoint++
			}
		}
		nodeDistance = (nodeDistance + c*float64(disjoint)) / float64(max(len(g.Nodes), len(other.Nodes)))
	}

	connDistance := 0.0
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint := 0
		for k := range other.Connections {
			if _, ok := g.Connections[k]; !ok {
				disjoint++
			}
		}
		for _, k := range g.ConnectionKeys() {
			if c2, ok := other.Connections[k]; ok {
				connDistance += g.Connections[k].Distance(c2, g.Config)
			} else {
				disjoint++
			}
		}
		connDistance = (connDistance + c*float64(disjoint)) / float64(max(len(g.Connections), len(other.Connections)))
	}

	return nodeDistance + connDistance
}

// createsCycle reports whether adding in -> out would close a cycle, counting
// every existing connection, enabled or not.
func createsCycle(genome *Genome, in, out int) bool {
	if in == out {
		return true
	}
	visited := map[int]bool{out: true}
	for {
		added := 0
		for key := range genome.Connections {
			if visited[key.InNodeID] && !visited[key.OutNodeID] {
				if key.OutNodeID == in {
					return true
				}
				visited[key.OutNodeID] = true
				added++
			}
		}
		if added == 0 {
			return false
		}
	}
}
