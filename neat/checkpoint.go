package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// checkpoint is the saved part of a Population. The config is reloaded from
// its INI file and the random source is reseeded on load.
type checkpoint struct {
	Generation    int
	Population    map[int]*Genome
	Species       map[int]*Species
	SpeciesIndex  int
	NextGenomeKey int
	NodeKeyIndex  int
	Ancestors     map[int][2]int
	BestGenome    *Genome
}

// SaveCheckpoint writes the population to a gzip-compressed gob file.
func (p *Population) SaveCheckpoint(filePath string) error {
	return p.saveCheckpoint(filePath, p.Generation)
}

func (p *Population) saveCheckpoint(filePath string, generation int) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	if err := p.WriteCheckpoint(file, generation); err != nil {
		file.Close()
		return err
	}
	info, err := file.Stat()
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file '%s': %w", filePath, err)
	}
	size := "unknown"
	if err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	logger().Info("checkpoint saved", slog.String("path", filePath), slog.Int("generation", generation), slog.String("size", size))
	return nil
}

// WriteCheckpoint encodes the population to w, recording generation as the
// generation to resume at.
func (p *Population) WriteCheckpoint(w io.Writer, generation int) error {
	gz := gzip.NewWriter(w)
	data := checkpoint{
		Generation:    generation,
		Population:    p.Population,
		Species:       p.SpeciesSet.Species,
		SpeciesIndex:  p.SpeciesSet.Indexer,
		NextGenomeKey: p.Reproduction.NextGenomeKey,
		NodeKeyIndex:  p.Config.Genome.NodeKeyIndex,
		Ancestors:     p.Reproduction.Ancestors,
		BestGenome:    p.BestGenome,
	}
	if err := gob.NewEncoder(gz).Encode(data); err != nil {
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a population from a checkpoint file and the INI
// configuration it was trained with.
func LoadCheckpoint(checkpointPath string, configPath string) (*Population, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
	}
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	p, err := ReadCheckpoint(file, config)
	if err != nil {
		return nil, fmt.Errorf("checkpoint '%s': %w", checkpointPath, err)
	}
	logger().Info("checkpoint loaded", slog.String("path", checkpointPath), slog.Int("generation", p.Generation))
	return p, nil
}

// ReadCheckpoint decodes a population written by WriteCheckpoint.
func ReadCheckpoint(r io.Reader, config *Config) (*Population, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gz.Close()

	var data checkpoint
	if err := gob.NewDecoder(gz).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}

	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	gc := &config.Genome
	gc.NodeKeyIndex = max(gc.NodeKeyIndex, data.NodeKeyIndex)

	// gob does not preserve pointer identity: species members and
	// representatives are relinked to the population's genomes.
	p.Population = data.Population
	if p.Population == nil {
		p.Population = make(map[int]*Genome)
	}
	for _, g := range p.Population {
		relink(g, gc)
	}
	for _, s := range data.Species {
		if s.Members == nil {
			s.Members = make(map[int]*Genome)
		}
		for gid := range s.Members {
			if g, ok := p.Population[gid]; ok {
				s.Members[gid] = g
			}
			p.SpeciesSet.GenomeToSpecies[gid] = s.Key
		}
		if s.Representative != nil {
			if g, ok := p.Population[s.Representative.Key]; ok {
				s.Representative = g
			} else {
				relink(s.Representative, gc)
			}
		}
		for _, g := range s.Members {
			relink(g, gc)
		}
	}
	if data.Species != nil {
		p.SpeciesSet.Species = data.Species
	}
	p.SpeciesSet.Indexer = max(1, data.SpeciesIndex)
	p.Reproduction.NextGenomeKey = max(1, data.NextGenomeKey)
	if data.Ancestors != nil {
		p.Reproduction.Ancestors = data.Ancestors
	}
	if data.BestGenome != nil {
		relink(data.BestGenome, gc)
		p.BestGenome = data.BestGenome
	}
	p.Generation = data.Generation
	return p, nil
}

// relink restores what gob leaves out of a decoded genome.
func relink(g *Genome, gc *GenomeConfig) {
	g.Config = gc
	if g.Nodes == nil {
		g.Nodes = make(map[int]*NodeGene)
	}
	if g.Connections == nil {
		g.Connections = make(map[ConnectionKey]*ConnectionGene)
	}
}

// Checkpointer saves the population every GenerationInterval generations
// and/or every TimeInterval, whichever comes first. Files are named
// Prefix + generation.
type Checkpointer struct {
	BaseReporter
	Population         *Population
	GenerationInterval int
	TimeInterval       time.Duration
	Prefix             string

	generation     int
	lastGeneration int
	lastTime       time.Time
	err            error
}

// NewCheckpointer returns a Checkpointer for p writing files named
// prefix<generation>. A zero interval disables that trigger.
func NewCheckpointer(p *Population, generationInterval int, timeInterval time.Duration, prefix string) *Checkpointer {
	return &Checkpointer{
		Population:         p,
		GenerationInterval: generationInterval,
		TimeInterval:       timeInterval,
		Prefix:             prefix,
		lastGeneration:     p.Generation - 1,
		lastTime:           time.Now(),
	}
}

func (c *Checkpointer) StartGeneration(generation int) { c.generation = generation }

// EndGeneration saves once an interval has elapsed. The checkpoint resumes at
// the next generation.
func (c *Checkpointer) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {
	due := c.TimeInterval > 0 && time.Since(c.lastTime) >= c.TimeInterval
	if c.GenerationInterval > 0 && c.generation-c.lastGeneration >= c.GenerationInterval {
		due = true
	}
	if !due {
		return
	}
	next := c.generation + 1
	path := c.Prefix + fmt.Sprint(next)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.fail(err)
			return
		}
	}
	if err := c.Population.saveCheckpoint(path, next); err != nil {
		c.fail(err)
		return
	}
	c.lastGeneration = c.generation
	c.lastTime = time.Now()
}

func (c *Checkpointer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
	logger().Error("saving checkpoint", slog.Any("error", err))
}

// Err returns the first save error, if any.
func (c *Checkpointer) Err() error { return c.err }
