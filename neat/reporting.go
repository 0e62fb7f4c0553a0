package neat

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by the package. nil restores slog.Default().
func SetLogger(l *slog.Logger) { pkgLogger.Store(l) }

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Reporter receives progress events from a Population.
type Reporter interface {
	StartGeneration(generation int)
	PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome)
	EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet)
	CompleteExtinction()
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(sid int, species *Species)
}

// BaseReporter implements Reporter with no-ops, for embedding.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int)                                         {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet)         {}
func (BaseReporter) CompleteExtinction()                                         {}
func (BaseReporter) FoundSolution(*Config, int, *Genome)                         {}
func (BaseReporter) SpeciesStagnant(int, *Species)                               {}

// ReporterSet fans events out to every added reporter in order.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) { rs.reporters = append(rs.reporters, r) }

// Remove unregisters a reporter.
func (rs *ReporterSet) Remove(r Reporter) {
	rs.reporters = slices.DeleteFunc(rs.reporters, func(x Reporter) bool { return x == r })
}

func (rs *ReporterSet) StartGeneration(generation int) {
	for _, r := range rs.reporters {
		r.StartGeneration(generation)
	}
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	for _, r := range rs.reporters {
		r.PostEvaluate(config, population, species, best)
	}
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	for _, r := range rs.reporters {
		r.EndGeneration(config, population, species)
	}
}

func (rs *ReporterSet) CompleteExtinction() {
	for _, r := range rs.reporters {
		r.CompleteExtinction()
	}
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	for _, r := range rs.reporters {
		r.FoundSolution(config, generation, best)
	}
}

func (rs *ReporterSet) SpeciesStagnant(sid int, species *Species) {
	for _, r := range rs.reporters {
		r.SpeciesStagnant(sid, species)
	}
}

// GenerationStats is the fitness summary of one evaluated generation.
type GenerationStats struct {
	RunID           string  `csv:"run_id"`
	Generation      int     `csv:"generation"`
	Population      int     `csv:"population"`
	Species         int     `csv:"species"`
	BestFitness     float64 `csv:"best_fitness"`
	MeanFitness     float64 `csv:"mean_fitness"`
	StdevFitness    float64 `csv:"stdev_fitness"`
	MedianFitness   float64 `csv:"median_fitness"`
	BestGenome      int     `csv:"best_genome"`
	BestNodes       int     `csv:"best_nodes"`
	BestConnections int     `csv:"best_connections"`
	DistanceMean    float64 `csv:"distance_mean"`
	DistanceStdev   float64 `csv:"distance_stdev"`
}

// NewGenerationStats summarises an evaluated population.
func NewGenerationStats(generation int, population map[int]*Genome, species *SpeciesSet, best *Genome) GenerationStats {
	fitnesses := make([]float64, 0, len(population))
	for _, k := range slices.Sorted(maps.Keys(population)) {
		fitnesses = append(fitnesses, population[k].Fitness)
	}
	s := GenerationStats{
		Generation: generation,
		Population: len(population),
	}
	if len(fitnesses) > 0 {
		s.MeanFitness = Mean(fitnesses)
		s.StdevFitness = Stdev(fitnesses)
		s.MedianFitness = Median(fitnesses)
	}
	if species != nil {
		s.Species = len(species.Species)
		s.DistanceMean = species.DistanceMean
		s.DistanceStdev = species.DistanceStdev
	}
	if best != nil {
		s.BestFitness = best.Fitness
		s.BestGenome = best.Key
		s.BestNodes, s.BestConnections = best.Size()
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s GenerationStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("species", s.Species),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("mean_fitness", s.MeanFitness),
		slog.Float64("stdev_fitness", s.StdevFitness),
		slog.Int("best_genome", s.BestGenome),
		slog.String("best_size", fmt.Sprintf("(%d, %d)", s.BestNodes, s.BestConnections)),
	}
	if s.RunID != "" {
		attrs = append(attrs, slog.String("run_id", s.RunID))
	}
	return slog.GroupValue(attrs...)
}

// LogReporter writes progress to a slog.Logger.
type LogReporter struct {
	BaseReporter
	Logger            *slog.Logger
	ShowSpeciesDetail bool

	generation int
	start      time.Time
}

// NewLogReporter returns a reporter logging through l, or the package logger when nil.
func NewLogReporter(l *slog.Logger, showSpeciesDetail bool) *LogReporter {
	return &LogReporter{Logger: l, ShowSpeciesDetail: showSpeciesDetail}
}

func (r *LogReporter) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logger()
}

func (r *LogReporter) StartGeneration(generation int) {
	r.generation = generation
	r.start = time.Now()
	r.log().Info("generation started", slog.Int("generation", generation))
}

func (r *LogReporter) PostEvaluate(_ *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	stats := NewGenerationStats(r.generation, population, species, best)
	r.log().Info("population evaluated", slog.Any("stats", stats))
}

func (r *LogReporter) EndGeneration(_ *Config, population map[int]*Genome, species *SpeciesSet) {
	r.log().Info("generation finished",
		slog.Int("generation", r.generation),
		slog.Int("population", len(population)),
		slog.Int("species", len(species.Species)),
		slog.Duration("elapsed", time.Since(r.start)),
	)
	if !r.ShowSpeciesDetail {
		return
	}
	for _, sid := range species.SpeciesKeys() {
		s := species.Species[sid]
		r.log().Info("species",
			slog.Int("id", sid),
			slog.Int("age", r.generation-s.Created),
			slog.Int("size", len(s.Members)),
			slog.Float64("fitness", s.Fitness),
			slog.Float64("adjusted_fitness", s.AdjustedFitness),
			slog.Int("stagnation", r.generation-s.LastImproved),
		)
	}
}

func (r *LogReporter) CompleteExtinction() {
	r.log().Warn("all species extinct")
}

func (r *LogReporter) FoundSolution(_ *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	r.log().Info("solution found",
		slog.Int("generation", generation),
		slog.Int("genome", best.Key),
		slog.Float64("fitness", best.Fitness),
		slog.Int("nodes", nodes),
		slog.Int("connections", conns),
	)
}

func (r *LogReporter) SpeciesStagnant(sid int, species *Species) {
	r.log().Info("species removed after stagnation", slog.Int("species", sid), slog.Int("members", len(species.Members)))
}

// StatisticsReporter keeps per-generation statistics and copies of each
// generation's best genome.
type StatisticsReporter struct {
	BaseReporter
	MostFitGenomes []*Genome
	Generations    []GenerationStats
	SpeciesSizes   []map[int]int // per generation, species key -> member count

	generation int
}

func (r *StatisticsReporter) StartGeneration(generation int) { r.generation = generation }

func (r *StatisticsReporter) PostEvaluate(_ *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	if best != nil {
		r.MostFitGenomes = append(r.MostFitGenomes, best.Clone())
	}
	r.Generations = append(r.Generations, NewGenerationStats(r.generation, population, species, best))
	sizes := make(map[int]int, len(species.Species))
	for sid, s := range species.Species {
		sizes[sid] = len(s.Members)
	}
	r.SpeciesSizes = append(r.SpeciesSizes, sizes)
}

// FitnessMean returns the mean fitness of each generation.
func (r *StatisticsReporter) FitnessMean() []float64 {
	out := make([]float64, len(r.Generations))
	for i, g := range r.Generations {
		out[i] = g.MeanFitness
	}
	return out
}

// FitnessStdev returns the fitness standard deviation of each generation.
func (r *StatisticsReporter) FitnessStdev() []float64 {
	out := make([]float64, len(r.Generations))
	for i, g := range r.Generations {
		out[i] = g.StdevFitness
	}
	return out
}

// BestGenome returns the fittest genome seen in any generation, or nil.
func (r *StatisticsReporter) BestGenome() *Genome {
	best := r.BestGenomes(1)
	if len(best) == 0 {
		return nil
	}
	return best[0]
}

// BestGenomes returns up to n of the per-generation best genomes, fittest first.
func (r *StatisticsReporter) BestGenomes(n int) []*Genome {
	sorted := slices.Clone(r.MostFitGenomes)
	slices.SortStableFunc(sorted, func(a, b *Genome) int { return cmp.Compare(b.Fitness, a.Fitness) })
	return sorted[:min(n, len(sorted))]
}

// CSVReporter appends one GenerationStats row per generation to a writer.
type CSVReporter struct {
	BaseReporter
	RunID string

	w             io.Writer
	headerWritten bool
	generation    int
	err           error
}

// NewCSVReporter writes CSV rows to w under a fresh run id.
func NewCSVReporter(w io.Writer) *CSVReporter {
	return &CSVReporter{RunID: uuid.NewString(), w: w}
}

func (r *CSVReporter) StartGeneration(generation int) { r.generation = generation }

func (r *CSVReporter) PostEvaluate(_ *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	stats := NewGenerationStats(r.generation, population, species, best)
	stats.RunID = r.RunID
	if err := r.write(stats); err != nil && r.err == nil {
		r.err = err
		logger().Error("writing generation csv", slog.Any("error", err))
	}
}

func (r *CSVReporter) write(stats GenerationStats) error {
	records := []GenerationStats{stats}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
		return fmt.Errorf("writing generation stats: %w", err)
	}
	return nil
}

// Err returns the first write error, if any.
func (r *CSVReporter) Err() error { return r.err }
