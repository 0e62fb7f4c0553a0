// Package flappyneat trains Flappy Bird agents with NEAT (NeuroEvolution of
// Augmenting Topologies).
//
// The repository is split into:
//
//   - neat: the evolutionary optimizer (genomes, speciation, reproduction,
//     reporters, checkpoints), configured from a neat-python style INI file.
//   - neat/nn: the feed-forward phenotype network built from a genome.
//   - flappy: the game world and the per-generation episode loop that flies one
//     bird per genome and writes each genome's fitness.
//   - render/term and render/raylib: terminal and window front ends.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("configs/flappy-config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	eval := &flappy.Evaluator{Config: flappy.DefaultConfig()}
//	winner, err := pop.Run(ctx, eval.Evaluate, 50)
package flappyneat
