// zapzap - self-play reinforcement-learning engine for the ZapZap card game
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/pkg/game"
	"github.com/yourusername/zapzap/pkg/trainer"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate":
		cmdSimulate(args)
	case "selfplay":
		cmdSelfplay(args)
	case "eval":
		cmdEval(args)
	case "export":
		cmdExport(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`zapzap - ZapZap self-play training engine

Usage: zapzap <command> [options]

Commands:
  simulate  Run headless games between baseline policies
  selfplay  Generate self-play games and train the Q-network
  eval      Pit a trained weight artifact against the greedy baseline
  export    Print the metadata of a weight artifact

Use "zapzap <command> -h" for command-specific help.`)
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	games := fs.Int("games", 100, "number of games to simulate")
	players := fs.Int("players", 4, "players per game")
	seed := fs.Int64("seed", 1, "base RNG seed")
	verbose := fs.Bool("v", false, "print every game result")
	fs.Parse(args)

	wins := make([]int, *players)
	totalRounds := 0
	start := time.Now()
	for g := 0; g < *games; g++ {
		engine, err := game.NewEngine(*players, *seed+int64(g))
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine setup: %v\n", err)
			os.Exit(1)
		}
		policies := make([]game.DecisionPolicy, *players)
		for i := range policies {
			if i%2 == 0 {
				policies[i] = game.NewGreedyPolicy(game.DefaultGreedyConfig())
			} else {
				policies[i] = game.NewRandomPolicy(*seed + int64(g*100+i))
			}
		}
		result, err := engine.RunGame(policies)
		if err != nil {
			fmt.Fprintf(os.Stderr, "game %d: %v\n", g, err)
			os.Exit(1)
		}
		if result.Winner >= 0 {
			wins[result.Winner]++
		}
		totalRounds += result.Rounds
		if *verbose {
			fmt.Printf("game %3d: winner=%d rounds=%d scores=%v\n", g, result.Winner, result.Rounds, result.Scores)
		}
	}

	fmt.Printf("Simulated %d games in %v\n", *games, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Average rounds per game: %.1f\n", float64(totalRounds)/float64(*games))
	for i, w := range wins {
		kind := "greedy"
		if i%2 == 1 {
			kind = "random"
		}
		fmt.Printf("  player %d (%s): %d wins (%.1f%%)\n", i, kind, w, 100*float64(w)/float64(*games))
	}
}

func cmdSelfplay(args []string) {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	iterations := fs.Int("iterations", 100, "training iterations to run")
	gamesPer := fs.Int("games", 64, "self-play games per iteration")
	stepsPer := fs.Int("steps", 64, "training steps per iteration")
	players := fs.Int("players", 4, "players per game")
	workers := fs.Int("workers", 0, "parallel workers (0 = all cores)")
	seed := fs.Int64("seed", 1, "base RNG seed")
	out := fs.String("out", "zapzap.weights", "checkpoint artifact path")
	resume := fs.String("resume", "", "weight artifact to resume from")
	fs.Parse(args)

	cfg := trainer.DefaultConfig()
	cfg.Seed = *seed
	cfg.NumPlayers = *players
	cfg.GamesPerIteration = *gamesPer
	cfg.StepsPerIteration = *stepsPer
	cfg.Workers = *workers
	cfg.CheckpointPath = *out

	t := trainer.New(cfg)
	if *resume != "" {
		weights, meta, err := qnet.LoadArtifact(*resume)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading %s: %v\n", *resume, err)
			os.Exit(1)
		}
		t.RestoreWeights(weights)
		if meta != nil {
			fmt.Printf("Resumed from %s (%d steps, %d games)\n", *resume, meta.TrainSteps, meta.GamesPlayed)
		}
	}

	fmt.Printf("Training for %d iterations (%d games, %d steps each)\n", *iterations, *gamesPer, *stepsPer)
	if err := t.RunIterations(*iterations, nil); err != nil {
		fmt.Fprintf(os.Stderr, "training: %v\n", err)
		os.Exit(1)
	}
	if err := t.Checkpoint(*out); err != nil {
		fmt.Fprintf(os.Stderr, "checkpoint: %v\n", err)
		os.Exit(1)
	}
	stats := t.Stats()
	fmt.Printf("Done: %d games, %d steps, avg loss %.5f -> %s\n", stats.GamesPlayed, stats.Steps, stats.AvgLoss, *out)
}

func cmdEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	artifact := fs.String("weights", "zapzap.weights", "weight artifact to evaluate")
	games := fs.Int("games", 200, "number of evaluation games")
	players := fs.Int("players", 4, "players per game")
	seed := fs.Int64("seed", 42, "base RNG seed")
	fs.Parse(args)

	weights, _, err := qnet.LoadArtifact(*artifact)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %s: %v\n", *artifact, err)
		os.Exit(1)
	}
	net := qnet.NewInference(*seed)
	net.ImportFlatWeights(weights)

	// Seat 0 plays the trained policy greedily; the rest play the
	// tuned baseline.
	trainedWins := 0
	for g := 0; g < *games; g++ {
		engine, err := game.NewEngine(*players, *seed+int64(g))
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine setup: %v\n", err)
			os.Exit(1)
		}
		policies := make([]game.DecisionPolicy, *players)
		policies[0] = trainer.NewQPolicy(net, 0)
		for i := 1; i < *players; i++ {
			policies[i] = game.NewGreedyPolicy(game.DefaultGreedyConfig())
		}
		result, err := engine.RunGame(policies)
		if err != nil {
			fmt.Fprintf(os.Stderr, "game %d: %v\n", g, err)
			os.Exit(1)
		}
		if result.Winner == 0 {
			trainedWins++
		}
	}

	baseline := 100.0 / float64(*players)
	rate := 100 * float64(trainedWins) / float64(*games)
	fmt.Printf("Trained policy won %d/%d games (%.1f%%, uniform baseline %.1f%%)\n", trainedWins, *games, rate, baseline)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	artifact := fs.String("weights", "zapzap.weights", "weight artifact to inspect")
	fs.Parse(args)

	weights, meta, err := qnet.LoadArtifact(*artifact)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %s: %v\n", *artifact, err)
		os.Exit(1)
	}
	fmt.Printf("Artifact: %s\n", *artifact)
	fmt.Printf("  weights: %d floats (expected %d)\n", len(weights), qnet.FlatWeightCount())
	if meta == nil {
		fmt.Println("  no metadata sidecar")
		return
	}
	fmt.Printf("  architecture: %d -> %dx2 trunk -> value + heads %v\n", meta.InputSize, meta.TrunkSize, meta.ActionDims)
	fmt.Printf("  train steps: %d\n", meta.TrainSteps)
	fmt.Printf("  games played: %d\n", meta.GamesPlayed)
	fmt.Printf("  created: %s\n", meta.CreatedAt.Format(time.RFC3339))
}
