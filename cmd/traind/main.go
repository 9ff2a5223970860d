// Command traind runs the self-play training daemon with the HTTP
// monitor attached.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/pkg/api"
	"github.com/yourusername/zapzap/pkg/trainer"
)

const version = "0.1.0"

func main() {
	host := flag.String("host", "localhost", "Host to bind the monitor to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 8090, "Monitor port to listen on")
	players := flag.Int("players", 4, "Players per self-play game (2-8)")
	workers := flag.Int("workers", 0, "Self-play workers (0 = NumCPU)")
	gamesPerIter := flag.Int("games", 64, "Self-play games per iteration")
	stepsPerIter := flag.Int("steps", 64, "Optimizer steps per iteration")
	batch := flag.Int("batch", 64, "Base training batch size")
	gamma := flag.Float64("gamma", 0.97, "Discount factor")
	seed := flag.Int64("seed", 1, "Base random seed")
	checkpoint := flag.String("checkpoint", "zapzap.weights", "Checkpoint artifact path")
	checkpointEvery := flag.Int("checkpoint-every", 5000, "Optimizer steps between checkpoints (0 = off)")
	resume := flag.String("resume", "", "Weight artifact to resume from")
	pushInterval := flag.Duration("push-interval", 2*time.Second, "Interval between live stat pushes")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("ZapZap Training Daemon v%s\n", version)
		os.Exit(0)
	}

	log.Printf("ZapZap Training Daemon v%s", version)

	cfg := trainer.DefaultConfig()
	cfg.NumPlayers = *players
	cfg.Workers = *workers
	cfg.GamesPerIteration = *gamesPerIter
	cfg.StepsPerIteration = *stepsPerIter
	cfg.BatchSize = *batch
	cfg.Gamma = *gamma
	cfg.Seed = *seed
	cfg.CheckpointPath = *checkpoint
	cfg.CheckpointEvery = *checkpointEvery

	t := trainer.New(cfg)

	if *resume != "" {
		weights, meta, err := qnet.LoadArtifact(*resume)
		if err != nil {
			log.Fatalf("Failed to load weights: %v", err)
		}
		t.RestoreWeights(weights)
		if meta != nil {
			log.Printf("Resumed from %s (steps=%d games=%d)", *resume, meta.TrainSteps, meta.GamesPlayed)
		} else {
			log.Printf("Resumed from %s", *resume)
		}
	}

	monitorCfg := api.DefaultConfig()
	monitorCfg.Host = *host
	monitorCfg.Port = *port
	monitorCfg.PushInterval = *pushInterval

	server := api.NewServer(t, monitorCfg)

	var stop atomic.Bool
	trainDone := make(chan error, 1)
	go func() {
		trainDone <- t.Run(&stop)
	}()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.ListenAndServeWithGracefulShutdown()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var trainErr error
	trainFinished := false

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	case trainErr = <-trainDone:
		trainFinished = true
	case err := <-serverDone:
		if err != nil {
			log.Printf("Monitor error: %v", err)
		}
	}

	stop.Store(true)
	if !trainFinished {
		trainErr = <-trainDone
	}
	if trainErr != nil {
		log.Printf("Training error: %v", trainErr)
	}

	if err := t.Checkpoint(cfg.CheckpointPath); err != nil {
		log.Printf("Final checkpoint failed: %v", err)
	} else {
		log.Printf("Final checkpoint saved to %s", cfg.CheckpointPath)
	}
	log.Printf("Shutdown complete")
}
