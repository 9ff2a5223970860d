package trainer

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/internal/replay"
	"github.com/yourusername/zapzap/pkg/game"
)

// SelfPlayOptions controls one batch of parallel self-play games.
type SelfPlayOptions struct {
	Games      int   // number of complete games to simulate
	Workers    int   // parallel workers (0 = GOMAXPROCS)
	NumPlayers int   // seats per game
	Seed       int64 // base RNG seed; workers derive their own
	Epsilon    float64
}

// DefaultSelfPlayOptions returns sensible defaults.
func DefaultSelfPlayOptions() SelfPlayOptions {
	return SelfPlayOptions{
		Games:      128,
		Workers:    0,
		NumPlayers: 4,
		Seed:       1,
		Epsilon:    0.1,
	}
}

// GameRecord identifies one completed self-play game.
type GameRecord struct {
	ID     string
	Seed   int64
	Winner int
	Rounds int
	Turns  int
}

// SelfPlayResult aggregates a finished self-play batch.
type SelfPlayResult struct {
	Completed int
	Records   []GameRecord
}

// RunSelfPlay simulates games in parallel, every seat driven by the
// given flat weights, and pushes the resulting transitions into the
// shared buffer. Games are independent and share no mutable state; the
// buffer carries its own lock. The stop flag is polled between games.
func RunSelfPlay(buffer *replay.Buffer, weights []float32, opts SelfPlayOptions, stop *atomic.Bool) *SelfPlayResult {
	if opts.Games <= 0 {
		opts.Games = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.NumPlayers < game.MinPlayers {
		opts.NumPlayers = game.MinPlayers
	}

	gamesPerWorker := opts.Games / opts.Workers
	extraGames := opts.Games % opts.Workers

	records := make(chan GameRecord, opts.Games)
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		games := gamesPerWorker
		if i < extraGames {
			games++
		}
		if games == 0 {
			continue
		}
		workerSeed := opts.Seed + int64(i)*1_000_000

		wg.Add(1)
		go func(games int, seed int64) {
			defer wg.Done()
			selfPlayWorker(buffer, weights, opts, games, seed, stop, records)
		}(games, workerSeed)
	}

	go func() {
		wg.Wait()
		close(records)
	}()

	result := &SelfPlayResult{}
	for rec := range records {
		result.Completed++
		result.Records = append(result.Records, rec)
	}
	return result
}

// selfPlayWorker runs its share of games to termination, synchronously,
// on one goroutine.
func selfPlayWorker(buffer *replay.Buffer, weights []float32, opts SelfPlayOptions, games int, seed int64, stop *atomic.Bool, records chan<- GameRecord) {
	net := qnet.NewInference(seed)
	net.ImportFlatWeights(weights)
	policy := NewQPolicy(net, opts.Epsilon)

	for g := 0; g < games; g++ {
		if stop != nil && stop.Load() {
			return
		}
		gameSeed := seed + int64(g)

		engine, err := game.NewEngine(opts.NumPlayers, gameSeed)
		if err != nil {
			logrus.WithError(err).Error("self-play engine setup failed")
			return
		}
		coll := newCollector(buffer)
		policy.SetRecorder(coll)
		engine.Recorder = coll

		policies := make([]game.DecisionPolicy, opts.NumPlayers)
		for i := range policies {
			policies[i] = policy
		}
		result, err := engine.RunGame(policies)
		if err != nil {
			logrus.WithError(err).WithField("seed", gameSeed).Warn("self-play game aborted")
			continue
		}
		records <- GameRecord{
			ID:     uuid.NewString(),
			Seed:   gameSeed,
			Winner: result.Winner,
			Rounds: result.Rounds,
			Turns:  result.Turns,
		}
	}
}
