package trainer

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/internal/replay"
	"github.com/yourusername/zapzap/pkg/game"
)

func testTrainerConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchSize = 8
	cfg.PublishEvery = 1
	cfg.CheckpointEvery = 0
	cfg.Replay = replay.Config{Capacity: 256, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1}
	return cfg
}

func fillBuffer(t *Trainer, dt game.DecisionType, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		state := make([]float32, game.NumFeatures)
		for j := range state {
			state[j] = rng.Float32()
		}
		t.Buffer().Push(replay.Transition{
			State:     state,
			Action:    rng.Intn(game.ActionDims[dt]),
			Reward:    rng.Float64() - 0.5,
			NextState: state,
			Done:      true,
			Decision:  dt,
		})
	}
}

func TestStepSkipsOnEmptyBuffer(t *testing.T) {
	tr := New(testTrainerConfig())

	require.False(t, tr.Step(), "empty buffer must skip, not fail")
	require.Equal(t, 0, tr.Stats().Steps)
}

func TestStepTrainsAvailableTypes(t *testing.T) {
	tr := New(testTrainerConfig())
	fillBuffer(tr, game.DecisionPlayType, 32, 2)

	require.True(t, tr.Step())
	stats := tr.Stats()
	require.Equal(t, 1, stats.Steps, "only the populated decision type trains")
	require.Greater(t, stats.AvgLoss, 0.0)
	require.Equal(t, 32, stats.BufferByType[game.DecisionPlayType.String()])
}

func TestAdaptiveBatchSizes(t *testing.T) {
	tr := New(testTrainerConfig())

	// Rare decision types train on quarter batches, floored at 4.
	require.Equal(t, 8, tr.batchSizeFor(game.DecisionPlayType))
	require.Equal(t, 8, tr.batchSizeFor(game.DecisionDrawSource))
	require.Equal(t, 4, tr.batchSizeFor(game.DecisionHandSize))
	require.Equal(t, 4, tr.batchSizeFor(game.DecisionZapZap))

	big := testTrainerConfig()
	big.BatchSize = 64
	tr2 := New(big)
	require.Equal(t, 16, tr2.batchSizeFor(game.DecisionZapZap))
}

func TestTrainingReducesLoss(t *testing.T) {
	tr := New(testTrainerConfig())
	fillBuffer(tr, game.DecisionPlayType, 64, 3)

	require.True(t, tr.Step())
	first := tr.Stats().AvgLoss
	for i := 0; i < 300; i++ {
		tr.Step()
	}
	last := tr.Stats().AvgLoss

	// Terminal transitions make the targets fixed, so the network
	// should fit them and the running loss should fall.
	require.Less(t, last, first)
}

func TestStatsConcurrentWithTraining(t *testing.T) {
	tr := New(testTrainerConfig())
	fillBuffer(tr, game.DecisionPlayType, 64, 6)

	// Stats is served by the monitor goroutines while training runs;
	// both must be able to proceed concurrently.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = tr.Stats()
		}
	}()
	for i := 0; i < 200; i++ {
		tr.Step()
	}
	<-done

	stats := tr.Stats()
	require.Equal(t, 200, stats.Steps)
	require.Equal(t, 200, stats.LastPublish)
}

func TestPublishTracksOnlineWeights(t *testing.T) {
	tr := New(testTrainerConfig())
	fillBuffer(tr, game.DecisionDrawSource, 32, 4)

	before := tr.PublishedWeights()
	require.True(t, tr.Step())
	after := tr.PublishedWeights()

	require.Equal(t, tr.Stats().Steps, tr.Stats().LastPublish)
	changed := false
	for i := range before {
		if before[i] != after[i] {
			changed = true
			break
		}
	}
	require.True(t, changed, "publishing must propagate the gradient step")
}

func TestRestoreWeights(t *testing.T) {
	tr := New(testTrainerConfig())

	weights := make([]float32, qnet.FlatWeightCount())
	for i := range weights {
		weights[i] = 0.125
	}
	tr.RestoreWeights(weights)

	got := tr.PublishedWeights()
	require.Equal(t, qnet.FlatWeightCount(), len(got))
	require.Equal(t, float32(0.125), got[0])
	require.Equal(t, float32(0.125), got[len(got)-1])
}

func TestCheckpointArtifact(t *testing.T) {
	tr := New(testTrainerConfig())
	path := filepath.Join(t.TempDir(), "ckpt.weights")

	require.NoError(t, tr.Checkpoint(path))

	weights, meta, err := qnet.LoadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, qnet.FlatWeightCount(), len(weights))
	require.NotNil(t, meta)
	require.Equal(t, 0, meta.TrainSteps)
}

func TestRunSelfPlayFillsBuffer(t *testing.T) {
	buf := replay.NewBuffer(replay.Config{Capacity: 4096, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1})
	net := qnet.NewInference(1)

	opts := SelfPlayOptions{
		Games:      3,
		Workers:    1,
		NumPlayers: 2,
		Seed:       5,
		Epsilon:    1.0,
	}
	result := RunSelfPlay(buf, net.ExportFlatWeights(), opts, nil)

	require.Equal(t, 3, result.Completed)
	require.Len(t, result.Records, 3)
	for _, rec := range result.Records {
		require.NotEmpty(t, rec.ID)
		require.GreaterOrEqual(t, rec.Winner, 0)
		require.Less(t, rec.Winner, 2)
	}
	require.Greater(t, buf.Len(), 0, "self-play must emit transitions")
}

func TestRunIterations(t *testing.T) {
	cfg := testTrainerConfig()
	cfg.NumPlayers = 2
	cfg.GamesPerIteration = 2
	cfg.Workers = 1
	cfg.StepsPerIteration = 2
	tr := New(cfg)

	require.NoError(t, tr.RunIterations(2, nil))

	stats := tr.Stats()
	require.GreaterOrEqual(t, stats.GamesPlayed, int64(1))
	require.Greater(t, stats.BufferSize, 0)
}
