package trainer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/internal/replay"
	"github.com/yourusername/zapzap/pkg/game"
)

// Config holds the full training configuration.
type Config struct {
	BatchSize int // base batch size; rare decision types use a quarter
	Gamma     float64
	Seed      int64

	Adam     qnet.AdamConfig
	Replay   replay.Config
	Schedule Schedule

	// PublishEvery is the number of optimizer steps between atomic
	// weight publishes to the inference network.
	PublishEvery int

	CheckpointEvery int // optimizer steps between artifacts (0 = off)
	CheckpointPath  string

	// Self-play generation per training iteration.
	NumPlayers        int
	GamesPerIteration int
	Workers           int
	StepsPerIteration int
}

// DefaultConfig returns a working training configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:         64,
		Gamma:             0.97,
		Seed:              1,
		Adam:              qnet.DefaultAdamConfig(),
		Replay:            replay.DefaultConfig(),
		Schedule:          DefaultSchedule(),
		PublishEvery:      200,
		CheckpointEvery:   5_000,
		CheckpointPath:    "zapzap.weights",
		NumPlayers:        4,
		GamesPerIteration: 64,
		Workers:           0,
		StepsPerIteration: 64,
	}
}

// Stats is a monitoring snapshot of training progress.
type Stats struct {
	GamesPlayed  int64          `json:"gamesPlayed"`
	Steps        int            `json:"steps"`
	AvgLoss      float64        `json:"avgLoss"`
	AvgTDError   float64        `json:"avgTdError"`
	Epsilon      float64        `json:"epsilon"`
	Beta         float64        `json:"beta"`
	BufferSize   int            `json:"bufferSize"`
	BufferByType map[string]int `json:"bufferByType"`
	LastPublish  int            `json:"lastPublishStep"`
}

// Trainer drives the learning loop: sample per decision type, compute
// TD targets, apply a weighted gradient step, feed TD errors back as
// priorities, and periodically publish weights for inference.
type Trainer struct {
	cfg    Config
	online *qnet.Trainable
	buffer *replay.Buffer

	// published holds the current inference copy of the online weights.
	// It doubles as the Double-DQN evaluator: the online network
	// selects the next action, this copy evaluates it. The same lock
	// guards the monitoring fields, which Stats reads from the monitor
	// goroutines while the training goroutine writes them.
	mu          sync.Mutex
	published   *qnet.Inference
	lastPublish int
	steps       int
	avgLoss     float64
	avgTD       float64

	gamesPlayed atomic.Int64
	log         *logrus.Entry
}

// New creates a trainer with freshly initialized weights.
func New(cfg Config) *Trainer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.PublishEvery <= 0 {
		cfg.PublishEvery = 200
	}
	online := qnet.NewTrainable(cfg.Seed, cfg.Adam)
	published := qnet.NewInference(cfg.Seed + 1)
	published.ImportFlatWeights(online.ExportFlatWeights())

	return &Trainer{
		cfg:       cfg,
		online:    online,
		buffer:    replay.NewBuffer(cfg.Replay),
		published: published,
		log:       logrus.WithField("component", "trainer"),
	}
}

// Buffer exposes the shared replay buffer for self-play producers.
func (t *Trainer) Buffer() *replay.Buffer { return t.buffer }

// RestoreWeights installs previously saved weights into both
// representations, resuming from a checkpoint.
func (t *Trainer) RestoreWeights(weights []float32) {
	t.online.ImportFlatWeights(weights)
	t.mu.Lock()
	t.published.ImportFlatWeights(weights)
	t.mu.Unlock()
}

// PublishedWeights returns a copy of the last published flat weights.
// The copy is taken under the publish lock, so callers never observe a
// partially updated vector.
func (t *Trainer) PublishedWeights() []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.published.ExportFlatWeights()
}

// batchSizeFor shrinks batches for the rare decision types so sparse
// classes still train on small buffers.
func (t *Trainer) batchSizeFor(dt game.DecisionType) int {
	size := t.cfg.BatchSize
	if dt == game.DecisionHandSize || dt == game.DecisionZapZap {
		size /= 4
	}
	if size < 4 {
		size = 4
	}
	return size
}

// Step runs one training pass over all four decision types. Decision
// types without enough samples are skipped silently; Step reports
// whether any gradient step was applied.
func (t *Trainer) Step() bool {
	beta := t.cfg.Schedule.Beta(int(t.gamesPlayed.Load()))
	stepped := false
	for dt := game.DecisionType(0); dt < game.NumDecisionTypes; dt++ {
		if t.trainDecisionType(dt, beta) {
			stepped = true
		}
	}
	if stepped {
		t.mu.Lock()
		due := t.online.Steps()-t.lastPublish >= t.cfg.PublishEvery
		t.mu.Unlock()
		if due {
			t.publish()
		}
	}
	return stepped
}

// trainDecisionType samples, steps and reprioritizes one decision type.
func (t *Trainer) trainDecisionType(dt game.DecisionType, beta float64) bool {
	batch, ok := t.buffer.Sample(t.batchSizeFor(dt), dt, beta)
	if !ok {
		return false // not enough samples: skip, never an error
	}

	n := len(batch.Transitions)
	states := make([][]float32, n)
	actions := make([]int, n)
	targets := make([]float64, n)
	for i, tr := range batch.Transitions {
		states[i] = tr.State
		actions[i] = tr.Action
		targets[i] = tr.Reward
		if !tr.Done {
			// Double DQN: the online network selects, the published
			// inference network evaluates.
			next := t.online.GreedyAction(tr.NextState, dt)
			t.mu.Lock()
			q := float64(t.published.Predict(tr.NextState, dt)[next])
			t.mu.Unlock()
			targets[i] += t.cfg.Gamma * q
		}
	}

	tdErrors, loss := t.online.TrainBatch(dt, states, actions, targets, batch.Weights)
	t.buffer.UpdatePriorities(batch.Indices, tdErrors)

	t.mu.Lock()
	t.steps = t.online.Steps()
	if t.avgLoss == 0 {
		t.avgLoss = loss
	} else {
		t.avgLoss = 0.99*t.avgLoss + 0.01*loss
	}
	t.avgTD = 0.99*t.avgTD + 0.01*meanAbs(tdErrors)
	t.mu.Unlock()
	return true
}

// publish copies the online weights into the inference network in one
// full-buffer swap under the lock.
func (t *Trainer) publish() {
	weights := t.online.ExportFlatWeights()
	step := t.online.Steps()
	t.mu.Lock()
	t.published.ImportFlatWeights(weights)
	t.lastPublish = step
	t.mu.Unlock()
	t.log.WithField("step", step).Debug("published weights")
}

// Checkpoint writes the current online weights as a binary artifact
// with its metadata sidecar.
func (t *Trainer) Checkpoint(path string) error {
	meta := qnet.NewArtifactMeta(t.online.Steps(), int(t.gamesPlayed.Load()))
	if err := qnet.SaveArtifact(path, t.online.ExportFlatWeights(), meta); err != nil {
		return fmt.Errorf("checkpointing: %w", err)
	}
	return nil
}

// Stats returns a monitoring snapshot.
func (t *Trainer) Stats() Stats {
	games := int(t.gamesPlayed.Load())
	byType := make(map[string]int, game.NumDecisionTypes)
	for dt := game.DecisionType(0); dt < game.NumDecisionTypes; dt++ {
		byType[dt.String()] = t.buffer.CountByType(dt)
	}
	t.mu.Lock()
	steps, avgLoss, avgTD, lastPublish := t.steps, t.avgLoss, t.avgTD, t.lastPublish
	t.mu.Unlock()
	return Stats{
		GamesPlayed:  t.gamesPlayed.Load(),
		Steps:        steps,
		AvgLoss:      avgLoss,
		AvgTDError:   avgTD,
		Epsilon:      t.cfg.Schedule.Epsilon(games),
		Beta:         t.cfg.Schedule.Beta(games),
		BufferSize:   t.buffer.Len(),
		BufferByType: byType,
		LastPublish:  lastPublish,
	}
}

// runIteration performs one generate-then-train cycle.
func (t *Trainer) runIteration(iteration int, stop *atomic.Bool) error {
	games := int(t.gamesPlayed.Load())

	opts := SelfPlayOptions{
		Games:      t.cfg.GamesPerIteration,
		Workers:    t.cfg.Workers,
		NumPlayers: t.cfg.NumPlayers,
		Seed:       t.cfg.Seed + int64(iteration)*1_000_000_000,
		Epsilon:    t.cfg.Schedule.Epsilon(games),
	}
	result := RunSelfPlay(t.buffer, t.PublishedWeights(), opts, stop)
	t.gamesPlayed.Add(int64(result.Completed))

	applied := 0
	for i := 0; i < t.cfg.StepsPerIteration; i++ {
		if stop != nil && stop.Load() {
			break
		}
		if t.Step() {
			applied++
		}
	}

	t.mu.Lock()
	avgLoss := t.avgLoss
	t.mu.Unlock()
	t.log.WithFields(logrus.Fields{
		"iteration": iteration,
		"games":     t.gamesPlayed.Load(),
		"steps":     t.online.Steps(),
		"applied":   applied,
		"avgLoss":   avgLoss,
		"buffer":    t.buffer.Len(),
	}).Info("training iteration complete")

	if t.cfg.CheckpointEvery > 0 && t.online.Steps() > 0 &&
		t.online.Steps()%t.cfg.CheckpointEvery < t.cfg.StepsPerIteration {
		return t.Checkpoint(t.cfg.CheckpointPath)
	}
	return nil
}

// RunIterations performs a fixed number of generate-then-train cycles.
func (t *Trainer) RunIterations(n int, stop *atomic.Bool) error {
	for i := 1; i <= n; i++ {
		if stop != nil && stop.Load() {
			return nil
		}
		if err := t.runIteration(i, stop); err != nil {
			return err
		}
	}
	return nil
}

// Run alternates self-play generation and training until the stop flag
// is raised, checkpointing along the way. The flag is polled between
// iterations and between simulated games; no other teardown exists.
func (t *Trainer) Run(stop *atomic.Bool) error {
	for iteration := 1; stop == nil || !stop.Load(); iteration++ {
		if err := t.runIteration(iteration, stop); err != nil {
			return err
		}
	}
	return nil
}

// meanAbs is a small helper over gonum for monitoring TD magnitudes.
func meanAbs(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	abs := make([]float64, len(v))
	for i, x := range v {
		if x < 0 {
			abs[i] = -x
		} else {
			abs[i] = x
		}
	}
	return floats.Sum(abs) / float64(len(abs))
}
