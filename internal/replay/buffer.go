package replay

import (
	"math"
	"math/rand"
	"sync"

	"github.com/yourusername/zapzap/pkg/game"
)

// Transition is one training record emitted by self-play.
type Transition struct {
	State     []float32
	Action    int
	Reward    float64
	NextState []float32
	Done      bool
	Decision  game.DecisionType
}

// Config holds the prioritized replay hyperparameters.
type Config struct {
	Capacity int
	// Alpha controls how strongly priorities skew sampling.
	Alpha float64
	// PriorityEpsilon keeps zero-error transitions sampleable.
	PriorityEpsilon float64
	Seed            int64
}

// DefaultConfig returns the standard prioritized replay settings.
func DefaultConfig() Config {
	return Config{
		Capacity:        100_000,
		Alpha:           0.6,
		PriorityEpsilon: 1e-3,
		Seed:            1,
	}
}

// sampleAttemptFactor bounds rejection sampling: a batch gives up after
// batchSize*sampleAttemptFactor draws.
const sampleAttemptFactor = 20

// Batch is one prioritized sample. Indices feed UpdatePriorities after
// the gradient step; Weights are the importance-sampling corrections.
type Batch struct {
	Indices     []int
	Transitions []Transition
	Weights     []float64
}

// Buffer is a circular, priority-sampled transition store, safe for
// concurrent use by simulation workers and the trainer.
type Buffer struct {
	mu          sync.Mutex
	cfg         Config
	tree        *SumTree
	items       []Transition
	counts      [game.NumDecisionTypes]int
	maxPriority float64 // running max of raw |td|+eps, pre-alpha
	rng         *rand.Rand
}

// NewBuffer creates an empty prioritized buffer.
func NewBuffer(cfg Config) *Buffer {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	return &Buffer{
		cfg:         cfg,
		tree:        NewSumTree(cfg.Capacity),
		items:       make([]Transition, cfg.Capacity),
		maxPriority: 1,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Len returns the number of stored transitions.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree.Size()
}

// CountByType returns how many stored transitions carry the decision
// type.
func (b *Buffer) CountByType(dt game.DecisionType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[dt]
}

// Push inserts a transition with the optimistic initial priority
// maxPriorityObserved^alpha, so fresh experience is sampled soon.
func (b *Buffer) Push(tr Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	priority := math.Pow(b.maxPriority, b.cfg.Alpha)
	leaf := b.tree.Add(priority)
	if b.items[leaf].State != nil {
		// Circular overwrite: retire the old occupant from the census.
		b.counts[b.items[leaf].Decision]--
	}
	b.items[leaf] = tr
	b.counts[tr.Decision]++
}

// Sample draws batchSize transitions of one decision type by rejection
// sampling over the priority mass. It retries up to batchSize*20 draws
// and returns (nil, false) when it cannot fill the batch; callers must
// treat that as "skip this training step", not an error. Beta is the
// externally annealed importance-sampling exponent.
func (b *Buffer) Sample(batchSize int, dt game.DecisionType, beta float64) (*Batch, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.tree.Size()
	if n == 0 || b.counts[dt] < batchSize || b.tree.Total() <= 0 {
		return nil, false
	}

	batch := &Batch{
		Indices:     make([]int, 0, batchSize),
		Transitions: make([]Transition, 0, batchSize),
		Weights:     make([]float64, 0, batchSize),
	}

	// The most uniform (largest) IS weight belongs to the minimum
	// priority; dividing by it keeps every weight at or below one.
	minProb := b.tree.MinPriority() / b.tree.Total()
	maxWeight := math.Pow(float64(n)*minProb, -beta)

	attempts := batchSize * sampleAttemptFactor
	for ; attempts > 0 && len(batch.Indices) < batchSize; attempts-- {
		value := b.rng.Float64() * b.tree.Total()
		leaf, priority := b.tree.Sample(value)
		tr := b.items[leaf]
		if tr.State == nil || tr.Decision != dt {
			continue
		}
		prob := priority / b.tree.Total()
		weight := math.Pow(float64(n)*prob, -beta) / maxWeight
		if weight > 1 {
			weight = 1
		}
		batch.Indices = append(batch.Indices, leaf)
		batch.Transitions = append(batch.Transitions, tr)
		batch.Weights = append(batch.Weights, weight)
	}
	if len(batch.Indices) < batchSize {
		return nil, false
	}
	return batch, true
}

// UpdatePriorities feeds TD errors back after a gradient step: each
// sampled transition gets priority (|td|+epsilon)^alpha, and the
// running maximum is kept for future optimistic inserts.
func (b *Buffer) UpdatePriorities(indices []int, tdErrors []float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, leaf := range indices {
		raw := math.Abs(tdErrors[i]) + b.cfg.PriorityEpsilon
		if raw > b.maxPriority {
			b.maxPriority = raw
		}
		b.tree.Update(leaf, math.Pow(raw, b.cfg.Alpha))
	}
}
