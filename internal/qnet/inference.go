package qnet

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/zapzap/pkg/game"
)

// infLayer is a view into the flat weight vector: out*in row-major
// weights followed by out biases.
type infLayer struct {
	w, b    []float32
	in, out int
	relu    bool
}

// predictBuffer holds the pre-allocated scratch for one forward pass.
type predictBuffer struct {
	trunk1 []float32
	trunk2 []float32
	hidden []float32
	value  []float32
	adv    []float32
	q      []float32
}

// Inference is the allocation-free flat-array representation of the
// Q-network. Predict is pure aside from its internal scratch buffers,
// so an Inference must not be shared across goroutines without
// external synchronization.
type Inference struct {
	weights []float32
	layers  []infLayer
	buf     predictBuffer
	rng     *rand.Rand
}

// NewInference creates a zero-weighted inference network with a seeded
// RNG for epsilon-greedy exploration.
func NewInference(seed int64) *Inference {
	n := &Inference{
		weights: make([]float32, FlatWeightCount()),
		rng:     rand.New(rand.NewSource(seed)),
	}
	offset := 0
	for _, s := range layerSpecs() {
		n.layers = append(n.layers, infLayer{
			w:    n.weights[offset : offset+s.out*s.in],
			b:    n.weights[offset+s.out*s.in : offset+s.out*s.in+s.out],
			in:   s.in,
			out:  s.out,
			relu: s.relu,
		})
		offset += s.out*s.in + s.out
	}
	maxDim := 0
	for _, d := range game.ActionDims {
		if d > maxDim {
			maxDim = d
		}
	}
	n.buf = predictBuffer{
		trunk1: make([]float32, TrunkSize),
		trunk2: make([]float32, TrunkSize),
		hidden: make([]float32, HeadHidden),
		value:  make([]float32, 1),
		adv:    make([]float32, maxDim),
		q:      make([]float32, maxDim),
	}
	return n
}

// forward computes one dense layer into out.
func (l *infLayer) forward(in, out []float32) {
	for i := 0; i < l.out; i++ {
		w := l.w[i*l.in : (i+1)*l.in]
		acc := l.b[i]
		for j, x := range in {
			if x != 0 {
				acc += w[j] * x
			}
		}
		if l.relu && acc < 0 {
			acc = 0
		}
		out[i] = acc
	}
}

// Predict computes the Q-values for one decision type. The returned
// slice aliases internal scratch and is only valid until the next call.
func (n *Inference) Predict(features []float32, dt game.DecisionType) []float32 {
	n.layers[layerTrunk1].forward(features, n.buf.trunk1)
	n.layers[layerTrunk2].forward(n.buf.trunk1, n.buf.trunk2)

	n.layers[layerValue1].forward(n.buf.trunk2, n.buf.hidden)
	n.layers[layerValue2].forward(n.buf.hidden, n.buf.value)

	dim := game.ActionDims[dt]
	adv1 := &n.layers[layerHeads+2*int(dt)]
	adv2 := &n.layers[layerHeads+2*int(dt)+1]
	adv1.forward(n.buf.trunk2, n.buf.hidden)
	adv2.forward(n.buf.hidden, n.buf.adv[:dim])

	dueling(n.buf.value[0], n.buf.adv[:dim], n.buf.q[:dim])
	return n.buf.q[:dim]
}

// GreedyAction returns the arg-max action with first-index tie-break.
func (n *Inference) GreedyAction(features []float32, dt game.DecisionType) int {
	return argmax(n.Predict(features, dt))
}

// EpsilonGreedyAction makes a single uniform draw: below epsilon it
// returns a uniformly random action, otherwise the greedy one.
func (n *Inference) EpsilonGreedyAction(features []float32, dt game.DecisionType, epsilon float64) int {
	if n.rng.Float64() < epsilon {
		return n.rng.Intn(game.ActionDims[dt])
	}
	return n.GreedyAction(features, dt)
}

// ExportFlatWeights returns a copy of the flat weight vector in the
// fixed layout.
func (n *Inference) ExportFlatWeights() []float32 {
	return append([]float32(nil), n.weights...)
}

// ImportFlatWeights installs a flat weight vector. A length mismatch
// truncates excess and zero-fills what is missing; that never fails,
// but downstream behavior is undefined, so it logs a fidelity warning.
func (n *Inference) ImportFlatWeights(vec []float32) {
	if len(vec) != len(n.weights) {
		logrus.WithFields(logrus.Fields{
			"got":  len(vec),
			"want": len(n.weights),
		}).Warn("flat weight length mismatch, truncating or zero-filling")
	}
	copied := copy(n.weights, vec)
	for i := copied; i < len(n.weights); i++ {
		n.weights[i] = 0
	}
}
