// Package qnet implements the dueling Q-network behind the trained
// policy, in two representations sharing one logical model: a float64
// differentiable network for gradient training (Trainable) and a
// float32 flat-array network for allocation-free inference (Inference).
// Both agree on one flat weight layout so weights transplant losslessly
// between them.
package qnet

import "github.com/yourusername/zapzap/pkg/game"

// Architecture dimensions. Input 45 -> two ReLU trunk layers -> a value
// head producing a scalar and four independent advantage heads with
// action dimensions [7,2,5,2]. Per decision type:
// Q_a = V + (A_a - mean_b A_b).
const (
	InputSize  = game.NumFeatures
	TrunkSize  = 64
	HeadHidden = 32
)

// layerSpec describes one dense layer in flat-weight order.
type layerSpec struct {
	in, out int
	relu    bool
}

// layerSpecs returns every layer in the fixed flat-weight order: trunk
// layers, value head layers, then the advantage head layers per
// decision type in the order [HandSize, ZapZap, PlayType, DrawSource].
// Any alternative implementation must preserve this ordering exactly.
func layerSpecs() []layerSpec {
	specs := []layerSpec{
		{InputSize, TrunkSize, true},
		{TrunkSize, TrunkSize, true},
		{TrunkSize, HeadHidden, true},
		{HeadHidden, 1, false},
	}
	for dt := 0; dt < game.NumDecisionTypes; dt++ {
		specs = append(specs,
			layerSpec{TrunkSize, HeadHidden, true},
			layerSpec{HeadHidden, game.ActionDims[dt], false},
		)
	}
	return specs
}

// Layer indices into layerSpecs order.
const (
	layerTrunk1 = 0
	layerTrunk2 = 1
	layerValue1 = 2
	layerValue2 = 3
	layerHeads  = 4 // first advantage layer; two layers per decision type
)

// FlatWeightCount returns the length of the flat weight vector: for
// each layer, out*in weights in row-major [out][in] order followed by
// out biases.
func FlatWeightCount() int {
	n := 0
	for _, s := range layerSpecs() {
		n += s.out*s.in + s.out
	}
	return n
}

// dueling combines a scalar value and an advantage vector into
// Q-values, subtracting the advantage mean.
func dueling(value float32, adv []float32, q []float32) {
	var mean float32
	for _, a := range adv {
		mean += a
	}
	mean /= float32(len(adv))
	for i, a := range adv {
		q[i] = value + a - mean
	}
}

// argmax returns the first index of the maximum value.
func argmax(q []float32) int {
	best := 0
	for i := 1; i < len(q); i++ {
		if q[i] > q[best] {
			best = i
		}
	}
	return best
}
