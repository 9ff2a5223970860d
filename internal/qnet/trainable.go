package qnet

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/zapzap/pkg/game"
)

// AdamConfig holds the optimizer hyperparameters.
type AdamConfig struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

// DefaultAdamConfig returns the standard Adam settings.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LearningRate: 1e-3,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// denseLayer is one float64 dense layer with gradient accumulators and
// Adam moment estimates.
type denseLayer struct {
	w    *mat.Dense // out x in
	b    []float64
	in   int
	out  int
	relu bool

	gW *mat.Dense
	gB []float64
	mW *mat.Dense
	vW *mat.Dense
	mB []float64
	vB []float64
}

func newDenseLayer(spec layerSpec, rng *rand.Rand) *denseLayer {
	// He initialization suits the ReLU trunk and head hidden layers.
	std := math.Sqrt(2.0 / float64(spec.in))
	data := make([]float64, spec.out*spec.in)
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return &denseLayer{
		w:    mat.NewDense(spec.out, spec.in, data),
		b:    make([]float64, spec.out),
		in:   spec.in,
		out:  spec.out,
		relu: spec.relu,
		gW:   mat.NewDense(spec.out, spec.in, nil),
		gB:   make([]float64, spec.out),
		mW:   mat.NewDense(spec.out, spec.in, nil),
		vW:   mat.NewDense(spec.out, spec.in, nil),
		mB:   make([]float64, spec.out),
		vB:   make([]float64, spec.out),
	}
}

// forward computes the layer output for one input vector.
func (l *denseLayer) forward(in []float64) []float64 {
	out := make([]float64, l.out)
	v := mat.NewVecDense(l.out, out)
	v.MulVec(l.w, mat.NewVecDense(l.in, in))
	floats.Add(out, l.b)
	if l.relu {
		for i, x := range out {
			if x < 0 {
				out[i] = 0
			}
		}
	}
	return out
}

// backward accumulates dLoss/dW and dLoss/db given the layer's input
// and the delta on its pre-activation, and returns the delta on the
// input. The caller applies the ReLU mask of the previous layer.
func (l *denseLayer) backward(in, delta []float64) []float64 {
	l.gW.RankOne(l.gW, 1, mat.NewVecDense(l.out, delta), mat.NewVecDense(l.in, in))
	floats.Add(l.gB, delta)

	dIn := make([]float64, l.in)
	mat.NewVecDense(l.in, dIn).MulVec(l.w.T(), mat.NewVecDense(l.out, delta))
	return dIn
}

// step applies one Adam update and clears the gradient accumulators.
func (l *denseLayer) step(cfg AdamConfig, t int) {
	c1 := 1 - math.Pow(cfg.Beta1, float64(t))
	c2 := 1 - math.Pow(cfg.Beta2, float64(t))

	w := l.w.RawMatrix().Data
	g := l.gW.RawMatrix().Data
	m := l.mW.RawMatrix().Data
	v := l.vW.RawMatrix().Data
	for i := range w {
		m[i] = cfg.Beta1*m[i] + (1-cfg.Beta1)*g[i]
		v[i] = cfg.Beta2*v[i] + (1-cfg.Beta2)*g[i]*g[i]
		w[i] -= cfg.LearningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + cfg.Epsilon)
		g[i] = 0
	}
	for i := range l.b {
		l.mB[i] = cfg.Beta1*l.mB[i] + (1-cfg.Beta1)*l.gB[i]
		l.vB[i] = cfg.Beta2*l.vB[i] + (1-cfg.Beta2)*l.gB[i]*l.gB[i]
		l.b[i] -= cfg.LearningRate * (l.mB[i] / c1) / (math.Sqrt(l.vB[i]/c2) + cfg.Epsilon)
		l.gB[i] = 0
	}
}

// reluMask zeroes delta entries where the post-activation output was
// clipped.
func reluMask(delta, out []float64) {
	for i, x := range out {
		if x <= 0 {
			delta[i] = 0
		}
	}
}

// Trainable is the differentiable float64 representation of the
// Q-network.
type Trainable struct {
	layers []*denseLayer
	adam   AdamConfig
	step   int
}

// NewTrainable creates a Q-network with He-initialized weights drawn
// from the given seed.
func NewTrainable(seed int64, adam AdamConfig) *Trainable {
	rng := rand.New(rand.NewSource(seed))
	t := &Trainable{adam: adam}
	for _, spec := range layerSpecs() {
		t.layers = append(t.layers, newDenseLayer(spec, rng))
	}
	return t
}

// activations caches every intermediate vector of one forward pass for
// use by the backward pass.
type activations struct {
	input  []float64
	trunk1 []float64
	trunk2 []float64
	valueH []float64
	value  float64
	advH   []float64
	adv    []float64
	q      []float64
}

// forward runs the full network for one decision type.
func (t *Trainable) forward(features []float32, dt game.DecisionType) *activations {
	a := &activations{input: make([]float64, len(features))}
	for i, f := range features {
		a.input[i] = float64(f)
	}
	a.trunk1 = t.layers[layerTrunk1].forward(a.input)
	a.trunk2 = t.layers[layerTrunk2].forward(a.trunk1)
	a.valueH = t.layers[layerValue1].forward(a.trunk2)
	a.value = t.layers[layerValue2].forward(a.valueH)[0]

	adv1 := t.layers[layerHeads+2*int(dt)]
	adv2 := t.layers[layerHeads+2*int(dt)+1]
	a.advH = adv1.forward(a.trunk2)
	a.adv = adv2.forward(a.advH)

	mean := floats.Sum(a.adv) / float64(len(a.adv))
	a.q = make([]float64, len(a.adv))
	for i, adv := range a.adv {
		a.q[i] = a.value + adv - mean
	}
	return a
}

// Predict computes the Q-values for one decision type.
func (t *Trainable) Predict(features []float32, dt game.DecisionType) []float32 {
	a := t.forward(features, dt)
	q := make([]float32, len(a.q))
	for i, v := range a.q {
		q[i] = float32(v)
	}
	return q
}

// GreedyAction returns the arg-max action with first-index tie-break.
func (t *Trainable) GreedyAction(features []float32, dt game.DecisionType) int {
	return argmax(t.Predict(features, dt))
}

// backprop pushes the gradient of the loss with respect to the Q-vector
// through the dueling decomposition and down to the trunk.
func (t *Trainable) backprop(a *activations, dt game.DecisionType, dQ []float64) {
	k := float64(len(dQ))
	sum := floats.Sum(dQ)

	// q_a = V + A_a - mean(A): dV = sum(dQ), dA_b = dQ_b - sum/k.
	dAdv := make([]float64, len(dQ))
	for i, d := range dQ {
		dAdv[i] = d - sum/k
	}

	adv1 := t.layers[layerHeads+2*int(dt)]
	adv2 := t.layers[layerHeads+2*int(dt)+1]
	dAdvH := adv2.backward(a.advH, dAdv)
	reluMask(dAdvH, a.advH)
	dTrunkAdv := adv1.backward(a.trunk2, dAdvH)

	dValueH := t.layers[layerValue2].backward(a.valueH, []float64{sum})
	reluMask(dValueH, a.valueH)
	dTrunkVal := t.layers[layerValue1].backward(a.trunk2, dValueH)

	dTrunk2 := dTrunkAdv
	floats.Add(dTrunk2, dTrunkVal)
	reluMask(dTrunk2, a.trunk2)
	dTrunk1 := t.layers[layerTrunk2].backward(a.trunk1, dTrunk2)
	reluMask(dTrunk1, a.trunk1)
	t.layers[layerTrunk1].backward(a.input, dTrunk1)
}

// TrainBatch performs one weighted-MSE gradient step on the Q-values of
// the taken actions for a single decision type. It returns the signed
// TD errors per sample and the weighted batch loss.
func (t *Trainable) TrainBatch(dt game.DecisionType, states [][]float32, actions []int, targets, isWeights []float64) ([]float64, float64) {
	n := len(states)
	if n == 0 {
		return nil, 0
	}

	tdErrors := make([]float64, n)
	loss := 0.0
	for i := 0; i < n; i++ {
		a := t.forward(states[i], dt)
		td := a.q[actions[i]] - targets[i]
		tdErrors[i] = td
		loss += isWeights[i] * td * td

		dQ := make([]float64, len(a.q))
		dQ[actions[i]] = 2 * isWeights[i] * td / float64(n)
		t.backprop(a, dt, dQ)
	}

	t.step++
	t.layers[layerTrunk1].step(t.adam, t.step)
	t.layers[layerTrunk2].step(t.adam, t.step)
	t.layers[layerValue1].step(t.adam, t.step)
	t.layers[layerValue2].step(t.adam, t.step)
	t.layers[layerHeads+2*int(dt)].step(t.adam, t.step)
	t.layers[layerHeads+2*int(dt)+1].step(t.adam, t.step)

	return tdErrors, loss / float64(n)
}

// Steps returns the number of optimizer steps taken.
func (t *Trainable) Steps() int {
	return t.step
}

// ExportFlatWeights returns the weights as one flat float32 vector in
// the fixed layout: per layer, row-major [out][in] weights then biases.
func (t *Trainable) ExportFlatWeights() []float32 {
	out := make([]float32, 0, FlatWeightCount())
	for _, l := range t.layers {
		for _, v := range l.w.RawMatrix().Data {
			out = append(out, float32(v))
		}
		for _, v := range l.b {
			out = append(out, float32(v))
		}
	}
	return out
}

// ImportFlatWeights installs a flat weight vector. Length mismatches
// truncate or zero-fill and log a fidelity warning instead of failing.
func (t *Trainable) ImportFlatWeights(vec []float32) {
	if len(vec) != FlatWeightCount() {
		logrus.WithFields(logrus.Fields{
			"got":  len(vec),
			"want": FlatWeightCount(),
		}).Warn("flat weight length mismatch, truncating or zero-filling")
	}
	at := func(i int) float64 {
		if i < len(vec) {
			return float64(vec[i])
		}
		return 0
	}
	offset := 0
	for _, l := range t.layers {
		data := l.w.RawMatrix().Data
		for i := range data {
			data[i] = at(offset + i)
		}
		offset += len(data)
		for i := range l.b {
			l.b[i] = at(offset + i)
		}
		offset += len(l.b)
	}
}
