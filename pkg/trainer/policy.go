package trainer

import (
	"github.com/yourusername/zapzap/internal/qnet"
	"github.com/yourusername/zapzap/pkg/game"
)

// QPolicy is the trained decision policy: it feeds extracted features
// through the inference network, explores epsilon-greedily, and reports
// every decision to an optional recorder for transition collection.
// A QPolicy wraps one Inference and is not safe for concurrent use.
type QPolicy struct {
	net      *qnet.Inference
	epsilon  float64
	recorder game.Recorder
}

// NewQPolicy creates a policy over an inference network.
func NewQPolicy(net *qnet.Inference, epsilon float64) *QPolicy {
	return &QPolicy{net: net, epsilon: epsilon}
}

// SetRecorder attaches a transition recorder; nil detaches it.
func (p *QPolicy) SetRecorder(r game.Recorder) { p.recorder = r }

// SetEpsilon adjusts the exploration rate between games.
func (p *QPolicy) SetEpsilon(epsilon float64) { p.epsilon = epsilon }

func (p *QPolicy) decide(features []float32, dt game.DecisionType, player int) int {
	action := p.net.EpsilonGreedyAction(features, dt, p.epsilon)
	if p.recorder != nil {
		p.recorder.RecordDecision(player, dt, features, action)
	}
	return action
}

// SelectHandSize chooses the deal size from the degraded pre-deal
// feature vector.
func (p *QPolicy) SelectHandSize(gs *game.GameState, player int) int {
	features := game.ExtractPreDealFeatures(gs, player)
	action := p.decide(features, game.DecisionHandSize, player)
	return game.ActionToHandSize(action)
}

// SelectPlay chooses a play category and resolves it to a concrete
// combination from the hand.
func (p *QPolicy) SelectPlay(gs *game.GameState, player int) []game.Card {
	features := game.ExtractFeatures(gs, player)
	action := p.decide(features, game.DecisionPlayType, player)
	return game.ResolvePlayAction(gs.Hands[player], action)
}

// ShouldCallZapZap decides whether to end the round. The engine only
// consults this when the call is legal.
func (p *QPolicy) ShouldCallZapZap(gs *game.GameState, player int) bool {
	features := game.ExtractFeatures(gs, player)
	return p.decide(features, game.DecisionZapZap, player) == 1
}

// SelectDrawSource chooses between a blind deck draw and picking up the
// cheapest exposed card.
func (p *QPolicy) SelectDrawSource(gs *game.GameState, player int) game.DrawChoice {
	features := game.ExtractFeatures(gs, player)
	action := p.decide(features, game.DecisionDrawSource, player)
	if action == 1 && len(gs.LastCardsPlayed) > 0 {
		best := gs.LastCardsPlayed[0]
		for _, c := range gs.LastCardsPlayed[1:] {
			if game.Points(c) < game.Points(best) {
				best = c
			}
		}
		return game.DrawChoice{Card: best}
	}
	return game.DrawChoice{FromDeck: true}
}
