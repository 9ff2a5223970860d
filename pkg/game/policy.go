package game

import "math/rand"

// DecisionType identifies one of the four independent action spaces a
// turn may require a choice from.
type DecisionType int

const (
	DecisionHandSize DecisionType = iota
	DecisionZapZap
	DecisionPlayType
	DecisionDrawSource

	NumDecisionTypes = 4
)

// ActionDims gives the action-space dimension per decision type, in the
// fixed order [HandSize, ZapZap, PlayType, DrawSource].
var ActionDims = [NumDecisionTypes]int{7, 2, 5, 2}

var decisionNames = [...]string{"HandSize", "ZapZap", "PlayType", "DrawSource"}

// String returns the decision type name.
func (d DecisionType) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "Unknown"
	}
	return decisionNames[d]
}

// PlayType actions. A policy chooses a play category; the category is
// resolved against the hand's enumerated combinations.
const (
	PlayBestValue     = 0 // combination removing the most points
	PlayLowestSingle  = 1 // cheapest single card
	PlayHighestSingle = 2 // most expensive single card
	PlayLargestSet    = 3 // combination removing the most cards
	PlaySaveWildcards = 4 // best combination that keeps wildcards in hand
)

// HandSizeToAction converts a dealt hand size (4..10) to its action index.
func HandSizeToAction(size int) int {
	a := size - MinHandSize
	if a < 0 {
		a = 0
	}
	if a >= ActionDims[DecisionHandSize] {
		a = ActionDims[DecisionHandSize] - 1
	}
	return a
}

// ActionToHandSize converts a HandSize action index to a hand size.
func ActionToHandSize(action int) int {
	return MinHandSize + action
}

// ResolvePlayAction maps a PlayType action onto a concrete combination
// from the hand. Every action resolves on any non-empty hand; when a
// category is empty it falls back to the lowest single.
func ResolvePlayAction(hand []Card, action int) []Card {
	if len(hand) == 0 {
		return nil
	}
	switch action {
	case PlayBestValue:
		return BestValuePlay(hand)
	case PlayLowestSingle:
		return []Card{extremeSingle(hand, false)}
	case PlayHighestSingle:
		return []Card{extremeSingle(hand, true)}
	case PlayLargestSet:
		if best := largestSet(hand); best != nil {
			return best
		}
	case PlaySaveWildcards:
		if best := bestWildcardFreePlay(hand); best != nil {
			return best
		}
	}
	return []Card{extremeSingle(hand, false)}
}

// extremeSingle returns the highest- or lowest-point card in the hand.
func extremeSingle(hand []Card, highest bool) Card {
	best := hand[0]
	for _, c := range hand[1:] {
		if highest && Points(c) > Points(best) {
			best = c
		} else if !highest && Points(c) < Points(best) {
			best = c
		}
	}
	return best
}

// largestSet returns the multi-card combination removing the most
// cards, breaking ties by points removed.
func largestSet(hand []Card) []Card {
	var best []Card
	for _, play := range EnumerateAllPlays(hand) {
		if len(play) < 2 {
			continue
		}
		if len(play) > len(best) || (len(play) == len(best) && HandValue(play) > HandValue(best)) {
			best = play
		}
	}
	return best
}

// bestWildcardFreePlay returns the best-value combination containing no
// wildcards, or nil if every combination spends one.
func bestWildcardFreePlay(hand []Card) []Card {
	var best []Card
	bestValue := -1
	for _, play := range EnumerateAllPlays(hand) {
		if countWildcards(play) > 0 {
			continue
		}
		if v := HandValue(play); v > bestValue {
			best = play
			bestValue = v
		}
	}
	return best
}

// DecisionPolicy is the capability the engine invokes at each decision
// point. Implementations range from baseline heuristics to the trained
// Q-network policy; the engine does not know which is active.
type DecisionPolicy interface {
	SelectHandSize(gs *GameState, player int) int
	SelectPlay(gs *GameState, player int) []Card
	ShouldCallZapZap(gs *GameState, player int) bool
	SelectDrawSource(gs *GameState, player int) DrawChoice
}

// RandomPolicy chooses uniformly among legal options. Used for replay
// buffer warmup and engine tests; fully reproducible from its seed.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a seeded random policy.
func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) SelectHandSize(gs *GameState, player int) int {
	max := MaxHandSizeNormal
	if gs.GoldenScore {
		max = MaxHandSize
	}
	return MinHandSize + p.rng.Intn(max-MinHandSize+1)
}

func (p *RandomPolicy) SelectPlay(gs *GameState, player int) []Card {
	plays := EnumerateAllPlays(gs.Hands[player])
	if len(plays) == 0 {
		return nil
	}
	return plays[p.rng.Intn(len(plays))]
}

func (p *RandomPolicy) ShouldCallZapZap(gs *GameState, player int) bool {
	return p.rng.Intn(2) == 0
}

func (p *RandomPolicy) SelectDrawSource(gs *GameState, player int) DrawChoice {
	if len(gs.LastCardsPlayed) > 0 && p.rng.Intn(2) == 0 {
		c := gs.LastCardsPlayed[p.rng.Intn(len(gs.LastCardsPlayed))]
		return DrawChoice{Card: c}
	}
	return DrawChoice{FromDeck: true}
}

// GreedyConfig holds the tunable parameters of the greedy baseline.
// Parameters are explicit constructor inputs, never package globals.
type GreedyConfig struct {
	// ZapZapAt calls the round once the hand value drops to this.
	ZapZapAt int
	// PickupBelow draws from the exposed pile when its cheapest card is
	// below this many points; otherwise draws blind from the deck.
	PickupBelow int
	// HandSize is the preferred deal size.
	HandSize int
}

// DefaultGreedyConfig returns the tuned baseline parameters.
func DefaultGreedyConfig() GreedyConfig {
	return GreedyConfig{
		ZapZapAt:    3,
		PickupBelow: 4,
		HandSize:    5,
	}
}

// GreedyPolicy sheds the most points every turn and calls ZapZap at a
// fixed threshold.
type GreedyPolicy struct {
	cfg GreedyConfig
}

// NewGreedyPolicy creates a greedy baseline with the given parameters.
func NewGreedyPolicy(cfg GreedyConfig) *GreedyPolicy {
	if cfg.HandSize < MinHandSize {
		cfg.HandSize = MinHandSize
	}
	return &GreedyPolicy{cfg: cfg}
}

func (p *GreedyPolicy) SelectHandSize(gs *GameState, player int) int {
	return p.cfg.HandSize
}

func (p *GreedyPolicy) SelectPlay(gs *GameState, player int) []Card {
	return BestValuePlay(gs.Hands[player])
}

func (p *GreedyPolicy) ShouldCallZapZap(gs *GameState, player int) bool {
	return HandValue(gs.Hands[player]) <= p.cfg.ZapZapAt
}

func (p *GreedyPolicy) SelectDrawSource(gs *GameState, player int) DrawChoice {
	if len(gs.LastCardsPlayed) > 0 {
		c := extremeSingle(gs.LastCardsPlayed, false)
		if !IsWildcard(c) && Points(c) < p.cfg.PickupBelow {
			return DrawChoice{Card: c}
		}
	}
	return DrawChoice{FromDeck: true}
}
