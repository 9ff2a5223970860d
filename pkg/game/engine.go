package game

import (
	"errors"
	"fmt"
	"math/rand"
)

// Recoverable illegal-action errors. These are surfaced to the caller
// and never crash the engine.
var (
	ErrWrongPhase         = errors.New("operation not legal in current phase")
	ErrNotYourTurn        = errors.New("not this player's turn")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrCardNotAvailable   = errors.New("card not available to draw")
	ErrInvalidCombination = errors.New("cards do not form a valid combination")
	ErrIllegalZapZap      = errors.New("hand value too high to call zapzap")
	ErrGameOver           = errors.New("game is finished")
)

// Safety caps against runaway simulation.
const (
	MaxRounds        = 500
	MaxTurnsPerRound = 1000
)

// DrawChoice selects the source of a draw: the deck, or one named card
// from the exposed last-played pile.
type DrawChoice struct {
	FromDeck bool
	Card     Card
}

// RoundResult summarizes a finished round.
type RoundResult struct {
	Caller       int
	Counteracted bool
	LowestPlayer int
	RoundScores  []int
	GoldenScore  bool // whether the finished round was a Golden Score round
	GameOver     bool
	Winner       int // valid only when GameOver
}

// GameResult summarizes a completed match.
type GameResult struct {
	Winner int
	Rounds int
	Turns  int
	Scores []int
}

// Recorder collects decision and outcome events during self-play.
// The engine reports round and game boundaries; policies that learn
// report their own decisions.
type Recorder interface {
	RecordDecision(player int, dt DecisionType, features []float32, action int)
	RecordRoundEnd(roundScores []int)
	RecordGameEnd(winner int)
}

// Engine is the deterministic state machine driving one match.
type Engine struct {
	State    *GameState
	Recorder Recorder // optional

	rng *rand.Rand
}

// NewEngine creates an engine for n players with a seeded RNG. The same
// seed and policies reproduce the same match.
func NewEngine(n int, seed int64) (*Engine, error) {
	gs, err := NewGameState(n)
	if err != nil {
		return nil, err
	}
	return &Engine{State: gs, rng: rand.New(rand.NewSource(seed))}, nil
}

// shuffledDeck returns a freshly shuffled full 54-card deck.
func (e *Engine) shuffledDeck() []Card {
	deck := make([]Card, NumCards)
	for i := range deck {
		deck[i] = Card(i)
	}
	e.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// beginRound collects all cards and enters the hand-size phase with the
// given starting player.
func (e *Engine) beginRound(starter int) {
	gs := e.State
	gs.Round++
	gs.RoundStarter = starter
	gs.CurrentTurn = starter
	gs.CurrentAction = ActionSelectHandSize
	gs.Deck = nil
	gs.Discard = nil
	gs.CardsPlayed = nil
	gs.LastCardsPlayed = nil
	for i := range gs.Hands {
		gs.Hands[i] = nil
		gs.SeenCards[i] = 0
	}
}

// maxDealSize returns the largest hand size dealable to the active
// players while leaving a starter card in the deck.
func (e *Engine) maxDealSize() int {
	active := e.State.ActivePlayers()
	if active == 0 {
		return MinHandSize
	}
	limit := (NumCards - 1) / active
	max := MaxHandSizeNormal
	if e.State.GoldenScore {
		max = MaxHandSize
	}
	if limit < max {
		max = limit
	}
	return max
}

// SelectHandSize deals the round. Only the round's starting player may
// act; the size is clamped to [4,7], or [4,10] in Golden Score, and to
// what the deck can supply.
func (e *Engine) SelectHandSize(player, size int) error {
	gs := e.State
	if gs.CurrentAction != ActionSelectHandSize {
		return ErrWrongPhase
	}
	if player != gs.RoundStarter {
		return fmt.Errorf("%w: only the round starter selects the hand size", ErrNotYourTurn)
	}
	if size < MinHandSize {
		size = MinHandSize
	}
	if max := e.maxDealSize(); size > max {
		size = max
	}

	gs.Deck = e.shuffledDeck()
	for i := 0; i < gs.NumPlayers; i++ {
		if gs.IsEliminated(i) {
			continue
		}
		gs.Hands[i] = append([]Card(nil), gs.Deck[:size]...)
		gs.Deck = gs.Deck[size:]
	}
	// Flip the starter card: it seeds the exposed pile for the first draw.
	gs.LastCardsPlayed = []Card{gs.Deck[0]}
	gs.Deck = gs.Deck[1:]

	gs.CurrentTurn = gs.RoundStarter
	gs.CurrentAction = ActionPlay
	gs.LastAction = fmt.Sprintf("player %d dealt hands of %d", player, size)
	return nil
}

// PlayCards plays a combination from the current player's hand. The
// first play of a round keeps the flipped starter exposed; later plays
// rotate the previous play to the exposed pile and the exposed pile to
// the discard.
func (e *Engine) PlayCards(player int, cards []Card) error {
	gs := e.State
	if gs.CurrentAction != ActionPlay {
		return ErrWrongPhase
	}
	if player != gs.CurrentTurn {
		return ErrNotYourTurn
	}
	if len(gs.Hands[player]) == 0 {
		// An exhausted draw can leave a hand empty; the turn passes
		// without a play or a draw.
		gs.CurrentTurn = gs.NextActivePlayer(player)
		gs.LastAction = fmt.Sprintf("player %d passed with no cards", player)
		return nil
	}
	if !gs.HandContains(player, cards) {
		return ErrCardNotInHand
	}
	if !IsValidPlay(cards) {
		return ErrInvalidCombination
	}

	if len(gs.CardsPlayed) > 0 {
		gs.Discard = append(gs.Discard, gs.LastCardsPlayed...)
		gs.LastCardsPlayed = gs.CardsPlayed
	}
	gs.CardsPlayed = append([]Card(nil), cards...)
	gs.removeFromHand(player, cards)
	for _, c := range cards {
		gs.clearSeen(player, c)
	}

	gs.CurrentAction = ActionDraw
	gs.LastAction = fmt.Sprintf("player %d played %d cards", player, len(cards))
	return nil
}

// Draw completes the current player's turn by drawing one card, either
// from the deck or from the exposed pile, then advances the turn. A
// deck draw with both deck and discard exhausted is a forced skip, not
// an error.
func (e *Engine) Draw(player int, choice DrawChoice) error {
	gs := e.State
	if gs.CurrentAction != ActionDraw {
		return ErrWrongPhase
	}
	if player != gs.CurrentTurn {
		return ErrNotYourTurn
	}

	if choice.FromDeck {
		if len(gs.Deck) == 0 {
			e.reshuffleDiscard()
		}
		if len(gs.Deck) > 0 {
			gs.Hands[player] = append(gs.Hands[player], gs.Deck[0])
			gs.Deck = gs.Deck[1:]
			gs.LastAction = fmt.Sprintf("player %d drew from deck", player)
		} else {
			gs.LastAction = fmt.Sprintf("player %d skipped draw, no cards left", player)
		}
	} else {
		idx := -1
		for i, c := range gs.LastCardsPlayed {
			if c == choice.Card {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrCardNotAvailable
		}
		gs.LastCardsPlayed = append(gs.LastCardsPlayed[:idx], gs.LastCardsPlayed[idx+1:]...)
		gs.Hands[player] = append(gs.Hands[player], choice.Card)
		// This pickup is public knowledge until the card is played back.
		gs.markSeen(player, choice.Card)
		gs.LastAction = fmt.Sprintf("player %d took card %d", player, int(choice.Card))
	}

	gs.CurrentTurn = gs.NextActivePlayer(player)
	gs.CurrentAction = ActionPlay
	return nil
}

// reshuffleDiscard folds the discard pile back into the deck.
func (e *Engine) reshuffleDiscard() {
	gs := e.State
	if len(gs.Discard) == 0 {
		return
	}
	gs.Deck = append(gs.Deck, gs.Discard...)
	gs.Discard = nil
	e.rng.Shuffle(len(gs.Deck), func(i, j int) { gs.Deck[i], gs.Deck[j] = gs.Deck[j], gs.Deck[i] })
}

// CallZapZap ends the round. Legal only on the caller's turn in the
// play phase with a hand value of at most ZapZapThreshold.
func (e *Engine) CallZapZap(player int) (*RoundResult, error) {
	gs := e.State
	if gs.CurrentAction != ActionPlay {
		return nil, ErrWrongPhase
	}
	if player != gs.CurrentTurn {
		return nil, ErrNotYourTurn
	}
	if HandValue(gs.Hands[player]) > ZapZapThreshold {
		return nil, ErrIllegalZapZap
	}
	gs.CurrentAction = ActionZapZap
	return e.resolveRound(player), nil
}

// resolveRound scores a called round, applies eliminations, and decides
// Golden Score transitions. Ties go against the caller: any other
// active player at or below the caller's hand value counteracts.
func (e *Engine) resolveRound(caller int) *RoundResult {
	gs := e.State
	wasGolden := gs.GoldenScore
	callerValue := HandValue(gs.Hands[caller])

	counteracted := false
	lowest := caller
	lowestValue := callerValue
	for i := 0; i < gs.NumPlayers; i++ {
		if i == caller || gs.IsEliminated(i) {
			continue
		}
		v := HandValue(gs.Hands[i])
		if v <= callerValue {
			counteracted = true
			if v < lowestValue || lowest == caller {
				lowest = i
				lowestValue = v
			}
		}
	}

	for i := range gs.RoundScores {
		gs.RoundScores[i] = 0
	}
	active := gs.ActivePlayers()
	for i := 0; i < gs.NumPlayers; i++ {
		if gs.IsEliminated(i) {
			continue
		}
		if i == lowest {
			continue // lowest hand scores zero
		}
		gs.RoundScores[i] = ScoringValue(gs.Hands[i])
		if i == caller && counteracted {
			gs.RoundScores[i] += (active - 1) * 5
		}
	}
	for i := 0; i < gs.NumPlayers; i++ {
		gs.Scores[i] += gs.RoundScores[i]
		if gs.Scores[i] > EliminationScore {
			gs.EliminatedMask |= 1 << uint(i)
		}
	}

	result := &RoundResult{
		Caller:       caller,
		Counteracted: counteracted,
		LowestPlayer: lowest,
		RoundScores:  append([]int(nil), gs.RoundScores...),
		GoldenScore:  wasGolden,
		Winner:       -1,
	}

	switch {
	case wasGolden:
		// In Golden Score the round outcome alone decides the match.
		result.GameOver = true
		result.Winner = lowest
	case gs.ActivePlayers() <= 1:
		result.GameOver = true
		for i := 0; i < gs.NumPlayers; i++ {
			if !gs.IsEliminated(i) {
				result.Winner = i
			}
		}
	case gs.ActivePlayers() == 2:
		gs.GoldenScore = true
	}

	gs.CurrentAction = ActionFinished
	gs.LastAction = fmt.Sprintf("player %d called zapzap", caller)
	if e.Recorder != nil {
		e.Recorder.RecordRoundEnd(result.RoundScores)
	}
	return result
}

// RunGame drives a complete match with one policy per seat, looping
// rounds until a winner emerges or the safety caps trip.
func (e *Engine) RunGame(policies []DecisionPolicy) (*GameResult, error) {
	gs := e.State
	if len(policies) != gs.NumPlayers {
		return nil, fmt.Errorf("have %d policies for %d players", len(policies), gs.NumPlayers)
	}

	totalTurns := 0
	starter := gs.RoundStarter
	for round := 0; round < MaxRounds; round++ {
		e.beginRound(starter)

		size := policies[starter].SelectHandSize(gs, starter)
		if err := e.SelectHandSize(starter, size); err != nil {
			return nil, fmt.Errorf("round %d deal: %w", gs.Round, err)
		}

		var result *RoundResult
		for turn := 0; turn < MaxTurnsPerRound; turn++ {
			totalTurns++
			p := gs.CurrentTurn

			if HandValue(gs.Hands[p]) <= ZapZapThreshold && policies[p].ShouldCallZapZap(gs, p) {
				var err error
				result, err = e.CallZapZap(p)
				if err != nil {
					return nil, fmt.Errorf("round %d zapzap: %w", gs.Round, err)
				}
				break
			}

			if len(gs.Hands[p]) == 0 {
				// Nothing to shed and nothing left to draw: forced pass.
				if err := e.PlayCards(p, nil); err != nil {
					return nil, fmt.Errorf("round %d pass: %w", gs.Round, err)
				}
				continue
			}

			cards := policies[p].SelectPlay(gs, p)
			if err := e.PlayCards(p, cards); err != nil {
				return nil, fmt.Errorf("round %d play: %w", gs.Round, err)
			}
			if err := e.Draw(p, policies[p].SelectDrawSource(gs, p)); err != nil {
				return nil, fmt.Errorf("round %d draw: %w", gs.Round, err)
			}
		}
		if result == nil {
			// Turn cap tripped: abandon the round unscored.
			gs.CurrentAction = ActionFinished
			gs.LastAction = "round abandoned at turn cap"
			starter = gs.NextActivePlayer(starter)
			continue
		}
		if result.GameOver {
			if e.Recorder != nil {
				e.Recorder.RecordGameEnd(result.Winner)
			}
			return &GameResult{
				Winner: result.Winner,
				Rounds: gs.Round,
				Turns:  totalTurns,
				Scores: append([]int(nil), gs.Scores...),
			}, nil
		}
		starter = gs.NextActivePlayer(starter)
	}

	// Round cap tripped: lowest cumulative score among active players wins.
	winner := -1
	best := int(^uint(0) >> 1)
	for i := 0; i < gs.NumPlayers; i++ {
		if !gs.IsEliminated(i) && gs.Scores[i] < best {
			best = gs.Scores[i]
			winner = i
		}
	}
	if e.Recorder != nil {
		e.Recorder.RecordGameEnd(winner)
	}
	return &GameResult{Winner: winner, Rounds: gs.Round, Turns: totalTurns, Scores: append([]int(nil), gs.Scores...)}, nil
}
