package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Action identifies the phase of the round state machine. Each phase
// legalizes only a subset of operations.
type Action int

const (
	ActionSelectHandSize Action = iota
	ActionDraw
	ActionPlay
	ActionZapZap
	ActionFinished
)

var actionNames = [...]string{
	ActionSelectHandSize: "SelectHandSize",
	ActionDraw:           "Draw",
	ActionPlay:           "Play",
	ActionZapZap:         "ZapZap",
	ActionFinished:       "Finished",
}

// String returns the snapshot form of the action.
func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction converts a snapshot action string back to its enum value.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Game limits.
const (
	MinPlayers = 2
	MaxPlayers = 8

	MinHandSize       = 4
	MaxHandSizeNormal = 7
	MaxHandSize       = 10 // Golden Score ceiling

	// EliminationScore is the cumulative score a player must exceed to
	// be eliminated.
	EliminationScore = 100

	// ZapZapThreshold is the maximum hand value allowed to call ZapZap.
	ZapZapThreshold = 5
)

// GameState is the complete mutable simulation state for one match.
// Hands are exclusively owned by the state and mutated only through the
// engine's transitions.
type GameState struct {
	NumPlayers int

	Hands           [][]Card
	Deck            []Card
	Discard         []Card
	CardsPlayed     []Card // cards just played this turn, not yet drawable
	LastCardsPlayed []Card // previous play (or flipped starter), drawable

	Scores      []int // cumulative match scores
	RoundScores []int // scores assigned by the last finished round

	CurrentTurn    int
	CurrentAction  Action
	RoundStarter   int
	EliminatedMask uint16
	GoldenScore    bool
	Round          int
	LastAction     string

	// SeenCards tracks, per player, the cards known to have been taken
	// from the exposed pile and not yet played back. Card ids fit in a
	// uint64 because the universe is 54 cards; this representation has
	// a hard ceiling of 64 ids.
	SeenCards []uint64
}

// NewGameState creates the pre-deal state for n players.
func NewGameState(n int) (*GameState, error) {
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("player count %d out of range [%d,%d]", n, MinPlayers, MaxPlayers)
	}
	gs := &GameState{
		NumPlayers:    n,
		Hands:         make([][]Card, n),
		Scores:        make([]int, n),
		RoundScores:   make([]int, n),
		SeenCards:     make([]uint64, n),
		CurrentAction: ActionSelectHandSize,
		// Exactly two active players means sudden death, so a
		// two-player match starts in Golden Score.
		GoldenScore: n == 2,
	}
	return gs, nil
}

// IsEliminated reports whether player i is out of the match.
func (gs *GameState) IsEliminated(i int) bool {
	return gs.EliminatedMask&(1<<uint(i)) != 0
}

// ActivePlayers returns the number of non-eliminated players.
func (gs *GameState) ActivePlayers() int {
	n := 0
	for i := 0; i < gs.NumPlayers; i++ {
		if !gs.IsEliminated(i) {
			n++
		}
	}
	return n
}

// NextActivePlayer returns the first non-eliminated player after i,
// wrapping circularly. Returns i itself if no other player is active.
func (gs *GameState) NextActivePlayer(i int) int {
	for step := 1; step <= gs.NumPlayers; step++ {
		j := (i + step) % gs.NumPlayers
		if !gs.IsEliminated(j) {
			return j
		}
	}
	return i
}

// HandContains reports whether every card in cards is present in player
// p's hand, respecting multiplicity.
func (gs *GameState) HandContains(p int, cards []Card) bool {
	var used [NumCards]bool
	for _, c := range cards {
		found := false
		for _, h := range gs.Hands[p] {
			if h == c && !used[c] {
				used[c] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// removeFromHand removes cards from player p's hand. Callers must have
// verified membership first.
func (gs *GameState) removeFromHand(p int, cards []Card) {
	for _, c := range cards {
		for i, h := range gs.Hands[p] {
			if h == c {
				gs.Hands[p] = append(gs.Hands[p][:i], gs.Hands[p][i+1:]...)
				break
			}
		}
	}
}

// markSeen records that player p is known to hold card c.
func (gs *GameState) markSeen(p int, c Card) {
	gs.SeenCards[p] |= 1 << uint(c)
}

// clearSeen clears visibility of card c for player p.
func (gs *GameState) clearSeen(p int, c Card) {
	gs.SeenCards[p] &^= 1 << uint(c)
}

// KnownCards returns the visibility bitmask for player p. Policies may
// use it for probabilistic inference; it is never consulted for
// legality.
func (gs *GameState) KnownCards(p int) uint64 {
	return gs.SeenCards[p]
}

// TotalCards counts every card across deck, hands, discard and the two
// played piles. It must always equal NumCards between transitions.
func (gs *GameState) TotalCards() int {
	n := len(gs.Deck) + len(gs.Discard) + len(gs.CardsPlayed) + len(gs.LastCardsPlayed)
	for _, h := range gs.Hands {
		n += len(h)
	}
	return n
}

// snapshot is the documented JSON interop shape for a GameState.
type snapshot struct {
	NumPlayers      int               `json:"numPlayers"`
	Deck            []Card            `json:"deck"`
	Discard         []Card            `json:"discard"`
	CardsPlayed     []Card            `json:"cardsPlayed"`
	LastCardsPlayed []Card            `json:"lastCardsPlayed"`
	Hands           map[string][]Card `json:"hands"`
	Scores          []int             `json:"scores"`
	RoundScores     []int             `json:"roundScores"`
	CurrentTurn     int               `json:"currentTurn"`
	CurrentAction   string            `json:"currentAction"`
	RoundStarter    int               `json:"roundStarter"`
	EliminatedMask  uint16            `json:"eliminatedMask"`
	GoldenScore     bool              `json:"goldenScore"`
	Round           int               `json:"round"`
	LastAction      string            `json:"lastAction"`
	SeenCards       []uint64          `json:"seenCards"`
}

// MarshalJSON serializes the state in the documented snapshot shape.
func (gs *GameState) MarshalJSON() ([]byte, error) {
	hands := make(map[string][]Card, gs.NumPlayers)
	for i, h := range gs.Hands {
		hands[strconv.Itoa(i)] = h
	}
	return json.Marshal(snapshot{
		NumPlayers:      gs.NumPlayers,
		Deck:            gs.Deck,
		Discard:         gs.Discard,
		CardsPlayed:     gs.CardsPlayed,
		LastCardsPlayed: gs.LastCardsPlayed,
		Hands:           hands,
		Scores:          gs.Scores,
		RoundScores:     gs.RoundScores,
		CurrentTurn:     gs.CurrentTurn,
		CurrentAction:   gs.CurrentAction.String(),
		RoundStarter:    gs.RoundStarter,
		EliminatedMask:  gs.EliminatedMask,
		GoldenScore:     gs.GoldenScore,
		Round:           gs.Round,
		LastAction:      gs.LastAction,
		SeenCards:       gs.SeenCards,
	})
}

// UnmarshalJSON restores a state from the snapshot shape. A snapshot
// that does not decode, or whose card census is not the full universe,
// is a hard error: fabricating a game state is unsafe.
func (gs *GameState) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding game snapshot: %w", err)
	}
	if s.NumPlayers < MinPlayers || s.NumPlayers > MaxPlayers {
		return fmt.Errorf("snapshot has invalid player count %d", s.NumPlayers)
	}
	action, err := ParseAction(s.CurrentAction)
	if err != nil {
		return fmt.Errorf("decoding game snapshot: %w", err)
	}

	hands := make([][]Card, s.NumPlayers)
	for i := 0; i < s.NumPlayers; i++ {
		hands[i] = s.Hands[strconv.Itoa(i)]
	}

	gs.NumPlayers = s.NumPlayers
	gs.Deck = s.Deck
	gs.Discard = s.Discard
	gs.CardsPlayed = s.CardsPlayed
	gs.LastCardsPlayed = s.LastCardsPlayed
	gs.Hands = hands
	gs.Scores = s.Scores
	gs.RoundScores = s.RoundScores
	gs.CurrentTurn = s.CurrentTurn
	gs.CurrentAction = action
	gs.RoundStarter = s.RoundStarter
	gs.EliminatedMask = s.EliminatedMask
	gs.GoldenScore = s.GoldenScore
	gs.Round = s.Round
	gs.LastAction = s.LastAction
	gs.SeenCards = s.SeenCards
	if len(gs.Scores) != s.NumPlayers || len(gs.RoundScores) != s.NumPlayers {
		return fmt.Errorf("snapshot score arrays do not match player count %d", s.NumPlayers)
	}
	if len(gs.SeenCards) != s.NumPlayers {
		gs.SeenCards = make([]uint64, s.NumPlayers)
	}
	if action != ActionSelectHandSize && action != ActionFinished && gs.TotalCards() != NumCards {
		return fmt.Errorf("snapshot card census is %d, want %d", gs.TotalCards(), NumCards)
	}
	return nil
}
