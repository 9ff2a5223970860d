package game

import "testing"

func TestHandSizeActionMapping(t *testing.T) {
	if a := HandSizeToAction(4); a != 0 {
		t.Errorf("HandSizeToAction(4) = %d, expected 0", a)
	}
	if a := HandSizeToAction(10); a != 6 {
		t.Errorf("HandSizeToAction(10) = %d, expected 6", a)
	}
	if a := HandSizeToAction(99); a != 6 {
		t.Errorf("HandSizeToAction(99) = %d, expected clamp to 6", a)
	}
	for size := MinHandSize; size <= MaxHandSize; size++ {
		if got := ActionToHandSize(HandSizeToAction(size)); got != size {
			t.Errorf("Round trip for size %d gave %d", size, got)
		}
	}
}

func TestResolvePlayAction(t *testing.T) {
	hand := []Card{
		card(0, 12), // king, 13 points
		card(0, 0),  // ace, 1 point
		card(1, 4), card(2, 4), card(3, 4), // triple fives
		WildcardA,
	}

	tests := []struct {
		name   string
		action int
		check  func(play []Card) bool
	}{
		{"best value", PlayBestValue, func(p []Card) bool {
			return HandValue(p) == HandValue(BestValuePlay(hand))
		}},
		{"lowest single", PlayLowestSingle, func(p []Card) bool {
			return len(p) == 1 && p[0] == WildcardA
		}},
		{"highest single", PlayHighestSingle, func(p []Card) bool {
			return len(p) == 1 && p[0] == card(0, 12)
		}},
		{"largest set", PlayLargestSet, func(p []Card) bool {
			return len(p) == 4 // triple fives plus the wildcard
		}},
		{"save wildcards", PlaySaveWildcards, func(p []Card) bool {
			return countWildcards(p) == 0 && len(p) == 3
		}},
	}
	for _, tt := range tests {
		play := ResolvePlayAction(hand, tt.action)
		if !IsValidPlay(play) {
			t.Errorf("%s: resolved invalid play %v", tt.name, play)
		}
		if !tt.check(play) {
			t.Errorf("%s: unexpected play %v", tt.name, play)
		}
	}

	if play := ResolvePlayAction(nil, PlayBestValue); play != nil {
		t.Errorf("Empty hand resolved to %v", play)
	}
}

func TestResolvePlayActionFallback(t *testing.T) {
	// A hand with no multi-card combination falls back to the lowest single.
	hand := []Card{card(0, 2), card(1, 7)}
	play := ResolvePlayAction(hand, PlayLargestSet)
	if len(play) != 1 || play[0] != card(0, 2) {
		t.Errorf("Fallback play = %v, expected the lowest single", play)
	}

	// All-wildcard hands have no wildcard-free combination.
	play = ResolvePlayAction([]Card{WildcardA, WildcardB}, PlaySaveWildcards)
	if len(play) != 1 || !IsWildcard(play[0]) {
		t.Errorf("All-wildcard fallback = %v, expected a single wildcard", play)
	}
}

func TestRandomPolicyLegality(t *testing.T) {
	p := NewRandomPolicy(41)
	eng, _ := NewEngine(3, 41)
	if err := eng.SelectHandSize(0, 6); err != nil {
		t.Fatalf("SelectHandSize failed: %v", err)
	}
	gs := eng.State

	for i := 0; i < 50; i++ {
		play := p.SelectPlay(gs, 0)
		if !gs.HandContains(0, play) {
			t.Fatalf("Random play %v not in hand %v", play, gs.Hands[0])
		}
		if !IsValidPlay(play) {
			t.Fatalf("Random play %v invalid", play)
		}
	}
	for i := 0; i < 50; i++ {
		size := p.SelectHandSize(gs, 0)
		if size < MinHandSize || size > MaxHandSizeNormal {
			t.Fatalf("Random hand size %d out of range", size)
		}
	}
}

func TestRandomPolicyEmptyHand(t *testing.T) {
	p := NewRandomPolicy(43)
	gs, _ := NewGameState(3)

	if play := p.SelectPlay(gs, 0); play != nil {
		t.Errorf("Empty hand play = %v, expected nil", play)
	}
}

func TestGreedyPolicy(t *testing.T) {
	p := NewGreedyPolicy(DefaultGreedyConfig())
	gs, _ := NewGameState(2)

	gs.Hands[0] = []Card{card(0, 1), card(1, 0)} // value 3
	if !p.ShouldCallZapZap(gs, 0) {
		t.Error("Greedy should call at value 3")
	}
	gs.Hands[0] = []Card{card(0, 3)} // value 4
	if p.ShouldCallZapZap(gs, 0) {
		t.Error("Greedy should not call at value 4")
	}

	// Cheap exposed card gets picked up, expensive one does not.
	gs.LastCardsPlayed = []Card{card(2, 1)} // 2 points
	choice := p.SelectDrawSource(gs, 0)
	if choice.FromDeck || choice.Card != card(2, 1) {
		t.Errorf("Draw choice = %+v, expected pickup of the cheap card", choice)
	}
	gs.LastCardsPlayed = []Card{card(2, 11)} // 12 points
	choice = p.SelectDrawSource(gs, 0)
	if !choice.FromDeck {
		t.Errorf("Draw choice = %+v, expected the deck", choice)
	}
	// Wildcards are never picked up: scoring risk outweighs the 0 points.
	gs.LastCardsPlayed = []Card{WildcardA}
	choice = p.SelectDrawSource(gs, 0)
	if !choice.FromDeck {
		t.Errorf("Draw choice = %+v, expected the deck over a wildcard", choice)
	}
}

func TestDecisionTypeNames(t *testing.T) {
	names := map[DecisionType]string{
		DecisionHandSize:   "HandSize",
		DecisionZapZap:     "ZapZap",
		DecisionPlayType:   "PlayType",
		DecisionDrawSource: "DrawSource",
	}
	for dt, want := range names {
		if dt.String() != want {
			t.Errorf("DecisionType(%d).String() = %q, expected %q", dt, dt.String(), want)
		}
	}
	if DecisionType(9).String() != "Unknown" {
		t.Errorf("Out-of-range decision type = %q", DecisionType(9).String())
	}
}
