package game

import "math/bits"

// Feature vector layout for the Q-network input. Every field is
// normalized to roughly [0,1] (or [-1,1] for the score margin) by the
// fixed divisor noted at each offset. The extractor is total: it must
// produce a vector for every reachable state, including states with no
// remaining opponents.

// NumFeatures is the fixed length of the network input vector.
const NumFeatures = 45

// Feature vector offsets.
const (
	featHandSize      = 0  // hand size / 10
	featHandValue     = 1  // hand point value / 100
	featWildcards     = 2  // wildcards held / 2
	featRankCounts    = 3  // 13 per-rank counts / 4
	featSuitCounts    = 16 // 4 per-suit counts / 13
	featBestPlay      = 20 // best play value / 40
	featComboCount    = 21 // multi-card combinations / 20, capped
	featLowestSingle  = 22 // cheapest card points / 13
	featHighestSingle = 23 // dearest card points / 13
	featCanZapZap     = 24 // hand value within the zapzap threshold
	featValueAfter    = 25 // hand value after best play / 100

	featDeckSize     = 26 // deck size / 54
	featDiscardSize  = 27 // discard size / 54
	featExposedSize  = 28 // exposed pile size / 4, capped
	featExposedMin   = 29 // cheapest exposed card points / 13
	featExposedValue = 30 // exposed pile value / 40
	featExposedWild  = 31 // exposed pile holds a wildcard
	featGoldenScore  = 32 // golden score round

	featActivePlayers = 33 // active players / 8
	featMinOppHand    = 34 // smallest opponent hand size / 10
	featAvgOppHand    = 35 // mean opponent hand size / 10
	featOwnScore      = 36 // own cumulative score / 100
	featMinOppScore   = 37 // best opponent cumulative score / 100
	featAvgOppScore   = 38 // mean opponent cumulative score / 100
	featScoreMargin   = 39 // (best opp score - own score) / 100, in [-1,1]
	featEliminated    = 40 // eliminated players / 8
	featKnownCards    = 41 // opponent cards known via pickups / 10, capped

	featRound        = 42 // round number / 50, capped
	featSeatDistance = 43 // seats after the round starter / 8
	featDeckExhaust  = 44 // deck and discard both empty
)

// ExtractFeatures maps (state, acting player) to the fixed 45-element
// input vector.
func ExtractFeatures(gs *GameState, player int) []float32 {
	f := extractTableFeatures(gs, player)
	hand := gs.Hands[player]

	f[featHandSize] = clamp01(float32(len(hand)) / 10)
	f[featHandValue] = clamp01(float32(HandValue(hand)) / 100)
	f[featWildcards] = float32(countWildcards(hand)) / NumWildcards
	for _, c := range hand {
		if !IsWildcard(c) {
			f[featRankCounts+Rank(c)] += 0.25
			f[featSuitCounts+Suit(c)] += 1.0 / NumRanks
		}
	}

	if len(hand) > 0 {
		best := BestValuePlay(hand)
		f[featBestPlay] = clamp01(float32(HandValue(best)) / 40)
		f[featValueAfter] = clamp01(float32(HandValue(hand)-HandValue(best)) / 100)
		f[featLowestSingle] = float32(Points(extremeSingle(hand, false))) / NumRanks
		f[featHighestSingle] = float32(Points(extremeSingle(hand, true))) / NumRanks

		combos := len(EnumerateSameRankPlays(hand)) + len(EnumerateSequencePlays(hand))
		f[featComboCount] = clamp01(float32(combos) / 20)
	}
	if HandValue(hand) <= ZapZapThreshold {
		f[featCanZapZap] = 1
	}
	return f
}

// ExtractPreDealFeatures is the degraded entry point for the hand-size
// decision, taken before any cards are dealt: every hand-dependent
// field stays zero.
func ExtractPreDealFeatures(gs *GameState, player int) []float32 {
	return extractTableFeatures(gs, player)
}

// extractTableFeatures fills the table, opponent and progress blocks.
func extractTableFeatures(gs *GameState, player int) []float32 {
	f := make([]float32, NumFeatures)

	f[featDeckSize] = float32(len(gs.Deck)) / NumCards
	f[featDiscardSize] = float32(len(gs.Discard)) / NumCards
	if n := len(gs.LastCardsPlayed); n > 0 {
		f[featExposedSize] = clamp01(float32(n) / 4)
		f[featExposedMin] = float32(Points(extremeSingle(gs.LastCardsPlayed, false))) / NumRanks
		f[featExposedValue] = clamp01(float32(HandValue(gs.LastCardsPlayed)) / 40)
		if countWildcards(gs.LastCardsPlayed) > 0 {
			f[featExposedWild] = 1
		}
	}
	if gs.GoldenScore {
		f[featGoldenScore] = 1
	}
	if len(gs.Deck) == 0 && len(gs.Discard) == 0 {
		f[featDeckExhaust] = 1
	}

	active := gs.ActivePlayers()
	f[featActivePlayers] = float32(active) / MaxPlayers
	f[featEliminated] = float32(gs.NumPlayers-active) / MaxPlayers
	f[featOwnScore] = clamp01(float32(gs.Scores[player]) / 100)

	oppCount := 0
	minHand, sumHand := 0, 0
	minScore, sumScore := 0, 0
	known := 0
	for i := 0; i < gs.NumPlayers; i++ {
		if i == player || gs.IsEliminated(i) {
			continue
		}
		oppCount++
		h := len(gs.Hands[i])
		if oppCount == 1 || h < minHand {
			minHand = h
		}
		sumHand += h
		s := gs.Scores[i]
		if oppCount == 1 || s < minScore {
			minScore = s
		}
		sumScore += s
		known += bits.OnesCount64(gs.SeenCards[i])
	}
	if oppCount > 0 {
		f[featMinOppHand] = clamp01(float32(minHand) / 10)
		f[featAvgOppHand] = clamp01(float32(sumHand) / float32(oppCount) / 10)
		f[featMinOppScore] = clamp01(float32(minScore) / 100)
		f[featAvgOppScore] = clamp01(float32(sumScore) / float32(oppCount) / 100)
		f[featScoreMargin] = clampSym(float32(minScore-gs.Scores[player]) / 100)
		f[featKnownCards] = clamp01(float32(known) / 10)
	}

	f[featRound] = clamp01(float32(gs.Round) / 50)
	seat := (player - gs.RoundStarter + gs.NumPlayers) % gs.NumPlayers
	f[featSeatDistance] = float32(seat) / MaxPlayers
	return f
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSym(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
