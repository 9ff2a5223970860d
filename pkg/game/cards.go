// Package game implements the ZapZap card game: rules, state, engine,
// feature extraction and decision policies.
package game

import "sort"

// Card is an id in the fixed 54-card universe.
// Ids 0-51 encode suit*13+rank (4 suits, 13 ranks); 52 and 53 are wildcards.
type Card int

// Card universe constants.
const (
	NumCards     = 54
	NumRanks     = 13
	NumSuits     = 4
	WildcardA    = Card(52)
	WildcardB    = Card(53)
	NumWildcards = 2

	// NoRank and NoSuit are the sentinel decodings for wildcards.
	NoRank = -1
	NoSuit = -1

	// WildcardScore is the value a wildcard contributes at round scoring
	// unless its holder ends with the lowest hand.
	WildcardScore = 25
)

// IsWildcard reports whether c is one of the two wildcards.
func IsWildcard(c Card) bool {
	return c >= WildcardA
}

// Rank returns the rank 0-12 of a normal card, or NoRank for wildcards.
func Rank(c Card) int {
	if IsWildcard(c) {
		return NoRank
	}
	return int(c) % NumRanks
}

// Suit returns the suit 0-3 of a normal card, or NoSuit for wildcards.
func Suit(c Card) int {
	if IsWildcard(c) {
		return NoSuit
	}
	return int(c) / NumRanks
}

// Points returns the point value of a card: rank+1 for normal cards,
// 0 for wildcards. This is the value used for ZapZap eligibility and
// for choosing plays; scoring-time wildcard penalties are applied
// separately (see ScoringValue).
func Points(c Card) int {
	if IsWildcard(c) {
		return 0
	}
	return Rank(c) + 1
}

// HandValue sums Points over a hand. Wildcards count zero.
func HandValue(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += Points(c)
	}
	return total
}

// ScoringValue sums card values at round scoring, with wildcards
// counted at WildcardScore.
func ScoringValue(hand []Card) int {
	total := 0
	for _, c := range hand {
		if IsWildcard(c) {
			total += WildcardScore
		} else {
			total += Points(c)
		}
	}
	return total
}

// countWildcards returns the number of wildcards in the hand.
func countWildcards(hand []Card) int {
	n := 0
	for _, c := range hand {
		if IsWildcard(c) {
			n++
		}
	}
	return n
}

// IsValidPlay reports whether cards form a legal combination:
// a single card, a same-rank group, or a suited sequence.
func IsValidPlay(cards []Card) bool {
	switch {
	case len(cards) == 0:
		return false
	case len(cards) == 1:
		return true
	}
	return isSameRankPlay(cards) || isSequencePlay(cards)
}

// isSameRankPlay reports whether every non-wildcard shares one rank.
// An all-wildcard set of size >= 2 qualifies.
func isSameRankPlay(cards []Card) bool {
	if len(cards) < 2 {
		return false
	}
	rank := NoRank
	for _, c := range cards {
		if IsWildcard(c) {
			continue
		}
		if rank == NoRank {
			rank = Rank(c)
		} else if Rank(c) != rank {
			return false
		}
	}
	return true
}

// isSequencePlay reports whether cards form a suited run of length >= 3,
// with wildcards filling the rank gaps between the non-wildcards.
// Wildcards beyond the required gaps extend the run at its ends, which
// is only possible while the run fits inside the 13 ranks.
func isSequencePlay(cards []Card) bool {
	if len(cards) < 3 {
		return false
	}
	var ranks []int
	suit := NoSuit
	wilds := 0
	for _, c := range cards {
		if IsWildcard(c) {
			wilds++
			continue
		}
		if suit == NoSuit {
			suit = Suit(c)
		} else if Suit(c) != suit {
			return false
		}
		ranks = append(ranks, Rank(c))
	}
	if len(ranks) == 0 {
		// All wildcards: they can represent any run.
		return true
	}
	sort.Ints(ranks)
	gaps := 0
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1] {
			return false
		}
		gaps += ranks[i] - ranks[i-1] - 1
	}
	if gaps > wilds {
		return false
	}
	// Leftover wildcards extend the run; the full run must fit in 13 ranks.
	span := ranks[len(ranks)-1] - ranks[0] + 1
	return span+(wilds-gaps) <= NumRanks
}

// wildcardsIn returns the wildcards present in the hand, in hand order.
func wildcardsIn(hand []Card) []Card {
	var w []Card
	for _, c := range hand {
		if IsWildcard(c) {
			w = append(w, c)
		}
	}
	return w
}

// EnumerateSameRankPlays returns every same-rank combination of size >= 2
// playable from the hand, including wildcard-extended groups. Groups are
// capped at four cards of one rank plus wildcards, matching the deck
// composition.
func EnumerateSameRankPlays(hand []Card) [][]Card {
	var buckets [NumRanks][]Card
	for _, c := range hand {
		if !IsWildcard(c) {
			buckets[Rank(c)] = append(buckets[Rank(c)], c)
		}
	}
	wilds := wildcardsIn(hand)

	var plays [][]Card
	for r := 0; r < NumRanks; r++ {
		group := buckets[r]
		if len(group) == 0 {
			continue
		}
		if len(group) >= 2 {
			plays = append(plays, append([]Card(nil), group...))
		}
		// Extend with 1..k wildcards, keeping the group at most 4 ranks wide.
		maxExtra := 4 - len(group)
		if maxExtra > len(wilds) {
			maxExtra = len(wilds)
		}
		for extra := 1; extra <= maxExtra; extra++ {
			combo := append([]Card(nil), group...)
			combo = append(combo, wilds[:extra]...)
			if len(combo) >= 2 {
				plays = append(plays, combo)
			}
		}
	}
	// A pure wildcard pair is a valid same-rank group.
	if len(wilds) >= 2 {
		plays = append(plays, append([]Card(nil), wilds...))
	}
	return plays
}

// EnumerateSequencePlays returns every suited sequence of three or more
// cards playable from the hand, consuming exactly as many wildcards as
// there are rank gaps inside the window.
func EnumerateSequencePlays(hand []Card) [][]Card {
	var bySuit [NumSuits][]Card
	for _, c := range hand {
		if !IsWildcard(c) {
			bySuit[Suit(c)] = append(bySuit[Suit(c)], c)
		}
	}
	wilds := wildcardsIn(hand)

	var plays [][]Card
	for s := 0; s < NumSuits; s++ {
		cards := bySuit[s]
		if len(cards) < 2 {
			continue
		}
		sort.Slice(cards, func(i, j int) bool { return Rank(cards[i]) < Rank(cards[j]) })
		for i := 0; i < len(cards); i++ {
			gaps := 0
			for j := i + 1; j < len(cards); j++ {
				gaps += Rank(cards[j]) - Rank(cards[j-1]) - 1
				if gaps > len(wilds) {
					break
				}
				size := (j - i + 1) + gaps
				if size < 3 {
					continue
				}
				combo := append([]Card(nil), cards[i:j+1]...)
				combo = append(combo, wilds[:gaps]...)
				plays = append(plays, combo)
			}
		}
	}
	return plays
}

// EnumerateAllPlays returns every legal combination playable from the
// hand: all singles, all same-rank groups and all sequences.
func EnumerateAllPlays(hand []Card) [][]Card {
	plays := make([][]Card, 0, len(hand))
	for _, c := range hand {
		plays = append(plays, []Card{c})
	}
	plays = append(plays, EnumerateSameRankPlays(hand)...)
	plays = append(plays, EnumerateSequencePlays(hand)...)
	return plays
}

// BestValuePlay returns the combination removing the most points from
// the hand. Among equal-value combinations the first in enumeration
// order wins; callers must only rely on the value being maximal.
func BestValuePlay(hand []Card) []Card {
	var best []Card
	bestValue := -1
	for _, play := range EnumerateAllPlays(hand) {
		if v := HandValue(play); v > bestValue {
			best = play
			bestValue = v
		}
	}
	return best
}
