// Package trainer orchestrates self-play generation and prioritized
// Q-learning over the dual-representation network.
package trainer

// Schedule drives the exploration and importance-sampling annealing
// from the number of completed self-play games.
type Schedule struct {
	EpsilonStart float64
	EpsilonEnd   float64
	// EpsilonGames is the game count over which epsilon decays linearly.
	EpsilonGames int

	BetaStart float64
	// BetaGames is the game count over which beta anneals to 1.
	BetaGames int
}

// DefaultSchedule returns the standard annealing settings.
func DefaultSchedule() Schedule {
	return Schedule{
		EpsilonStart: 1.0,
		EpsilonEnd:   0.05,
		EpsilonGames: 20_000,
		BetaStart:    0.4,
		BetaGames:    50_000,
	}
}

// Epsilon returns the exploration rate after the given game count.
func (s Schedule) Epsilon(games int) float64 {
	if s.EpsilonGames <= 0 || games >= s.EpsilonGames {
		return s.EpsilonEnd
	}
	frac := float64(games) / float64(s.EpsilonGames)
	return s.EpsilonStart + (s.EpsilonEnd-s.EpsilonStart)*frac
}

// Beta returns the importance-sampling exponent after the given game
// count, annealing from BetaStart toward 1.
func (s Schedule) Beta(games int) float64 {
	if s.BetaGames <= 0 || games >= s.BetaGames {
		return 1.0
	}
	frac := float64(games) / float64(s.BetaGames)
	return s.BetaStart + (1.0-s.BetaStart)*frac
}
