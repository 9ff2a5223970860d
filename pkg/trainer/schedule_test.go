package trainer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpsilonDecay(t *testing.T) {
	s := DefaultSchedule()

	require.InDelta(t, 1.0, s.Epsilon(0), 1e-12)
	require.InDelta(t, 0.525, s.Epsilon(10_000), 1e-12)
	require.InDelta(t, 0.05, s.Epsilon(20_000), 1e-12)
	require.InDelta(t, 0.05, s.Epsilon(1_000_000), 1e-12)
}

func TestBetaAnneal(t *testing.T) {
	s := DefaultSchedule()

	require.InDelta(t, 0.4, s.Beta(0), 1e-12)
	require.InDelta(t, 0.7, s.Beta(25_000), 1e-12)
	require.InDelta(t, 1.0, s.Beta(50_000), 1e-12)
	require.InDelta(t, 1.0, s.Beta(1_000_000), 1e-12)
}

func TestScheduleDegenerate(t *testing.T) {
	s := Schedule{EpsilonStart: 0.8, EpsilonEnd: 0.1, EpsilonGames: 0, BetaStart: 0.4, BetaGames: 0}

	// Zero horizons jump straight to the end values.
	require.InDelta(t, 0.1, s.Epsilon(0), 1e-12)
	require.InDelta(t, 1.0, s.Beta(0), 1e-12)
}
