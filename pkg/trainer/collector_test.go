package trainer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/zapzap/internal/replay"
	"github.com/yourusername/zapzap/pkg/game"
)

func featuresWithMark(mark float32) []float32 {
	f := make([]float32, game.NumFeatures)
	f[0] = mark
	return f
}

func TestCollectorChainsDecisions(t *testing.T) {
	buf := replay.NewBuffer(replay.Config{Capacity: 16, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1})
	c := newCollector(buf)

	first := featuresWithMark(0.1)
	second := featuresWithMark(0.2)

	c.RecordDecision(0, game.DecisionPlayType, first, 2)
	require.Equal(t, 0, buf.Len(), "first decision stays pending")

	c.RecordDecision(0, game.DecisionDrawSource, second, 1)
	require.Equal(t, 1, buf.Len(), "second decision completes the first")

	batch, ok := buf.Sample(1, game.DecisionPlayType, 0.4)
	require.True(t, ok)
	tr := batch.Transitions[0]
	require.Equal(t, 2, tr.Action)
	require.Equal(t, float32(0.1), tr.State[0])
	require.Equal(t, float32(0.2), tr.NextState[0], "next state is the following decision's features")
	require.False(t, tr.Done)
	require.Zero(t, tr.Reward)
}

func TestCollectorPlayersIndependent(t *testing.T) {
	buf := replay.NewBuffer(replay.Config{Capacity: 16, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1})
	c := newCollector(buf)

	c.RecordDecision(0, game.DecisionPlayType, featuresWithMark(0.1), 0)
	c.RecordDecision(1, game.DecisionPlayType, featuresWithMark(0.2), 1)

	// Each player's pending step is its own chain.
	require.Equal(t, 0, buf.Len())
	c.RecordDecision(0, game.DecisionDrawSource, featuresWithMark(0.3), 0)
	require.Equal(t, 1, buf.Len())
}

func TestCollectorRoundEndRewards(t *testing.T) {
	buf := replay.NewBuffer(replay.Config{Capacity: 16, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1})
	c := newCollector(buf)

	c.RecordDecision(0, game.DecisionZapZap, featuresWithMark(0.1), 1)
	c.RecordDecision(1, game.DecisionPlayType, featuresWithMark(0.2), 0)

	// Player 0 finished lowest, player 1 pays 40 points.
	c.RecordRoundEnd([]int{0, 40})
	require.Equal(t, 2, buf.Len())

	batch, ok := buf.Sample(1, game.DecisionZapZap, 0.4)
	require.True(t, ok)
	winner := batch.Transitions[0]
	require.True(t, winner.Done)
	require.InDelta(t, lowestHandReward, winner.Reward, 1e-12)

	batch, ok = buf.Sample(1, game.DecisionPlayType, 0.4)
	require.True(t, ok)
	loser := batch.Transitions[0]
	require.True(t, loser.Done)
	require.InDelta(t, -0.4, loser.Reward, 1e-12)

	// The pending map is drained; another round end pushes nothing.
	c.RecordRoundEnd([]int{0, 0})
	require.Equal(t, 2, buf.Len())
}

func TestCollectorGameEndDropsDangling(t *testing.T) {
	buf := replay.NewBuffer(replay.Config{Capacity: 16, Alpha: 0.6, PriorityEpsilon: 1e-3, Seed: 1})
	c := newCollector(buf)

	c.RecordDecision(0, game.DecisionPlayType, featuresWithMark(0.1), 0)
	c.RecordGameEnd(0)
	c.RecordRoundEnd([]int{0, 0})

	require.Equal(t, 0, buf.Len(), "abandoned steps must not become transitions")
}
