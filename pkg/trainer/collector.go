package trainer

import (
	"github.com/yourusername/zapzap/internal/replay"
	"github.com/yourusername/zapzap/pkg/game"
)

// lowestHandReward is the terminal reward for finishing a round as the
// lowest hand; every other player is penalized by their round score.
const lowestHandReward = 0.25

// collector turns the per-decision event stream of one game into
// replay transitions. Rewards resolve only at round end: intermediate
// decisions carry zero reward and chain state to next state, and the
// round's last decision per player becomes a terminal transition.
type collector struct {
	buffer  *replay.Buffer
	pending map[int]*pendingStep
}

type pendingStep struct {
	dt       game.DecisionType
	features []float32
	action   int
}

func newCollector(buffer *replay.Buffer) *collector {
	return &collector{
		buffer:  buffer,
		pending: make(map[int]*pendingStep),
	}
}

// RecordDecision completes the player's previous step, if any, and
// leaves the new one pending until the next decision or the round end.
func (c *collector) RecordDecision(player int, dt game.DecisionType, features []float32, action int) {
	if prev := c.pending[player]; prev != nil {
		c.buffer.Push(replay.Transition{
			State:     prev.features,
			Action:    prev.action,
			Reward:    0,
			NextState: features,
			Done:      false,
			Decision:  prev.dt,
		})
	}
	c.pending[player] = &pendingStep{dt: dt, features: features, action: action}
}

// RecordRoundEnd flushes each player's last pending step as a terminal
// transition carrying the round's resolved reward.
func (c *collector) RecordRoundEnd(roundScores []int) {
	for player, step := range c.pending {
		reward := lowestHandReward
		if player < len(roundScores) && roundScores[player] > 0 {
			reward = -float64(roundScores[player]) / 100
		}
		c.buffer.Push(replay.Transition{
			State:     step.features,
			Action:    step.action,
			Reward:    reward,
			NextState: step.features,
			Done:      true,
			Decision:  step.dt,
		})
	}
	clear(c.pending)
}

// RecordGameEnd drops any steps left dangling by an abandoned round.
func (c *collector) RecordGameEnd(winner int) {
	clear(c.pending)
}
