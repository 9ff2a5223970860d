package replay

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumTreeAddAndTotal(t *testing.T) {
	tree := NewSumTree(4)
	for _, p := range []float64{1, 2, 3, 4} {
		tree.Add(p)
	}

	require.Equal(t, 4, tree.Size())
	require.InDelta(t, 10.0, tree.Total(), 1e-12)
	require.InDelta(t, 1.0, tree.MinPriority(), 1e-12)
}

func TestSumTreeSampleMapping(t *testing.T) {
	tree := NewSumTree(4)
	for _, p := range []float64{1, 2, 3, 4} {
		tree.Add(p)
	}

	// Cumulative boundaries are [0,1), [1,3), [3,6), [6,10).
	leaf, priority := tree.Sample(0.5)
	require.Equal(t, 0, leaf)
	require.InDelta(t, 1.0, priority, 1e-12)

	leaf, priority = tree.Sample(7.0)
	require.Equal(t, 3, leaf)
	require.InDelta(t, 4.0, priority, 1e-12)

	leaf, _ = tree.Sample(2.9)
	require.Equal(t, 1, leaf)
}

func TestSumTreeUpdatePropagates(t *testing.T) {
	tree := NewSumTree(4)
	for _, p := range []float64{1, 2, 3, 4} {
		tree.Add(p)
	}

	tree.Update(0, 5)
	require.InDelta(t, 14.0, tree.Total(), 1e-12)
	require.InDelta(t, 5.0, tree.Priority(0), 1e-12)

	// The old leaf-0 region now maps elsewhere.
	leaf, _ := tree.Sample(4.9)
	require.Equal(t, 0, leaf)
	leaf, _ = tree.Sample(5.1)
	require.Equal(t, 1, leaf)
}

func TestSumTreeCircularOverwrite(t *testing.T) {
	tree := NewSumTree(2)
	tree.Add(1)
	tree.Add(2)
	leaf := tree.Add(7) // overwrites leaf 0

	require.Equal(t, 0, leaf)
	require.Equal(t, 2, tree.Size())
	require.InDelta(t, 9.0, tree.Total(), 1e-12)
}

func TestSumTreeSamplingDistribution(t *testing.T) {
	tree := NewSumTree(4)
	for _, p := range []float64{1, 1, 1, 7} {
		tree.Add(p)
	}

	rng := rand.New(rand.NewSource(3))
	hits := make([]int, 4)
	const draws = 20000
	for i := 0; i < draws; i++ {
		leaf, _ := tree.Sample(rng.Float64() * tree.Total())
		hits[leaf]++
	}

	// Leaf 3 carries 70% of the mass.
	got := float64(hits[3]) / draws
	require.True(t, math.Abs(got-0.7) < 0.02, "leaf 3 frequency %f, expected about 0.7", got)
}
