// Package replay implements the prioritized experience replay store:
// an array-backed SumTree for priority-weighted sampling and a
// circular transition buffer on top of it.
package replay

// SumTree is a complete binary tree over 2*capacity-1 array nodes with
// capacity leaves. Each internal node holds the sum of its children, so
// the root is the total priority mass and a value in [0, total) maps to
// a leaf in O(log capacity).
type SumTree struct {
	nodes    []float64
	capacity int
	write    int // next leaf slot, circular
	size     int // populated leaves
}

// NewSumTree creates a tree with the given leaf capacity.
func NewSumTree(capacity int) *SumTree {
	if capacity < 1 {
		capacity = 1
	}
	return &SumTree{
		nodes:    make([]float64, 2*capacity-1),
		capacity: capacity,
	}
}

// Capacity returns the number of leaves.
func (t *SumTree) Capacity() int { return t.capacity }

// Size returns the number of populated leaves.
func (t *SumTree) Size() int { return t.size }

// Total returns the total priority mass.
func (t *SumTree) Total() float64 { return t.nodes[0] }

// leafNode converts a leaf slot to its array index.
func (t *SumTree) leafNode(leaf int) int { return t.capacity - 1 + leaf }

// Add writes a priority at the circular write pointer and returns the
// leaf slot used. After capacity insertions the oldest leaf is silently
// overwritten.
func (t *SumTree) Add(priority float64) int {
	leaf := t.write
	t.Update(leaf, priority)
	t.write = (t.write + 1) % t.capacity
	if t.size < t.capacity {
		t.size++
	}
	return leaf
}

// Update sets the priority of a leaf and propagates the delta to the
// root in O(log capacity).
func (t *SumTree) Update(leaf int, priority float64) {
	node := t.leafNode(leaf)
	delta := priority - t.nodes[node]
	t.nodes[node] = priority
	for node > 0 {
		node = (node - 1) / 2
		t.nodes[node] += delta
	}
}

// Priority returns the priority stored at a leaf.
func (t *SumTree) Priority(leaf int) float64 {
	return t.nodes[t.leafNode(leaf)]
}

// Sample descends from the root comparing against left-child sums and
// returns the leaf selected by value along with its priority. Values
// should be drawn uniformly from [0, Total()).
func (t *SumTree) Sample(value float64) (leaf int, priority float64) {
	node := 0
	for {
		left := 2*node + 1
		if left >= len(t.nodes) {
			break
		}
		if value < t.nodes[left] {
			node = left
		} else {
			value -= t.nodes[left]
			node = left + 1
		}
	}
	return node - (t.capacity - 1), t.nodes[node]
}

// MinPriority returns the minimum priority over populated leaves, used
// to normalize importance-sampling weights. Returns 0 on an empty tree.
func (t *SumTree) MinPriority() float64 {
	if t.size == 0 {
		return 0
	}
	min := t.nodes[t.leafNode(0)]
	for leaf := 1; leaf < t.size; leaf++ {
		if p := t.nodes[t.leafNode(leaf)]; p < min {
			min = p
		}
	}
	return min
}
