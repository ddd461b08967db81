package operators

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

// Compile-time check that ChangeNodeTypeSet satisfies the set contract.
var _ Set = (*ChangeNodeTypeSet)(nil)

// ChangeNodeTypeSet maintains, per node, the delta of switching the node
// to its opposite factor type. It only applies to models implementing
// model.TypedModel and scores implementing score.TypedScore.
type ChangeNodeTypeSet struct {
	score     score.TypedScore
	cache     *LocalScoreCache
	numNodes  int
	delta     []float64
	valid     *roaring.Bitmap
	sortedIdx []uint32
}

// NewChangeNodeTypeSet builds the node-type move family. Nodes in the type
// whitelist keep their pinned type and generate no candidates.
func NewChangeNodeTypeSet(m model.TypedModel, s score.TypedScore, typeWhitelist []model.TypedNode) (*ChangeNodeTypeSet, error) {
	n := m.NumNodes()
	c := &ChangeNodeTypeSet{
		score:    s,
		numNodes: n,
		delta:    make([]float64, n),
		valid:    roaring.New(),
	}
	for i := range c.delta {
		c.delta[i] = math.Inf(-1)
	}
	c.valid.AddRange(0, uint64(n))

	for _, tn := range typeWhitelist {
		i, ok := m.Index(tn.Node)
		if !ok {
			return nil, &ErrUnknownNode{Name: tn.Node}
		}
		c.valid.Remove(uint32(i))
	}

	c.sortedIdx = c.valid.ToArray()
	return c, nil
}

// Type identifies the node-type family.
func (c *ChangeNodeTypeSet) Type() SetType { return SetTypeNodeType }

// SetLocalScoreCache attaches the shared local score cache.
func (c *ChangeNodeTypeSet) SetLocalScoreCache(cache *LocalScoreCache) {
	c.cache = cache
}

// CacheScores fills the delta of every candidate node.
func (c *ChangeNodeTypeSet) CacheScores(m model.Model) {
	tm := m.(model.TypedModel)
	for i := 0; i < c.numNodes; i++ {
		c.updateLocalDelta(tm, i)
	}
}

// updateLocalDelta recomputes the delta of switching node to its opposite
// type. Whitelisted nodes stay at -Inf.
func (c *ChangeNodeTypeSet) updateLocalDelta(m model.TypedModel, node int) {
	if !c.valid.Contains(uint32(node)) {
		return
	}
	t := m.NodeType(node)
	c.delta[node] = c.score.LocalScoreType(t.Opposite(), node, m.ParentIndices(node)) -
		c.cache.LocalScore(node)
}

// FindMax returns the type switch with the largest delta, or false when no
// node is a candidate.
func (c *ChangeNodeTypeSet) FindMax(m model.Model) (Operator, bool) {
	tm := m.(model.TypedModel)

	argmax := -1
	best := math.Inf(-1)
	for i, d := range c.delta {
		if d > best {
			best = d
			argmax = i
		}
	}
	if argmax < 0 || !c.valid.Contains(uint32(argmax)) {
		return Operator{}, false
	}
	return NewChangeNodeType(m.Name(argmax), tm.NodeType(argmax).Opposite(), best), true
}

// FindMaxTabu returns the best type switch not contained in the tabu set.
func (c *ChangeNodeTypeSet) FindMaxTabu(m model.Model, tabu *TabuSet) (Operator, bool) {
	tm := m.(model.TypedModel)

	sort.Slice(c.sortedIdx, func(i, j int) bool {
		di, dj := c.delta[c.sortedIdx[i]], c.delta[c.sortedIdx[j]]
		if di != dj {
			return di > dj
		}
		return c.sortedIdx[i] < c.sortedIdx[j]
	})

	for _, idx := range c.sortedIdx {
		if math.IsInf(c.delta[idx], -1) {
			break
		}
		node := int(idx)
		op := NewChangeNodeType(m.Name(node), tm.NodeType(node).Opposite(), c.delta[idx])
		if tabu.Contains(op) {
			continue
		}
		return op, true
	}
	return Operator{}, false
}

// UpdateScores refreshes the deltas invalidated by a just-applied
// operator. A type change on a node leaves the reverting switch behind
// with the opposite sign.
func (c *ChangeNodeTypeSet) UpdateScores(m model.Model, op Operator) {
	tm := m.(model.TypedModel)
	switch op.Kind() {
	case KindAddArc, KindRemoveArc:
		if t, ok := m.Index(op.Target()); ok {
			c.updateLocalDelta(tm, t)
		}
	case KindFlipArc:
		if i, ok := m.Index(op.Source()); ok {
			c.updateLocalDelta(tm, i)
		}
		if i, ok := m.Index(op.Target()); ok {
			c.updateLocalDelta(tm, i)
		}
	case KindChangeNodeType:
		if i, ok := m.Index(op.Node()); ok && c.valid.Contains(uint32(i)) {
			c.delta[i] = -op.Delta()
		}
	}
}
