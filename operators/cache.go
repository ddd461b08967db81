package operators

import (
	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

// LocalScoreCache is the dense per-node local score cache shared between a
// pool and its operator sets. The pool is its only writer; sets read it
// while computing hypothetical deltas.
type LocalScoreCache struct {
	scores []float64
}

// NewLocalScoreCache returns an all-zero cache for numNodes nodes.
func NewLocalScoreCache(numNodes int) *LocalScoreCache {
	return &LocalScoreCache{scores: make([]float64, numNodes)}
}

// CacheLocalScores fills the cache with the local score of every node
// under its current parent set.
func (c *LocalScoreCache) CacheLocalScores(m model.Model, s score.Score) {
	for i := range c.scores {
		c.scores[i] = s.LocalScore(m, i)
	}
}

// UpdateLocalScore recomputes the cached entry of a single node.
func (c *LocalScoreCache) UpdateLocalScore(m model.Model, s score.Score, node int) {
	c.scores[node] = s.LocalScore(m, node)
}

// UpdateAfter recomputes the entries a just-applied operator invalidated.
// Arc adds and removes touch only the target; flips touch both endpoints;
// type changes touch the node. A decomposable score guarantees every other
// entry is still valid.
func (c *LocalScoreCache) UpdateAfter(m model.Model, s score.Score, op Operator) {
	switch op.Kind() {
	case KindAddArc, KindRemoveArc:
		if t, ok := m.Index(op.Target()); ok {
			c.UpdateLocalScore(m, s, t)
		}
	case KindFlipArc:
		if i, ok := m.Index(op.Source()); ok {
			c.UpdateLocalScore(m, s, i)
		}
		if i, ok := m.Index(op.Target()); ok {
			c.UpdateLocalScore(m, s, i)
		}
	case KindChangeNodeType:
		if i, ok := m.Index(op.Node()); ok {
			c.UpdateLocalScore(m, s, i)
		}
	}
}

// Sum returns the total log-score, the sum of all cached local scores.
func (c *LocalScoreCache) Sum() float64 {
	var total float64
	for _, v := range c.scores {
		total += v
	}
	return total
}

// LocalScore returns the cached local score of a node.
func (c *LocalScoreCache) LocalScore(node int) float64 {
	return c.scores[node]
}

// Len returns the number of cached entries.
func (c *LocalScoreCache) Len() int { return len(c.scores) }
