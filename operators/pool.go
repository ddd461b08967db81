package operators

import (
	"math"

	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

// Pool composes operator sets over a shared local score cache and answers
// best-move queries across all of them.
//
// The pool is the cache's only writer. UpdateScores refreshes the cache
// before fanning out to the sets, so every set sees local scores that
// already reflect the applied operator.
type Pool struct {
	score score.Score
	cache *LocalScoreCache
	sets  []Set
}

// NewPool creates a pool over the given sets. The score must be
// decomposable.
func NewPool(m model.Model, s score.Score, sets []Set) (*Pool, error) {
	if !s.Decomposable() {
		return nil, ErrScoreNotDecomposable
	}

	cache := NewLocalScoreCache(m.NumNodes())
	for _, set := range sets {
		set.SetLocalScoreCache(cache)
	}
	return &Pool{score: s, cache: cache, sets: sets}, nil
}

// CacheScores seeds the local score cache, then every set's delta store.
func (p *Pool) CacheScores(m model.Model) {
	p.cache.CacheLocalScores(m, p.score)
	for _, set := range p.sets {
		set.CacheScores(m)
	}
}

// FindMax returns the candidate with the largest delta across all sets.
// Ties are broken by the order of the sets in the pool.
func (p *Pool) FindMax(m model.Model) (Operator, bool) {
	var (
		best     Operator
		maxDelta = math.Inf(-1)
		found    bool
	)
	for _, set := range p.sets {
		if op, ok := set.FindMax(m); ok && op.Delta() > maxDelta {
			best = op
			maxDelta = op.Delta()
			found = true
		}
	}
	return best, found
}

// FindMaxTabu behaves like FindMax but excludes operators in the tabu set.
// An empty tabu set delegates to FindMax.
func (p *Pool) FindMaxTabu(m model.Model, tabu *TabuSet) (Operator, bool) {
	if tabu.Empty() {
		return p.FindMax(m)
	}

	var (
		best     Operator
		maxDelta = math.Inf(-1)
		found    bool
	)
	for _, set := range p.sets {
		if op, ok := set.FindMaxTabu(m, tabu); ok && op.Delta() > maxDelta {
			best = op
			maxDelta = op.Delta()
			found = true
		}
	}
	return best, found
}

// UpdateScores refreshes the shared cache for the applied operator, then
// every set. The order is part of the contract: sets rely on a current
// cache.
func (p *Pool) UpdateScores(m model.Model, op Operator) {
	p.cache.UpdateAfter(m, p.score, op)
	for _, set := range p.sets {
		set.UpdateScores(m, op)
	}
}

// Score returns the cached total score.
func (p *Pool) Score() float64 {
	return p.cache.Sum()
}

// ScoreOf recomputes the total score of the model from scratch through the
// score function, independent of the cache.
func (p *Pool) ScoreOf(m model.Model) float64 {
	var total float64
	for i := 0; i < m.NumNodes(); i++ {
		total += p.score.LocalScore(m, i)
	}
	return total
}

// Cache exposes the shared local score cache for inspection.
func (p *Pool) Cache() *LocalScoreCache {
	return p.cache
}
