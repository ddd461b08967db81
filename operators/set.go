package operators

import (
	"github.com/hupe1980/bayesgo/model"
)

// Set is the uniform contract implemented by each operator family.
//
// Lifecycle: the pool hands every set the shared local score cache, then
// seeds deltas with CacheScores. After a move is applied to the model the
// pool refreshes the cache and calls UpdateScores on every set; a set may
// assume the cache already reflects the applied operator.
type Set interface {
	// Type identifies the operator family.
	Type() SetType

	// SetLocalScoreCache attaches the shared cache. Sets only read it.
	SetLocalScoreCache(cache *LocalScoreCache)

	// CacheScores computes the delta of every candidate in the family
	// against the current model.
	CacheScores(m model.Model)

	// FindMax returns the family's best legal candidate, or false when no
	// candidate is returnable.
	FindMax(m model.Model) (Operator, bool)

	// FindMaxTabu behaves like FindMax but skips candidates contained in
	// the tabu set.
	FindMaxTabu(m model.Model, tabu *TabuSet) (Operator, bool)

	// UpdateScores refreshes the deltas invalidated by a just-applied
	// operator. The shared cache is already current.
	UpdateScores(m model.Model, op Operator)
}
