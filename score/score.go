// Package score defines the scoring capability set the structure-learning
// core consumes.
//
// The core requires a decomposable score: the total score of a network is
// the sum of per-node local scores, so a local edit to one node's parent
// set changes only that node's contribution. Concrete scores live in the
// sub-packages (bic, cv).
package score

import (
	"github.com/hupe1980/bayesgo/model"
)

// Score evaluates per-node local scores of a network structure against a
// fixed dataset. Node indices follow the dataset column order.
type Score interface {
	// Decomposable reports whether the score decomposes into per-node
	// local scores. The search core requires true.
	Decomposable() bool

	// LocalScore returns the local score of the node with its current
	// parent set in m.
	LocalScore(m model.Model, node int) float64

	// LocalScoreParents returns the local score of the node under an
	// explicit parent set, without mutating m. Used to evaluate
	// hypothetical moves.
	LocalScoreParents(m model.Model, node int, parents []int) float64
}

// TypedScore extends Score for models whose nodes carry a factor type.
type TypedScore interface {
	Score

	// LocalScoreType returns the local score of the node under an
	// overridden factor type and an explicit parent set.
	LocalScoreType(t model.FactorType, node int, parents []int) float64
}
