// Package bic implements the Bayesian Information Criterion score for
// linear Gaussian networks.
//
// The local score of a node v with parent set P is the maximised Gaussian
// log-likelihood penalised by log(n)/2 per free parameter (|P| coefficients
// plus intercept and variance):
//
//	loglik = (1-n)/2 - (n/2)*ln(2*pi) - n*ln(sigma)
//	score  = loglik - ln(n) * (|P| + 2) / 2
//
// Dataset moments are precomputed once at construction, so every local
// score is a small SPD solve independent of the number of rows.
package bic

import (
	"fmt"
	"math"

	"github.com/hupe1980/bayesgo/dataset"
	"github.com/hupe1980/bayesgo/internal/stats"
	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

const log2Pi = 1.8378770664093453

// Compile-time check that BIC satisfies the score contract.
var _ score.Score = (*BIC)(nil)

// varianceFloor guards the log of the residual variance on (near) perfectly
// collinear data.
const varianceFloor = 1e-300

// BIC scores linear Gaussian structures against a dataset.
type BIC struct {
	ds      *dataset.Dataset
	moments *stats.Moments
}

// New creates a BIC score over the dataset. Column moments are computed
// eagerly, in parallel across columns.
func New(ds *dataset.Dataset) (*BIC, error) {
	if ds == nil || ds.NumColumns() == 0 {
		return nil, fmt.Errorf("bic: empty dataset")
	}
	return &BIC{
		ds:      ds,
		moments: stats.ComputeMoments(ds.Columns()),
	}, nil
}

// Decomposable reports that BIC decomposes over nodes.
func (b *BIC) Decomposable() bool { return true }

// LocalScore returns the BIC local score of node with its current parents.
func (b *BIC) LocalScore(m model.Model, node int) float64 {
	return b.LocalScoreParents(m, node, m.ParentIndices(node))
}

// LocalScoreParents returns the BIC local score of node under an explicit
// parent set.
func (b *BIC) LocalScoreParents(_ model.Model, node int, parents []int) float64 {
	variance := b.residualVariance(node, parents)
	n := float64(b.moments.N)

	loglik := (1-n)/2 - (n/2)*log2Pi - n*math.Log(math.Sqrt(variance))
	return loglik - math.Log(n)*0.5*float64(len(parents)+2)
}

// residualVariance is the MLE residual variance of node regressed on
// parents, derived from the precomputed covariance matrix.
func (b *BIC) residualVariance(node int, parents []int) float64 {
	variance := b.moments.Cov[node][node]
	if len(parents) > 0 {
		sxx := b.moments.SubCov(parents)
		sxy := make([]float64, len(parents))
		for i, p := range parents {
			sxy[i] = b.moments.Cov[p][node]
		}
		if beta, err := stats.SolveSPD(sxx, sxy); err == nil {
			for i := range beta {
				variance -= beta[i] * sxy[i]
			}
		}
		// On a singular system the unexplained variance stays at the
		// marginal variance: collinear parents add no information.
	}
	if variance < varianceFloor {
		variance = varianceFloor
	}
	return variance
}
