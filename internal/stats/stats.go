// Package stats implements the small numerical kernel shared by the score
// implementations: dataset moments, SPD solves, and maximum-likelihood
// linear-Gaussian fits.
package stats

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrSingular is returned when a normal-equation system has no unique
// solution (collinear or constant predictors).
var ErrSingular = errors.New("stats: singular system")

// Moments holds the sample size, means, and MLE covariance matrix of a set
// of columns. Cov[i][j] divides by n, not n-1, matching the maximum
// likelihood estimator the scores are defined over.
type Moments struct {
	N    int
	Mean []float64
	Cov  [][]float64
}

// ComputeMoments computes Moments over the given equal-length columns.
// Covariance rows are computed concurrently, bounded by GOMAXPROCS.
func ComputeMoments(cols [][]float64) *Moments {
	p := len(cols)
	m := &Moments{
		Mean: make([]float64, p),
		Cov:  make([][]float64, p),
	}
	if p == 0 {
		return m
	}
	n := len(cols[0])
	m.N = n

	for i, col := range cols {
		var sum float64
		for _, v := range col {
			sum += v
		}
		m.Mean[i] = sum / float64(n)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < p; i++ {
		m.Cov[i] = make([]float64, p)
	}
	for i := 0; i < p; i++ {
		i := i
		g.Go(func() error {
			ci, mi := cols[i], m.Mean[i]
			for j := i; j < p; j++ {
				cj, mj := cols[j], m.Mean[j]
				var s float64
				for r := 0; r < n; r++ {
					s += (ci[r] - mi) * (cj[r] - mj)
				}
				m.Cov[i][j] = s / float64(n)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	for i := 0; i < p; i++ {
		for j := 0; j < i; j++ {
			m.Cov[i][j] = m.Cov[j][i]
		}
	}
	return m
}

// SubCov extracts the covariance submatrix over the given column indices.
func (m *Moments) SubCov(idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, a := range idx {
		out[i] = make([]float64, len(idx))
		for j, b := range idx {
			out[i][j] = m.Cov[a][b]
		}
	}
	return out
}

// SolveSPD solves a*x = b for a symmetric positive-definite matrix a using
// a Cholesky decomposition. a is overwritten with its factor.
func SolveSPD(a [][]float64, b []float64) ([]float64, error) {
	p := len(a)
	if len(b) != p {
		return nil, fmt.Errorf("%w: dimension mismatch", ErrSingular)
	}

	// In-place lower Cholesky factor.
	for j := 0; j < p; j++ {
		d := a[j][j]
		for k := 0; k < j; k++ {
			d -= a[j][k] * a[j][k]
		}
		if d <= 0 {
			return nil, fmt.Errorf("%w: non-positive pivot at %d", ErrSingular, j)
		}
		ljj := math.Sqrt(d)
		a[j][j] = ljj
		for i := j + 1; i < p; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= a[i][k] * a[j][k]
			}
			a[i][j] = s / ljj
		}
	}

	// Forward then backward substitution.
	x := make([]float64, p)
	for i := 0; i < p; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= a[i][k] * x[k]
		}
		x[i] = s / a[i][i]
	}
	for i := p - 1; i >= 0; i-- {
		s := x[i]
		for k := i + 1; k < p; k++ {
			s -= a[k][i] * x[k]
		}
		x[i] = s / a[i][i]
	}
	return x, nil
}

// LinearGaussianParams are the MLE parameters of a node given its parents:
// an intercept, one coefficient per parent, and the residual variance
// (RSS/n).
type LinearGaussianParams struct {
	Intercept float64
	Beta      []float64
	Variance  float64
}

// FitLinearGaussian fits y ~ N(intercept + beta*x, variance) by maximum
// likelihood over the selected rows. rows == nil selects every row.
// With no predictors the fit degenerates to the sample mean and variance.
func FitLinearGaussian(y []float64, xs [][]float64, rows []int) (LinearGaussianParams, error) {
	n := len(rows)
	if rows == nil {
		n = len(y)
	}
	if n == 0 {
		return LinearGaussianParams{}, fmt.Errorf("%w: no observations", ErrSingular)
	}
	at := func(col []float64, r int) float64 {
		if rows == nil {
			return col[r]
		}
		return col[rows[r]]
	}

	p := len(xs)
	meanY := 0.0
	for r := 0; r < n; r++ {
		meanY += at(y, r)
	}
	meanY /= float64(n)

	if p == 0 {
		variance := 0.0
		for r := 0; r < n; r++ {
			d := at(y, r) - meanY
			variance += d * d
		}
		return LinearGaussianParams{Intercept: meanY, Variance: variance / float64(n)}, nil
	}

	meanX := make([]float64, p)
	for j, col := range xs {
		for r := 0; r < n; r++ {
			meanX[j] += at(col, r)
		}
		meanX[j] /= float64(n)
	}

	// Centered normal equations: Sxx*beta = Sxy.
	sxx := make([][]float64, p)
	sxy := make([]float64, p)
	for i := 0; i < p; i++ {
		sxx[i] = make([]float64, p)
	}
	var syy float64
	for r := 0; r < n; r++ {
		dy := at(y, r) - meanY
		syy += dy * dy
		for i := 0; i < p; i++ {
			di := at(xs[i], r) - meanX[i]
			sxy[i] += di * dy
			for j := i; j < p; j++ {
				sxx[i][j] += di * (at(xs[j], r) - meanX[j])
			}
		}
	}
	for i := 0; i < p; i++ {
		for j := 0; j < i; j++ {
			sxx[i][j] = sxx[j][i]
		}
	}

	beta, err := SolveSPD(sxx, sxy)
	if err != nil {
		return LinearGaussianParams{}, err
	}

	rss := syy
	for i := 0; i < p; i++ {
		rss -= beta[i] * sxy[i]
	}
	if rss < 0 {
		rss = 0
	}

	intercept := meanY
	for i := 0; i < p; i++ {
		intercept -= beta[i] * meanX[i]
	}
	return LinearGaussianParams{
		Intercept: intercept,
		Beta:      beta,
		Variance:  rss / float64(n),
	}, nil
}
