package stats

import (
	"fmt"
	"math"
)

const log2Pi = 1.8378770664093453

// KDE is a Gaussian product-kernel density estimate over d-dimensional
// points with per-dimension bandwidths chosen by the normal reference rule.
type KDE struct {
	points [][]float64 // row-major, len n, each of len d
	bw     []float64
	logNrm float64 // log normalisation: log(n) + sum(log bw_j) + d/2*log(2*pi)
}

// NewKDE builds a KDE over the given points. Every point must have the same
// dimension and there must be at least two points so bandwidths are defined.
func NewKDE(points [][]float64) (*KDE, error) {
	n := len(points)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrSingular, n)
	}
	d := len(points[0])
	if d == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional points", ErrSingular)
	}

	bw := make([]float64, d)
	for j := 0; j < d; j++ {
		var mean float64
		for _, pt := range points {
			mean += pt[j]
		}
		mean /= float64(n)
		var ss float64
		for _, pt := range points {
			diff := pt[j] - mean
			ss += diff * diff
		}
		sd := math.Sqrt(ss / float64(n))
		if sd == 0 {
			return nil, fmt.Errorf("%w: constant dimension %d", ErrSingular, j)
		}
		// Scott's normal reference rule for product kernels.
		bw[j] = sd * math.Pow(float64(n), -1.0/float64(d+4))
	}

	logNrm := math.Log(float64(n)) + float64(d)/2*log2Pi
	for _, h := range bw {
		logNrm += math.Log(h)
	}

	return &KDE{points: points, bw: bw, logNrm: logNrm}, nil
}

// LogDensity evaluates the log density at x using a numerically stable
// log-sum-exp over the kernel contributions.
func (k *KDE) LogDensity(x []float64) float64 {
	maxExp := math.Inf(-1)
	exps := make([]float64, len(k.points))
	for i, pt := range k.points {
		var e float64
		for j, h := range k.bw {
			z := (x[j] - pt[j]) / h
			e -= 0.5 * z * z
		}
		exps[i] = e
		if e > maxExp {
			maxExp = e
		}
	}

	var sum float64
	for _, e := range exps {
		sum += math.Exp(e - maxExp)
	}
	return maxExp + math.Log(sum) - k.logNrm
}
