package cv

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bayesgo/dag"
	"github.com/hupe1980/bayesgo/dataset"
	"github.com/hupe1980/bayesgo/model"
)

func testData(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(13))

	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.NormFloat64()
		b[i] = -1.5*a[i] + 0.3*rng.NormFloat64()
	}

	ds, err := dataset.New([]string{"a", "b"}, [][]float64{a, b})
	require.NoError(t, err)
	return ds
}

func TestNewValidation(t *testing.T) {
	ds := testData(t, 100)

	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(ds, func(o *Options) { o.Folds = 1 })
	assert.Error(t, err)

	_, err = New(ds, func(o *Options) { o.Folds = 80 })
	assert.Error(t, err, "too many folds for the row count")

	s, err := New(ds, func(o *Options) { o.Folds = 5 })
	require.NoError(t, err)
	assert.True(t, s.Decomposable())
}

func TestDeterministicUnderSeed(t *testing.T) {
	ds := testData(t, 200)

	s1, err := New(ds, func(o *Options) { o.Seed = 99 })
	require.NoError(t, err)
	s2, err := New(ds, func(o *Options) { o.Seed = 99 })
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	assert.Equal(t, s1.LocalScoreParents(m, 1, []int{0}), s2.LocalScoreParents(m, 1, []int{0}))
	assert.Equal(t, s1.LocalScoreType(model.CKDE, 1, []int{0}), s2.LocalScoreType(model.CKDE, 1, []int{0}))
}

func TestGaussianTrueParentImprovesScore(t *testing.T) {
	ds := testData(t, 400)
	s, err := New(ds)
	require.NoError(t, err)

	assert.Greater(t,
		s.LocalScoreType(model.LinearGaussianCPD, 1, []int{0}),
		s.LocalScoreType(model.LinearGaussianCPD, 1, nil))
}

func TestCKDEScoreIsFinite(t *testing.T) {
	ds := testData(t, 200)
	s, err := New(ds, func(o *Options) { o.Folds = 4 })
	require.NoError(t, err)

	for _, parents := range [][]int{nil, {0}} {
		got := s.LocalScoreType(model.CKDE, 1, parents)
		assert.False(t, math.IsNaN(got))
		assert.False(t, math.IsInf(got, 0))
	}
}

func TestCKDETrueParentImprovesScore(t *testing.T) {
	ds := testData(t, 300)
	s, err := New(ds, func(o *Options) { o.Folds = 4 })
	require.NoError(t, err)

	assert.Greater(t,
		s.LocalScoreType(model.CKDE, 1, []int{0}),
		s.LocalScoreType(model.CKDE, 1, nil))
}

func TestLocalScoreDispatchesOnNodeType(t *testing.T) {
	ds := testData(t, 200)
	s, err := New(ds, func(o *Options) { o.Folds = 4 })
	require.NoError(t, err)

	m, err := dag.NewSemiparametric(ds.Names())
	require.NoError(t, err)
	require.NoError(t, m.AddEdge(0, 1))

	gaussian := s.LocalScore(m, 1)
	assert.Equal(t, s.LocalScoreType(model.LinearGaussianCPD, 1, []int{0}), gaussian)

	m.SetNodeType(1, model.CKDE)
	kde := s.LocalScore(m, 1)
	assert.Equal(t, s.LocalScoreType(model.CKDE, 1, []int{0}), kde)
	assert.NotEqual(t, gaussian, kde)
}

func TestPlainModelScoresAsGaussian(t *testing.T) {
	ds := testData(t, 200)
	s, err := New(ds, func(o *Options) { o.Folds = 4 })
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)
	require.NoError(t, m.AddEdge(0, 1))

	assert.Equal(t, s.LocalScoreType(model.LinearGaussianCPD, 1, []int{0}), s.LocalScore(m, 1))
}
