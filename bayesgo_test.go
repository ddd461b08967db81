package bayesgo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bayesgo/checkpoint"
	"github.com/hupe1980/bayesgo/dag"
	"github.com/hupe1980/bayesgo/dataset"
	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
	"github.com/hupe1980/bayesgo/score/bic"
	"github.com/hupe1980/bayesgo/score/cv"
)

// chainData generates a -> b -> c with strong signal.
func chainData(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(21))

	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.NormFloat64()
		b[i] = 1.8*a[i] + 0.4*rng.NormFloat64()
		c[i] = -1.2*b[i] + 0.4*rng.NormFloat64()
	}

	ds, err := dataset.New([]string{"a", "b", "c"}, [][]float64{a, b, c})
	require.NoError(t, err)
	return ds
}

// pairData generates c = 2a with b independent.
func pairData(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(5))

	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.NormFloat64()
		b[i] = rng.NormFloat64()
		c[i] = 2*a[i] + 0.1*rng.NormFloat64()
	}

	ds, err := dataset.New([]string{"a", "b", "c"}, [][]float64{a, b, c})
	require.NoError(t, err)
	return ds
}

func totalScore(m model.Model, s score.Score) float64 {
	var total float64
	for i := 0; i < m.NumNodes(); i++ {
		total += s.LocalScore(m, i)
	}
	return total
}

func TestHillClimbRecoversChain(t *testing.T) {
	ds := chainData(t, 500)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)
	emptyScore := totalScore(m, s)

	res, err := HillClimb(context.Background(), m, s)
	require.NoError(t, err)

	assert.Greater(t, res.Iterations, 0)
	assert.Greater(t, res.Score, emptyScore)
	assert.InDelta(t, totalScore(m, s), res.Score, 1e-9,
		"reported score matches an independent recomputation")

	// The generating chain couples (a, b) and (b, c); greedy search must
	// connect both pairs in one direction or the other.
	connected := func(x, y int) bool { return m.HasEdge(x, y) || m.HasEdge(y, x) }
	assert.True(t, connected(0, 1), "a and b must end up adjacent")
	assert.True(t, connected(1, 2), "b and c must end up adjacent")
}

func TestHillClimbRespectsBlacklist(t *testing.T) {
	ds := pairData(t, 500)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) {
		o.ArcBlacklist = []model.Arc{{Source: "a", Target: "c"}}
	})
	require.NoError(t, err)

	assert.False(t, m.HasEdge(0, 2), "blacklisted arc must never appear")
	assert.True(t, m.HasEdge(2, 0), "the reverse direction is free and strongly supported")
}

func TestHillClimbWhitelistForcesPresence(t *testing.T) {
	ds := pairData(t, 500)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	// b is independent noise: only the whitelist keeps a -> b alive.
	res, err := HillClimb(context.Background(), m, s, func(o *Options) {
		o.ArcWhitelist = []model.Arc{{Source: "a", Target: "b"}}
	})
	require.NoError(t, err)

	assert.True(t, m.HasEdge(0, 1), "whitelisted arc must be present")
	assert.InDelta(t, totalScore(m, s), res.Score, 1e-9)
}

func TestHillClimbMaxIndegree(t *testing.T) {
	ds := chainData(t, 500)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) {
		o.MaxIndegree = 1
	})
	require.NoError(t, err)

	for i := 0; i < m.NumNodes(); i++ {
		assert.LessOrEqual(t, m.NumParents(i), 1)
	}
}

func TestHillClimbMaxIterations(t *testing.T) {
	ds := chainData(t, 500)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	res, err := HillClimb(context.Background(), m, s, func(o *Options) {
		o.MaxIterations = 1
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 1, m.NumArcs())
}

func TestHillClimbValidation(t *testing.T) {
	ds := chainData(t, 100)
	s, err := bic.New(ds)
	require.NoError(t, err)

	empty, err := dag.New(nil)
	require.NoError(t, err)
	_, err = HillClimb(context.Background(), empty, s)
	assert.ErrorIs(t, err, ErrEmptyModel)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) { o.Epsilon = -1 })
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) { o.MaxIterations = -1 })
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) { o.MaxIndegree = -1 })
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = TabuSearch(context.Background(), m, s, func(o *Options) { o.Patience = -1 })
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = HillClimb(context.Background(), m, s, func(o *Options) {
		o.ArcWhitelist = []model.Arc{{Source: "zzz", Target: "a"}}
	})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestHillClimbContextCancellation(t *testing.T) {
	ds := chainData(t, 200)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = HillClimb(ctx, m, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHillClimbCheckpointing(t *testing.T) {
	ds := chainData(t, 300)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	path := t.TempDir() + "/search.ckpt"
	res, err := HillClimb(context.Background(), m, s, func(o *Options) {
		o.CheckpointPath = path
		o.CheckpointInterval = 1
	})
	require.NoError(t, err)
	require.Greater(t, res.Iterations, 0)

	st, err := checkpoint.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Names(), st.Names)

	restored, err := dag.New(ds.Names())
	require.NoError(t, err)
	require.NoError(t, st.Restore(restored))
	assert.Equal(t, st.Iteration, res.Iterations)
	assert.Equal(t, m.Arcs(), restored.Arcs())
}

func TestTabuSearchAtLeastAsGoodAsHillClimb(t *testing.T) {
	ds := chainData(t, 400)
	s, err := bic.New(ds)
	require.NoError(t, err)

	hcModel, err := dag.New(ds.Names())
	require.NoError(t, err)
	hcRes, err := HillClimb(context.Background(), hcModel, s)
	require.NoError(t, err)

	tabuModel, err := dag.New(ds.Names())
	require.NoError(t, err)
	tabuRes, err := TabuSearch(context.Background(), tabuModel, s, func(o *Options) {
		o.Patience = 5
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, tabuRes.Score, hcRes.Score-1e-9,
		"tabu search visits the greedy optimum before exploring past it")
	assert.InDelta(t, totalScore(tabuModel, s), tabuRes.Score, 1e-9,
		"the returned model is unwound to the best visited structure")
}

func TestTabuSearchMaxIterations(t *testing.T) {
	ds := chainData(t, 300)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	res, err := TabuSearch(context.Background(), m, s, func(o *Options) {
		o.MaxIterations = 2
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 2)
}

func TestHillClimbSemiparametricWithCV(t *testing.T) {
	ds := chainData(t, 200)
	s, err := cv.New(ds, func(o *cv.Options) { o.Folds = 4 })
	require.NoError(t, err)

	m, err := dag.NewSemiparametric(ds.Names())
	require.NoError(t, err)

	res, err := HillClimb(context.Background(), m, s)
	require.NoError(t, err)

	assert.Greater(t, res.Iterations, 0)
	assert.InDelta(t, totalScore(m, s), res.Score, 1e-9)
}

func TestHillClimbMetricsAndLogging(t *testing.T) {
	ds := chainData(t, 300)
	s, err := bic.New(ds)
	require.NoError(t, err)

	m, err := dag.New(ds.Names())
	require.NoError(t, err)

	metrics := &BasicMetricsCollector{}
	res, err := HillClimb(context.Background(), m, s, func(o *Options) {
		o.Metrics = metrics
		o.Logger = NoopLogger()
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.CacheScoresCount.Load())
	assert.Equal(t, int64(res.Iterations), metrics.StepCount.Load())
	assert.Equal(t, int64(1), metrics.SearchCount.Load())
	assert.Equal(t, int64(0), metrics.SearchErrors.Load())
	assert.Equal(t, int64(res.Iterations), metrics.IterationsTotal.Load())
}

func TestLoggerConstructors(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
	assert.NotNil(t, NewJSONLogger(0))
	assert.NotNil(t, NewTextLogger(0))
	assert.NotNil(t, NoopLogger())
}
