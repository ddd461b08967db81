package operators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bayesgo/dag"
	"github.com/hupe1980/bayesgo/model"
)

// typeFixture builds a three-node semiparametric model and a typed stub
// score with distinct per-node CKDE bonuses.
func typeFixture(t *testing.T) (*dag.SemiparametricNetwork, *typedStubScore) {
	t.Helper()

	m, err := dag.NewSemiparametric([]string{"a", "b", "c"})
	require.NoError(t, err)

	s := &typedStubScore{
		base: []float64{1, 2, 3},
		gain: map[[2]int]float64{
			{1, 0}: 10,
		},
		kde: []float64{5, -2, 8},
	}
	return m, s
}

func newTypeSet(t *testing.T, m *dag.SemiparametricNetwork, s *typedStubScore, whitelist []model.TypedNode) *ChangeNodeTypeSet {
	t.Helper()
	c, err := NewChangeNodeTypeSet(m, s, whitelist)
	require.NoError(t, err)

	cache := NewLocalScoreCache(m.NumNodes())
	cache.CacheLocalScores(m, s)
	c.SetLocalScoreCache(cache)
	return c
}

func TestChangeNodeTypeSetConstruction(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, []model.TypedNode{{Node: "b", Type: model.LinearGaussianCPD}})

	assert.False(t, c.valid.Contains(1))
	assert.True(t, c.valid.Contains(0))
	assert.True(t, c.valid.Contains(2))
	assert.Equal(t, []uint32{0, 2}, c.sortedIdx)
}

func TestChangeNodeTypeSetConstructionUnknownNode(t *testing.T) {
	m, s := typeFixture(t)

	_, err := NewChangeNodeTypeSet(m, s, []model.TypedNode{{Node: "zzz"}})
	var unknown *ErrUnknownNode
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "zzz", unknown.Name)
}

func TestChangeNodeTypeSetCacheScores(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	// All nodes are LinearGaussian, so each delta is the node's CKDE bonus.
	assert.Equal(t, 5.0, c.delta[0])
	assert.Equal(t, -2.0, c.delta[1])
	assert.Equal(t, 8.0, c.delta[2])
}

func TestChangeNodeTypeSetCacheScoresSkipsWhitelisted(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, []model.TypedNode{{Node: "c", Type: model.LinearGaussianCPD}})
	c.CacheScores(m)

	assert.True(t, math.IsInf(c.delta[2], -1))
	assert.Equal(t, 5.0, c.delta[0])
}

func TestChangeNodeTypeSetFindMax(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	op, ok := c.FindMax(m)
	require.True(t, ok)
	assert.True(t, op.Equal(NewChangeNodeType("c", model.CKDE, 0)))
	assert.Equal(t, 8.0, op.Delta())
}

func TestChangeNodeTypeSetFindMaxArgmaxInvalid(t *testing.T) {
	m, s := typeFixture(t)
	// Knock out every node: no candidate remains.
	c := newTypeSet(t, m, s, []model.TypedNode{{Node: "a"}, {Node: "b"}, {Node: "c"}})
	c.CacheScores(m)

	_, ok := c.FindMax(m)
	assert.False(t, ok)
	_, ok = c.FindMaxTabu(m, NewTabuSet())
	assert.False(t, ok)
}

func TestChangeNodeTypeSetFindMaxTabuReturnsFirstAllowed(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	tabu := NewTabuSet()
	tabu.Insert(NewChangeNodeType("c", model.CKDE, 0))

	op, ok := c.FindMaxTabu(m, tabu)
	require.True(t, ok)
	assert.True(t, op.Equal(NewChangeNodeType("a", model.CKDE, 0)),
		"best non-tabu candidate, got %s", op)

	tabu.Insert(NewChangeNodeType("a", model.CKDE, 0))
	tabu.Insert(NewChangeNodeType("b", model.CKDE, 0))
	_, ok = c.FindMaxTabu(m, tabu)
	assert.False(t, ok, "every candidate is forbidden")
}

func TestChangeNodeTypeSetUpdateScoresAfterTypeChange(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	op, ok := c.FindMax(m)
	require.True(t, ok)
	require.NoError(t, op.Apply(m))
	c.cache.UpdateAfter(m, s, op)
	c.UpdateScores(m, op)

	// The reverting switch has the opposite delta.
	i, _ := m.Index(op.Node())
	assert.Equal(t, -op.Delta(), c.delta[i])

	// With c at -8, FindMax now proposes the best remaining switch, node a.
	next, ok := c.FindMax(m)
	require.True(t, ok)
	assert.True(t, next.Equal(NewChangeNodeType("a", model.CKDE, 0)), "got %s", next)
}

func TestChangeNodeTypeSetUpdateScoresAfterArcMoves(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	// Adding a -> b changes b's parent set; its switch delta must be
	// recomputed against the refreshed cache.
	op := NewAddArc("a", "b", 0)
	require.NoError(t, op.Apply(m))
	c.cache.UpdateAfter(m, s, op)
	c.UpdateScores(m, op)
	assert.Equal(t, -2.0, c.delta[1], "CKDE bonus of b is unchanged by the arc")

	// A flip refreshes both endpoints.
	flip := NewFlipArc("a", "b", 0)
	require.NoError(t, flip.Apply(m))
	c.cache.UpdateAfter(m, s, flip)
	c.UpdateScores(m, flip)
	assert.Equal(t, 5.0, c.delta[0])
	assert.Equal(t, -2.0, c.delta[1])
}

func TestChangeNodeTypeSetRoundTrip(t *testing.T) {
	m, s := typeFixture(t)
	c := newTypeSet(t, m, s, nil)
	c.CacheScores(m)

	before := append([]float64(nil), c.cache.scores...)

	op, ok := c.FindMax(m)
	require.True(t, ok)
	require.NoError(t, op.Apply(m))
	c.cache.UpdateAfter(m, s, op)
	c.UpdateScores(m, op)

	opp := op.Opposite()
	require.NoError(t, opp.Apply(m))
	c.cache.UpdateAfter(m, s, opp)
	c.UpdateScores(m, opp)

	assert.Equal(t, model.LinearGaussianCPD, m.NodeType(2))
	assert.Equal(t, before, c.cache.scores)
}
