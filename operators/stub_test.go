package operators

import (
	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

// Compile-time checks for the test doubles.
var (
	_ score.Score      = (*stubScore)(nil)
	_ score.TypedScore = (*typedStubScore)(nil)
)

// stubScore is a deterministic additive score: a node contributes its base
// value plus one fixed gain per attached parent. Deltas of arc moves are
// therefore known in closed form, which keeps ordering assertions exact.
type stubScore struct {
	base []float64
	gain map[[2]int]float64 // {node, parent} -> contribution
}

func (s *stubScore) Decomposable() bool { return true }

func (s *stubScore) LocalScore(m model.Model, node int) float64 {
	return s.LocalScoreParents(m, node, m.ParentIndices(node))
}

func (s *stubScore) LocalScoreParents(_ model.Model, node int, parents []int) float64 {
	total := s.base[node]
	for _, p := range parents {
		total += s.gain[[2]int{node, p}]
	}
	return total
}

// typedStubScore extends the additive stub with a per-node bonus that only
// CKDE nodes earn.
type typedStubScore struct {
	base []float64
	gain map[[2]int]float64
	kde  []float64
}

func (s *typedStubScore) Decomposable() bool { return true }

func (s *typedStubScore) scoreOf(t model.FactorType, node int, parents []int) float64 {
	total := s.base[node]
	for _, p := range parents {
		total += s.gain[[2]int{node, p}]
	}
	if t == model.CKDE {
		total += s.kde[node]
	}
	return total
}

func (s *typedStubScore) LocalScore(m model.Model, node int) float64 {
	return s.LocalScoreParents(m, node, m.ParentIndices(node))
}

func (s *typedStubScore) LocalScoreParents(m model.Model, node int, parents []int) float64 {
	t := model.LinearGaussianCPD
	if tm, ok := m.(model.TypedModel); ok {
		t = tm.NodeType(node)
	}
	return s.scoreOf(t, node, parents)
}

func (s *typedStubScore) LocalScoreType(t model.FactorType, node int, parents []int) float64 {
	return s.scoreOf(t, node, parents)
}
