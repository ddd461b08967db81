package operators

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/score"
)

// Compile-time check that ArcOperatorSet satisfies the set contract.
var _ Set = (*ArcOperatorSet)(nil)

// ArcOperatorSet maintains the delta of every candidate arc move over an
// N x N matrix of ordered node pairs.
//
// Cell (s, t) holds the delta of the one candidate that pair currently
// generates:
//
//   - arc s -> t exists:  delta of removing s -> t
//   - arc t -> s exists:  delta of flipping t -> s into s -> t
//   - no arc either way:  delta of adding s -> t
//
// Knocked-out cells (diagonal, whitelisted pairs in both directions,
// blacklisted directions) stay at -Inf forever. FindMax sorts the valid
// cells by descending delta and scans for the first candidate the model
// accepts; after a move only the columns of the touched endpoints are
// recomputed.
type ArcOperatorSet struct {
	score       score.Score
	cache       *LocalScoreCache
	numNodes    int
	delta       []float64       // cell (s, t) at s + t*numNodes
	valid       *roaring.Bitmap // linearized candidate cells
	sortedIdx   []uint32
	maxIndegree int
}

// NewArcOperatorSet builds the arc move family for the model. Whitelisted
// arcs are pinned present (neither direction is a candidate), blacklisted
// arcs are pinned absent (the listed direction is no candidate).
// maxIndegree caps parents per node; zero means unlimited.
func NewArcOperatorSet(m model.Model, s score.Score, whitelist, blacklist []model.Arc, maxIndegree int) (*ArcOperatorSet, error) {
	n := m.NumNodes()
	a := &ArcOperatorSet{
		score:       s,
		numNodes:    n,
		delta:       make([]float64, n*n),
		valid:       roaring.New(),
		maxIndegree: maxIndegree,
	}
	for i := range a.delta {
		a.delta[i] = math.Inf(-1)
	}
	a.valid.AddRange(0, uint64(n*n))
	for i := 0; i < n; i++ {
		a.valid.Remove(a.cell(i, i))
	}

	for _, arc := range whitelist {
		src, dst, err := arcIndices(m, arc.Source, arc.Target)
		if err != nil {
			return nil, err
		}
		a.valid.Remove(a.cell(src, dst))
		a.valid.Remove(a.cell(dst, src))
	}
	for _, arc := range blacklist {
		src, dst, err := arcIndices(m, arc.Source, arc.Target)
		if err != nil {
			return nil, err
		}
		a.valid.Remove(a.cell(src, dst))
	}

	a.sortedIdx = a.valid.ToArray()
	return a, nil
}

// Type identifies the arc family.
func (a *ArcOperatorSet) Type() SetType { return SetTypeArcs }

// SetLocalScoreCache attaches the shared local score cache.
func (a *ArcOperatorSet) SetLocalScoreCache(cache *LocalScoreCache) {
	a.cache = cache
}

// CacheScores fills every valid cell with its candidate delta. Knocked-out
// cells are left untouched at -Inf.
func (a *ArcOperatorSet) CacheScores(m model.Model) {
	for t := 0; t < a.numNodes; t++ {
		parents := m.ParentIndices(t)
		for s := 0; s < a.numNodes; s++ {
			c := a.cell(s, t)
			if !a.valid.Contains(c) {
				continue
			}
			a.delta[c] = a.candidateDelta(m, s, t, parents)
		}
	}
}

// candidateDelta computes the delta of the candidate at cell (s, t).
// parentsT is a scratch copy of t's current parents.
func (a *ArcOperatorSet) candidateDelta(m model.Model, s, t int, parentsT []int) float64 {
	switch {
	case m.HasEdge(s, t):
		// Remove s -> t.
		return a.score.LocalScoreParents(m, t, without(parentsT, s)) - a.cache.LocalScore(t)
	case m.HasEdge(t, s):
		// Flip t -> s into s -> t: s loses parent t, t gains parent s.
		return a.score.LocalScoreParents(m, s, without(m.ParentIndices(s), t)) +
			a.score.LocalScoreParents(m, t, with(parentsT, s)) -
			a.cache.LocalScore(s) - a.cache.LocalScore(t)
	default:
		// Add s -> t.
		return a.score.LocalScoreParents(m, t, with(parentsT, s)) - a.cache.LocalScore(t)
	}
}

// FindMax returns the best arc move the model accepts.
func (a *ArcOperatorSet) FindMax(m model.Model) (Operator, bool) {
	return a.findMax(m, nil)
}

// FindMaxTabu returns the best arc move the model accepts that is not in
// the tabu set.
func (a *ArcOperatorSet) FindMaxTabu(m model.Model, tabu *TabuSet) (Operator, bool) {
	return a.findMax(m, tabu)
}

func (a *ArcOperatorSet) findMax(m model.Model, tabu *TabuSet) (Operator, bool) {
	a.sortByDelta()
	limited := a.maxIndegree > 0

	for _, idx := range a.sortedIdx {
		if math.IsInf(a.delta[idx], -1) {
			// Sorted descending: everything from here on is -Inf.
			break
		}
		s := int(idx) % a.numNodes
		t := int(idx) / a.numNodes

		var op Operator
		switch {
		case m.HasEdge(s, t):
			op = NewRemoveArc(m.Name(s), m.Name(t), a.delta[idx])
		case m.HasEdge(t, s) && m.CanFlipEdge(t, s):
			// The flip produces s -> t, so the cap applies to t.
			if limited && m.NumParents(t) >= a.maxIndegree {
				continue
			}
			op = NewFlipArc(m.Name(t), m.Name(s), a.delta[idx])
		case m.CanAddEdge(s, t):
			if limited && m.NumParents(t) >= a.maxIndegree {
				continue
			}
			op = NewAddArc(m.Name(s), m.Name(t), a.delta[idx])
		default:
			continue
		}

		if tabu.Contains(op) {
			continue
		}
		return op, true
	}
	return Operator{}, false
}

// sortByDelta re-sorts the valid cells in place by descending delta, ties
// broken by ascending linearized index.
func (a *ArcOperatorSet) sortByDelta() {
	sort.Slice(a.sortedIdx, func(i, j int) bool {
		di, dj := a.delta[a.sortedIdx[i]], a.delta[a.sortedIdx[j]]
		if di != dj {
			return di > dj
		}
		return a.sortedIdx[i] < a.sortedIdx[j]
	})
}

// UpdateScores refreshes the columns invalidated by a just-applied
// operator: the target for arc adds and removes, both endpoints for flips,
// and the node for type changes.
func (a *ArcOperatorSet) UpdateScores(m model.Model, op Operator) {
	switch op.Kind() {
	case KindAddArc, KindRemoveArc:
		a.updateNodeArcsScores(m, op.Target())
	case KindFlipArc:
		a.updateNodeArcsScores(m, op.Source())
		a.updateNodeArcsScores(m, op.Target())
	case KindChangeNodeType:
		a.updateNodeArcsScores(m, op.Node())
	}
}

// updateNodeArcsScores recomputes every valid cell in dest's column. Where
// an arc i -> dest exists, the mirror cell (dest, i) encodes the flip of
// that arc and is refreshed too: the remove partial is already available,
// so the flip costs one extra local score.
func (a *ArcOperatorSet) updateNodeArcsScores(m model.Model, destName string) {
	dest, ok := m.Index(destName)
	if !ok {
		return
	}
	parents := m.ParentIndices(dest)

	for i := 0; i < a.numNodes; i++ {
		c := a.cell(i, dest)
		if !a.valid.Contains(c) {
			continue
		}
		switch {
		case m.HasEdge(i, dest):
			d := a.score.LocalScoreParents(m, dest, without(parents, i)) - a.cache.LocalScore(dest)
			a.delta[c] = d

			if mirror := a.cell(dest, i); a.valid.Contains(mirror) {
				a.delta[mirror] = d +
					a.score.LocalScoreParents(m, i, with(m.ParentIndices(i), dest)) -
					a.cache.LocalScore(i)
			}
		case m.HasEdge(dest, i):
			// Cell (i, dest) encodes the flip dest -> i into i -> dest.
			a.delta[c] = a.score.LocalScoreParents(m, i, without(m.ParentIndices(i), dest)) +
				a.score.LocalScoreParents(m, dest, with(parents, i)) -
				a.cache.LocalScore(i) - a.cache.LocalScore(dest)
		default:
			a.delta[c] = a.score.LocalScoreParents(m, dest, with(parents, i)) - a.cache.LocalScore(dest)
		}
	}
}

func (a *ArcOperatorSet) cell(s, t int) uint32 {
	return uint32(s + t*a.numNodes)
}

// with returns a copy of parents with p appended.
func with(parents []int, p int) []int {
	out := make([]int, 0, len(parents)+1)
	out = append(out, parents...)
	return append(out, p)
}

// without returns a copy of parents with p removed.
func without(parents []int, p int) []int {
	out := make([]int, 0, len(parents))
	for _, q := range parents {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}
