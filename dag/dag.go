// Package dag provides concrete directed acyclic graph models for the
// search core: Network for linear Gaussian structures and
// SemiparametricNetwork for structures whose nodes carry a factor type.
//
// Adjacency is held in roaring bitmaps per node (parents and children), so
// parent enumeration is ordered and arc queries are O(1) amortised.
package dag

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bayesgo/model"
)

var (
	// ErrDuplicateNode indicates two nodes sharing a name.
	ErrDuplicateNode = errors.New("dag: duplicate node name")

	// ErrSelfLoop indicates an arc from a node to itself.
	ErrSelfLoop = errors.New("dag: self-loop not allowed")

	// ErrArcExists indicates adding an arc already present.
	ErrArcExists = errors.New("dag: arc already exists")

	// ErrArcNotFound indicates removing an arc that is not present.
	ErrArcNotFound = errors.New("dag: arc not found")

	// ErrCycle indicates an arc insertion that would create a cycle.
	ErrCycle = errors.New("dag: arc would create a cycle")
)

// Compile-time check that Network satisfies the model contract.
var _ model.Model = (*Network)(nil)

// Network is a directed acyclic graph over named nodes. Node indices are
// dense and follow the construction order of the names.
type Network struct {
	names    []string
	index    map[string]int
	parents  []*roaring.Bitmap
	children []*roaring.Bitmap
	numArcs  int
}

// New creates an arc-free network over the given node names.
func New(names []string) (*Network, error) {
	n := &Network{
		names:    make([]string, len(names)),
		index:    make(map[string]int, len(names)),
		parents:  make([]*roaring.Bitmap, len(names)),
		children: make([]*roaring.Bitmap, len(names)),
	}
	copy(n.names, names)
	for i, name := range names {
		if _, ok := n.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, name)
		}
		n.index[name] = i
		n.parents[i] = roaring.New()
		n.children[i] = roaring.New()
	}
	return n, nil
}

// NumNodes returns the number of nodes.
func (n *Network) NumNodes() int { return len(n.names) }

// NumArcs returns the number of arcs.
func (n *Network) NumArcs() int { return n.numArcs }

// Indices returns a copy of the name-to-index mapping.
func (n *Network) Indices() map[string]int {
	out := make(map[string]int, len(n.index))
	for k, v := range n.index {
		out[k] = v
	}
	return out
}

// Index returns the index of the named node, if present.
func (n *Network) Index(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}

// Name returns the name of the node at index i.
func (n *Network) Name(i int) string { return n.names[i] }

// Names returns a copy of the node names in index order.
func (n *Network) Names() []string {
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// ParentIndices returns the parents of node i in ascending order.
func (n *Network) ParentIndices(i int) []int {
	arr := n.parents[i].ToArray()
	out := make([]int, len(arr))
	for j, v := range arr {
		out[j] = int(v)
	}
	return out
}

// NumParents returns the in-degree of node i.
func (n *Network) NumParents(i int) int {
	return int(n.parents[i].GetCardinality())
}

// HasEdge reports whether the arc source -> target exists.
func (n *Network) HasEdge(source, target int) bool {
	return n.children[source].Contains(uint32(target))
}

// CanAddEdge reports whether adding source -> target keeps the graph
// acyclic. The arc must not exist yet in either direction.
func (n *Network) CanAddEdge(source, target int) bool {
	if source == target || n.HasEdge(source, target) {
		return false
	}
	return !n.reachable(target, source, -1, -1)
}

// CanFlipEdge reports whether reversing the existing arc source -> target
// keeps the graph acyclic: no alternative path source ~> target may
// remain once the direct arc is gone.
func (n *Network) CanFlipEdge(source, target int) bool {
	if !n.HasEdge(source, target) {
		return false
	}
	return !n.reachable(source, target, source, target)
}

// AddEdge inserts the arc source -> target, rejecting self-loops,
// duplicates, and cycles.
func (n *Network) AddEdge(source, target int) error {
	if source == target {
		return fmt.Errorf("%w: %s", ErrSelfLoop, n.names[source])
	}
	if n.HasEdge(source, target) {
		return fmt.Errorf("%w: %s -> %s", ErrArcExists, n.names[source], n.names[target])
	}
	if n.reachable(target, source, -1, -1) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, n.names[source], n.names[target])
	}
	n.children[source].Add(uint32(target))
	n.parents[target].Add(uint32(source))
	n.numArcs++
	return nil
}

// RemoveEdge deletes the arc source -> target.
func (n *Network) RemoveEdge(source, target int) error {
	if !n.HasEdge(source, target) {
		return fmt.Errorf("%w: %s -> %s", ErrArcNotFound, n.names[source], n.names[target])
	}
	n.children[source].Remove(uint32(target))
	n.parents[target].Remove(uint32(source))
	n.numArcs--
	return nil
}

// Arcs returns every arc in deterministic (source, target) order.
func (n *Network) Arcs() []model.Arc {
	out := make([]model.Arc, 0, n.numArcs)
	for s := range n.names {
		it := n.children[s].Iterator()
		for it.HasNext() {
			out = append(out, model.Arc{Source: n.names[s], Target: n.names[int(it.Next())]})
		}
	}
	return out
}

// Clone returns an independent copy of the network. Names are immutable
// and shared; adjacency is copied.
func (n *Network) Clone() *Network {
	out := &Network{
		names:    n.names,
		index:    n.index,
		parents:  make([]*roaring.Bitmap, len(n.parents)),
		children: make([]*roaring.Bitmap, len(n.children)),
		numArcs:  n.numArcs,
	}
	for i := range n.parents {
		out.parents[i] = n.parents[i].Clone()
		out.children[i] = n.children[i].Clone()
	}
	return out
}

// reachable reports whether to is reachable from from, optionally skipping
// the single arc skipS -> skipT (pass -1s to skip nothing).
func (n *Network) reachable(from, to int, skipS, skipT int) bool {
	if from == to {
		return true
	}
	visited := make([]bool, len(n.names))
	stack := []int{from}
	visited[from] = true

	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		it := n.children[u].Iterator()
		for it.HasNext() {
			v := int(it.Next())
			if u == skipS && v == skipT {
				continue
			}
			if v == to {
				return true
			}
			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}
	return false
}
