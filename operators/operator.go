// Package operators implements the candidate-move engine for greedy
// structure search over directed acyclic graphs.
//
// A search step is a local edit to the network: adding, removing or
// flipping an arc, or changing a node's factor type. Each candidate edit
// is an Operator carrying the score delta the model would experience if it
// were applied. Operator families are organised in sets (ArcOperatorSet,
// ChangeNodeTypeSet) that cache all deltas up front, answer best-legal
// queries by sort-and-scan, and refresh incrementally after a move. The
// Pool composes the sets over a shared LocalScoreCache and picks the
// global best move, optionally excluding a TabuSet.
package operators

import (
	"fmt"

	"github.com/hupe1980/bayesgo/model"
)

// Kind enumerates the operator variants.
type Kind uint8

const (
	// KindAddArc adds the arc source -> target.
	KindAddArc Kind = iota

	// KindRemoveArc removes the arc source -> target.
	KindRemoveArc

	// KindFlipArc removes source -> target and adds target -> source.
	KindFlipArc

	// KindChangeNodeType switches a node to its opposite factor type.
	KindChangeNodeType
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAddArc:
		return "AddArc"
	case KindRemoveArc:
		return "RemoveArc"
	case KindFlipArc:
		return "FlipArc"
	case KindChangeNodeType:
		return "ChangeNodeType"
	default:
		panic(fmt.Sprintf("operators: unknown operator kind %d", uint8(k)))
	}
}

// SetType enumerates the operator families.
type SetType uint8

const (
	// SetTypeArcs is the family of arc add/remove/flip operators.
	SetTypeArcs SetType = iota

	// SetTypeNodeType is the family of node-type change operators.
	SetTypeNodeType
)

// String returns the canonical name of the set type.
func (t SetType) String() string {
	switch t {
	case SetTypeArcs:
		return "arcs"
	case SetTypeNodeType:
		return "node_type"
	default:
		panic(fmt.Sprintf("operators: unknown operator set type %d", uint8(t)))
	}
}

// identity is the tabu-set key of an operator: the kind plus the fields
// that identify the edit. The score delta is deliberately excluded.
type identity struct {
	kind    Kind
	a, b    string
	newType model.FactorType
}

// Operator is an immutable candidate edit annotated with its score delta.
// The zero value is not a valid operator; use the New* constructors.
type Operator struct {
	kind    Kind
	source  string // arc source, or the node for ChangeNodeType
	target  string
	newType model.FactorType
	delta   float64
}

// NewAddArc returns an operator adding source -> target.
func NewAddArc(source, target string, delta float64) Operator {
	return Operator{kind: KindAddArc, source: source, target: target, delta: delta}
}

// NewRemoveArc returns an operator removing source -> target.
func NewRemoveArc(source, target string, delta float64) Operator {
	return Operator{kind: KindRemoveArc, source: source, target: target, delta: delta}
}

// NewFlipArc returns an operator reversing source -> target.
func NewFlipArc(source, target string, delta float64) Operator {
	return Operator{kind: KindFlipArc, source: source, target: target, delta: delta}
}

// NewChangeNodeType returns an operator switching node to newType.
func NewChangeNodeType(node string, newType model.FactorType, delta float64) Operator {
	return Operator{kind: KindChangeNodeType, source: node, newType: newType, delta: delta}
}

// Kind returns the operator variant.
func (op Operator) Kind() Kind { return op.kind }

// Delta returns the score change the model would experience by applying
// the operator.
func (op Operator) Delta() float64 { return op.delta }

// Source returns the arc source. For ChangeNodeType it returns the node.
func (op Operator) Source() string { return op.source }

// Target returns the arc target. Empty for ChangeNodeType.
func (op Operator) Target() string { return op.target }

// Node returns the node of a ChangeNodeType operator.
func (op Operator) Node() string { return op.source }

// NodeType returns the new factor type of a ChangeNodeType operator.
func (op Operator) NodeType() model.FactorType { return op.newType }

// Apply performs the edit on the model. ChangeNodeType requires a model
// implementing model.TypedModel and returns ErrNodeTypesUnsupported
// otherwise.
func (op Operator) Apply(m model.Model) error {
	switch op.kind {
	case KindAddArc:
		s, t, err := arcIndices(m, op.source, op.target)
		if err != nil {
			return err
		}
		return m.AddEdge(s, t)
	case KindRemoveArc:
		s, t, err := arcIndices(m, op.source, op.target)
		if err != nil {
			return err
		}
		return m.RemoveEdge(s, t)
	case KindFlipArc:
		s, t, err := arcIndices(m, op.source, op.target)
		if err != nil {
			return err
		}
		if err := m.RemoveEdge(s, t); err != nil {
			return err
		}
		return m.AddEdge(t, s)
	case KindChangeNodeType:
		tm, ok := m.(model.TypedModel)
		if !ok {
			return ErrNodeTypesUnsupported
		}
		i, ok := m.Index(op.source)
		if !ok {
			return &ErrUnknownNode{Name: op.source}
		}
		tm.SetNodeType(i, op.newType)
		return nil
	default:
		panic(fmt.Sprintf("operators: unknown operator kind %d", uint8(op.kind)))
	}
}

// Opposite returns the operator that reverts this one. Construction
// negates the delta, so op.Opposite().Opposite() equals op.
func (op Operator) Opposite() Operator {
	switch op.kind {
	case KindAddArc:
		return NewRemoveArc(op.source, op.target, -op.delta)
	case KindRemoveArc:
		return NewAddArc(op.source, op.target, -op.delta)
	case KindFlipArc:
		return NewFlipArc(op.target, op.source, -op.delta)
	case KindChangeNodeType:
		return NewChangeNodeType(op.source, op.newType.Opposite(), -op.delta)
	default:
		panic(fmt.Sprintf("operators: unknown operator kind %d", uint8(op.kind)))
	}
}

// Equal reports whether two operators describe the same edit. The score
// delta is not part of operator identity.
func (op Operator) Equal(other Operator) bool {
	return op.identity() == other.identity()
}

// String renders the operator with its delta.
func (op Operator) String() string {
	if op.kind == KindChangeNodeType {
		return fmt.Sprintf("ChangeNodeType(%s -> %s; %g)", op.source, op.newType, op.delta)
	}
	return fmt.Sprintf("%s(%s -> %s; %g)", op.kind, op.source, op.target, op.delta)
}

func (op Operator) identity() identity {
	id := identity{kind: op.kind, a: op.source}
	if op.kind == KindChangeNodeType {
		id.newType = op.newType
	} else {
		id.b = op.target
	}
	return id
}

func arcIndices(m model.Model, source, target string) (int, int, error) {
	s, ok := m.Index(source)
	if !ok {
		return 0, 0, &ErrUnknownNode{Name: source}
	}
	t, ok := m.Index(target)
	if !ok {
		return 0, 0, &ErrUnknownNode{Name: target}
	}
	return s, t, nil
}
