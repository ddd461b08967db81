// Package model defines the capability interfaces the structure-learning
// core requires from a Bayesian-network model.
//
// The core never depends on a concrete network type. Any graph that can
// answer the queries below — node indexing, parent sets, arc existence and
// legality — can be searched. Networks whose nodes carry a factor type
// additionally implement TypedModel, which unlocks node-type operators.
package model

// FactorType identifies the family of conditional distribution modelling a
// node. The two supported families are complementary: Opposite flips
// between them.
type FactorType uint8

const (
	// LinearGaussianCPD models a node as a linear Gaussian conditional
	// distribution given its parents.
	LinearGaussianCPD FactorType = iota

	// CKDE models a node with a conditional kernel density estimate.
	CKDE
)

// Opposite returns the complementary factor type.
func (t FactorType) Opposite() FactorType {
	if t == LinearGaussianCPD {
		return CKDE
	}
	return LinearGaussianCPD
}

// String returns a human-readable name for the factor type.
func (t FactorType) String() string {
	switch t {
	case LinearGaussianCPD:
		return "LinearGaussianCPD"
	case CKDE:
		return "CKDE"
	default:
		return "Unknown"
	}
}

// Arc is a directed arc between two named nodes.
type Arc struct {
	Source string
	Target string
}

// TypedNode pins a node to a factor type. Used for type whitelists.
type TypedNode struct {
	Node string
	Type FactorType
}

// Model is the read/write capability set the search core requires from a
// network structure. Node indices are dense in [0, NumNodes).
//
// Query methods must not mutate the model. AddEdge and RemoveEdge are the
// only mutation points; within the operators package they are invoked
// solely by Operator.Apply.
type Model interface {
	// NumNodes returns the number of nodes.
	NumNodes() int

	// Indices returns a copy of the name-to-index mapping.
	Indices() map[string]int

	// Index returns the index of the named node, if present.
	Index(name string) (int, bool)

	// Name returns the name of the node at index i.
	Name(i int) string

	// ParentIndices returns the parent indices of node i in ascending
	// order. The returned slice is a copy the caller may scratch.
	ParentIndices(i int) []int

	// NumParents returns the in-degree of node i.
	NumParents(i int) int

	// HasEdge reports whether the arc source -> target exists.
	HasEdge(source, target int) bool

	// CanAddEdge reports whether adding source -> target keeps the model
	// a DAG and violates no model-specific constraint.
	CanAddEdge(source, target int) bool

	// CanFlipEdge reports whether reversing the existing arc
	// source -> target keeps the model a DAG.
	CanFlipEdge(source, target int) bool

	// AddEdge inserts the arc source -> target.
	AddEdge(source, target int) error

	// RemoveEdge deletes the arc source -> target.
	RemoveEdge(source, target int) error
}

// TypedModel extends Model for networks whose nodes carry a factor type.
type TypedModel interface {
	Model

	// NodeType returns the factor type of node i.
	NodeType(i int) FactorType

	// SetNodeType assigns a factor type to node i.
	SetNodeType(i int, t FactorType)
}
