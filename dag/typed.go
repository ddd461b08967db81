package dag

import (
	"github.com/hupe1980/bayesgo/model"
)

// Compile-time check that SemiparametricNetwork exposes node types.
var _ model.TypedModel = (*SemiparametricNetwork)(nil)

// SemiparametricNetwork is a Network whose nodes carry a factor type.
// Nodes start as LinearGaussianCPD.
type SemiparametricNetwork struct {
	*Network
	types []model.FactorType
}

// NewSemiparametric creates an arc-free semiparametric network over the
// given node names.
func NewSemiparametric(names []string) (*SemiparametricNetwork, error) {
	n, err := New(names)
	if err != nil {
		return nil, err
	}
	return &SemiparametricNetwork{
		Network: n,
		types:   make([]model.FactorType, len(names)),
	}, nil
}

// NodeType returns the factor type of node i.
func (n *SemiparametricNetwork) NodeType(i int) model.FactorType {
	return n.types[i]
}

// SetNodeType assigns a factor type to node i.
func (n *SemiparametricNetwork) SetNodeType(i int, t model.FactorType) {
	n.types[i] = t
}

// NodeTypes returns a copy of all node types in index order.
func (n *SemiparametricNetwork) NodeTypes() []model.FactorType {
	out := make([]model.FactorType, len(n.types))
	copy(out, n.types)
	return out
}

// Clone returns a deep copy of the network including node types.
func (n *SemiparametricNetwork) Clone() *SemiparametricNetwork {
	types := make([]model.FactorType, len(n.types))
	copy(types, n.types)
	return &SemiparametricNetwork{
		Network: n.Network.Clone(),
		types:   types,
	}
}
