// Package scenegraph defines the renderable scene graph produced by the importers.
//
// Nodes are plain data. A graph is built once by an importer and handed to the
// caller, which owns it from then on; nothing in this package mutates a graph
// after construction other than the Add* helpers used while building.
package scenegraph

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/modelxchange/pkg/gpu"
)

// Node is any element of the scene graph.
type Node interface {
	// Children returns the direct children of the node. Leaf nodes return nil.
	Children() []Node
}

// Group is a node with an ordered list of children and no state of its own.
type Group struct {
	Nodes []Node
}

// NewGroup creates a group holding the given children.
func NewGroup(children ...Node) *Group {
	return &Group{Nodes: children}
}

// Children returns the group's children.
func (g *Group) Children() []Node { return g.Nodes }

// AddChild appends a child node.
func (g *Group) AddChild(n Node) { g.Nodes = append(g.Nodes, n) }

// MatrixTransform applies a local transform to its subtree.
// Matrix is column-major, as produced by mgl64.
type MatrixTransform struct {
	Group
	Matrix mgl64.Mat4
}

// NewMatrixTransform creates a transform node with the given matrix.
func NewMatrixTransform(m mgl64.Mat4) *MatrixTransform {
	return &MatrixTransform{Matrix: m}
}

// StateGroup binds pipeline state for its subtree.
// A nil State means the subtree inherits whatever is bound above it.
type StateGroup struct {
	Group
	State *gpu.BindState
}

// NewStateGroup creates a state group bound to state (which may be nil).
func NewStateGroup(state *gpu.BindState) *StateGroup {
	return &StateGroup{State: state}
}
