package scenegraph

// WalkFunc is called for every node visited by Walk. Returning false skips
// the node's children.
type WalkFunc func(n Node, depth int) bool

// Walk visits the graph depth-first in child order using an explicit stack,
// so arbitrarily deep graphs cannot exhaust the goroutine stack.
func Walk(root Node, fn WalkFunc) {
	if root == nil {
		return
	}

	type frame struct {
		node  Node
		depth int
	}
	stack := []frame{{root, 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(top.node, top.depth) {
			continue
		}

		children := top.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], top.depth + 1})
		}
	}
}

// Count returns the number of nodes of each concrete kind in the graph.
type Count struct {
	Groups     int
	Transforms int
	States     int
	Draws      int
	Cameras    int
	Lights     int
}

// CountNodes tallies the nodes reachable from root.
func CountNodes(root Node) Count {
	var c Count
	Walk(root, func(n Node, _ int) bool {
		switch n.(type) {
		case *Group:
			c.Groups++
		case *MatrixTransform:
			c.Transforms++
		case *StateGroup:
			c.States++
		case *VertexIndexDraw:
			c.Draws++
		case *Camera:
			c.Cameras++
		case *Light:
			c.Lights++
		}
		return true
	})
	return c
}
