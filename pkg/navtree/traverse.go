package navtree

// children returns the direct children of n without copying. Pane contents
// are returned in role order. Callers must not modify the result.
func children(n Node) []Node {
	switch n := n.(type) {
	case *ScreenNode:
		return nil
	case *StackNode:
		return n.children
	case *TabNode:
		out := make([]Node, len(n.lanes))
		for i, lane := range n.lanes {
			out[i] = lane
		}
		return out
	case *PaneNode:
		out := make([]Node, 0, len(n.panes))
		for _, r := range paneRoles {
			if cfg, ok := n.panes[r]; ok {
				out = append(out, cfg.Content)
			}
		}
		return out
	default:
		unknownNode(n)
		return nil
	}
}

// activeChild returns the active child of n, or nil for screens and empty
// stacks.
func activeChild(n Node) Node {
	switch n := n.(type) {
	case *ScreenNode:
		return nil
	case *StackNode:
		return n.Top()
	case *TabNode:
		return n.ActiveLane()
	case *PaneNode:
		return n.ActiveContent()
	default:
		unknownNode(n)
		return nil
	}
}

// Children returns the direct children of n: stack children, tab lanes, or
// pane contents in role order.
func Children(n Node) []Node {
	c := children(n)
	out := make([]Node, len(c))
	copy(out, c)
	return out
}

// Walk visits the tree depth-first in pre-order. It stops as soon as fn
// returns false. Walk reports whether the walk ran to completion.
func Walk(root Node, fn func(n Node, depth int) bool) bool {
	if root == nil {
		return true
	}
	return walk(root, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range children(n) {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with key, or nil.
func Find(root Node, key NodeKey) Node {
	var found Node
	Walk(root, func(n Node, _ int) bool {
		if n.Key() == key {
			found = n
			return false
		}
		return true
	})
	return found
}

// Contains reports whether key is in the tree.
func Contains(root Node, key NodeKey) bool {
	return Find(root, key) != nil
}

// PathTo returns the nodes from root to the node with key, inclusive, or nil
// if key is absent.
func PathTo(root Node, key NodeKey) []Node {
	if root == nil {
		return nil
	}
	var path []Node
	var visit func(n Node) bool
	visit = func(n Node) bool {
		path = append(path, n)
		if n.Key() == key {
			return true
		}
		for _, c := range children(n) {
			if visit(c) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if !visit(root) {
		return nil
	}
	return path
}

// ParentOf returns the parent of the node with key, or nil if key is the root
// or absent.
func ParentOf(root Node, key NodeKey) Node {
	path := PathTo(root, key)
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

// ActivePath returns the nodes from the root to the active leaf, following
// the last child of each stack, the active lane of each tab node and the
// active pane of each pane node. The path ends early at an empty stack.
func ActivePath(root Node) []Node {
	var path []Node
	for n := root; n != nil; n = activeChild(n) {
		path = append(path, n)
	}
	return path
}

// ActiveLeaf returns the screen at the end of the active path, or nil when the
// path ends at an empty stack.
func ActiveLeaf(root Node) *ScreenNode {
	path := ActivePath(root)
	if len(path) == 0 {
		return nil
	}
	leaf, _ := path[len(path)-1].(*ScreenNode)
	return leaf
}

// ActiveStack returns the deepest stack on the active path, or nil.
func ActiveStack(root Node) *StackNode {
	path := ActivePath(root)
	for i := len(path) - 1; i >= 0; i-- {
		if s, ok := path[i].(*StackNode); ok {
			return s
		}
	}
	return nil
}

// CurrentDestination returns the destination of the active leaf, or nil.
func CurrentDestination(root Node) Destination {
	if leaf := ActiveLeaf(root); leaf != nil {
		return leaf.Destination()
	}
	return nil
}

// Keys returns all keys in pre-order.
func Keys(root Node) []NodeKey {
	var keys []NodeKey
	Walk(root, func(n Node, _ int) bool {
		keys = append(keys, n.Key())
		return true
	})
	return keys
}

// KeySet returns all keys as a set.
func KeySet(root Node) map[NodeKey]struct{} {
	set := make(map[NodeKey]struct{})
	Walk(root, func(n Node, _ int) bool {
		set[n.Key()] = struct{}{}
		return true
	})
	return set
}

// Count returns the number of nodes in the tree.
func Count(root Node) int {
	count := 0
	Walk(root, func(Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the tree. A nil tree has depth 0.
func Depth(root Node) int {
	deepest := 0
	Walk(root, func(_ Node, depth int) bool {
		if depth+1 > deepest {
			deepest = depth + 1
		}
		return true
	})
	return deepest
}

// Screens returns every screen in pre-order.
func Screens(root Node) []*ScreenNode {
	var out []*ScreenNode
	Walk(root, func(n Node, _ int) bool {
		if s, ok := n.(*ScreenNode); ok {
			out = append(out, s)
		}
		return true
	})
	return out
}
