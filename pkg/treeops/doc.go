// Package treeops implements the navigation algorithms over navtree trees.
//
// Every function is pure: it takes a tree and returns a new tree (or a
// BackResult) without touching its input and without shared mutable state, so
// it is safe to call from any goroutine.
//
// # Routing
//
// Push decides where a destination lands by walking the active path from the
// active leaf towards the root and asking the ScopeResolver about each tab or
// pane container it meets:
//
//   - a pane container with a pane-role registration for the destination
//     receives it in that pane, which also becomes the active pane
//   - a container without a scope, or whose scope contains the destination,
//     receives it in its active stack
//   - otherwise the destination escapes to the nearest stack above that
//     container and the walk continues outward
//
// The innermost container always wins.
//
// # Back
//
// Pop removes the active leaf. When that empties a stack the removal cascades:
// emptied stacks are removed from their parents, a tab container first falls
// back to its first lane and a pane container to its primary pane, and a
// cascade that would remove the root yields DelegateToSystem so the host can
// handle back itself (usually by leaving the app).
//
//	res := treeops.Pop(tree, treeops.RemoveEmptyStacks)
//	switch res.Outcome {
//	case treeops.Handled:
//	    tree = res.Tree
//	case treeops.DelegateToSystem:
//	    exit()
//	}
package treeops
