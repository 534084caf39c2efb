// Package navtree defines the immutable navigation tree.
//
// A navigation tree is built from four node variants:
//
//	ScreenNode  a leaf holding a Destination
//	StackNode   a linear back stack; the last child is active
//	TabNode     parallel lanes (one StackNode each) plus an active index
//	PaneNode    an adaptive layout mapping PaneRole to content plus an active role
//
// Node is a closed sum type. The only implementations are the four pointer
// types above, and every traversal in this module is a type switch over them.
//
// # Immutability
//
// Nodes are values. Every operation that changes a tree returns a new root and
// leaves the input untouched, so a previous tree can still be rendered (for
// example while an exit animation runs). Only the path from the root to the
// changed node is rebuilt; every other subtree is shared by reference:
//
//	next, err := navtree.ReplaceNode(root, "detail", replacement)
//	// Every subtree not on the root -> "detail" path is pointer-identical
//	// between root and next.
//
// # Keys
//
// Every node carries a NodeKey that is unique across the whole tree and the
// key of its parent. The root's parent key is empty. Keys name a position
// instance, not a destination type: pushing the same destination twice yields
// two nodes with two keys.
//
// # Errors
//
// Structural violations (duplicate keys, an out-of-range tab index, a pane
// layout without a primary pane, removing a tab lane directly) are programmer
// errors. Constructors panic with a *StructuralError; tree operations return
// one. Operating on a key that is not in the tree returns ErrNotFound, which
// callers may treat as recoverable:
//
//	if errors.Is(err, navtree.ErrNotFound) {
//	    // stale key; ignore
//	}
//	if errors.Is(err, navtree.ErrStructural) {
//	    // bug in the caller
//	}
//
// # Snapshots
//
// MarshalSnapshot and UnmarshalSnapshot convert a tree to and from a tagged
// JSON form. Restore wraps UnmarshalSnapshot and returns nil for anything that
// cannot be restored, so a corrupt or outdated snapshot degrades to "no saved
// state" instead of a crash.
package navtree
