package treeops

import (
	"github.com/vango-dev/navstate/pkg/navtree"
)

// ReplaceCurrent swaps the active screen for dest in place, keeping the rest
// of its stack.
func ReplaceCurrent(root navtree.Node, dest navtree.Destination, env Env) (navtree.Node, error) {
	if dest == nil {
		return nil, ErrNilDestination
	}
	leaf := navtree.ActiveLeaf(root)
	if leaf == nil {
		return nil, ErrNoActiveScreen
	}
	node := env.NewNode(dest, leaf.ParentKey())
	if err := navtree.CheckKeysAbsent(root, node); err != nil {
		return nil, err
	}
	return navtree.ReplaceNode(root, leaf.Key(), node)
}

// ClearAndPush empties the deepest active stack and pushes dest onto it.
// A nil root behaves like Push.
func ClearAndPush(root navtree.Node, dest navtree.Destination, env Env) (navtree.Node, error) {
	if dest == nil {
		return nil, ErrNilDestination
	}
	if root == nil {
		return Push(nil, dest, env)
	}
	stack := navtree.ActiveStack(root)
	if stack == nil {
		return nil, ErrNoStack
	}
	node := env.NewNode(dest, stack.Key())
	out, err := navtree.ReplaceNode(root, stack.Key(), stack.WithChildren())
	if err != nil {
		return nil, err
	}
	if err := navtree.CheckKeysAbsent(out, node); err != nil {
		return nil, err
	}
	return navtree.ReplaceNode(out, stack.Key(), stack.WithChildren(node))
}
