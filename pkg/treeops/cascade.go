package treeops

import (
	"github.com/vango-dev/navstate/pkg/navtree"
)

// CascadeState describes what a back operation would do, computed without
// committing it. Gesture previews render Exiting on top of Revealed.
type CascadeState struct {
	// Source is the tree the state was computed from.
	Source navtree.Node
	// Result is what Pop(Source) returns.
	Result BackResult
	// Removed lists the keys that back would remove, outermost first.
	Removed []navtree.NodeKey
	// Exiting is the root of the removed subtree, or the leaf that stops
	// being active when back only switches a tab or pane.
	Exiting navtree.Node
	// Revealed is the active leaf after back.
	Revealed *navtree.ScreenNode
}

// Delegates reports whether back would be handed to the host.
func (c *CascadeState) Delegates() bool { return c.Result.Outcome == DelegateToSystem }

// Cascades reports whether back removes more than the active leaf.
func (c *CascadeState) Cascades() bool { return len(c.Removed) > 1 }

// ComputeCascade previews Pop(root, behavior).
func ComputeCascade(root navtree.Node, behavior BackBehavior) *CascadeState {
	cs := &CascadeState{Source: root, Result: Pop(root, behavior)}
	if cs.Result.Outcome != Handled {
		return cs
	}
	kept := navtree.KeySet(cs.Result.Tree)
	navtree.Walk(root, func(n navtree.Node, _ int) bool {
		if _, ok := kept[n.Key()]; !ok {
			if cs.Exiting == nil {
				cs.Exiting = n
			}
			cs.Removed = append(cs.Removed, n.Key())
		}
		return true
	})
	if cs.Exiting == nil {
		if leaf := navtree.ActiveLeaf(root); leaf != nil {
			cs.Exiting = leaf
		}
	}
	cs.Revealed = navtree.ActiveLeaf(cs.Result.Tree)
	return cs
}
