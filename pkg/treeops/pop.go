package treeops

import (
	"errors"
	"fmt"

	"github.com/vango-dev/navstate/pkg/navtree"
)

// Outcome classifies the result of a back operation.
type Outcome int

const (
	// Handled means the tree changed and BackResult.Tree holds the new tree.
	Handled Outcome = iota
	// DelegateToSystem means back would remove the root; the host decides.
	DelegateToSystem
	// CannotHandle means there is nothing to go back from.
	CannotHandle
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case DelegateToSystem:
		return "delegate"
	case CannotHandle:
		return "cannot-handle"
	default:
		return "unknown"
	}
}

// BackBehavior selects what happens to a nested stack that a pop empties.
type BackBehavior int

const (
	// RemoveEmptyStacks cascades: an emptied stack is removed from its parent.
	RemoveEmptyStacks BackBehavior = iota
	// PreserveStacks leaves an emptied nested stack in place. The next back
	// from it cascades as usual.
	PreserveStacks
)

func (b BackBehavior) String() string {
	if b == PreserveStacks {
		return "preserve-stacks"
	}
	return "remove-empty-stacks"
}

// ParseBackBehavior parses the String form of a BackBehavior.
func ParseBackBehavior(s string) (BackBehavior, bool) {
	switch s {
	case "remove-empty-stacks", "":
		return RemoveEmptyStacks, true
	case "preserve-stacks":
		return PreserveStacks, true
	}
	return RemoveEmptyStacks, false
}

// BackResult is the result of Pop. Tree is set only when Outcome is Handled.
type BackResult struct {
	Outcome Outcome
	Tree    navtree.Node
}

// Pop removes the active leaf and returns the resulting tree.
func Pop(root navtree.Node, behavior BackBehavior) BackResult {
	if root == nil {
		return BackResult{Outcome: CannotHandle}
	}
	path := navtree.ActivePath(root)
	return collapse(root, path, len(path)-1, behavior)
}

// collapse removes path[i] from its parent, cascading upward when the parent
// would be left empty.
func collapse(root navtree.Node, path []navtree.Node, i int, behavior BackBehavior) BackResult {
	if i == 0 {
		return BackResult{Outcome: DelegateToSystem}
	}
	switch p := path[i-1].(type) {
	case *navtree.StackNode:
		if p.Len() > 1 || (behavior == PreserveStacks && i-1 > 0) {
			return replaced(root, p.Key(), p.Pop())
		}
		return collapse(root, path, i-1, behavior)
	case *navtree.TabNode:
		if p.ActiveIndex() != 0 {
			return replaced(root, p.Key(), p.WithActiveIndex(0))
		}
		return collapse(root, path, i-1, behavior)
	case *navtree.PaneNode:
		if p.BackBehavior() == navtree.BackPopUntilScaffoldValueChange && p.ActiveRole() != navtree.RolePrimary {
			return replaced(root, p.Key(), p.WithActiveRole(navtree.RolePrimary))
		}
		return collapse(root, path, i-1, behavior)
	default:
		return BackResult{Outcome: CannotHandle}
	}
}

func replaced(root navtree.Node, key navtree.NodeKey, n navtree.Node) BackResult {
	out, err := navtree.ReplaceNode(root, key, n)
	if err != nil {
		return BackResult{Outcome: CannotHandle}
	}
	return BackResult{Outcome: Handled, Tree: out}
}

// CanPop reports whether Pop would handle back without delegating.
func CanPop(root navtree.Node, behavior BackBehavior) bool {
	return Pop(root, behavior).Outcome == Handled
}

// PopTo pops until the active leaf satisfies match, then also pops the match
// when inclusive is set. If no screen on the way matches, the input is
// returned with an error wrapping navtree.ErrNotFound. If the match is the
// last screen left, the input is returned with ErrNothingLeft, which also
// wraps navtree.ErrNotFound.
func PopTo(root navtree.Node, match func(*navtree.ScreenNode) bool, inclusive bool, behavior BackBehavior) (navtree.Node, error) {
	cur := root
	for cur != nil {
		if leaf := navtree.ActiveLeaf(cur); leaf != nil && match(leaf) {
			if !inclusive {
				return cur, nil
			}
			res := Pop(cur, behavior)
			if res.Outcome != Handled {
				return root, ErrNothingLeft
			}
			return res.Tree, nil
		}
		res := Pop(cur, behavior)
		if res.Outcome != Handled {
			break
		}
		cur = res.Tree
	}
	return root, fmt.Errorf("pop to: %w", navtree.ErrNotFound)
}

// PopToRoute pops to the nearest screen whose destination has the route.
func PopToRoute(root navtree.Node, route string, inclusive bool, behavior BackBehavior) (navtree.Node, error) {
	out, err := PopTo(root, func(s *navtree.ScreenNode) bool {
		return s.Destination() != nil && s.Destination().Route() == route
	}, inclusive, behavior)
	if errors.Is(err, navtree.ErrNotFound) {
		return root, fmt.Errorf("pop to route %q: %w", route, err)
	}
	return out, err
}

// PopToKey pops to the screen with key.
func PopToKey(root navtree.Node, key navtree.NodeKey, inclusive bool, behavior BackBehavior) (navtree.Node, error) {
	out, err := PopTo(root, func(s *navtree.ScreenNode) bool { return s.Key() == key }, inclusive, behavior)
	if errors.Is(err, navtree.ErrNotFound) {
		return root, fmt.Errorf("pop to key %q: %w", key, err)
	}
	return out, err
}
