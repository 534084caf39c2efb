package treeops

import (
	"github.com/vango-dev/navstate/pkg/navtree"
)

// target is where Push places a new node.
type target struct {
	stack *navtree.StackNode
	pane  *navtree.PaneNode // non-nil when the push also activates a pane
	role  navtree.PaneRole
}

// Push places dest on the stack selected by scope-aware routing and returns
// the new tree. A nil root yields a new root stack holding only dest.
func Push(root navtree.Node, dest navtree.Destination, env Env) (navtree.Node, error) {
	if dest == nil {
		return nil, ErrNilDestination
	}
	if root == nil {
		key := env.keys().NewKey()
		return navtree.NewStack(key, "", env.NewNode(dest, key)), nil
	}

	tgt, ok := resolveTarget(root, dest, env)
	if !ok {
		return nil, ErrNoStack
	}
	node := env.NewNode(dest, tgt.stack.Key())
	if err := navtree.CheckKeysAbsent(root, node); err != nil {
		return nil, err
	}

	if tgt.pane != nil {
		return navtree.Update(root, tgt.pane.Key(), func(n navtree.Node) (navtree.Node, error) {
			p := n.(*navtree.PaneNode)
			content, err := navtree.ReplaceNode(p.Content(tgt.role), tgt.stack.Key(), tgt.stack.Push(node))
			if err != nil {
				return nil, err
			}
			return p.WithContent(tgt.role, content).WithActiveRole(tgt.role), nil
		})
	}
	return navtree.ReplaceNode(root, tgt.stack.Key(), tgt.stack.Push(node))
}

// resolveTarget walks the active path from the leaf outward. The current
// candidate starts at the deepest stack; each container that contains the
// candidate either accepts dest (stop) or sends it to the nearest stack above
// the container.
func resolveTarget(root navtree.Node, dest navtree.Destination, env Env) (target, bool) {
	path := navtree.ActivePath(root)
	cand := nearestStack(path, len(path)-1)
	if cand < 0 {
		return target{}, false
	}

	for i := len(path) - 1; i >= 0; i-- {
		var scope navtree.ScopeKey
		switch c := path[i].(type) {
		case *navtree.PaneNode:
			if role, ok := env.paneRole(c, dest); ok {
				if s := navtree.ActiveStack(c.Content(role)); s != nil {
					return target{stack: s, pane: c, role: role}, true
				}
			}
			scope = c.Scope()
		case *navtree.TabNode:
			scope = c.Scope()
		default:
			continue
		}
		if cand < i {
			// The candidate already lies outside this container.
			continue
		}
		if env.accepts(scope, dest) {
			break
		}
		up := nearestStack(path, i-1)
		if up < 0 {
			// Root container: nothing to escape to.
			break
		}
		cand = up
	}
	return target{stack: path[cand].(*navtree.StackNode)}, true
}

func nearestStack(path []navtree.Node, from int) int {
	for i := from; i >= 0; i-- {
		if _, ok := path[i].(*navtree.StackNode); ok {
			return i
		}
	}
	return -1
}
