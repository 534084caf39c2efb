package navtree

import "fmt"

// Update finds the node with key, replaces it with the result of fn and
// rebuilds the path from the root to that node. Subtrees off the path are
// shared with root. The replacement inherits the original node's parent key.
//
// If fn returns the node it was given, root is returned unchanged.
func Update(root Node, key NodeKey, fn func(Node) (Node, error)) (Node, error) {
	if root == nil {
		return nil, notFound(key)
	}
	out, found, err := update(root, key, fn)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(key)
	}
	return out, nil
}

func update(n Node, key NodeKey, fn func(Node) (Node, error)) (Node, bool, error) {
	if n.Key() == key {
		r, err := fn(n)
		if err != nil {
			return nil, true, err
		}
		if r == nil {
			return nil, true, structural("replace", key, ErrWrongNodeType)
		}
		return r.withParent(n.ParentKey()), true, nil
	}

	switch n := n.(type) {
	case *ScreenNode:
		return n, false, nil

	case *StackNode:
		for i, c := range n.children {
			r, found, err := update(c, key, fn)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			if r == c {
				return n, true, nil
			}
			return n.withChildAt(i, r), true, nil
		}

	case *TabNode:
		for i, lane := range n.lanes {
			r, found, err := update(lane, key, fn)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			stack, ok := r.(*StackNode)
			if !ok {
				return nil, true, structural("replace", key, ErrWrongNodeType)
			}
			if stack == lane {
				return n, true, nil
			}
			return n.WithLane(i, stack), true, nil
		}

	case *PaneNode:
		for _, role := range paneRoles {
			cfg, ok := n.panes[role]
			if !ok {
				continue
			}
			r, found, err := update(cfg.Content, key, fn)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			if r == cfg.Content {
				return n, true, nil
			}
			return n.WithContent(role, r), true, nil
		}

	default:
		unknownNode(n)
	}
	return n, false, nil
}

// ReplaceNode replaces the node with target by newNode in a single depth-first
// walk. Only the path from the root to target is rebuilt; all other subtrees
// are shared by reference with root. newNode takes over target's parent key.
//
// Replacing a tab lane with anything other than a *StackNode is a structural
// violation. So is a newNode carrying a key that is used outside target's
// subtree; that error wraps ErrDuplicateKey.
func ReplaceNode(root Node, target NodeKey, newNode Node) (Node, error) {
	return Update(root, target, func(old Node) (Node, error) {
		if newNode == nil {
			return nil, nil
		}
		outside := KeySet(root)
		for _, k := range Keys(old) {
			delete(outside, k)
		}
		for _, k := range Keys(newNode) {
			if _, dup := outside[k]; dup {
				return nil, structural("replace", k, ErrDuplicateKey)
			}
		}
		return newNode, nil
	})
}

// RemoveNode removes the node with target from its parent stack.
//
// Removing the root returns a nil tree and a nil error: nothing is left to
// show, and the caller decides what that means. Removing a tab lane or pane
// content directly is a structural violation wrapping ErrDisallowedRemoval;
// use tab or pane operations instead.
func RemoveNode(root Node, target NodeKey) (Node, error) {
	if root == nil {
		return nil, notFound(target)
	}
	if root.Key() == target {
		return nil, nil
	}
	out, found, err := remove(root, target)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(target)
	}
	return out, nil
}

func remove(n Node, key NodeKey) (Node, bool, error) {
	switch n := n.(type) {
	case *ScreenNode:
		return n, false, nil

	case *StackNode:
		for i, c := range n.children {
			if c.Key() == key {
				return n.withoutChildAt(i), true, nil
			}
			r, found, err := remove(c, key)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			return n.withChildAt(i, r), true, nil
		}

	case *TabNode:
		for i, lane := range n.lanes {
			if lane.key == key {
				return nil, true, structural("remove", key, ErrDisallowedRemoval)
			}
			r, found, err := remove(lane, key)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			return n.WithLane(i, r.(*StackNode)), true, nil
		}

	case *PaneNode:
		for _, role := range paneRoles {
			cfg, ok := n.panes[role]
			if !ok {
				continue
			}
			if cfg.Content.Key() == key {
				return nil, true, structural("remove", key, ErrDisallowedRemoval)
			}
			r, found, err := remove(cfg.Content, key)
			if !found {
				continue
			}
			if err != nil {
				return nil, true, err
			}
			return n.WithContent(role, r), true, nil
		}

	default:
		unknownNode(n)
	}
	return n, false, nil
}

func notFound(key NodeKey) error {
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}
