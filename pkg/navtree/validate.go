package navtree

import "reflect"

// Validate checks the structural invariants of a whole tree:
//
//   - the root has no parent key and every other node's parent key names its
//     actual parent
//   - keys are non-empty and unique
//   - every tab node has lanes and a valid active index
//   - every pane node configures the primary role and its active role
//
// The first violation is returned as a *StructuralError.
func Validate(root Node) error {
	if root == nil {
		return nil
	}
	if root.ParentKey() != "" {
		return structural("validate", root.Key(), ErrParentMismatch)
	}
	seen := make(map[NodeKey]struct{})
	return validate(root, root.ParentKey(), seen)
}

func validate(n Node, parent NodeKey, seen map[NodeKey]struct{}) error {
	key := n.Key()
	if key == "" {
		return structural("validate", parent, ErrEmptyKey)
	}
	if _, dup := seen[key]; dup {
		return structural("validate", key, ErrDuplicateKey)
	}
	seen[key] = struct{}{}
	if n.ParentKey() != parent {
		return structural("validate", key, ErrParentMismatch)
	}

	switch n := n.(type) {
	case *ScreenNode:
		return nil
	case *StackNode:
	case *TabNode:
		if len(n.lanes) == 0 {
			return structural("validate", key, ErrNoLanes)
		}
		if n.activeIndex < 0 || n.activeIndex >= len(n.lanes) {
			return structural("validate", key, ErrIndexOutOfRange)
		}
	case *PaneNode:
		if _, ok := n.panes[RolePrimary]; !ok {
			return structural("validate", key, ErrMissingPrimaryPane)
		}
		if _, ok := n.panes[n.activeRole]; !ok {
			return structural("validate", key, ErrInvalidPaneRole)
		}
		for role, cfg := range n.panes {
			if !validRole(role) || cfg.Content == nil {
				return structural("validate", key, ErrInvalidPaneRole)
			}
		}
	default:
		unknownNode(n)
	}

	for _, c := range children(n) {
		if err := validate(c, key, seen); err != nil {
			return err
		}
	}
	return nil
}

// CheckKeysAbsent returns a *StructuralError wrapping ErrDuplicateKey if any
// key of sub already exists in root.
func CheckKeysAbsent(root, sub Node) error {
	if root == nil || sub == nil {
		return nil
	}
	existing := KeySet(root)
	var err error
	Walk(sub, func(n Node, _ int) bool {
		if _, dup := existing[n.Key()]; dup {
			err = structural("insert", n.Key(), ErrDuplicateKey)
			return false
		}
		return true
	})
	return err
}

// Equal reports whether a and b are equal by persistent fields: keys, parent
// keys, scopes, structure, active selections, pane settings and destinations.
// Transient runtime state is never part of a node, so it is never compared.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Key() != b.Key() || a.ParentKey() != b.ParentKey() || a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case *ScreenNode:
		return reflect.DeepEqual(a.destination, b.(*ScreenNode).destination)

	case *StackNode:
		bs := b.(*StackNode)
		if a.scope != bs.scope || len(a.children) != len(bs.children) {
			return false
		}
		for i := range a.children {
			if !Equal(a.children[i], bs.children[i]) {
				return false
			}
		}
		return true

	case *TabNode:
		bt := b.(*TabNode)
		if a.scope != bt.scope || a.activeIndex != bt.activeIndex || len(a.lanes) != len(bt.lanes) {
			return false
		}
		for i := range a.lanes {
			if !Equal(a.lanes[i], bt.lanes[i]) {
				return false
			}
		}
		return true

	case *PaneNode:
		bp := b.(*PaneNode)
		if a.scope != bp.scope || a.activeRole != bp.activeRole ||
			a.backBehavior != bp.backBehavior || len(a.panes) != len(bp.panes) {
			return false
		}
		for role, cfg := range a.panes {
			other, ok := bp.panes[role]
			if !ok || cfg.Adapt != other.Adapt || !Equal(cfg.Content, other.Content) {
				return false
			}
		}
		return true

	default:
		unknownNode(a)
		return false
	}
}
