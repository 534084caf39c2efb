package treeops

import (
	"github.com/vango-dev/navstate/pkg/navtree"
)

// SwitchTab makes lane index active in the tab node tabKey. Lane contents are
// untouched; switching to the already active lane returns root itself.
func SwitchTab(root navtree.Node, tabKey navtree.NodeKey, index int) (navtree.Node, error) {
	return navtree.Update(root, tabKey, func(n navtree.Node) (navtree.Node, error) {
		tab, ok := n.(*navtree.TabNode)
		if !ok {
			return nil, &navtree.StructuralError{Op: "switch tab", Key: tabKey, Err: navtree.ErrWrongNodeType}
		}
		if index < 0 || index >= tab.LaneCount() {
			return nil, &navtree.StructuralError{Op: "switch tab", Key: tabKey, Err: navtree.ErrIndexOutOfRange}
		}
		if index == tab.ActiveIndex() {
			return tab, nil
		}
		return tab.WithActiveIndex(index), nil
	})
}

// SwitchActiveTab switches the innermost tab node on the active path.
func SwitchActiveTab(root navtree.Node, index int) (navtree.Node, error) {
	tab := innermost[*navtree.TabNode](root)
	if tab == nil {
		return root, &navtree.StructuralError{Op: "switch tab", Err: navtree.ErrWrongNodeType}
	}
	return SwitchTab(root, tab.Key(), index)
}

// ActiveTabs returns the innermost tab node on the active path, or nil.
func ActiveTabs(root navtree.Node) *navtree.TabNode {
	return innermost[*navtree.TabNode](root)
}

// ActivePanes returns the innermost pane node on the active path, or nil.
func ActivePanes(root navtree.Node) *navtree.PaneNode {
	return innermost[*navtree.PaneNode](root)
}

func innermost[T navtree.Node](root navtree.Node) T {
	path := navtree.ActivePath(root)
	for i := len(path) - 1; i >= 0; i-- {
		if n, ok := path[i].(T); ok {
			return n
		}
	}
	var zero T
	return zero
}

// SwitchPane makes role the active pane of the pane node paneKey.
func SwitchPane(root navtree.Node, paneKey navtree.NodeKey, role navtree.PaneRole) (navtree.Node, error) {
	return navtree.Update(root, paneKey, func(n navtree.Node) (navtree.Node, error) {
		p, err := paneFor(n, paneKey, role)
		if err != nil {
			return nil, err
		}
		if p.ActiveRole() == role {
			return p, nil
		}
		return p.WithActiveRole(role), nil
	})
}

// NavigateToPane pushes dest onto the active stack of the role pane and
// makes that pane active.
func NavigateToPane(root navtree.Node, paneKey navtree.NodeKey, role navtree.PaneRole, dest navtree.Destination, env Env) (navtree.Node, error) {
	if dest == nil {
		return nil, ErrNilDestination
	}
	return navtree.Update(root, paneKey, func(n navtree.Node) (navtree.Node, error) {
		p, err := paneFor(n, paneKey, role)
		if err != nil {
			return nil, err
		}
		content := p.Content(role)
		stack := navtree.ActiveStack(content)
		if stack == nil {
			return nil, &navtree.StructuralError{Op: "navigate to pane", Key: content.Key(), Err: navtree.ErrWrongNodeType}
		}
		node := env.NewNode(dest, stack.Key())
		if err := navtree.CheckKeysAbsent(root, node); err != nil {
			return nil, err
		}
		content, err = navtree.ReplaceNode(content, stack.Key(), stack.Push(node))
		if err != nil {
			return nil, err
		}
		return p.WithContent(role, content).WithActiveRole(role), nil
	})
}

func paneFor(n navtree.Node, key navtree.NodeKey, role navtree.PaneRole) (*navtree.PaneNode, error) {
	p, ok := n.(*navtree.PaneNode)
	if !ok {
		return nil, &navtree.StructuralError{Op: "switch pane", Key: key, Err: navtree.ErrWrongNodeType}
	}
	if _, ok := p.Pane(role); !ok {
		return nil, &navtree.StructuralError{Op: "switch pane", Key: key, Err: navtree.ErrInvalidPaneRole}
	}
	return p, nil
}
