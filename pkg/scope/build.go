package scope

import (
	"github.com/vango-dev/navstate/pkg/navtree"
)

// BuildContainer builds the container registered for dest's route. Lane and
// pane roots get their own stacks; every node gets a fresh key from keys.
func (r *Registry) BuildContainer(dest navtree.Destination, parent navtree.NodeKey, keys navtree.KeyGenerator) (navtree.Node, bool) {
	if dest == nil {
		return nil, false
	}
	if def, ok := r.Tabs(dest.Route()); ok {
		return BuildTabs(def, parent, keys), true
	}
	if def, ok := r.Panes(dest.Route()); ok {
		return BuildPanes(def, parent, keys), true
	}
	return nil, false
}

// BuildTabs instantiates def under parent.
func BuildTabs(def TabsDefinition, parent navtree.NodeKey, keys navtree.KeyGenerator) *navtree.TabNode {
	key := keys.NewKey()
	lanes := make([]*navtree.StackNode, len(def.Lanes))
	for i, d := range def.Lanes {
		lanes[i] = rootedStack(d, key, keys)
	}
	return navtree.NewTabs(key, parent, def.InitialIndex, lanes...).WithScope(def.Scope)
}

// BuildPanes instantiates def under parent.
func BuildPanes(def PanesDefinition, parent navtree.NodeKey, keys navtree.KeyGenerator) *navtree.PaneNode {
	key := keys.NewKey()
	panes := make(map[navtree.PaneRole]navtree.PaneConfig, len(def.Panes))
	for _, role := range []navtree.PaneRole{navtree.RolePrimary, navtree.RoleSupporting, navtree.RoleExtra} {
		p, ok := def.Panes[role]
		if !ok {
			continue
		}
		panes[role] = navtree.PaneConfig{Content: rootedStack(p.Root, key, keys), Adapt: p.Adapt}
	}
	return navtree.NewPanes(key, parent, def.ActiveRole, panes).
		WithScope(def.Scope).
		WithBackBehavior(def.BackBehavior)
}

func rootedStack(root navtree.Destination, parent navtree.NodeKey, keys navtree.KeyGenerator) *navtree.StackNode {
	key := keys.NewKey()
	if root == nil {
		return navtree.NewStack(key, parent)
	}
	return navtree.NewStack(key, parent, navtree.NewScreen(keys.NewKey(), key, root))
}
