package navtree

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders the tree as an indented outline, one node per line. Nodes on
// the active path are marked with "*".
//
//	*stack root
//	   screen s1 home
//	  *screen s2 detail id=42
func Format(root Node) string {
	if root == nil {
		return "<empty>\n"
	}
	active := make(map[NodeKey]bool)
	for _, n := range ActivePath(root) {
		active[n.Key()] = true
	}

	var b strings.Builder
	Walk(root, func(n Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		if active[n.Key()] {
			b.WriteByte('*')
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(Label(n))
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// Label returns a one-line description of n without its children.
func Label(n Node) string {
	switch n := n.(type) {
	case *ScreenNode:
		return fmt.Sprintf("screen %s %s", n.key, DescribeDestination(n.destination))
	case *StackNode:
		return withScope(fmt.Sprintf("stack %s", n.key), n.scope)
	case *TabNode:
		return withScope(fmt.Sprintf("tabs %s active=%d", n.key, n.activeIndex), n.scope)
	case *PaneNode:
		return withScope(fmt.Sprintf("panes %s active=%s", n.key, n.activeRole), n.scope)
	default:
		unknownNode(n)
		return ""
	}
}

// DescribeDestination returns the route of d followed by its parameters in
// key order, when d exposes them.
func DescribeDestination(d Destination) string {
	if d == nil {
		return "<nil>"
	}
	p, ok := d.(interface{ URIParams() map[string]string })
	if !ok || len(p.URIParams()) == 0 {
		return d.Route()
	}
	params := p.URIParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{d.Route()}
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}

func withScope(s string, scope ScopeKey) string {
	if scope == "" {
		return s
	}
	return s + " scope=" + string(scope)
}
