package navtree

import (
	"fmt"
	"slices"
)

// NodeKey identifies a node instance. Keys are unique across a tree.
type NodeKey string

// ScopeKey names the logical membership boundary of a container.
type ScopeKey string

// Destination is the payload of a screen. Applications define their own
// destination types; Route names the destination kind and is used for scope
// membership, deep links and snapshots.
type Destination interface {
	Route() string
}

// Route is a generic Destination made of a route name and string parameters.
// It is produced for deep links without a typed factory and when a snapshot
// contains a destination whose route has no registered decoder.
type Route struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// Route implements Destination.
func (r Route) Route() string { return r.Name }

// URIParams returns the parameters used to rebuild a deep link.
func (r Route) URIParams() map[string]string { return r.Params }

// Kind identifies a node variant.
type Kind int

const (
	KindScreen Kind = iota
	KindStack
	KindTabs
	KindPanes
)

// String returns the variant name used in snapshots.
func (k Kind) String() string {
	switch k {
	case KindScreen:
		return "screen"
	case KindStack:
		return "stack"
	case KindTabs:
		return "tabs"
	case KindPanes:
		return "panes"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a node in the navigation tree.
//
// Node is sealed: it is implemented only by *ScreenNode, *StackNode,
// *TabNode and *PaneNode.
type Node interface {
	// Key returns the node's unique key.
	Key() NodeKey

	// ParentKey returns the key of the node's parent, or "" for the root.
	ParentKey() NodeKey

	// Kind returns the node variant.
	Kind() Kind

	withParent(parent NodeKey) Node
	sealed()
}

// =============================================================================
// ScreenNode
// =============================================================================

// ScreenNode is a leaf holding a concrete destination.
type ScreenNode struct {
	key         NodeKey
	parentKey   NodeKey
	destination Destination
}

// NewScreen creates a screen node.
func NewScreen(key, parent NodeKey, dest Destination) *ScreenNode {
	return &ScreenNode{key: key, parentKey: parent, destination: dest}
}

func (s *ScreenNode) Key() NodeKey       { return s.key }
func (s *ScreenNode) ParentKey() NodeKey { return s.parentKey }
func (s *ScreenNode) Kind() Kind         { return KindScreen }
func (s *ScreenNode) sealed()            {}

// Destination returns the screen's destination.
func (s *ScreenNode) Destination() Destination { return s.destination }

func (s *ScreenNode) withParent(parent NodeKey) Node {
	if s.parentKey == parent {
		return s
	}
	c := *s
	c.parentKey = parent
	return &c
}

// =============================================================================
// StackNode
// =============================================================================

// StackNode is a linear back stack. Children are ordered oldest to newest and
// the last child is the active one. A stack may be empty.
type StackNode struct {
	key       NodeKey
	parentKey NodeKey
	scope     ScopeKey
	children  []Node
}

// NewStack creates a stack node. Children are re-parented to the stack.
func NewStack(key, parent NodeKey, children ...Node) *StackNode {
	return &StackNode{key: key, parentKey: parent, children: adopt(key, children)}
}

func (s *StackNode) Key() NodeKey       { return s.key }
func (s *StackNode) ParentKey() NodeKey { return s.parentKey }
func (s *StackNode) Kind() Kind         { return KindStack }
func (s *StackNode) sealed()            {}

// Scope returns the stack's scope key.
func (s *StackNode) Scope() ScopeKey { return s.scope }

// Len returns the number of children.
func (s *StackNode) Len() int { return len(s.children) }

// Empty reports whether the stack has no children.
func (s *StackNode) Empty() bool { return len(s.children) == 0 }

// At returns the i-th child, oldest first.
func (s *StackNode) At(i int) Node { return s.children[i] }

// Top returns the active (last) child, or nil if the stack is empty.
func (s *StackNode) Top() Node {
	if len(s.children) == 0 {
		return nil
	}
	return s.children[len(s.children)-1]
}

// Children returns a copy of the children slice.
func (s *StackNode) Children() []Node { return slices.Clone(s.children) }

// WithScope returns a copy of the stack with the given scope.
func (s *StackNode) WithScope(scope ScopeKey) *StackNode {
	c := *s
	c.scope = scope
	return &c
}

// WithChildren returns a copy of the stack holding children.
func (s *StackNode) WithChildren(children ...Node) *StackNode {
	c := *s
	c.children = adopt(s.key, children)
	return &c
}

// Push returns a copy of the stack with n appended.
func (s *StackNode) Push(n Node) *StackNode {
	c := *s
	c.children = make([]Node, len(s.children), len(s.children)+1)
	copy(c.children, s.children)
	c.children = append(c.children, n.withParent(s.key))
	return &c
}

// Pop returns a copy of the stack without its last child.
// Popping an empty stack returns the stack unchanged.
func (s *StackNode) Pop() *StackNode {
	if len(s.children) == 0 {
		return s
	}
	c := *s
	c.children = s.children[:len(s.children)-1:len(s.children)-1]
	return &c
}

func (s *StackNode) withParent(parent NodeKey) Node {
	if s.parentKey == parent {
		return s
	}
	c := *s
	c.parentKey = parent
	return &c
}

func (s *StackNode) withChildAt(i int, n Node) *StackNode {
	c := *s
	c.children = slices.Clone(s.children)
	c.children[i] = n.withParent(s.key)
	return &c
}

func (s *StackNode) withoutChildAt(i int) *StackNode {
	c := *s
	c.children = slices.Delete(slices.Clone(s.children), i, i+1)
	return &c
}

// =============================================================================
// TabNode
// =============================================================================

// TabNode holds parallel lanes, each with its own history. Switching tabs only
// changes the active index; lanes keep their stacks.
type TabNode struct {
	key         NodeKey
	parentKey   NodeKey
	scope       ScopeKey
	lanes       []*StackNode
	activeIndex int
}

// NewTabs creates a tab node. It panics with a *StructuralError when lanes is
// empty or activeIndex is out of range.
func NewTabs(key, parent NodeKey, activeIndex int, lanes ...*StackNode) *TabNode {
	if len(lanes) == 0 {
		panic(structural("new tabs", key, ErrNoLanes))
	}
	if activeIndex < 0 || activeIndex >= len(lanes) {
		panic(structural("new tabs", key, ErrIndexOutOfRange))
	}
	adopted := make([]*StackNode, len(lanes))
	for i, lane := range lanes {
		adopted[i] = lane.withParent(key).(*StackNode)
	}
	return &TabNode{key: key, parentKey: parent, lanes: adopted, activeIndex: activeIndex}
}

func (t *TabNode) Key() NodeKey       { return t.key }
func (t *TabNode) ParentKey() NodeKey { return t.parentKey }
func (t *TabNode) Kind() Kind         { return KindTabs }
func (t *TabNode) sealed()            {}

// Scope returns the tab container's scope key.
func (t *TabNode) Scope() ScopeKey { return t.scope }

// ActiveIndex returns the index of the active lane.
func (t *TabNode) ActiveIndex() int { return t.activeIndex }

// LaneCount returns the number of lanes.
func (t *TabNode) LaneCount() int { return len(t.lanes) }

// Lane returns the i-th lane.
func (t *TabNode) Lane(i int) *StackNode { return t.lanes[i] }

// ActiveLane returns the active lane.
func (t *TabNode) ActiveLane() *StackNode { return t.lanes[t.activeIndex] }

// Lanes returns a copy of the lanes slice.
func (t *TabNode) Lanes() []*StackNode { return slices.Clone(t.lanes) }

// WithScope returns a copy of the tab node with the given scope.
func (t *TabNode) WithScope(scope ScopeKey) *TabNode {
	c := *t
	c.scope = scope
	return &c
}

// WithActiveIndex returns a copy with a different active lane. It panics with
// a *StructuralError when i is out of range. Lanes are shared.
func (t *TabNode) WithActiveIndex(i int) *TabNode {
	if i < 0 || i >= len(t.lanes) {
		panic(structural("switch tab", t.key, ErrIndexOutOfRange))
	}
	c := *t
	c.activeIndex = i
	return &c
}

// WithLane returns a copy with lane i replaced.
func (t *TabNode) WithLane(i int, lane *StackNode) *TabNode {
	c := *t
	c.lanes = slices.Clone(t.lanes)
	c.lanes[i] = lane.withParent(t.key).(*StackNode)
	return &c
}

func (t *TabNode) withParent(parent NodeKey) Node {
	if t.parentKey == parent {
		return t
	}
	c := *t
	c.parentKey = parent
	return &c
}

// =============================================================================
// PaneNode
// =============================================================================

// PaneRole identifies a pane in an adaptive layout.
type PaneRole int

const (
	RolePrimary PaneRole = iota
	RoleSupporting
	RoleExtra
)

// paneRoles is the fixed iteration order for panes.
var paneRoles = [...]PaneRole{RolePrimary, RoleSupporting, RoleExtra}

// String returns the lower-case role name.
func (r PaneRole) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSupporting:
		return "supporting"
	case RoleExtra:
		return "extra"
	default:
		return fmt.Sprintf("PaneRole(%d)", int(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r PaneRole) Valid() bool { return validRole(r) }

// ParsePaneRole parses a role name as produced by String.
func ParsePaneRole(s string) (PaneRole, error) {
	for _, r := range paneRoles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPaneRole, s)
}

// AdaptStrategy tells a renderer how a pane adapts when space is limited.
type AdaptStrategy int

const (
	AdaptHide AdaptStrategy = iota
	AdaptLevitate
	AdaptReflow
)

// String returns the lower-case strategy name.
func (a AdaptStrategy) String() string {
	switch a {
	case AdaptHide:
		return "hide"
	case AdaptLevitate:
		return "levitate"
	case AdaptReflow:
		return "reflow"
	default:
		return fmt.Sprintf("AdaptStrategy(%d)", int(a))
	}
}

// ParseAdaptStrategy parses a strategy name as produced by String.
func ParseAdaptStrategy(s string) (AdaptStrategy, error) {
	for _, a := range []AdaptStrategy{AdaptHide, AdaptLevitate, AdaptReflow} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("navtree: unknown adapt strategy %q", s)
}

// PaneBackBehavior controls what back does inside a pane layout when the
// active pane is at its root.
type PaneBackBehavior int

const (
	// BackPopUntilScaffoldValueChange returns to the primary pane before the
	// layout itself is popped.
	BackPopUntilScaffoldValueChange PaneBackBehavior = iota

	// BackPopLatest pops the layout as soon as the active pane is at its root.
	BackPopLatest
)

// String returns the behavior name used in snapshots.
func (b PaneBackBehavior) String() string {
	switch b {
	case BackPopUntilScaffoldValueChange:
		return "pop-until-scaffold-value-change"
	case BackPopLatest:
		return "pop-latest"
	default:
		return fmt.Sprintf("PaneBackBehavior(%d)", int(b))
	}
}

// ParsePaneBackBehavior parses a behavior name as produced by String.
func ParsePaneBackBehavior(s string) (PaneBackBehavior, error) {
	for _, b := range []PaneBackBehavior{BackPopUntilScaffoldValueChange, BackPopLatest} {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("navtree: unknown pane back behavior %q", s)
}

// PaneConfig is the content of one pane.
type PaneConfig struct {
	Content Node
	Adapt   AdaptStrategy
}

// PaneNode is an adaptive multi-pane layout.
type PaneNode struct {
	key          NodeKey
	parentKey    NodeKey
	scope        ScopeKey
	panes        map[PaneRole]PaneConfig
	activeRole   PaneRole
	backBehavior PaneBackBehavior
}

// NewPanes creates a pane node. It panics with a *StructuralError when panes
// has no primary entry, when an entry has no content, or when activeRole is
// not configured.
func NewPanes(key, parent NodeKey, activeRole PaneRole, panes map[PaneRole]PaneConfig) *PaneNode {
	if _, ok := panes[RolePrimary]; !ok {
		panic(structural("new panes", key, ErrMissingPrimaryPane))
	}
	if _, ok := panes[activeRole]; !ok {
		panic(structural("new panes", key, ErrInvalidPaneRole))
	}
	adopted := make(map[PaneRole]PaneConfig, len(panes))
	for role, cfg := range panes {
		if !validRole(role) || cfg.Content == nil {
			panic(structural("new panes", key, ErrInvalidPaneRole))
		}
		cfg.Content = cfg.Content.withParent(key)
		adopted[role] = cfg
	}
	return &PaneNode{key: key, parentKey: parent, panes: adopted, activeRole: activeRole}
}

func (p *PaneNode) Key() NodeKey       { return p.key }
func (p *PaneNode) ParentKey() NodeKey { return p.parentKey }
func (p *PaneNode) Kind() Kind         { return KindPanes }
func (p *PaneNode) sealed()            {}

// Scope returns the pane container's scope key.
func (p *PaneNode) Scope() ScopeKey { return p.scope }

// ActiveRole returns the active pane role.
func (p *PaneNode) ActiveRole() PaneRole { return p.activeRole }

// BackBehavior returns how back is handled at the root of a pane.
func (p *PaneNode) BackBehavior() PaneBackBehavior { return p.backBehavior }

// Roles returns the configured roles in primary, supporting, extra order.
func (p *PaneNode) Roles() []PaneRole {
	roles := make([]PaneRole, 0, len(p.panes))
	for _, r := range paneRoles {
		if _, ok := p.panes[r]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// Pane returns the configuration for role.
func (p *PaneNode) Pane(role PaneRole) (PaneConfig, bool) {
	cfg, ok := p.panes[role]
	return cfg, ok
}

// Content returns the content of role, or nil if the role is not configured.
func (p *PaneNode) Content(role PaneRole) Node {
	return p.panes[role].Content
}

// ActiveContent returns the content of the active pane.
func (p *PaneNode) ActiveContent() Node {
	return p.panes[p.activeRole].Content
}

// WithScope returns a copy of the pane node with the given scope.
func (p *PaneNode) WithScope(scope ScopeKey) *PaneNode {
	c := *p
	c.scope = scope
	return &c
}

// WithBackBehavior returns a copy with a different back behavior.
func (p *PaneNode) WithBackBehavior(b PaneBackBehavior) *PaneNode {
	c := *p
	c.backBehavior = b
	return &c
}

// WithActiveRole returns a copy with a different active role. It panics with a
// *StructuralError when role is not configured.
func (p *PaneNode) WithActiveRole(role PaneRole) *PaneNode {
	if _, ok := p.panes[role]; !ok {
		panic(structural("switch pane", p.key, ErrInvalidPaneRole))
	}
	c := *p
	c.activeRole = role
	return &c
}

// WithContent returns a copy with the content of role replaced. It panics
// with a *StructuralError when role is not configured.
func (p *PaneNode) WithContent(role PaneRole, content Node) *PaneNode {
	cfg, ok := p.panes[role]
	if !ok {
		panic(structural("set pane content", p.key, ErrInvalidPaneRole))
	}
	c := *p
	c.panes = make(map[PaneRole]PaneConfig, len(p.panes))
	for r, v := range p.panes {
		c.panes[r] = v
	}
	cfg.Content = content.withParent(p.key)
	c.panes[role] = cfg
	return &c
}

func (p *PaneNode) withParent(parent NodeKey) Node {
	if p.parentKey == parent {
		return p
	}
	c := *p
	c.parentKey = parent
	return &c
}

func validRole(r PaneRole) bool {
	return r >= RolePrimary && r <= RoleExtra
}

// adopt returns children re-parented to parent. Children already pointing at
// parent are reused as is.
func adopt(parent NodeKey, children []Node) []Node {
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = c.withParent(parent)
	}
	return out
}
