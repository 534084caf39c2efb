// Package scope maps destinations to container scopes, pane roles and
// container templates.
//
// A Registry is the usual implementation of treeops.ScopeResolver and
// treeops.ContainerSource:
//
//	reg := scope.NewRegistry()
//	reg.Register("main", "feed", "profile", "settings")
//	reg.RegisterTabs("main", scope.TabsDefinition{
//	    Scope: "main",
//	    Lanes: []navtree.Destination{navtree.Route{Name: "feed"}, navtree.Route{Name: "profile"}},
//	})
package scope

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/navstate/pkg/navtree"
)

var (
	// ErrNoLanes is returned when a tabs definition has no lanes.
	ErrNoLanes = errors.New("scope: tabs definition has no lanes")
	// ErrInitialIndex is returned when a tabs definition starts on a missing lane.
	ErrInitialIndex = errors.New("scope: initial tab index out of range")
	// ErrNoPrimary is returned when a panes definition has no primary pane.
	ErrNoPrimary = errors.New("scope: panes definition has no primary pane")
	// ErrActiveRole is returned when a panes definition starts on an unconfigured role.
	ErrActiveRole = errors.New("scope: active pane role not configured")
	// ErrNoRoute is returned for an empty route name.
	ErrNoRoute = errors.New("scope: empty route")
)

// Matcher reports whether a destination belongs to a scope.
type Matcher func(dest navtree.Destination) bool

// TabsDefinition is the template for a tab container.
type TabsDefinition struct {
	Scope        navtree.ScopeKey
	InitialIndex int
	// Lanes holds the root destination of each lane. A nil entry starts the
	// lane empty.
	Lanes []navtree.Destination
}

// PaneDefinition is the template for one pane of a pane container.
type PaneDefinition struct {
	Root  navtree.Destination // nil starts the pane with an empty stack
	Adapt navtree.AdaptStrategy
}

// PanesDefinition is the template for a pane container.
type PanesDefinition struct {
	Scope        navtree.ScopeKey
	ActiveRole   navtree.PaneRole
	BackBehavior navtree.PaneBackBehavior
	Panes        map[navtree.PaneRole]PaneDefinition
}

// Registry records scope membership, pane roles and container templates.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	members   map[navtree.ScopeKey]map[string]struct{}
	matchers  map[navtree.ScopeKey][]Matcher
	scopeOf   map[string]navtree.ScopeKey
	paneRoles map[navtree.ScopeKey]map[string]navtree.PaneRole
	tabs      map[string]TabsDefinition
	panes     map[string]PanesDefinition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members:   make(map[navtree.ScopeKey]map[string]struct{}),
		matchers:  make(map[navtree.ScopeKey][]Matcher),
		scopeOf:   make(map[string]navtree.ScopeKey),
		paneRoles: make(map[navtree.ScopeKey]map[string]navtree.PaneRole),
		tabs:      make(map[string]TabsDefinition),
		panes:     make(map[string]PanesDefinition),
	}
}

// Register adds routes to scope. A route may belong to several scopes;
// ScopeKey reports the first one it was registered in.
func (r *Registry) Register(scope navtree.ScopeKey, routes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(scope, routes...)
}

func (r *Registry) register(scope navtree.ScopeKey, routes ...string) {
	set := r.members[scope]
	if set == nil {
		set = make(map[string]struct{})
		r.members[scope] = set
	}
	for _, route := range routes {
		set[route] = struct{}{}
		if _, ok := r.scopeOf[route]; !ok {
			r.scopeOf[route] = scope
		}
	}
}

// RegisterMatcher adds a predicate to scope. Destinations matched by any
// predicate are members of the scope.
func (r *Registry) RegisterMatcher(scope navtree.ScopeKey, m Matcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers[scope] = append(r.matchers[scope], m)
}

// RegisterPaneRole declares that route opens in the role pane of containers
// with the given scope. The route also becomes a member of scope.
func (r *Registry) RegisterPaneRole(scope navtree.ScopeKey, route string, role navtree.PaneRole) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := r.paneRoles[scope]
	if roles == nil {
		roles = make(map[string]navtree.PaneRole)
		r.paneRoles[scope] = roles
	}
	roles[route] = role
	r.register(scope, route)
}

// RegisterTabs makes route build a tab container. The lane roots become
// members of def.Scope.
func (r *Registry) RegisterTabs(route string, def TabsDefinition) error {
	if route == "" {
		return ErrNoRoute
	}
	if len(def.Lanes) == 0 {
		return fmt.Errorf("tabs %q: %w", route, ErrNoLanes)
	}
	if def.InitialIndex < 0 || def.InitialIndex >= len(def.Lanes) {
		return fmt.Errorf("tabs %q: %w", route, ErrInitialIndex)
	}
	def.Lanes = append([]navtree.Destination(nil), def.Lanes...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[route] = def
	delete(r.panes, route)
	if def.Scope != "" {
		for _, d := range def.Lanes {
			if d != nil {
				r.register(def.Scope, d.Route())
			}
		}
	}
	return nil
}

// RegisterPanes makes route build a pane container. Each pane root becomes
// a member of def.Scope and is registered for its role. Roles outside the
// defined set are rejected with an error wrapping navtree.ErrInvalidPaneRole.
func (r *Registry) RegisterPanes(route string, def PanesDefinition) error {
	if route == "" {
		return ErrNoRoute
	}
	for role := range def.Panes {
		if !role.Valid() {
			return fmt.Errorf("panes %q: %w: %s", route, navtree.ErrInvalidPaneRole, role)
		}
	}
	if _, ok := def.Panes[navtree.RolePrimary]; !ok {
		return fmt.Errorf("panes %q: %w", route, ErrNoPrimary)
	}
	if !def.ActiveRole.Valid() {
		return fmt.Errorf("panes %q: %w: %w", route, ErrActiveRole, navtree.ErrInvalidPaneRole)
	}
	if _, ok := def.Panes[def.ActiveRole]; !ok {
		return fmt.Errorf("panes %q: %w", route, ErrActiveRole)
	}
	panes := make(map[navtree.PaneRole]PaneDefinition, len(def.Panes))
	for role, p := range def.Panes {
		panes[role] = p
	}
	def.Panes = panes

	r.mu.Lock()
	defer r.mu.Unlock()
	r.panes[route] = def
	delete(r.tabs, route)
	if def.Scope != "" {
		for role, p := range def.Panes {
			if p.Root == nil {
				continue
			}
			roles := r.paneRoles[def.Scope]
			if roles == nil {
				roles = make(map[string]navtree.PaneRole)
				r.paneRoles[def.Scope] = roles
			}
			roles[p.Root.Route()] = role
			r.register(def.Scope, p.Root.Route())
		}
	}
	return nil
}

// IsInScope reports whether dest is a member of scope.
func (r *Registry) IsInScope(scope navtree.ScopeKey, dest navtree.Destination) bool {
	if dest == nil {
		return false
	}
	r.mu.RLock()
	_, ok := r.members[scope][dest.Route()]
	matchers := r.matchers[scope]
	r.mu.RUnlock()
	if ok {
		return true
	}
	for _, m := range matchers {
		if m(dest) {
			return true
		}
	}
	return false
}

// ScopeKey returns the first scope dest's route was registered in.
func (r *Registry) ScopeKey(dest navtree.Destination) (navtree.ScopeKey, bool) {
	if dest == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scopeOf[dest.Route()]
	return s, ok
}

// PaneRole returns the role registered for dest in pane containers of scope.
func (r *Registry) PaneRole(scope navtree.ScopeKey, dest navtree.Destination) (navtree.PaneRole, bool) {
	if dest == nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.paneRoles[scope][dest.Route()]
	return role, ok
}

// Tabs returns the tabs definition registered for route.
func (r *Registry) Tabs(route string) (TabsDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tabs[route]
	return def, ok
}

// Panes returns the panes definition registered for route.
func (r *Registry) Panes(route string) (PanesDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.panes[route]
	return def, ok
}
