package treeops

import (
	"errors"
	"fmt"

	"github.com/vango-dev/navstate/pkg/navtree"
)

var (
	// ErrNilDestination is returned when an operation is given a nil destination.
	ErrNilDestination = errors.New("treeops: nil destination")

	// ErrNoStack is returned when the active path contains no stack to push into.
	ErrNoStack = errors.New("treeops: no stack on the active path")

	// ErrNoActiveScreen is returned when an operation needs an active screen
	// and the active path ends at an empty stack.
	ErrNoActiveScreen = errors.New("treeops: no active screen")

	// ErrNothingLeft is returned by PopTo when popping the match would remove
	// the root. It wraps navtree.ErrNotFound: no screen below the match is
	// left to land on.
	ErrNothingLeft = fmt.Errorf("treeops: pop would remove the root: %w", navtree.ErrNotFound)
)

// ScopeResolver answers scope membership questions for Push.
type ScopeResolver interface {
	// IsInScope reports whether dest belongs to the container scope.
	IsInScope(scope navtree.ScopeKey, dest navtree.Destination) bool

	// ScopeKey returns the scope dest was registered in, if any.
	ScopeKey(dest navtree.Destination) (navtree.ScopeKey, bool)

	// PaneRole returns the pane role dest is registered for inside the pane
	// container with the given scope.
	PaneRole(scope navtree.ScopeKey, dest navtree.Destination) (navtree.PaneRole, bool)
}

// ContainerSource builds container subtrees for destinations that stand for a
// tab or pane container rather than a single screen.
type ContainerSource interface {
	// BuildContainer returns the container subtree for dest with its root
	// parented under parent. ok is false when dest is a plain screen.
	BuildContainer(dest navtree.Destination, parent navtree.NodeKey, keys navtree.KeyGenerator) (n navtree.Node, ok bool)
}

// Env carries the collaborators of the routing algorithms. The zero value is
// usable: every container accepts every destination, no destination builds a
// container and keys are UUIDs.
type Env struct {
	Scopes     ScopeResolver
	Containers ContainerSource
	Keys       navtree.KeyGenerator
}

func (e Env) keys() navtree.KeyGenerator {
	if e.Keys == nil {
		return navtree.UUIDKeys()
	}
	return e.Keys
}

func (e Env) accepts(scope navtree.ScopeKey, dest navtree.Destination) bool {
	if scope == "" || e.Scopes == nil {
		return true
	}
	return e.Scopes.IsInScope(scope, dest)
}

func (e Env) paneRole(pane *navtree.PaneNode, dest navtree.Destination) (navtree.PaneRole, bool) {
	if e.Scopes == nil {
		return 0, false
	}
	role, ok := e.Scopes.PaneRole(pane.Scope(), dest)
	if !ok {
		return 0, false
	}
	if _, configured := pane.Pane(role); !configured {
		return 0, false
	}
	return role, true
}

// NewNode returns the subtree that represents dest under parent: a container
// when the ContainerSource knows dest, a screen otherwise.
func (e Env) NewNode(dest navtree.Destination, parent navtree.NodeKey) navtree.Node {
	keys := e.keys()
	if e.Containers != nil {
		if n, ok := e.Containers.BuildContainer(dest, parent, keys); ok {
			return n
		}
	}
	return navtree.NewScreen(keys.NewKey(), parent, dest)
}
