package navtest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/scope"
)

// Dest returns a route destination with params given as key/value pairs.
func Dest(route string, kv ...string) navtree.Route {
	if len(kv)%2 != 0 {
		panic("navtest: odd number of params")
	}
	d := navtree.Route{Name: route}
	if len(kv) > 0 {
		d.Params = make(map[string]string, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			d.Params[kv[i]] = kv[i+1]
		}
	}
	return d
}

// Screen returns a screen for Dest(route, kv...).
func Screen(key navtree.NodeKey, route string, kv ...string) *navtree.ScreenNode {
	return navtree.NewScreen(key, "", Dest(route, kv...))
}

// Stack returns a stack of children.
func Stack(key navtree.NodeKey, children ...navtree.Node) *navtree.StackNode {
	return navtree.NewStack(key, "", children...)
}

// Tabs returns a tab node with the given lanes.
func Tabs(key navtree.NodeKey, active int, lanes ...*navtree.StackNode) *navtree.TabNode {
	return navtree.NewTabs(key, "", active, lanes...)
}

// ListDetail returns a two-pane node with list in the primary pane and
// detail in the supporting pane.
func ListDetail(key navtree.NodeKey, active navtree.PaneRole, list, detail *navtree.StackNode) *navtree.PaneNode {
	return navtree.NewPanes(key, "", active, map[navtree.PaneRole]navtree.PaneConfig{
		navtree.RolePrimary:    {Content: list},
		navtree.RoleSupporting: {Content: detail},
	})
}

// Screens returns a stack of screens keyed s1, s2, ... for routes.
func Screens(key navtree.NodeKey, routes ...string) *navtree.StackNode {
	children := make([]navtree.Node, len(routes))
	for i, route := range routes {
		children[i] = Screen(navtree.NodeKey(fmt.Sprintf("s%d", i+1)), route)
	}
	return Stack(key, children...)
}

// NavBuilder builds a Navigator for tests.
type NavBuilder struct {
	tree   navtree.Node
	scopes *scope.Registry
	links  *deeplink.Registry
	opts   []navigator.Option
	err    error
}

// NewNav starts a navigator builder with an empty tree.
func NewNav() *NavBuilder {
	return &NavBuilder{scopes: scope.NewRegistry()}
}

// WithTree sets the initial tree.
func (b *NavBuilder) WithTree(tree navtree.Node) *NavBuilder {
	b.tree = tree
	return b
}

// WithScreens sets the initial tree to Screens("root", routes...).
func (b *NavBuilder) WithScreens(routes ...string) *NavBuilder {
	b.tree = Screens("root", routes...)
	return b
}

// WithScope registers routes as members of scope.
func (b *NavBuilder) WithScope(s navtree.ScopeKey, routes ...string) *NavBuilder {
	b.scopes.Register(s, routes...)
	return b
}

// WithLink maps a deep link template to a route whose params are the
// captured values.
func (b *NavBuilder) WithLink(template, route string) *NavBuilder {
	if b.links == nil {
		b.links = deeplink.NewRegistry()
	}
	err := b.links.Register(template, func(params map[string]string) (navtree.Destination, error) {
		return navtree.Route{Name: route, Params: params}, nil
	}, deeplink.WithRoute(route))
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// With appends navigator options.
func (b *NavBuilder) With(opts ...navigator.Option) *NavBuilder {
	b.opts = append(b.opts, opts...)
	return b
}

// Scopes returns the scope registry the navigator will use.
func (b *NavBuilder) Scopes() *scope.Registry { return b.scopes }

// Build creates the navigator. It panics on an invalid tree or link
// template.
func (b *NavBuilder) Build() *navigator.Navigator {
	if b.err != nil {
		panic(b.err)
	}
	opts := []navigator.Option{
		navigator.WithKeys(navtree.NewSequentialKeys("n")),
		navigator.WithScopeRegistry(b.scopes),
	}
	if b.links != nil {
		opts = append(opts, navigator.WithDeepLinks(b.links))
	}
	return navigator.New(b.tree, append(opts, b.opts...)...)
}

// ExpectValid fails t if tree violates an invariant.
func ExpectValid(t testing.TB, tree navtree.Node) {
	t.Helper()
	if err := navtree.Validate(tree); err != nil {
		t.Fatalf("invalid tree: %v\n%s", err, navtree.Format(tree))
	}
}

// ExpectRoute asserts the route of the active screen.
func ExpectRoute(t testing.TB, tree navtree.Node, route string) {
	t.Helper()
	d := navtree.CurrentDestination(tree)
	if d == nil {
		t.Errorf("no active screen, want %q\n%s", route, navtree.Format(tree))
		return
	}
	if d.Route() != route {
		t.Errorf("active route = %q, want %q\n%s", d.Route(), route, navtree.Format(tree))
	}
}

// ExpectActivePath asserts the keys on the active path, root first.
func ExpectActivePath(t testing.TB, tree navtree.Node, keys ...navtree.NodeKey) {
	t.Helper()
	var got []string
	for _, n := range navtree.ActivePath(tree) {
		got = append(got, string(n.Key()))
	}
	want := make([]string, len(keys))
	for i, k := range keys {
		want[i] = string(k)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("active path = %v, want %v", got, want)
	}
}

// ExpectStackLen asserts the number of children of the stack key.
func ExpectStackLen(t testing.TB, tree navtree.Node, key navtree.NodeKey, n int) {
	t.Helper()
	s, ok := navtree.Find(tree, key).(*navtree.StackNode)
	if !ok {
		t.Errorf("no stack %q in\n%s", key, navtree.Format(tree))
		return
	}
	if s.Len() != n {
		t.Errorf("stack %q len = %d, want %d", key, s.Len(), n)
	}
}

// ExpectShared asserts that key refers to the same node instance in both
// trees.
func ExpectShared(t testing.TB, before, after navtree.Node, key navtree.NodeKey) {
	t.Helper()
	a, b := navtree.Find(before, key), navtree.Find(after, key)
	if a == nil || b == nil {
		t.Errorf("node %q missing (before=%v after=%v)", key, a != nil, b != nil)
		return
	}
	if a != b {
		t.Errorf("node %q was copied, want shared", key)
	}
}

// ExpectOutline compares navtree.Format(tree) with want, ignoring leading
// and trailing blank lines.
func ExpectOutline(t testing.TB, tree navtree.Node, want string) {
	t.Helper()
	got := strings.Trim(navtree.Format(tree), "\n")
	want = strings.Trim(want, "\n")
	if got != want {
		t.Errorf("outline:\n%s\nwant:\n%s", got, want)
	}
}

// Recorder collects the active routes a navigator publishes.
type Recorder struct {
	mu     sync.Mutex
	routes []string
	stop   func()
}

// Record subscribes to nav until Stop is called.
func Record(nav *navigator.Navigator) *Recorder {
	r := &Recorder{}
	r.stop = nav.Subscribe(func(tree navtree.Node) {
		route := ""
		if d := navtree.CurrentDestination(tree); d != nil {
			route = d.Route()
		}
		r.mu.Lock()
		r.routes = append(r.routes, route)
		r.mu.Unlock()
	})
	return r
}

// Routes returns the recorded routes in publication order.
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Stop unsubscribes.
func (r *Recorder) Stop() { r.stop() }
