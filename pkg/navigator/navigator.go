// Package navigator wraps the tree engine in an observable, thread-safe
// container.
//
// A Navigator owns the current tree. Write methods compute the next tree with
// treeops, install it, reconcile per-node lifecycle state and publish the new
// tree through a reactive signal. Readers never block writers for longer than
// a signal read.
//
// Subscribers run synchronously on the writing goroutine while the write lock
// is held; a subscriber that wants to navigate must do so from another
// goroutine.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/lifecycle"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/reactive"
	"github.com/vango-dev/navstate/pkg/treeops"
)

const tracerName = "navstate"

// Navigator errors.
var (
	// ErrNoDeepLinks is returned by HandleDeepLink without a deep link registry.
	ErrNoDeepLinks = errors.New("navigator: no deep link registry")

	// ErrNoGesture is returned by the gesture methods without a controller.
	ErrNoGesture = errors.New("navigator: no gesture controller")

	// ErrDelegateToSystem is returned by CompleteBackGesture when back would
	// remove the root and the host has to handle it.
	ErrDelegateToSystem = errors.New("navigator: back delegated to system")
)

// Navigator is the observable navigation state container.
type Navigator struct {
	mu sync.Mutex // serializes writes

	state   *reactive.Signal[navtree.Node]
	current *reactive.Memo[navtree.Destination]
	canBack *reactive.Memo[bool]

	env      treeops.Env
	behavior treeops.BackBehavior

	links     *deeplink.Registry
	gesture   *gesture.Controller
	lifecycle *lifecycle.Registry
	codec     *navtree.DestinationCodec
	results   results

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New returns a navigator holding initial, which may be nil for an empty
// state. It panics if initial violates a tree invariant.
func New(initial navtree.Node, opts ...Option) *Navigator {
	if err := navtree.Validate(initial); err != nil {
		panic(fmt.Errorf("navigator: invalid initial tree: %w", err))
	}

	n := &Navigator{
		lifecycle: lifecycle.New(),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.results.pending = make(map[navtree.NodeKey]*slot)

	n.state = reactive.NewSignal(initial).
		WithEquals(func(a, b navtree.Node) bool { return a == b })
	n.current = reactive.NewMemo(func() navtree.Destination {
		return navtree.CurrentDestination(n.state.Get())
	}, n.state)
	n.canBack = reactive.NewMemo(func() bool {
		return treeops.CanPop(n.state.Get(), n.behavior)
	}, n.state)

	n.metrics.setNodes(navtree.Count(initial))
	return n
}

// State returns the current tree.
func (n *Navigator) State() navtree.Node { return n.state.Get() }

// StateSignal exposes the current tree as an observable value.
func (n *Navigator) StateSignal() *reactive.Signal[navtree.Node] { return n.state }

// CurrentDestination returns the destination of the active leaf, or nil.
func (n *Navigator) CurrentDestination() navtree.Destination { return n.current.Get() }

// CurrentDestinationMemo exposes CurrentDestination as an observable value.
func (n *Navigator) CurrentDestinationMemo() *reactive.Memo[navtree.Destination] { return n.current }

// CanGoBack reports whether back would be handled without delegating to the
// host.
func (n *Navigator) CanGoBack() bool { return n.canBack.Get() }

// CanGoBackMemo exposes CanGoBack as an observable value.
func (n *Navigator) CanGoBackMemo() *reactive.Memo[bool] { return n.canBack }

// Subscribe calls fn with every new tree.
func (n *Navigator) Subscribe(fn func(navtree.Node)) (cancel func()) {
	return n.state.Subscribe(fn)
}

// Lifecycle returns the per-node lifecycle registry.
func (n *Navigator) Lifecycle() *lifecycle.Registry { return n.lifecycle }

// Gesture returns the gesture controller, or nil.
func (n *Navigator) Gesture() *gesture.Controller { return n.gesture }

// Env returns the routing environment.
func (n *Navigator) Env() treeops.Env { return n.env }

// BackBehavior returns the configured back behavior.
func (n *Navigator) BackBehavior() treeops.BackBehavior { return n.behavior }

// mutate runs fn on the current tree under the write lock and installs its
// result. fn returning the current tree is a successful no-op.
func (n *Navigator) mutate(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(navtree.Node) (navtree.Node, error)) error {
	_, span := n.tracer.Start(ctx, "navstate."+op, trace.WithAttributes(attrs...))
	defer span.End()
	start := time.Now()

	n.mu.Lock()
	prev := n.state.Get()
	next, err := fn(prev)
	if err == nil {
		n.install(prev, next)
	}
	n.mu.Unlock()

	outcome := "ok"
	switch {
	case err != nil:
		outcome = errorOutcome(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Debug("navigation failed", "op", op, "error", err)
	case next == prev:
		outcome = "unchanged"
		span.SetStatus(codes.Ok, "")
	default:
		span.SetStatus(codes.Ok, "")
		if d := navtree.CurrentDestination(next); d != nil {
			span.SetAttributes(attribute.String("navstate.route", d.Route()))
		}
		n.logger.Debug("navigation", "op", op, "route", routeOf(next))
	}
	span.SetAttributes(attribute.String("navstate.outcome", outcome))
	n.metrics.observe(op, outcome, time.Since(start))

	if err == nil && next != prev {
		n.lifecycle.Reconcile(prev, next)
	}
	return err
}

// install publishes next. Callers hold n.mu.
func (n *Navigator) install(prev, next navtree.Node) {
	if next == prev {
		return
	}
	n.state.Set(next)
	n.metrics.setNodes(navtree.Count(next))
}

func errorOutcome(err error) string {
	switch {
	case errors.Is(err, navtree.ErrNotFound):
		return "not_found"
	case errors.Is(err, navtree.ErrStructural):
		return "structural"
	case errors.Is(err, ErrDelegateToSystem):
		return "delegated"
	default:
		return "error"
	}
}

func routeOf(root navtree.Node) string {
	if d := navtree.CurrentDestination(root); d != nil {
		return d.Route()
	}
	return ""
}

func destAttrs(dest navtree.Destination) []attribute.KeyValue {
	if dest == nil {
		return nil
	}
	return []attribute.KeyValue{attribute.String("navstate.destination", dest.Route())}
}

// Navigate pushes dest using scope-aware routing.
func (n *Navigator) Navigate(ctx context.Context, dest navtree.Destination) error {
	return n.mutate(ctx, "navigate", destAttrs(dest), func(cur navtree.Node) (navtree.Node, error) {
		return treeops.Push(cur, dest, n.env)
	})
}

// NavigateBack pops the active screen. When back would remove the root it
// returns DelegateToSystem and the tree is unchanged.
func (n *Navigator) NavigateBack(ctx context.Context) (treeops.Outcome, error) {
	var outcome treeops.Outcome
	err := n.mutate(ctx, "back", nil, func(cur navtree.Node) (navtree.Node, error) {
		res := treeops.Pop(cur, n.behavior)
		outcome = res.Outcome
		if res.Outcome != treeops.Handled {
			return cur, nil
		}
		return res.Tree, nil
	})
	return outcome, err
}

// PopTo pops until the active screen satisfies match. With inclusive the
// match is popped as well.
func (n *Navigator) PopTo(ctx context.Context, match func(*navtree.ScreenNode) bool, inclusive bool) error {
	return n.mutate(ctx, "pop_to", nil, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.PopTo(cur, match, inclusive, n.behavior)
	})
}

// PopToRoute pops to the nearest screen with route.
func (n *Navigator) PopToRoute(ctx context.Context, route string, inclusive bool) error {
	attrs := []attribute.KeyValue{attribute.String("navstate.destination", route)}
	return n.mutate(ctx, "pop_to_route", attrs, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.PopToRoute(cur, route, inclusive, n.behavior)
	})
}

// SwitchTab selects lane index of the tab node tabKey.
func (n *Navigator) SwitchTab(ctx context.Context, tabKey navtree.NodeKey, index int) error {
	attrs := []attribute.KeyValue{attribute.String("navstate.key", string(tabKey)), attribute.Int("navstate.index", index)}
	return n.mutate(ctx, "switch_tab", attrs, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.SwitchTab(cur, tabKey, index)
	})
}

// SwitchActiveTab selects lane index of the innermost tab node on the
// active path.
func (n *Navigator) SwitchActiveTab(ctx context.Context, index int) error {
	attrs := []attribute.KeyValue{attribute.Int("navstate.index", index)}
	return n.mutate(ctx, "switch_tab", attrs, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.SwitchActiveTab(cur, index)
	})
}

// SwitchPane activates role in the pane node paneKey.
func (n *Navigator) SwitchPane(ctx context.Context, paneKey navtree.NodeKey, role navtree.PaneRole) error {
	attrs := []attribute.KeyValue{attribute.String("navstate.key", string(paneKey)), attribute.String("navstate.role", role.String())}
	return n.mutate(ctx, "switch_pane", attrs, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.SwitchPane(cur, paneKey, role)
	})
}

// NavigateToPane pushes dest into the role pane of paneKey and activates it.
func (n *Navigator) NavigateToPane(ctx context.Context, paneKey navtree.NodeKey, role navtree.PaneRole, dest navtree.Destination) error {
	attrs := append(destAttrs(dest), attribute.String("navstate.key", string(paneKey)), attribute.String("navstate.role", role.String()))
	return n.mutate(ctx, "navigate_to_pane", attrs, func(cur navtree.Node) (navtree.Node, error) {
		return treeops.NavigateToPane(cur, paneKey, role, dest, n.env)
	})
}

// ReplaceCurrent replaces the active screen with dest.
func (n *Navigator) ReplaceCurrent(ctx context.Context, dest navtree.Destination) error {
	return n.mutate(ctx, "replace", destAttrs(dest), func(cur navtree.Node) (navtree.Node, error) {
		return treeops.ReplaceCurrent(cur, dest, n.env)
	})
}

// ClearAndNavigate empties the active stack and pushes dest.
func (n *Navigator) ClearAndNavigate(ctx context.Context, dest navtree.Destination) error {
	return n.mutate(ctx, "clear_and_navigate", destAttrs(dest), func(cur navtree.Node) (navtree.Node, error) {
		return treeops.ClearAndPush(cur, dest, n.env)
	})
}

// UpdateState installs an externally computed tree after validating it.
func (n *Navigator) UpdateState(ctx context.Context, tree navtree.Node) error {
	return n.mutate(ctx, "update_state", nil, func(navtree.Node) (navtree.Node, error) {
		if err := navtree.Validate(tree); err != nil {
			return nil, err
		}
		return tree, nil
	})
}

// HandleDeepLink resolves uri and navigates to its destination or runs its
// action. A link no pattern matches is not an error: the NotMatched result
// is returned and the tree is left alone.
func (n *Navigator) HandleDeepLink(ctx context.Context, uri string) (deeplink.Result, error) {
	if n.links == nil {
		return deeplink.Result{Status: deeplink.NotMatched}, ErrNoDeepLinks
	}
	res := n.links.Match(uri)
	n.metrics.deepLink(res.Status.String())

	switch res.Status {
	case deeplink.Matched:
		n.logger.Debug("deep link", "uri", uri, "pattern", res.Pattern)
		return res, n.Navigate(ctx, res.Destination)
	case deeplink.ActionMatched:
		n.logger.Debug("deep link action", "uri", uri, "pattern", res.Pattern)
		_, span := n.tracer.Start(ctx, "navstate.deeplink_action",
			trace.WithAttributes(attribute.String("navstate.pattern", res.Pattern)))
		defer span.End()
		if err := res.Action(ctx, res.Params); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		return res, nil
	default:
		n.logger.Debug("deep link not matched", "uri", uri, "error", res.Err)
		return res, nil
	}
}

// Snapshot serializes the current tree.
func (n *Navigator) Snapshot() ([]byte, error) {
	return navtree.MarshalSnapshot(n.State())
}

// RestoreSnapshot replaces the state with a decoded snapshot. Transient
// per-node state is dropped; pending results are cancelled.
func (n *Navigator) RestoreSnapshot(ctx context.Context, data []byte) error {
	tree, err := navtree.UnmarshalSnapshot(data, n.codec)
	if err != nil {
		return err
	}
	n.cancelAllResults()
	n.lifecycle.Reset()
	return n.UpdateState(ctx, tree)
}
