package navigator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/scope"
	"github.com/vango-dev/navstate/pkg/treeops"
)

func r(name string) navtree.Route { return navtree.Route{Name: name} }

func homeTree() navtree.Node {
	return navtree.NewStack("root", "", navtree.NewScreen("home", "", r("home")))
}

func newNav(t *testing.T, initial navtree.Node, opts ...Option) *Navigator {
	t.Helper()
	opts = append([]Option{WithKeys(navtree.NewSequentialKeys("n"))}, opts...)
	return New(initial, opts...)
}

func current(n *Navigator) string {
	if d := n.CurrentDestination(); d != nil {
		return d.Route()
	}
	return ""
}

func TestNavigateAndBack(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())

	if nav.CanGoBack() {
		t.Error("CanGoBack() = true with a single screen")
	}
	if err := nav.Navigate(ctx, r("detail")); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if current(nav) != "detail" {
		t.Errorf("current = %q, want detail", current(nav))
	}
	if !nav.CanGoBack() {
		t.Error("CanGoBack() = false after push")
	}

	outcome, err := nav.NavigateBack(ctx)
	if err != nil || outcome != treeops.Handled {
		t.Fatalf("NavigateBack() = %v, %v; want handled", outcome, err)
	}
	if current(nav) != "home" {
		t.Errorf("current = %q, want home", current(nav))
	}
}

func TestNavigateBackAtRootDelegates(t *testing.T) {
	start := homeTree()
	nav := newNav(t, start)

	outcome, err := nav.NavigateBack(context.Background())
	if err != nil {
		t.Fatalf("NavigateBack() error: %v", err)
	}
	if outcome != treeops.DelegateToSystem {
		t.Errorf("outcome = %v, want DelegateToSystem", outcome)
	}
	if nav.State() != start {
		t.Error("tree changed on delegated back")
	}
}

func TestSubscribeSeesEveryInstall(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())

	var seen []string
	cancel := nav.Subscribe(func(tree navtree.Node) {
		seen = append(seen, navtree.CurrentDestination(tree).Route())
	})
	defer cancel()

	_ = nav.Navigate(ctx, r("a"))
	_ = nav.Navigate(ctx, r("b"))
	_, _ = nav.NavigateBack(ctx)

	want := []string{"a", "b", "a"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestNoopDoesNotNotify(t *testing.T) {
	tree := navtree.NewStack("root", "",
		navtree.NewTabs("tabs", "", 0,
			navtree.NewStack("l0", "", navtree.NewScreen("a", "", r("a"))),
			navtree.NewStack("l1", ""),
		),
	)
	nav := newNav(t, tree)
	calls := 0
	defer nav.Subscribe(func(navtree.Node) { calls++ })()

	if err := nav.SwitchTab(context.Background(), "tabs", 0); err != nil {
		t.Fatalf("SwitchTab() error: %v", err)
	}
	if calls != 0 {
		t.Errorf("subscriber called %d times for a no-op", calls)
	}
}

func TestScopedNavigation(t *testing.T) {
	ctx := context.Background()
	reg := scope.NewRegistry()
	reg.Register("main", "feed", "profile")

	tree := navtree.NewStack("root", "",
		navtree.NewTabs("tabs", "", 0,
			navtree.NewStack("l0", "", navtree.NewScreen("feed", "", r("feed"))),
			navtree.NewStack("l1", "", navtree.NewScreen("me", "", r("profile"))),
		).WithScope("main"),
	)
	nav := newNav(t, tree, WithScopeRegistry(reg))

	if err := nav.Navigate(ctx, r("profile")); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if lane := navtree.ActiveStack(nav.State()); lane.Key() != "l0" || lane.Len() != 2 {
		t.Errorf("in-scope push landed in %s (len %d), want l0", lane.Key(), lane.Len())
	}

	if err := nav.Navigate(ctx, r("checkout")); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if lane := navtree.ActiveStack(nav.State()); lane.Key() != "root" {
		t.Errorf("out-of-scope push landed in %s, want root", lane.Key())
	}

	if _, err := nav.NavigateBack(ctx); err != nil {
		t.Fatal(err)
	}
	if err := nav.SwitchActiveTab(ctx, 1); err != nil {
		t.Fatalf("SwitchActiveTab() error: %v", err)
	}
	if current(nav) != "profile" {
		t.Errorf("current = %q, want profile", current(nav))
	}
	if err := nav.SwitchActiveTab(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if got := navtree.ActiveStack(nav.State()).Len(); got != 2 {
		t.Errorf("lane 0 history len = %d, want 2", got)
	}
}

func TestPopToRoute(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())
	for _, name := range []string{"a", "b", "c"} {
		if err := nav.Navigate(ctx, r(name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := nav.PopToRoute(ctx, "a", false); err != nil {
		t.Fatalf("PopToRoute() error: %v", err)
	}
	if current(nav) != "a" {
		t.Errorf("current = %q, want a", current(nav))
	}
	before := nav.State()
	if err := nav.PopToRoute(ctx, "missing", false); !errors.Is(err, navtree.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if nav.State() != before {
		t.Error("failed PopToRoute changed the tree")
	}
}

func TestReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())
	_ = nav.Navigate(ctx, r("a"))

	if err := nav.ReplaceCurrent(ctx, r("b")); err != nil {
		t.Fatalf("ReplaceCurrent() error: %v", err)
	}
	if s := navtree.ActiveStack(nav.State()); s.Len() != 2 || current(nav) != "b" {
		t.Errorf("after replace: len %d current %q", s.Len(), current(nav))
	}

	if err := nav.ClearAndNavigate(ctx, r("login")); err != nil {
		t.Fatalf("ClearAndNavigate() error: %v", err)
	}
	if s := navtree.ActiveStack(nav.State()); s.Len() != 1 || current(nav) != "login" {
		t.Errorf("after clear: len %d current %q", s.Len(), current(nav))
	}
}

func TestUpdateStateValidates(t *testing.T) {
	nav := newNav(t, homeTree())
	before := nav.State()

	bad := navtree.NewStack("root", "",
		navtree.NewScreen("dup", "", r("a")),
		navtree.NewScreen("dup", "", r("b")),
	)
	err := nav.UpdateState(context.Background(), bad)
	if !errors.Is(err, navtree.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}
	if nav.State() != before {
		t.Error("invalid tree was installed")
	}
}

func TestNewPanicsOnInvalidTree(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(navtree.NewStack("root", "x"))
}

func TestResultDeliveredOnBack(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())

	pending, err := nav.NavigateForResult(ctx, r("picker"))
	if err != nil {
		t.Fatalf("NavigateForResult() error: %v", err)
	}
	if pending.Key() != navtree.ActiveLeaf(nav.State()).Key() {
		t.Errorf("result key = %s, want the pushed screen", pending.Key())
	}
	if nav.PendingResults() != 1 {
		t.Errorf("PendingResults() = %d, want 1", nav.PendingResults())
	}

	if _, err := nav.NavigateBackWithResult(ctx, "blue"); err != nil {
		t.Fatalf("NavigateBackWithResult() error: %v", err)
	}
	value, ok, err := pending.Await(ctx)
	if err != nil || !ok || value != "blue" {
		t.Errorf("Await() = %v, %v, %v; want blue, true, nil", value, ok, err)
	}
	if current(nav) != "home" {
		t.Errorf("current = %q, want home", current(nav))
	}
	if nav.PendingResults() != 0 {
		t.Errorf("PendingResults() = %d, want 0", nav.PendingResults())
	}
}

func TestResultExactlyOnce(t *testing.T) {
	nav := newNav(t, homeTree())
	pending := nav.RequestResult("home")

	if !nav.CompleteResult("home", 1) {
		t.Fatal("first CompleteResult() = false")
	}
	if nav.CompleteResult("home", 2) {
		t.Error("second CompleteResult() = true")
	}
	if nav.CancelResult("home") {
		t.Error("CancelResult() after completion = true")
	}
	value, ok, _ := pending.Await(context.Background())
	if !ok || value != 1 {
		t.Errorf("Await() = %v, %v; want 1, true", value, ok)
	}
}

func TestResultCancelledWhenScreenDestroyed(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())

	pending, err := nav.NavigateForResult(ctx, r("picker"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := nav.NavigateBack(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-pending.Done():
	case <-time.After(time.Second):
		t.Fatal("result not resolved after its screen was popped")
	}
	value, ok, err := pending.Await(ctx)
	if err != nil || ok || value != nil {
		t.Errorf("Await() = %v, %v, %v; want nil, false, nil", value, ok, err)
	}
}

func TestRequestResultReplacesPrevious(t *testing.T) {
	nav := newNav(t, homeTree())
	first := nav.RequestResult("home")
	second := nav.RequestResult("home")

	if _, ok, _ := first.Await(context.Background()); ok {
		t.Error("first request should be cancelled")
	}
	nav.CompleteResult("home", "x")
	if v, ok, _ := second.Await(context.Background()); !ok || v != "x" {
		t.Errorf("second Await() = %v, %v", v, ok)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	nav := newNav(t, homeTree())
	pending := nav.RequestResult("home")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := pending.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRequestResultForAbsentScreen(t *testing.T) {
	tests := []struct {
		name string
		key  navtree.NodeKey
	}{
		{"never existed", "missing"},
		{"empty key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := newNav(t, homeTree())
			pending := nav.RequestResult(tt.key)

			select {
			case <-pending.Done():
			default:
				t.Fatal("result for an absent screen should resolve immediately")
			}
			if v, ok, _ := pending.Await(context.Background()); ok || v != nil {
				t.Errorf("Await() = %v, %v; want nil, false", v, ok)
			}
			if nav.PendingResults() != 0 {
				t.Errorf("PendingResults() = %d, want 0", nav.PendingResults())
			}
			if nav.Lifecycle().Len() != 0 {
				t.Errorf("lifecycle entries = %d, want 0", nav.Lifecycle().Len())
			}
		})
	}
}

func TestRequestResultAfterPop(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())
	if err := nav.Navigate(ctx, r("picker")); err != nil {
		t.Fatal(err)
	}
	key := navtree.ActiveLeaf(nav.State()).Key()
	if _, err := nav.NavigateBack(ctx); err != nil {
		t.Fatal(err)
	}

	pending := nav.RequestResult(key)
	select {
	case <-pending.Done():
	case <-time.After(time.Second):
		t.Fatal("result for a popped screen never resolved")
	}
	if nav.PendingResults() != 0 {
		t.Errorf("PendingResults() = %d, want 0", nav.PendingResults())
	}
}

// gateHandler blocks the first record with the given message until release
// is closed.
type gateHandler struct {
	msg     string
	once    sync.Once
	blocked chan struct{}
	release chan struct{}
}

func (h *gateHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *gateHandler) Handle(_ context.Context, rec slog.Record) error {
	if rec.Message != h.msg {
		return nil
	}
	first := false
	h.once.Do(func() { first = true })
	if first {
		close(h.blocked)
		<-h.release
	}
	return nil
}

func (h *gateHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *gateHandler) WithGroup(string) slog.Handler { return h }

func TestNavigateForResultPoppedBeforeReturn(t *testing.T) {
	ctx := context.Background()
	gate := &gateHandler{
		msg:     "navigation",
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
	nav := newNav(t, homeTree(), WithLogger(slog.New(gate)))

	type reply struct {
		pending *PendingResult
		err     error
	}
	replies := make(chan reply, 1)
	go func() {
		p, err := nav.NavigateForResult(ctx, r("picker"))
		replies <- reply{p, err}
	}()

	// The push is installed but NavigateForResult has not returned yet.
	select {
	case <-gate.blocked:
	case <-time.After(time.Second):
		t.Fatal("push never logged")
	}
	if current(nav) != "picker" {
		t.Fatalf("current = %q, want picker", current(nav))
	}
	if _, err := nav.NavigateBack(ctx); err != nil {
		t.Fatal(err)
	}
	close(gate.release)

	got := <-replies
	if got.err != nil {
		t.Fatalf("NavigateForResult() error: %v", got.err)
	}
	select {
	case <-got.pending.Done():
	case <-time.After(time.Second):
		t.Fatal("result not resolved after its screen was popped")
	}
	if _, ok, _ := got.pending.Await(ctx); ok {
		t.Error("result should be cancelled")
	}
	if nav.PendingResults() != 0 {
		t.Errorf("PendingResults() = %d, want 0", nav.PendingResults())
	}
}

func itemLinks(t *testing.T) *deeplink.Registry {
	t.Helper()
	links := deeplink.NewRegistry()
	err := links.Register("items/{id}", func(params map[string]string) (navtree.Destination, error) {
		return navtree.Route{Name: "item", Params: map[string]string{"id": params["id"]}}, nil
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	return links
}

func TestHandleDeepLink(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(reg))
	nav := newNav(t, homeTree(), WithDeepLinks(itemLinks(t)), WithMetrics(metrics))

	res, err := nav.HandleDeepLink(ctx, "app://items/42")
	if err != nil {
		t.Fatalf("HandleDeepLink() error: %v", err)
	}
	if res.Status != deeplink.Matched {
		t.Fatalf("status = %v, want Matched", res.Status)
	}
	dest, ok := nav.CurrentDestination().(navtree.Route)
	if !ok || dest.Name != "item" || dest.Params["id"] != "42" {
		t.Errorf("current = %#v", nav.CurrentDestination())
	}

	before := nav.State()
	res, err = nav.HandleDeepLink(ctx, "app://unknown/path")
	if err != nil || res.Status != deeplink.NotMatched {
		t.Errorf("unmatched link = %v, %v", res.Status, err)
	}
	if nav.State() != before {
		t.Error("unmatched link changed the tree")
	}

	if got := testutil.ToFloat64(metrics.deepLinks.WithLabelValues(deeplink.Matched.String())); got != 1 {
		t.Errorf("matched deep links = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.deepLinks.WithLabelValues(deeplink.NotMatched.String())); got != 1 {
		t.Errorf("unmatched deep links = %v, want 1", got)
	}
}

func TestHandleDeepLinkAction(t *testing.T) {
	links := deeplink.NewRegistry()
	var got string
	if err := links.RegisterAction("logout/{reason}", func(_ context.Context, params map[string]string) error {
		got = params["reason"]
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	nav := newNav(t, homeTree(), WithDeepLinks(links))
	before := nav.State()

	res, err := nav.HandleDeepLink(context.Background(), "app://logout/expired")
	if err != nil || res.Status != deeplink.ActionMatched {
		t.Fatalf("HandleDeepLink() = %v, %v", res.Status, err)
	}
	if got != "expired" {
		t.Errorf("action param = %q, want expired", got)
	}
	if nav.State() != before {
		t.Error("action link changed the tree")
	}
}

func TestHandleDeepLinkWithoutRegistry(t *testing.T) {
	nav := newNav(t, homeTree())
	if _, err := nav.HandleDeepLink(context.Background(), "app://items/1"); !errors.Is(err, ErrNoDeepLinks) {
		t.Errorf("err = %v, want ErrNoDeepLinks", err)
	}
}

func TestBackGesture(t *testing.T) {
	ctx := context.Background()
	ctrl := gesture.New(gesture.WithAnimator(gesture.Instant))
	nav := newNav(t, homeTree(), WithGesture(ctrl))
	_ = nav.Navigate(ctx, r("detail"))

	cs, err := nav.StartBackGesture()
	if err != nil {
		t.Fatalf("StartBackGesture() error: %v", err)
	}
	if cs.Delegates() || cs.Exiting == nil || cs.Revealed == nil || cs.Revealed.Key() != "home" {
		t.Errorf("cascade = %+v, want a pop revealing home", cs)
	}
	nav.UpdateBackGesture(0.9)
	if got := ctrl.Progress(); got != gesture.DefaultMaxProgress {
		t.Errorf("progress = %v, want clamp at %v", got, gesture.DefaultMaxProgress)
	}

	if err := nav.CompleteBackGesture(ctx); err != nil {
		t.Fatalf("CompleteBackGesture() error: %v", err)
	}
	ctrl.Wait()
	if current(nav) != "home" {
		t.Errorf("current = %q, want home", current(nav))
	}
	if ctrl.State() != gesture.Idle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
}

func TestBackGestureDelegatedAtRoot(t *testing.T) {
	ctx := context.Background()
	ctrl := gesture.New(gesture.WithAnimator(gesture.Instant))
	nav := newNav(t, homeTree(), WithGesture(ctrl))
	before := nav.State()

	cs, err := nav.StartBackGesture()
	if err != nil {
		t.Fatal(err)
	}
	if !cs.Delegates() {
		t.Error("cascade at root should delegate")
	}
	if err := nav.CompleteBackGesture(ctx); !errors.Is(err, ErrDelegateToSystem) {
		t.Fatalf("err = %v, want ErrDelegateToSystem", err)
	}
	ctrl.Wait()
	if nav.State() != before {
		t.Error("delegated gesture changed the tree")
	}
	if ctrl.Progress() != 0 {
		t.Errorf("progress = %v, want 0 after cancel", ctrl.Progress())
	}
}

func TestCancelBackGesture(t *testing.T) {
	ctx := context.Background()
	ctrl := gesture.New(gesture.WithAnimator(gesture.Instant))
	nav := newNav(t, homeTree(), WithGesture(ctrl))
	_ = nav.Navigate(ctx, r("detail"))

	if _, err := nav.StartBackGesture(); err != nil {
		t.Fatal(err)
	}
	nav.UpdateBackGesture(0.1)
	if err := nav.CancelBackGesture(); err != nil {
		t.Fatalf("CancelBackGesture() error: %v", err)
	}
	ctrl.Wait()
	if current(nav) != "detail" {
		t.Errorf("current = %q, want detail", current(nav))
	}
	if err := nav.CancelBackGesture(); !errors.Is(err, gesture.ErrNotGesturing) {
		t.Errorf("second cancel err = %v, want ErrNotGesturing", err)
	}
}

func TestGestureWithoutController(t *testing.T) {
	nav := newNav(t, homeTree())
	if _, err := nav.StartBackGesture(); !errors.Is(err, ErrNoGesture) {
		t.Errorf("err = %v, want ErrNoGesture", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	nav := newNav(t, homeTree())
	_ = nav.Navigate(ctx, navtree.Route{Name: "item", Params: map[string]string{"id": "9"}})
	pending := nav.RequestResult(navtree.ActiveLeaf(nav.State()).Key())

	data, err := nav.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	other := newNav(t, homeTree())
	if err := other.RestoreSnapshot(ctx, data); err != nil {
		t.Fatalf("RestoreSnapshot() error: %v", err)
	}
	if !navtree.Equal(other.State(), nav.State()) {
		t.Errorf("restored tree differs:\n%s", navtree.Format(other.State()))
	}

	if err := nav.RestoreSnapshot(ctx, data); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := pending.Await(ctx); ok {
		t.Error("restore should cancel pending results")
	}
	if err := nav.RestoreSnapshot(ctx, []byte("{")); !errors.Is(err, navtree.ErrInvalidSnapshot) {
		t.Errorf("err = %v, want ErrInvalidSnapshot", err)
	}
}

func TestMetricsRecordOperations(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(reg))
	nav := newNav(t, homeTree(), WithMetrics(metrics))

	_ = nav.Navigate(ctx, r("a"))
	_ = nav.PopToRoute(ctx, "missing", false)

	if got := testutil.ToFloat64(metrics.operations.WithLabelValues("navigate", "ok")); got != 1 {
		t.Errorf("navigate ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.operations.WithLabelValues("pop_to_route", "not_found")); got != 1 {
		t.Errorf("pop_to_route not_found = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.nodes); got != 3 {
		t.Errorf("tree_nodes = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(metrics.duration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	nav := newNav(t, homeTree(), WithTracer(provider.Tracer("test")))

	ctx := context.Background()
	_ = nav.Navigate(ctx, r("a"))
	_ = nav.SwitchTab(ctx, "nope", 0)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "navstate.navigate" || spans[0].Status().Code != codes.Ok {
		t.Errorf("span 0 = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "navstate.switch_tab" || spans[1].Status().Code != codes.Error {
		t.Errorf("span 1 = %s %v", spans[1].Name(), spans[1].Status())
	}
}
