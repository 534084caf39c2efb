package inspect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtest"
	"github.com/vango-dev/navstate/pkg/navtree"
)

func r(name string) navtree.Route { return navtree.Route{Name: name} }

func newNav(t *testing.T, opts ...navigator.Option) *navigator.Navigator {
	t.Helper()
	tree := navtest.Stack("root",
		navtest.Tabs("tabs", 0,
			navtest.Stack("l0", navtest.Screen("home", "home")),
			navtest.Stack("l1", navtest.Screen("me", "profile")),
		),
	)
	return navtest.NewNav().WithTree(tree).With(opts...).Build()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCurrentAndTree(t *testing.T) {
	nav := newNav(t)
	h := New(nav).Handler()

	rec := do(t, h, http.MethodGet, "/current")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Route != "home" || st.Key != "home" || st.CanGoBack {
		t.Errorf("current = %+v", st)
	}

	rec = do(t, h, http.MethodGet, "/tree")
	if _, err := navtree.UnmarshalSnapshot(rec.Body.Bytes(), nil); err != nil {
		t.Errorf("/tree is not a snapshot: %v", err)
	}

	rec = do(t, h, http.MethodGet, "/tree.txt")
	if !strings.Contains(rec.Body.String(), "*screen home home") {
		t.Errorf("/tree.txt = %q", rec.Body.String())
	}
}

func TestBackAndTabs(t *testing.T) {
	nav := newNav(t)
	h := New(nav).Handler()

	rec := do(t, h, http.MethodPost, "/tabs/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /tabs/1 = %d %s", rec.Code, rec.Body)
	}
	if d := nav.CurrentDestination(); d.Route() != "profile" {
		t.Errorf("current = %s, want profile", d.Route())
	}

	rec = do(t, h, http.MethodPost, "/back")
	if !strings.Contains(rec.Body.String(), `"handled"`) {
		t.Errorf("POST /back = %s", rec.Body)
	}
	if d := nav.CurrentDestination(); d.Route() != "home" {
		t.Errorf("current = %s, want home", d.Route())
	}

	if rec := do(t, h, http.MethodPost, "/tabs/x"); rec.Code != http.StatusBadRequest {
		t.Errorf("POST /tabs/x = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/tabs/9"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST /tabs/9 = %d, want 422", rec.Code)
	}
}

func TestDeepLink(t *testing.T) {
	links := deeplink.NewRegistry()
	_ = links.Register("items/{id}", func(p map[string]string) (navtree.Destination, error) {
		return navtree.Route{Name: "item", Params: p}, nil
	})
	nav := newNav(t, navigator.WithDeepLinks(links))
	h := New(nav).Handler()

	rec := do(t, h, http.MethodPost, "/deeplink?uri=app://items/42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if d := nav.CurrentDestination(); d.Route() != "item" {
		t.Errorf("current = %s, want item", d.Route())
	}

	if rec := do(t, h, http.MethodPost, "/deeplink?uri=app://nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unmatched = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/deeplink"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing uri = %d, want 400", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	nav := newNav(t, navigator.WithMetrics(navigator.NewMetrics(navigator.WithRegistry(reg))))
	_ = nav.Navigate(context.Background(), r("detail"))

	rec := do(t, New(nav, WithGatherer(reg)).Handler(), http.MethodGet, "/metrics")
	if !strings.Contains(rec.Body.String(), `navstate_operations_total{op="navigate",outcome="ok"} 1`) {
		t.Errorf("/metrics missing operation counter:\n%s", rec.Body)
	}

	if rec := do(t, New(nav).Handler(), http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without gatherer = %d, want 404", rec.Code)
	}
}

func readState(t *testing.T, conn *websocket.Conn) State {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return st
}

func TestWebSocketStream(t *testing.T) {
	nav := newNav(t)
	insp := New(nav)
	insp.Start()
	defer insp.Close()

	srv := httptest.NewServer(insp.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	io.Copy(io.Discard, resp.Body)

	if st := readState(t, conn); st.Route != "home" || st.Outline == "" {
		t.Errorf("initial state = %+v", st)
	}

	if err := nav.Navigate(context.Background(), r("detail")); err != nil {
		t.Fatal(err)
	}
	st := readState(t, conn)
	if st.Route != "detail" || !st.CanGoBack || st.Type != "state" {
		t.Errorf("update = %+v", st)
	}
	if insp.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", insp.ClientCount())
	}
}
