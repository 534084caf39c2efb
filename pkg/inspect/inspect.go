// Package inspect serves a live view of a Navigator over HTTP.
//
// Routes:
//
//	GET  /tree            snapshot JSON of the current tree
//	GET  /tree.txt        indented outline of the current tree
//	GET  /current         active destination and back state
//	POST /deeplink?uri=   resolve and handle a deep link
//	POST /back            navigate back
//	POST /tabs/{index}    switch the innermost active tab
//	GET  /ws              stream of state messages, one per change
//	GET  /metrics         Prometheus metrics, when a gatherer is set
//
// The inspector is a development tool; it has no authentication.
package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
)

// Server is the inspector for one navigator.
type Server struct {
	nav      *navigator.Navigator
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	wake    chan struct{}
	stop    func()
	done    chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates an inspector for nav.
func New(nav *navigator.Navigator, opts ...Option) *Server {
	s := &Server{
		nav:     nav,
		logger:  slog.Default(),
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the inspector routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/tree", s.handleTree)
	r.Get("/tree.txt", s.handleTreeText)
	r.Get("/current", s.handleCurrent)
	r.Post("/deeplink", s.handleDeepLink)
	r.Post("/back", s.handleBack)
	r.Post("/tabs/{index}", s.handleTab)
	r.Get("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// State is the message sent on /ws and returned by /current.
type State struct {
	Type        string          `json:"type"`
	Route       string          `json:"route,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Key         navtree.NodeKey `json:"key,omitempty"`
	CanGoBack   bool            `json:"canGoBack"`
	Nodes       int             `json:"nodes"`
	Outline     string          `json:"outline,omitempty"`
}

func (s *Server) state(withOutline bool) State {
	tree := s.nav.State()
	st := State{
		Type:      "state",
		CanGoBack: s.nav.CanGoBack(),
		Nodes:     navtree.Count(tree),
	}
	if leaf := navtree.ActiveLeaf(tree); leaf != nil {
		st.Key = leaf.Key()
		st.Route = leaf.Destination().Route()
		st.Destination = navtree.DescribeDestination(leaf.Destination())
	}
	if withOutline {
		st.Outline = navtree.Format(tree)
	}
	return st
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if s.nav.State() == nil {
		http.Error(w, "empty tree", http.StatusNotFound)
		return
	}
	data, err := s.nav.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleTreeText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(navtree.Format(s.nav.State())))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state(false))
}

func (s *Server) handleDeepLink(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "missing uri", http.StatusBadRequest)
		return
	}
	res, err := s.nav.HandleDeepLink(r.Context(), uri)

	body := map[string]any{
		"status":  res.Status.String(),
		"pattern": res.Pattern,
		"params":  res.Params,
	}
	code := http.StatusOK
	switch {
	case err != nil:
		body["error"] = err.Error()
		code = http.StatusUnprocessableEntity
	case res.Err != nil:
		body["error"] = res.Err.Error()
		code = http.StatusNotFound
	case res.Status == deeplink.NotMatched:
		code = http.StatusNotFound
	}
	writeJSON(w, code, body)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.nav.NavigateBack(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": outcome.String()})
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid tab index", http.StatusBadRequest)
		return
	}
	if err := s.nav.SwitchActiveTab(r.Context(), index); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, s.state(false))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
