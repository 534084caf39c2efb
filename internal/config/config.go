package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/scope"
	"github.com/vango-dev/navstate/pkg/treeops"
)

const (
	// TOMLFileName is the config file LoadFromDir looks for first.
	TOMLFileName = "navstate.toml"

	// JSONFileName is the config file LoadFromDir falls back to.
	JSONFileName = "navstate.json"

	// DefaultScheme is the URI scheme used by CreateURI.
	DefaultScheme = "app"

	// DefaultInitialRoute is the root screen when no initial routes are set.
	DefaultInitialRoute = "home"

	// DefaultStoreID is the snapshot id the persister saves under.
	DefaultStoreID = "default"

	// DefaultInspectorAddr is the listen address of navctl serve.
	DefaultInspectorAddr = "localhost:7070"
)

// Config is a navstate.toml / navstate.json file.
type Config struct {
	// Name is the application name.
	Name string `json:"name,omitempty" toml:"name"`

	// Scheme is the URI scheme for reverse deep links.
	Scheme string `json:"scheme,omitempty" toml:"scheme"`

	// Initial lists the routes on the root stack, bottom first. A route with a
	// tabs or panes definition starts as that container.
	Initial []string `json:"initial,omitempty" toml:"initial"`

	// MatchPolicy is "registration-order" (default) or "most-specific".
	MatchPolicy string `json:"matchPolicy,omitempty" toml:"match_policy"`

	// Routes maps deep link patterns to route names, in registration order.
	Routes []RouteConfig `json:"routes,omitempty" toml:"routes"`

	// Scopes maps a scope key to its member routes.
	Scopes map[string][]string `json:"scopes,omitempty" toml:"scopes"`

	// PaneRoles send routes to a specific pane of a scoped pane container.
	PaneRoles []PaneRoleConfig `json:"paneRoles,omitempty" toml:"pane_roles"`

	// Tabs are tab container templates.
	Tabs []TabsConfig `json:"tabs,omitempty" toml:"tabs"`

	// Panes are pane container templates.
	Panes []PanesConfig `json:"panes,omitempty" toml:"panes"`

	Gesture   GestureConfig   `json:"gesture,omitempty" toml:"gesture"`
	Back      BackConfig      `json:"back,omitempty" toml:"back"`
	Store     StoreConfig     `json:"store,omitempty" toml:"store"`
	Inspector InspectorConfig `json:"inspector,omitempty" toml:"inspector"`

	configPath string
}

// RouteConfig is one deep link registration.
type RouteConfig struct {
	Pattern string `json:"pattern" toml:"pattern"`
	Route   string `json:"route" toml:"route"`
}

// PaneRoleConfig registers route as belonging to role inside scope.
type PaneRoleConfig struct {
	Scope string `json:"scope" toml:"scope"`
	Route string `json:"route" toml:"route"`
	Role  string `json:"role" toml:"role"`
}

// TabsConfig builds a tab container when Route is pushed.
type TabsConfig struct {
	Route        string   `json:"route" toml:"route"`
	Scope        string   `json:"scope,omitempty" toml:"scope"`
	InitialIndex int      `json:"initialIndex,omitempty" toml:"initial_index"`
	Lanes        []string `json:"lanes" toml:"lanes"`
}

// PanesConfig builds a pane container when Route is pushed.
type PanesConfig struct {
	Route        string                `json:"route" toml:"route"`
	Scope        string                `json:"scope,omitempty" toml:"scope"`
	ActiveRole   string                `json:"activeRole,omitempty" toml:"active_role"`
	BackBehavior string                `json:"backBehavior,omitempty" toml:"back_behavior"`
	Panes        map[string]PaneConfig `json:"panes" toml:"panes"`
}

// PaneConfig is one pane of a PanesConfig, keyed by role name.
type PaneConfig struct {
	// Root is the route the pane starts on. Empty starts the pane empty.
	Root  string `json:"root,omitempty" toml:"root"`
	Adapt string `json:"adapt,omitempty" toml:"adapt"`
}

// GestureConfig configures the predictive back controller.
type GestureConfig struct {
	MaxProgress float64 `json:"maxProgress,omitempty" toml:"max_progress"`
	DurationMs  int     `json:"durationMs,omitempty" toml:"duration_ms"`
}

// BackConfig configures back handling.
type BackConfig struct {
	// Behavior is "remove-empty-stacks" (default) or "preserve-stacks".
	Behavior string `json:"behavior,omitempty" toml:"behavior"`
}

// StoreConfig selects where navctl serve persists snapshots.
type StoreConfig struct {
	// Kind is "memory", "sqlite" or "s3". Empty disables persistence.
	Kind  string `json:"kind,omitempty" toml:"kind"`
	DSN   string `json:"dsn,omitempty" toml:"dsn"`
	Table string `json:"table,omitempty" toml:"table"`

	Bucket   string `json:"bucket,omitempty" toml:"bucket"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix"`
	Region   string `json:"region,omitempty" toml:"region"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint"`

	// ID is the snapshot id.
	ID string `json:"id,omitempty" toml:"id"`
}

// InspectorConfig configures navctl serve.
type InspectorConfig struct {
	Addr    string `json:"addr,omitempty" toml:"addr"`
	Metrics bool   `json:"metrics,omitempty" toml:"metrics"`
}

// Default returns a config with a single home screen and no registrations.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFromDir loads navstate.toml or, failing that, navstate.json from dir.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		path := filepath.Join(dir, name)
		if Exists(path) {
			return Load(path)
		}
	}
	return nil, errors.New("N001").
		WithDetail("No " + TOMLFileName + " or " + JSONFileName + " found in " + dir)
}

// Load reads the config at path. The extension selects the format.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("N001").WithDetail("No config file at " + path)
		}
		return nil, errors.New("N002").Wrap(err)
	}

	cfg, err := Parse(data, filepath.Ext(path), path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml" or ".json"). file is
// only used for error locations.
func Parse(data []byte, ext, file string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.FromTOML(file, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("N002").
				WithDetail("Failed to parse " + file + ": " + err.Error()).
				Wrap(err)
		}
	default:
		return nil, errors.New("N004").WithDetail("Cannot load " + file)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if len(c.Initial) == 0 {
		c.Initial = []string{DefaultInitialRoute}
	}
	if c.Gesture.MaxProgress == 0 {
		c.Gesture.MaxProgress = gesture.DefaultMaxProgress
	}
	if c.Store.ID == "" {
		c.Store.ID = DefaultStoreID
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
}

// Validate checks the config without building anything. It reports the first
// problem found as an N003 error.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New("N003").WithDetail(fmt.Sprintf(format, args...))
	}

	for i, r := range c.Initial {
		if r == "" {
			return invalid("initial[%d] is empty", i)
		}
	}
	if _, err := c.matchPolicy(); err != nil {
		return invalid("%v", err)
	}
	if _, err := c.backBehavior(); err != nil {
		return invalid("%v", err)
	}
	for i, r := range c.Routes {
		if r.Route == "" {
			return invalid("routes[%d] (%q) has no route", i, r.Pattern)
		}
		if _, err := deeplink.Compile(r.Pattern); err != nil {
			return errors.New("N202").
				WithDetail(fmt.Sprintf("routes[%d]: %v", i, err)).
				Wrap(err)
		}
	}
	for name, routes := range c.Scopes {
		if name == "" {
			return invalid("scope with empty name")
		}
		for _, r := range routes {
			if r == "" {
				return invalid("scope %q lists an empty route", name)
			}
		}
	}
	for i, p := range c.PaneRoles {
		if p.Scope == "" || p.Route == "" {
			return invalid("paneRoles[%d] needs scope and route", i)
		}
		if _, err := navtree.ParsePaneRole(p.Role); err != nil {
			return invalid("paneRoles[%d]: %v", i, err)
		}
	}
	for _, t := range c.Tabs {
		if _, err := t.definition(); err != nil {
			return invalid("tabs %q: %v", t.Route, err)
		}
	}
	for _, p := range c.Panes {
		if _, err := p.definition(); err != nil {
			return invalid("panes %q: %v", p.Route, err)
		}
	}
	if c.Gesture.MaxProgress <= 0 || c.Gesture.MaxProgress > 1 {
		return invalid("gesture.maxProgress must be in (0, 1], got %v", c.Gesture.MaxProgress)
	}
	if c.Gesture.DurationMs < 0 {
		return invalid("gesture.durationMs must not be negative")
	}
	switch c.Store.Kind {
	case "", "memory", "sqlite", "s3":
	default:
		return errors.New("N402").WithDetail(fmt.Sprintf("store.kind %q", c.Store.Kind))
	}
	if c.Store.Kind == "sqlite" && c.Store.DSN == "" {
		return invalid("store.dsn is required for the sqlite store")
	}
	if c.Store.Kind == "s3" && c.Store.Bucket == "" {
		return invalid("store.bucket is required for the s3 store")
	}
	return nil
}

func (c *Config) matchPolicy() (deeplink.MatchPolicy, error) {
	switch c.MatchPolicy {
	case "", "registration-order":
		return deeplink.MatchRegistrationOrder, nil
	case "most-specific":
		return deeplink.MatchMostSpecific, nil
	default:
		return 0, fmt.Errorf("unknown matchPolicy %q", c.MatchPolicy)
	}
}

func (c *Config) backBehavior() (treeops.BackBehavior, error) {
	b, ok := treeops.ParseBackBehavior(c.Back.Behavior)
	if !ok {
		return 0, fmt.Errorf("unknown back.behavior %q", c.Back.Behavior)
	}
	return b, nil
}

func (t TabsConfig) definition() (scope.TabsDefinition, error) {
	if t.Route == "" {
		return scope.TabsDefinition{}, scope.ErrNoRoute
	}
	if len(t.Lanes) == 0 {
		return scope.TabsDefinition{}, scope.ErrNoLanes
	}
	if t.InitialIndex < 0 || t.InitialIndex >= len(t.Lanes) {
		return scope.TabsDefinition{}, scope.ErrInitialIndex
	}
	def := scope.TabsDefinition{
		Scope:        navtree.ScopeKey(t.Scope),
		InitialIndex: t.InitialIndex,
		Lanes:        make([]navtree.Destination, len(t.Lanes)),
	}
	for i, lane := range t.Lanes {
		if lane != "" {
			def.Lanes[i] = navtree.Route{Name: lane}
		}
	}
	return def, nil
}

func (p PanesConfig) definition() (scope.PanesDefinition, error) {
	if p.Route == "" {
		return scope.PanesDefinition{}, scope.ErrNoRoute
	}
	def := scope.PanesDefinition{
		Scope:      navtree.ScopeKey(p.Scope),
		ActiveRole: navtree.RolePrimary,
		Panes:      make(map[navtree.PaneRole]scope.PaneDefinition, len(p.Panes)),
	}
	if p.ActiveRole != "" {
		role, err := navtree.ParsePaneRole(p.ActiveRole)
		if err != nil {
			return def, err
		}
		def.ActiveRole = role
	}
	if p.BackBehavior != "" {
		b, err := navtree.ParsePaneBackBehavior(p.BackBehavior)
		if err != nil {
			return def, err
		}
		def.BackBehavior = b
	}
	for name, pc := range p.Panes {
		role, err := navtree.ParsePaneRole(name)
		if err != nil {
			return def, err
		}
		pane := scope.PaneDefinition{}
		if pc.Adapt != "" {
			if pane.Adapt, err = navtree.ParseAdaptStrategy(pc.Adapt); err != nil {
				return def, err
			}
		}
		if pc.Root != "" {
			pane.Root = navtree.Route{Name: pc.Root}
		}
		def.Panes[role] = pane
	}
	if _, ok := def.Panes[navtree.RolePrimary]; !ok {
		return def, scope.ErrNoPrimary
	}
	if _, ok := def.Panes[def.ActiveRole]; !ok {
		return def, scope.ErrActiveRole
	}
	return def, nil
}

// Setup is the engine wiring a Config describes.
type Setup struct {
	Links    *deeplink.Registry
	Scopes   *scope.Registry
	Initial  navtree.Node
	Behavior treeops.BackBehavior
	Gesture  *gesture.Controller
	Scheme   string
}

// Env returns the routing environment for keys.
func (s *Setup) Env(keys navtree.KeyGenerator) treeops.Env {
	return treeops.Env{Scopes: s.Scopes, Containers: s.Scopes, Keys: keys}
}

// NavigatorOptions returns the options that install s into a navigator.
func (s *Setup) NavigatorOptions() []navigator.Option {
	return []navigator.Option{
		navigator.WithDeepLinks(s.Links),
		navigator.WithScopeRegistry(s.Scopes),
		navigator.WithBackBehavior(s.Behavior),
		navigator.WithGesture(s.Gesture),
	}
}

// Build validates the config and constructs the registries, the initial tree
// and the gesture controller. keys generates the initial tree's node keys;
// nil uses UUIDs.
func (c *Config) Build(keys navtree.KeyGenerator) (*Setup, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = navtree.UUIDKeys()
	}

	policy, _ := c.matchPolicy()
	behavior, _ := c.backBehavior()
	s := &Setup{
		Links:    deeplink.NewRegistry(deeplink.WithMatchPolicy(policy)),
		Scopes:   scope.NewRegistry(),
		Behavior: behavior,
		Scheme:   c.Scheme,
	}

	for _, r := range c.Routes {
		if err := s.Links.Register(r.Pattern, routeFactory(r.Route), deeplink.WithRoute(r.Route)); err != nil {
			return nil, errors.Classify(err, "N003").WithDetail("pattern " + r.Pattern)
		}
	}

	names := make([]string, 0, len(c.Scopes))
	for name := range c.Scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Scopes.Register(navtree.ScopeKey(name), c.Scopes[name]...)
	}
	for _, p := range c.PaneRoles {
		role, _ := navtree.ParsePaneRole(p.Role)
		s.Scopes.RegisterPaneRole(navtree.ScopeKey(p.Scope), p.Route, role)
	}
	for _, t := range c.Tabs {
		def, _ := t.definition()
		if err := s.Scopes.RegisterTabs(t.Route, def); err != nil {
			return nil, errors.New("N003").WithDetail("tabs " + t.Route).Wrap(err)
		}
	}
	for _, p := range c.Panes {
		def, _ := p.definition()
		if err := s.Scopes.RegisterPanes(p.Route, def); err != nil {
			return nil, errors.New("N003").WithDetail("panes " + p.Route).Wrap(err)
		}
	}

	env := s.Env(keys)
	rootKey := keys.NewKey()
	children := make([]navtree.Node, 0, len(c.Initial))
	for _, r := range c.Initial {
		children = append(children, env.NewNode(navtree.Route{Name: r}, rootKey))
	}
	s.Initial = navtree.NewStack(rootKey, "", children...)
	if err := navtree.Validate(s.Initial); err != nil {
		return nil, errors.Classify(err, "N003")
	}

	opts := []gesture.Option{gesture.WithMaxProgress(c.Gesture.MaxProgress)}
	if c.Gesture.DurationMs > 0 {
		opts = append(opts, gesture.WithAnimator(gesture.TickerAnimator{
			Duration: time.Duration(c.Gesture.DurationMs) * time.Millisecond,
		}))
	}
	s.Gesture = gesture.New(opts...)
	return s, nil
}

func routeFactory(name string) deeplink.Factory {
	return func(params map[string]string) (navtree.Destination, error) {
		if len(params) == 0 {
			return navtree.Route{Name: name}, nil
		}
		return navtree.Route{Name: name, Params: params}, nil
	}
}
