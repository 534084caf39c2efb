package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/treeops"
)

const mailTOML = `
name = "mail"
initial = ["home"]
match_policy = "most-specific"

[[routes]]
pattern = "items/{id}"
route = "item"

[[routes]]
pattern = "items/new"
route = "compose"

[[routes]]
pattern = "inbox"
route = "inbox"

[scopes]
main = ["feed", "profile", "item"]
mail = ["threads", "thread"]

[[tabs]]
route = "home"
scope = "main"
initial_index = 1
lanes = ["feed", "profile"]

[[panes]]
route = "inbox"
scope = "mail"
back_behavior = "pop-latest"
[panes.panes.primary]
root = "threads"
[panes.panes.supporting]
adapt = "levitate"

[[pane_roles]]
scope = "mail"
route = "thread"
role = "supporting"

[gesture]
max_progress = 0.5

[back]
behavior = "preserve-stacks"

[store]
kind = "sqlite"
dsn = ":memory:"
`

const mailJSON = `{
  "name": "mail",
  "initial": ["home", "about"],
  "routes": [{"pattern": "items/{id}", "route": "item"}],
  "scopes": {"main": ["feed"]},
  "tabs": [{"route": "home", "scope": "main", "lanes": ["feed", ""]}],
  "gesture": {"durationMs": 100},
  "inspector": {"addr": ":9000", "metrics": true}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func expectCode(t *testing.T, err error, code string) *errors.NavError {
	t.Helper()
	var ne *errors.NavError
	if !stderrors.As(err, &ne) {
		t.Fatalf("err = %v (%T), want NavError %s", err, err, code)
	}
	if ne.Code != code {
		t.Fatalf("code = %s, want %s (%v)", ne.Code, code, err)
	}
	return ne
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scheme != DefaultScheme {
		t.Errorf("Scheme = %q, want %q", cfg.Scheme, DefaultScheme)
	}
	if len(cfg.Initial) != 1 || cfg.Initial[0] != DefaultInitialRoute {
		t.Errorf("Initial = %v, want [%s]", cfg.Initial, DefaultInitialRoute)
	}
	if cfg.Gesture.MaxProgress != gesture.DefaultMaxProgress {
		t.Errorf("Gesture.MaxProgress = %v", cfg.Gesture.MaxProgress)
	}
	if cfg.Store.ID != DefaultStoreID || cfg.Inspector.Addr != DefaultInspectorAddr {
		t.Errorf("Store.ID = %q, Inspector.Addr = %q", cfg.Store.ID, cfg.Inspector.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), TOMLFileName, mailTOML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != path || cfg.Dir() != filepath.Dir(path) {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}
	if cfg.Name != "mail" || cfg.MatchPolicy != "most-specific" {
		t.Errorf("Name = %q, MatchPolicy = %q", cfg.Name, cfg.MatchPolicy)
	}
	if len(cfg.Routes) != 3 || cfg.Routes[1].Pattern != "items/new" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
	if got := cfg.Scopes["mail"]; len(got) != 2 || got[1] != "thread" {
		t.Errorf("Scopes[mail] = %v", got)
	}
	if len(cfg.Panes) != 1 || cfg.Panes[0].Panes["supporting"].Adapt != "levitate" {
		t.Errorf("Panes = %+v", cfg.Panes)
	}
	if cfg.Tabs[0].InitialIndex != 1 {
		t.Errorf("Tabs[0].InitialIndex = %d, want 1", cfg.Tabs[0].InitialIndex)
	}
	if cfg.Store.Kind != "sqlite" || cfg.Store.DSN != ":memory:" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Scheme != DefaultScheme {
		t.Errorf("Scheme default not applied: %q", cfg.Scheme)
	}
}

func TestLoadFromDir(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFromDir(t.TempDir())
		expectCode(t, err, "N001")
	})

	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, JSONFileName, mailJSON)
		cfg, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("LoadFromDir error: %v", err)
		}
		if len(cfg.Initial) != 2 || cfg.Inspector.Addr != ":9000" || !cfg.Inspector.Metrics {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("toml wins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, JSONFileName, mailJSON)
		writeFile(t, dir, TOMLFileName, mailTOML)
		cfg, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("LoadFromDir error: %v", err)
		}
		if filepath.Base(cfg.Path()) != TOMLFileName {
			t.Errorf("loaded %s, want %s", cfg.Path(), TOMLFileName)
		}
	})
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.toml"))
	expectCode(t, err, "N001")

	_, err = Load(writeFile(t, dir, "nav.yaml", "name: x"))
	expectCode(t, err, "N004")

	_, err = Load(writeFile(t, dir, "bad.json", "{"))
	expectCode(t, err, "N002")

	path := writeFile(t, dir, "bad.toml", "name = \"x\"\ninitial = [\n")
	_, err = Load(path)
	ne := expectCode(t, err, "N002")
	if ne.Location == nil || ne.Location.File != path || ne.Location.Line == 0 {
		t.Errorf("Location = %+v, want a position in %s", ne.Location, path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
		detail string
	}{
		{"empty initial route", func(c *Config) { c.Initial = []string{""} }, "N003", "initial[0]"},
		{"match policy", func(c *Config) { c.MatchPolicy = "random" }, "N003", "matchPolicy"},
		{"back behavior", func(c *Config) { c.Back.Behavior = "sideways" }, "N003", "back.behavior"},
		{"route without name", func(c *Config) { c.Routes = []RouteConfig{{Pattern: "a"}} }, "N003", "no route"},
		{"bad pattern", func(c *Config) { c.Routes = []RouteConfig{{Pattern: "a/{id", Route: "a"}} }, "N202", "routes[0]"},
		{"pane role", func(c *Config) {
			c.PaneRoles = []PaneRoleConfig{{Scope: "s", Route: "r", Role: "sidebar"}}
		}, "N003", "paneRoles[0]"},
		{"tabs without lanes", func(c *Config) { c.Tabs = []TabsConfig{{Route: "home"}} }, "N003", "tabs \"home\""},
		{"tabs index", func(c *Config) {
			c.Tabs = []TabsConfig{{Route: "home", Lanes: []string{"a"}, InitialIndex: 1}}
		}, "N003", "initial tab index"},
		{"panes without primary", func(c *Config) {
			c.Panes = []PanesConfig{{Route: "inbox", Panes: map[string]PaneConfig{"supporting": {}}}}
		}, "N003", "primary"},
		{"panes active role", func(c *Config) {
			c.Panes = []PanesConfig{{Route: "inbox", ActiveRole: "extra", Panes: map[string]PaneConfig{"primary": {}}}}
		}, "N003", "active pane role"},
		{"panes adapt", func(c *Config) {
			c.Panes = []PanesConfig{{Route: "inbox", Panes: map[string]PaneConfig{"primary": {Adapt: "shrink"}}}}
		}, "N003", "adapt"},
		{"max progress", func(c *Config) { c.Gesture.MaxProgress = 1.5 }, "N003", "maxProgress"},
		{"store kind", func(c *Config) { c.Store.Kind = "redis" }, "N402", "redis"},
		{"sqlite dsn", func(c *Config) { c.Store.Kind = "sqlite" }, "N003", "dsn"},
		{"s3 bucket", func(c *Config) { c.Store.Kind = "s3" }, "N003", "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			ne := expectCode(t, cfg.Validate(), tt.code)
			if !strings.Contains(ne.Error()+ne.Detail, tt.detail) {
				t.Errorf("error %q (detail %q) does not mention %q", ne.Error(), ne.Detail, tt.detail)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(mailTOML), ".toml", "mail.toml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	setup, err := cfg.Build(navtree.NewSequentialKeys("k"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if setup.Behavior != treeops.PreserveStacks {
		t.Errorf("Behavior = %v, want preserve-stacks", setup.Behavior)
	}
	if setup.Gesture.MaxProgress() != 0.5 {
		t.Errorf("MaxProgress = %v, want 0.5", setup.Gesture.MaxProgress())
	}

	// home is a tabs template, so the initial tree starts on the profile lane.
	if setup.Initial.Key() != "k1" {
		t.Errorf("root key = %q, want k1", setup.Initial.Key())
	}
	if d := navtree.CurrentDestination(setup.Initial); d == nil || d.Route() != "profile" {
		t.Fatalf("current = %v, want profile\n%s", d, navtree.Format(setup.Initial))
	}

	// Most specific wins over registration order.
	res := setup.Links.Match("app://items/new")
	if res.Status != deeplink.Matched || res.Destination.Route() != "compose" {
		t.Errorf("items/new = %v %v, want compose", res.Status, res.Destination)
	}
	uri, ok := setup.Links.CreateURI(navtree.Route{Name: "item", Params: map[string]string{"id": "42"}}, setup.Scheme)
	if !ok || uri != "app://items/42" {
		t.Errorf("CreateURI = %q, %v", uri, ok)
	}

	if s, ok := setup.Scopes.ScopeKey(navtree.Route{Name: "thread"}); !ok || s != "mail" {
		t.Errorf("ScopeKey(thread) = %q, %v", s, ok)
	}
	if role, ok := setup.Scopes.PaneRole("mail", navtree.Route{Name: "thread"}); !ok || role != navtree.RoleSupporting {
		t.Errorf("PaneRole(thread) = %v, %v", role, ok)
	}
	def, ok := setup.Scopes.Panes("inbox")
	if !ok || def.BackBehavior != navtree.BackPopLatest || def.Panes[navtree.RoleSupporting].Adapt != navtree.AdaptLevitate {
		t.Errorf("Panes(inbox) = %+v, %v", def, ok)
	}
}

func TestBuildDrivesNavigator(t *testing.T) {
	cfg, err := Parse([]byte(mailTOML), ".toml", "mail.toml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	setup, err := cfg.Build(navtree.NewSequentialKeys("k"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	nav := navigator.New(setup.Initial, append(setup.NavigatorOptions(), navigator.WithKeys(navtree.NewSequentialKeys("n")))...)
	ctx := context.Background()

	if _, err := nav.HandleDeepLink(ctx, "app://inbox"); err != nil {
		t.Fatalf("HandleDeepLink(inbox) error: %v", err)
	}
	if got := nav.CurrentDestination(); got == nil || got.Route() != "threads" {
		t.Fatalf("current = %v, want threads\n%s", got, navtree.Format(nav.State()))
	}
	if err := nav.Navigate(ctx, navtree.Route{Name: "thread"}); err != nil {
		t.Fatalf("Navigate(thread) error: %v", err)
	}
	panes := treeops.ActivePanes(nav.State())
	if panes == nil || panes.ActiveRole() != navtree.RoleSupporting {
		t.Fatalf("thread should open in the supporting pane\n%s", navtree.Format(nav.State()))
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Routes = []RouteConfig{{Pattern: "a", Route: "a"}, {Pattern: "a", Route: "b"}}
	_, err := cfg.Build(nil)
	expectCode(t, err, "N202")
	if !stderrors.Is(err, deeplink.ErrDuplicatePattern) {
		t.Errorf("err = %v, want ErrDuplicatePattern", err)
	}
}

func TestBuildEmptyLane(t *testing.T) {
	cfg, err := Parse([]byte(mailJSON), ".json", "mail.json")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	setup, err := cfg.Build(navtree.NewSequentialKeys("k"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	root := setup.Initial.(*navtree.StackNode)
	if root.Len() != 2 {
		t.Fatalf("root has %d children, want 2", root.Len())
	}
	tabs, ok := root.At(0).(*navtree.TabNode)
	if !ok {
		t.Fatalf("first child = %T, want tabs", root.At(0))
	}
	if !tabs.Lane(1).Empty() {
		t.Error("lane with no route should start empty")
	}
	if d := navtree.CurrentDestination(setup.Initial); d == nil || d.Route() != "about" {
		t.Errorf("current = %v, want about", d)
	}
}
