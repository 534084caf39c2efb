package navtree

import (
	"errors"
	"strings"
	"testing"
)

func route(name string) Route { return Route{Name: name} }

// sampleTree builds:
//
//	stack root
//	  screen home
//	  tabs tabs (active=1)
//	    stack lane0: feed
//	    stack lane1: profile, settings
func sampleTree() *StackNode {
	return NewStack("root", "",
		NewScreen("home", "", route("home")),
		NewTabs("tabs", "", 1,
			NewStack("lane0", "", NewScreen("feed", "", route("feed"))),
			NewStack("lane1", "",
				NewScreen("profile", "", route("profile")),
				NewScreen("settings", "", route("settings")),
			),
		),
	)
}

func samplePanes() *PaneNode {
	return NewPanes("panes", "", RoleSupporting, map[PaneRole]PaneConfig{
		RolePrimary: {Content: NewStack("list", "", NewScreen("l1", "", route("list")))},
		RoleSupporting: {
			Content: NewStack("detail", "", NewScreen("d1", "", Route{Name: "detail", Params: map[string]string{"id": "7"}})),
			Adapt:   AdaptLevitate,
		},
	})
}

func expectStructuralPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value = %#v, want error", r)
		}
		if !errors.Is(err, ErrStructural) || !errors.Is(err, want) {
			t.Fatalf("panic error = %v, want structural %v", err, want)
		}
	}()
	fn()
}

func TestConstructorsReparentChildren(t *testing.T) {
	root := sampleTree()

	if err := Validate(root); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	tabs := root.At(1).(*TabNode)
	if tabs.ParentKey() != "root" {
		t.Errorf("tabs parent = %q, want root", tabs.ParentKey())
	}
	if lane := tabs.Lane(0); lane.ParentKey() != "tabs" {
		t.Errorf("lane0 parent = %q, want tabs", lane.ParentKey())
	}
	if s := tabs.Lane(1).At(1); s.ParentKey() != "lane1" {
		t.Errorf("settings parent = %q, want lane1", s.ParentKey())
	}
}

func TestNewTabsPanicsOnInvalidIndex(t *testing.T) {
	expectStructuralPanic(t, ErrIndexOutOfRange, func() {
		NewTabs("t", "", 2, NewStack("a", ""), NewStack("b", ""))
	})
	expectStructuralPanic(t, ErrNoLanes, func() {
		NewTabs("t", "", 0)
	})
}

func TestNewPanesRequiresPrimary(t *testing.T) {
	expectStructuralPanic(t, ErrMissingPrimaryPane, func() {
		NewPanes("p", "", RoleSupporting, map[PaneRole]PaneConfig{
			RoleSupporting: {Content: NewStack("s", "")},
		})
	})
	expectStructuralPanic(t, ErrInvalidPaneRole, func() {
		NewPanes("p", "", RoleExtra, map[PaneRole]PaneConfig{
			RolePrimary: {Content: NewStack("s", "")},
		})
	})
}

func TestWithActiveIndexKeepsLanes(t *testing.T) {
	tabs := sampleTree().At(1).(*TabNode)
	switched := tabs.WithActiveIndex(0)

	if switched.ActiveIndex() != 0 {
		t.Fatalf("ActiveIndex() = %d, want 0", switched.ActiveIndex())
	}
	for i := 0; i < tabs.LaneCount(); i++ {
		if switched.Lane(i) != tabs.Lane(i) {
			t.Errorf("lane %d was copied, want shared", i)
		}
	}
	if tabs.ActiveIndex() != 1 {
		t.Error("original tab node was modified")
	}
}

func TestStackPushPopDoNotMutate(t *testing.T) {
	s := NewStack("s", "", NewScreen("a", "", route("a")))
	pushed := s.Push(NewScreen("b", "", route("b")))
	popped := pushed.Pop()

	if s.Len() != 1 || pushed.Len() != 2 || popped.Len() != 1 {
		t.Fatalf("lens = %d/%d/%d, want 1/2/1", s.Len(), pushed.Len(), popped.Len())
	}
	if pushed.Top().ParentKey() != "s" {
		t.Errorf("pushed child parent = %q, want s", pushed.Top().ParentKey())
	}
	if !Equal(s, popped) {
		t.Error("pop(push(s)) != s")
	}

	again := popped.Push(NewScreen("c", "", route("c")))
	if pushed.Top().Key() != "b" {
		t.Errorf("push after pop overwrote shared array: top = %q", pushed.Top().Key())
	}
	if again.Top().Key() != "c" {
		t.Errorf("again top = %q, want c", again.Top().Key())
	}
}

func TestActivePath(t *testing.T) {
	root := sampleTree()
	var keys []string
	for _, n := range ActivePath(root) {
		keys = append(keys, string(n.Key()))
	}
	if got := strings.Join(keys, ","); got != "root,tabs,lane1,settings" {
		t.Errorf("ActivePath = %s, want root,tabs,lane1,settings", got)
	}
	if leaf := ActiveLeaf(root); leaf == nil || leaf.Key() != "settings" {
		t.Errorf("ActiveLeaf = %v, want settings", leaf)
	}
	if s := ActiveStack(root); s == nil || s.Key() != "lane1" {
		t.Errorf("ActiveStack = %v, want lane1", s)
	}
	if d := CurrentDestination(root); d == nil || d.Route() != "settings" {
		t.Errorf("CurrentDestination = %v, want settings", d)
	}
}

func TestActivePathEndsAtEmptyStack(t *testing.T) {
	root := NewStack("root", "", NewStack("inner", ""))
	if leaf := ActiveLeaf(root); leaf != nil {
		t.Errorf("ActiveLeaf = %v, want nil", leaf)
	}
	if s := ActiveStack(root); s == nil || s.Key() != "inner" {
		t.Errorf("ActiveStack = %v, want inner", s)
	}
}

func TestPaneActivePathFollowsActiveRole(t *testing.T) {
	p := samplePanes()
	if leaf := ActiveLeaf(p); leaf == nil || leaf.Key() != "d1" {
		t.Fatalf("ActiveLeaf = %v, want d1", leaf)
	}
	roles := p.Roles()
	if len(roles) != 2 || roles[0] != RolePrimary || roles[1] != RoleSupporting {
		t.Errorf("Roles() = %v, want [primary supporting]", roles)
	}
	if leaf := ActiveLeaf(p.WithActiveRole(RolePrimary)); leaf == nil || leaf.Key() != "l1" {
		t.Errorf("ActiveLeaf after switch = %v, want l1", leaf)
	}
}

func TestFindAndParent(t *testing.T) {
	root := sampleTree()

	if n := Find(root, "profile"); n == nil || n.Kind() != KindScreen {
		t.Fatalf("Find(profile) = %v", n)
	}
	if Find(root, "missing") != nil {
		t.Error("Find(missing) should be nil")
	}
	if p := ParentOf(root, "profile"); p == nil || p.Key() != "lane1" {
		t.Errorf("ParentOf(profile) = %v, want lane1", p)
	}
	if ParentOf(root, "root") != nil {
		t.Error("root has no parent")
	}
	if got := Count(root); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
	if got := Depth(root); got != 4 {
		t.Errorf("Depth() = %d, want 4", got)
	}
	if got := Depth(nil); got != 0 {
		t.Errorf("Depth(nil) = %d, want 0", got)
	}
}

func TestWalkStops(t *testing.T) {
	visited := 0
	complete := Walk(sampleTree(), func(n Node, _ int) bool {
		visited++
		return n.Key() != "tabs"
	})
	if complete {
		t.Error("Walk reported completion after stop")
	}
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	tests := []struct {
		name string
		root Node
		want error
	}{
		{
			name: "duplicate key",
			root: NewStack("root", "", NewScreen("a", "", route("a")), NewScreen("a", "", route("b"))),
			want: ErrDuplicateKey,
		},
		{
			name: "root with parent",
			root: NewStack("root", "elsewhere"),
			want: ErrParentMismatch,
		},
		{
			name: "empty key",
			root: NewStack("root", "", NewScreen("", "", route("a"))),
			want: ErrEmptyKey,
		},
		{
			name: "parent mismatch",
			root: &StackNode{key: "root", children: []Node{NewScreen("a", "other", route("a"))}},
			want: ErrParentMismatch,
		},
		{
			name: "tab index",
			root: &TabNode{key: "t", lanes: []*StackNode{NewStack("l", "t")}, activeIndex: 3},
			want: ErrIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("Validate() = %T, want *StructuralError", err)
			}
		})
	}
}

func TestEqualComparesPersistentFields(t *testing.T) {
	a := sampleTree()
	b := sampleTree()
	if a == b {
		t.Fatal("expected distinct instances")
	}
	if !Equal(a, b) {
		t.Error("structurally identical trees should be equal")
	}

	c, err := ReplaceNode(b, "feed", NewScreen("feed", "", route("news")))
	if err != nil {
		t.Fatalf("ReplaceNode() error: %v", err)
	}
	if Equal(a, c) {
		t.Error("trees with different destinations should differ")
	}
	if Equal(samplePanes(), samplePanes().WithBackBehavior(BackPopLatest)) {
		t.Error("back behavior is a persistent field")
	}
}

func TestSequentialKeys(t *testing.T) {
	keys := NewSequentialKeys("n")
	if k := keys.NewKey(); k != "n1" {
		t.Errorf("first key = %q, want n1", k)
	}
	if k := keys.NewKey(); k != "n2" {
		t.Errorf("second key = %q, want n2", k)
	}
	if UUIDKeys().NewKey() == UUIDKeys().NewKey() {
		t.Error("UUID keys collided")
	}
}

func TestFormat(t *testing.T) {
	got := Format(NewStack("root", "",
		NewScreen("s1", "", route("home")),
		NewScreen("s2", "", Route{Name: "detail", Params: map[string]string{"id": "42"}}),
	))
	want := "*stack root\n   screen s1 home\n  *screen s2 detail id=42\n"
	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}
