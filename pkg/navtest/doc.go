// Package navtest provides helpers for testing code built on navstate.
//
// # Trees
//
// Short constructors build literal trees with deterministic keys:
//
//	tree := navtest.Stack("root",
//	    navtest.Screen("home", "home"),
//	    navtest.Screen("d1", "detail", "id", "42"),
//	)
//
// # Navigators
//
// The fluent builder wires a navigator with sequential keys:
//
//	nav := navtest.NewNav().
//	    WithScreens("home").
//	    WithScope("main", "feed", "profile").
//	    WithLink("items/{id}", "item").
//	    Build()
//
// # Assertions
//
//	navtest.ExpectRoute(t, nav.State(), "detail")
//	navtest.ExpectActivePath(t, nav.State(), "root", "d1")
//	navtest.ExpectShared(t, before, after, "home")
//
// Record what a navigator showed over time:
//
//	rec := navtest.Record(nav)
//	defer rec.Stop()
//	...
//	if got := rec.Routes(); ...
package navtest
