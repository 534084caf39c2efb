// Package config loads navstate configuration.
//
// The configuration lives in navstate.toml or navstate.json; the file
// extension selects the decoder. It declares the deep link patterns, scopes,
// container templates and initial routes of an application, plus the
// settings navctl uses for gestures, snapshot persistence and the inspector.
//
// # Configuration File Structure
//
//	name = "mail"
//	scheme = "app"
//	initial = ["home"]
//	match_policy = "most-specific"
//
//	[[routes]]
//	pattern = "items/{id}"
//	route = "item"
//
//	[scopes]
//	main = ["feed", "profile"]
//
//	[[tabs]]
//	route = "home"
//	scope = "main"
//	lanes = ["feed", "profile"]
//
//	[[panes]]
//	route = "inbox"
//	scope = "mail"
//	[panes.panes.primary]
//	root = "threads"
//	[panes.panes.supporting]
//	adapt = "levitate"
//
//	[[pane_roles]]
//	scope = "mail"
//	route = "thread"
//	role = "supporting"
//
//	[gesture]
//	max_progress = 0.25
//	duration_ms = 250
//
//	[store]
//	kind = "sqlite"
//	dsn = "file:nav.db"
//
// The JSON form uses the same structure with camelCase keys
// ("matchPolicy", "paneRoles", "initialIndex", "activeRole", ...).
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    return err
//	}
//	setup, err := cfg.Build(nil)
//	if err != nil {
//	    return err
//	}
//	nav := navigator.New(setup.Initial, setup.NavigatorOptions()...)
package config
