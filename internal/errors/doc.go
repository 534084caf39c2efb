// Package errors provides structured, actionable error messages for navctl.
//
// Engine packages return plain sentinel errors. At the CLI boundary they are
// classified into coded NavErrors that carry:
//   - a short message and a longer explanation
//   - the config file location, when the error came from a config file
//   - a suggestion on how to fix it
//
// # Error Categories
//
//   - config: config files that are missing, malformed or inconsistent
//   - tree: structural violations and missing nodes
//   - deeplink: link templates and unmatched links
//   - store: snapshot persistence
//   - cli: command usage
//
// # Usage
//
//	err := errors.New("N002").
//	    WithLocation("navstate.toml", 12, 3).
//	    WithSuggestion("Quote route names that contain dots")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR N002: Config file could not be parsed
//	//
//	//   navstate.toml:12:3
//	//
//	//   Hint: Quote route names that contain dots
package errors
