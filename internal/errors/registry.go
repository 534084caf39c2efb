package errors

import "sort"

// Template defines a registered error code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]Template{
	// Config (N001-N099)
	"N001": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "navctl looks for navstate.toml or navstate.json in the given directory.",
		Suggestion: "Pass --config with the path to your config file",
	},
	"N002": {
		Category:   CategoryConfig,
		Message:    "Config file could not be parsed",
		Suggestion: "Check the file syntax; the extension selects TOML or JSON",
	},
	"N003": {
		Category: CategoryConfig,
		Message:  "Invalid config",
	},
	"N004": {
		Category:   CategoryConfig,
		Message:    "Unsupported config format",
		Suggestion: "Use a .toml or .json file",
	},

	// Tree (N100-N199)
	"N101": {
		Category: CategoryTree,
		Message:  "Node not found",
		Detail:   "The operation targets a key that is not in the current tree.",
	},
	"N102": {
		Category: CategoryTree,
		Message:  "Tree invariant violated",
		Detail:   "Keys must be unique, tab lanes and pane contents must be stacks, and every pane container needs a primary pane.",
	},
	"N103": {
		Category:   CategoryTree,
		Message:    "Invalid snapshot",
		Suggestion: "Snapshots are produced by 'navctl simulate --snapshot' or Navigator.Snapshot",
	},
	"N104": {
		Category: CategoryTree,
		Message:  "Back delegated to system",
		Detail:   "Back would remove the root; the host application decides what happens.",
	},

	// Deep links (N200-N299)
	"N201": {
		Category:   CategoryDeepLink,
		Message:    "Deep link not matched",
		Suggestion: "Run 'navctl validate' to list the registered patterns",
	},
	"N202": {
		Category:   CategoryDeepLink,
		Message:    "Invalid deep link pattern",
		Suggestion: "Placeholders look like {name}; names must be unique within a pattern",
	},
	"N203": {
		Category: CategoryDeepLink,
		Message:  "No reverse mapping for destination",
		Detail:   "No registered pattern builds a URI for this route.",
	},

	// Store (N400-N499)
	"N401": {
		Category: CategoryStore,
		Message:  "Snapshot store unavailable",
	},
	"N402": {
		Category:   CategoryStore,
		Message:    "Unknown store kind",
		Suggestion: "Use memory, sqlite or s3",
	},

	// CLI (N500-N599)
	"N501": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"N502": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
