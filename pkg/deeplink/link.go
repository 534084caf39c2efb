package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

// Link is a parsed deep link.
type Link struct {
	Scheme string
	// Path is the escaped path without leading or trailing slashes. For
	// custom schemes the host is the first path segment.
	Path  string
	Query map[string]string
}

// Parse parses a URI or a bare path. For schemes other than http and https
// the authority is treated as part of the path, so "app://items/42" and
// "items/42" have the same Path.
func Parse(uri string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return Link{}, fmt.Errorf("deeplink: parse %q: %w", uri, err)
	}

	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		if u.Host != "" {
			path = url.PathEscape(u.Host) + "/" + strings.TrimPrefix(path, "/")
		}
	}

	clean, err := CleanPath(path)
	if err != nil {
		return Link{}, fmt.Errorf("deeplink: parse %q: %w", uri, err)
	}
	link := Link{Scheme: u.Scheme, Path: clean}
	if q := u.Query(); len(q) > 0 {
		link.Query = make(map[string]string, len(q))
		for k := range q {
			link.Query[k] = q.Get(k)
		}
	}
	return link, nil
}
