// Package deeplink maps URIs to destinations and back.
//
// Patterns are route templates with {name} placeholders, each matching one
// path segment:
//
//	reg := deeplink.NewRegistry()
//	reg.Register("items/{id}", func(p map[string]string) (navtree.Destination, error) {
//	    return Item{ID: p["id"]}, nil
//	})
//	res := reg.Match("app://items/42?tab=reviews")
//	// res.Status == deeplink.Matched, res.Params == {"id": "42", "tab": "reviews"}
//
// Unknown input never produces an error: Match reports NotMatched.
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Compilation errors.
var (
	ErrUnbalancedBraces = errors.New("deeplink: unbalanced braces in pattern")
	ErrEmptyParam       = errors.New("deeplink: empty parameter name")
	ErrDuplicateParam   = errors.New("deeplink: duplicate parameter name")
	ErrDuplicatePattern = errors.New("deeplink: pattern already registered")
)

// Pattern is a compiled route template.
type Pattern struct {
	template string
	re       *regexp.Regexp
	names    []string
	literals int
}

// Compile compiles a route template. Leading and trailing slashes are
// ignored. Literal text is matched exactly; each {name} matches one
// non-empty segment.
func Compile(template string) (*Pattern, error) {
	tpl := strings.Trim(template, "/")

	var (
		expr  strings.Builder
		names []string
		seen  = make(map[string]bool)
	)
	expr.WriteByte('^')
	rest := tpl
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if close := strings.IndexByte(rest, '}'); close >= 0 && (open < 0 || close < open) {
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedBraces, template)
		}
		if open < 0 {
			expr.WriteString(regexp.QuoteMeta(rest))
			break
		}
		expr.WriteString(regexp.QuoteMeta(rest[:open]))
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedBraces, template)
		}
		name := rest[open+1 : open+end]
		switch {
		case name == "":
			return nil, fmt.Errorf("%w: %q", ErrEmptyParam, template)
		case strings.ContainsAny(name, "{/"):
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedBraces, template)
		case seen[name]:
			return nil, fmt.Errorf("%w %q in %q", ErrDuplicateParam, name, template)
		}
		seen[name] = true
		names = append(names, name)
		expr.WriteString("([^/]+)")
		rest = rest[open+end+1:]
	}
	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("deeplink: compile %q: %w", template, err)
	}

	literals := 0
	if tpl != "" {
		for _, seg := range strings.Split(tpl, "/") {
			if !strings.Contains(seg, "{") {
				literals++
			}
		}
	}
	return &Pattern{template: tpl, re: re, names: names, literals: literals}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the normalized template.
func (p *Pattern) String() string { return p.template }

// Names returns the parameter names in template order.
func (p *Pattern) Names() []string { return append([]string(nil), p.names...) }

// Match matches an escaped path and returns the decoded parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(strings.Trim(path, "/"))
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		v, err := url.PathUnescape(m[i+1])
		if err != nil {
			v = m[i+1]
		}
		params[name] = v
	}
	return params, true
}

// Expand substitutes params into the template. Values are path-escaped.
// It reports false when a parameter is missing or empty.
func (p *Pattern) Expand(params map[string]string) (string, bool) {
	if len(p.names) == 0 {
		return p.template, true
	}
	var b strings.Builder
	rest := p.template
	for _, name := range p.names {
		ph := "{" + name + "}"
		i := strings.Index(rest, ph)
		v := params[name]
		if i < 0 || v == "" {
			return "", false
		}
		b.WriteString(rest[:i])
		b.WriteString(url.PathEscape(v))
		rest = rest[i+len(ph):]
	}
	b.WriteString(rest)
	return b.String(), true
}
