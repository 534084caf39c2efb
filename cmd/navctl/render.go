package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/navstate/pkg/navtree"
)

type styles struct {
	active    lipgloss.Style
	inactive  lipgloss.Style
	container lipgloss.Style
	screen    lipgloss.Style
	label     lipgloss.Style
	ok        lipgloss.Style
	warn      lipgloss.Style
	fail      lipgloss.Style
	heading   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, plain bool) styles {
	if plain {
		s := r.NewStyle()
		return styles{s, s, s, s, s, s, s, s, s}
	}
	return styles{
		active:    r.NewStyle().Foreground(lipgloss.Color("#5f9fb0")).Bold(true),
		inactive:  r.NewStyle().Foreground(lipgloss.Color("#6c757d")),
		container: r.NewStyle().Foreground(lipgloss.Color("#f39c12")),
		screen:    r.NewStyle().Foreground(lipgloss.Color("255")),
		label:     r.NewStyle().Foreground(lipgloss.Color("#6c757d")).Bold(true),
		ok:        r.NewStyle().Foreground(lipgloss.Color("#2ecc71")).Bold(true),
		warn:      r.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true),
		fail:      r.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true),
		heading:   r.NewStyle().Bold(true).Underline(true),
	}
}

// tree renders root as an outline with the active path highlighted.
func (s styles) tree(root navtree.Node) string {
	if root == nil {
		return s.inactive.Render("<empty>") + "\n"
	}
	active := make(map[navtree.NodeKey]bool)
	for _, n := range navtree.ActivePath(root) {
		active[n.Key()] = true
	}

	var b strings.Builder
	navtree.Walk(root, func(n navtree.Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		label := navtree.Label(n)
		switch {
		case !active[n.Key()]:
			b.WriteString("  " + s.inactive.Render(label))
		case n.Kind() == navtree.KindScreen:
			b.WriteString(s.active.Render("▸ ") + s.screen.Render(label))
		default:
			b.WriteString(s.active.Render("▸ ") + s.container.Render(label))
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func (s styles) field(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "  %s %v\n", s.label.Render(fmt.Sprintf("%-12s", name)), value)
}

func (s styles) success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", s.ok.Render("✓"), fmt.Sprintf(format, args...))
}

func (s styles) warning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", s.warn.Render("⚠"), fmt.Sprintf(format, args...))
}

func (s styles) failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", s.fail.Render("✗"), fmt.Sprintf(format, args...))
}
