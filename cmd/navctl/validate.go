package main

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/navtree"
)

func (c *cli) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config and print what it registers",
		Long: `Load and build the config, then print its deep link patterns, scopes,
container templates and initial tree.

Examples:
  navctl validate
  navctl validate --config nav/navstate.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, setup, err := c.load(navtree.NewSequentialKeys("n"))
			if err != nil {
				return err
			}

			out := c.stdout
			name := cfg.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Fprintln(out, c.styles.heading.Render(name))
			c.styles.field(out, "config", cfg.Path())
			c.styles.field(out, "scheme", setup.Scheme)
			c.styles.field(out, "back", setup.Behavior)
			c.styles.field(out, "gesture", fmt.Sprintf("max progress %.2f", setup.Gesture.MaxProgress()))
			if cfg.Store.Kind != "" {
				c.styles.field(out, "store", cfg.Store.Kind)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, c.styles.heading.Render("patterns"))
			for _, p := range setup.Links.Patterns() {
				fmt.Fprintf(out, "  %s\n", p)
			}

			if len(cfg.Scopes) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, c.styles.heading.Render("scopes"))
				names := make([]string, 0, len(cfg.Scopes))
				for n := range cfg.Scopes {
					names = append(names, n)
				}
				sort.Strings(names)
				for _, n := range names {
					c.styles.field(out, n, cfg.Scopes[n])
				}
			}

			if len(cfg.Tabs)+len(cfg.Panes) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, c.styles.heading.Render("containers"))
				for _, t := range cfg.Tabs {
					c.styles.field(out, t.Route, fmt.Sprintf("tabs %v", t.Lanes))
				}
				for _, p := range cfg.Panes {
					roles := make([]string, 0, len(p.Panes))
					for r := range p.Panes {
						roles = append(roles, r)
					}
					sort.Strings(roles)
					c.styles.field(out, p.Route, fmt.Sprintf("panes %v", roles))
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, c.styles.heading.Render("initial tree"))
			fmt.Fprint(out, c.styles.tree(setup.Initial))
			fmt.Fprintln(out)
			c.styles.success(out, "config is valid")
			return nil
		},
	}
	return cmd
}

func (c *cli) explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe navctl error codes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				t, ok := errors.Lookup(args[0])
				if !ok {
					return errors.New("N501").WithDetail("unknown error code " + args[0])
				}
				fmt.Fprintln(c.stdout, c.styles.heading.Render(args[0]+" "+t.Message))
				c.styles.field(c.stdout, "category", t.Category)
				if t.Detail != "" {
					c.styles.field(c.stdout, "detail", t.Detail)
				}
				if t.Suggestion != "" {
					c.styles.field(c.stdout, "suggestion", t.Suggestion)
				}
				return nil
			}
			for _, code := range errors.Codes() {
				t, _ := errors.Lookup(code)
				fmt.Fprintf(c.stdout, "  %s  %s\n", c.styles.label.Render(code), t.Message)
			}
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(c.stdout, version)
				return
			}
			c.styles.field(c.stdout, "Version:", version)
			c.styles.field(c.stdout, "Commit:", commit)
			c.styles.field(c.stdout, "Built:", date)
			c.styles.field(c.stdout, "Go version:", runtime.Version())
			c.styles.field(c.stdout, "OS/Arch:", runtime.GOOS+"/"+runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
