package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navtree"
)

type resolution struct {
	URI     string            `json:"uri"`
	Status  string            `json:"status"`
	Route   string            `json:"route,omitempty"`
	Pattern string            `json:"pattern,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func resolve(links *deeplink.Registry, uri string) resolution {
	res := links.Match(uri)
	r := resolution{
		URI:     uri,
		Status:  res.Status.String(),
		Pattern: res.Pattern,
		Params:  res.Params,
	}
	if res.Destination != nil {
		r.Route = res.Destination.Route()
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

func (c *cli) resolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <uri>...",
		Short: "Resolve deep links against the configured patterns",
		Long: `Resolve each URI with the config's deep link registry and print the
matched pattern, route and parameters.

Examples:
  navctl resolve app://items/42
  navctl resolve --json "app://search?q=shoes" items/new`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, setup, err := c.load(nil)
			if err != nil {
				return err
			}

			results := make([]resolution, 0, len(args))
			var missed []string
			for _, uri := range args {
				r := resolve(setup.Links, uri)
				results = append(results, r)
				if r.Status == deeplink.NotMatched.String() {
					missed = append(missed, uri)
				}
			}

			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					c.printResolution(r)
				}
			}

			if len(missed) > 0 {
				return errors.New("N201").WithDetail(strings.Join(missed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func (c *cli) printResolution(r resolution) {
	switch r.Status {
	case deeplink.Matched.String():
		c.styles.success(c.stdout, "%s → %s", r.URI, r.Route)
	case deeplink.ActionMatched.String():
		c.styles.success(c.stdout, "%s → action", r.URI)
	default:
		c.styles.failure(c.stdout, "%s not matched", r.URI)
	}
	if r.Pattern != "" {
		c.styles.field(c.stdout, "pattern", r.Pattern)
	}
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.styles.field(c.stdout, k, r.Params[k])
	}
	if r.Error != "" {
		c.styles.field(c.stdout, "error", r.Error)
	}
}

func (c *cli) uriCmd() *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "uri <route> [key=value]...",
		Short: "Build the deep link URI for a destination",
		Long: `Build the URI that resolves back to the given route and parameters.

Examples:
  navctl uri item id=42
  navctl uri --scheme https search q=shoes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, setup, err := c.load(nil)
			if err != nil {
				return err
			}
			dest, err := parseDestination(args[0], args[1:]...)
			if err != nil {
				return err
			}
			if scheme == "" {
				scheme = setup.Scheme
			}
			uri, ok := setup.Links.CreateURI(dest, scheme)
			if !ok {
				return errors.New("N203").WithDetail("route " + navtree.DescribeDestination(dest))
			}
			fmt.Fprintln(c.stdout, uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&scheme, "scheme", "", "URI scheme (default from config)")
	return cmd
}

// parseDestination builds a Route from a name, optionally with a query
// ("item?id=42"), plus key=value pairs.
func parseDestination(text string, pairs ...string) (navtree.Route, error) {
	name, query, _ := strings.Cut(text, "?")
	if name == "" {
		return navtree.Route{}, errors.New("N501").WithDetail("empty route in " + text)
	}
	params := make(map[string]string)
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return navtree.Route{}, errors.New("N501").WithDetail("bad query in " + text).Wrap(err)
		}
		for k := range values {
			params[k] = values.Get(k)
		}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return navtree.Route{}, errors.New("N501").WithDetail("expected key=value, got " + p)
		}
		params[k] = v
	}
	if len(params) == 0 {
		return navtree.Route{Name: name}, nil
	}
	return navtree.Route{Name: name, Params: params}, nil
}
