package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/treeops"
)

const simulateHelp = `Apply a sequence of navigation steps to the config's initial tree and
print the tree after each one.

Steps:
  push:<route>[?k=v]         navigate to a destination
  back                       pop the active screen
  gesture                    predictive back: preview the cascade, then commit
  pop-to:<route>             pop until <route> is on top
  pop-to-inclusive:<route>   pop <route> as well
  tab:<index>                switch the innermost tab container
  pane:<role>                switch the innermost pane container
  replace:<route>[?k=v]      replace the active screen
  clear:<route>[?k=v]        clear the active stack and push
  link:<uri>                 handle a deep link

Examples:
  navctl simulate push:item?id=42 back
  navctl simulate --from saved.json --snapshot out.json tab:1 push:settings`

func (c *cli) simulateCmd() *cobra.Command {
	var (
		from     string
		snapshot string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <step>...",
		Short: "Run navigation steps and print the resulting trees",
		Long:  simulateHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, setup, err := c.load(navtree.NewSequentialKeys("n"))
			if err != nil {
				return err
			}
			// Saved snapshots may already hold sequential keys.
			var keys navtree.KeyGenerator = navtree.NewSequentialKeys("s")
			if from != "" {
				keys = navtree.UUIDKeys()
			}
			opts := append(setup.NavigatorOptions(),
				navigator.WithKeys(keys),
				navigator.WithLogger(c.logger),
			)
			nav := navigator.New(setup.Initial, opts...)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if from != "" {
				data, err := os.ReadFile(from)
				if err != nil {
					return errors.New("N501").WithDetail("cannot read --from " + from).Wrap(err)
				}
				if err := nav.RestoreSnapshot(ctx, data); err != nil {
					return errors.Classify(err, "N103").WithDetail("snapshot " + from)
				}
			}

			if !quiet {
				fmt.Fprintln(c.stdout, c.styles.heading.Render("initial"))
				fmt.Fprint(c.stdout, c.styles.tree(nav.State()))
			}
			for i, step := range args {
				if err := c.step(ctx, nav, step); err != nil {
					ne := errors.Classify(err, "N502")
					ne.Detail = strings.TrimSpace(fmt.Sprintf("step %d %q: %s", i+1, step, ne.Detail))
					return ne
				}
				if !quiet {
					fmt.Fprintln(c.stdout)
					fmt.Fprintln(c.stdout, c.styles.heading.Render(step))
					fmt.Fprint(c.stdout, c.styles.tree(nav.State()))
				}
			}
			if quiet {
				fmt.Fprint(c.stdout, c.styles.tree(nav.State()))
			}

			if snapshot != "" {
				data, err := nav.Snapshot()
				if err != nil {
					return errors.Classify(err, "N103")
				}
				if err := os.WriteFile(snapshot, append(data, '\n'), 0644); err != nil {
					return errors.New("N502").WithDetail("cannot write --snapshot " + snapshot).Wrap(err)
				}
				c.logger.Info("snapshot written", "path", snapshot, "bytes", len(data))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start from a saved snapshot instead of the initial tree")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Write the final tree snapshot to this file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the final tree")
	return cmd
}

func (c *cli) step(ctx context.Context, nav *navigator.Navigator, step string) error {
	verb, arg, _ := strings.Cut(step, ":")
	needArg := func() error {
		if arg == "" {
			return errors.New("N501").WithDetail(verb + " needs an argument")
		}
		return nil
	}

	switch verb {
	case "push", "replace", "clear":
		if err := needArg(); err != nil {
			return err
		}
		dest, err := parseDestination(arg)
		if err != nil {
			return err
		}
		switch verb {
		case "push":
			return nav.Navigate(ctx, dest)
		case "replace":
			return nav.ReplaceCurrent(ctx, dest)
		default:
			return nav.ClearAndNavigate(ctx, dest)
		}

	case "back":
		outcome, err := nav.NavigateBack(ctx)
		if err != nil {
			return err
		}
		if outcome != treeops.Handled {
			c.styles.warning(c.stdout, "back: %s", outcome)
		}
		return nil

	case "gesture":
		cascade, err := nav.StartBackGesture()
		if err != nil {
			return err
		}
		if cascade.Revealed != nil {
			c.styles.field(c.stdout, "reveals", navtree.DescribeDestination(cascade.Revealed.Destination()))
		}
		c.styles.field(c.stdout, "removes", len(cascade.Removed))
		nav.UpdateBackGesture(1)
		err = nav.CompleteBackGesture(ctx)
		nav.Gesture().Wait()
		if stderrors.Is(err, navigator.ErrDelegateToSystem) {
			c.styles.warning(c.stdout, "gesture: %s", treeops.DelegateToSystem)
			return nil
		}
		return err

	case "pop-to", "pop-to-inclusive":
		if err := needArg(); err != nil {
			return err
		}
		return nav.PopToRoute(ctx, arg, verb == "pop-to-inclusive")

	case "tab":
		index, err := strconv.Atoi(arg)
		if err != nil {
			return errors.New("N501").WithDetail("tab index " + strconv.Quote(arg))
		}
		return nav.SwitchActiveTab(ctx, index)

	case "pane":
		role, err := navtree.ParsePaneRole(arg)
		if err != nil {
			return errors.New("N501").Wrap(err)
		}
		panes := treeops.ActivePanes(nav.State())
		if panes == nil {
			return errors.New("N501").WithDetail("no pane container on the active path")
		}
		return nav.SwitchPane(ctx, panes.Key(), role)

	case "link":
		if err := needArg(); err != nil {
			return err
		}
		res, err := nav.HandleDeepLink(ctx, arg)
		if err != nil {
			return err
		}
		if res.Status == deeplink.NotMatched {
			return errors.New("N201").WithDetail(arg)
		}
		return nil
	}
	return errors.New("N501").WithDetail("unknown step " + strconv.Quote(step))
}
