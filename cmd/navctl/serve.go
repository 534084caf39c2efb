package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/inspect"
	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/snapstore"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live navigator behind the HTTP inspector",
		Long: `Start a navigator built from the config and expose it over HTTP.

The inspector serves the tree as JSON and text, accepts deep links, back
and tab switches, and streams every change over a WebSocket at /ws. When
the config has a [store] section the tree is restored on start and saved
after every change.

Examples:
  navctl serve
  navctl serve --addr :7070 --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, setup, err := c.load(nil)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspector.Addr = addr
			}
			if metrics {
				cfg.Inspector.Metrics = true
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			opts := append(setup.NavigatorOptions(),
				navigator.WithLogger(c.logger),
				navigator.WithMetrics(navigator.NewMetrics(navigator.WithRegistry(reg))),
			)
			nav := navigator.New(setup.Initial, opts...)

			store, closeStore, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()
			if store != nil {
				p := snapstore.NewPersister(store, cfg.Store.ID, nav, snapstore.WithPersisterLogger(c.logger))
				restored, err := p.Restore(ctx)
				if err != nil {
					c.styles.warning(c.stdout, "could not restore snapshot %s: %v", cfg.Store.ID, err)
				} else if restored {
					c.styles.success(c.stdout, "restored snapshot %s", cfg.Store.ID)
				}
				p.Start()
				defer func() {
					if err := p.Close(); err != nil {
						c.logger.Error("final snapshot save failed", "error", err)
					}
				}()
			}

			inspOpts := []inspect.Option{inspect.WithLogger(c.logger)}
			if cfg.Inspector.Metrics {
				inspOpts = append(inspOpts, inspect.WithGatherer(reg))
			}
			insp := inspect.New(nav, inspOpts...)
			insp.Start()
			defer insp.Close()

			srv := &http.Server{
				Addr:              cfg.Inspector.Addr,
				Handler:           insp.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			c.styles.success(c.stdout, "inspector listening on http://%s", cfg.Inspector.Addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return errors.New("N502").WithDetail("listen " + cfg.Inspector.Addr).Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on /metrics")
	return cmd
}
