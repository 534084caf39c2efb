package navigator

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navstate/pkg/deeplink"
	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/lifecycle"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/scope"
	"github.com/vango-dev/navstate/pkg/treeops"
)

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithScopes sets the scope resolver used for routing.
func WithScopes(s treeops.ScopeResolver) Option {
	return func(n *Navigator) { n.env.Scopes = s }
}

// WithContainers sets the source of tab and pane container templates.
func WithContainers(c treeops.ContainerSource) Option {
	return func(n *Navigator) { n.env.Containers = c }
}

// WithScopeRegistry uses reg as both scope resolver and container source.
func WithScopeRegistry(reg *scope.Registry) Option {
	return func(n *Navigator) {
		n.env.Scopes = reg
		n.env.Containers = reg
	}
}

// WithKeys sets the key generator for new nodes. Default: UUIDs.
func WithKeys(k navtree.KeyGenerator) Option {
	return func(n *Navigator) { n.env.Keys = k }
}

// WithBackBehavior sets how back treats emptied nested stacks.
func WithBackBehavior(b treeops.BackBehavior) Option {
	return func(n *Navigator) { n.behavior = b }
}

// WithDeepLinks enables HandleDeepLink.
func WithDeepLinks(r *deeplink.Registry) Option {
	return func(n *Navigator) { n.links = r }
}

// WithGesture attaches a predictive-back gesture controller.
func WithGesture(c *gesture.Controller) Option {
	return func(n *Navigator) { n.gesture = c }
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(n *Navigator) { n.metrics = m }
}

// WithTracer sets the OpenTelemetry tracer. Default: otel.Tracer("navstate").
func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) {
		if t != nil {
			n.tracer = t
		}
	}
}

// WithLifecycle shares a lifecycle registry with the navigator.
func WithLifecycle(l *lifecycle.Registry) Option {
	return func(n *Navigator) {
		if l != nil {
			n.lifecycle = l
		}
	}
}

// WithCodec sets the destination codec used by RestoreSnapshot.
func WithCodec(c *navtree.DestinationCodec) Option {
	return func(n *Navigator) { n.codec = c }
}
