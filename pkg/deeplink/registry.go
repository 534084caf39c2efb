package deeplink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vango-dev/navstate/pkg/navtree"
)

// Factory builds a destination from matched parameters.
type Factory func(params map[string]string) (navtree.Destination, error)

// Action handles a link without navigating to a destination.
type Action func(ctx context.Context, params map[string]string) error

// Status is the outcome of Match.
type Status int

const (
	NotMatched Status = iota
	Matched
	ActionMatched
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case ActionMatched:
		return "action"
	default:
		return "not-matched"
	}
}

// Result is the outcome of matching a URI.
type Result struct {
	Status      Status
	Destination navtree.Destination // set when Status is Matched
	Action      Action              // set when Status is ActionMatched
	Params      map[string]string
	Pattern     string
	// Err is set when the URI could not be parsed or the factory failed.
	// Status is NotMatched in both cases.
	Err error
}

// MatchPolicy orders candidate patterns when several match a path.
type MatchPolicy int

const (
	// MatchRegistrationOrder tries patterns in the order they were registered.
	MatchRegistrationOrder MatchPolicy = iota
	// MatchMostSpecific tries patterns with more literal segments first and
	// falls back to registration order on ties.
	MatchMostSpecific
)

type entry struct {
	pattern *Pattern
	factory Factory
	action  Action
	seq     int
}

// Registry resolves deep links. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	policy  MatchPolicy
	entries []*entry // in match order
	byTpl   map[string]*entry
	reverse map[string]*Pattern // route name -> pattern
	seq     int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMatchPolicy selects the order patterns are tried in.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byTpl:   make(map[string]*entry),
		reverse: make(map[string]*Pattern),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	route string
}

// WithRoute declares the route name of the destinations the factory builds,
// enabling CreateURI without probing the factory.
func WithRoute(name string) RegisterOption {
	return func(c *registerConfig) { c.route = name }
}

// Register adds a pattern that resolves to the destination built by factory.
//
// Unless WithRoute is given, the factory is called once with placeholder
// parameters ("0") to learn the route name for CreateURI. A factory that
// rejects placeholders simply has no reverse mapping.
func (r *Registry) Register(template string, factory Factory, opts ...RegisterOption) error {
	if factory == nil {
		return fmt.Errorf("deeplink: nil factory for %q", template)
	}
	p, err := Compile(template)
	if err != nil {
		return err
	}
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.route == "" {
		cfg.route = probeRoute(p, factory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.add(&entry{pattern: p, factory: factory}); err != nil {
		return err
	}
	if cfg.route != "" {
		if _, exists := r.reverse[cfg.route]; !exists {
			r.reverse[cfg.route] = p
		}
	}
	return nil
}

// RegisterAction adds a pattern handled by action.
func (r *Registry) RegisterAction(template string, action Action) error {
	if action == nil {
		return fmt.Errorf("deeplink: nil action for %q", template)
	}
	p, err := Compile(template)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(&entry{pattern: p, action: action})
}

// add inserts e. Callers hold r.mu.
func (r *Registry) add(e *entry) error {
	if _, dup := r.byTpl[e.pattern.template]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePattern, e.pattern.template)
	}
	r.seq++
	e.seq = r.seq
	r.byTpl[e.pattern.template] = e
	r.entries = append(r.entries, e)
	if r.policy == MatchMostSpecific {
		sort.SliceStable(r.entries, func(i, j int) bool {
			a, b := r.entries[i], r.entries[j]
			if a.pattern.literals != b.pattern.literals {
				return a.pattern.literals > b.pattern.literals
			}
			return a.seq < b.seq
		})
	}
	return nil
}

func probeRoute(p *Pattern, factory Factory) (route string) {
	defer func() {
		if recover() != nil {
			route = ""
		}
	}()
	params := make(map[string]string, len(p.names))
	for _, name := range p.names {
		params[name] = "0"
	}
	dest, err := factory(params)
	if err != nil || dest == nil {
		return ""
	}
	return dest.Route()
}

// Match resolves uri, which may be a full URI or a bare path.
func (r *Registry) Match(uri string) Result {
	link, err := Parse(uri)
	if err != nil {
		return Result{Status: NotMatched, Err: err}
	}

	r.mu.RLock()
	var (
		hit    *entry
		params map[string]string
	)
	for _, e := range r.entries {
		if p, ok := e.pattern.Match(link.Path); ok {
			hit, params = e, p
			break
		}
	}
	r.mu.RUnlock()

	if hit == nil {
		return Result{Status: NotMatched}
	}

	merged := make(map[string]string, len(params)+len(link.Query))
	for k, v := range link.Query {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	res := Result{Params: merged, Pattern: hit.pattern.template}
	if hit.action != nil {
		res.Status = ActionMatched
		res.Action = hit.action
		return res
	}
	dest, err := hit.factory(merged)
	if err != nil {
		res.Status = NotMatched
		res.Err = fmt.Errorf("deeplink: %s: %w", hit.pattern.template, err)
		return res
	}
	if dest == nil {
		res.Status = NotMatched
		return res
	}
	res.Status = Matched
	res.Destination = dest
	return res
}

// Resolve returns the destination for path, if a destination pattern
// matches it.
func (r *Registry) Resolve(path string) (navtree.Destination, bool) {
	res := r.Match(path)
	if res.Status != Matched {
		return nil, false
	}
	return res.Destination, true
}

// CanHandle reports whether any pattern matches path.
func (r *Registry) CanHandle(path string) bool {
	link, err := Parse(path)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if _, ok := e.pattern.Match(link.Path); ok {
			return true
		}
	}
	return false
}

// CreateURI builds the URI for dest. An empty scheme yields a bare path.
// It reports false when dest's route has no reverse mapping or dest lacks a
// parameter the template needs.
func (r *Registry) CreateURI(dest navtree.Destination, scheme string) (string, bool) {
	if dest == nil {
		return "", false
	}
	r.mu.RLock()
	p := r.reverse[dest.Route()]
	r.mu.RUnlock()
	if p == nil {
		return "", false
	}
	path, ok := p.Expand(Params(dest))
	if !ok {
		return "", false
	}
	if scheme == "" {
		return path, true
	}
	return scheme + "://" + path, true
}

// Patterns returns the registered templates in match order.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.pattern.template
	}
	return out
}
