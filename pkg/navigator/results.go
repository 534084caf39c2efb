package navigator

import (
	"context"
	"errors"
	"sync"

	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/treeops"
)

// PendingResult is a value one screen is waiting for from another. It is
// resolved exactly once, either with a value or by cancellation.
type PendingResult struct {
	key  navtree.NodeKey
	slot *slot
}

// Key returns the key of the screen that owes the result.
func (p *PendingResult) Key() navtree.NodeKey { return p.key }

// Done is closed once the result is resolved.
func (p *PendingResult) Done() <-chan struct{} { return p.slot.done }

// Await blocks until the result is resolved or ctx is done. It returns the
// value and true on completion, nil and false on cancellation.
func (p *PendingResult) Await(ctx context.Context) (any, bool, error) {
	select {
	case <-p.slot.done:
		return p.slot.value, p.slot.ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

type slot struct {
	once   sync.Once
	done   chan struct{}
	value  any
	ok     bool
	cancel func() // lifecycle registration
}

func (s *slot) resolve(value any, ok bool) bool {
	resolved := false
	s.once.Do(func() {
		s.value, s.ok = value, ok
		close(s.done)
		resolved = true
	})
	return resolved
}

type results struct {
	mu      sync.Mutex
	pending map[navtree.NodeKey]*slot
}

// take removes and returns the slot for key.
func (r *results) take(key navtree.NodeKey) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.pending[key]
	delete(r.pending, key)
	return s
}

func (r *results) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// RequestResult registers a result slot owed by the screen key. A previous
// slot for the same key is cancelled. Destroying the screen cancels the slot.
// If key is not in the tree the result is returned already cancelled.
func (n *Navigator) RequestResult(key navtree.NodeKey) *PendingResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !navtree.Contains(n.state.Get(), key) {
		s := &slot{done: make(chan struct{})}
		s.resolve(nil, false)
		n.logger.Debug("result requested for absent screen", "key", key)
		return &PendingResult{key: key, slot: s}
	}
	return n.register(key)
}

// register installs a slot for key and ties it to the node's lifecycle.
// Callers hold n.mu so no mutation can remove key before the destroy hook
// is in place.
func (n *Navigator) register(key navtree.NodeKey) *PendingResult {
	s := &slot{done: make(chan struct{})}

	n.results.mu.Lock()
	s.cancel = n.lifecycle.OnDestroy(key, func() {
		n.results.mu.Lock()
		if n.results.pending[key] == s {
			delete(n.results.pending, key)
		}
		n.results.mu.Unlock()
		n.finish(s, nil, false)
	})
	prev := n.results.pending[key]
	n.results.pending[key] = s
	size := len(n.results.pending)
	n.results.mu.Unlock()

	if prev != nil {
		n.finish(prev, nil, false)
	}

	n.metrics.setPending(size)
	n.logger.Debug("result requested", "key", key)
	return &PendingResult{key: key, slot: s}
}

// CompleteResult delivers value to the result owed by key. It reports false
// if no result is pending.
func (n *Navigator) CompleteResult(key navtree.NodeKey, value any) bool {
	s := n.results.take(key)
	if s == nil {
		return false
	}
	return n.finish(s, value, true)
}

// CancelResult resolves the result owed by key without a value.
func (n *Navigator) CancelResult(key navtree.NodeKey) bool {
	s := n.results.take(key)
	if s == nil {
		return false
	}
	return n.finish(s, nil, false)
}

// PendingResults returns the number of unresolved results.
func (n *Navigator) PendingResults() int { return n.results.len() }

func (n *Navigator) finish(s *slot, value any, ok bool) bool {
	if !s.resolve(value, ok) {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	n.metrics.setPending(n.results.len())
	return true
}

func (n *Navigator) cancelAllResults() {
	n.results.mu.Lock()
	pending := n.results.pending
	n.results.pending = make(map[navtree.NodeKey]*slot)
	n.results.mu.Unlock()

	for _, s := range pending {
		n.finish(s, nil, false)
	}
}

// NavigateForResult pushes dest and requests a result from the new screen.
// The slot is registered before the new tree is visible to other writers.
func (n *Navigator) NavigateForResult(ctx context.Context, dest navtree.Destination) (*PendingResult, error) {
	var pending *PendingResult
	err := n.mutate(ctx, "navigate", destAttrs(dest), func(cur navtree.Node) (navtree.Node, error) {
		next, err := treeops.Push(cur, dest, n.env)
		if err != nil {
			return nil, err
		}
		leaf := navtree.ActiveLeaf(next)
		if leaf == nil {
			return nil, errors.New("navigator: push left no active screen")
		}
		pending = n.register(leaf.Key())
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// NavigateBackWithResult completes the result owed by the active screen and
// pops it.
func (n *Navigator) NavigateBackWithResult(ctx context.Context, value any) (treeops.Outcome, error) {
	if leaf := navtree.ActiveLeaf(n.State()); leaf != nil {
		n.CompleteResult(leaf.Key(), value)
	}
	return n.NavigateBack(ctx)
}
