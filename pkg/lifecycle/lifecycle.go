// Package lifecycle keeps transient per-node runtime state outside the
// immutable navigation tree.
//
// Entries are keyed by navtree.NodeKey. They are never part of tree equality
// or snapshots; Reconcile drops the entries of nodes that left the tree and
// runs their destroy callbacks.
package lifecycle

import (
	"sync"

	"github.com/vango-dev/navstate/pkg/navtree"
)

type entry struct {
	attached bool
	nextID   uint64
	cleanups map[uint64]func()
	order    []uint64
}

// Registry is a side table of per-node state. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[navtree.NodeKey]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[navtree.NodeKey]*entry)}
}

func (r *Registry) entry(key navtree.NodeKey) *entry {
	e := r.entries[key]
	if e == nil {
		e = &entry{cleanups: make(map[uint64]func())}
		r.entries[key] = e
	}
	return e
}

// Attach marks the node as attached to a live UI.
func (r *Registry) Attach(key navtree.NodeKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(key).attached = true
}

// Detach clears the attached flag. Destroy callbacks stay registered.
func (r *Registry) Detach(key navtree.NodeKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.entries[key]; e != nil {
		e.attached = false
	}
}

// Attached reports whether the node is attached.
func (r *Registry) Attached(key navtree.NodeKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[key]
	return e != nil && e.attached
}

// OnDestroy registers fn to run once when the node leaves the tree.
// Callbacks run in reverse registration order. The returned function
// unregisters fn.
func (r *Registry) OnDestroy(key navtree.NodeKey, fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(key)
	e.nextID++
	id := e.nextID
	e.cleanups[id] = fn
	e.order = append(e.order, id)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if e := r.entries[key]; e != nil {
			delete(e.cleanups, id)
		}
	}
}

// Destroy drops the entry for key and runs its callbacks.
func (r *Registry) Destroy(key navtree.NodeKey) {
	r.mu.Lock()
	fns := r.take(key)
	r.mu.Unlock()
	run(fns)
}

// take removes the entry for key and returns its callbacks in run order.
// Callers hold r.mu.
func (r *Registry) take(key navtree.NodeKey) []func() {
	e := r.entries[key]
	if e == nil {
		return nil
	}
	delete(r.entries, key)
	fns := make([]func(), 0, len(e.cleanups))
	for i := len(e.order) - 1; i >= 0; i-- {
		if fn, ok := e.cleanups[e.order[i]]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Reconcile destroys every node present in prev and absent from next, and
// returns their keys in pre-order of prev.
func (r *Registry) Reconcile(prev, next navtree.Node) []navtree.NodeKey {
	if prev == nil || prev == next {
		return nil
	}
	kept := navtree.KeySet(next)
	var removed []navtree.NodeKey
	navtree.Walk(prev, func(n navtree.Node, _ int) bool {
		if _, ok := kept[n.Key()]; !ok {
			removed = append(removed, n.Key())
		}
		return true
	})
	if len(removed) == 0 {
		return nil
	}

	r.mu.Lock()
	var fns []func()
	for _, key := range removed {
		fns = append(fns, r.take(key)...)
	}
	r.mu.Unlock()

	run(fns)
	return removed
}

// Len returns the number of tracked nodes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset drops every entry without running callbacks.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[navtree.NodeKey]*entry)
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
