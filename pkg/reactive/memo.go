package reactive

import (
	"sync"
	"sync/atomic"
)

// Memo is a cached computation over explicit sources. A change in any source
// invalidates the cache and notifies the memo's own listeners; the value is
// recomputed on the next Get.
type Memo[T any] struct {
	base base

	compute func() T

	value   T
	valueMu sync.RWMutex
	valid   atomic.Bool

	cancels []func()
	equal   func(T, T) bool
}

// NewMemo creates a memo of compute that watches sources.
func NewMemo[T any](compute func() T, sources ...Source) *Memo[T] {
	m := &Memo[T]{base: base{id: nextID()}, compute: compute}
	for _, src := range sources {
		m.cancels = append(m.cancels, src.Watch(m))
	}
	return m
}

// Get returns the memo's value, recomputing it if a source changed.
func (m *Memo[T]) Get() T {
	if !m.valid.Load() {
		m.recompute()
	}
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

func (m *Memo[T]) recompute() {
	// Marked valid before computing so a concurrent source change invalidates again.
	m.valid.Store(true)
	v := m.compute()
	m.valueMu.Lock()
	m.value = v
	m.valueMu.Unlock()
}

// MarkDirty implements Listener.
func (m *Memo[T]) MarkDirty() {
	m.valid.Store(false)
	m.base.notify()
}

// ID implements Listener.
func (m *Memo[T]) ID() uint64 { return m.base.id }

// Watch implements Source.
func (m *Memo[T]) Watch(l Listener) func() { return m.base.watch(l) }

// WithEquals sets the equality Subscribe uses to suppress repeated values.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// Subscribe calls fn with the new value whenever a source change alters it.
func (m *Memo[T]) Subscribe(fn func(T)) func() {
	var mu sync.Mutex
	last := m.Get()
	return m.Watch(ListenerFunc(func() {
		v := m.Get()
		mu.Lock()
		same := m.equals(last, v)
		last = v
		mu.Unlock()
		if !same {
			fn(v)
		}
	}))
}

// Dispose detaches the memo from its sources.
func (m *Memo[T]) Dispose() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
