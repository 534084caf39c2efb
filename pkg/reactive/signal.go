// Package reactive provides the observable values the navigator publishes its
// state through.
//
// A Signal holds a value and notifies its listeners synchronously after every
// change. A Memo derives a value from explicit sources and recomputes lazily.
// There is no implicit dependency tracking: memos name their sources.
package reactive

import (
	"reflect"
	"sync"
)

// base provides type-erased listener management shared by Signal and Memo.
type base struct {
	id uint64

	subs  []Listener
	subMu sync.RWMutex
}

// subscribe adds l, deduplicating by ID.
func (b *base) subscribe(l Listener) {
	if l == nil {
		return
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for _, existing := range b.subs {
		if existing.ID() == lid {
			return
		}
	}
	b.subs = append(b.subs, l)
}

func (b *base) unsubscribe(l Listener) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for i, existing := range b.subs {
		if existing.ID() == lid {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *base) watch(l Listener) func() {
	b.subscribe(l)
	var once sync.Once
	return func() { once.Do(func() { b.unsubscribe(l) }) }
}

// notify marks every listener dirty. The listener slice is copied first so
// no lock is held while listeners run.
func (b *base) notify() {
	b.subMu.RLock()
	subs := make([]Listener, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

func (b *base) listenerCount() int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.subs)
}

// Signal is an observable value container.
type Signal[T any] struct {
	base base

	value T
	mu    sync.RWMutex

	// equal decides whether Set changed the value. nil uses defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{base: base{id: nextID()}, value: initial}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies listeners if it differs from the current one.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// Update atomically replaces the value with fn(current).
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	next := fn(old)
	changed := !s.equals(old, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// WithEquals sets the equality used by Set and Update and returns s.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Watch implements Source.
func (s *Signal[T]) Watch(l Listener) func() { return s.base.watch(l) }

// Subscribe calls fn with the new value after every change. The returned
// function stops the subscription.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	return s.Watch(ListenerFunc(func() { fn(s.Get()) }))
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 { return s.base.id }

// Listeners returns the number of subscribed listeners.
func (s *Signal[T]) Listeners() int { return s.base.listenerCount() }

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable types and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
