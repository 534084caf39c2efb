package reactive

import "sync/atomic"

// Listener is anything that can be notified when a source changes.
type Listener interface {
	// MarkDirty is called after the source changed. It runs on the goroutine
	// that made the change, outside of any source lock.
	MarkDirty()

	// ID identifies the listener for deduplication.
	ID() uint64
}

// Source is a value listeners can watch.
type Source interface {
	// Watch subscribes l and returns a function that unsubscribes it.
	Watch(l Listener) (cancel func())
}

// ListenerFunc adapts a function to a Listener with a fresh ID.
func ListenerFunc(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

type funcListener struct {
	id uint64
	fn func()
}

func (f *funcListener) MarkDirty() { f.fn() }
func (f *funcListener) ID() uint64 { return f.id }

var idCounter atomic.Uint64

// nextID returns the next unique ID for a reactive primitive.
func nextID() uint64 {
	return idCounter.Add(1)
}
