package snapstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/navstate/pkg/navigator"
	"github.com/vango-dev/navstate/pkg/navtree"
)

// Persister saves a navigator's tree to a Store whenever it changes.
//
// Saves run on a background goroutine; a burst of changes results in one
// save of the latest tree.
type Persister struct {
	store   Store
	id      string
	nav     *navigator.Navigator
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	cancel func()
	wake   chan struct{}
	done   chan struct{}
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithPersisterLogger sets the logger. Default: slog.Default().
func WithPersisterLogger(l *slog.Logger) PersisterOption {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSaveTimeout bounds each background save. Default: 10s.
func WithSaveTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) { p.timeout = d }
}

// NewPersister creates a persister that stores nav's tree under id.
func NewPersister(store Store, id string, nav *navigator.Navigator, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:   store,
		id:      id,
		nav:     nav,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Restore loads the stored snapshot into the navigator. It reports whether a
// snapshot was found.
func (p *Persister) Restore(ctx context.Context) (bool, error) {
	data, err := p.store.Load(ctx, p.id)
	if err != nil || data == nil {
		return false, err
	}
	if err := p.nav.RestoreSnapshot(ctx, data); err != nil {
		return false, err
	}
	p.logger.Debug("snapshot restored", "id", p.id, "bytes", len(data))
	return true, nil
}

// Flush saves the current tree now. An empty tree deletes the snapshot.
func (p *Persister) Flush(ctx context.Context) error {
	if p.nav.State() == nil {
		return p.store.Delete(ctx, p.id)
	}
	data, err := p.nav.Snapshot()
	if err != nil {
		return err
	}
	return p.store.Save(ctx, p.id, data)
}

// Start begins saving on every change. Calling Start twice is a no-op.
func (p *Persister) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	p.wake = make(chan struct{}, 1)
	p.done = make(chan struct{})
	unsubscribe := p.nav.Subscribe(func(navtree.Node) {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	})
	stop := make(chan struct{})
	p.cancel = func() {
		unsubscribe()
		close(stop)
	}
	go p.loop(stop, p.wake, p.done)
}

func (p *Persister) loop(stop <-chan struct{}, wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-wake:
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			if err := p.Flush(ctx); err != nil {
				p.logger.Warn("snapshot save failed", "id", p.id, "error", err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// Close stops background saving and writes the final tree.
func (p *Persister) Close() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	ctx, stop := context.WithTimeout(context.Background(), p.timeout)
	defer stop()
	return p.Flush(ctx)
}
