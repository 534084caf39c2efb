// Package gesture implements the predictive-back gesture state machine.
//
//	Idle → Gesturing → (Completing | Cancelling) → Idle
//
// Transitions are synchronous calls on the Controller. Completion and
// cancellation animate progress on a separate goroutine; starting a new
// gesture cancels that animation and waits for it to exit before resetting.
package gesture

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/vango-dev/navstate/pkg/reactive"
	"github.com/vango-dev/navstate/pkg/treeops"
)

// DefaultMaxProgress is the ceiling applied to gesture progress.
const DefaultMaxProgress = 0.25

// ErrNotGesturing is returned by CompleteGesture and CancelGesture when no
// gesture is in progress.
var ErrNotGesturing = errors.New("gesture: no gesture in progress")

// State is a state of the gesture state machine.
type State int32

const (
	Idle State = iota
	Gesturing
	Completing
	Cancelling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Gesturing:
		return "gesturing"
	case Completing:
		return "completing"
	case Cancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

// Controller tracks one back gesture at a time.
type Controller struct {
	maxProgress float64
	animator    Animator
	logger      *slog.Logger

	state    *atomic.Int32
	progress *atomic.Float64
	gen      *atomic.Uint64

	// mu serializes transitions and guards the running animation.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	active      *reactive.Signal[bool]
	progressSig *reactive.Signal[float64]
	cascade     *reactive.Signal[*treeops.CascadeState]
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxProgress sets the progress ceiling. Values outside (0, 1] are ignored.
func WithMaxProgress(p float64) Option {
	return func(c *Controller) {
		if p > 0 && p <= 1 {
			c.maxProgress = p
		}
	}
}

// WithAnimator sets the animator used for completion and cancellation.
func WithAnimator(a Animator) Option {
	return func(c *Controller) {
		if a != nil {
			c.animator = a
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		maxProgress: DefaultMaxProgress,
		animator:    TickerAnimator{},
		logger:      slog.Default(),
		state:       atomic.NewInt32(int32(Idle)),
		progress:    atomic.NewFloat64(0),
		gen:         atomic.NewUint64(0),
		active:      reactive.NewSignal(false),
		progressSig: reactive.NewSignal(0.0),
		cascade: reactive.NewSignal[*treeops.CascadeState](nil).
			WithEquals(func(a, b *treeops.CascadeState) bool { return a == b }),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Active reports whether a gesture or its animation is in progress.
func (c *Controller) Active() bool { return c.active.Get() }

// Progress returns the current progress.
func (c *Controller) Progress() float64 { return c.progress.Load() }

// Cascade returns the cascade state of the current gesture, or nil.
func (c *Controller) Cascade() *treeops.CascadeState { return c.cascade.Get() }

// MaxProgress returns the progress ceiling.
func (c *Controller) MaxProgress() float64 { return c.maxProgress }

// ActiveSignal exposes Active for renderers.
func (c *Controller) ActiveSignal() *reactive.Signal[bool] { return c.active }

// ProgressSignal exposes Progress for renderers.
func (c *Controller) ProgressSignal() *reactive.Signal[float64] { return c.progressSig }

// CascadeSignal exposes Cascade for renderers.
func (c *Controller) CascadeSignal() *reactive.Signal[*treeops.CascadeState] { return c.cascade }

// StartGesture begins a gesture. cascade describes what committing would do
// and may be nil. A running animation is interrupted first.
func (c *Controller) StartGesture(cascade *treeops.CascadeState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.interrupt()
	c.state.Store(int32(Gesturing))
	c.setProgress(0)
	c.cascade.Set(cascade)
	c.active.Set(true)
	c.logger.Debug("back gesture started", "cascade", cascade != nil)
}

// UpdateProgress records raw gesture progress, clamped to [0, MaxProgress].
// It is ignored unless the controller is Gesturing and never blocks.
func (c *Controller) UpdateProgress(raw float64) {
	if State(c.state.Load()) != Gesturing {
		return
	}
	c.setProgress(clamp(raw, 0, c.maxProgress))
}

// CompleteGesture commits the gesture: onNavigate runs first so the backing
// state is already updated, then progress animates to 1 with Active still
// true, and the controller returns to Idle.
//
// If onNavigate fails, the gesture is cancelled instead and its error returned.
func (c *Controller) CompleteGesture(onNavigate func() error) error {
	c.mu.Lock()
	if State(c.state.Load()) != Gesturing {
		c.mu.Unlock()
		return ErrNotGesturing
	}
	c.state.Store(int32(Completing))
	gen := c.gen.Load()
	c.mu.Unlock()

	var err error
	if onNavigate != nil {
		err = onNavigate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() != gen {
		// A new gesture started while navigating.
		return err
	}
	if err != nil {
		c.logger.Debug("back gesture navigation failed", "error", err)
		c.state.Store(int32(Cancelling))
		c.animate(0)
		return err
	}
	c.logger.Debug("back gesture completed", "progress", c.progress.Load())
	c.animate(1)
	return nil
}

// CancelGesture animates progress back to 0 and returns to Idle.
func (c *Controller) CancelGesture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if State(c.state.Load()) != Gesturing {
		return ErrNotGesturing
	}
	c.state.Store(int32(Cancelling))
	c.logger.Debug("back gesture cancelled", "progress", c.progress.Load())
	c.animate(0)
	return nil
}

// Wait blocks until the running animation, if any, has finished.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reset interrupts any animation and returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupt()
	c.toIdle()
}

// animate starts the animation from the current progress to target.
// Callers hold c.mu.
func (c *Controller) animate(target float64) {
	gen := c.gen.Inc()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	from := c.progress.Load()
	go func() {
		defer close(done)
		defer cancel()
		err := c.animator.Animate(ctx, from, target, func(v float64) {
			if c.gen.Load() == gen {
				c.setProgress(v)
			}
		})
		// The animation goroutine never takes c.mu: interrupt waits on done
		// while holding it.
		if c.gen.Load() == gen {
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Warn("back gesture animation failed", "error", err)
			}
			c.toIdle()
		}
	}()
}

// interrupt cancels a running animation and waits for it to exit.
// Callers hold c.mu.
func (c *Controller) interrupt() {
	c.gen.Inc()
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	c.cancel, c.done = nil, nil
}

func (c *Controller) toIdle() {
	c.state.Store(int32(Idle))
	c.setProgress(0)
	c.active.Set(false)
	c.cascade.Set(nil)
}

func (c *Controller) setProgress(p float64) {
	c.progress.Store(p)
	c.progressSig.Set(p)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
