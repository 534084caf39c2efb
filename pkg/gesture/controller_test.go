package gesture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/treeops"
)

// blockingAnimator runs until its context is cancelled or release is closed.
type blockingAnimator struct {
	started  chan struct{}
	release  chan struct{}
	mu       sync.Mutex
	canceled int
}

func newBlockingAnimator() *blockingAnimator {
	return &blockingAnimator{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingAnimator) Animate(ctx context.Context, from, to float64, frame func(float64)) error {
	frame((from + to) / 2)
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		b.mu.Lock()
		b.canceled++
		b.mu.Unlock()
		return ctx.Err()
	case <-b.release:
		frame(to)
		return nil
	}
}

func TestProgressIsClamped(t *testing.T) {
	c := New(WithAnimator(Instant))

	c.UpdateProgress(0.1)
	if c.Progress() != 0 {
		t.Errorf("progress before start = %v, want 0", c.Progress())
	}

	c.StartGesture(nil)
	tests := []struct {
		raw, want float64
	}{
		{0.1, 0.1},
		{0.9, DefaultMaxProgress},
		{-3, 0},
		{DefaultMaxProgress, DefaultMaxProgress},
	}
	for _, tt := range tests {
		c.UpdateProgress(tt.raw)
		if got := c.Progress(); got != tt.want {
			t.Errorf("UpdateProgress(%v) -> %v, want %v", tt.raw, got, tt.want)
		}
	}

	custom := New(WithMaxProgress(0.5), WithMaxProgress(7))
	custom.StartGesture(nil)
	custom.UpdateProgress(1)
	if custom.Progress() != 0.5 {
		t.Errorf("custom ceiling progress = %v, want 0.5", custom.Progress())
	}
}

func TestCompleteNavigatesFirstThenAnimates(t *testing.T) {
	c := New(WithAnimator(Instant))
	cascade := treeops.ComputeCascade(navtree.NewStack("root", "",
		navtree.NewScreen("a", "", navtree.Route{Name: "a"}),
		navtree.NewScreen("b", "", navtree.Route{Name: "b"}),
	), treeops.RemoveEmptyStacks)

	var frames []float64
	c.ProgressSignal().Subscribe(func(v float64) { frames = append(frames, v) })

	c.StartGesture(cascade)
	if !c.Active() || c.State() != Gesturing || c.Cascade() != cascade {
		t.Fatalf("after start: active=%v state=%v", c.Active(), c.State())
	}
	c.UpdateProgress(0.2)

	navigated := false
	err := c.CompleteGesture(func() error {
		navigated = true
		if c.State() != Completing || !c.Active() {
			t.Errorf("during navigate: state=%v active=%v", c.State(), c.Active())
		}
		if c.Progress() != 0.2 {
			t.Errorf("progress during navigate = %v, want 0.2", c.Progress())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CompleteGesture() error: %v", err)
	}
	c.Wait()

	if !navigated {
		t.Error("onNavigate not called")
	}
	if c.State() != Idle || c.Active() || c.Progress() != 0 || c.Cascade() != nil {
		t.Errorf("after complete: state=%v active=%v progress=%v", c.State(), c.Active(), c.Progress())
	}
	sawOne := false
	for _, f := range frames {
		if f == 1 {
			sawOne = true
		}
	}
	if !sawOne {
		t.Errorf("frames = %v, want progress to reach 1", frames)
	}
}

func TestCancelAnimatesToZero(t *testing.T) {
	anim := newBlockingAnimator()
	c := New(WithAnimator(anim))

	c.StartGesture(nil)
	c.UpdateProgress(0.2)
	if err := c.CancelGesture(); err != nil {
		t.Fatalf("CancelGesture() error: %v", err)
	}
	<-anim.started
	if c.State() != Cancelling || !c.Active() {
		t.Errorf("during cancel: state=%v active=%v", c.State(), c.Active())
	}
	if got := c.Progress(); got != 0.1 {
		t.Errorf("mid-animation progress = %v, want 0.1", got)
	}
	c.UpdateProgress(0.2)
	if got := c.Progress(); got != 0.1 {
		t.Error("updates must be ignored while cancelling")
	}

	close(anim.release)
	c.Wait()
	if c.State() != Idle || c.Active() || c.Progress() != 0 {
		t.Errorf("after cancel: state=%v active=%v progress=%v", c.State(), c.Active(), c.Progress())
	}
}

func TestStartInterruptsAnimation(t *testing.T) {
	anim := newBlockingAnimator()
	c := New(WithAnimator(anim))

	c.StartGesture(nil)
	c.UpdateProgress(0.2)
	if err := c.CompleteGesture(nil); err != nil {
		t.Fatalf("CompleteGesture() error: %v", err)
	}
	<-anim.started

	c.StartGesture(nil)

	anim.mu.Lock()
	canceled := anim.canceled
	anim.mu.Unlock()
	if canceled != 1 {
		t.Errorf("previous animation canceled %d times, want 1", canceled)
	}
	if c.State() != Gesturing || !c.Active() || c.Progress() != 0 {
		t.Errorf("after restart: state=%v active=%v progress=%v", c.State(), c.Active(), c.Progress())
	}

	// The interrupted animation must not reset the new gesture.
	time.Sleep(10 * time.Millisecond)
	if c.State() != Gesturing {
		t.Errorf("state = %v, want gesturing", c.State())
	}
	c.Reset()
	if c.State() != Idle {
		t.Errorf("state after Reset = %v", c.State())
	}
}

func TestTransitionsRequireGesture(t *testing.T) {
	c := New(WithAnimator(Instant))
	if err := c.CompleteGesture(nil); !errors.Is(err, ErrNotGesturing) {
		t.Errorf("CompleteGesture() = %v, want ErrNotGesturing", err)
	}
	if err := c.CancelGesture(); !errors.Is(err, ErrNotGesturing) {
		t.Errorf("CancelGesture() = %v, want ErrNotGesturing", err)
	}
}

func TestFailedNavigationCancels(t *testing.T) {
	c := New(WithAnimator(Instant))
	c.StartGesture(nil)
	c.UpdateProgress(0.2)

	boom := errors.New("boom")
	if err := c.CompleteGesture(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("CompleteGesture() = %v, want boom", err)
	}
	c.Wait()
	if c.State() != Idle || c.Progress() != 0 {
		t.Errorf("state=%v progress=%v", c.State(), c.Progress())
	}
}

func TestTickerAnimator(t *testing.T) {
	a := TickerAnimator{Duration: 20 * time.Millisecond, Interval: time.Millisecond, Easing: Linear}
	var last float64
	if err := a.Animate(context.Background(), 0.25, 1, func(v float64) { last = v }); err != nil {
		t.Fatalf("Animate() error: %v", err)
	}
	if last != 1 {
		t.Errorf("last frame = %v, want 1", last)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Animate(ctx, 0, 1, func(float64) {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Animate(canceled) = %v", err)
	}
}

func TestEasing(t *testing.T) {
	if EaseOutCubic(0) != 0 || EaseOutCubic(1) != 1 {
		t.Error("easing endpoints")
	}
	if EaseOutCubic(0.5) <= 0.5 {
		t.Error("ease out should lead linear at the midpoint")
	}
}
