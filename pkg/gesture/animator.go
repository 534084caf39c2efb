package gesture

import (
	"context"
	"time"
)

// Animator drives progress from one value to another, calling frame for each
// intermediate value. It must return promptly with ctx.Err() once ctx is
// cancelled and must not call frame after returning.
type Animator interface {
	Animate(ctx context.Context, from, to float64, frame func(float64)) error
}

// Easing maps linear time in [0, 1] to animation progress in [0, 1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseOutCubic decelerates towards the end.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// TickerAnimator animates on a time.Ticker.
type TickerAnimator struct {
	Duration time.Duration // default 250ms
	Interval time.Duration // default 16ms
	Easing   Easing        // default EaseOutCubic
}

// Animate implements Animator.
func (a TickerAnimator) Animate(ctx context.Context, from, to float64, frame func(float64)) error {
	d := a.Duration
	if d <= 0 {
		d = 250 * time.Millisecond
	}
	interval := a.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ease := a.Easing
	if ease == nil {
		ease = EaseOutCubic
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t := float64(now.Sub(start)) / float64(d)
			if t >= 1 {
				frame(to)
				return nil
			}
			frame(from + (to-from)*ease(t))
		}
	}
}

type instant struct{}

func (instant) Animate(ctx context.Context, _, to float64, frame func(float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame(to)
	return nil
}

// Instant jumps straight to the target value.
var Instant Animator = instant{}
