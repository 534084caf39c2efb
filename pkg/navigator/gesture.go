package navigator

import (
	"context"
	"errors"

	"github.com/vango-dev/navstate/pkg/gesture"
	"github.com/vango-dev/navstate/pkg/treeops"
)

// StartBackGesture computes what back would do from the current tree and
// starts the gesture controller with it.
func (n *Navigator) StartBackGesture() (*treeops.CascadeState, error) {
	if n.gesture == nil {
		return nil, ErrNoGesture
	}
	cs := treeops.ComputeCascade(n.State(), n.behavior)
	n.gesture.StartGesture(cs)
	n.metrics.gesture("started")
	return cs, nil
}

// UpdateBackGesture forwards raw gesture progress to the controller.
func (n *Navigator) UpdateBackGesture(progress float64) {
	if n.gesture != nil {
		n.gesture.UpdateProgress(progress)
	}
}

// CompleteBackGesture commits the gesture by navigating back. If back would
// be delegated to the host, the gesture is cancelled and ErrDelegateToSystem
// returned.
func (n *Navigator) CompleteBackGesture(ctx context.Context) error {
	if n.gesture == nil {
		return ErrNoGesture
	}
	err := n.gesture.CompleteGesture(func() error {
		outcome, err := n.NavigateBack(ctx)
		if err != nil {
			return err
		}
		if outcome != treeops.Handled {
			return ErrDelegateToSystem
		}
		return nil
	})
	switch {
	case err == nil:
		n.metrics.gesture("completed")
	case errors.Is(err, ErrDelegateToSystem):
		n.metrics.gesture("delegated")
	case errors.Is(err, gesture.ErrNotGesturing):
	default:
		n.metrics.gesture("failed")
	}
	return err
}

// CancelBackGesture abandons the gesture and leaves the tree unchanged.
func (n *Navigator) CancelBackGesture() error {
	if n.gesture == nil {
		return ErrNoGesture
	}
	if err := n.gesture.CancelGesture(); err != nil {
		return err
	}
	n.metrics.gesture("cancelled")
	return nil
}
