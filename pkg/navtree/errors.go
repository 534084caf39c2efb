package navtree

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree operations.
var (
	// ErrNotFound is returned when an operation names a key that is not in the tree.
	ErrNotFound = errors.New("navtree: node not found")

	// ErrStructural matches every *StructuralError via errors.Is.
	ErrStructural = errors.New("navtree: structural violation")

	// ErrDuplicateKey is reported when two nodes share a key.
	ErrDuplicateKey = errors.New("navtree: duplicate node key")

	// ErrEmptyKey is reported for a node without a key.
	ErrEmptyKey = errors.New("navtree: empty node key")

	// ErrParentMismatch is reported when a node's parent key does not name its parent.
	ErrParentMismatch = errors.New("navtree: parent key mismatch")

	// ErrIndexOutOfRange is reported for a tab index outside [0, lanes).
	ErrIndexOutOfRange = errors.New("navtree: tab index out of range")

	// ErrNoLanes is reported for a tab node without lanes.
	ErrNoLanes = errors.New("navtree: tab node has no lanes")

	// ErrMissingPrimaryPane is reported for a pane node without a primary pane.
	ErrMissingPrimaryPane = errors.New("navtree: pane node has no primary pane")

	// ErrInvalidPaneRole is reported when a role is unknown or not configured.
	ErrInvalidPaneRole = errors.New("navtree: pane role not configured")

	// ErrDisallowedRemoval is reported when a tab lane or pane content is removed directly.
	ErrDisallowedRemoval = errors.New("navtree: direct removal of lane or pane content")

	// ErrWrongNodeType is reported when a key names a node of an unexpected variant.
	ErrWrongNodeType = errors.New("navtree: wrong node type")

	// ErrInvalidSnapshot is returned for snapshots that cannot be restored.
	ErrInvalidSnapshot = errors.New("navtree: invalid snapshot")
)

// StructuralError reports a violated tree invariant.
type StructuralError struct {
	Op  string  // Operation that detected the violation
	Key NodeKey // Offending node, if known
	Err error   // One of the sentinel errors above
}

// Error returns the error message with operation and key context.
func (e *StructuralError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("navtree: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("navtree: %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStructural.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func structural(op string, key NodeKey, err error) *StructuralError {
	return &StructuralError{Op: op, Key: key, Err: err}
}

// unknownNode panics for a Node implementation outside this package.
// Node is sealed, so reaching this is a bug.
func unknownNode(n Node) {
	panic(fmt.Sprintf("navtree: unknown node type %T", n))
}
