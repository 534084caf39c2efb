package navtree

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// KeyGenerator produces node keys for new nodes.
// Implementations must be safe for concurrent use.
type KeyGenerator interface {
	NewKey() NodeKey
}

// KeyFunc adapts a function to KeyGenerator.
type KeyFunc func() NodeKey

// NewKey implements KeyGenerator.
func (f KeyFunc) NewKey() NodeKey { return f() }

// UUIDKeys returns a generator of random UUID keys. It is the default
// generator used by tree operations.
func UUIDKeys() KeyGenerator {
	return KeyFunc(func() NodeKey {
		return NodeKey(uuid.NewString())
	})
}

// SequentialKeys generates prefix1, prefix2, ... It is deterministic, which
// makes it useful in tests and tooling.
type SequentialKeys struct {
	prefix string
	next   atomic.Uint64
}

// NewSequentialKeys creates a sequential generator with the given prefix.
func NewSequentialKeys(prefix string) *SequentialKeys {
	return &SequentialKeys{prefix: prefix}
}

// NewKey implements KeyGenerator.
func (s *SequentialKeys) NewKey() NodeKey {
	return NodeKey(s.prefix + strconv.FormatUint(s.next.Add(1), 10))
}
