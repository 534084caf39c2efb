package snapstore

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when operations are attempted on a closed store.
var ErrClosed = errors.New("snapstore: store is closed")

// Store persists snapshots. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under id, overwriting any previous snapshot.
	Save(ctx context.Context, id string, data []byte) error

	// Load returns the snapshot for id.
	// Returns (nil, nil) if there is none.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes the snapshot for id. Deleting a missing id is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns the stored ids in lexical order.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// Entry is a stored snapshot with its metadata.
type Entry struct {
	ID      string
	Data    []byte
	SavedAt time.Time
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
