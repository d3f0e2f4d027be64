package persistence

import (
	"context"
	"errors"
)

// Slot is the durable storage for a serialized cart, one logical slot per
// session key. Consumers define this interface, not the backing store.
type Slot interface {
	// Load returns the payload stored for key, or ErrEmptySlot when nothing
	// has been stored yet.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the payload stored for key.
	Save(ctx context.Context, key string, payload []byte) error

	// Delete removes the slot entirely; deleting an absent slot is not an error.
	Delete(ctx context.Context, key string) error
}

var ErrEmptySlot = errors.New("no cart stored for key")
