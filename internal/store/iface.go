// Package store persists opaque named slots. The agent store keeps its whole snapshot in one slot.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by GetSlot when the key has never been written or was deleted.
var ErrNotFound = errors.New("slot not found")

// Slot is one stored key and its metadata.
type Slot struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Store is the persistence interface for slots.
// Implementations: SQLite (this package) and *postgres.Store (PostgreSQL).
type Store interface {
	GetSlot(ctx context.Context, key string) ([]byte, error)
	PutSlot(ctx context.Context, key string, value []byte) error
	DeleteSlot(ctx context.Context, key string) error
	ListSlots(ctx context.Context) ([]Slot, error)
	Close() error
}
