// Package repository defines the counter store interface and its in-memory
// implementation.
package repository

import (
	"context"

	"github.com/okian/counters/internal/domain/counter"
)

// Store provides read/write access to the counter registry. Every method
// touches at most one named entry, except Count and Snapshot.
type Store interface {
	// Create inserts name with value 0.
	// Returns counter.ErrConflict if name already exists.
	Create(ctx context.Context, name string) (counter.Counter, error)

	// Get returns the current value of name.
	// Returns counter.ErrNotFound if name is unknown.
	Get(ctx context.Context, name string) (counter.Counter, error)

	// Increment adds one to name and returns the new value.
	// Returns counter.ErrNotFound without creating the entry if name is unknown.
	Increment(ctx context.Context, name string) (counter.Counter, error)

	// Delete removes name.
	// Returns counter.ErrNotFound if name is unknown.
	Delete(ctx context.Context, name string) error

	// Count returns the number of counters in the store.
	Count(ctx context.Context) int

	// Snapshot returns every counter ordered by name. Each shard is copied
	// under its own lock, so the result is not a global point-in-time view.
	Snapshot(ctx context.Context) []counter.Counter
}
