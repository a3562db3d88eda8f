// Package storage is the durable key/value layer shared by every client
// process on the machine, together with its change feed.
//
// A Store behaves like browser local storage: values survive restarts, and a
// Subscribe channel reports changes made by other execution contexts (other
// Store handles on the same backing data) but not the handle's own writes.
// Two implementations are provided: an SQLite file (OpenSQLite) for real use
// and an in-process Hub for tests and embedded use. Sealed wraps any Store to
// encrypt values at rest.
package storage

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("storage closed")

// Change describes a mutation performed by another execution context.
type Change struct {
	Key     string
	Removed bool
	Origin  string
}

// Store is a durable key/value store with a cross-context change feed.
type Store interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes all keys atomically. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Subscribe returns a channel of changes made by other contexts and a
	// function that cancels the subscription and closes the channel.
	Subscribe() (<-chan Change, func())
	// Origin identifies this execution context in Change.Origin.
	Origin() string
	Close() error
}
