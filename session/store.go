package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when no session exists for the id.
var ErrNotFound = errors.New("session not found")

// Store persists session snapshots so drivers can resume a conversation
// after a disconnect by replaying from the stored state. Implementations
// must be safe for concurrent use.
type Store interface {
	// Save persists the session under id, replacing any previous snapshot.
	Save(ctx context.Context, id string, sess *Session) error
	// Load rebuilds the session stored under id. Returns ErrNotFound when
	// no snapshot exists.
	Load(ctx context.Context, id string) (*Session, error)
	// Delete removes the snapshot stored under id. Deleting a missing id
	// is not an error.
	Delete(ctx context.Context, id string) error
}
