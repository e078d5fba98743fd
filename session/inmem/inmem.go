// Package inmem provides an in-memory implementation of session.Store for
// testing and local development. Data is stored in process memory and is
// lost when the process exits. Production deployments should use a durable
// backend such as features/session/redis.
package inmem

import (
	"context"
	"sync"

	"github.com/ag-ui-protocol/ag-ui-go/session"
)

// Store implements session.Store using an in-process map keyed by session
// id. Sessions are persisted in serialized form so the stored copy shares
// no mutable state with the caller's session: saving and loading round-trip
// through the same snapshot codec the durable backends use.
type Store struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// New returns an in-memory store ready for use.
func New() *Store {
	return &Store{snaps: make(map[string][]byte)}
}

// Save persists a snapshot of the session under id.
func (s *Store) Save(_ context.Context, id string, sess *session.Session) error {
	data, err := sess.Snapshot()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[id] = data
	return nil
}

// Load rebuilds the session stored under id. Returns session.ErrNotFound
// when no snapshot exists.
func (s *Store) Load(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	data, ok := s.snaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, session.ErrNotFound
	}
	return session.Restore(data)
}

// Delete removes the snapshot stored under id. Deleting a missing id is a
// no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

// Reset clears all stored sessions. Primarily useful in tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = make(map[string][]byte)
}
