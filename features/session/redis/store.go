// Package redis wires the session.Store interface to a Redis backend.
// Sessions persist as snapshot JSON under a prefixed key, optionally with a
// TTL, so a driver can resume a conversation from another process after a
// disconnect.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ag-ui-protocol/ag-ui-go/session"
)

// DefaultKeyPrefix namespaces session keys in a shared Redis instance.
const DefaultKeyPrefix = "agui:session:"

type (
	// Store implements session.Store on top of a Redis client.
	Store struct {
		client redis.UniversalClient
		prefix string
		ttl    time.Duration
	}

	// Option configures a Store.
	Option func(*Store)
)

// WithKeyPrefix overrides the key prefix used for session keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires stored sessions after d. Zero (the default) stores
// sessions without expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// NewStore builds a Redis-backed session store using the provided client.
func NewStore(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save persists a snapshot of the session under id.
func (s *Store) Save(ctx context.Context, id string, sess *session.Session) error {
	data, err := sess.Snapshot()
	if err != nil {
		return fmt.Errorf("save session %q: %w", id, err)
	}
	if err := s.client.Set(ctx, s.prefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %q: %w", id, err)
	}
	return nil
}

// Load rebuilds the session stored under id. Returns session.ErrNotFound
// when no snapshot exists.
func (s *Store) Load(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}
	sess, err := session.Restore(data)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}
	return sess, nil
}

// Delete removes the snapshot stored under id. Deleting a missing id is a
// no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}
