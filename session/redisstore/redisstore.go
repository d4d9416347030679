// Package redisstore implements session.StateStore over Redis, for
// deployments that run more than one server process against the same
// sessions (spec §4.10 doesn't mandate a backend; MemStore only works
// single-process). It is grounded on registry/result_stream.go's
// resultStreamManager: a *redis.Client wrapped behind a narrow interface,
// JSON-encoded payloads, native key TTL via SET EX / EXPIRE, and
// redis.Nil translated to the package's own not-found sentinel.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/mcpcore/session"
)

// Store implements session.StateStore over a Redis client. Keys are
// namespaced "mcpcore:session:<sessionID>:<key>" so unrelated keyspaces on
// a shared Redis instance don't collide with this store.
type Store struct {
	rdb *redis.Client
}

var _ session.StateStore = (*Store)(nil)

// New constructs a Store over an existing Redis client. The caller owns
// the client's lifecycle (construction, auth, close).
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func redisKey(sessionID, key string) string {
	return fmt.Sprintf("mcpcore:session:%s:%s", sessionID, key)
}

// Put stores value, JSON-encoded, under (sessionID, key). A zero ttl
// stores the key without expiry.
func (s *Store) Put(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redisstore: encode value: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(sessionID, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set: %w", err)
	}
	return nil
}

// Get retrieves and JSON-decodes the value stored under (sessionID, key).
// Because the round trip goes through JSON, a value decodes back as the
// generic shape encoding/json produces (map[string]any, []any, float64,
// ...) rather than its original Go type — callers storing a concrete type
// such as []session.Rule through this backend must re-decode the
// returned value themselves (e.g. via a second json.Marshal/Unmarshal
// through the concrete type) rather than type-asserting it directly, the
// way session.VisibilityRules does against MemStore.
func (s *Store) Get(ctx context.Context, sessionID, key string) (any, error) {
	raw, err := s.rdb.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get: %w", err)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("redisstore: decode value: %w", err)
	}
	return value, nil
}

// Delete removes (sessionID, key) if present.
func (s *Store) Delete(ctx context.Context, sessionID, key string) error {
	if err := s.rdb.Del(ctx, redisKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete: %w", err)
	}
	return nil
}
