package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemStore is an in-memory StateStore, safe for concurrent use. It is the
// default backend for a single-process server; a clustered deployment
// wires session/redisstore instead (spec §4.10 doesn't mandate a specific
// backend, only the Put/Get/Delete/TTL contract).
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[string]entry // sessionID -> key -> entry
}

var _ StateStore = (*MemStore)(nil)

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string]entry)}
}

// Put stores value under (sessionID, key) with the given ttl. A zero ttl
// means the entry never expires.
func (s *MemStore) Put(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.data[sessionID]
	if !ok {
		bucket = make(map[string]entry)
		s.data[sessionID] = bucket
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	bucket[key] = e
	return nil
}

// Get returns the value stored under (sessionID, key). ErrNotFound covers
// both a never-set key and one whose TTL has elapsed.
func (s *MemStore) Get(ctx context.Context, sessionID, key string) (any, error) {
	s.mu.RLock()
	bucket, ok := s.data[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	e, ok := bucket[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if e.expired(time.Now()) {
		// Lazily reclaim the slot; do not treat this as an error path for
		// the caller beyond the not-found result.
		s.mu.Lock()
		delete(bucket, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.value, nil
}

// Delete removes (sessionID, key) if present. Deleting a missing key is a
// no-op, matching inmem.Store's idempotent-end semantics for lifecycle
// operations.
func (s *MemStore) Delete(ctx context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok := s.data[sessionID]; ok {
		delete(bucket, key)
	}
	return nil
}
