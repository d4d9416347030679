// Package session implements the session state store (spec §4.10, C10):
// a TTL'd key-value store scoped by session id, used both for user-placed
// session state and for session-level component visibility rules (spec
// §4.6). It is grounded on runtime/agent/session/session.go's Store
// contract — context-first methods, sentinel errors, durable-vs-in-memory
// implementation split — generalized from session/run lifecycle metadata
// to an arbitrary TTL'd key-value namespace.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the default lifetime for user-placed session state (spec
// §4.10: "default TTL for user-placed state is 1 day").
const DefaultTTL = 24 * time.Hour

// ErrNotFound indicates a key does not exist in the store, or existed but
// has expired.
var ErrNotFound = errors.New("session: key not found")

// StateStore is the per-session key-value interface spec §4.10 requires:
// Put/Get/Delete, with TTL-based expiry. Implementations key entries by
// (sessionID, key) so sessions stay isolated from one another without the
// caller having to prefix keys itself.
type StateStore interface {
	Put(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, sessionID, key string) (any, error)
	Delete(ctx context.Context, sessionID, key string) error
}

// ResolveSessionID implements spec §4.10's session id derivation: prefer
// the transport's session header when present, otherwise generate one
// (newID) and have the caller cache it on the underlying session object.
// ResolveSessionID itself is pure — callers are responsible for the
// caching step, since only they know what "the underlying session
// object" is for their transport.
func ResolveSessionID(headerValue string, newID func() string) string {
	if headerValue != "" {
		return headerValue
	}
	return newID()
}
