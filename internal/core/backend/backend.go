// Package backend provides the key-value capability the rate limiter and
// result cache are built on, with interchangeable in-process and Redis
// implementations and a per-concern failover registry between them.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a transport-level failure talking to a shared store.
// Implementations must wrap it so callers can tell an outage from a miss;
// it never carries domain meaning and never reaches end callers.
var ErrUnavailable = errors.New("backend unavailable")

// Backend is the capability set shared by the rate limiter and the result
// cache. A miss is ("", false, nil) from Get, never an error.
type Backend interface {
	// Incr atomically adds amount to the counter at key and returns the new
	// value. When the increment creates the key, ttl is applied exactly once;
	// later increments must not refresh it.
	Incr(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error)

	// Get returns the value at key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value at key with the given TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}
