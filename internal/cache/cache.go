// Package cache memoizes search backend responses for the lifetime of one
// research run.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"
)

// DefaultTTL is how long a cached response stays usable.
const DefaultTTL = 24 * time.Hour

// Entry is one memoized backend response. Entries are never mutated.
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// Fresh reports whether e is still inside ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Store is a key to payload map with read-time expiry. A Get for an entry
// older than the TTL reports a miss; stale entries are not evicted.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Key derives the cache key for a query text issued in the given mode.
func Key(mode, text string) string {
	sum := md5.Sum([]byte(text))
	return mode + "_" + hex.EncodeToString(sum[:])
}
