// Package cache provides the read-through, write-invalidate entity cache in
// front of the role and permission repositories. Entries are immutable JSON
// snapshots keyed "<kind>:<tenantID>:<id>"; a corrupted entry is dropped and
// reported as a miss, never as an error.
package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 3600 * time.Second

	// DefaultSweepInterval is how often the background sweep drops expired
	// entries independent of access patterns.
	DefaultSweepInterval = 5 * time.Minute

	// KindRole and KindPermission are the entity kinds used in cache keys.
	KindRole       = "role"
	KindPermission = "permission"
)

// EntityKey formats the cache key for a tenant-scoped entity.
func EntityKey(kind, tenantID, id string) string {
	return fmt.Sprintf("%s:%s:%s", kind, tenantID, id)
}

// EntityCache is the contract shared by the in-memory and redis caches.
type EntityCache interface {
	// Get unmarshals the cached snapshot into dest and reports whether it was
	// found. Deserialization failures delete the corrupt entry and report a
	// miss.
	Get(ctx context.Context, key string, dest interface{}) bool

	// Set stores a JSON snapshot of value. A non-positive ttl means DefaultTTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes the entry if present.
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time for TTL decisions so expiry is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }
