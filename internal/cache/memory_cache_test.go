package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type cachedThing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestEntityKey(t *testing.T) {
	assert.Equal(t, "role:tenant-1:role-1", EntityKey(KindRole, "tenant-1", "role-1"))
	assert.Equal(t, "permission:tenant-1:perm-1", EntityKey(KindPermission, "tenant-1", "perm-1"))
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, zap.NewNop())

	require.NoError(t, c.Set(ctx, "role:t:1", cachedThing{ID: "1", Name: "Admin"}, time.Minute))

	var got cachedThing
	require.True(t, c.Get(ctx, "role:t:1", &got))
	assert.Equal(t, cachedThing{ID: "1", Name: "Admin"}, got)

	assert.False(t, c.Get(ctx, "role:t:2", &got), "unknown key is a miss")

	require.NoError(t, c.Delete(ctx, "role:t:1"))
	assert.False(t, c.Get(ctx, "role:t:1", &got))
}

func TestMemoryCacheExpiryOnRead(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(10, zap.NewNop(), WithClock(clock))

	require.NoError(t, c.Set(ctx, "k", cachedThing{ID: "1"}, time.Minute))

	var got cachedThing
	require.True(t, c.Get(ctx, "k", &got))

	clock.Advance(61 * time.Second)
	assert.False(t, c.Get(ctx, "k", &got), "expired entry is a miss")
	assert.Equal(t, 0, c.Len(), "expired entry dropped on read")
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(10, zap.NewNop(), WithClock(clock), WithDefaultTTL(time.Hour))

	// Non-positive TTL falls back to the default.
	require.NoError(t, c.Set(ctx, "k", cachedThing{ID: "1"}, 0))

	var got cachedThing
	clock.Advance(59 * time.Minute)
	assert.True(t, c.Get(ctx, "k", &got))

	clock.Advance(2 * time.Minute)
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestMemoryCacheCorruptEntryIsMissAndRemoved(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(10, zap.NewNop(), WithClock(clock))

	require.NoError(t, c.Set(ctx, "k", cachedThing{ID: "1"}, time.Minute))

	// Corrupt the stored snapshot behind the cache's back.
	c.mu.Lock()
	entry := c.entries["k"]
	entry.data = []byte("{not json")
	c.entries["k"] = entry
	c.mu.Unlock()

	var got cachedThing
	assert.False(t, c.Get(ctx, "k", &got), "corrupt entry reads as a miss")
	assert.Equal(t, 0, c.Len(), "corrupt entry removed")

	// The slot is reusable afterwards.
	require.NoError(t, c.Set(ctx, "k", cachedThing{ID: "2"}, time.Minute))
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "2", got.ID)
}

func TestMemoryCacheEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(2, zap.NewNop(), WithClock(clock))

	require.NoError(t, c.Set(ctx, "first", cachedThing{ID: "1"}, time.Hour))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, "second", cachedThing{ID: "2"}, time.Hour))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, "third", cachedThing{ID: "3"}, time.Hour))

	assert.Equal(t, 2, c.Len())

	var got cachedThing
	assert.False(t, c.Get(ctx, "first", &got), "oldest insertion evicted")
	assert.True(t, c.Get(ctx, "second", &got))
	assert.True(t, c.Get(ctx, "third", &got))
}

func TestMemoryCacheOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(2, zap.NewNop(), WithClock(clock))

	require.NoError(t, c.Set(ctx, "a", cachedThing{ID: "1"}, time.Hour))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, "b", cachedThing{ID: "2"}, time.Hour))
	clock.Advance(time.Second)

	// Overwriting an existing key at capacity must not evict anything.
	require.NoError(t, c.Set(ctx, "a", cachedThing{ID: "1b"}, time.Hour))
	assert.Equal(t, 2, c.Len())

	var got cachedThing
	require.True(t, c.Get(ctx, "a", &got))
	assert.Equal(t, "1b", got.ID)
	assert.True(t, c.Get(ctx, "b", &got))
}

func TestMemoryCacheSweepExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(10, zap.NewNop(), WithClock(clock))

	require.NoError(t, c.Set(ctx, "short", cachedThing{ID: "1"}, time.Minute))
	require.NoError(t, c.Set(ctx, "long", cachedThing{ID: "2"}, time.Hour))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.sweepExpired())
	assert.Equal(t, 1, c.Len())

	var got cachedThing
	assert.True(t, c.Get(ctx, "long", &got))
	assert.Equal(t, 0, c.sweepExpired(), "second sweep finds nothing")
}

func TestMemoryCacheStartStop(t *testing.T) {
	c := NewMemoryCache(10, zap.NewNop(), WithSweepInterval(10*time.Millisecond))
	c.Start()
	// Stop must terminate the sweep goroutine without hanging.
	c.Stop()
}
