package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/utils/metrics"
)

type memoryEntry struct {
	data       []byte
	insertedAt time.Time
	expiresAt  time.Time
}

// MemoryCache is a bounded in-process EntityCache. A single mutex guards the
// map; entries are immutable snapshots, so no per-key locking is needed. When
// full, the single oldest-by-insertion entry is evicted before insert.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	maxSize       int
	defaultTTL    time.Duration
	sweepInterval time.Duration
	clock         Clock
	logger        *zap.Logger

	stopCh  chan struct{}
	stopped sync.WaitGroup
}

// MemoryCacheOption customizes a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock injects a clock for tests.
func WithClock(clock Clock) MemoryCacheOption {
	return func(c *MemoryCache) { c.clock = clock }
}

// WithDefaultTTL overrides the default entry lifetime.
func WithDefaultTTL(ttl time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) { c.defaultTTL = ttl }
}

// WithSweepInterval overrides the background sweep period.
func WithSweepInterval(interval time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) { c.sweepInterval = interval }
}

// NewMemoryCache creates a MemoryCache holding at most maxSize entries.
func NewMemoryCache(maxSize int, logger *zap.Logger, opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries:       make(map[string]memoryEntry),
		maxSize:       maxSize,
		defaultTTL:    DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		clock:         SystemClock(),
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the background TTL sweep. It never blocks request paths.
func (c *MemoryCache) Start() {
	c.stopped.Add(1)
	go func() {
		defer c.stopped.Done()
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := c.sweepExpired()
				if removed > 0 {
					c.logger.Debug("Cache sweep removed expired entries", zap.Int("removed", removed))
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine and waits for it to exit.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
	c.stopped.Wait()
}

// Get implements EntityCache.
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		metrics.CacheOperationsTotal.WithLabelValues("get", "miss").Inc()
		return false
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		// Corrupt snapshot: drop it and treat as a miss.
		c.logger.Warn("Dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		metrics.CacheOperationsTotal.WithLabelValues("get", "corrupt").Inc()
		return false
	}

	metrics.CacheOperationsTotal.WithLabelValues("get", "hit").Inc()
	return true
}

// Set implements EntityCache.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = memoryEntry{
		data:       data,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	metrics.CacheOperationsTotal.WithLabelValues("set", "ok").Inc()
	return nil
}

// Delete implements EntityCache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	metrics.CacheOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Len returns the current number of entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the single oldest-by-insertion entry. Only the
// insertion timestamp is tracked, not last access.
func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		metrics.CacheOperationsTotal.WithLabelValues("evict", "ok").Inc()
	}
}

// sweepExpired removes every expired entry and returns how many were dropped.
func (c *MemoryCache) sweepExpired() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheOperationsTotal.WithLabelValues("sweep", "ok").Add(float64(removed))
	}
	return removed
}
