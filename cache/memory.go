package cache

import (
	"bytes"
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryCache is an in-memory cache bounded by a byte budget.
//
// Admission never leaves the sum of payload sizes above Policy.MaxBytes.
// When a new payload does not fit, expired entries are dropped first, then
// rounds of eviction remove the oldest-inserted EvictFraction of live entries
// (at least one) until it does. Eviction follows insertion order, not access
// recency.
//
// Expired entries are never served: Get removes them lazily. EvictExpired and
// StartJanitor reclaim memory held by entries nobody reads.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	policy  Policy
	now     func() time.Time
	size    int64
	seq     uint64
}

type cacheEntry struct {
	key       string
	value     []byte
	createdAt time.Time
	ttl       time.Duration
	size      int64
	seq       uint64 // insertion order among equal createdAt
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock replaces time.Now, mainly for tests that simulate TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy the cache was created with.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Get returns a copy of the cached value. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if entry.expired(c.now()) {
		c.removeLocked(entry)
		return nil, false
	}

	return bytes.Clone(entry.value), true
}

// Set stores a copy of value with the given TTL, evicting older entries if the
// byte budget requires it. TTL<=0 means no caching. A payload larger than the
// whole budget is rejected with ErrEntryTooLarge.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	if c.policy.MaxTTL > 0 && ttl > c.policy.MaxTTL {
		ttl = c.policy.MaxTTL
	}

	size := int64(len(value))
	if c.policy.Bounded() && size > c.policy.MaxBytes {
		return ErrEntryTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// Replacing a key frees its old payload before the budget check.
	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}

	if c.policy.Bounded() && c.size+size > c.policy.MaxBytes {
		c.makeRoomLocked(size, now)
	}

	c.seq++
	c.entries[key] = &cacheEntry{
		key:       key,
		value:     bytes.Clone(value),
		createdAt: now,
		ttl:       ttl,
		size:      size,
		seq:       c.seq,
	}
	c.size += size

	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.removeLocked(entry)
	}
	c.mu.Unlock()
	return nil
}

// EvictExpired removes every expired entry and returns how many were removed.
func (c *MemoryCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked(c.now())
}

// Flush removes all entries and returns how many were removed.
func (c *MemoryCache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	c.size = 0
	return n
}

// SizeBytes returns the summed payload size of entries currently held,
// including expired entries not yet reclaimed.
func (c *MemoryCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of entries currently held.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current occupancy.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:        len(c.entries),
		TotalSizeBytes: c.size,
		MaxSizeBytes:   c.policy.MaxBytes,
	}
}

// StartJanitor sweeps expired entries every interval until ctx is done.
// onSweep, if non-nil, receives the number of entries removed by each sweep.
func (c *MemoryCache) StartJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := c.EvictExpired()
				if onSweep != nil {
					onSweep(removed)
				}
			}
		}
	}()
}

func (c *MemoryCache) removeLocked(entry *cacheEntry) {
	delete(c.entries, entry.key)
	c.size -= entry.size
}

func (c *MemoryCache) evictExpiredLocked(now time.Time) int {
	removed := 0
	for _, entry := range c.entries {
		if entry.expired(now) {
			c.removeLocked(entry)
			removed++
		}
	}
	return removed
}

// makeRoomLocked evicts until need more bytes fit in the budget.
func (c *MemoryCache) makeRoomLocked(need int64, now time.Time) {
	c.evictExpiredLocked(now)
	for c.size+need > c.policy.MaxBytes && len(c.entries) > 0 {
		c.evictOldestLocked()
	}
}

// evictOldestLocked removes the oldest-inserted fraction of entries, rounded
// up, minimum one.
func (c *MemoryCache) evictOldestLocked() int {
	live := make([]*cacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		live = append(live, entry)
	}

	sort.Slice(live, func(i, j int) bool {
		if !live[i].createdAt.Equal(live[j].createdAt) {
			return live[i].createdAt.Before(live[j].createdAt)
		}
		return live[i].seq < live[j].seq
	})

	// The epsilon keeps exact products such as 10*0.3 from rounding up twice.
	n := int(math.Ceil(float64(len(live))*c.policy.evictFraction() - 1e-9))
	if n < 1 {
		n = 1
	}
	if n > len(live) {
		n = len(live)
	}

	for _, entry := range live[:n] {
		c.removeLocked(entry)
	}
	return n
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
