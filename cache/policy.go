package cache

import "time"

// DefaultEvictFraction is the share of live entries removed per eviction round.
const DefaultEvictFraction = 0.3

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// MaxBytes is the byte budget for all live payloads.
	// If zero or negative, the cache is unbounded.
	MaxBytes int64

	// EvictFraction is the share of live entries, oldest-inserted first,
	// removed by one eviction round. Values outside (0, 1] mean DefaultEvictFraction.
	EvictFraction float64
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour, MaxBytes: 64 MiB, EvictFraction: 0.3
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:    5 * time.Minute,
		MaxTTL:        1 * time.Hour,
		MaxBytes:      64 << 20,
		EvictFraction: DefaultEvictFraction,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// Bounded returns true if the policy enforces a byte budget.
func (p Policy) Bounded() bool {
	return p.MaxBytes > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// evictFraction returns EvictFraction, or the default when it is out of range.
func (p Policy) evictFraction() float64 {
	if p.EvictFraction <= 0 || p.EvictFraction > 1 {
		return DefaultEvictFraction
	}
	return p.EvictFraction
}
