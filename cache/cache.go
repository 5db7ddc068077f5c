package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache         = errors.New("cache: cache is nil")
	ErrInvalidKey       = errors.New("cache: key is invalid")
	ErrKeyTooLong       = errors.New("cache: key exceeds max length")
	ErrInvalidNamespace = errors.New("cache: namespace is invalid")
	ErrEntryTooLarge    = errors.New("cache: entry exceeds cache budget")
)

// Cache stores computed result payloads.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss or expiry.
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss. The caller
	// owns the returned bytes; changing them never alters the stored entry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL=0 means no caching.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Stats is a point-in-time view of a cache's occupancy.
type Stats struct {
	Entries        int   `json:"entries"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
	MaxSizeBytes   int64 `json:"maxSizeBytes"`
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
