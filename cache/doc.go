// Package cache provides the bounded result cache used by the retrieval engine.
//
// It provides a Cache interface with a byte-budgeted in-memory implementation,
// deterministic key derivation from request parameters, TTL policies, and a
// typed read-through helper that stores JSON payloads and degrades to
// "uncached" on any cache-side failure.
package cache
