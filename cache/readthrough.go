package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrorHook receives cache-side failures that were absorbed. key is empty
// when the failure happened before a key was derived.
type ErrorHook func(ctx context.Context, key string, err error)

// ReadThroughConfig configures a ReadThrough.
type ReadThroughConfig struct {
	// TTL overrides Policy.DefaultTTL for admitted entries. Clamped to Policy.MaxTTL.
	TTL time.Duration

	// SingleFlight coalesces concurrent misses for the same key into one load.
	// Default: false (each miss loads independently)
	SingleFlight bool

	// FillTimeout bounds a coalesced load. The load runs detached from the
	// caller that started it, so one caller giving up does not fail the rest.
	// Default: 30s
	FillTimeout time.Duration

	// OnError is called for every absorbed cache failure.
	OnError ErrorHook
}

// DefaultFillTimeout is used when ReadThroughConfig.FillTimeout is unset.
const DefaultFillTimeout = 30 * time.Second

// Lookup is the outcome of ReadThrough.Load.
type Lookup[T any] struct {
	Value T
	Key   string // empty when no key could be derived
	Hit   bool
}

// ReadThrough serves values of type T from a Cache, computing and admitting
// them on miss. Values are stored as JSON.
//
// Cache-side failures (key derivation, encoding, decoding, admission) never
// fail a call: the freshly loaded value is returned uncached and the failure
// goes to OnError. Load errors are returned unchanged and are not cached.
type ReadThrough[T any] struct {
	cache  Cache
	keyer  Keyer
	policy Policy
	config ReadThroughConfig
	group  singleflight.Group
}

// NewReadThrough creates a read-through loader over cache.
func NewReadThrough[T any](cache Cache, keyer Keyer, policy Policy, config ReadThroughConfig) *ReadThrough[T] {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if config.FillTimeout <= 0 {
		config.FillTimeout = DefaultFillTimeout
	}
	return &ReadThrough[T]{
		cache:  cache,
		keyer:  keyer,
		policy: policy,
		config: config,
	}
}

// Load returns the cached value for (namespace, params) or computes it with load.
func (r *ReadThrough[T]) Load(
	ctx context.Context,
	namespace string,
	params map[string]any,
	load func(context.Context) (T, error),
) (Lookup[T], error) {
	if r.cache == nil || !r.policy.ShouldCache() {
		v, err := load(ctx)
		return Lookup[T]{Value: v}, err
	}

	key, err := r.keyer.Key(namespace, params)
	if err != nil {
		r.report(ctx, "", err)
		v, err := load(ctx)
		return Lookup[T]{Value: v}, err
	}

	if v, ok := r.get(ctx, key); ok {
		return Lookup[T]{Value: v, Key: key, Hit: true}, nil
	}

	if !r.config.SingleFlight {
		v, err := r.fill(ctx, key, load)
		return Lookup[T]{Value: v, Key: key}, err
	}

	ch := r.group.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.FillTimeout)
		defer cancel()
		return r.fill(fillCtx, key, load)
	})

	var zero T
	select {
	case <-ctx.Done():
		return Lookup[T]{Value: zero, Key: key}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Lookup[T]{Value: zero, Key: key}, res.Err
		}
		return Lookup[T]{Value: res.Val.(T), Key: key}, nil
	}
}

func (r *ReadThrough[T]) get(ctx context.Context, key string) (T, bool) {
	var v T

	data, ok := r.cache.Get(ctx, key)
	if !ok {
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		r.report(ctx, key, err)
		_ = r.cache.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return v, true
}

func (r *ReadThrough[T]) fill(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		r.report(ctx, key, err)
		return v, nil
	}

	ttl := r.policy.EffectiveTTL(r.config.TTL)
	if err := r.cache.Set(ctx, key, data, ttl); err != nil {
		r.report(ctx, key, err)
	}
	return v, nil
}

func (r *ReadThrough[T]) report(ctx context.Context, key string, err error) {
	if r.config.OnError != nil {
		r.config.OnError(ctx, key, err)
	}
}
