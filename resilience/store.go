package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/threadkit/threadcache/comment"
)

// Store runs every call to an underlying comment store through an Executor.
//
// An open circuit is reported as comment.ErrStoreUnavailable.
type Store struct {
	inner comment.Store
	exec  *Executor
}

// NewStore wraps inner. A nil exec runs calls unchanged.
func NewStore(inner comment.Store, exec *Executor) *Store {
	if exec == nil {
		exec = NewExecutor()
	}
	return &Store{inner: inner, exec: exec}
}

// FetchRows implements comment.Store.
func (s *Store) FetchRows(ctx context.Context, filter comment.Filter, sort comment.Sort, limit, offset int) ([]comment.Row, error) {
	rows, err := Do(ctx, s.exec, func(ctx context.Context) ([]comment.Row, error) {
		return s.inner.FetchRows(ctx, filter, sort, limit, offset)
	})
	return rows, s.wrap(err)
}

// FetchTotalCount implements comment.Store.
func (s *Store) FetchTotalCount(ctx context.Context, filter comment.Filter) (int, error) {
	n, err := Do(ctx, s.exec, func(ctx context.Context) (int, error) {
		return s.inner.FetchTotalCount(ctx, filter)
	})
	return n, s.wrap(err)
}

// Ping implements comment.Pinger. It bypasses retries and the breaker so that
// health checks see the store's real state. Stores without Ping are assumed
// reachable.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.inner.(comment.Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (s *Store) wrap(err error) error {
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", comment.ErrStoreUnavailable, err)
	}
	return err
}

var (
	_ comment.Store  = (*Store)(nil)
	_ comment.Pinger = (*Store)(nil)
)
