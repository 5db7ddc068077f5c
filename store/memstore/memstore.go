// Package memstore is an in-process comment store. It backs the memory store
// driver, local development and tests.
package memstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/threadkit/threadcache/comment"
)

// Store holds comment rows in memory.
type Store struct {
	mu   sync.RWMutex
	rows []comment.Row
}

// New creates a store seeded with rows.
func New(rows ...comment.Row) *Store {
	s := &Store{}
	s.Add(rows...)
	return s
}

// LoadFile creates a store seeded from a JSON array of rows.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memstore: read seed %q: %w", path, err)
	}
	var rows []comment.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("memstore: decode seed %q: %w", path, err)
	}
	return New(rows...), nil
}

// Add appends rows. Rows are copied.
func (s *Store) Add(rows ...comment.Row) {
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// FetchRows implements comment.Store. A limit <= 0 means no limit.
func (s *Store) FetchRows(ctx context.Context, filter comment.Filter, sort comment.Sort, limit, offset int) ([]comment.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := s.match(filter)
	slices.SortStableFunc(matched, compareRows(sort))

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []comment.Row{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// FetchTotalCount implements comment.Store.
func (s *Store) FetchTotalCount(ctx context.Context, filter comment.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(s.match(filter)), nil
}

// Ping implements comment.Pinger. The memory store is always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) match(filter comment.Filter) []comment.Row {
	needle := strings.ToLower(filter.Contains)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]comment.Row, 0, len(s.rows))
	for _, r := range s.rows {
		if Matches(r, filter, needle) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether r satisfies filter. needle is filter.Contains
// already lowercased.
func Matches(r comment.Row, filter comment.Filter, needle string) bool {
	switch {
	case filter.EntityID != "" && r.EntityID != filter.EntityID:
		return false
	case filter.EntityType != "" && r.EntityType != filter.EntityType:
		return false
	case len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, r.Status):
		return false
	case len(filter.AuthorIDs) > 0 && !slices.Contains(filter.AuthorIDs, r.AuthorID):
		return false
	case filter.RootsOnly && !r.IsRoot():
		return false
	case !filter.DateFrom.IsZero() && r.CreatedAt.Before(filter.DateFrom):
		return false
	case !filter.DateTo.IsZero() && r.CreatedAt.After(filter.DateTo):
		return false
	case needle != "" && !strings.Contains(strings.ToLower(r.Content), needle):
		return false
	}
	return true
}

func compareRows(sort comment.Sort) func(a, b comment.Row) int {
	return func(a, b comment.Row) int {
		ta, tb := a.CreatedAt, b.CreatedAt
		if sort.Field == comment.SortByUpdatedAt {
			ta, tb = a.UpdatedAt, b.UpdatedAt
		}
		c := ta.Compare(tb)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if sort.Order == comment.SortDesc {
			c = -c
		}
		return c
	}
}

var (
	_ comment.Store  = (*Store)(nil)
	_ comment.Pinger = (*Store)(nil)
)
