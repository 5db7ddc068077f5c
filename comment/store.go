package comment

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable is returned by stores that cannot reach their backend.
var ErrStoreUnavailable = errors.New("store: unavailable")

// SortField is a column rows can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort is an ordering over rows. Ties are broken by ID in the same direction.
type Sort struct {
	Field SortField
	Order SortOrder
}

// Filter selects rows. All set conditions are combined with AND; zero values
// mean "no condition".
type Filter struct {
	EntityID   string
	EntityType string
	Statuses   []Status
	AuthorIDs  []string
	RootsOnly  bool
	DateFrom   time.Time // inclusive
	DateTo     time.Time // inclusive
	// Contains is a case-insensitive substring matched against Content.
	Contains string
}

// Store is the durable comment store, seen from the retrieval engine.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Filtering: FetchRows and FetchTotalCount apply the same Filter semantics.
type Store interface {
	// FetchRows returns up to limit rows matching filter, ordered by sort,
	// skipping the first offset matches.
	FetchRows(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]Row, error)

	// FetchTotalCount returns the number of rows matching filter.
	FetchTotalCount(ctx context.Context, filter Filter) (int, error)
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
