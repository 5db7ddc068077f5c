package retrieval

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/observe"
	"github.com/threadkit/threadcache/query"
	"github.com/threadkit/threadcache/search"
	"github.com/threadkit/threadcache/thread"
)

// Cache namespaces.
const (
	NamespacePaginated = "comments-paginated"
	NamespaceSearch    = "comments-search"
)

var (
	// ErrRetrievalFailed is returned when a page cannot be built. The
	// underlying cause is wrapped for logging and must not be shown to
	// untrusted callers.
	ErrRetrievalFailed = errors.New("retrieval: retrieval failed")

	// ErrNilStore is returned by NewFacade without a store.
	ErrNilStore = errors.New("retrieval: store is nil")

	// ErrMissingEntity is returned by GetPaginated without an entity id. Pages
	// are always scoped to one entity.
	ErrMissingEntity = errors.New("retrieval: entity id is required")
)

// AdminCache is the cache a Facade reads through and administers.
type AdminCache interface {
	cache.Cache
	Policy() cache.Policy
	Stats() cache.Stats
	EvictExpired() int
	Flush() int
}

var _ AdminCache = (*cache.MemoryCache)(nil)

// Config tunes a Facade.
type Config struct {
	// Limits bound page size and reply depth.
	// Default: query.DefaultLimits()
	Limits query.Limits

	// Search configures highlighting and default search statuses.
	// Default: search.DefaultConfig()
	Search search.Config

	// TTL is how long results stay cached. Clamped to the cache policy's MaxTTL.
	// Default: the cache policy's DefaultTTL
	TTL time.Duration

	// SingleFlight coalesces concurrent misses for the same key.
	SingleFlight bool
}

// Option configures a Facade.
type Option func(*Facade)

// WithReactions sets the source of viewer reactions.
// Default: comment.NoReactions
func WithReactions(src comment.ReactionSource) Option {
	return func(f *Facade) { f.reactions = src }
}

// WithMiddleware instruments facade operations.
// Default: observe.NopMiddleware()
func WithMiddleware(mw *observe.Middleware) Option {
	return func(f *Facade) { f.mw = mw }
}

// WithKeyer replaces the cache key codec.
func WithKeyer(k cache.Keyer) Option {
	return func(f *Facade) { f.keyer = k }
}

// PageRequest asks for one page of threads under an entity.
type PageRequest struct {
	EntityID   string
	EntityType string

	// Statuses restricts comment status. Default: approved only.
	Statuses []comment.Status

	Options query.RawOptions

	// ViewerID is the advisory viewer identity; empty is anonymous.
	ViewerID string
}

// SearchRequest asks for comments whose content contains Query.
type SearchRequest struct {
	Query   string
	Filters search.Filters
	Options query.RawOptions
}

// Facade serves paginated threads and searches through a result cache.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: miss-path store failures return ErrRetrievalFailed or
//     search.ErrSearchFailed wrapping the cause; cache failures are logged and
//     never returned.
//   - Cache: a hit never touches the store.
type Facade struct {
	store     comment.Store
	cache     AdminCache
	keyer     cache.Keyer
	reactions comment.ReactionSource
	mw        *observe.Middleware
	planner   *query.Planner
	engine    *search.Engine
	config    Config
	now       func() time.Time

	pages    *cache.ReadThrough[PaginatedResult]
	searches *cache.ReadThrough[search.Result]
}

// NewFacade creates a Facade over store and c. A nil c disables caching.
func NewFacade(store comment.Store, c AdminCache, config Config, opts ...Option) (*Facade, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if config.Limits == (query.Limits{}) {
		config.Limits = query.DefaultLimits()
	}
	if config.Search.Limits == (query.Limits{}) {
		config.Search.Limits = config.Limits
	}

	f := &Facade{
		store:     store,
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		reactions: comment.NoReactions{},
		mw:        observe.NopMiddleware(),
		config:    config,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.planner = query.NewPlanner(config.Limits)
	f.engine = search.NewEngine(store, config.Search)

	policy := cache.NoCachePolicy()
	var backing cache.Cache
	if c != nil {
		policy = c.Policy()
		backing = c
	}
	rtc := cache.ReadThroughConfig{
		TTL:          config.TTL,
		SingleFlight: config.SingleFlight,
		OnError:      f.cacheError,
	}
	f.pages = cache.NewReadThrough[PaginatedResult](backing, f.keyer, policy, rtc)
	f.searches = cache.NewReadThrough[search.Result](backing, f.keyer, policy, rtc)

	return f, nil
}

// Planner returns the planner used to validate request options.
func (f *Facade) Planner() *query.Planner {
	return f.planner
}

// GetPaginated returns one page of root comments for req.EntityID with their
// replies attached up to the planned depth.
//
// The page and the total are computed over the same filter. When replies are
// included they share the page window with roots, so a reply whose parent
// falls outside the window is left out.
func (f *Facade) GetPaginated(ctx context.Context, req PageRequest) (PaginatedResult, error) {
	if strings.TrimSpace(req.EntityID) == "" {
		return PaginatedResult{}, ErrMissingEntity
	}
	start := f.now()
	opts := f.planner.Plan(req.Options)

	statuses := req.Statuses
	if len(statuses) == 0 {
		statuses = []comment.Status{comment.StatusApproved}
	}
	filter := comment.Filter{
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
		Statuses:   statuses,
		RootsOnly:  !opts.IncludeReplies,
	}

	params := map[string]any{
		"entityId":       req.EntityID,
		"entityType":     req.EntityType,
		"status":         statusSet(statuses),
		"page":           opts.Page,
		"limit":          opts.Limit,
		"sortBy":         opts.SortBy,
		"sortOrder":      opts.SortOrder,
		"includeReplies": opts.IncludeReplies,
		"maxDepth":       opts.MaxDepth,
		"viewerId":       req.ViewerID,
	}

	load := func(ctx context.Context) (PaginatedResult, error) {
		rows, err := f.store.FetchRows(ctx, filter, opts.Sort(), opts.Limit, opts.Offset())
		if err != nil {
			return PaginatedResult{}, fmt.Errorf("fetch rows: %w", err)
		}
		total, err := f.store.FetchTotalCount(ctx, filter)
		if err != nil {
			return PaginatedResult{}, fmt.Errorf("count rows: %w", err)
		}

		tree := thread.Build(rows, thread.Options{IncludeReplies: opts.IncludeReplies, MaxDepth: opts.MaxDepth})
		if len(tree.Orphans) > 0 || tree.Truncated > 0 {
			f.mw.Logger().Debug(ctx, "replies left out of page",
				observe.F("entity_id", req.EntityID),
				observe.F("orphans", len(tree.Orphans)),
				observe.F("truncated", tree.Truncated),
			)
		}

		thread.Annotate(tree.Nodes, req.ViewerID, f.lookupReactions(ctx, req.ViewerID, tree))

		items := tree.Roots
		if items == nil {
			items = []*comment.Node{}
		}
		return PaginatedResult{
			Items:      items,
			Pagination: NewPagination(opts.Page, opts.Limit, total),
		}, nil
	}

	var result PaginatedResult
	op := observe.Operation{Name: "get_paginated", Namespace: NamespacePaginated}
	err := f.mw.Run(ctx, op, func(ctx context.Context) (observe.Outcome, error) {
		lookup, err := f.pages.Load(ctx, NamespacePaginated, params, load)
		out := observe.Outcome{
			CacheHit: lookup.Hit,
			Fields: []observe.Field{
				observe.F("cache_key", lookup.Key),
				observe.F("entity_id", req.EntityID),
			},
		}
		if err != nil {
			return out, err
		}
		result = lookup.Value
		result.Metadata = Metadata{CacheHit: lookup.Hit, CacheKey: lookup.Key}
		return out, nil
	})
	if err != nil {
		return PaginatedResult{}, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	result.Metadata.QueryTimeMs = f.now().Sub(start).Milliseconds()
	return result, nil
}

// Search returns one page of comments matching req.Query with highlight
// snippets. A blank query returns search.ErrEmptyQuery.
func (f *Facade) Search(ctx context.Context, req SearchRequest) (search.Result, error) {
	start := f.now()

	q := strings.TrimSpace(req.Query)
	if q == "" {
		return search.Result{}, search.ErrEmptyQuery
	}

	sreq := search.Request{
		Query:   q,
		Filters: req.Filters,
		Options: f.planner.Plan(req.Options),
	}
	// Normalize through the engine so default statuses are part of the key.
	filter := f.engine.Filter(sreq)

	params := map[string]any{
		"q":          q,
		"entityId":   filter.EntityID,
		"entityType": filter.EntityType,
		"status":     statusSet(filter.Statuses),
		"authorId":   stringSet(filter.AuthorIDs),
		"dateFrom":   filter.DateFrom,
		"dateTo":     filter.DateTo,
		"page":       sreq.Options.Page,
		"limit":      sreq.Options.Limit,
		"sortBy":     sreq.Options.SortBy,
		"sortOrder":  sreq.Options.SortOrder,
	}

	var result search.Result
	op := observe.Operation{Name: "search", Namespace: NamespaceSearch}
	err := f.mw.Run(ctx, op, func(ctx context.Context) (observe.Outcome, error) {
		lookup, err := f.searches.Load(ctx, NamespaceSearch, params, func(ctx context.Context) (search.Result, error) {
			return f.engine.Search(ctx, sreq)
		})
		out := observe.Outcome{
			CacheHit: lookup.Hit,
			Fields:   []observe.Field{observe.F("cache_key", lookup.Key)},
		}
		if err != nil {
			return out, err
		}
		result = lookup.Value
		return out, nil
	})
	if err != nil {
		if errors.Is(err, search.ErrSearchFailed) {
			return search.Result{}, err
		}
		return search.Result{}, fmt.Errorf("%w: %w", search.ErrSearchFailed, err)
	}

	result.SearchTimeMs = f.now().Sub(start).Milliseconds()
	return result, nil
}

// Stats reports cache occupancy. Without a cache it is all zeros.
func (f *Facade) Stats() cache.Stats {
	if f.cache == nil {
		return cache.Stats{}
	}
	return f.cache.Stats()
}

// CleanupExpired removes expired cache entries and returns how many were removed.
func (f *Facade) CleanupExpired(ctx context.Context) int {
	if f.cache == nil {
		return 0
	}
	n := f.cache.EvictExpired()
	f.mw.Logger().Info(ctx, "expired cache entries removed", observe.F("removed", n))
	return n
}

// FlushCache drops every cache entry and returns how many were removed.
func (f *Facade) FlushCache(ctx context.Context) int {
	if f.cache == nil {
		return 0
	}
	n := f.cache.Flush()
	f.mw.Logger().Info(ctx, "cache flushed", observe.F("removed", n))
	return n
}

// lookupReactions degrades to no reactions when the source fails; the flags
// are advisory.
func (f *Facade) lookupReactions(ctx context.Context, viewerID string, tree *thread.Tree) map[string]comment.Reaction {
	if viewerID == "" || len(tree.Nodes) == 0 {
		return nil
	}
	reactions, err := f.reactions.Reactions(ctx, viewerID, thread.IDs(tree.Nodes))
	if err != nil {
		f.mw.Logger().Warn(ctx, "reaction lookup failed", observe.Err(err))
		return nil
	}
	return reactions
}

func (f *Facade) cacheError(ctx context.Context, key string, err error) {
	f.mw.Logger().Warn(ctx, "result not cached", observe.F("cache_key", key), observe.Err(err))
}

// Set-valued key parameters are passed as sorted, deduplicated slices so the
// keyer encodes them as JSON arrays; element boundaries survive values that
// contain separators.

func statusSet(statuses []comment.Status) []string {
	s := make([]string, len(statuses))
	for i, st := range statuses {
		s[i] = string(st)
	}
	return stringSet(s)
}

func stringSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
